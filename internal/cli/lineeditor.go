package cli

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ergochat/readline"
	"golang.org/x/term"
)

const (
	historyFileName = ".imapcore_history"
	historySize     = 500
)

// lineEditor reads shell input. On a terminal it uses readline with history,
// otherwise it scans lines from the input without echoing a prompt.
type lineEditor struct {
	rl      *readline.Instance
	scanner *bufio.Scanner
}

func newLineEditor(in io.Reader, prompt string) *lineEditor {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		var historyPath string
		if home, err := os.UserHomeDir(); err == nil {
			historyPath = filepath.Join(home, historyFileName)
		}
		rl, err := readline.NewFromConfig(&readline.Config{
			HistoryFile:            historyPath,
			HistoryLimit:           historySize,
			DisableAutoSaveHistory: true,
			Prompt:                 prompt,
		})
		if err == nil {
			return &lineEditor{rl: rl}
		}
	}
	return &lineEditor{scanner: bufio.NewScanner(in)}
}

// ReadLine returns the next line. io.EOF is returned at the end of the input
// and on Ctrl-C.
func (le *lineEditor) ReadLine() (string, error) {
	if le.rl == nil {
		if !le.scanner.Scan() {
			if err := le.scanner.Err(); err != nil {
				return "", err
			}
			return "", io.EOF
		}
		return le.scanner.Text(), nil
	}

	line, err := le.rl.Readline()
	if err == readline.ErrInterrupt {
		return "", io.EOF
	} else if err != nil {
		return "", err
	}

	// Credentials stay out of the history file
	trimmed := strings.TrimSpace(line)
	if trimmed != "" && !hasVerb(trimmed, "LOGIN") {
		le.rl.SaveToHistory(trimmed)
	}
	return line, nil
}

func (le *lineEditor) Close() error {
	if le.rl == nil {
		return nil
	}
	return le.rl.Close()
}

func hasVerb(line, verb string) bool {
	first, _, _ := strings.Cut(line, " ")
	return strings.EqualFold(first, verb)
}
