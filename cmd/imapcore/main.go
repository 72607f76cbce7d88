// Command imapcore sends commands to an IMAP server.
package main

import (
	"github.com/hussein-aitlahcen/imap/internal/cli"
)

func main() {
	cli.Execute()
}
