package imapwire

import (
	"strconv"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecoder_atomAndText(t *testing.T) {
	dec := NewDecoder("a001 OK LOGIN completed\r")

	var tag, state, text string
	require.True(t, dec.ExpectAtom(&tag))
	require.True(t, dec.ExpectSP())
	require.True(t, dec.ExpectAtom(&state))
	require.True(t, dec.ExpectSP())
	require.True(t, dec.Text(&text))
	assert.True(t, dec.ExpectEOL())
	assert.NoError(t, dec.Err())

	assert.Equal(t, "a001", tag)
	assert.Equal(t, "OK", state)
	assert.Equal(t, "LOGIN completed", text)
}

func TestDecoder_number(t *testing.T) {
	tests := []struct {
		in   string
		want uint32
		ok   bool
	}{
		{in: "0", want: 0, ok: true},
		{in: "23 EXISTS", want: 23, ok: true},
		{in: "4294967295", want: 4294967295, ok: true},
		{in: "EXISTS", ok: false},
	}

	for _, tc := range tests {
		dec := NewDecoder(tc.in)
		var n uint32
		ok := dec.Number(&n)
		if ok != tc.ok {
			t.Errorf("Number(%q) ok = %v, want %v", tc.in, ok, tc.ok)
			continue
		}
		if ok && n != tc.want {
			t.Errorf("Number(%q) = %v, want %v", tc.in, n, tc.want)
		}
		if dec.Err() != nil {
			t.Errorf("Number(%q) err = %v", tc.in, dec.Err())
		}
	}
}

func TestDecoder_numberOverflow(t *testing.T) {
	dec := NewDecoder("4294967296 EXISTS")
	var n uint32
	assert.False(t, dec.ExpectNumber(&n))

	var numErr *strconv.NumError
	require.Error(t, dec.Err())
	assert.True(t, errors.As(dec.Err(), &numErr))
}

func TestDecoder_list(t *testing.T) {
	tests := []struct {
		in    string
		items []string
		err   bool
	}{
		{in: "()", items: nil},
		{in: "(a)", items: []string{"a"}},
		{in: "(a b c)", items: []string{"a", "b", "c"}},
		{in: "(a  b)", err: true},
		{in: "(a b", err: true},
		{in: "a b)", err: true},
	}

	for _, tc := range tests {
		dec := NewDecoder(tc.in)
		var items []string
		err := dec.ExpectList(func() error {
			var item string
			if !dec.ExpectAtom(&item) {
				return dec.Err()
			}
			items = append(items, item)
			return nil
		})
		if tc.err {
			assert.Error(t, err, tc.in)
			continue
		}
		if assert.NoError(t, err, tc.in) {
			assert.Equal(t, tc.items, items, tc.in)
		}
	}
}

func TestDecoder_EOF(t *testing.T) {
	for _, in := range []string{"", "\r", "\n", "\r\n"} {
		if !NewDecoder(in).EOF() {
			t.Errorf("EOF(%q) = false", in)
		}
	}
	if NewDecoder("x\r").EOF() {
		t.Errorf("EOF(%q) = true", "x\r")
	}
}

func TestDecoder_expectError(t *testing.T) {
	dec := NewDecoder("* FLAGS")
	assert.False(t, dec.ExpectSP())
	assert.EqualError(t, dec.Err(), `expected SP, got "*" at offset 0`)

	// Only the first error is kept.
	assert.False(t, dec.ExpectSpecial('('))
	assert.EqualError(t, dec.Err(), `expected SP, got "*" at offset 0`)

	_, ok := dec.Err().(interface{ StackTrace() errors.StackTrace })
	assert.True(t, ok, "error carries no stack trace")
}

func TestDecoder_expectEndOfLine(t *testing.T) {
	dec := NewDecoder("* 3")
	var s string
	assert.True(t, dec.ExpectSpecial('*'))
	assert.True(t, dec.ExpectSP())
	assert.True(t, dec.ExpectAtom(&s))
	assert.False(t, dec.ExpectSP())
	assert.EqualError(t, dec.Err(), "expected SP, got end of line")
}
