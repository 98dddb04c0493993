package client

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/atotto/clipboard"
	"golang.org/x/term"

	"github.com/MKhiriev/credvault/internal/app"
)

// terminalPrompter reads passphrases from the controlling terminal with
// echo disabled. When standard input is redirected, passphrases still come
// from the terminal while secrets are read from the redirected input.
type terminalPrompter struct {
	in  *os.File
	out io.Writer

	isTerminal   func(fd int) bool
	openTTY      func() (*os.File, error)
	readPassword func(fd int) ([]byte, error)
}

// NewTerminalPrompter returns a [Prompter] reading from in and writing
// prompts to out.
func NewTerminalPrompter(in *os.File, out io.Writer) Prompter {
	return &terminalPrompter{
		in:           in,
		out:          out,
		isTerminal:   term.IsTerminal,
		openTTY:      openTTY,
		readPassword: term.ReadPassword,
	}
}

func (p *terminalPrompter) ReadPassphrase(prompt string) ([]byte, error) {
	if p.isTerminal(int(p.in.Fd())) {
		return p.readHidden(p.in, prompt)
	}

	tty, err := p.openTTY()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", app.ErrNotATerminal, err)
	}
	defer tty.Close()

	if !p.isTerminal(int(tty.Fd())) {
		return nil, app.ErrNotATerminal
	}
	return p.readHidden(tty, prompt)
}

// ReadSecret reads without echo on a terminal. Piped input is read to EOF
// with one trailing newline removed, so multi-line keys survive.
func (p *terminalPrompter) ReadSecret(prompt string) ([]byte, error) {
	if p.isTerminal(int(p.in.Fd())) {
		return p.readHidden(p.in, prompt)
	}

	data, err := io.ReadAll(p.in)
	if err != nil {
		return nil, fmt.Errorf("read secret: %w", err)
	}
	return trimNewline(data), nil
}

func trimNewline(b []byte) []byte {
	b = bytes.TrimSuffix(b, []byte("\n"))
	return bytes.TrimSuffix(b, []byte("\r"))
}

func (p *terminalPrompter) readHidden(tty *os.File, prompt string) ([]byte, error) {
	fmt.Fprint(p.out, prompt)
	secret, err := p.readPassword(int(tty.Fd()))
	fmt.Fprintln(p.out)
	if err != nil {
		return nil, fmt.Errorf("read from terminal: %w", err)
	}
	return secret, nil
}

type systemClipboard struct{}

// NewSystemClipboard returns a [Clipboard] backed by the OS clipboard.
func NewSystemClipboard() Clipboard {
	return systemClipboard{}
}

func (systemClipboard) WriteAll(text string) error {
	return clipboard.WriteAll(text)
}
