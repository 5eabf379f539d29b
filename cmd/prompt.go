package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// prompter reads answers from stdin, hiding secrets when stdin is a terminal.
type prompter struct {
	reader *bufio.Reader
	out    io.Writer
}

func newPrompter() *prompter {
	return &prompter{reader: bufio.NewReader(os.Stdin), out: os.Stdout}
}

func (p *prompter) Prompt(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	input, err := p.reader.ReadString('\n')
	if err != nil && (err != io.EOF || input == "") {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(input), nil
}

func (p *prompter) PromptSecret(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		input, err := p.reader.ReadString('\n')
		if err != nil && (err != io.EOF || input == "") {
			return "", fmt.Errorf("read secret: %w", err)
		}
		return strings.TrimSpace(input), nil
	}

	secret, err := term.ReadPassword(fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("read secret: %w", err)
	}
	return strings.TrimSpace(string(secret)), nil
}
