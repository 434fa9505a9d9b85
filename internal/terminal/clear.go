// Package terminal provides prompt helpers for the CLI: hidden input and
// clearing previously printed lines.
package terminal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"golang.org/x/term"
)

// ClearPreviousLines clears text from the terminal that was previously printed.
// It calculates how many lines were used by the provided text based on the current
// terminal width, then moves up and clears each line.
//
// textLength is the number of characters of prompt plus input. One extra line
// is cleared for the newline produced by Enter.
func ClearPreviousLines(textLength int) {
	termWidth := 80
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		termWidth = width
	}
	fmt.Print(clearSequence(textLength, termWidth))
}

func clearSequence(textLength, termWidth int) string {
	totalLines := int(math.Ceil(float64(textLength) / float64(termWidth)))
	if totalLines < 1 {
		totalLines = 1
	}
	linesToClear := totalLines + 1

	var b strings.Builder
	for i := 0; i < linesToClear; i++ {
		b.WriteString("\r\x1b[2K") // Move to start and clear entire line
		if i < linesToClear-1 {
			b.WriteString("\x1b[1A") // Move up one line
		}
	}
	return b.String()
}

// ErrEmptyInput is returned when a required prompt is answered with nothing.
var ErrEmptyInput = errors.New("input must not be empty")

// Prompter reads answers from In and writes prompts to Out.
type Prompter struct {
	In  io.Reader
	Out io.Writer

	reader *bufio.Reader
}

// NewPrompter returns a prompter on stdin/stdout.
func NewPrompter() *Prompter {
	return &Prompter{In: os.Stdin, Out: os.Stdout}
}

func (p *Prompter) buffered() *bufio.Reader {
	if p.reader == nil {
		p.reader = bufio.NewReader(p.In)
	}
	return p.reader
}

// Ask prints label and returns the trimmed line. def is returned for an
// empty answer; an empty answer without def is ErrEmptyInput.
func (p *Prompter) Ask(label, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(p.Out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(p.Out, "%s: ", label)
	}
	line, err := p.buffered().ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		if def == "" {
			return "", ErrEmptyInput
		}
		return def, nil
	}
	return line, nil
}

// AskSecret reads a line without echo when In is a terminal, and falls back
// to Ask otherwise so piped input still works.
func (p *Prompter) AskSecret(label string) (string, error) {
	f, ok := p.In.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return p.Ask(label, "")
	}
	fmt.Fprintf(p.Out, "%s: ", label)
	b, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(p.Out)
	if err != nil {
		return "", err
	}
	s := strings.TrimSpace(string(b))
	if s == "" {
		return "", ErrEmptyInput
	}
	return s, nil
}
