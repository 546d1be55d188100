package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// ErrNoAnswer is returned when the input ends before an answer is read.
var ErrNoAnswer = errors.New("no answer available")

// Interviewee answers questions by prompting on out and reading one line
// per answer from in.
type Interviewee struct {
	mu      sync.Mutex
	scanner *bufio.Scanner
	out     io.Writer
}

// NewInterviewee creates an Interviewee. out may be nil to suppress prompts.
func NewInterviewee(in io.Reader, out io.Writer) *Interviewee {
	if out == nil {
		out = io.Discard
	}
	return &Interviewee{
		scanner: bufio.NewScanner(in),
		out:     out,
	}
}

// Answer prints the question and returns the next input line, trimmed.
func (i *Interviewee) Answer(ctx context.Context, question string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	fmt.Fprintf(i.out, "Question: %s\nClient's answer: ", question)
	if !i.scanner.Scan() {
		if err := i.scanner.Err(); err != nil {
			return "", fmt.Errorf("reading answer: %w", err)
		}
		return "", ErrNoAnswer
	}
	return strings.TrimSpace(i.scanner.Text()), nil
}

// Scripted answers from a fixed list, in order. It is used by the HTTP API
// and tests where no one is at a terminal.
type Scripted struct {
	mu      sync.Mutex
	answers []string
}

// NewScripted returns a Scripted interviewee.
func NewScripted(answers ...string) *Scripted {
	return &Scripted{answers: answers}
}

// Answer returns the next scripted answer.
func (s *Scripted) Answer(_ context.Context, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.answers) == 0 {
		return "", ErrNoAnswer
	}
	a := s.answers[0]
	s.answers = s.answers[1:]
	return a, nil
}
