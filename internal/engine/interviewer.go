package engine

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

type QuestionType string

const (
	QuestionFreeText QuestionType = "FREE_TEXT"
	QuestionConfirm  QuestionType = "CONFIRM"
)

type Question struct {
	Stage string
	Text  string
	Type  QuestionType
}

type Answer struct {
	Text string
	Yes  bool
}

// Interviewer collects the run's interactive inputs (module name, compound
// flag) without coupling the pipeline to a particular input surface. Ask
// returns an error when the input source is exhausted and can never yield an
// answer, so callers must not re-ask in a loop; a closed stdin in a
// non-interactive session would otherwise spin forever.
type Interviewer interface {
	Ask(q Question) (Answer, error)
}

// ConsoleInterviewer prompts on stdin/stdout. Intended for interactive runs;
// non-interactive callers supply answers via flags or a QueueInterviewer.
type ConsoleInterviewer struct {
	In  *os.File
	Out *os.File

	r *bufio.Reader
}

func (i *ConsoleInterviewer) Ask(q Question) (Answer, error) {
	in := i.In
	out := i.Out
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	if i.r == nil {
		i.r = bufio.NewReader(in)
	}

	_, _ = fmt.Fprintf(out, "\n[%s] %s\n", q.Stage, strings.TrimSpace(q.Text))
	switch q.Type {
	case QuestionConfirm:
		_, _ = fmt.Fprint(out, "(y/n)> ")
	default:
		_, _ = fmt.Fprint(out, "> ")
	}
	s, err := i.r.ReadString('\n')
	if err != nil && s == "" {
		return Answer{}, fmt.Errorf("input closed: %w", err)
	}
	s = strings.TrimSpace(s)
	if q.Type == QuestionConfirm {
		s = strings.ToLower(s)
		return Answer{Yes: s == "y" || s == "yes"}, nil
	}
	return Answer{Text: s}, nil
}

// QueueInterviewer returns pre-seeded answers in order, then io.EOF. Useful
// for tests.
type QueueInterviewer struct {
	mu      sync.Mutex
	Answers []Answer
}

func (i *QueueInterviewer) Ask(q Question) (Answer, error) {
	_ = q
	i.mu.Lock()
	defer i.mu.Unlock()
	if len(i.Answers) == 0 {
		return Answer{}, io.EOF
	}
	a := i.Answers[0]
	i.Answers = i.Answers[1:]
	return a, nil
}
