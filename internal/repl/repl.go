// Package repl is an interactive terminal chat with Albert.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/jmahrt/portfolio/internal/chat"
	"github.com/jmahrt/portfolio/internal/domain"
)

const prompt = "you> "

// LineReader reads edited input lines. *liner.State satisfies it.
type LineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
	Close() error
}

// REPL drives a chat.Session from a terminal.
type REPL struct {
	in         LineReader
	out        io.Writer
	newSession func(chat.Notifier) *chat.Session
	session    *chat.Session
	persona    string
}

// New creates a REPL. newSession is called at start and on /clear.
func New(in LineReader, out io.Writer, persona string, newSession func(chat.Notifier) *chat.Session) *REPL {
	r := &REPL{in: in, out: out, newSession: newSession, persona: persona}
	r.session = newSession(r.notifier())
	return r
}

// NewLiner returns a terminal line editor with history loaded from historyFile.
func NewLiner(historyFile string) *liner.State {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	if historyFile != "" {
		if f, err := os.Open(historyFile); err == nil {
			_, _ = line.ReadHistory(f)
			_ = f.Close()
		}
	}
	return line
}

// SaveHistory writes the liner history to historyFile.
func SaveHistory(line *liner.State, historyFile string) error {
	if historyFile == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(historyFile), 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if _, err := line.WriteHistory(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (r *REPL) notifier() chat.Notifier {
	return chat.NotifierFunc(func(title, description string) {
		fmt.Fprintf(r.out, "[%s] %s\n", title, description)
	})
}

// Run reads lines until EOF, Ctrl-C or /quit.
func (r *REPL) Run(ctx context.Context) error {
	fmt.Fprintf(r.out, "Chatting with %s. Type /help for commands.\n", r.persona)
	for {
		input, err := r.in.Prompt(prompt)
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		r.in.AppendHistory(input)

		if strings.HasPrefix(input, "/") {
			if quit := r.command(input); quit {
				return nil
			}
			continue
		}

		if err := r.session.Submit(ctx, input); err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		r.printReply()
	}
}

func (r *REPL) printReply() {
	msgs := r.session.Messages()
	if len(msgs) == 0 {
		return
	}
	last := msgs[len(msgs)-1]
	if last.Role == domain.RoleAssistant {
		fmt.Fprintf(r.out, "%s> %s\n", strings.ToLower(r.persona), last.Content)
	}
}

func (r *REPL) command(input string) (quit bool) {
	switch strings.Fields(input)[0] {
	case "/help", "/h":
		fmt.Fprintln(r.out, "/help     show commands")
		fmt.Fprintln(r.out, "/clear    start a new conversation")
		fmt.Fprintln(r.out, "/history  print the conversation")
		fmt.Fprintln(r.out, "/quit     exit")
	case "/clear", "/c":
		r.session = r.newSession(r.notifier())
		fmt.Fprintln(r.out, "Conversation cleared.")
	case "/history":
		for _, m := range r.session.Messages() {
			fmt.Fprintf(r.out, "%s: %s\n", m.Role, m.Content)
		}
	case "/quit", "/q", "/exit":
		return true
	default:
		fmt.Fprintf(r.out, "Unknown command %s. Type /help for commands.\n", input)
	}
	return false
}
