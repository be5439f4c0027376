// Package repl is the interactive chat surface. Bare text is sent to the
// session pipeline as a message; a small command vocabulary covers branding
// configuration, generation, history and session control.
package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mirandascomunicacaovisual-glitch/Gerador-de-logo-L2/internal/audit"
	"github.com/mirandascomunicacaovisual-glitch/Gerador-de-logo-L2/internal/display"
	"github.com/mirandascomunicacaovisual-glitch/Gerador-de-logo-L2/internal/export"
	"github.com/mirandascomunicacaovisual-glitch/Gerador-de-logo-L2/internal/session"
	"github.com/mirandascomunicacaovisual-glitch/Gerador-de-logo-L2/pkg/models"
)

// AuditReader reads back the request log for the stats command. Satisfied by
// *audit.Store; nil when the log is disabled.
type AuditReader interface {
	Recent(ctx context.Context, n int) ([]*audit.Entry, error)
	Summarize(ctx context.Context) (*audit.Summary, error)
}

type REPL struct {
	in         io.Reader
	out        io.Writer
	err        io.Writer
	controller *session.Controller
	displayer  *display.Displayer
	saver      *export.Saver
	audit      AuditReader
	commands   map[string]Command
	running    bool

	// attached holds an uploaded image waiting for the next message.
	attached []byte
}

type Config struct {
	In         io.Reader
	Out        io.Writer
	Err        io.Writer
	Controller *session.Controller
	Displayer  *display.Displayer
	Saver      *export.Saver
	Audit      AuditReader
}

func New(cfg *Config) *REPL {
	r := &REPL{
		in:         cfg.In,
		out:        cfg.Out,
		err:        cfg.Err,
		controller: cfg.Controller,
		displayer:  cfg.Displayer,
		saver:      cfg.Saver,
		audit:      cfg.Audit,
		commands:   make(map[string]Command),
	}
	r.registerCommands()
	return r
}

func (r *REPL) Run(ctx context.Context) error {
	r.running = true
	r.printWelcome()

	scanner := bufio.NewScanner(r.in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for r.running {
		r.printPrompt()
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if err := r.execute(ctx, line); err != nil {
			fmt.Fprintf(r.err, "Error: %v\n", err)
		}
	}

	return scanner.Err()
}

// execute routes a line: a known first token runs the command, anything else
// is a chat message.
func (r *REPL) execute(ctx context.Context, line string) error {
	parts := parseCommand(line)
	if len(parts) == 0 {
		return nil
	}

	if cmd, ok := r.commands[strings.ToLower(parts[0])]; ok {
		return cmd.Execute(ctx, r, parts[1:])
	}
	return r.sendMessage(ctx, line)
}

func (r *REPL) sendMessage(ctx context.Context, text string) error {
	upload := r.attached
	r.attached = nil

	res, err := r.controller.SendMessage(ctx, text, upload)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrQuotaRetryScheduled):
			fmt.Fprintln(r.out, "Limite de requisições atingido. Tentando novamente em instantes...")
			return nil
		case errors.Is(err, session.ErrUnauthenticated):
			fmt.Fprintln(r.out, "Sessão bloqueada. Use 'login' para conectar sua chave.")
			return nil
		default:
			return err
		}
	}

	fmt.Fprintln(r.out, res.Reply)
	if res.Image != nil {
		if derr := r.displayer.Display(res.Image); derr != nil {
			fmt.Fprintf(r.err, "Warning: failed to display: %v\n", derr)
		}
	}
	return nil
}

func (r *REPL) Stop() {
	r.running = false
}

func (r *REPL) printWelcome() {
	fmt.Fprintln(r.out, "logoforge interactive mode")
	fmt.Fprintln(r.out, "Type 'help' for commands; anything else is sent to the forge.")
	fmt.Fprintln(r.out)
	for _, msg := range r.controller.Messages() {
		if msg.Role == models.RoleAssistant {
			fmt.Fprintln(r.out, msg.Content)
		}
	}
	fmt.Fprintln(r.out)
}

func (r *REPL) printPrompt() {
	name := r.controller.Logo().ServerName
	if name == "" {
		name = "sem nome"
	}
	switch {
	case !r.controller.Gate().Authenticated():
		fmt.Fprintf(r.out, "logoforge [%s] (locked)> ", name)
	case r.controller.Retrying():
		fmt.Fprintf(r.out, "logoforge [%s] (retrying)> ", name)
	default:
		fmt.Fprintf(r.out, "logoforge [%s]> ", name)
	}
}

func parseCommand(line string) []string {
	var parts []string
	var current strings.Builder
	inQuotes := false
	quoteChar := rune(0)

	for _, ch := range line {
		switch {
		case ch == '"' || ch == '\'':
			if inQuotes && ch == quoteChar {
				inQuotes = false
				quoteChar = 0
			} else if !inQuotes {
				inQuotes = true
				quoteChar = ch
			} else {
				current.WriteRune(ch)
			}
		case ch == ' ' && !inQuotes:
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(ch)
		}
	}

	if current.Len() > 0 {
		parts = append(parts, current.String())
	}

	return parts
}
