package repl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/mirandascomunicacaovisual-glitch/Gerador-de-logo-L2/internal/session"
	"github.com/mirandascomunicacaovisual-glitch/Gerador-de-logo-L2/pkg/models"
)

type Command interface {
	Name() string
	Aliases() []string
	Description() string
	Usage() string
	Execute(ctx context.Context, r *REPL, args []string) error
}

func (r *REPL) registerCommands() {
	commands := []Command{
		&NameCommand{},
		&StyleCommand{},
		&ColorsCommand{},
		&SymbolCommand{},
		&GenerateCommand{},
		&AttachCommand{},
		&UndoCommand{},
		&DownloadCommand{},
		&HistoryCommand{},
		&StatusCommand{},
		&StatsCommand{},
		&LoginCommand{},
		&ResetCommand{},
		&HelpCommand{},
		&QuitCommand{},
	}

	for _, cmd := range commands {
		r.commands[cmd.Name()] = cmd
		for _, alias := range cmd.Aliases() {
			r.commands[alias] = cmd
		}
	}
}

// NameCommand sets the server name the logo is forged around.
type NameCommand struct{}

func (c *NameCommand) Name() string        { return "name" }
func (c *NameCommand) Aliases() []string   { return []string{"server"} }
func (c *NameCommand) Description() string { return "Set the server name" }
func (c *NameCommand) Usage() string       { return "name <server name>" }

func (c *NameCommand) Execute(_ context.Context, r *REPL, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: %s", c.Usage())
	}
	logo := r.controller.Logo()
	logo.ServerName = strings.Join(args, " ")
	r.controller.SetLogo(logo)
	fmt.Fprintf(r.out, "Server name: %s\n", logo.ServerName)
	return nil
}

// StyleCommand sets or lists the visual style.
type StyleCommand struct{}

func (c *StyleCommand) Name() string        { return "style" }
func (c *StyleCommand) Aliases() []string   { return nil }
func (c *StyleCommand) Description() string { return "Set the logo style (no args lists options)" }
func (c *StyleCommand) Usage() string       { return "style [value]" }

func (c *StyleCommand) Execute(_ context.Context, r *REPL, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(r.out, "Available styles:")
		for _, s := range models.StyleOptions() {
			fmt.Fprintf(r.out, "  %s\n", s)
		}
		return nil
	}
	logo := r.controller.Logo()
	logo.Style = strings.Join(args, " ")
	r.controller.SetLogo(logo)
	fmt.Fprintf(r.out, "Style: %s\n", logo.Style)
	return nil
}

// ColorsCommand sets the color scheme.
type ColorsCommand struct{}

func (c *ColorsCommand) Name() string        { return "colors" }
func (c *ColorsCommand) Aliases() []string   { return []string{"cores"} }
func (c *ColorsCommand) Description() string { return "Set the color scheme" }
func (c *ColorsCommand) Usage() string       { return "colors <scheme>" }

func (c *ColorsCommand) Execute(_ context.Context, r *REPL, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: %s", c.Usage())
	}
	logo := r.controller.Logo()
	logo.ColorScheme = strings.Join(args, " ")
	r.controller.SetLogo(logo)
	fmt.Fprintf(r.out, "Colors: %s\n", logo.ColorScheme)
	return nil
}

// SymbolCommand sets or lists the crest symbol.
type SymbolCommand struct{}

func (c *SymbolCommand) Name() string        { return "symbol" }
func (c *SymbolCommand) Aliases() []string   { return nil }
func (c *SymbolCommand) Description() string { return "Set the crest symbol (no args lists options)" }
func (c *SymbolCommand) Usage() string       { return "symbol [value]" }

func (c *SymbolCommand) Execute(_ context.Context, r *REPL, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(r.out, "Available symbols:")
		for _, s := range models.SymbolOptions() {
			fmt.Fprintf(r.out, "  %s\n", s)
		}
		return nil
	}
	logo := r.controller.Logo()
	logo.Symbol = strings.Join(args, " ")
	r.controller.SetLogo(logo)
	fmt.Fprintf(r.out, "Symbol: %s\n", logo.Symbol)
	return nil
}

// GenerateCommand forges a logo straight from the configured branding.
type GenerateCommand struct{}

func (c *GenerateCommand) Name() string        { return "generate" }
func (c *GenerateCommand) Aliases() []string   { return []string{"gen", "g"} }
func (c *GenerateCommand) Description() string { return "Forge a logo from the current configuration" }
func (c *GenerateCommand) Usage() string       { return "generate" }

func (c *GenerateCommand) Execute(ctx context.Context, r *REPL, args []string) error {
	res, err := r.controller.QuickGenerate(ctx)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrEmptyServerName):
			return fmt.Errorf("set a server name first: name <server name>")
		case errors.Is(err, session.ErrQuotaRetryScheduled):
			fmt.Fprintln(r.out, "Limite de requisições atingido. Tentando novamente em instantes...")
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

// AttachCommand stages an image file to be sent with the next message.
type AttachCommand struct{}

func (c *AttachCommand) Name() string        { return "attach" }
func (c *AttachCommand) Aliases() []string   { return []string{"upload"} }
func (c *AttachCommand) Description() string { return "Attach an image to the next message" }
func (c *AttachCommand) Usage() string       { return "attach <path>" }

func (c *AttachCommand) Execute(_ context.Context, r *REPL, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: %s", c.Usage())
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}
	r.attached = data
	fmt.Fprintf(r.out, "Attached %s (%d bytes); it will ride along with your next message.\n", args[0], len(data))
	return nil
}

// UndoCommand steps the logo history back one version.
type UndoCommand struct{}

func (c *UndoCommand) Name() string        { return "undo" }
func (c *UndoCommand) Aliases() []string   { return []string{"u"} }
func (c *UndoCommand) Description() string { return "Go back to the previous logo version" }
func (c *UndoCommand) Usage() string       { return "undo" }

func (c *UndoCommand) Execute(_ context.Context, r *REPL, args []string) error {
	if !r.controller.Undo() {
		return fmt.Errorf("nothing to undo")
	}
	fmt.Fprintf(r.out, "Reverted to version %d.\n", r.controller.HistoryCursor()+1)
	if img := r.controller.CurrentImage(); img != nil {
		if derr := r.displayer.Display(img); derr != nil {
			fmt.Fprintf(r.err, "Warning: failed to display: %v\n", derr)
		}
	}
	return nil
}

// DownloadCommand saves the current logo to disk.
type DownloadCommand struct{}

func (c *DownloadCommand) Name() string        { return "download" }
func (c *DownloadCommand) Aliases() []string   { return []string{"save", "d"} }
func (c *DownloadCommand) Description() string { return "Save the current logo to a file" }
func (c *DownloadCommand) Usage() string       { return "download [path]" }

func (c *DownloadCommand) Execute(_ context.Context, r *REPL, args []string) error {
	img := r.controller.CurrentImage()
	if img == nil {
		return fmt.Errorf("no logo to download yet")
	}
	var path string
	if len(args) > 0 {
		path = args[0]
	}
	saved, err := r.saver.Save(img, path, r.controller.Logo().ServerName)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Saved: %s\n", saved)
	return nil
}

// HistoryCommand summarizes the logo version history.
type HistoryCommand struct{}

func (c *HistoryCommand) Name() string        { return "history" }
func (c *HistoryCommand) Aliases() []string   { return []string{"h"} }
func (c *HistoryCommand) Description() string { return "Show the logo version history" }
func (c *HistoryCommand) Usage() string       { return "history" }

func (c *HistoryCommand) Execute(_ context.Context, r *REPL, args []string) error {
	n := r.controller.HistoryLen()
	if n == 0 {
		fmt.Fprintln(r.out, "No logo versions yet.")
		return nil
	}
	cursor := r.controller.HistoryCursor()
	for i := 0; i < n; i++ {
		marker := "  "
		if i == cursor {
			marker = "* "
		}
		fmt.Fprintf(r.out, "%sversion %d\n", marker, i+1)
	}
	return nil
}

// StatusCommand prints the session and branding state.
type StatusCommand struct{}

func (c *StatusCommand) Name() string        { return "status" }
func (c *StatusCommand) Aliases() []string   { return []string{"st"} }
func (c *StatusCommand) Description() string { return "Show session status and configuration" }
func (c *StatusCommand) Usage() string       { return "status" }

func (c *StatusCommand) Execute(_ context.Context, r *REPL, args []string) error {
	logo := r.controller.Logo()
	fmt.Fprintf(r.out, "Session:   %s\n", r.controller.Gate().State())
	fmt.Fprintf(r.out, "Status:    %s\n", r.controller.Status())
	if r.controller.Retrying() {
		fmt.Fprintln(r.out, "Retry:     scheduled")
	}
	fmt.Fprintf(r.out, "Name:      %s\n", logo.ServerName)
	fmt.Fprintf(r.out, "Style:     %s\n", logo.Style)
	fmt.Fprintf(r.out, "Colors:    %s\n", logo.ColorScheme)
	fmt.Fprintf(r.out, "Symbol:    %s\n", logo.Symbol)
	fmt.Fprintf(r.out, "Versions:  %d (current %d)\n", r.controller.HistoryLen(), r.controller.HistoryCursor()+1)
	return nil
}

// StatsCommand reads back the request audit log.
type StatsCommand struct{}

func (c *StatsCommand) Name() string        { return "stats" }
func (c *StatsCommand) Aliases() []string   { return []string{"audit"} }
func (c *StatsCommand) Description() string { return "Show request statistics and recent activity" }
func (c *StatsCommand) Usage() string       { return "stats" }

func (c *StatsCommand) Execute(ctx context.Context, r *REPL, args []string) error {
	if r.audit == nil {
		fmt.Fprintln(r.out, "The request log is disabled.")
		return nil
	}

	summary, err := r.audit.Summarize(ctx)
	if err != nil {
		return fmt.Errorf("failed to read request log: %w", err)
	}
	fmt.Fprintf(r.out, "Requests:  %d total, %d ok, %d failed\n",
		summary.Total, summary.Succeeded, summary.Failed)
	if summary.Total == 0 {
		return nil
	}

	entries, err := r.audit.Recent(ctx, 10)
	if err != nil {
		return fmt.Errorf("failed to read request log: %w", err)
	}
	fmt.Fprintln(r.out, "Recent:")
	for _, e := range entries {
		fmt.Fprintf(r.out, "  %s  %-7s %-24s %-6s %dms\n",
			e.CreatedAt.Format("2006-01-02 15:04"), e.Operation, e.Model, e.Disposition, e.DurationMS)
	}
	return nil
}

// LoginCommand opens the credential selector and unlocks the session.
type LoginCommand struct{}

func (c *LoginCommand) Name() string        { return "login" }
func (c *LoginCommand) Aliases() []string   { return []string{"connect"} }
func (c *LoginCommand) Description() string { return "Connect your API key" }
func (c *LoginCommand) Usage() string       { return "login" }

func (c *LoginCommand) Execute(ctx context.Context, r *REPL, args []string) error {
	if !r.controller.Gate().Login(ctx) {
		fmt.Fprintln(r.out, "A login is already in progress.")
		return nil
	}
	fmt.Fprintln(r.out, "Conectado. A forja está liberada.")
	return nil
}

// ResetCommand clears the whole session.
type ResetCommand struct{}

func (c *ResetCommand) Name() string        { return "reset" }
func (c *ResetCommand) Aliases() []string   { return nil }
func (c *ResetCommand) Description() string { return "Reset conversation and logo history" }
func (c *ResetCommand) Usage() string       { return "reset" }

func (c *ResetCommand) Execute(_ context.Context, r *REPL, args []string) error {
	r.controller.Reset()
	r.attached = nil
	for _, msg := range r.controller.Messages() {
		fmt.Fprintln(r.out, msg.Content)
	}
	return nil
}

// HelpCommand lists the vocabulary.
type HelpCommand struct{}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Aliases() []string   { return []string{"?"} }
func (c *HelpCommand) Description() string { return "Show available commands" }
func (c *HelpCommand) Usage() string       { return "help" }

func (c *HelpCommand) Execute(_ context.Context, r *REPL, args []string) error {
	seen := make(map[string]Command)
	for _, cmd := range r.commands {
		seen[cmd.Name()] = cmd
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(r.out, "Commands:")
	for _, name := range names {
		cmd := seen[name]
		fmt.Fprintf(r.out, "  %-24s %s\n", cmd.Usage(), cmd.Description())
	}
	fmt.Fprintln(r.out, "\nAnything else is sent to the forge as a message.")
	return nil
}

// QuitCommand ends the REPL loop.
type QuitCommand struct{}

func (c *QuitCommand) Name() string        { return "quit" }
func (c *QuitCommand) Aliases() []string   { return []string{"exit", "q"} }
func (c *QuitCommand) Description() string { return "Exit" }
func (c *QuitCommand) Usage() string       { return "quit" }

func (c *QuitCommand) Execute(_ context.Context, r *REPL, args []string) error {
	r.Stop()
	fmt.Fprintln(r.out, "Até a próxima forja.")
	return nil
}
