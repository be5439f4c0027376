package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mirandascomunicacaovisual-glitch/Gerador-de-logo-L2/internal/audit"
	"github.com/mirandascomunicacaovisual-glitch/Gerador-de-logo-L2/internal/display"
	"github.com/mirandascomunicacaovisual-glitch/Gerador-de-logo-L2/internal/export"
	"github.com/mirandascomunicacaovisual-glitch/Gerador-de-logo-L2/internal/gate"
	"github.com/mirandascomunicacaovisual-glitch/Gerador-de-logo-L2/internal/keys"
	"github.com/mirandascomunicacaovisual-glitch/Gerador-de-logo-L2/internal/provider"
	"github.com/mirandascomunicacaovisual-glitch/Gerador-de-logo-L2/internal/provider/gemini"
	"github.com/mirandascomunicacaovisual-glitch/Gerador-de-logo-L2/internal/provider/openrouter"
	"github.com/mirandascomunicacaovisual-glitch/Gerador-de-logo-L2/internal/repl"
	"github.com/mirandascomunicacaovisual-glitch/Gerador-de-logo-L2/internal/rotation"
	"github.com/mirandascomunicacaovisual-glitch/Gerador-de-logo-L2/internal/session"
	"github.com/mirandascomunicacaovisual-glitch/Gerador-de-logo-L2/pkg/models"
)

var (
	version = "dev"
	commit  = "none"
)

var (
	flagProvider    string
	flagAPIKey      string
	flagServerName  string
	flagAuditDB     string
	flagNoAudit     bool
	flagVerbose     bool
	flagImageModels []string
	flagChatModels  []string
)

type App struct {
	In     io.Reader
	Out    io.Writer
	Err    io.Writer
	GetEnv func(string) string

	NewFactory func(cfg *provider.Config) (*provider.Factory, error)
	NewAudit   func(path string) (*audit.Store, error)
}

func DefaultApp() *App {
	return &App{
		In:     os.Stdin,
		Out:    os.Stdout,
		Err:    os.Stderr,
		GetEnv: os.Getenv,
		NewFactory: func(cfg *provider.Config) (*provider.Factory, error) {
			f := provider.NewFactory()
			gem, err := gemini.New(cfg)
			if err != nil {
				return nil, err
			}
			f.Register(gem)
			or, err := openrouter.New(cfg)
			if err != nil {
				return nil, err
			}
			f.Register(or)
			return f, nil
		},
		NewAudit: func(path string) (*audit.Store, error) {
			if path != "" {
				return audit.NewStoreWithPath(path)
			}
			return audit.NewStore()
		},
	}
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	app := DefaultApp()
	rootCmd := newRootCmd(app)
	return rootCmd.Execute()
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logoforge",
		Short: "Forge 3D MMORPG server logos in an interactive chat session",
		Long: `logoforge is an interactive logo forge for Lineage 2 style private servers.

It opens a chat session: free text is routed to image generation or branding
conversation, generated logos keep a version history with undo, and the
current logo can be exported as a PNG named after your server.

Examples:
  logoforge
  logoforge --name Avalon
  logoforge --provider openrouter --api-key or-...`,
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(app)
		},
	}

	cmd.Flags().StringVarP(&flagProvider, "provider", "p", string(models.ProviderGemini), "backend provider (gemini, openrouter)")
	cmd.Flags().StringVar(&flagAPIKey, "api-key", "", "API key (defaults to stored key, then environment)")
	cmd.Flags().StringVar(&flagServerName, "name", "", "server name to preload")
	cmd.Flags().StringVar(&flagAuditDB, "audit-db", "", "path to the request audit database")
	cmd.Flags().BoolVar(&flagNoAudit, "no-audit", false, "disable the request audit log")
	cmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "log request/response detail to stderr")
	cmd.Flags().StringSliceVar(&flagImageModels, "image-models", nil, "override the image model rotation pool")
	cmd.Flags().StringSliceVar(&flagChatModels, "chat-models", nil, "override the chat model rotation pool")

	return cmd
}

func runSession(app *App) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	providerType := models.ProviderType(flagProvider)
	envVar := envVarFor(providerType)
	if envVar == "" {
		return fmt.Errorf("%w: %s", provider.ErrProviderNotFound, flagProvider)
	}

	// Re-resolved on every call so a key connected via 'login' takes
	// effect on the very next attempt.
	keySource := func() string {
		key, _, err := keys.GetAPIKey(flagAPIKey, flagProvider, envVar)
		if err != nil {
			return ""
		}
		return key
	}

	factory, err := app.NewFactory(&provider.Config{
		APIKey:  keySource,
		Verbose: flagVerbose,
	})
	if err != nil {
		return fmt.Errorf("failed to create providers: %w", err)
	}
	prov, err := factory.Get(providerType)
	if err != nil {
		return err
	}

	var capability gate.Capability
	if store, serr := keys.NewStore(); serr == nil {
		capability = keys.NewSelector(store, flagProvider, flagAPIKey, envVar, app.In, app.Out)
	}
	g := gate.New(capability, func() string { return app.GetEnv(envVar) })
	if g.CheckInitialStatus(ctx) != models.StateAuthenticated {
		fmt.Fprintln(app.Out, "Nenhuma chave conectada. Use 'login' para liberar a forja.")
	}

	pool, err := buildPool(flagImageModels, flagChatModels)
	if err != nil {
		return err
	}

	var auditLog session.AuditLog
	var auditStats repl.AuditReader
	if !flagNoAudit {
		store, aerr := app.NewAudit(flagAuditDB)
		if aerr != nil {
			fmt.Fprintf(app.Err, "Warning: audit log disabled: %v\n", aerr)
		} else {
			defer store.Close()
			auditLog = store
			auditStats = store
		}
	}

	ctrl := session.NewController(&session.ControllerConfig{
		Gate:     g,
		Executor: rotation.NewExecutor(&rotation.Config{Pool: pool}),
		Provider: prov,
		Audit:    auditLog,
		BaseCtx:  ctx,
		OnRetry: func(res *session.Result, rerr error) {
			if rerr != nil {
				fmt.Fprintf(app.Err, "\nRetry automático falhou: %v\n", rerr)
				return
			}
			fmt.Fprintf(app.Out, "\n%s\n", res.Reply)
		},
	})
	if flagServerName != "" {
		logo := ctrl.Logo()
		logo.ServerName = flagServerName
		ctrl.SetLogo(logo)
	}

	r := repl.New(&repl.Config{
		In:         app.In,
		Out:        app.Out,
		Err:        app.Err,
		Controller: ctrl,
		Displayer:  display.New(app.Out),
		Saver:      export.NewSaver(),
		Audit:      auditStats,
	})
	return r.Run(ctx)
}

func envVarFor(providerType models.ProviderType) string {
	switch providerType {
	case models.ProviderGemini:
		return "GEMINI_API_KEY"
	case models.ProviderOpenRouter:
		return "OPENROUTER_API_KEY"
	default:
		return ""
	}
}

func buildPool(imageModels, chatModels []string) (*models.ModelPool, error) {
	if len(imageModels) == 0 && len(chatModels) == 0 {
		return models.DefaultPool(), nil
	}
	defaults := models.DefaultPool()
	if len(imageModels) == 0 {
		imageModels = defaults.ForTask(models.TaskImage)
	}
	if len(chatModels) == 0 {
		chatModels = defaults.ForTask(models.TaskChat)
	}
	return models.NewPool(imageModels, chatModels)
}
