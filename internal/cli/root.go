// Package cli implements the command-line interface for the Ziskej CLI.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/colthorp/ziskej-cli-go/internal/api"
	"github.com/colthorp/ziskej-cli-go/internal/config"
	"github.com/colthorp/ziskej-cli-go/internal/core"
	"github.com/colthorp/ziskej-cli-go/internal/output"
)

// ConnectFunc builds the API client for the loaded settings.
type ConnectFunc func(cfg config.Config, log *slog.Logger) (*api.ZiskejAPI, error)

// App carries the state shared by every command: I/O streams, global
// flags and the factories commands use to reach the service.
type App struct {
	In      io.Reader
	Out     io.Writer
	Err     io.Writer
	Now     func() time.Time
	Connect ConnectFunc

	// Global flags
	configPath string
	verbose    bool
	raw        bool
	eppn       string
}

// NewApp returns an App wired to the process streams and the real service.
func NewApp() *App {
	return &App{
		In:      os.Stdin,
		Out:     os.Stdout,
		Err:     os.Stderr,
		Now:     time.Now,
		Connect: Connect,
	}
}

// Connect builds a client over the resty transport with the credentials
// the settings describe.
func Connect(cfg config.Config, log *slog.Logger) (*api.ZiskejAPI, error) {
	creds, err := cfg.Credentials()
	if err != nil {
		return nil, err
	}
	opts := []api.TransportOption{api.WithTimeout(cfg.Timeout), api.WithLogger(log)}
	if creds != nil {
		opts = append(opts, api.WithCredentials(creds))
	}
	return api.NewZiskejAPI(api.NewRestyTransport(cfg.BaseURL, opts...)), nil
}

// Execute runs the command tree against the process arguments.
func Execute() {
	if err := NewApp().RootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// RootCmd builds the ziskej command tree.
func (a *App) RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ziskej",
		Short:         "Ziskej CLI – interlibrary loans from the command line",
		Long:          `A command-line utility for readers of the Ziskej interlibrary loan service: libraries, tickets, messages and EDD estimates.`,
		Version:       core.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(a.In)
	root.SetOut(a.Out)
	root.SetErr(a.Err)

	// Persistent flags available to all commands
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (default "+core.ConfigPath()+")")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Verbose debug output to stderr")
	root.PersistentFlags().BoolVar(&a.raw, "raw", false, "Emit JSON instead of text")
	root.PersistentFlags().StringVar(&a.eppn, "eppn", os.Getenv(core.EnvEppn), "Reader eduPersonPrincipalName (env "+core.EnvEppn+")")

	root.AddCommand(
		a.librariesCmd(),
		a.libraryCmd(),
		a.readerCmd(),
		a.ticketsCmd(),
		a.ticketIDsCmd(),
		a.ticketCmd(),
		a.messagesCmd(),
		a.estimateCmd(),
		a.tokenCmd(),
		a.mcpCmd(),
	)
	return root
}

// session is what a command needs once settings are loaded.
type session struct {
	cfg    config.Config
	log    *slog.Logger
	client *api.ZiskejAPI
	out    *output.Printer
}

func (a *App) settings() (config.Config, error) {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func (a *App) open() (*session, error) {
	cfg, err := a.settings()
	if err != nil {
		return nil, err
	}
	log := core.NewLoggerTo(a.Err, a.verbose)
	client, err := a.Connect(cfg, log)
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, log: log, client: client, out: output.NewPrinter(a.Out)}, nil
}

func (a *App) requireEppn() (string, error) {
	if a.eppn == "" {
		return "", errors.New("reader is not set (use --eppn or " + core.EnvEppn + ")")
	}
	return a.eppn, nil
}

// emit prints v as JSON with --raw and through text otherwise.
func (a *App) emit(s *session, v any, text func(p *output.Printer)) error {
	if a.raw {
		return s.out.PrintJSON(v)
	}
	text(s.out)
	return nil
}
