// Package cli is the idptest command tree.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lukaszraczylo/idptest/config"
	"github.com/lukaszraczylo/idptest/internal/browser"
	"github.com/lukaszraczylo/idptest/internal/console"
	"github.com/lukaszraczylo/idptest/internal/debugapi"
	"github.com/lukaszraczylo/idptest/internal/debugflow"
	"github.com/lukaszraczylo/idptest/internal/httpclient"
	"github.com/lukaszraczylo/idptest/internal/i18n"
	"github.com/lukaszraczylo/idptest/internal/logger"
	"github.com/lukaszraczylo/idptest/internal/sessionctx"
)

// Version is set at build time via ldflags.
var Version = "dev"

// errTestFailed is returned once a failure has already been rendered.
var errTestFailed = errors.New("connection test failed")

// Options are the global flags.
type Options struct {
	ConfigFile string
	EnvFiles   []string
	Tenant     string
	Verbose    bool
	NoPrompt   bool
}

// App holds what every command shares once the configuration is loaded.
type App struct {
	opts   Options
	out    io.Writer
	errOut io.Writer

	cfg     *config.Config
	logs    *logger.Factory
	catalog *i18n.Catalog

	prompter console.Prompter
	// newPopups builds the window opener of a run; nil means no window.
	newPopups func(cfg *config.Config, log logger.Logger) (debugflow.PopupOpener, error)
}

// NewApp creates an application writing to out and errOut.
func NewApp(out, errOut io.Writer) *App {
	return &App{
		out:       out,
		errOut:    errOut,
		prompter:  console.NewSurveyPrompter(),
		newPopups: browserPopups,
	}
}

// Execute runs the command tree with os.Args and exits non-zero on failure.
func Execute() {
	app := NewApp(os.Stdout, os.Stderr)
	if err := app.Command().Execute(); err != nil {
		if !errors.Is(err, errTestFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

// Command builds the root command.
func (a *App) Command() *cobra.Command {
	root := &cobra.Command{
		Use:   "idptest",
		Short: "Test federated identity provider connections",
		Long: `idptest runs the connection test of a federated identity provider
against the identity server console API and shows the authentication and
claims mapping results.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	flags := root.PersistentFlags()
	flags.StringVarP(&a.opts.ConfigFile, "config", "c", "", "configuration file (YAML)")
	flags.StringSliceVar(&a.opts.EnvFiles, "env", nil, "env files to load instead of .env")
	flags.StringVarP(&a.opts.Tenant, "tenant", "t", "", "tenant domain, overrides server.tenantDomain")
	flags.BoolVarP(&a.opts.Verbose, "verbose", "v", false, "enable debug logging")
	flags.BoolVar(&a.opts.NoPrompt, "no-prompt", false, "never ask questions")

	root.AddCommand(
		a.runCommand(),
		a.resultCommand(),
		a.sandboxCommand(),
		a.showConfigCommand(),
		a.contextCommand(),
	)
	return root
}

func (a *App) setup() error {
	cfg, err := config.NewConfigLoader().
		WithConfigFile(a.opts.ConfigFile).
		WithEnvFiles(a.opts.EnvFiles...).
		Load()
	if err != nil {
		return err
	}
	if a.opts.Tenant != "" {
		cfg.Server.TenantDomain = a.opts.Tenant
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if a.opts.Verbose {
		cfg.Logging.Level = "debug"
	}
	a.cfg = cfg

	a.logs = logger.NewFactory(cfg.Logging.Level, a.errOut)

	a.catalog = i18n.Default()
	if cfg.I18n.Catalog != "" {
		if a.catalog, err = i18n.Load(cfg.I18n.Catalog); err != nil {
			return fmt.Errorf("failed to load translations: %w", err)
		}
	}

	if a.opts.NoPrompt {
		a.prompter = console.StaticPrompter(false)
	}
	return nil
}

func (a *App) log(component string) logger.Logger {
	return a.logs.GetLogger(component)
}

func (a *App) renderer() *console.Renderer {
	return console.NewRenderer(a.out, a.catalog)
}

// apiClient builds the console API client carrying the configured session
// cookie.
func (a *App) apiClient() (*debugapi.Client, error) {
	log := a.log("api")
	httpClient, err := httpclient.NewFactory(log).CreateAPI(a.cfg.Server.Timeout, a.cfg.Server.InsecureSkipVerify)
	if err != nil {
		return nil, err
	}
	if a.cfg.Server.SessionCookie != "" {
		if err := httpclient.SeedCookies(httpClient, a.cfg.Server.BaseURL, a.cfg.Server.SessionCookie); err != nil {
			return nil, fmt.Errorf("invalid session cookie: %w", err)
		}
	}
	return debugapi.NewClient(httpClient, a.cfg.Server.BaseURL, a.cfg.Server.APIPath, log)
}

// contextStore opens the configured context backend. The returned function
// releases it.
func (a *App) contextStore() (sessionctx.Store, func() error, error) {
	log := a.log("context")
	noop := func() error { return nil }

	switch sessionctx.StorageBackend(a.cfg.Context.Backend) {
	case sessionctx.StorageBackendMemory:
		return sessionctx.NewMemoryStore(), noop, nil
	case sessionctx.StorageBackendFile:
		return sessionctx.NewFileStore(a.cfg.Context.FilePath, log), noop, nil
	case sessionctx.StorageBackendRedis:
		client := a.cfg.Redis.NewClient()
		return sessionctx.NewRedisStore(client, a.cfg.Redis.KeyPrefix, a.cfg.Context.TTL, log), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown context backend %q", a.cfg.Context.Backend)
	}
}

func browserPopups(cfg *config.Config, log logger.Logger) (debugflow.PopupOpener, error) {
	opener, err := browser.NewOpener(cfg.Browser.Command, log)
	if err != nil {
		return nil, err
	}
	if opener.Detached() {
		log.Debugf("Browser %q is detached, results open after %s", strings.Join(opener.Command("{url}"), " "), cfg.Run.Timeout)
	}
	return opener, nil
}
