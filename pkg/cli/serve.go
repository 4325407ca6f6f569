package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/getmockd/stubd/pkg/admin"
	"github.com/getmockd/stubd/pkg/config"
	"github.com/getmockd/stubd/pkg/engine"
	"github.com/getmockd/stubd/pkg/logging"
)

// serveFlags holds the serve command's flag values. Only flags the user
// actually set override the file and environment settings.
type serveFlags struct {
	port          int
	adminPort     int
	host          string
	configPath    string
	readTimeoutMs int
	delayMs       int
	maxLogEntries int
	watch         bool
	logLevel      string
	logFormat     string
}

var serveOpts serveFlags

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the stub server",
	Long: `Start the stub server, and the control API unless --admin-port is 0.

Stubs are loaded from --config, which may be a file or a glob such as
'stubs/**/*.yaml'. With --watch the files are reloaded when they change.
SIGINT or SIGTERM stops the server.`,
	Example: `  # Serve the stubs in stubs.yaml on the default ports
  stubd serve --config stubs.yaml

  # Ephemeral port, no control API, one second delay before each response
  stubd serve -p 0 -a 0 --delay 1000`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, loaded, err := resolveServerConfig(cmd.Flags(), &serveOpts, os.LookupEnv)
		if err != nil {
			return err
		}

		log := logging.New(logging.Config{
			Level:  logging.ParseLevel(cfg.LogLevel),
			Format: logging.ParseFormat(cfg.LogFormat),
			Output: cmd.ErrOrStderr(),
		})

		sess, err := newServeSession(cfg, &serveOpts, loaded, log)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return sess.run(ctx, cmd.OutOrStdout())
	},
}

func bindServeFlags(fs *pflag.FlagSet, f *serveFlags) {
	fs.IntVarP(&f.port, "port", "p", config.DefaultPort, "Stub server port (0 picks a free port)")
	fs.IntVarP(&f.adminPort, "admin-port", "a", config.DefaultAdminPort, "Control API port (0 disables the control API)")
	fs.StringVar(&f.host, "host", "", "Interface to bind (default all interfaces)")
	fs.StringVarP(&f.configPath, "config", "c", "", "Stub file or glob to load")
	fs.IntVar(&f.readTimeoutMs, "read-timeout", config.DefaultReadTimeoutMs, "Per-connection read timeout in milliseconds (0 disables)")
	fs.IntVar(&f.delayMs, "delay", config.DefaultResponseDelayMs, "Delay before each response in milliseconds")
	fs.IntVar(&f.maxLogEntries, "max-log-entries", config.DefaultMaxLogEntries, "Request journal capacity")
	fs.BoolVarP(&f.watch, "watch", "w", false, "Reload stub files when they change")
	fs.StringVar(&f.logLevel, "log-level", config.DefaultLogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&f.logFormat, "log-format", config.DefaultLogFormat, "Log format (text, json)")
}

// resolveServerConfig layers defaults, the server block of the stub files,
// the environment and explicitly set flags. The loaded stubs are returned
// alongside so the files are only read once.
func resolveServerConfig(fs *pflag.FlagSet, f *serveFlags, lookupEnv func(string) (string, bool)) (config.ServerConfiguration, *config.LoadResult, error) {
	cfg := config.DefaultServerConfiguration()

	var loaded *config.LoadResult
	if f.configPath != "" {
		var err error
		loaded, err = config.LoadGlob(f.configPath)
		if err != nil {
			return cfg, nil, fmt.Errorf("loading stubs: %w", err)
		}
		cfg.Apply(loaded.Server)
	}

	if err := cfg.ApplyEnv(lookupEnv); err != nil {
		return cfg, nil, fmt.Errorf("environment: %w", err)
	}

	if fs.Changed("port") {
		cfg.Port = f.port
	}
	if fs.Changed("admin-port") {
		cfg.AdminPort = f.adminPort
	}
	if fs.Changed("read-timeout") {
		cfg.ReadTimeoutMs = f.readTimeoutMs
	}
	if fs.Changed("delay") {
		cfg.ResponseDelayMs = f.delayMs
	}
	if fs.Changed("max-log-entries") {
		cfg.MaxLogEntries = f.maxLogEntries
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if fs.Changed("log-format") {
		cfg.LogFormat = f.logFormat
	}

	if err := cfg.Validate(); err != nil {
		return cfg, nil, err
	}
	if f.watch && f.configPath == "" {
		return cfg, nil, errors.New("--watch requires --config")
	}
	return cfg, loaded, nil
}

// serveSession is one run of stubd serve: the stub engine, the optional
// control API and the optional stub file watcher.
type serveSession struct {
	engine  *engine.Server
	admin   *admin.Server
	watcher *config.Watcher
	log     *slog.Logger
}

func newServeSession(cfg config.ServerConfiguration, f *serveFlags, loaded *config.LoadResult, log *slog.Logger) (*serveSession, error) {
	srv, err := engine.New(engine.Config{
		Addr:          net.JoinHostPort(f.host, strconv.Itoa(cfg.Port)),
		ReadTimeout:   cfg.ReadTimeout(),
		ResponseDelay: cfg.ResponseDelay(),
		MaxLogEntries: cfg.MaxLogEntries,
	}, engine.WithLogger(log))
	if err != nil {
		return nil, err
	}

	s := &serveSession{engine: srv, log: log}
	if loaded != nil {
		s.install(loaded)
	}
	if cfg.AdminPort != 0 {
		s.admin = admin.NewServer(srv, net.JoinHostPort(f.host, strconv.Itoa(cfg.AdminPort)), admin.WithLogger(log))
	}
	if f.watch {
		s.watcher = config.NewWatcher(f.configPath, s.install, config.WithWatchLogger(log))
	}
	return s, nil
}

// install replaces the registered stubs with a freshly loaded set.
func (s *serveSession) install(loaded *config.LoadResult) {
	if loaded.BodyErrors != nil {
		s.log.Warn("some stubs will answer 500, body files could not be read", "error", loaded.BodyErrors)
	}
	s.engine.SetResponses(loaded.Responses...)
	s.log.Info("stubs loaded", "files", len(loaded.Files), "stubs", len(loaded.Responses))
}

// run serves until ctx is cancelled or a component fails. The stub engine
// is always stopped before run returns.
func (s *serveSession) run(ctx context.Context, out io.Writer) error {
	g, gctx := errgroup.WithContext(ctx)

	s.engine.Start()
	fmt.Fprintf(out, "stubd listening on %s\n", s.engine.Addr())

	g.Go(func() error {
		select {
		case <-gctx.Done():
			return s.engine.Stop()
		case <-s.engine.Done():
			if err := s.engine.Wait(); err != nil {
				return err
			}
			return errors.New("stub server stopped unexpectedly")
		}
	})
	if s.admin != nil {
		g.Go(func() error { return s.admin.Run(gctx) })
	}
	if s.watcher != nil {
		g.Go(func() error { return s.watcher.Run(gctx) })
	}

	err := g.Wait()
	if stopErr := s.engine.Stop(); err == nil {
		err = stopErr
	}
	return err
}

func init() {
	bindServeFlags(serveCmd.Flags(), &serveOpts)
	rootCmd.AddCommand(serveCmd)
}
