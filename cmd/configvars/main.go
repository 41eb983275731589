package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/configvars/internal/application"
	"github.com/eugenenazirov/configvars/internal/config"
	"github.com/eugenenazirov/configvars/internal/logging"
	"github.com/eugenenazirov/configvars/internal/manifest"
	"github.com/eugenenazirov/configvars/internal/report"
)

var signalNotify = signal.Notify

var errConflictingModes = errors.New("--changed and --defaults are mutually exclusive")

type showOptions struct {
	changed  bool
	defaults bool
	comment  bool
	format   string
}

func main() {
	kingpinApp := kingpin.New("configvars", "Resolve configuration variables from the environment, a local settings module and defaults")
	configFile := kingpinApp.Flag("config", "Path to YAML configuration file").String()
	manifestPath := kingpinApp.Flag("manifest", "Path to the variable manifest").Short('m').String()
	settingsRoot := kingpinApp.Flag("settings-root", "Directory local settings modules are resolved against").String()
	localModule := kingpinApp.Flag("local-module", "Dotted path of the local settings module").String()
	var envPrefixSet bool
	envPrefix := kingpinApp.Flag("env-prefix", "Prefix prepended to environment variable names").IsSetByUser(&envPrefixSet).String()
	logLevel := kingpinApp.Flag("log-level", "Log level (debug, info, warn, error)").String()

	showCmd := kingpinApp.Command("show", "Print resolved configuration variables")
	var show showOptions
	showCmd.Flag("changed", "Only print variables whose value differs from the default").BoolVar(&show.changed)
	showCmd.Flag("defaults", "Print default values instead of resolved values").BoolVar(&show.defaults)
	showCmd.Flag("comment", "Append variable descriptions as comments").BoolVar(&show.comment)
	showCmd.Flag("format", "Output format").Default("text").EnumVar(&show.format, "text", "yaml")

	checkCmd := kingpinApp.Command("check", "Report problems with the local settings module")

	serveCmd := kingpinApp.Command("serve", "Serve resolved configuration over HTTP")
	port := serveCmd.Flag("port", "HTTP port exposed by the service").String()
	rateLimitRPSFlag := serveCmd.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64()
	rateLimitBurstFlag := serveCmd.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int()
	var watchSet bool
	watch := serveCmd.Flag("watch", "Reload when the manifest or local settings module changes").IsSetByUser(&watchSet).Bool()

	command := kingpin.MustParse(kingpinApp.Parse(os.Args[1:]))

	overrides := &config.CLIOverrides{
		ConfigFile:   *configFile,
		ManifestPath: manifestPath,
		SettingsRoot: settingsRoot,
		LocalModule:  localModule,
		LogLevel:     logLevel,
		Port:         port,
	}
	if envPrefixSet {
		overrides.EnvPrefix = envPrefix
	}
	if watchSet {
		overrides.Watch = watch
	}
	if *rateLimitRPSFlag >= 0 {
		overrides.RateLimitRPS = rateLimitRPSFlag
	}
	if *rateLimitBurstFlag >= 0 {
		overrides.RateLimitBurst = rateLimitBurstFlag
	}

	cfg, err := config.Load(overrides)
	kingpinApp.FatalIfError(err, "failed to load configuration")

	logger, err := logging.New(cfg.LogLevel)
	kingpinApp.FatalIfError(err, "failed to initialize logger")
	defer func() {
		_ = logger.Sync()
	}()

	switch command {
	case showCmd.FullCommand():
		if err := runShow(cfg, show, os.Stdout, logger); err != nil {
			logger.Fatal("show failed", zap.Error(err))
		}
	case checkCmd.FullCommand():
		if err := runCheck(cfg, os.Stdout, logger); err != nil {
			logger.Fatal("check failed", zap.Error(err))
		}
	case serveCmd.FullCommand():
		runServe(cfg, logger)
	}
}

func runShow(cfg config.Config, opts showOptions, out io.Writer, logger *zap.Logger) error {
	mode, err := showMode(opts)
	if err != nil {
		return err
	}

	m, err := manifest.Load(cfg.ManifestPath)
	if err != nil {
		return err
	}
	engine, err := application.Resolve(cfg, m, logger)
	if err != nil {
		return err
	}

	if opts.format == "yaml" {
		return report.FormatYAML(out, engine.Variables(), mode)
	}
	return report.Format(out, engine.Variables(), report.Options{Mode: mode, Comment: opts.comment})
}

func showMode(opts showOptions) (report.Mode, error) {
	switch {
	case opts.changed && opts.defaults:
		return "", errConflictingModes
	case opts.changed:
		return report.ModeChanged, nil
	case opts.defaults:
		return report.ModeDefaults, nil
	default:
		return report.ModeAll, nil
	}
}

func runCheck(cfg config.Config, out io.Writer, logger *zap.Logger) error {
	m, err := manifest.Load(cfg.ManifestPath)
	if err != nil {
		return err
	}
	engine, err := application.Resolve(cfg, m, logger)
	if err != nil {
		return err
	}

	warnings := report.CheckLocalSettings(engine)
	if len(warnings) == 0 {
		_, err = fmt.Fprintln(out, "no issues found")
		return err
	}
	for _, w := range warnings {
		if _, err := fmt.Fprintln(out, w.String()); err != nil {
			return err
		}
	}
	return nil
}

func runServe(cfg config.Config, logger *zap.Logger) {
	app, err := application.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}

	if err := app.Start(context.Background()); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	shutdown(app.Server(), cfg.ShutdownGracePeriod, logger)
	app.Close()
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
