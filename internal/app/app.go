package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/divisio/stag/internal/config"
	"github.com/divisio/stag/internal/hub"
	"github.com/divisio/stag/internal/jobs"
	"github.com/divisio/stag/internal/logging"
	"github.com/divisio/stag/internal/prefs"
	"github.com/divisio/stag/internal/provision"
	"github.com/divisio/stag/internal/state"
	"github.com/divisio/stag/internal/tagger"
	"github.com/divisio/stag/internal/ui"
)

// Options configure the STAG application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses the prefs_file setting
	Version    string
}

// services holds the wired components shared by the front-ends.
type services struct {
	cfg         config.Config
	logger      *zap.Logger
	closeLog    func() error
	provisioner *provision.Provisioner
	runner      *jobs.Runner
	store       *state.Store
}

// build loads configuration and wires logging, the model provisioner, the
// tagging workflow and the job runner.
func build(opts Options) (*services, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, closeLog, err := logging.New(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	logger = logger.With(zap.String("version", versionOrDev(opts.Version)))

	client, err := hub.NewClient(cfg.Model.Endpoint, opts.Version)
	if err != nil {
		_ = closeLog()
		return nil, fmt.Errorf("init hub client: %w", err)
	}

	provisioner, err := provision.New(provision.Options{
		Repo:     cfg.Model.RepoID,
		Filename: cfg.Model.Filename,
		Revision: cfg.Model.Revision,
		CacheDir: cfg.Model.CacheDir,
		Client:   client,
		Logger:   logger.Named("provision"),
	})
	if err != nil {
		_ = closeLog()
		return nil, fmt.Errorf("init model cache: %w", err)
	}

	workflow := tagger.New(tagger.Options{
		NewRecognizer: tagger.NewCommandFactory(tagger.CommandSpec{
			Command: cfg.Recognizer.Command,
			Args:    cfg.Recognizer.Args,
		}, logger.Named("recognizer")),
		ImageSize: cfg.ImageSize,
		Logger:    logger.Named("tagger"),
	})

	logger.Info("stag configured",
		zap.String("config", cfg.Path),
		zap.String("model_repo", cfg.Model.RepoID),
		zap.String("recognizer", cfg.Recognizer.Command),
	)

	return &services{
		cfg:         cfg,
		logger:      logger,
		closeLog:    closeLog,
		provisioner: provisioner,
		runner:      jobs.NewRunner(provisioner, workflow, logger.Named("runner")),
		store:       state.NewStore(0),
	}, nil
}

func (s *services) close() {
	_ = s.logger.Sync()
	if s.closeLog != nil {
		_ = s.closeLog()
	}
}

func (s *services) controller(ctx context.Context, executor jobs.Executor) *jobs.Controller {
	return jobs.NewController(ctx, executor, jobs.Options{
		Buffer:   s.cfg.EventBuffer,
		Logger:   s.logger.Named("controller"),
		Recorder: s.store,
	})
}

// defaults is the job configuration the config file asks for.
func (s *services) defaults(target string) jobs.Config {
	return jobs.NewConfig(target, s.cfg.TagPrefix, s.cfg.SkipTagged, s.cfg.Simulate, s.cfg.ExactFilenames)
}

// Run boots the STAG TUI until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	svc, err := build(opts)
	if err != nil {
		return err
	}
	defer svc.close()

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = svc.cfg.PrefsFile
	}
	userPrefs, _ := prefs.Load(prefsPath)

	uiOpts := ui.Options{
		Context:    ctx,
		Controller: svc.controller(ctx, svc.runner),
		Store:      svc.store,
		Defaults:   svc.defaults(""),
		Prefs:      userPrefs,
		PrefsPath:  prefsPath,
		LogPath:    svc.cfg.LogFile,
		Version:    opts.Version,
	}
	if svc.provisioner.FirstRun() {
		uiOpts.Notice = provision.WelcomeNotice
	}

	svc.logger.Info("starting terminal UI")
	defer svc.logger.Info("terminal UI stopped")
	return ui.Run(uiOpts)
}

func versionOrDev(v string) string {
	if v == "" {
		return "dev"
	}
	return v
}
