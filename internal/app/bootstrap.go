package app

import (
	"context"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/olusolaa/cloud-housekeeper/internal/adapters/metrics"
	"github.com/olusolaa/cloud-housekeeper/internal/adapters/translit"
	"github.com/olusolaa/cloud-housekeeper/internal/config"
	"github.com/olusolaa/cloud-housekeeper/internal/core/ports"
	"github.com/olusolaa/cloud-housekeeper/internal/errors"
	"github.com/olusolaa/cloud-housekeeper/internal/invocation"
	"github.com/olusolaa/cloud-housekeeper/internal/log"
	"github.com/olusolaa/cloud-housekeeper/internal/reporting/json"
	"github.com/olusolaa/cloud-housekeeper/internal/reporting/text"
)

// BuildApplicationFromViper unmarshals and validates the configuration and
// builds the invocation independent parts of the application.
func BuildApplicationFromViper(ctx context.Context, v *viper.Viper, opts ...Option) (*Application, error) {
	cfg := config.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, errors.CodeConfigParseError, "failed to unmarshal configuration")
	}

	logger, err := log.NewLogger(cfg.Settings.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to initialize logger: %v\n", err)
		return nil, errors.Wrap(err, errors.CodeInternal, "logger initialization failed")
	}
	logger.Debugf(ctx, "Logger initialized (Level: %s, Format: %s)", cfg.Settings.Log.Level, cfg.Settings.Log.Format)
	if v.ConfigFileUsed() != "" {
		logger.Debugf(ctx, "Using configuration file: %s", v.ConfigFileUsed())
	} else {
		logger.Debugf(ctx, "No configuration file found, using defaults/env/flags.")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.StructCtx(ctx, cfg); err != nil {
		wrappedErr := invocation.FormatValidation(err, errors.CodeConfigValidation,
			"Configuration validation failed:", "Please check your configuration file, environment or flags.")
		logger.Errorf(ctx, wrappedErr, "Configuration validation failed")
		return nil, wrappedErr
	}
	logger.Debugf(ctx, "Configuration validated successfully")

	reporter, err := newReporter(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	a := &Application{
		Config:     cfg,
		Logger:     logger,
		Reporter:   reporter,
		Metrics:    metrics.NewPusher(cfg.Metrics, logger),
		Invocation: invocation.New(v),
		validate:   validate,
		names:      translit.NewPinyin(),
	}
	a.platforms = AWSPlatforms(cfg.AWS.Options, logger)
	for _, opt := range opts {
		opt(a)
	}
	logger.Debugf(ctx, "Application bootstrap complete")
	return a, nil
}

func newReporter(ctx context.Context, cfg *config.Config, logger ports.Logger) (ports.Reporter, error) {
	reportLog := logger.WithFields(map[string]any{"component": "reporter", "type": cfg.Settings.ReporterType})
	switch cfg.Settings.ReporterType {
	case text.ReporterTypeText:
		reporter, err := text.NewReporter(cfg.Settings.Reporter.Text, reportLog)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "failed to initialize Text reporter")
		}
		reportLog.Debugf(ctx, "Using Text reporter (Color: %t)", !cfg.Settings.Reporter.Text.NoColor)
		return reporter, nil
	case json.ReporterTypeJSON:
		reporter, err := json.NewReporter(cfg.Settings.Reporter.JSON, reportLog)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "failed to initialize JSON reporter")
		}
		return reporter, nil
	default:
		return nil, errors.NewUserFacing(errors.CodeConfigValidation,
			fmt.Sprintf("unsupported reporter type: %s", cfg.Settings.ReporterType), "Supported: text, json")
	}
}
