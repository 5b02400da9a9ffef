package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"

	"github.com/emcfarlane/criteria"
	"github.com/emcfarlane/criteria/internal/config"
)

func run(args []string, stdout, stderr io.Writer) int {
	fs := config.Flags()
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return criteria.ExitSuccess
		}
		return criteria.ExitConfigError
	}

	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintf(stderr, "criteria: %v\n", err)
		return criteria.ExitConfigError
	}

	logger := newLogger(stderr, cfg.LogLevel).With("run_id", uuid.NewString())

	policy, err := hookPolicy(cfg.Hooks)
	if err != nil {
		fmt.Fprintf(stderr, "criteria: %v\n", err)
		return criteria.ExitConfigError
	}

	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		fmt.Fprintf(stderr, "criteria: %v\n", err)
		return criteria.ExitEnvError
	}

	report := criteria.NewReportWithWriters(stdout, stderr, useColor(cfg.Color, stdout))
	loader := criteria.NewLoader(
		criteria.WithReport(report),
		criteria.WithPolicy(policy),
		criteria.WithExtensions(cfg.Extensions...),
		criteria.WithSkip(cfg.Skip...),
		criteria.WithLogger(logger),
	)

	logger.Info("loading tests", "root", root)
	if err := loader.Load(root); err != nil {
		fmt.Fprintf(stderr, "criteria: %v\n", err)
		logger.Debug("load failed", "detail", criteria.Detail(err))
		return criteria.ExitCode(err)
	}

	runErr := loader.RunAll()
	if cfg.Report != "" {
		if err := writeReport(cfg.Report, loader.Registry()); err != nil {
			logger.Error("failed to write report", "path", cfg.Report, "error", err)
			return criteria.ExitFailure
		}
		logger.Info("wrote report", "path", cfg.Report)
	}
	if runErr != nil {
		fmt.Fprintf(stderr, "criteria: %v\n", runErr)
		if d := criteria.Detail(runErr); d != runErr.Error() {
			fmt.Fprintln(stderr, d)
		}
		return criteria.ExitCode(runErr)
	}

	if loader.Registry().Failed() {
		logger.Info("tests failed")
		if cfg.ExitOnFailure {
			return criteria.ExitFailure
		}
	}
	return criteria.ExitSuccess
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

func hookPolicy(h config.HooksConfig) (criteria.Policy, error) {
	var (
		p   criteria.Policy
		err error
	)
	for _, set := range []struct {
		dst *criteria.Isolation
		val string
	}{
		{&p.BeforeAll, h.BeforeAll},
		{&p.BeforeEach, h.BeforeEach},
		{&p.AfterEach, h.AfterEach},
		{&p.AfterAll, h.AfterAll},
	} {
		if *set.dst, err = criteria.ParseIsolation(set.val); err != nil {
			return p, err
		}
	}
	return p, nil
}

func useColor(mode string, w io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func writeReport(path string, r *criteria.Registry) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := criteria.WriteYAML(f, r.Results()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
