package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/OCAP2/artillery/internal/dispatcher"
	"github.com/OCAP2/artillery/internal/parser"
	"github.com/OCAP2/artillery/pkg/core"
)

// matchEnder is the part of the session a failed scenario needs.
type matchEnder interface {
	Match() (core.Match, bool)
	End() error
}

// playScenario runs the scenario at path. When it fails after starting a match,
// the match is ended so the backend still writes what was recorded.
func playScenario(ctx context.Context, path string, d *dispatcher.Dispatcher, s matchEnder, logger *slog.Logger) error {
	err := runScenarioFile(ctx, path, d, logger)
	if err == nil {
		return nil
	}
	if _, running := s.Match(); running {
		logger.Warn("Scenario failed, ending match", "error", err)
		if endErr := s.End(); endErr != nil {
			return errors.Join(err, fmt.Errorf("failed to end match: %w", endErr))
		}
	}
	return err
}

func runScenarioFile(ctx context.Context, path string, d *dispatcher.Dispatcher, logger *slog.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open scenario: %w", err)
	}
	defer f.Close()

	logger.Info("Running scenario", "path", path)
	return runScenario(ctx, f, d)
}

// runScenario dispatches every command in r in order and stops at the first failure.
func runScenario(ctx context.Context, r io.Reader, d *dispatcher.Dispatcher) error {
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return err
		}

		cmd, args, err := parser.ParseCommandLine(sc.Text())
		if err != nil {
			return fmt.Errorf("scenario line %d: %w", line, err)
		}
		if cmd == "" {
			continue
		}
		if _, err := d.Dispatch(dispatcher.Event{Command: cmd, Args: args}); err != nil {
			return fmt.Errorf("scenario line %d (%s): %w", line, cmd, err)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("failed to read scenario: %w", err)
	}
	return nil
}
