package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/OCAP2/artillery/internal/config"
	"github.com/OCAP2/artillery/internal/dispatcher"
	"github.com/OCAP2/artillery/internal/logging"
	"github.com/OCAP2/artillery/internal/parser"
	"github.com/OCAP2/artillery/internal/sim"
	"github.com/OCAP2/artillery/internal/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScenarioRig(t *testing.T) (*sim.Session, *dispatcher.Dispatcher, *memory.Backend) {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	backend := memory.New(config.MemoryConfig{OutputDir: t.TempDir()})
	s, err := sim.New(sim.Dependencies{Backend: backend, Logger: logger})
	require.NoError(t, err)

	d, err := dispatcher.New(logging.NewDispatcherLogger(logger))
	require.NoError(t, err)
	t.Cleanup(d.Close)
	s.RegisterHandlers(d, parser.NewParser(logger, "test", "Skirmish"))
	return s, d, backend
}

func TestRunScenario(t *testing.T) {
	s, d, backend := newScenarioRig(t)

	script := `
# comment
:START: "duel",TvT,0,0.1
:TANK: [0,0],90,0.5

:FIRE: 0,10
:STEP: 3
`
	require.NoError(t, runScenario(context.Background(), strings.NewReader(script), d))

	m, running := s.Match()
	require.True(t, running)
	assert.Equal(t, "duel", m.Name)
	assert.Equal(t, uint(3), s.Tick())
	assert.Len(t, backend.ShotEvents(), 1)
	assert.Len(t, backend.HitEvents(), 1)
}

func TestRunScenario_ReportsLine(t *testing.T) {
	_, d, _ := newScenarioRig(t)

	script := ":START: duel\n:TANK: [0,0],45\n"
	err := runScenario(context.Background(), strings.NewReader(script), d)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenario line 2 (:TANK:)")
	assert.ErrorIs(t, err, parser.ErrArgCount)
}

func TestRunScenario_UnknownCommand(t *testing.T) {
	_, d, _ := newScenarioRig(t)

	err := runScenario(context.Background(), strings.NewReader(":NUKE: 1"), d)
	assert.ErrorIs(t, err, dispatcher.ErrUnknownCommand)
}

func TestRunScenario_Cancelled(t *testing.T) {
	_, d, _ := newScenarioRig(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := runScenario(ctx, strings.NewReader(":START: duel"), d)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunScenarioFile_ShippedDuel(t *testing.T) {
	s, d, _ := newScenarioRig(t)

	path := filepath.Join("..", "..", "scenarios", "duel.txt")
	_, err := os.Stat(path)
	require.NoError(t, err)

	require.NoError(t, runScenarioFile(context.Background(), path, d, slog.New(slog.DiscardHandler)))
	w := s.World()
	assert.Len(t, w.Tanks, 2)
	assert.Equal(t, int8(110), w.Tanks[1].BarrelAngle)
	assert.Len(t, w.Projectiles, 2)
}

func TestPlayScenario_FailureEndsMatch(t *testing.T) {
	s, d, backend := newScenarioRig(t)

	path := filepath.Join(t.TempDir(), "broken.txt")
	script := ":START: \"duel\",TvT,0,0.1\n:TANK: [0,0],45,2\n:STEP: 2\n:TANK: [9,0],200,2\n:STEP: 5\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o644))

	err := playScenario(context.Background(), path, d, s, slog.New(slog.DiscardHandler))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenario line 4 (:TANK:)")

	_, running := s.Match()
	assert.False(t, running, "the match is ended")
	assert.Equal(t, uint(2), s.Tick())
	exported := backend.GetExportedFilePath()
	require.NotEmpty(t, exported)
	_, err = os.Stat(exported)
	assert.NoError(t, err)
}

func TestPlayScenario_FailureBeforeStart(t *testing.T) {
	s, d, backend := newScenarioRig(t)

	path := filepath.Join(t.TempDir(), "early.txt")
	require.NoError(t, os.WriteFile(path, []byte(":TANK: [0,0],45,2\n"), 0o644))

	err := playScenario(context.Background(), path, d, s, slog.New(slog.DiscardHandler))
	assert.ErrorIs(t, err, sim.ErrNoMatch)
	assert.Empty(t, backend.GetExportedFilePath())
}

func TestRunScenarioFile_Missing(t *testing.T) {
	_, d, _ := newScenarioRig(t)
	err := runScenarioFile(context.Background(), filepath.Join(t.TempDir(), "nope.txt"), d, slog.New(slog.DiscardHandler))
	assert.Error(t, err)
}
