// internal/storage/memory/memory_test.go
package memory

import (
	"testing"
	"time"

	"github.com/OCAP2/artillery/internal/config"
	"github.com/OCAP2/artillery/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var matchStart = time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)

func startTestMatch(t *testing.T, b *Backend) *core.Match {
	t.Helper()
	m := &core.Match{Name: "Test Match", StartTime: matchStart, TickSeconds: 0.1, Tag: "Duel", Rules: core.DefaultRules()}
	w := core.NewWorld(0, []core.Tank{core.NewTank(45, 2, core.Pos2(0, 0))}, nil)
	require.NoError(t, b.StartMatch(m, &w))
	return m
}

func TestNew(t *testing.T) {
	b := New(config.MemoryConfig{OutputDir: "/tmp"})
	require.NotNil(t, b)
	assert.NotNil(t, b.tanks)
	assert.NotNil(t, b.projectiles)
	assert.NoError(t, b.Init())
	assert.NoError(t, b.Close())
}

func TestStartMatch_AssignsIDs(t *testing.T) {
	b := New(config.MemoryConfig{})

	first := startTestMatch(t, b)
	second := startTestMatch(t, b)
	assert.Equal(t, uint(1), first.ID)
	assert.Equal(t, uint(2), second.ID)

	preset := &core.Match{ID: 40}
	require.NoError(t, b.StartMatch(preset, &core.World{}))
	assert.Equal(t, uint(40), preset.ID)

	next := startTestMatch(t, b)
	assert.Equal(t, uint(41), next.ID)
}

func TestStartMatch_ResetsCollections(t *testing.T) {
	b := New(config.MemoryConfig{})
	startTestMatch(t, b)

	require.NoError(t, b.RecordTankState(&core.TankState{TankIndex: 0, Tick: 1}))
	require.NoError(t, b.RecordHitEvent(&core.HitEvent{TankIndex: 0, Tick: 1}))

	startTestMatch(t, b)
	_, ok := b.TankHistory(0)
	assert.False(t, ok)
	assert.Empty(t, b.HitEvents())
	assert.Equal(t, uint(0), b.endTick)
}

func TestRecordTankState_GroupsByIndex(t *testing.T) {
	b := New(config.MemoryConfig{})
	startTestMatch(t, b)

	for tick := uint(1); tick <= 3; tick++ {
		require.NoError(t, b.RecordTankState(&core.TankState{TankIndex: 0, Tick: tick, Health: 100}))
		require.NoError(t, b.RecordTankState(&core.TankState{TankIndex: 1, Tick: tick, Health: 50}))
	}

	h0, ok := b.TankHistory(0)
	require.True(t, ok)
	require.Len(t, h0, 3)
	assert.Equal(t, uint(3), h0[2].Tick)

	h1, _ := b.TankHistory(1)
	assert.Equal(t, int8(50), h1[0].Health)

	// history is a copy
	h0[0].Health = -1
	again, _ := b.TankHistory(0)
	assert.Equal(t, int8(100), again[0].Health)
}

func TestRecordEvents(t *testing.T) {
	b := New(config.MemoryConfig{})
	startTestMatch(t, b)

	require.NoError(t, b.RecordShotEvent(&core.ShotEvent{Tick: 1, TankIndex: 0, Power: 10}))
	require.NoError(t, b.RecordProjectileState(&core.ProjectileState{Tick: 2, ProjectileIndex: 0}))
	require.NoError(t, b.RecordHitEvent(&core.HitEvent{Tick: 5, TankIndex: 1, HealthBefore: 100, HealthAfter: 50}))
	require.NoError(t, b.RecordKillEvent(&core.KillEvent{Tick: 9, TankIndex: 1}))

	assert.Len(t, b.ShotEvents(), 1)
	assert.Len(t, b.HitEvents(), 1)
	assert.Equal(t, []core.KillEvent{{Tick: 9, TankIndex: 1}}, b.KillEvents())
	assert.Equal(t, uint(9), b.endTick)
}

func TestGetExportMetadata(t *testing.T) {
	b := New(config.MemoryConfig{})
	assert.Equal(t, core.UploadMetadata{}, b.GetExportMetadata())

	startTestMatch(t, b)
	require.NoError(t, b.RecordTankState(&core.TankState{Tick: 200}))

	meta := b.GetExportMetadata()
	assert.Equal(t, "Test Match", meta.MatchName)
	assert.Equal(t, "Duel", meta.Tag)
	assert.InDelta(t, 20.0, meta.Duration, 1e-9)
}

func TestEndMatch_WithoutStart(t *testing.T) {
	b := New(config.MemoryConfig{OutputDir: t.TempDir()})
	assert.NoError(t, b.EndMatch())
	assert.Empty(t, b.GetExportedFilePath())
}
