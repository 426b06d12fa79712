// internal/storage/memory/export_test.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/OCAP2/artillery/internal/config"
	"github.com/OCAP2/artillery/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordSampleMatch(t *testing.T, b *Backend) {
	t.Helper()
	startTestMatch(t, b)

	for tick := uint(1); tick <= 2; tick++ {
		require.NoError(t, b.RecordTankState(&core.TankState{
			Tick: tick, TankIndex: 1, Health: 100, BarrelAngle: 30, BarrelLength: 2,
			Position: core.Pos2(10, 0), Alive: true,
		}))
		require.NoError(t, b.RecordTankState(&core.TankState{
			Tick: tick, TankIndex: 0, Health: 100, BarrelAngle: 45, BarrelLength: 2,
			Position: core.Pos2(0, 0), Alive: true,
		}))
		require.NoError(t, b.RecordProjectileState(&core.ProjectileState{
			Tick: tick, ProjectileIndex: 0, Position: core.Pos2(float64(tick), float64(tick)),
		}))
	}
	require.NoError(t, b.RecordShotEvent(&core.ShotEvent{
		Tick: 1, TankIndex: 0, Power: 10,
		Projectile: core.NewProjectile(core.Pos2(1.4, 1.4), core.Vec2(7, 7), core.Vec2(0, core.Gravity)),
	}))
	require.NoError(t, b.RecordHitEvent(&core.HitEvent{Tick: 2, TankIndex: 1, ProjectileIndex: 0, HealthBefore: 100, HealthAfter: 50, Distance: 0.5}))
	require.NoError(t, b.RecordKillEvent(&core.KillEvent{Tick: 2, TankIndex: 1}))
}

func TestExportFileName(t *testing.T) {
	m := &core.Match{Name: "Ridge: West/East", StartTime: matchStart}
	assert.Equal(t, "Ridge__West_East_20260115_103000.json", exportFileName(m, false))
	assert.Equal(t, "Ridge__West_East_20260115_103000.json.gz", exportFileName(m, true))
	assert.Equal(t, "match_20260115_103000.json", exportFileName(&core.Match{StartTime: matchStart}, false))
}

func TestBuildExport(t *testing.T) {
	b := New(config.MemoryConfig{})
	recordSampleMatch(t, b)

	export := b.buildExport()
	assert.Equal(t, "Test Match", export.MatchName)
	assert.Equal(t, uint(2), export.EndTick)
	assert.Equal(t, core.DefaultRules(), export.Rules)

	require.Len(t, export.Tanks, 2)
	assert.Equal(t, 0, export.Tanks[0].Index, "tanks sorted by index")
	assert.Equal(t, 2.0, export.Tanks[0].BarrelLength)
	require.Len(t, export.Tanks[1].States, 2)
	assert.Equal(t, []any{uint(1), []float64{10, 0}, int8(100), int8(30), true}, export.Tanks[1].States[0])

	require.Len(t, export.Projectiles, 1)
	assert.Equal(t, uint(1), export.Projectiles[0].FirstTick)
	assert.Equal(t, [][]float64{{1, 1}, {2, 2}}, export.Projectiles[0].Path)

	require.Len(t, export.Events, 3)
	assert.Equal(t, "shot", export.Events[0][1])
	assert.Equal(t, []any{uint(2), "hit", 1, 0, int8(100), int8(50), 0.5}, export.Events[1])
	assert.Equal(t, []any{uint(2), "killed", 1}, export.Events[2])
}

func TestEndMatch_WritesJSON(t *testing.T) {
	dir := t.TempDir()
	b := New(config.MemoryConfig{OutputDir: dir})
	recordSampleMatch(t, b)

	require.NoError(t, b.EndMatch())

	path := b.GetExportedFilePath()
	assert.Equal(t, filepath.Join(dir, "Test_Match_20260115_103000.json"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var got MatchExport
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "Duel", got.Tag)
	assert.Len(t, got.Tanks, 2)
	assert.Len(t, got.Events, 3)
}

func TestEndMatch_WritesGzip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	b := New(config.MemoryConfig{OutputDir: dir, CompressOutput: true})
	recordSampleMatch(t, b)

	require.NoError(t, b.EndMatch())

	f, err := os.Open(b.GetExportedFilePath())
	require.NoError(t, err)
	defer f.Close()

	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	defer gz.Close()

	var got MatchExport
	require.NoError(t, json.NewDecoder(gz).Decode(&got))
	assert.Equal(t, "Test Match", got.MatchName)
	assert.Equal(t, uint(2), got.EndTick)
}

func TestEndMatch_BadOutputDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	b := New(config.MemoryConfig{OutputDir: filepath.Join(file, "sub")})
	startTestMatch(t, b)
	assert.Error(t, b.EndMatch())
	assert.Empty(t, b.GetExportedFilePath())
}
