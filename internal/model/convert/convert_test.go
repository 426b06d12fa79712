package convert

import (
	"math"
	"testing"
	"time"

	"github.com/OCAP2/artillery/internal/geo"
	"github.com/OCAP2/artillery/internal/model"
	"github.com/OCAP2/artillery/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

var at = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestMatchRoundTrip(t *testing.T) {
	m := core.Match{
		ID:          4,
		Name:        "Duel",
		StartTime:   at,
		TickSeconds: 0.1,
		Wind:        -3,
		Rules:       core.Rules{Gravity: -1.62, HitRadius: 2, HitDamage: 25},
		Tag:         "Test",
	}

	gm := CoreToMatch(m)
	assert.JSONEq(t, `{"gravity":-1.62,"hitRadius":2,"hitDamage":25}`, string(gm.Rules))
	assert.Equal(t, m, MatchToCore(gm))
}

func TestMatchToCore_BadRulesUseDefaults(t *testing.T) {
	got := MatchToCore(model.Match{Rules: datatypes.JSON("not json")})
	assert.Equal(t, core.DefaultRules(), got.Rules)

	got = MatchToCore(model.Match{})
	assert.Equal(t, core.DefaultRules(), got.Rules)
}

func TestTankStateRoundTrip(t *testing.T) {
	s := core.TankState{
		MatchID:      4,
		Time:         at,
		Tick:         12,
		TankIndex:    1,
		Health:       50,
		BarrelAngle:  45,
		BarrelLength: 2,
		Position:     core.Pos2(10, 0),
		Alive:        true,
	}
	assert.Equal(t, s, TankStateToCore(CoreToTankState(s)))
}

func TestHitEventRoundTrip(t *testing.T) {
	e := core.HitEvent{
		MatchID:         4,
		Time:            at,
		Tick:            7,
		TankIndex:       0,
		ProjectileIndex: 2,
		Position:        core.Pos2(0.5, 0.1),
		Distance:        0.51,
		HealthBefore:    100,
		HealthAfter:     50,
	}
	assert.Equal(t, e, HitEventToCore(CoreToHitEvent(e)))
}

func TestCoreToShotEvent(t *testing.T) {
	e := core.ShotEvent{
		MatchID:    1,
		Tick:       3,
		TankIndex:  0,
		Power:      10,
		Projectile: core.NewProjectile(core.Pos2(1, 1), core.Vec2(7, 7), core.Vec2(0, core.Gravity)),
	}
	got := CoreToShotEvent(e)

	assert.Equal(t, core.Pos2(1, 1), geo.PositionFromPoint(got.Origin))
	assert.Equal(t, 7.0, got.VelocityX)
	assert.Equal(t, 7.0, got.VelocityY)
	assert.Equal(t, int8(10), got.Power)
}

func TestCoreToProjectileStateAndKill(t *testing.T) {
	ps := CoreToProjectileState(core.ProjectileState{
		MatchID: 2, Tick: 5, ProjectileIndex: 1,
		Position: core.Pos2(3, 4), Velocity: core.Vec2(-1, 2),
	})
	assert.Equal(t, core.Pos2(3, 4), geo.PositionFromPoint(ps.Position))
	assert.Equal(t, -1.0, ps.VelocityX)
	assert.Equal(t, 2.0, ps.VelocityY)

	ke := CoreToKillEvent(core.KillEvent{MatchID: 2, Tick: 9, TankIndex: 3, Time: at})
	assert.Equal(t, model.KillEvent{MatchID: 2, Tick: 9, TankIndex: 3, Time: at}, ke)
}

func TestTrackFromStates(t *testing.T) {
	states := []core.ProjectileState{
		{ProjectileIndex: 1, Tick: 3, Position: core.Pos2(0, 0)},
		{ProjectileIndex: 1, Tick: 4, Position: core.Pos2(1, 1)},
		{ProjectileIndex: 1, Tick: 5, Position: core.Pos2(2, 0)},
	}
	track := TrackFromStates(9, states)

	assert.Equal(t, uint(9), track.MatchID)
	assert.Equal(t, 1, track.ProjectileIndex)
	assert.Equal(t, uint(3), track.FirstTick)
	assert.Equal(t, uint(5), track.LastTick)
	require.Equal(t, 3, track.Path.Coordinates().Length())
	assert.Equal(t, []core.Position{core.Pos2(0, 0), core.Pos2(1, 1), core.Pos2(2, 0)}, geo.PositionsFromLineString(track.Path))
}

func TestTrackFromStates_Empty(t *testing.T) {
	track := TrackFromStates(1, nil)
	assert.True(t, track.Path.IsEmpty())
}

func TestTrackFromStates_StationaryShellHasEmptyPath(t *testing.T) {
	states := []core.ProjectileState{
		{ProjectileIndex: 0, Tick: 1, Position: core.Pos2(4, 4)},
		{ProjectileIndex: 0, Tick: 2, Position: core.Pos2(4, 4)},
	}
	track := TrackFromStates(2, states)

	assert.Equal(t, uint(2), track.LastTick)
	assert.True(t, track.Path.IsEmpty())
}

func TestCoreToTankState_NonFinitePositionStoredEmpty(t *testing.T) {
	st := CoreToTankState(core.TankState{MatchID: 1, Position: core.Pos2(math.NaN(), 0)})
	assert.True(t, st.Position.IsEmpty())
}
