package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorldUpdate_SelfHitKillsTank(t *testing.T) {
	tank := Tank{Health: 1, BarrelAngle: 90, BarrelLength: 0.5, Position: Pos2(0, 0)}
	w := NewWorld(0, []Tank{tank}, []Projectile{tank.Shoot(10)})

	for i := 0; i < 200; i++ {
		w = w.Update(0.1)
	}

	require.Len(t, w.Tanks, 1)
	assert.False(t, w.Tanks[0].IsAlive())
}

func TestWorldUpdate_ProjectileFallsBackOntoShooter(t *testing.T) {
	// Barrel tip starts outside the hit radius, so only a returning shot can hit.
	tank := Tank{Health: 1, BarrelAngle: 90, BarrelLength: 2, Position: Pos2(0, 0)}
	w := NewWorld(0, []Tank{tank}, []Projectile{tank.Shoot(10)})

	for i := 0; i < 5; i++ {
		w = w.Update(0.1)
	}
	assert.True(t, w.Tanks[0].IsAlive(), "shot still climbing")
	assert.Greater(t, w.Projectiles[0].Position.Y, 2.0)

	killedAt := -1
	for i := 5; i < 200; i++ {
		w = w.Update(0.1)
		if killedAt < 0 && !w.Tanks[0].IsAlive() {
			killedAt = i
		}
	}

	assert.Greater(t, killedAt, 5)
	assert.False(t, w.Tanks[0].IsAlive())
	assert.Less(t, w.Projectiles[0].Position.Y, -100.0, "shot keeps falling, nothing removes it")
}

func TestWorldUpdate_UsesPositionsBeforeIntegration(t *testing.T) {
	tank := NewTank(0, 1, Pos2(0, 0))

	// Inside the radius now, far away after this tick's step.
	leaving := NewProjectile(Pos2(0.5, 0), Vec2(100, 0), Vec2(0, 0))
	// Outside the radius now, on top of the tank after this tick's step.
	arriving := NewProjectile(Pos2(-10, 0), Vec2(10, 0), Vec2(0, 0))

	w := NewWorld(0, []Tank{tank}, []Projectile{leaving, arriving})

	next, impacts := w.Step(1)

	require.Len(t, impacts, 1)
	assert.Equal(t, 0, impacts[0].ProjectileIndex)
	assert.Equal(t, int8(50), next.Tanks[0].Health)
	assert.Equal(t, Pos2(100.5, 0), next.Projectiles[0].Position)
	assert.Equal(t, Pos2(0, 0), next.Projectiles[1].Position)
}

func TestWorldStep_MultipleHitsStackInOrder(t *testing.T) {
	tank := NewTank(0, 1, Pos2(0, 0))
	projectiles := []Projectile{
		NewProjectile(Pos2(0.1, 0), Vec2(0, 0), Vec2(0, 0)),
		NewProjectile(Pos2(50, 50), Vec2(0, 0), Vec2(0, 0)),
		NewProjectile(Pos2(0, -0.9), Vec2(0, 0), Vec2(0, 0)),
		NewProjectile(Pos2(0.2, 0.2), Vec2(0, 0), Vec2(0, 0)),
	}
	w := NewWorld(0, []Tank{tank}, projectiles)

	next, impacts := w.Step(0.1)

	require.Len(t, impacts, 3)
	assert.Equal(t, []int{0, 2, 3}, []int{impacts[0].ProjectileIndex, impacts[1].ProjectileIndex, impacts[2].ProjectileIndex})
	assert.Equal(t, int8(100), impacts[0].HealthBefore)
	assert.Equal(t, int8(50), impacts[0].HealthAfter)
	assert.False(t, impacts[0].Killed)
	assert.Equal(t, int8(50), impacts[1].HealthBefore)
	assert.Equal(t, int8(0), impacts[1].HealthAfter)
	assert.True(t, impacts[1].Killed)
	assert.False(t, impacts[2].Killed, "already dead")
	assert.Equal(t, int8(-50), next.Tanks[0].Health)
}

func TestWorldStep_HitRadiusIsExclusive(t *testing.T) {
	tank := NewTank(0, 1, Pos2(0, 0))
	w := NewWorld(0, []Tank{tank}, []Projectile{NewProjectile(Pos2(1, 0), Vec2(0, 0), Vec2(0, 0))})

	next, impacts := w.Step(1)

	assert.Empty(t, impacts)
	assert.Equal(t, FullHealth, next.Tanks[0].Health)
}

func TestWorldStep_TanksDamagedIndependently(t *testing.T) {
	a := NewTank(0, 1, Pos2(0, 0))
	b := NewTank(120, 1, Pos2(1.5, 0))
	shell := NewProjectile(Pos2(0.75, 0), Vec2(0, 0), Vec2(0, 0))
	w := NewWorld(0, []Tank{a, b}, []Projectile{shell})

	next, impacts := w.Step(1)

	require.Len(t, impacts, 2)
	assert.Equal(t, 0, impacts[0].TankIndex)
	assert.Equal(t, 1, impacts[1].TankIndex)
	assert.Equal(t, int8(50), next.Tanks[0].Health)
	assert.Equal(t, int8(50), next.Tanks[1].Health)
}

func TestWorldStep_CustomRules(t *testing.T) {
	tank := NewTank(0, 1, Pos2(0, 0))
	w := NewWorld(0, []Tank{tank}, []Projectile{NewProjectile(Pos2(2, 0), Vec2(0, 0), Vec2(0, 0))}).
		WithRules(Rules{Gravity: -1, HitRadius: 3, HitDamage: 10})

	next, impacts := w.Step(1)

	require.Len(t, impacts, 1)
	assert.Equal(t, int8(90), next.Tanks[0].Health)
	assert.Equal(t, Rules{Gravity: -1, HitRadius: 3, HitDamage: 10}, next.Rules)
}

func TestWorldStep_ZeroRulesMeanDefaults(t *testing.T) {
	w := World{
		Tanks:       []Tank{NewTank(0, 1, Pos2(0, 0))},
		Projectiles: []Projectile{NewProjectile(Pos2(0.5, 0), Vec2(0, 0), Vec2(0, 0))},
	}

	next := w.Update(1)

	assert.Equal(t, FullHealth-HitDamage, next.Tanks[0].Health)
}

func TestWorldStep_PartialRulesKeepDefaultDamage(t *testing.T) {
	w := NewWorld(0, []Tank{NewTank(0, 1, Pos2(0, 0))},
		[]Projectile{NewProjectile(Pos2(1.5, 0), Vec2(0, 0), Vec2(0, 0))}).
		WithRules(Rules{HitRadius: 2})

	next, impacts := w.Step(1)

	require.Len(t, impacts, 1)
	assert.Equal(t, FullHealth-HitDamage, next.Tanks[0].Health)
}

func TestWorldFire_PartialRulesKeepDefaultGravity(t *testing.T) {
	w := NewWorld(0, []Tank{NewTank(90, 1, Pos2(0, 0))}, nil).WithRules(Rules{HitRadius: 2})

	_, p, err := w.Fire(0, 10)

	require.NoError(t, err)
	assert.Equal(t, Vec2(0, Gravity), p.Acceleration)
}

func TestRulesWithDefaults(t *testing.T) {
	base := Rules{Gravity: -1.62, HitRadius: 3, HitDamage: 10}

	assert.Equal(t, base, Rules{}.WithDefaults(base))
	assert.Equal(t, Rules{Gravity: -1.62, HitRadius: 2, HitDamage: 10}, Rules{HitRadius: 2}.WithDefaults(base))
	assert.Equal(t, Rules{Gravity: -5, HitRadius: 2, HitDamage: 1}, Rules{Gravity: -5, HitRadius: 2, HitDamage: 1}.WithDefaults(base))
}

func TestWorldUpdate_CarriesWind(t *testing.T) {
	w := NewWorld(-7, nil, nil)
	assert.Equal(t, int8(-7), w.Update(1).Wind)
}

func TestWorldUpdate_Deterministic(t *testing.T) {
	a := NewTank(45, 1, Pos2(0, 0))
	b := NewTank(-45, 1.5, Pos2(30, 2))
	w := NewWorld(3, []Tank{a, b}, []Projectile{
		a.Shoot(40),
		b.Shoot(-25),
		NewProjectile(Pos2(29.5, 2), Vec2(1, 1), Vec2(0, Gravity)),
	})
	tanksBefore := append([]Tank(nil), w.Tanks...)
	projectilesBefore := append([]Projectile(nil), w.Projectiles...)

	first := w.Update(0.016)
	second := w.Update(0.016)

	assert.Equal(t, first, second)
	assert.Equal(t, tanksBefore, w.Tanks, "input tanks mutated")
	assert.Equal(t, projectilesBefore, w.Projectiles, "input projectiles mutated")

	// results do not alias each other
	first.Tanks[0].Health = 1
	assert.NotEqual(t, first.Tanks[0].Health, second.Tanks[0].Health)
}

func TestWorldFire(t *testing.T) {
	tank := NewTank(90, 0.5, Pos2(3, 0))
	w := NewWorld(0, []Tank{tank}, nil)

	next, p, err := w.Fire(0, 20)
	require.NoError(t, err)

	require.Len(t, next.Projectiles, 1)
	assert.Equal(t, p, next.Projectiles[0])
	assert.Empty(t, w.Projectiles, "original world untouched")
	assert.Equal(t, Vec2(0, Gravity), p.Acceleration)

	moon := w.WithRules(Rules{Gravity: -1.62, HitRadius: 1, HitDamage: 50})
	_, p, err = moon.Fire(0, 20)
	require.NoError(t, err)
	assert.Equal(t, Vec2(0, -1.62), p.Acceleration)
}

func TestWorldFire_UnknownTank(t *testing.T) {
	w := NewWorld(0, []Tank{NewTank(0, 1, Pos2(0, 0))}, nil)

	_, _, err := w.Fire(1, 20)
	assert.True(t, errors.Is(err, ErrNoSuchTank))

	_, _, err = w.Fire(-1, 20)
	assert.ErrorIs(t, err, ErrNoSuchTank)
}

func TestWorldAim(t *testing.T) {
	w := NewWorld(0, []Tank{NewTank(0, 1, Pos2(0, 0))}, nil)

	next, err := w.Aim(0, 60)
	require.NoError(t, err)
	assert.Equal(t, int8(60), next.Tanks[0].BarrelAngle)
	assert.Equal(t, int8(0), w.Tanks[0].BarrelAngle)

	_, err = w.Aim(4, 60)
	assert.ErrorIs(t, err, ErrNoSuchTank)
}

func TestWorldAddTank(t *testing.T) {
	w := NewWorld(0, nil, nil)

	w, i := w.AddTank(NewTank(0, 1, Pos2(0, 0)))
	assert.Equal(t, 0, i)
	w2, j := w.AddTank(NewTank(0, 1, Pos2(5, 0)))
	assert.Equal(t, 1, j)

	assert.Len(t, w.Tanks, 1)
	assert.Len(t, w2.Tanks, 2)
	assert.Equal(t, 2, w2.AliveCount())
}
