// pkg/core/world.go
package core

import (
	"errors"
	"fmt"
)

// ErrNoSuchTank is returned when a tank index is outside the world's tank list
var ErrNoSuchTank = errors.New("no such tank")

// World is one immutable snapshot of the simulation.
// Wind is carried between ticks but no force uses it yet.
type World struct {
	Wind        int8         `json:"wind"`
	Tanks       []Tank       `json:"tanks"`
	Projectiles []Projectile `json:"projectiles"`
	Rules       Rules        `json:"rules"`
}

// Impact describes one projectile striking one tank during a tick.
type Impact struct {
	TankIndex       int      `json:"tankIndex"`
	ProjectileIndex int      `json:"projectileIndex"`
	Position        Position `json:"position"` // projectile position before integration
	Distance        float64  `json:"distance"`
	HealthBefore    int8     `json:"healthBefore"`
	HealthAfter     int8     `json:"healthAfter"`
	Killed          bool     `json:"killed"` // this hit moved the tank from alive to dead
}

// NewWorld creates a world with default rules. The slices are copied.
func NewWorld(wind int8, tanks []Tank, projectiles []Projectile) World {
	return World{
		Wind:        wind,
		Tanks:       cloneSlice(tanks),
		Projectiles: cloneSlice(projectiles),
		Rules:       DefaultRules(),
	}
}

// WithRules returns the world simulated under r.
func (w World) WithRules(r Rules) World {
	w.Rules = r
	return w
}

// Update advances the world by one tick of dt seconds.
func (w World) Update(dt float64) World {
	next, _ := w.Step(dt)
	return next
}

// Step advances the world by one tick of dt seconds and reports every hit.
//
// Hits are tested against projectile positions from before this tick's integration.
// Tanks are visited in stored order and, for each tank, projectiles in stored order;
// every projectile within the hit radius applies its own damage, so one tank can take
// several hits in a tick. Dead tanks and spent projectiles stay in the world.
func (w World) Step(dt float64) (World, []Impact) {
	rules := w.Rules.orDefault()

	var impacts []Impact
	tanks := make([]Tank, len(w.Tanks))
	for ti, tank := range w.Tanks {
		for pi, p := range w.Projectiles {
			dist := tank.Position.DistanceTo(p.Position)
			if dist >= rules.HitRadius {
				continue
			}
			before := tank
			tank = tank.HitFor(p, rules.HitDamage)
			impacts = append(impacts, Impact{
				TankIndex:       ti,
				ProjectileIndex: pi,
				Position:        p.Position,
				Distance:        dist,
				HealthBefore:    before.Health,
				HealthAfter:     tank.Health,
				Killed:          before.IsAlive() && !tank.IsAlive(),
			})
		}
		tanks[ti] = tank
	}

	projectiles := make([]Projectile, len(w.Projectiles))
	for i, p := range w.Projectiles {
		projectiles[i] = p.Update(dt)
	}

	return World{
		Wind:        w.Wind,
		Tanks:       tanks,
		Projectiles: projectiles,
		Rules:       w.Rules,
	}, impacts
}

// Fire returns the world with a new projectile shot by the tank at index.
func (w World) Fire(index int, power int8) (World, Projectile, error) {
	if index < 0 || index >= len(w.Tanks) {
		return w, Projectile{}, fmt.Errorf("fire tank %d: %w", index, ErrNoSuchTank)
	}
	p := w.Tanks[index].ShootWithGravity(power, w.Rules.orDefault().Gravity)

	projectiles := make([]Projectile, len(w.Projectiles), len(w.Projectiles)+1)
	copy(projectiles, w.Projectiles)
	w.Projectiles = append(projectiles, p)
	w.Tanks = cloneSlice(w.Tanks)
	return w, p, nil
}

// Aim returns the world with the tank at index aimed at angle degrees.
func (w World) Aim(index int, angle int8) (World, error) {
	if index < 0 || index >= len(w.Tanks) {
		return w, fmt.Errorf("aim tank %d: %w", index, ErrNoSuchTank)
	}
	tanks := cloneSlice(w.Tanks)
	tanks[index] = tanks[index].WithBarrelAngle(angle)
	w.Tanks = tanks
	w.Projectiles = cloneSlice(w.Projectiles)
	return w, nil
}

// AddTank returns the world with t appended and the index it was stored at.
func (w World) AddTank(t Tank) (World, int) {
	tanks := make([]Tank, len(w.Tanks), len(w.Tanks)+1)
	copy(tanks, w.Tanks)
	w.Tanks = append(tanks, t)
	w.Projectiles = cloneSlice(w.Projectiles)
	return w, len(w.Tanks) - 1
}

// WithWind returns the world with its wind replaced.
func (w World) WithWind(wind int8) World {
	w.Wind = wind
	w.Tanks = cloneSlice(w.Tanks)
	w.Projectiles = cloneSlice(w.Projectiles)
	return w
}

// AliveCount returns the number of tanks with health left.
func (w World) AliveCount() int {
	n := 0
	for _, t := range w.Tanks {
		if t.IsAlive() {
			n++
		}
	}
	return n
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}
