// Package sim drives a World tick by tick and records every state and event to a storage backend.
package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/OCAP2/artillery/internal/config"
	"github.com/OCAP2/artillery/internal/match"
	"github.com/OCAP2/artillery/internal/storage"
	"github.com/OCAP2/artillery/pkg/core"
)

var (
	// ErrNoMatch is returned by operations that need a running match.
	ErrNoMatch = errors.New("no match running")
	// ErrMatchRunning is returned by Start while a match is running.
	ErrMatchRunning = errors.New("match already running")
	// ErrTankDead is returned when a dead tank is ordered to fire.
	ErrTankDead = errors.New("tank is dead")
)

// DefaultTickSeconds is used when neither the match nor the config set a tick length.
const DefaultTickSeconds = 0.1

// Dependencies holds everything a Session records to or reads from.
type Dependencies struct {
	Backend      storage.Backend
	MatchContext *match.Context
	Logger       *slog.Logger
	Config       config.SimulationConfig
}

// Session owns one World snapshot at a time. Every method is safe for concurrent use;
// calls are serialized so that recorded ticks stay in order.
type Session struct {
	deps    Dependencies
	policy  core.Policy
	metrics *metrics

	mu    sync.Mutex
	world core.World
	match *core.Match
	tick  uint
}

// New creates a session. A nil MatchContext or Logger is replaced with a default.
func New(deps Dependencies) (*Session, error) {
	if deps.Backend == nil {
		return nil, errors.New("sim: backend is required")
	}
	if deps.MatchContext == nil {
		deps.MatchContext = match.NewContext()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	s := &Session{
		deps:   deps,
		policy: PolicyFromConfig(deps.Config),
	}
	m, err := newMetrics(s)
	if err != nil {
		return nil, err
	}
	s.metrics = m
	return s, nil
}

// PolicyFromConfig chains the removal policies enabled in cfg. With nothing enabled the
// world is left untouched, so dead tanks and spent projectiles stay in play.
func PolicyFromConfig(cfg config.SimulationConfig) core.Policy {
	var policies []core.Policy
	if cfg.RemoveImpactedProjectiles {
		policies = append(policies, core.RemoveImpactedProjectiles)
	}
	if !cfg.Bounds.IsZero() {
		policies = append(policies, core.RemoveOutOfBounds(cfg.Bounds))
	}
	if cfg.RemoveDeadTanks {
		policies = append(policies, core.RemoveDeadTanks)
	}
	if len(policies) == 0 {
		return core.KeepAll
	}
	return core.Chain(policies...)
}

// Start begins a match on an empty world. Unset match fields are taken from the config.
func (s *Session) Start(m core.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.match != nil {
		return ErrMatchRunning
	}

	if m.StartTime.IsZero() {
		m.StartTime = time.Now()
	}
	if m.TickSeconds <= 0 {
		m.TickSeconds = s.deps.Config.TickSeconds
	}
	if m.TickSeconds <= 0 {
		m.TickSeconds = DefaultTickSeconds
	}
	m.Rules = m.Rules.WithDefaults(s.deps.Config.Rules).WithDefaults(core.DefaultRules())

	world := core.NewWorld(m.Wind, nil, nil).WithRules(m.Rules)
	if err := s.deps.Backend.StartMatch(&m, &world); err != nil {
		return fmt.Errorf("start match: %w", err)
	}

	s.match = &m
	s.world = world
	s.tick = 0
	s.deps.MatchContext.SetMatch(s.match)

	s.deps.Logger.Info("Match started",
		"matchId", m.ID,
		"name", m.Name,
		"tickSeconds", m.TickSeconds,
		"wind", m.Wind)
	return nil
}

// AddTank places a tank and records its initial state. It returns the tank's index.
func (s *Session) AddTank(t core.Tank) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.match == nil {
		return 0, ErrNoMatch
	}
	var idx int
	s.world, idx = s.world.AddTank(t)
	if err := s.recordTank(idx, s.world.Tanks[idx]); err != nil {
		return idx, err
	}
	s.deps.Logger.Debug("Tank added", "tank", idx, "x", t.Position.X, "y", t.Position.Y)
	return idx, nil
}

// Aim turns the barrel of the tank at index and records the new tank state.
func (s *Session) Aim(index int, angle int8) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.match == nil {
		return ErrNoMatch
	}
	world, err := s.world.Aim(index, angle)
	if err != nil {
		return err
	}
	s.world = world
	return s.recordTank(index, world.Tanks[index])
}

// Fire launches a projectile from the tank at index and records the shot.
func (s *Session) Fire(index int, power int8) (core.Projectile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.match == nil {
		return core.Projectile{}, ErrNoMatch
	}
	if index >= 0 && index < len(s.world.Tanks) && !s.world.Tanks[index].IsAlive() {
		return core.Projectile{}, fmt.Errorf("fire tank %d: %w", index, ErrTankDead)
	}
	world, p, err := s.world.Fire(index, power)
	if err != nil {
		return core.Projectile{}, err
	}
	s.world = world

	shot := core.ShotEvent{
		MatchID:    s.match.ID,
		Time:       s.simTime(),
		Tick:       s.tick,
		TankIndex:  index,
		Power:      power,
		Projectile: p,
	}
	if err := s.deps.Backend.RecordShotEvent(&shot); err != nil {
		return p, fmt.Errorf("record shot: %w", err)
	}
	s.metrics.shot()
	return p, nil
}

// SetWind replaces the world's wind.
func (s *Session) SetWind(wind int8) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.match == nil {
		return ErrNoMatch
	}
	s.world = s.world.WithWind(wind)
	s.match.Wind = wind
	return nil
}

// Step advances one tick. Hits and kills are recorded against the indices of the
// stepped world; states are recorded after the removal policy has run.
func (s *Session) Step() ([]core.Impact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step()
}

func (s *Session) step() ([]core.Impact, error) {
	if s.match == nil {
		return nil, ErrNoMatch
	}

	next, impacts := s.world.Step(s.match.TickSeconds)
	s.tick++
	at := s.simTime()

	var errs []error
	for _, im := range impacts {
		hit := core.HitEventFromImpact(s.match.ID, s.tick, at, im)
		if err := s.deps.Backend.RecordHitEvent(&hit); err != nil {
			errs = append(errs, fmt.Errorf("record hit: %w", err))
		}
		if !im.Killed {
			continue
		}
		kill := core.KillEvent{MatchID: s.match.ID, Time: at, Tick: s.tick, TankIndex: im.TankIndex}
		if err := s.deps.Backend.RecordKillEvent(&kill); err != nil {
			errs = append(errs, fmt.Errorf("record kill: %w", err))
		}
		s.deps.Logger.Info("Tank destroyed", "tank", im.TankIndex, "projectile", im.ProjectileIndex, "tick", s.tick)
	}

	s.world = s.policy(next, impacts)

	for i, t := range s.world.Tanks {
		if err := s.recordTank(i, t); err != nil {
			errs = append(errs, err)
		}
	}
	if s.deps.Config.RecordProjectiles {
		for i, p := range s.world.Projectiles {
			ps := core.ProjectileState{
				MatchID:         s.match.ID,
				Time:            at,
				Tick:            s.tick,
				ProjectileIndex: i,
				Position:        p.Position,
				Velocity:        p.Velocity,
			}
			if err := s.deps.Backend.RecordProjectileState(&ps); err != nil {
				errs = append(errs, fmt.Errorf("record projectile state: %w", err))
			}
		}
	}

	s.deps.MatchContext.SetTick(s.tick)
	s.metrics.stepped(impacts)

	return impacts, errors.Join(errs...)
}

// Run steps ticks times, stopping early when ctx is cancelled.
// Recording errors are logged and do not stop the run.
func (s *Session) Run(ctx context.Context, ticks int) error {
	for i := 0; i < ticks; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.mu.Lock()
		_, err := s.step()
		s.mu.Unlock()
		if errors.Is(err, ErrNoMatch) {
			return err
		}
		if err != nil {
			s.deps.Logger.Warn("Failed to record tick", "error", err)
		}
	}
	return nil
}

// End finishes the running match and hands it to the backend.
func (s *Session) End() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.match == nil {
		return ErrNoMatch
	}
	err := s.deps.Backend.EndMatch()
	s.deps.Logger.Info("Match ended",
		"matchId", s.match.ID,
		"ticks", s.tick,
		"alive", s.world.AliveCount())
	s.match = nil
	if err != nil {
		return fmt.Errorf("end match: %w", err)
	}
	return nil
}

// World returns the current snapshot.
func (s *Session) World() core.World {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.world
}

// Tick returns the number of completed ticks in the running match.
func (s *Session) Tick() uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tick
}

// Match returns a copy of the running match and whether one is running.
func (s *Session) Match() (core.Match, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.match == nil {
		return core.Match{}, false
	}
	return *s.match, true
}

// Backend returns the storage backend recordings go to.
func (s *Session) Backend() storage.Backend {
	return s.deps.Backend
}

func (s *Session) simTime() time.Time {
	return s.match.StartTime.Add(time.Duration(float64(s.tick) * s.match.TickSeconds * float64(time.Second)))
}

func (s *Session) recordTank(index int, t core.Tank) error {
	ts := core.TankState{
		MatchID:      s.match.ID,
		Time:         s.simTime(),
		Tick:         s.tick,
		TankIndex:    index,
		Health:       t.Health,
		BarrelAngle:  t.BarrelAngle,
		BarrelLength: t.BarrelLength,
		Position:     t.Position,
		Alive:        t.IsAlive(),
	}
	if err := s.deps.Backend.RecordTankState(&ts); err != nil {
		return fmt.Errorf("record tank state: %w", err)
	}
	return nil
}
