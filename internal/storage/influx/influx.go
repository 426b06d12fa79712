// Package influx records match telemetry as InfluxDB time series.
package influx

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/OCAP2/artillery/internal/config"
	influxmgr "github.com/OCAP2/artillery/internal/influx"
	"github.com/OCAP2/artillery/pkg/core"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"
)

// ConnectTimeout bounds the initial ping.
var ConnectTimeout = 5 * time.Second

// ErrNotInitialized is returned when recording before Init.
var ErrNotInitialized = errors.New("influx backend not initialized")

// Backend writes one point per record. Points are tagged with the match ID
// and entity index so a match can be replayed from a single bucket.
type Backend struct {
	manager *influxmgr.Manager
	matchID atomic.Uint64
	ready   atomic.Bool
}

// New creates an influx backend. Nothing is dialled until Init.
func New(cfg config.InfluxConfig, log zerolog.Logger) *Backend {
	return &Backend{manager: influxmgr.NewManager(cfg, log)}
}

// Manager exposes the underlying connection manager.
func (b *Backend) Manager() *influxmgr.Manager {
	return b.manager
}

// Init connects, or opens the backup file when the server is down.
func (b *Backend) Init() error {
	ctx, cancel := context.WithTimeout(context.Background(), ConnectTimeout)
	defer cancel()
	if err := b.manager.Connect(ctx); err != nil {
		return err
	}
	b.ready.Store(true)
	return nil
}

// Close flushes pending points.
func (b *Backend) Close() error {
	if !b.ready.Swap(false) {
		return nil
	}
	return b.manager.Close()
}

// StartMatch writes a match marker point. A zero match ID is replaced with the start time in seconds.
func (b *Backend) StartMatch(match *core.Match, world *core.World) error {
	if match.ID == 0 {
		match.ID = uint(match.StartTime.Unix())
	}
	b.matchID.Store(uint64(match.ID))

	fields := map[string]any{
		"wind":        int64(match.Wind),
		"tickSeconds": match.TickSeconds,
	}
	if world != nil {
		fields["tanks"] = len(world.Tanks)
	}
	tags := map[string]string{"match": strconv.FormatUint(uint64(match.ID), 10)}
	if match.Name != "" {
		tags["name"] = match.Name
	}
	if match.Tag != "" {
		tags["tag"] = match.Tag
	}
	return b.write(influxdb2.NewPoint("match_start", tags, fields, match.StartTime))
}

// EndMatch flushes buffered points.
func (b *Backend) EndMatch() error {
	if !b.ready.Load() {
		return ErrNotInitialized
	}
	return b.manager.Flush()
}

func (b *Backend) tags(indexKey string, index int) map[string]string {
	return map[string]string{
		"match":  strconv.FormatUint(b.matchID.Load(), 10),
		indexKey: strconv.Itoa(index),
	}
}

// RecordTankState writes a tank_state point.
func (b *Backend) RecordTankState(s *core.TankState) error {
	return b.write(influxdb2.NewPoint("tank_state", b.tags("tank", s.TankIndex), map[string]any{
		"tick":   int64(s.Tick),
		"x":      s.Position.X,
		"y":      s.Position.Y,
		"health": int64(s.Health),
		"angle":  int64(s.BarrelAngle),
		"alive":  s.Alive,
	}, s.Time))
}

// RecordProjectileState writes a projectile_state point.
func (b *Backend) RecordProjectileState(s *core.ProjectileState) error {
	return b.write(influxdb2.NewPoint("projectile_state", b.tags("projectile", s.ProjectileIndex), map[string]any{
		"tick": int64(s.Tick),
		"x":    s.Position.X,
		"y":    s.Position.Y,
		"vx":   s.Velocity.X,
		"vy":   s.Velocity.Y,
	}, s.Time))
}

// RecordShotEvent writes a shot point.
func (b *Backend) RecordShotEvent(e *core.ShotEvent) error {
	return b.write(influxdb2.NewPoint("shot", b.tags("tank", e.TankIndex), map[string]any{
		"tick":  int64(e.Tick),
		"power": int64(e.Power),
		"vx":    e.Projectile.Velocity.X,
		"vy":    e.Projectile.Velocity.Y,
	}, e.Time))
}

// RecordHitEvent writes a hit point.
func (b *Backend) RecordHitEvent(e *core.HitEvent) error {
	tags := b.tags("tank", e.TankIndex)
	tags["projectile"] = strconv.Itoa(e.ProjectileIndex)
	return b.write(influxdb2.NewPoint("hit", tags, map[string]any{
		"tick":         int64(e.Tick),
		"distance":     e.Distance,
		"healthBefore": int64(e.HealthBefore),
		"healthAfter":  int64(e.HealthAfter),
	}, e.Time))
}

// RecordKillEvent writes a kill point.
func (b *Backend) RecordKillEvent(e *core.KillEvent) error {
	return b.write(influxdb2.NewPoint("kill", b.tags("tank", e.TankIndex), map[string]any{
		"tick": int64(e.Tick),
	}, e.Time))
}

func (b *Backend) write(p *influxdb2_write.Point) error {
	if !b.ready.Load() {
		return ErrNotInitialized
	}
	return b.manager.WritePoint(p)
}
