package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/OCAP2/artillery/pkg/core"
	"github.com/OCAP2/artillery/pkg/streaming"
)

// Config holds WebSocket backend configuration.
type Config struct {
	URL    string
	Secret string
}

// Backend streams match data over WebSocket to a live viewer.
// It implements storage.Backend but not storage.Uploadable.
type Backend struct {
	conn    *connection
	cfg     Config
	matchID atomic.Uint64
	ticks   atomic.Uint64
}

// New creates a new WebSocket storage backend.
func New(cfg Config, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		conn: newConnection(logger.With("component", "storage.websocket")),
		cfg:  cfg,
	}
}

// Init connects to the WebSocket server.
func (b *Backend) Init() error {
	return b.conn.open(b.cfg.URL, b.cfg.Secret)
}

// Close disconnects from the WebSocket server.
func (b *Backend) Close() error {
	return b.conn.close()
}

func frame(msgType string, payload any) ([]byte, error) {
	env, err := streaming.NewEnvelope(msgType, payload)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

// push sends a fire-and-forget message.
func (b *Backend) push(msgType string, payload any) error {
	data, err := frame(msgType, payload)
	if err != nil {
		return err
	}
	b.conn.send(data)
	return nil
}

func (b *Backend) seeTick(tick uint) {
	for {
		cur := b.ticks.Load()
		if uint64(tick) <= cur || b.ticks.CompareAndSwap(cur, uint64(tick)) {
			return
		}
	}
}

// StartMatch sends the match header and opening world and waits for the server ack.
// The frame is kept for replay after a reconnect.
func (b *Backend) StartMatch(match *core.Match, world *core.World) error {
	data, err := frame(streaming.TypeStartMatch, streaming.StartMatchPayload{Match: match, World: world})
	if err != nil {
		return err
	}
	b.matchID.Store(uint64(match.ID))
	b.ticks.Store(0)
	b.conn.setReplay(data)
	return b.conn.sendAndWait(data, streaming.TypeStartMatch, ackTimeout)
}

// EndMatch sends end_match and waits for the server ack.
func (b *Backend) EndMatch() error {
	data, err := frame(streaming.TypeEndMatch, streaming.EndMatchPayload{
		MatchID: uint(b.matchID.Load()),
		Ticks:   uint(b.ticks.Load()),
	})
	if err != nil {
		return err
	}
	err = b.conn.sendAndWait(data, streaming.TypeEndMatch, ackTimeout)
	b.conn.setReplay(nil)
	return err
}

func (b *Backend) RecordTankState(s *core.TankState) error {
	b.seeTick(s.Tick)
	return b.push(streaming.TypeTankState, s)
}

func (b *Backend) RecordProjectileState(s *core.ProjectileState) error {
	b.seeTick(s.Tick)
	return b.push(streaming.TypeProjectileState, s)
}

func (b *Backend) RecordShotEvent(e *core.ShotEvent) error {
	return b.push(streaming.TypeShotEvent, e)
}

func (b *Backend) RecordHitEvent(e *core.HitEvent) error {
	return b.push(streaming.TypeHitEvent, e)
}

func (b *Backend) RecordKillEvent(e *core.KillEvent) error {
	return b.push(streaming.TypeKillEvent, e)
}
