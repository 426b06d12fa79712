// Package gormstorage implements the storage.Backend interface on GORM
// with batched write buffers and a background DB writer goroutine.
package gormstorage

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/OCAP2/artillery/internal/batch"
	"github.com/OCAP2/artillery/internal/database"
	"github.com/OCAP2/artillery/internal/model"
	"github.com/OCAP2/artillery/internal/model/convert"
	"github.com/OCAP2/artillery/pkg/core"
	"gorm.io/gorm"
)

// DefaultFlushInterval is how often the writer drains the buffers.
const DefaultFlushInterval = 2 * time.Second

// ErrNoDatabase is returned by queries on a backend running without a DB.
var ErrNoDatabase = errors.New("no database configured")

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB            *gorm.DB
	Logger        *slog.Logger
	FlushInterval time.Duration
}

// buffers holds the rows waiting for the next bulk insert.
type buffers struct {
	TankStates       *batch.Buffer[model.TankState]
	ProjectileStates *batch.Buffer[model.ProjectileState]
	ShotEvents       *batch.Buffer[model.ShotEvent]
	HitEvents        *batch.Buffer[model.HitEvent]
	KillEvents       *batch.Buffer[model.KillEvent]
}

func newBuffers() *buffers {
	return &buffers{
		TankStates:       batch.New[model.TankState](),
		ProjectileStates: batch.New[model.ProjectileState](),
		ShotEvents:       batch.New[model.ShotEvent](),
		HitEvents:        batch.New[model.HitEvent](),
		KillEvents:       batch.New[model.KillEvent](),
	}
}

// Backend implements storage.Backend using GORM with buffered batch writes.
// Without a DB it only buffers, which is how the unit tests drive it.
type Backend struct {
	deps    Dependencies
	log     *slog.Logger
	buffers *buffers

	matchID atomic.Uint64
	endTick atomic.Uint64

	// projectile paths for the current match, keyed by projectile index
	tracksMu sync.Mutex
	tracks   map[int][]core.ProjectileState

	writeMu       sync.Mutex // serializes flushes
	lastWriteNano atomic.Int64

	stopChan chan struct{}
	done     chan struct{}
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.FlushInterval <= 0 {
		deps.FlushInterval = DefaultFlushInterval
	}
	return &Backend{
		deps:   deps,
		log:    deps.Logger.With("component", "storage.gorm"),
		tracks: make(map[int][]core.ProjectileState),
	}
}

// SetDB attaches a connection opened after New. It must be called before Init.
func (b *Backend) SetDB(db *gorm.DB) {
	b.deps.DB = db
}

// DB returns the attached connection, nil in buffer-only mode.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Init creates the buffers, migrates the schema and starts the writer goroutine.
func (b *Backend) Init() error {
	b.buffers = newBuffers()
	b.stopChan = make(chan struct{})
	b.done = make(chan struct{})

	if b.deps.DB == nil {
		close(b.done)
		return nil
	}

	if err := database.Migrate(b.deps.DB); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}
	b.log.Info("Database schema ready", "dialect", b.deps.DB.Dialector.Name())

	go b.writeLoop()
	return nil
}

// Close stops the writer and flushes whatever is still buffered.
func (b *Backend) Close() error {
	if b.stopChan == nil {
		return nil
	}
	select {
	case <-b.stopChan:
		return nil
	default:
		close(b.stopChan)
	}
	<-b.done
	return b.Flush()
}

// StartMatch inserts the match row and stamps its ID on the core value.
func (b *Backend) StartMatch(match *core.Match, _ *core.World) error {
	b.tracksMu.Lock()
	b.tracks = make(map[int][]core.ProjectileState)
	b.tracksMu.Unlock()
	b.endTick.Store(0)

	if b.deps.DB == nil {
		b.matchID.Store(uint64(match.ID))
		return nil
	}

	row := convert.CoreToMatch(*match)
	row.ID = 0
	if err := b.deps.DB.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert new match: %w", err)
	}
	match.ID = row.ID
	b.matchID.Store(uint64(row.ID))
	b.log.Info("Match started", "matchId", row.ID, "name", row.Name)
	return nil
}

// SetMatchID sets the match ID used to stamp buffered rows.
func (b *Backend) SetMatchID(id uint) {
	b.matchID.Store(uint64(id))
}

// EndMatch flushes the buffers, writes projectile tracks and closes the match row.
func (b *Backend) EndMatch() error {
	if err := b.Flush(); err != nil {
		return err
	}
	if b.deps.DB == nil {
		return nil
	}

	matchID := uint(b.matchID.Load())
	tracks := b.drainTracks(matchID)
	if len(tracks) > 0 {
		if err := b.deps.DB.Create(&tracks).Error; err != nil {
			return fmt.Errorf("failed to insert projectile tracks: %w", err)
		}
	}

	if err := b.deps.DB.Model(&model.Match{}).Where("id = ?", matchID).
		Update("end_tick", b.endTick.Load()).Error; err != nil {
		return fmt.Errorf("failed to close match %d: %w", matchID, err)
	}
	b.log.Info("Match ended", "matchId", matchID, "endTick", b.endTick.Load(), "tracks", len(tracks))
	return nil
}

func (b *Backend) drainTracks(matchID uint) []model.ProjectileTrack {
	b.tracksMu.Lock()
	defer b.tracksMu.Unlock()

	indices := make([]int, 0, len(b.tracks))
	for idx, states := range b.tracks {
		if len(states) >= 2 {
			indices = append(indices, idx)
		}
	}
	sort.Ints(indices)

	out := make([]model.ProjectileTrack, 0, len(indices))
	for _, idx := range indices {
		out = append(out, convert.TrackFromStates(matchID, b.tracks[idx]))
	}
	b.tracks = make(map[int][]core.ProjectileState)
	return out
}

func (b *Backend) seeTick(tick uint) {
	for {
		cur := b.endTick.Load()
		if uint64(tick) <= cur || b.endTick.CompareAndSwap(cur, uint64(tick)) {
			return
		}
	}
}

func (b *Backend) RecordTankState(s *core.TankState) error {
	b.buffers.TankStates.Add(convert.CoreToTankState(*s))
	b.seeTick(s.Tick)
	return nil
}

func (b *Backend) RecordProjectileState(s *core.ProjectileState) error {
	b.buffers.ProjectileStates.Add(convert.CoreToProjectileState(*s))
	b.tracksMu.Lock()
	b.tracks[s.ProjectileIndex] = append(b.tracks[s.ProjectileIndex], *s)
	b.tracksMu.Unlock()
	b.seeTick(s.Tick)
	return nil
}

func (b *Backend) RecordShotEvent(e *core.ShotEvent) error {
	b.buffers.ShotEvents.Add(convert.CoreToShotEvent(*e))
	b.seeTick(e.Tick)
	return nil
}

func (b *Backend) RecordHitEvent(e *core.HitEvent) error {
	b.buffers.HitEvents.Add(convert.CoreToHitEvent(*e))
	b.seeTick(e.Tick)
	return nil
}

func (b *Backend) RecordKillEvent(e *core.KillEvent) error {
	b.buffers.KillEvents.Add(convert.CoreToKillEvent(*e))
	b.seeTick(e.Tick)
	return nil
}

// Pending returns the number of rows not yet written.
func (b *Backend) Pending() int {
	if b.buffers == nil {
		return 0
	}
	return b.buffers.TankStates.Len() + b.buffers.ProjectileStates.Len() +
		b.buffers.ShotEvents.Len() + b.buffers.HitEvents.Len() + b.buffers.KillEvents.Len()
}

// LastWriteDuration reports how long the most recent flush took.
func (b *Backend) LastWriteDuration() time.Duration {
	return time.Duration(b.lastWriteNano.Load())
}

// Flush writes every buffer to the DB. Rows of a failed table are put back for the next attempt.
func (b *Backend) Flush() error {
	if b.deps.DB == nil || b.buffers == nil {
		return nil
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	start := time.Now()
	matchID := uint(b.matchID.Load())

	errs := []error{
		writeBatch(b.deps.DB, b.buffers.TankStates, "tank states", func(r *model.TankState) { r.MatchID = matchID }),
		writeBatch(b.deps.DB, b.buffers.ProjectileStates, "projectile states", func(r *model.ProjectileState) { r.MatchID = matchID }),
		writeBatch(b.deps.DB, b.buffers.ShotEvents, "shot events", func(r *model.ShotEvent) { r.MatchID = matchID }),
		writeBatch(b.deps.DB, b.buffers.HitEvents, "hit events", func(r *model.HitEvent) { r.MatchID = matchID }),
		writeBatch(b.deps.DB, b.buffers.KillEvents, "kill events", func(r *model.KillEvent) { r.MatchID = matchID }),
	}

	b.lastWriteNano.Store(int64(time.Since(start)))
	err := errors.Join(errs...)
	if err != nil {
		b.log.Error("DB write failed", "error", err)
	}
	return err
}

// writeBatch inserts everything in buf in one transaction, stamping each row first.
func writeBatch[T any](db *gorm.DB, buf *batch.Buffer[T], name string, stamp func(*T)) error {
	items := buf.Drain()
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		stamp(&items[i])
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&items).Error
	})
	if err != nil {
		buf.Requeue(items)
		return fmt.Errorf("error creating %s: %w", name, err)
	}
	return nil
}

// writeLoop drains the buffers every FlushInterval until Close.
func (b *Backend) writeLoop() {
	defer close(b.done)

	ticker := time.NewTicker(b.deps.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			_ = b.Flush()
		}
	}
}

// TankHistory loads the recorded states of one tank in tick order.
func (b *Backend) TankHistory(matchID uint, tankIndex int) ([]core.TankState, error) {
	if b.deps.DB == nil {
		return nil, ErrNoDatabase
	}
	var rows []model.TankState
	err := b.deps.DB.Where("match_id = ? AND tank_index = ?", matchID, tankIndex).
		Order("tick").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load tank %d history: %w", tankIndex, err)
	}
	out := make([]core.TankState, len(rows))
	for i, r := range rows {
		out[i] = convert.TankStateToCore(r)
	}
	return out, nil
}

// HitEvents loads the recorded hits of a match in insertion order.
func (b *Backend) HitEvents(matchID uint) ([]core.HitEvent, error) {
	if b.deps.DB == nil {
		return nil, ErrNoDatabase
	}
	var rows []model.HitEvent
	if err := b.deps.DB.Where("match_id = ?", matchID).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load hits: %w", err)
	}
	out := make([]core.HitEvent, len(rows))
	for i, r := range rows {
		out[i] = convert.HitEventToCore(r)
	}
	return out, nil
}
