// internal/storage/memory/memory.go
package memory

import (
	"sort"
	"sync"

	"github.com/OCAP2/artillery/internal/config"
	"github.com/OCAP2/artillery/pkg/core"
)

// TankRecord groups a tank's per-tick states
type TankRecord struct {
	Index  int
	States []core.TankState
}

// ProjectileRecord groups a projectile's per-tick states
type ProjectileRecord struct {
	Index  int
	States []core.ProjectileState
}

// Backend stores match data in memory and exports to JSON
type Backend struct {
	cfg   config.MemoryConfig
	match *core.Match
	world *core.World

	tanks       map[int]*TankRecord
	projectiles map[int]*ProjectileRecord

	shotEvents []core.ShotEvent
	hitEvents  []core.HitEvent
	killEvents []core.KillEvent

	endTick        uint
	idCounter      uint
	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg:         cfg,
		tanks:       make(map[int]*TankRecord),
		projectiles: make(map[int]*ProjectileRecord),
	}
}

func (b *Backend) Init() error {
	return nil
}

func (b *Backend) Close() error {
	return nil
}

// StartMatch begins recording a new match and assigns it an ID when it has none.
func (b *Backend) StartMatch(match *core.Match, world *core.World) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if match.ID == 0 {
		b.idCounter++
		match.ID = b.idCounter
	} else if match.ID > b.idCounter {
		b.idCounter = match.ID
	}

	b.match = match
	b.world = world

	b.tanks = make(map[int]*TankRecord)
	b.projectiles = make(map[int]*ProjectileRecord)
	b.shotEvents = nil
	b.hitEvents = nil
	b.killEvents = nil
	b.endTick = 0
	b.lastExportPath = ""

	return nil
}

// EndMatch finalizes and exports the match data
func (b *Backend) EndMatch() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.match == nil {
		return nil
	}
	return b.exportJSON()
}

func (b *Backend) seeTick(tick uint) {
	if tick > b.endTick {
		b.endTick = tick
	}
}

// RecordTankState appends a state to the tank's record, creating it on first sight.
func (b *Backend) RecordTankState(s *core.TankState) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	record, ok := b.tanks[s.TankIndex]
	if !ok {
		record = &TankRecord{Index: s.TankIndex}
		b.tanks[s.TankIndex] = record
	}
	record.States = append(record.States, *s)
	b.seeTick(s.Tick)
	return nil
}

// RecordProjectileState appends a state to the projectile's record, creating it on first sight.
func (b *Backend) RecordProjectileState(s *core.ProjectileState) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	record, ok := b.projectiles[s.ProjectileIndex]
	if !ok {
		record = &ProjectileRecord{Index: s.ProjectileIndex}
		b.projectiles[s.ProjectileIndex] = record
	}
	record.States = append(record.States, *s)
	b.seeTick(s.Tick)
	return nil
}

func (b *Backend) RecordShotEvent(e *core.ShotEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.shotEvents = append(b.shotEvents, *e)
	b.seeTick(e.Tick)
	return nil
}

func (b *Backend) RecordHitEvent(e *core.HitEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hitEvents = append(b.hitEvents, *e)
	b.seeTick(e.Tick)
	return nil
}

func (b *Backend) RecordKillEvent(e *core.KillEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.killEvents = append(b.killEvents, *e)
	b.seeTick(e.Tick)
	return nil
}

// TankHistory returns a copy of the states recorded for one tank.
func (b *Backend) TankHistory(index int) ([]core.TankState, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	record, ok := b.tanks[index]
	if !ok {
		return nil, false
	}
	return append([]core.TankState(nil), record.States...), true
}

// HitEvents returns a copy of the recorded hits in arrival order.
func (b *Backend) HitEvents() []core.HitEvent {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]core.HitEvent(nil), b.hitEvents...)
}

// KillEvents returns a copy of the recorded kills in arrival order.
func (b *Backend) KillEvents() []core.KillEvent {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]core.KillEvent(nil), b.killEvents...)
}

// ShotEvents returns a copy of the recorded shots in arrival order.
func (b *Backend) ShotEvents() []core.ShotEvent {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]core.ShotEvent(nil), b.shotEvents...)
}

// GetExportedFilePath returns the file written by the last EndMatch.
func (b *Backend) GetExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}

// GetExportMetadata describes the current match for upload.
func (b *Backend) GetExportMetadata() core.UploadMetadata {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.match == nil {
		return core.UploadMetadata{}
	}
	return core.UploadMetadata{
		MatchName: b.match.Name,
		Duration:  float64(b.endTick) * b.match.TickSeconds,
		Tag:       b.match.Tag,
	}
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
