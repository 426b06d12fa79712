// internal/storage/storage.go
package storage

import "github.com/OCAP2/artillery/pkg/core"

// Backend is the interface all storage implementations must satisfy.
// Calls for one match arrive in tick order from a single goroutine.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Match management. StartMatch may assign match.ID.
	StartMatch(match *core.Match, world *core.World) error
	EndMatch() error

	// State recording, once per entity per tick
	RecordTankState(s *core.TankState) error
	RecordProjectileState(s *core.ProjectileState) error

	// Event recording
	RecordShotEvent(e *core.ShotEvent) error
	RecordHitEvent(e *core.HitEvent) error
	RecordKillEvent(e *core.KillEvent) error
}

// Uploadable is an optional interface for storage backends that produce
// files suitable for upload to the web frontend.
type Uploadable interface {
	GetExportedFilePath() string
	GetExportMetadata() core.UploadMetadata
}
