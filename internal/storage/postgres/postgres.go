// Package postgres implements the storage.Backend interface on PostgreSQL.
// It owns the connection lifecycle and delegates recording to the GORM backend.
package postgres

import (
	"fmt"
	"log/slog"

	"github.com/OCAP2/artillery/internal/database"
	gormstorage "github.com/OCAP2/artillery/internal/storage/gorm"
)

// Backend connects through a database.Manager and records via the embedded GORM backend.
type Backend struct {
	*gormstorage.Backend
	manager *database.Manager
	log     *slog.Logger
}

// New creates a Postgres storage backend. The connection is opened in Init.
func New(manager *database.Manager, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{Logger: logger}),
		manager: manager,
		log:     logger.With("component", "storage.postgres"),
	}
}

// Init connects (unless a DB was already attached) and starts the GORM backend.
// When Postgres is unreachable the manager falls back to in-memory SQLite and recording continues there.
func (b *Backend) Init() error {
	if b.Backend.DB() == nil {
		if err := b.manager.Connect(); err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		if b.manager.ShouldSaveLocal {
			b.log.Warn("Postgres unavailable, recording to in-memory SQLite")
		}
		b.Backend.SetDB(b.manager.DB)
	}
	return b.Backend.Init()
}

// SavingLocally reports whether the manager fell back to SQLite.
func (b *Backend) SavingLocally() bool {
	return b.manager != nil && b.manager.ShouldSaveLocal
}
