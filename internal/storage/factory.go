// internal/storage/factory.go
package storage

import (
	"fmt"
	"log/slog"

	"github.com/OCAP2/artillery/internal/config"
	"github.com/OCAP2/artillery/internal/database"
	gormstorage "github.com/OCAP2/artillery/internal/storage/gorm"
	"github.com/OCAP2/artillery/internal/storage/influx"
	"github.com/OCAP2/artillery/internal/storage/memory"
	"github.com/OCAP2/artillery/internal/storage/postgres"
	sqlitestorage "github.com/OCAP2/artillery/internal/storage/sqlite"
	"github.com/OCAP2/artillery/internal/storage/websocket"
	"github.com/rs/zerolog"
)

// Storage type names accepted in storage.type.
const (
	TypeMemory    = "memory"
	TypePostgres  = "postgres"
	TypeSQLite    = "sqlite"
	TypeWebSocket = "websocket"
	TypeInflux    = "influx"
)

// NewBackend creates a storage backend based on configuration.
// zlog is used by the database-backed stores, logger by the rest.
func NewBackend(cfg config.StorageConfig, logger *slog.Logger, zlog zerolog.Logger) (Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Type {
	case TypeMemory, "":
		return memory.New(cfg.Memory), nil
	case TypePostgres:
		return postgres.New(database.NewManager(cfg.Database, zlog), logger), nil
	case TypeSQLite:
		return sqlitestorage.New(sqlitestorage.Config{
			DumpInterval: cfg.SQLite.DumpInterval,
			DumpPath:     cfg.SQLite.DumpPath,
		}, logger)
	case TypeWebSocket:
		if cfg.WebSocket.URL == "" {
			return nil, fmt.Errorf("websocket storage requires storage.websocket.url")
		}
		return websocket.New(websocket.Config{URL: cfg.WebSocket.URL, Secret: cfg.WebSocket.Secret}, logger), nil
	case TypeInflux:
		return influx.New(cfg.Influx, zlog), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

var (
	_ Backend    = (*memory.Backend)(nil)
	_ Uploadable = (*memory.Backend)(nil)
	_ Backend    = (*gormstorage.Backend)(nil)
	_ Backend    = (*postgres.Backend)(nil)
	_ Backend    = (*sqlitestorage.Backend)(nil)
	_ Backend    = (*websocket.Backend)(nil)
	_ Backend    = (*influx.Backend)(nil)
)
