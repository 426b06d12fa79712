package postgres

import (
	"testing"

	"github.com/OCAP2/artillery/internal/config"
	"github.com/OCAP2/artillery/internal/database"
	"github.com/OCAP2/artillery/internal/model"
	"github.com/OCAP2/artillery/pkg/core"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unreachable() config.DatabaseConfig {
	return config.DatabaseConfig{Host: "127.0.0.1", Port: "1", Username: "x", Password: "x", Database: "x"}
}

func TestNew(t *testing.T) {
	b := New(database.NewManager(unreachable(), zerolog.Nop()), nil)
	require.NotNil(t, b)
	require.NotNil(t, b.Backend)
	assert.Nil(t, b.DB())
	assert.False(t, b.SavingLocally())
}

func TestInit_FallsBackToSQLite(t *testing.T) {
	b := New(database.NewManager(unreachable(), zerolog.Nop()), nil)
	require.NoError(t, b.Init())
	t.Cleanup(func() { _ = b.Close() })

	assert.True(t, b.SavingLocally())
	require.NotNil(t, b.DB())
	assert.Equal(t, "sqlite", b.DB().Dialector.Name())
	assert.True(t, b.DB().Migrator().HasTable(&model.HitEvent{}))
}

func TestInit_UsesAttachedDB(t *testing.T) {
	db, err := database.OpenSQLite("")
	require.NoError(t, err)

	b := New(database.NewManager(unreachable(), zerolog.Nop()), nil)
	b.SetDB(db)
	require.NoError(t, b.Init())
	t.Cleanup(func() { _ = b.Close() })

	assert.Same(t, db, b.DB())
	assert.False(t, b.SavingLocally(), "manager never connected")
}

func TestRecordsThroughEmbeddedBackend(t *testing.T) {
	db, err := database.OpenSQLite("")
	require.NoError(t, err)

	b := New(database.NewManager(unreachable(), zerolog.Nop()), nil)
	b.SetDB(db)
	require.NoError(t, b.Init())

	m := &core.Match{Name: "pg"}
	require.NoError(t, b.StartMatch(m, &core.World{}))
	require.NoError(t, b.RecordTankState(&core.TankState{Tick: 1, TankIndex: 0, Health: 100}))
	require.NoError(t, b.EndMatch())
	require.NoError(t, b.Close())

	history, err := b.TankHistory(m.ID, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, int8(100), history[0].Health)
}
