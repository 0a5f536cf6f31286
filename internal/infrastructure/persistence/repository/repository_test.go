package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AisleiAvila/HomeService-sub001/internal/infrastructure/persistence/sqlite"
	"github.com/AisleiAvila/HomeService-sub001/pkg/database"
)

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()

	db, err := database.New(database.Config{Path: database.MemoryPath}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.NewMigrator(db, zap.NewNop()).Up(context.Background()))
	return sqlite.NewDB(db.DB, zap.NewNop())
}
