package inttest

import (
	"log/slog"
	"testing"

	_ "github.com/lib/pq" // postgres driver
	"github.com/orlangure/gnomock"
	"github.com/orlangure/gnomock/preset/postgres"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/scheduleshare/event-manager/pkg/config"
	"github.com/scheduleshare/event-manager/pkg/storage"
)

// SetupDB creates a PostgreSQL container. Gorm is connected to the DB and runs the migrations.
func SetupDB(t *testing.T) *gorm.DB {
	t.Helper()

	container, err := gnomock.Start(
		postgres.Preset(
			postgres.WithUser("events", "events"),
			postgres.WithDatabase("test_events"),
		),
	)
	require.NoError(t, err, "failed to start DB")
	t.Cleanup(func() { require.NoError(t, gnomock.Stop(container), "failed to stop DB") })

	db, err := storage.NewDatabase(config.Postgresql{
		Host:         container.Host,
		Port:         container.DefaultPort(),
		Username:     "events",
		Password:     "events",
		DatabaseName: "test_events",
	}, slog.New(slog.DiscardHandler))
	require.NoError(t, err, "failed to setup DB")
	return db
}
