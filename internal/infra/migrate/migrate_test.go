package migrate

import (
	"context"
	"io/fs"
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMigrations_Paired(t *testing.T) {
	entries, err := fs.ReadDir(FS, "migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Fatalf("unexpected file %s", name)
		}
	}
	require.Equal(t, ups, downs)
}

func TestMigrations_SourceReadable(t *testing.T) {
	src, err := iofs.New(FS, "migrations")
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	require.Equal(t, uint(1), first)

	next, err := src.Next(first)
	require.NoError(t, err)
	require.Equal(t, uint(2), next)
}

func TestMigrations_RepliesHaveNoForeignKey(t *testing.T) {
	raw, err := fs.ReadFile(FS, "migrations/000002_create_posts.up.sql")
	require.NoError(t, err)
	sql := string(raw)

	require.Contains(t, sql, "PRIMARY KEY (post_id, user_id)")
	require.Contains(t, sql, "ON DELETE CASCADE")
	require.NotContains(t, sql, "REFERENCES posts (id) ON DELETE SET NULL")
	for _, line := range strings.Split(sql, "\n") {
		if strings.Contains(line, "reply_to_id BIGINT") {
			require.NotContains(t, line, "REFERENCES")
		}
	}
}

// A non-postgres backend makes the driver fail after the connection is
// taken; the connection must go back to the pool and the pool stay open.
func TestUp_ReleasesConnection(t *testing.T) {
	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	db, err := gdb.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	for i := 0; i < 3; i++ {
		_, _, err = Up(context.Background(), db)
		require.Error(t, err)
		require.Zero(t, db.Stats().InUse)
	}
	require.NoError(t, db.Ping())
}
