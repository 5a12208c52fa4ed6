package connectors

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestConnector(t *testing.T, name string) Connector {
	t.Helper()
	// Shared-cache memory database so repeated opens within a test see the same DB.
	conn, err := Open("file:" + name + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, conn.Migrate())
	return conn
}

func TestOpenSelectsEngineByScheme(t *testing.T) {
	conn, err := Open("file:openscheme?mode=memory&cache=shared")
	require.NoError(t, err)
	defer conn.Close()
	assert.IsType(t, &SQLiteConnector{}, conn)
}

func TestMigrateIsIdempotent(t *testing.T) {
	conn := openTestConnector(t, "migratetwice")
	require.NoError(t, conn.Migrate())

	res, err := conn.Query(context.Background(), `SELECT version FROM schema_migrations ORDER BY version`)
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
}

func TestQueryMapsRowsAndColumns(t *testing.T) {
	conn := openTestConnector(t, "querymaps")
	ctx := context.Background()

	_, err := conn.Exec(ctx,
		`INSERT INTO songs (id, title, artist, genre, year, duration_seconds, play_count, rating)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		1, "Paranoid", "Black Sabbath", "Rock", 1970, 168, 4200, 4.8)
	require.NoError(t, err)

	res, err := conn.Query(ctx, `SELECT title, artist, year FROM songs WHERE genre = ?`, "Rock")
	require.NoError(t, err)

	assert.Equal(t, []string{"title", "artist", "year"}, res.Columns)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "Paranoid", res.Rows[0]["title"])
	assert.EqualValues(t, 1970, res.Rows[0]["year"])
}

func TestExecReportsAffectedRows(t *testing.T) {
	conn := openTestConnector(t, "execaffected")
	ctx := context.Background()

	affected, err := conn.Exec(ctx,
		`INSERT INTO accounts (username, password_hash, role) VALUES (?, ?, ?)`,
		"admin", "$2a$10$abcdefghijklmnopqrstuv", "admin")
	require.NoError(t, err)
	assert.EqualValues(t, 1, affected)

	affected, err = conn.Exec(ctx, `DELETE FROM accounts WHERE username = ?`, "nobody")
	require.NoError(t, err)
	assert.Zero(t, affected)
}

// Version bookkeeping must go through the connector's rebind hook:
// drivers with positional placeholder styles reject the literal '?'.
// SQLite accepts $n placeholders, so rebindPositional doubles as a
// live check that the rebound statement still executes.
func TestMigrateRebindsVersionBookkeeping(t *testing.T) {
	db, err := sql.Open("sqlite3", "file:migraterebind?mode=memory&cache=shared")
	require.NoError(t, err)
	defer db.Close()

	var rebound []string
	conn := &sqlConnector{
		db: db,
		rebind: func(stmt string) string {
			out := rebindPositional(stmt)
			rebound = append(rebound, out)
			return out
		},
	}
	require.NoError(t, conn.Migrate())

	var sawVersionInsert bool
	for _, stmt := range rebound {
		if strings.Contains(stmt, "INSERT INTO schema_migrations") {
			sawVersionInsert = true
			assert.Contains(t, stmt, "$1")
			assert.NotContains(t, stmt, "?")
		}
	}
	assert.True(t, sawVersionInsert, "version insert bypassed the rebind hook")

	res, err := conn.Query(context.Background(), `SELECT version FROM schema_migrations ORDER BY version`)
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
}

func TestMigrateDownRollsBackLastVersion(t *testing.T) {
	conn := openTestConnector(t, "migratedown")
	ctx := context.Background()

	require.NoError(t, conn.MigrateDown())
	res, err := conn.Query(ctx, `SELECT version FROM schema_migrations ORDER BY version`)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.EqualValues(t, 1, res.Rows[0]["version"])

	_, err = conn.Query(ctx, `SELECT id FROM songs`)
	assert.Error(t, err, "songs table should be dropped after rollback")

	_, err = conn.Query(ctx, `SELECT username FROM accounts`)
	assert.NoError(t, err, "earlier migrations stay applied")

	require.NoError(t, conn.MigrateDown())
	err = conn.MigrateDown()
	require.Error(t, err, "rollback with nothing applied must fail")
	assert.Contains(t, err.Error(), "no applied migrations")
}

func TestRebindPositional(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "rewrites placeholders in order",
			in:   "SELECT * FROM songs WHERE genre = ? AND year > ?",
			want: "SELECT * FROM songs WHERE genre = $1 AND year > $2",
		},
		{
			name: "ignores question marks inside literals",
			in:   "SELECT * FROM songs WHERE title = '?' AND artist = ?",
			want: "SELECT * FROM songs WHERE title = '?' AND artist = $1",
		},
		{
			name: "no placeholders",
			in:   "SELECT count(*) FROM songs",
			want: "SELECT count(*) FROM songs",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rebindPositional(tt.in))
		})
	}
}
