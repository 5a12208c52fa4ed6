package connectors

import (
	"embed"
	"fmt"
	stdfs "io/fs"
	"regexp"
	"sort"
	"strings"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type migration struct {
	version  int
	name     string
	upFile   string // path inside embedded FS
	downFile string // path inside embedded FS
}

var migFileRe = regexp.MustCompile(`^([0-9]{4})_(.+)\.(up|down)\.sql$`)

// bind applies the connector's placeholder rewrite, if any. Version
// bookkeeping statements go through it so they work on drivers that
// reject '?' placeholders.
func (c *sqlConnector) bind(statement string) string {
	if c.rebind != nil {
		return c.rebind(statement)
	}
	return statement
}

// applyMigrations applies pending versioned .sql files under
// migrations/ following the pattern 0001_name.up.sql / 0001_name.down.sql.
// Only new migrations are applied.
func (c *sqlConnector) applyMigrations() error {
	migs, err := loadMigrations()
	if err != nil {
		return err
	}
	if len(migs) == 0 {
		return nil
	}
	applied, err := c.appliedVersions()
	if err != nil {
		return err
	}

	versions := make([]int, 0, len(migs))
	for v := range migs {
		versions = append(versions, v)
	}
	sort.Ints(versions)

	for _, v := range versions {
		if applied[v] {
			continue
		}
		m := migs[v]
		if strings.TrimSpace(m.upFile) == "" {
			return fmt.Errorf("missing up migration for version %04d", v)
		}
		sqlText, err := migrationsFS.ReadFile(m.upFile)
		if err != nil {
			return err
		}
		tx, err := c.db.Begin()
		if err != nil {
			return err
		}
		for _, stmt := range splitStatements(string(sqlText)) {
			if _, err := tx.Exec(stmt); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %04d failed: %w", v, err)
			}
		}
		if _, err := tx.Exec(c.bind(`INSERT INTO schema_migrations(version) VALUES(?)`), v); err != nil {
			_ = tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}

// rollbackLastMigration reverts the highest applied version using its
// down file.
func (c *sqlConnector) rollbackLastMigration() error {
	migs, err := loadMigrations()
	if err != nil {
		return err
	}
	applied, err := c.appliedVersions()
	if err != nil {
		return err
	}
	last := 0
	for v := range applied {
		if v > last {
			last = v
		}
	}
	if last == 0 {
		return fmt.Errorf("no applied migrations to roll back")
	}

	m, ok := migs[last]
	if !ok || strings.TrimSpace(m.downFile) == "" {
		return fmt.Errorf("missing down migration for version %04d", last)
	}
	sqlText, err := migrationsFS.ReadFile(m.downFile)
	if err != nil {
		return err
	}
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	for _, stmt := range splitStatements(string(sqlText)) {
		if _, err := tx.Exec(stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("rollback of %04d failed: %w", last, err)
		}
	}
	if _, err := tx.Exec(c.bind(`DELETE FROM schema_migrations WHERE version = ?`), last); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func loadMigrations() (map[int]migration, error) {
	entries := map[int]migration{}
	list, err := stdfs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		// if directory missing, just return empty set
		return entries, nil
	}
	for _, de := range list {
		if de.IsDir() {
			continue
		}
		name := de.Name()
		m := migFileRe.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		verStr, migName, kind := m[1], m[2], m[3]
		var ver int
		if _, err := fmt.Sscanf(verStr, "%04d", &ver); err != nil {
			continue
		}
		item := entries[ver]
		item.version = ver
		item.name = migName
		p := "migrations/" + name
		if kind == "up" {
			item.upFile = p
		} else {
			item.downFile = p
		}
		entries[ver] = item
	}
	return entries, nil
}

func (c *sqlConnector) appliedVersions() (map[int]bool, error) {
	if err := c.ensureMigrationsTable(); err != nil {
		return nil, err
	}
	rows, err := c.db.Query(`SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	got := map[int]bool{}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		got[v] = true
	}
	return got, rows.Err()
}

func (c *sqlConnector) ensureMigrationsTable() error {
	_, err := c.db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
        version INTEGER PRIMARY KEY,
        applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
    )`)
	return err
}

// splitStatements splits a migration file on ';' so multi-statement
// files work across drivers that reject batched statements.
func splitStatements(text string) []string {
	var out []string
	for _, stmt := range strings.Split(text, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
