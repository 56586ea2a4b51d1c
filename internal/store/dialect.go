package store

import (
	"fmt"
	"strconv"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// dialect covers the few places where the supported databases disagree.
type dialect struct {
	driver      string
	numbered    bool // $1, $2 placeholders
	upsertTail  string
	maxOpenConn int
}

var dialects = map[string]dialect{
	"sqlite3": {
		driver:      "sqlite3",
		upsertTail:  "ON CONFLICT(name) DO UPDATE SET source = excluded.source, updated_at = excluded.updated_at",
		maxOpenConn: 1,
	},
	"mysql": {
		driver:     "mysql",
		upsertTail: "ON DUPLICATE KEY UPDATE source = VALUES(source), updated_at = VALUES(updated_at)",
	},
	"postgres": {
		driver:     "postgres",
		numbered:   true,
		upsertTail: "ON CONFLICT (name) DO UPDATE SET source = EXCLUDED.source, updated_at = EXCLUDED.updated_at",
	},
}

func lookupDialect(driver string) (dialect, error) {
	switch driver {
	case "sqlite", "":
		driver = "sqlite3"
	case "postgresql", "pq":
		driver = "postgres"
	}
	d, ok := dialects[driver]
	if !ok {
		return dialect{}, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
	return d, nil
}

// rebind rewrites ? placeholders for drivers that number them.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS scripts (
		name VARCHAR(255) PRIMARY KEY,
		source TEXT NOT NULL,
		updated_at VARCHAR(64) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS results (
		id VARCHAR(36) PRIMARY KEY,
		run_id VARCHAR(36) NOT NULL,
		script VARCHAR(255) NOT NULL,
		name VARCHAR(255) NOT NULL,
		kind VARCHAR(32) NOT NULL,
		value TEXT,
		created_at VARCHAR(64) NOT NULL
	)`,
}
