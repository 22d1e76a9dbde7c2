package db

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect names one of the supported SQL backends.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
	MySQL    Dialect = "mysql"
)

// ParseDialect maps a configured driver name to a Dialect.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql", "pq":
		return Postgres, nil
	case "mysql", "mariadb":
		return MySQL, nil
	}
	return "", fmt.Errorf("unknown database driver %q (want sqlite, postgres or mysql)", s)
}

// DriverName is the database/sql driver registered for d.
func (d Dialect) DriverName() string {
	return string(d)
}

// Rebind rewrites "?" placeholders to "$n" for Postgres. Other dialects take "?" as is.
// Queries must not contain literal question marks.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
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

// Contains returns a case-sensitive "column contains ?" predicate.
func (d Dialect) Contains(column string) string {
	switch d {
	case Postgres:
		return "strpos(" + column + ", ?) > 0"
	case MySQL:
		return "LOCATE(BINARY ?, " + column + ") > 0"
	default:
		return "instr(" + column + ", ?) > 0"
	}
}

// ResetIdentity returns the statement restarting the id sequence of an emptied table, or "".
// SQLite reuses rowids once the table is empty; MySQL's ALTER TABLE would commit the transaction.
func (d Dialect) ResetIdentity(table string) string {
	if d == Postgres {
		return "ALTER SEQUENCE " + table + "_id_seq RESTART WITH 1"
	}
	return ""
}
