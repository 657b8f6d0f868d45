package factstore

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect captures the SQL differences between the supported databases
type Dialect struct {
	Name   string
	Driver string // database/sql driver name

	quote         byte
	realType      string
	dollarBinds   bool
	indexIfAbsent bool
}

var dialects = map[string]Dialect{
	"sqlite": {
		Name:          "sqlite",
		Driver:        "sqlite",
		quote:         '"',
		realType:      "REAL",
		indexIfAbsent: true,
	},
	"postgres": {
		Name:          "postgres",
		Driver:        "pgx",
		quote:         '"',
		realType:      "DOUBLE PRECISION",
		dollarBinds:   true,
		indexIfAbsent: true,
	},
	"mysql": {
		Name:     "mysql",
		Driver:   "mysql",
		quote:    '`',
		realType: "DOUBLE",
	},
}

// LookupDialect returns the dialect registered under name
func LookupDialect(name string) (Dialect, error) {
	d, ok := dialects[name]
	if !ok {
		return Dialect{}, fmt.Errorf("unsupported database driver: %s", name)
	}
	return d, nil
}

// Quote returns ident as a quoted identifier. Column names are upper case and
// must stay that way on PostgreSQL.
func (d Dialect) Quote(ident string) string {
	q := string(d.quote)
	return q + ident + q
}

// DSN turns the configured database URL into a driver data source name
func (d Dialect) DSN(url string) string {
	if d.Name == "sqlite" && !strings.HasPrefix(url, "file:") {
		return fmt.Sprintf("file:%s?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)", url)
	}
	return url
}

// Rebind rewrites ? placeholders into the dialect's bind syntax. Placeholders
// inside quoted literals or identifiers are left alone.
func (d Dialect) Rebind(query string) string {
	if !d.dollarBinds {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	var inQuote byte
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case inQuote != 0:
			if c == inQuote {
				inQuote = 0
			}
		case c == '\'' || c == '"':
			inQuote = c
		case c == '?':
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// ageBucket returns an expression for the ten-year bucket index of col
func (d Dialect) ageBucket(col string) string {
	if d.Name == "sqlite" {
		return fmt.Sprintf("CAST(%s / 10 AS INTEGER)", d.Quote(col))
	}
	return fmt.Sprintf("FLOOR(%s / 10)", d.Quote(col))
}

func (d Dialect) columnType(kind ColumnKind) string {
	switch kind {
	case KindReal:
		return d.realType
	case KindInteger:
		return "INTEGER"
	default:
		return "TEXT"
	}
}
