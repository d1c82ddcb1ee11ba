package postgres

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
)

const (
	driverName       = "postgres"
	binaryResultFlag = "disable_prepared_binary_result"
	maxTracedQuery   = 512
)

type OpenOptions struct {
	// DisablePreparedBinary is needed behind transaction-mode poolers.
	DisablePreparedBinary bool
	Trace                 bool
	PingTimeout           time.Duration
}

// PrepareDSN validates a connection string in URL or key=value form and
// applies the pooler flag unless the DSN already sets it.
func PrepareDSN(raw string, disablePreparedBinary bool) (string, error) {
	dsn := strings.TrimSpace(raw)
	if dsn == "" {
		return "", errors.New("database url is empty")
	}
	if !disablePreparedBinary {
		return dsn, nil
	}

	if !strings.Contains(dsn, "://") {
		if strings.Contains(dsn, binaryResultFlag+"=") {
			return dsn, nil
		}
		return dsn + " " + binaryResultFlag + "=yes", nil
	}

	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse database url: %w", err)
	}
	q := u.Query()
	if q.Get(binaryResultFlag) == "" {
		q.Set(binaryResultFlag, "yes")
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// Open connects and pings. With Trace set every query becomes an
// OpenTelemetry span carrying the collapsed SQL text.
func Open(ctx context.Context, dsn string, opts OpenOptions) (*sqlx.DB, error) {
	var (
		db  *sqlx.DB
		err error
	)
	if opts.Trace {
		db, err = otelsqlx.Open(driverName, dsn,
			otelsql.WithDBName(databaseName(dsn)),
			otelsql.WithDBSystem("postgresql"),
			otelsql.WithQueryFormatter(traceQuery),
		)
	} else {
		db, err = sqlx.Open(driverName, dsn)
	}
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	timeout := opts.PingTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func databaseName(dsn string) string {
	if u, err := url.Parse(dsn); err == nil && u.Scheme != "" {
		return strings.TrimPrefix(u.Path, "/")
	}
	for _, field := range strings.Fields(dsn) {
		if name, ok := strings.CutPrefix(field, "dbname="); ok {
			return strings.Trim(name, `"'`)
		}
	}
	return ""
}

// traceQuery collapses whitespace so multi-line upserts read as one line
// in the span, cut at maxTracedQuery bytes.
func traceQuery(query string) string {
	q := strings.Join(strings.Fields(query), " ")
	if len(q) <= maxTracedQuery {
		return q
	}
	return q[:maxTracedQuery] + "..."
}
