package factstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/vaersinsight/vaersinsight/pkg/logging"
	"github.com/vaersinsight/vaersinsight/pkg/models"
)

// Store provides access to the vaers_data fact table
type Store struct {
	db      *sql.DB
	dialect Dialect
	logger  *zap.Logger
}

// Open connects to the fact store and creates the table if it doesn't exist
func Open(ctx context.Context, driver, url string, logger *zap.Logger) (*Store, error) {
	dialect, err := LookupDialect(driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(dialect.Driver, dialect.DSN(url))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := &Store{db: db, dialect: dialect, logger: logging.OrNop(logger)}

	if dialect.Name == "sqlite" {
		// In-memory databases report "memory", file databases should be in WAL mode
		var journalMode string
		if err := db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&journalMode); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to check journal mode: %w", err)
		}
		store.logger.Debug("Opened sqlite fact store", zap.String("journal_mode", journalMode))
	}

	if err := store.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Dialect returns the SQL dialect of the store
func (s *Store) Dialect() Dialect {
	return s.dialect
}

func (s *Store) initSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements(s.dialect) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Append inserts reports in a single transaction and returns the number of rows written
func (s *Store) Append(ctx context.Context, reports []models.Report) (int64, error) {
	if len(reports) == 0 {
		return 0, nil
	}

	var written int64
	err := s.retryOnBusy(func() error {
		n, err := s.appendTx(ctx, reports)
		written = n
		return err
	}, 5)
	if err != nil {
		return 0, err
	}
	return written, nil
}

func (s *Store) appendTx(ctx context.Context, reports []models.Report) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertStatement(s.dialect))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range reports {
		if _, err := stmt.ExecContext(ctx, reportValues(&reports[i])...); err != nil {
			return 0, fmt.Errorf("failed to insert report %s: %w", reports[i].VAERSID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return int64(len(reports)), nil
}

// retryOnBusy retries an operation while SQLite reports the database as locked
func (s *Store) retryOnBusy(operation func() error, maxRetries int) error {
	var err error
	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if s.dialect.Name == "sqlite" && strings.Contains(err.Error(), "SQLITE_BUSY") {
			// Exponential backoff: 10ms, 20ms, 40ms, 80ms, 160ms
			backoff := time.Duration(10*(1<<uint(i))) * time.Millisecond
			s.logger.Warn("Database busy, retrying", zap.Duration("backoff", backoff))
			time.Sleep(backoff)
			continue
		}

		return err
	}
	return fmt.Errorf("operation failed after %d retries: %w", maxRetries, err)
}
