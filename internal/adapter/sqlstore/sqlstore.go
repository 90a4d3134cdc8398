// Package sqlstore implements the domain repositories on a relational
// database. One adapter serves both supported engines: queries are written
// with ? placeholders and rebound per driver, so the repositories never
// depend on an engine's dialect beyond placeholder translation and the
// insert-id idiom.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"microblog/internal/domain"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Supported driver names for Config.Driver.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

func init() {
	// modernc's driver is not in sqlx's default bind table.
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Config selects the engine and connection behaviour. It is resolved once at
// startup and injected; the adapter itself never reads the environment.
type Config struct {
	Driver  string
	DSN     string
	Timeout time.Duration
}

// Store wraps a pooled *sqlx.DB and implements the domain repository ports.
type Store struct {
	db      *sqlx.DB
	driver  string
	timeout time.Duration

	// writeMu serializes mutations on sqlite; the modernc driver does not
	// support concurrent writers. nil on postgres, where the pool and the
	// engine handle concurrency.
	writeMu *sync.Mutex
}

var (
	_ domain.UserRepository  = (*Store)(nil)
	_ domain.PostRepository  = (*Store)(nil)
	_ domain.LikeRepository  = (*Store)(nil)
	_ domain.ReplyRepository = (*Store)(nil)
)

// Open connects to the configured engine, pings it and creates the schema.
func Open(cfg Config) (*Store, error) {
	if cfg.Driver != DriverPostgres && cfg.Driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}

	db, err := sqlx.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}

	s := &Store{db: db, driver: cfg.Driver, timeout: cfg.Timeout}

	switch cfg.Driver {
	case DriverPostgres:
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	case DriverSQLite:
		s.writeMu = new(sync.Mutex)
		if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set busy timeout: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range schema(s.driver) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// opCtx bounds a single store operation by the configured timeout.
func (s *Store) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// storeErr distinguishes a deadline hit from other storage faults.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrStorageTimeout, err)
	}
	return err
}

// isUniqueViolation reports whether err is a unique-constraint failure on
// either engine.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

// insertID runs an INSERT and returns the generated id, using RETURNING on
// postgres and the driver's last-insert-id on sqlite.
func (s *Store) insertID(ctx context.Context, query string, args ...any) (int64, error) {
	if s.driver == DriverPostgres {
		var id int64
		err := s.db.QueryRowxContext(ctx, s.db.Rebind(query+" RETURNING id"), args...).Scan(&id)
		return id, err
	}

	res, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) lockWrites() func() {
	if s.writeMu == nil {
		return func() {}
	}
	s.writeMu.Lock()
	return s.writeMu.Unlock
}

func schema(driver string) []string {
	if driver == DriverPostgres {
		return []string{
			`CREATE TABLE IF NOT EXISTS users (
				id BIGSERIAL PRIMARY KEY,
				username TEXT UNIQUE NOT NULL,
				password_hash TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS posts (
				id BIGSERIAL PRIMARY KEY,
				user_id BIGINT NOT NULL REFERENCES users(id),
				content TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS likes (
				id BIGSERIAL PRIMARY KEY,
				user_id BIGINT NOT NULL REFERENCES users(id),
				post_id BIGINT NOT NULL REFERENCES posts(id),
				created_at TIMESTAMPTZ NOT NULL,
				UNIQUE (user_id, post_id)
			)`,
			`CREATE TABLE IF NOT EXISTS replies (
				id BIGSERIAL PRIMARY KEY,
				user_id BIGINT NOT NULL REFERENCES users(id),
				post_id BIGINT NOT NULL REFERENCES posts(id),
				content TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL
			)`,
			"CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at)",
			"CREATE INDEX IF NOT EXISTS idx_likes_post_id ON likes(post_id)",
			"CREATE INDEX IF NOT EXISTS idx_replies_post_id ON replies(post_id)",
		}
	}

	return []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS posts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL REFERENCES users(id),
			content TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS likes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL REFERENCES users(id),
			post_id INTEGER NOT NULL REFERENCES posts(id),
			created_at TIMESTAMP NOT NULL,
			UNIQUE (user_id, post_id)
		)`,
		`CREATE TABLE IF NOT EXISTS replies (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL REFERENCES users(id),
			post_id INTEGER NOT NULL REFERENCES posts(id),
			content TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		"CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at)",
		"CREATE INDEX IF NOT EXISTS idx_likes_post_id ON likes(post_id)",
		"CREATE INDEX IF NOT EXISTS idx_replies_post_id ON replies(post_id)",
	}
}
