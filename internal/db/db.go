package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

func init() {
	// modernc registers as "sqlite", which sqlx does not know by default.
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS chat (
    chat_id      INTEGER PRIMARY KEY,
    lang         TEXT NOT NULL,
    walk_radius  INTEGER NOT NULL,
    drive_radius INTEGER NOT NULL,
    created_at   TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
);

CREATE TABLE IF NOT EXISTS favorite_list (
    list_id    INTEGER PRIMARY KEY AUTOINCREMENT,
    category   TEXT NOT NULL,
    chat_id    INTEGER NOT NULL REFERENCES chat(chat_id),
    created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
);

CREATE TABLE IF NOT EXISTS restaurant (
    restaurant_id TEXT PRIMARY KEY,
    name          TEXT NOT NULL,
    latitude      REAL NOT NULL,
    longitude     REAL NOT NULL,
    address       TEXT,
    phone         TEXT,
    website       TEXT,
    maps_url      TEXT,
    rating        REAL,
    total_ratings INTEGER,
    price_level   INTEGER CHECK(price_level BETWEEN 0 AND 4 OR price_level IS NULL),
    timetable     TEXT
);

CREATE TABLE IF NOT EXISTS restaurant_for_list (
    list_id       INTEGER NOT NULL REFERENCES favorite_list(list_id),
    restaurant_id TEXT NOT NULL REFERENCES restaurant(restaurant_id),
    added_at      TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
    PRIMARY KEY (list_id, restaurant_id)
);

CREATE INDEX IF NOT EXISTS idx_favorite_list_chat_id ON favorite_list(chat_id);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS chat (
    chat_id      BIGINT PRIMARY KEY,
    lang         TEXT NOT NULL,
    walk_radius  INTEGER NOT NULL,
    drive_radius INTEGER NOT NULL,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS favorite_list (
    list_id    BIGSERIAL PRIMARY KEY,
    category   TEXT NOT NULL,
    chat_id    BIGINT NOT NULL REFERENCES chat(chat_id),
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS restaurant (
    restaurant_id TEXT PRIMARY KEY,
    name          TEXT NOT NULL,
    latitude      DOUBLE PRECISION NOT NULL,
    longitude     DOUBLE PRECISION NOT NULL,
    address       TEXT,
    phone         TEXT,
    website       TEXT,
    maps_url      TEXT,
    rating        DOUBLE PRECISION,
    total_ratings INTEGER,
    price_level   INTEGER CHECK(price_level BETWEEN 0 AND 4 OR price_level IS NULL),
    timetable     TEXT
);

CREATE TABLE IF NOT EXISTS restaurant_for_list (
    list_id       BIGINT NOT NULL REFERENCES favorite_list(list_id),
    restaurant_id TEXT NOT NULL REFERENCES restaurant(restaurant_id),
    added_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (list_id, restaurant_id)
);

CREATE INDEX IF NOT EXISTS idx_favorite_list_chat_id ON favorite_list(chat_id);
`

// Options configures Open.
type Options struct {
	Driver       string // sqlite or postgres
	DSN          string // file path for sqlite
	MaxOpenConns int
	MaxIdleConns int

	// Radii assigned to chats created without explicit values.
	DefaultWalkRadius  int
	DefaultDriveRadius int
}

// Store is the bot repository over sqlite or postgres.
type Store struct {
	db          *sqlx.DB
	driver      string
	walkRadius  int
	driveRadius int
}

// Open connects to the database and initializes the schema.
func Open(ctx context.Context, opts Options) (*Store, error) {
	var (
		dsn    string
		schema string
	)
	switch opts.Driver {
	case DriverSQLite, "":
		opts.Driver = DriverSQLite
		dsn = opts.DSN + "?_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)"
		schema = sqliteSchema
	case DriverPostgres:
		dsn = opts.DSN
		schema = postgresSchema
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}

	db, err := sqlx.ConnectContext(ctx, opts.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if opts.Driver == DriverSQLite {
		// One writer at a time keeps sqlite free of SQLITE_BUSY under concurrent chats.
		db.SetMaxOpenConns(1)
	} else {
		if opts.MaxOpenConns > 0 {
			db.SetMaxOpenConns(opts.MaxOpenConns)
		}
		if opts.MaxIdleConns > 0 {
			db.SetMaxIdleConns(opts.MaxIdleConns)
		}
		db.SetConnMaxLifetime(5 * time.Minute)
		db.SetConnMaxIdleTime(2 * time.Minute)
	}

	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	s := &Store{
		db:          db,
		driver:      opts.Driver,
		walkRadius:  opts.DefaultWalkRadius,
		driveRadius: opts.DefaultDriveRadius,
	}
	if s.walkRadius <= 0 {
		s.walkRadius = 1000
	}
	if s.driveRadius <= 0 {
		s.driveRadius = 10000
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Driver returns the driver name the store was opened with.
func (s *Store) Driver() string {
	return s.driver
}

func (s *Store) rebind(query string) string {
	return s.db.Rebind(query)
}
