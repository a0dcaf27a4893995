package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"

	"revenue-dashboard/internal/config"
)

// settleDelay gives the freshly started forwarder a moment before the first
// database dial goes through it.
const settleDelay = 200 * time.Millisecond

// forwarder is the tunnel as the manager sees it. Narrow so tests can swap
// in a stub.
type forwarder interface {
	Addr() string
	Close() error
}

// Manager owns the process-wide tunnel + database session pair. At most one
// pair is live at a time; tunnel and session are always both present or both
// absent. All opens and closes happen under the same mutex, so concurrent
// callers serialize instead of racing on teardown.
type Manager struct {
	mu     sync.Mutex
	logger *slog.Logger

	tun forwarder
	db  *sql.DB

	dialTunnel func() (forwarder, error)
	openDB     func(addr string) (*sql.DB, error)
}

func NewManager(cfg *config.Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	remoteAddr := net.JoinHostPort(cfg.MySQL.Host, strconv.Itoa(cfg.MySQL.Port))

	m := &Manager{logger: logger}
	m.dialTunnel = func() (forwarder, error) {
		return dialTunnel(cfg.SSH, remoteAddr, cfg.Local.BindPort, logger)
	}
	m.openDB = func(addr string) (*sql.DB, error) {
		return openMySQL(cfg.MySQL, addr)
	}
	return m
}

func openMySQL(cfg config.MySQLConfig, addr string) (*sql.DB, error) {
	dsn := (&mysql.Config{
		User:                 cfg.User,
		Passwd:               cfg.Password,
		Net:                  "tcp",
		Addr:                 addr,
		DBName:               cfg.Database,
		ParseTime:            true,
		AllowNativePasswords: true,
	}).FormatDSN()

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// One logical connection mirrors the single tunneled session.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	return db, nil
}

// Ensure opens the tunnel + database pair unless one is already live.
// Idempotent.
func (m *Manager) Ensure(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ensureLocked(ctx)
}

func (m *Manager) ensureLocked(ctx context.Context) error {
	if m.tun != nil && m.db != nil {
		return nil
	}

	// Never retain a half-open pair.
	m.closeLocked()

	tun, err := m.dialTunnel()
	if err != nil {
		return fmt.Errorf("establish tunnel: %w", err)
	}

	time.Sleep(settleDelay)

	db, err := m.openDB(tun.Addr())
	if err != nil {
		if closeErr := tun.Close(); closeErr != nil {
			m.logger.Warn("tunnel teardown failed", "error", closeErr)
		}
		return fmt.Errorf("open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			m.logger.Warn("database teardown failed", "error", closeErr)
		}
		if closeErr := tun.Close(); closeErr != nil {
			m.logger.Warn("tunnel teardown failed", "error", closeErr)
		}
		return fmt.Errorf("ping database: %w", err)
	}

	m.tun = tun
	m.db = db
	return nil
}

// Close tears down the database session, then the tunnel. Best-effort:
// individual failures are logged as warnings and never block a later Ensure.
// Both handles are reset regardless of partial failure.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeLocked()
}

func (m *Manager) closeLocked() {
	if m.db != nil {
		if err := m.db.Close(); err != nil {
			m.logger.Warn("database teardown failed", "error", err)
		}
	}
	if m.tun != nil {
		if err := m.tun.Close(); err != nil {
			m.logger.Warn("tunnel teardown failed", "error", err)
		}
	}
	m.db = nil
	m.tun = nil
}

// WithFresh runs fn against a connection that was closed and re-opened for
// this call, holding the manager lock for the whole close-open-execute
// sequence. A stale tunnel from a previous call can therefore never serve a
// query, and concurrent callers cannot interleave teardown with use.
func (m *Manager) WithFresh(ctx context.Context, fn func(db *sql.DB) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closeLocked()
	if err := m.ensureLocked(ctx); err != nil {
		return err
	}

	return fn(m.db)
}

// Live reports whether a tunnel + session pair is currently open.
func (m *Manager) Live() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tun != nil && m.db != nil
}
