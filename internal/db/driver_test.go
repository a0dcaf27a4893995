package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
)

// fakeSQL is the shared state behind the registered test driver. Tests set
// it up before exercising the manager or executor.
var fakeSQL struct {
	mu        sync.Mutex
	cols      []string
	rows      [][]driver.Value
	queryErr  error
	affected  int64
	lastQuery string
	lastArgs  []driver.Value
}

func resetFakeSQL() {
	fakeSQL.mu.Lock()
	defer fakeSQL.mu.Unlock()
	fakeSQL.cols = nil
	fakeSQL.rows = nil
	fakeSQL.queryErr = nil
	fakeSQL.affected = 0
	fakeSQL.lastQuery = ""
	fakeSQL.lastArgs = nil
}

type fakeDriver struct{}

func (fakeDriver) Open(name string) (driver.Conn, error) {
	return &fakeConn{}, nil
}

type fakeConn struct{}

func (c *fakeConn) Prepare(query string) (driver.Stmt, error) {
	return nil, errors.New("prepare not supported by fake driver")
}

func (c *fakeConn) Close() error { return nil }

func (c *fakeConn) Begin() (driver.Tx, error) {
	return nil, errors.New("transactions not supported by fake driver")
}

func (c *fakeConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	fakeSQL.mu.Lock()
	defer fakeSQL.mu.Unlock()

	fakeSQL.lastQuery = query
	fakeSQL.lastArgs = nil
	for _, a := range args {
		fakeSQL.lastArgs = append(fakeSQL.lastArgs, a.Value)
	}

	if fakeSQL.queryErr != nil {
		return nil, fakeSQL.queryErr
	}

	rows := make([][]driver.Value, len(fakeSQL.rows))
	copy(rows, fakeSQL.rows)
	return &fakeRows{cols: fakeSQL.cols, rows: rows}, nil
}

func (c *fakeConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	fakeSQL.mu.Lock()
	defer fakeSQL.mu.Unlock()

	fakeSQL.lastQuery = query
	if fakeSQL.queryErr != nil {
		return nil, fakeSQL.queryErr
	}
	return driver.RowsAffected(fakeSQL.affected), nil
}

type fakeRows struct {
	cols []string
	rows [][]driver.Value
	idx  int
}

func (r *fakeRows) Columns() []string { return r.cols }
func (r *fakeRows) Close() error      { return nil }

func (r *fakeRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.idx])
	r.idx++
	return nil
}

func init() {
	sql.Register("fakemysql", fakeDriver{})
}

// stubForwarder stands in for the SSH tunnel.
type stubForwarder struct {
	addr     string
	closes   int
	closeErr error
}

func (s *stubForwarder) Addr() string { return s.addr }

func (s *stubForwarder) Close() error {
	s.closes++
	return s.closeErr
}

type dialRecorder struct {
	dials   int
	dialErr error
	openErr error
	last    *stubForwarder
}

func newTestManager(t *testing.T, rec *dialRecorder) *Manager {
	t.Helper()

	m := &Manager{logger: slog.Default()}
	m.dialTunnel = func() (forwarder, error) {
		if rec.dialErr != nil {
			return nil, rec.dialErr
		}
		rec.dials++
		rec.last = &stubForwarder{addr: "127.0.0.1:3307"}
		return rec.last, nil
	}
	m.openDB = func(addr string) (*sql.DB, error) {
		if rec.openErr != nil {
			return nil, rec.openErr
		}
		return sql.Open("fakemysql", addr)
	}
	return m
}
