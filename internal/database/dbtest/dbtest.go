// Package dbtest provides an in-memory database/sql connector for tests.
package dbtest

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"sync"
)

var errNotSupported = errors.New("dbtest: not supported")

// Connector serves a fixed result set for every query.
// Set the error fields to simulate failures at each stage.
type Connector struct {
	Columns []string
	Rows    [][]driver.Value

	ConnectErr error
	PingErr    error
	QueryErr   error
	// RowErr is returned from the row iterator after FailAfter rows
	RowErr    error
	FailAfter int

	mu      sync.Mutex
	queries []string
	open    int
}

// Open returns a pool backed by c
func (c *Connector) Open() *sql.DB {
	return sql.OpenDB(c)
}

// Connect implements driver.Connector
func (c *Connector) Connect(ctx context.Context) (driver.Conn, error) {
	if c.ConnectErr != nil {
		return nil, c.ConnectErr
	}
	c.mu.Lock()
	c.open++
	c.mu.Unlock()
	return &conn{c: c}, nil
}

// Driver implements driver.Connector
func (c *Connector) Driver() driver.Driver {
	return fakeDriver{c: c}
}

// Queries returns the statements executed so far
func (c *Connector) Queries() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.queries...)
}

// OpenConns returns the number of driver connections not yet closed
func (c *Connector) OpenConns() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

type fakeDriver struct {
	c *Connector
}

func (d fakeDriver) Open(name string) (driver.Conn, error) {
	return d.c.Connect(context.Background())
}

type conn struct {
	c      *Connector
	closed bool
}

func (cn *conn) Prepare(query string) (driver.Stmt, error) {
	return nil, errNotSupported
}

func (cn *conn) Close() error {
	if cn.closed {
		return nil
	}
	cn.closed = true
	cn.c.mu.Lock()
	cn.c.open--
	cn.c.mu.Unlock()
	return nil
}

func (cn *conn) Begin() (driver.Tx, error) {
	return nil, errNotSupported
}

func (cn *conn) Ping(ctx context.Context) error {
	return cn.c.PingErr
}

func (cn *conn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cn.c.mu.Lock()
	cn.c.queries = append(cn.c.queries, query)
	cn.c.mu.Unlock()

	if cn.c.QueryErr != nil {
		return nil, cn.c.QueryErr
	}
	return &rows{c: cn.c}, nil
}

type rows struct {
	c   *Connector
	pos int
}

func (r *rows) Columns() []string {
	return r.c.Columns
}

func (r *rows) Close() error {
	return nil
}

func (r *rows) Next(dest []driver.Value) error {
	if r.c.RowErr != nil && r.pos >= r.c.FailAfter {
		return r.c.RowErr
	}
	if r.pos >= len(r.c.Rows) {
		return io.EOF
	}
	copy(dest, r.c.Rows[r.pos])
	r.pos++
	return nil
}
