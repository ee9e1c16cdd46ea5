// Package cache keeps a client-side cache of table pages consistent with
// optimistic, debounced cell edits.
//
// Edits are applied to every cached page holding the row as soon as they
// are made. The write to the server is delayed until the cell has been
// idle for the debounce delay, so a burst of keystrokes sends one request.
// A successful write needs no refetch. A failed write restores the value
// the cell had before the edit and drops the table's cached pages so the
// next read comes from the server.
//
// Writes made around the client are not seen until the table is
// invalidated. Client.GenerateRows invalidates after a bulk insert; other
// writers call Invalidate themselves.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/mesh-intelligence/gridbase/pkg/types"
)

// Defaults for Options.
const (
	DefaultDelay   = 500 * time.Millisecond
	DefaultTimeout = 10 * time.Second
)

// Remote is the part of the engine the cache talks to.
type Remote interface {
	ListViewPage(ctx context.Context, userID string, q types.ViewQuery) (*types.Page, error)
	UpdateCell(ctx context.Context, userID string, rowID, columnID int64, raw string) (*types.Cell, error)
}

// Generator is the part of the engine that bulk-inserts rows.
type Generator interface {
	GenerateRows(ctx context.Context, userID string, tableID int64, count int, policy types.BatchPolicy) (*types.GenerateResult, error)
}

// Options configures a Client. Zero fields take defaults.
type Options struct {
	Delay   time.Duration // idle time before an edit is written
	Timeout time.Duration // per-write timeout
	Logger  *logrus.Entry

	// OnError is called after a failed write has been rolled back.
	OnError func(rowID, columnID int64, err error)
}

// Client caches pages for one user and owns that user's pending edits.
// It is safe for concurrent use.
type Client struct {
	remote  Remote
	userID  string
	opts    Options
	log     *logrus.Entry
	group   singleflight.Group
	ctx     context.Context
	cancel  context.CancelFunc
	session string

	mu      sync.Mutex
	pages   map[string]*entry
	epochs  map[int64]uint64 // bumped by Invalidate and by acked writes
	editors map[cellKey]*editor
	closed  bool
}

type entry struct {
	tableID int64
	page    *types.Page
}

type cellKey struct {
	rowID, columnID int64
}

type editor struct {
	column   types.Column
	state    EditorState
	raw      string          // latest local input
	gen      uint64          // bumped on every edit
	snapshot types.CellValue // server value before the optimistic edits
	inflight bool
	sent     uint64 // gen of the write in flight
	sentRaw  string
	queued   bool // timer fired while a write was in flight
	debounce func(func())
}

// New returns a client for userID.
func New(remote Remote, userID string, opts Options) *Client {
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	session := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		remote:  remote,
		userID:  userID,
		opts:    opts,
		log:     opts.Logger.WithFields(logrus.Fields{"session": session, "user": userID}),
		ctx:     ctx,
		cancel:  cancel,
		session: session,
		pages:   make(map[string]*entry),
		epochs:  make(map[int64]uint64),
		editors: make(map[cellKey]*editor),
	}
}

// Session identifies this client in logs.
func (c *Client) Session() string { return c.session }

func pageKey(q types.ViewQuery) string {
	if q.Cursor == nil {
		return q.Key() + ";c=-"
	}
	return fmt.Sprintf("%s;c=%d", q.Key(), *q.Cursor)
}

// Page returns the page for q from the cache, fetching it on a miss.
// Concurrent misses for the same page share one fetch. Pending local edits
// are applied to fetched pages.
func (c *Client) Page(ctx context.Context, q types.ViewQuery) (*types.Page, error) {
	key := pageKey(q)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if e, ok := c.pages[key]; ok {
		page := clonePage(e.page)
		c.mu.Unlock()
		return page, nil
	}
	epoch := c.epochs[q.TableID]
	c.mu.Unlock()

	v, err, _ := c.group.Do(key, func() (any, error) {
		return c.remote.ListViewPage(ctx, c.userID, q)
	})
	if err != nil {
		return nil, err
	}
	fetched := clonePage(v.(*types.Page))

	c.mu.Lock()
	defer c.mu.Unlock()
	for k, ed := range c.editors {
		if ed.column.TableID == q.TableID && (ed.state == PendingLocal || ed.state == Persisting) {
			setValue(fetched, k, c.optimistic(ed))
		}
	}
	if !c.closed && c.epochs[q.TableID] == epoch {
		c.pages[key] = &entry{tableID: q.TableID, page: fetched}
	}
	return clonePage(fetched), nil
}

// Invalidate drops every cached page of the table.
func (c *Client) Invalidate(tableID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidateLocked(tableID)
}

func (c *Client) invalidateLocked(tableID int64) {
	c.epochs[tableID]++
	for k, e := range c.pages {
		if e.tableID == tableID {
			delete(c.pages, k)
		}
	}
}

// GenerateRows bulk-inserts rows through g and then drops the table's
// cached pages. Pages are dropped on error too, since chunks before the
// failing one stay committed.
func (c *Client) GenerateRows(ctx context.Context, g Generator, tableID int64, count int, policy types.BatchPolicy) (*types.GenerateResult, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}
	res, err := g.GenerateRows(ctx, c.userID, tableID, count, policy)
	c.Invalidate(tableID)
	return res, err
}

// Edit records raw as the new local value of the cell and applies it to
// the cached pages. The write is sent once the cell has been idle for the
// debounce delay. NUMBER input is sanitized first.
func (c *Client) Edit(rowID int64, column types.Column, raw string) error {
	if column.Type == types.ColumnNumber {
		raw = SanitizeNumericInput(raw)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	key := cellKey{rowID, column.ID}
	ed, ok := c.editors[key]
	if !ok {
		ed = &editor{
			column:   column,
			snapshot: c.cachedValueLocked(column.TableID, key),
			debounce: debounce.New(c.opts.Delay),
		}
		c.editors[key] = ed
	}
	ed.gen++
	ed.raw = raw
	ed.state = PendingLocal
	c.applyLocked(column.TableID, key, c.optimistic(ed))

	ed.debounce(func() { c.fire(key, ed) })
	return nil
}

// optimistic is the value shown while an edit is pending.
func (c *Client) optimistic(ed *editor) types.CellValue {
	v, err := types.ParseCellInput(ed.raw, ed.column.Type, false)
	if err != nil {
		return types.Empty()
	}
	return v
}

// fire runs when the debounce timer expires.
func (c *Client) fire(key cellKey, ed *editor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.editors[key] != ed || ed.state != PendingLocal {
		return
	}
	if ed.inflight {
		ed.queued = true
		return
	}
	c.persistLocked(key, ed)
}

func (c *Client) persistLocked(key cellKey, ed *editor) {
	gen, raw := ed.gen, ed.raw
	ed.state = Persisting
	ed.inflight = true
	ed.sent, ed.sentRaw = gen, raw

	go func() {
		ctx, cancel := context.WithTimeout(c.ctx, c.opts.Timeout)
		defer cancel()
		cell, err := c.remote.UpdateCell(ctx, c.userID, key.rowID, key.columnID, raw)
		c.complete(key, ed, gen, cell, err)
	}()
}

func (c *Client) complete(key cellKey, ed *editor, gen uint64, cell *types.Cell, err error) {
	c.mu.Lock()
	ed.inflight = false
	if c.closed || c.editors[key] != ed {
		c.mu.Unlock()
		return
	}
	tableID := ed.column.TableID
	newer := ed.gen != gen

	if err == nil {
		acked := types.ReadTypedValue(*cell, ed.column)
		// A page fetch started before the ack may hold the old value.
		c.epochs[tableID]++
		if !newer {
			delete(c.editors, key)
			ed.state = Clean
			c.applyLocked(tableID, key, acked)
			c.mu.Unlock()
			return
		}
		// A newer edit is pending; it now rolls back to the acked value.
		ed.snapshot = acked
		if ed.queued {
			ed.queued = false
			c.persistLocked(key, ed)
		}
		c.mu.Unlock()
		return
	}

	log := c.log.WithError(err).WithFields(logrus.Fields{"row": key.rowID, "column": key.columnID})
	if newer {
		// Keep the newer local value; its own write decides the outcome.
		log.Warn("cell write failed; newer edit pending")
		c.invalidateLocked(tableID)
		if ed.queued {
			ed.queued = false
			c.persistLocked(key, ed)
		}
		c.mu.Unlock()
		return
	}

	ed.state = RollingBack
	log.Warn("cell write failed; rolling back")
	c.applyLocked(tableID, key, ed.snapshot)
	c.invalidateLocked(tableID)
	onError := c.opts.OnError
	c.mu.Unlock()

	if onError != nil {
		onError(key.rowID, key.columnID, err)
	}

	// An edit made during OnError keeps the editor.
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.editors[key] == ed && ed.state == RollingBack {
		delete(c.editors, key)
		ed.state = Clean
	}
}

// State returns the editor state of the cell.
func (c *Client) State(rowID, columnID int64) EditorState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ed, ok := c.editors[cellKey{rowID, columnID}]; ok {
		return ed.state
	}
	return Clean
}

// Cancel drops the cell's pending edit without writing it and restores the
// cached value. A write already in flight still completes.
func (c *Client) Cancel(rowID, columnID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cellKey{rowID, columnID}
	ed, ok := c.editors[key]
	if !ok || ed.state != PendingLocal {
		return
	}
	ed.queued = false
	if ed.inflight {
		// The in-flight write becomes the latest edit again.
		ed.gen, ed.raw = ed.sent, ed.sentRaw
		ed.state = Persisting
		c.applyLocked(ed.column.TableID, key, c.optimistic(ed))
		return
	}
	delete(c.editors, key)
	c.applyLocked(ed.column.TableID, key, ed.snapshot)
}

// Close drops every pending edit without writing it and cancels writes in
// flight. The client cannot be used afterwards.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.editors = make(map[cellKey]*editor)
	c.pages = make(map[string]*entry)
	c.cancel()
}

func (c *Client) cachedValueLocked(tableID int64, key cellKey) types.CellValue {
	for _, e := range c.pages {
		if e.tableID != tableID {
			continue
		}
		for _, item := range e.page.Items {
			if item.ID == key.rowID {
				return item.Value(key.columnID)
			}
		}
	}
	return types.Empty()
}

func (c *Client) applyLocked(tableID int64, key cellKey, v types.CellValue) {
	for _, e := range c.pages {
		if e.tableID == tableID {
			setValue(e.page, key, v)
		}
	}
}

func setValue(p *types.Page, key cellKey, v types.CellValue) {
	for i := range p.Items {
		item := &p.Items[i]
		if item.ID != key.rowID {
			continue
		}
		if v.IsEmpty() {
			delete(item.Cells, key.columnID)
		} else {
			if item.Cells == nil {
				item.Cells = make(map[int64]types.CellValue)
			}
			item.Cells[key.columnID] = v
		}
	}
}

func clonePage(p *types.Page) *types.Page {
	out := *p
	out.Items = make([]types.RowRecord, len(p.Items))
	for i, item := range p.Items {
		cells := make(map[int64]types.CellValue, len(item.Cells))
		for k, v := range item.Cells {
			cells[k] = v
		}
		item.Cells = cells
		out.Items[i] = item
	}
	out.Columns = append([]types.Column(nil), p.Columns...)
	if p.NextCursor != nil {
		next := *p.NextCursor
		out.NextCursor = &next
	}
	return &out
}
