package cache

import (
	"context"
	"errors"
	"io"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/gridbase/pkg/types"
)

const (
	testDelay = 20 * time.Millisecond
	waitFor   = 2 * time.Second
	tick      = 5 * time.Millisecond
	tableID   = int64(1)
)

var (
	nameCol   = types.Column{ID: 10, TableID: tableID, Name: "Name", Type: types.ColumnText}
	numberCol = types.Column{ID: 11, TableID: tableID, Name: "Number", Type: types.ColumnNumber, Order: 1}
)

// fakeRemote serves a two-row table and records writes.
type fakeRemote struct {
	mu        sync.Mutex
	values    map[[2]int64]types.CellValue
	fetches   int
	writes    []string
	fail      error
	gate      chan struct{} // when set, writes block until it is closed
	fetchGate chan struct{}
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{values: map[[2]int64]types.CellValue{
		{1, nameCol.ID}:   types.Text("Anna"),
		{1, numberCol.ID}: types.Number(1),
		{2, nameCol.ID}:   types.Text("Bob"),
	}}
}

// ListViewPage reads the values when called and replies once fetchGate, if
// set, is closed.
func (f *fakeRemote) ListViewPage(ctx context.Context, userID string, q types.ViewQuery) (*types.Page, error) {
	f.mu.Lock()
	f.fetches++
	gate := f.fetchGate
	page := &types.Page{Columns: []types.Column{nameCol, numberCol}}
	for _, id := range []int64{1, 2} {
		item := types.RowRecord{ID: id, Order: id - 1, Cells: map[int64]types.CellValue{}}
		for _, col := range page.Columns {
			if v, ok := f.values[[2]int64{id, col.ID}]; ok {
				item.Cells[col.ID] = v
			}
		}
		page.Items = append(page.Items, item)
	}
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return page, nil
}

func (f *fakeRemote) UpdateCell(ctx context.Context, userID string, rowID, columnID int64, raw string) (*types.Cell, error) {
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, raw)
	if f.fail != nil {
		return nil, f.fail
	}
	cell := &types.Cell{RowID: rowID, ColumnID: columnID}
	col := nameCol
	if columnID == numberCol.ID {
		col = numberCol
	}
	v, _ := types.ParseCellInput(raw, col.Type, false)
	cell.Value, cell.NumericValue = v.Slots()
	f.values[[2]int64{rowID, columnID}] = v
	return cell, nil
}

func (f *fakeRemote) snapshot() (fetches int, writes []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches, append([]string(nil), f.writes...)
}

func newTestClient(t *testing.T, remote Remote, opts Options) *Client {
	t.Helper()
	if opts.Delay == 0 {
		opts.Delay = testDelay
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	opts.Logger = logrus.NewEntry(l)
	c := New(remote, "alice", opts)
	t.Cleanup(c.Close)
	return c
}

var firstPage = types.ViewQuery{TableID: tableID, Limit: 50}

func cachedValue(t *testing.T, c *Client, rowID int64, col types.Column) types.CellValue {
	t.Helper()
	page, err := c.Page(context.Background(), firstPage)
	require.NoError(t, err)
	for _, item := range page.Items {
		if item.ID == rowID {
			return item.Value(col.ID)
		}
	}
	t.Fatalf("row %d not in page", rowID)
	return types.Empty()
}

func TestPage_Cached(t *testing.T) {
	remote := newFakeRemote()
	c := newTestClient(t, remote, Options{})

	p1, err := c.Page(context.Background(), firstPage)
	require.NoError(t, err)
	p2, err := c.Page(context.Background(), firstPage)
	require.NoError(t, err)
	assert.Equal(t, p1, p2)

	fetches, _ := remote.snapshot()
	assert.Equal(t, 1, fetches)

	// Returned pages are copies.
	p1.Items[0].Cells[nameCol.ID] = types.Text("mutated")
	assert.Equal(t, types.Text("Anna"), cachedValue(t, c, 1, nameCol))
}

func TestPage_ConcurrentMissesShareFetch(t *testing.T) {
	remote := newFakeRemote()
	remote.fetchGate = make(chan struct{})
	c := newTestClient(t, remote, Options{})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Page(context.Background(), firstPage)
			assert.NoError(t, err)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(remote.fetchGate)
	wg.Wait()

	fetches, _ := remote.snapshot()
	assert.Equal(t, 1, fetches)
}

func TestPage_DistinctCursorsAreDistinctEntries(t *testing.T) {
	remote := newFakeRemote()
	c := newTestClient(t, remote, Options{})
	cursor := int64(1)

	_, err := c.Page(context.Background(), firstPage)
	require.NoError(t, err)
	_, err = c.Page(context.Background(), types.ViewQuery{TableID: tableID, Limit: 50, Cursor: &cursor})
	require.NoError(t, err)

	fetches, _ := remote.snapshot()
	assert.Equal(t, 2, fetches)
}

func TestEdit_DebouncesIntoOneWrite(t *testing.T) {
	remote := newFakeRemote()
	c := newTestClient(t, remote, Options{})
	cachedValue(t, c, 1, numberCol)

	for _, raw := range []string{"1", "12", "123"} {
		require.NoError(t, c.Edit(1, numberCol, raw))
	}
	assert.Equal(t, PendingLocal, c.State(1, numberCol.ID))
	assert.Equal(t, types.Number(123), cachedValue(t, c, 1, numberCol))

	assert.Eventually(t, func() bool { return c.State(1, numberCol.ID) == Clean }, waitFor, tick)
	fetches, writes := remote.snapshot()
	assert.Equal(t, []string{"123"}, writes)
	assert.Equal(t, 1, fetches, "ack must not refetch")
	assert.Equal(t, types.Number(123), cachedValue(t, c, 1, numberCol))
}

func TestEdit_SanitizesNumbers(t *testing.T) {
	remote := newFakeRemote()
	c := newTestClient(t, remote, Options{})

	require.NoError(t, c.Edit(1, numberCol, "-1a2.5.0"))
	assert.Eventually(t, func() bool { return c.State(1, numberCol.ID) == Clean }, waitFor, tick)
	_, writes := remote.snapshot()
	assert.Equal(t, []string{"-12.50"}, writes)
}

func TestEdit_ErrorRollsBack(t *testing.T) {
	remote := newFakeRemote()
	remote.fail = errors.New("server down")

	var mu sync.Mutex
	var failed []int64
	c := newTestClient(t, remote, Options{OnError: func(rowID, columnID int64, err error) {
		mu.Lock()
		defer mu.Unlock()
		failed = append(failed, rowID)
	}})
	cachedValue(t, c, 1, nameCol)

	require.NoError(t, c.Edit(1, nameCol, "Zed"))
	assert.Equal(t, types.Text("Zed"), cachedValue(t, c, 1, nameCol))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(failed) == 1
	}, waitFor, tick)
	assert.Eventually(t, func() bool { return c.State(1, nameCol.ID) == Clean }, waitFor, tick)

	// The table was invalidated, so the next read refetches the server value.
	assert.Equal(t, types.Text("Anna"), cachedValue(t, c, 1, nameCol))
	fetches, _ := remote.snapshot()
	assert.Equal(t, 2, fetches)
}

func TestEdit_RollingBackUntilOnErrorReturns(t *testing.T) {
	remote := newFakeRemote()
	remote.fail = errors.New("server down")

	var c *Client
	states := make(chan EditorState, 1)
	values := make(chan types.CellValue, 1)
	c = newTestClient(t, remote, Options{OnError: func(rowID, columnID int64, err error) {
		states <- c.State(rowID, columnID)
		v := types.Empty()
		page, perr := c.Page(context.Background(), firstPage)
		if assert.NoError(t, perr) {
			v = page.Items[0].Value(columnID)
		}
		values <- v
	}})

	require.NoError(t, c.Edit(1, nameCol, "Zed"))
	select {
	case state := <-states:
		assert.Equal(t, RollingBack, state)
	case <-time.After(waitFor):
		t.Fatal("OnError not called")
	}
	// A page read while rolling back shows the server value.
	assert.Equal(t, types.Text("Anna"), <-values)
	assert.Eventually(t, func() bool { return c.State(1, nameCol.ID) == Clean }, waitFor, tick)
}

func TestEdit_DuringRollbackKeepsNewEdit(t *testing.T) {
	remote := newFakeRemote()
	remote.fail = errors.New("server down")

	var c *Client
	c = newTestClient(t, remote, Options{Delay: time.Hour, OnError: func(rowID, columnID int64, err error) {
		assert.NoError(t, c.Edit(rowID, nameCol, "retry"))
	}})

	require.NoError(t, c.Edit(1, nameCol, "Zed"))
	c.mu.Lock()
	ed := c.editors[cellKey{1, nameCol.ID}]
	c.persistLocked(cellKey{1, nameCol.ID}, ed)
	c.mu.Unlock()

	assert.Eventually(t, func() bool { return c.State(1, nameCol.ID) == PendingLocal }, waitFor, tick)
	time.Sleep(5 * tick)
	assert.Equal(t, PendingLocal, c.State(1, nameCol.ID))
	assert.Equal(t, types.Text("retry"), cachedValue(t, c, 1, nameCol))
}

func TestPage_FetchRacingAckIsNotCached(t *testing.T) {
	remote := newFakeRemote()
	remote.fetchGate = make(chan struct{})
	c := newTestClient(t, remote, Options{})

	fetched := make(chan *types.Page, 1)
	go func() {
		page, err := c.Page(context.Background(), firstPage)
		assert.NoError(t, err)
		fetched <- page
	}()
	assert.Eventually(t, func() bool {
		fetches, _ := remote.snapshot()
		return fetches == 1
	}, waitFor, tick)

	// The page was read before this write and is still on its way back.
	require.NoError(t, c.Edit(1, nameCol, "Zed"))
	assert.Eventually(t, func() bool {
		_, writes := remote.snapshot()
		return len(writes) == 1 && c.State(1, nameCol.ID) == Clean
	}, waitFor, tick)

	close(remote.fetchGate)
	stale := <-fetched
	assert.Equal(t, types.Text("Anna"), stale.Items[0].Value(nameCol.ID))

	assert.Equal(t, types.Text("Zed"), cachedValue(t, c, 1, nameCol))
	fetches, _ := remote.snapshot()
	assert.Equal(t, 2, fetches)
}

func TestEdit_DuringFlightSendsLatest(t *testing.T) {
	remote := newFakeRemote()
	remote.gate = make(chan struct{})
	c := newTestClient(t, remote, Options{})
	cachedValue(t, c, 2, nameCol)

	require.NoError(t, c.Edit(2, nameCol, "first"))
	assert.Eventually(t, func() bool { return c.State(2, nameCol.ID) == Persisting }, waitFor, tick)

	require.NoError(t, c.Edit(2, nameCol, "second"))
	assert.Equal(t, PendingLocal, c.State(2, nameCol.ID))
	assert.Equal(t, types.Text("second"), cachedValue(t, c, 2, nameCol))

	close(remote.gate)
	assert.Eventually(t, func() bool { return c.State(2, nameCol.ID) == Clean }, waitFor, tick)
	_, writes := remote.snapshot()
	assert.Equal(t, []string{"first", "second"}, writes)
	assert.Equal(t, types.Text("second"), cachedValue(t, c, 2, nameCol))
}

func TestCancel_DropsPendingEdit(t *testing.T) {
	remote := newFakeRemote()
	c := newTestClient(t, remote, Options{})
	cachedValue(t, c, 1, nameCol)

	require.NoError(t, c.Edit(1, nameCol, "Zed"))
	c.Cancel(1, nameCol.ID)
	assert.Equal(t, Clean, c.State(1, nameCol.ID))
	assert.Equal(t, types.Text("Anna"), cachedValue(t, c, 1, nameCol))

	time.Sleep(5 * testDelay)
	_, writes := remote.snapshot()
	assert.Empty(t, writes)
}

func TestClose_DropsPendingEdits(t *testing.T) {
	remote := newFakeRemote()
	c := newTestClient(t, remote, Options{})

	for i := 0; i < 3; i++ {
		require.NoError(t, c.Edit(1, nameCol, "v"+strconv.Itoa(i)))
	}
	c.Close()
	assert.ErrorIs(t, c.Edit(1, nameCol, "late"), ErrClosed)
	_, err := c.Page(context.Background(), firstPage)
	assert.ErrorIs(t, err, ErrClosed)

	time.Sleep(5 * testDelay)
	_, writes := remote.snapshot()
	assert.Empty(t, writes)
}

func TestInvalidate(t *testing.T) {
	remote := newFakeRemote()
	c := newTestClient(t, remote, Options{})

	cachedValue(t, c, 1, nameCol)
	c.Invalidate(tableID)
	cachedValue(t, c, 1, nameCol)

	fetches, _ := remote.snapshot()
	assert.Equal(t, 2, fetches)
}

func TestPage_FetchAppliesPendingEdits(t *testing.T) {
	remote := newFakeRemote()
	remote.gate = make(chan struct{})
	defer close(remote.gate)
	c := newTestClient(t, remote, Options{Delay: time.Hour})

	require.NoError(t, c.Edit(2, nameCol, "local"))
	assert.Equal(t, types.Text("local"), cachedValue(t, c, 2, nameCol))
}

type fakeGenerator struct {
	res *types.GenerateResult
	err error
}

func (g fakeGenerator) GenerateRows(ctx context.Context, userID string, tableID int64, count int, policy types.BatchPolicy) (*types.GenerateResult, error) {
	return g.res, g.err
}

func TestGenerateRows_Invalidates(t *testing.T) {
	remote := newFakeRemote()
	c := newTestClient(t, remote, Options{})

	cachedValue(t, c, 1, nameCol)
	res, err := c.GenerateRows(context.Background(), fakeGenerator{res: &types.GenerateResult{Count: 5}}, tableID, 5, types.BatchPolicy{})
	require.NoError(t, err)
	assert.Equal(t, 5, res.Count)
	cachedValue(t, c, 1, nameCol)

	// A partial run still drops the pages.
	boom := errors.New("chunk 2 failed")
	_, err = c.GenerateRows(context.Background(), fakeGenerator{res: &types.GenerateResult{Count: 2}, err: boom}, tableID, 5, types.BatchPolicy{})
	require.ErrorIs(t, err, boom)
	cachedValue(t, c, 1, nameCol)

	fetches, _ := remote.snapshot()
	assert.Equal(t, 3, fetches)

	c.Close()
	_, err = c.GenerateRows(context.Background(), fakeGenerator{}, tableID, 5, types.BatchPolicy{})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSanitizeNumericInput(t *testing.T) {
	tests := map[string]string{
		"":          "",
		"123":       "123",
		"-12.5":     "-12.5",
		"1-2":       "12",
		"--3":       "-3",
		"1.2.3":     "1.23",
		"$1,000.50": "1000.50",
		"abc":       "",
		" 4 2 ":     "42",
	}
	for in, want := range tests {
		assert.Equal(t, want, SanitizeNumericInput(in), "input %q", in)
	}
}

func TestEditorStateString(t *testing.T) {
	assert.Equal(t, "clean", Clean.String())
	assert.Equal(t, "pending_local", PendingLocal.String())
	assert.Equal(t, "persisting", Persisting.String())
	assert.Equal(t, "rolling_back", RollingBack.String())
}
