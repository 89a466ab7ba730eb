package store

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/kidsync/internal/logging"
	"github.com/dmitrijs2005/kidsync/internal/models"
	"github.com/dmitrijs2005/kidsync/internal/observable"
)

// BoundaryCallback is told when a paged list runs out of local data so it
// can fetch more upstream.
type BoundaryCallback interface {
	// OnZeroItemsLoaded fires once, the first time the list loads empty.
	OnZeroItemsLoaded()
	// OnItemAtEndLoaded fires when the consumer reaches the last stored item.
	OnItemAtEndLoaded(last models.Record)
}

// PagedList is a window over all records in insertion order. It grows a
// page at a time as the consumer reads towards its end and reloads itself
// when the store changes.
type PagedList struct {
	store    *Store
	pageSize int
	cb       BoundaryCallback
	log      logging.Logger

	mu        sync.Mutex
	items     []models.Record
	zeroFired bool

	updates *observable.Value[[]models.Record]
	stop    func()
	done    chan struct{}
}

// NewPagedList creates a list that follows store changes until ctx is done
// or Close is called. cb may be nil. Call Load to fetch the first window.
func (s *Store) NewPagedList(ctx context.Context, pageSize int, cb BoundaryCallback) *PagedList {
	if pageSize < 1 {
		pageSize = 20
	}
	l := &PagedList{
		store:    s,
		pageSize: pageSize,
		cb:       cb,
		log:      s.log.With("component", "paged_list"),
		updates:  observable.New[[]models.Record](nil),
		done:     make(chan struct{}),
	}

	changes, cancel := s.Subscribe(16)
	l.stop = cancel
	go l.follow(ctx, changes)
	return l
}

func (l *PagedList) follow(ctx context.Context, changes <-chan Change) {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			l.stop()
			return
		case ch, ok := <-changes:
			if !ok {
				return
			}
			if err := l.refresh(ctx, ch.Reset); err != nil {
				l.log.Warn(ctx, "refresh failed", "error", err)
			}
		}
	}
}

// Load fetches the first window. An empty store triggers OnZeroItemsLoaded
// the first time only.
func (l *PagedList) Load(ctx context.Context) error {
	items, err := l.store.List(ctx, 0, l.pageSize)
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.items = items
	fireZero := len(items) == 0 && !l.zeroFired
	if fireZero {
		l.zeroFired = true
	}
	snapshot := l.snapshotLocked()
	l.mu.Unlock()

	l.updates.Set(snapshot)
	if fireZero && l.cb != nil {
		l.cb.OnZeroItemsLoaded()
	}
	return nil
}

// refresh reloads the current window size from the top. After a reset the
// zero-items notification is re-armed.
func (l *PagedList) refresh(ctx context.Context, reset bool) error {
	l.mu.Lock()
	size := max(len(l.items), l.pageSize)
	if reset {
		size = l.pageSize
		l.zeroFired = false
	}
	l.mu.Unlock()

	items, err := l.store.List(ctx, 0, size)
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.items = items
	fireZero := reset && len(items) == 0 && !l.zeroFired
	if fireZero {
		l.zeroFired = true
	}
	snapshot := l.snapshotLocked()
	l.mu.Unlock()

	l.updates.Set(snapshot)
	if fireZero && l.cb != nil {
		l.cb.OnZeroItemsLoaded()
	}
	return nil
}

// ItemVisible tells the list the consumer displayed item index. Reaching the
// last loaded item loads the next window from the store; when the store has
// nothing more, OnItemAtEndLoaded fires with that last item.
func (l *PagedList) ItemVisible(ctx context.Context, index int) error {
	l.mu.Lock()
	n := len(l.items)
	l.mu.Unlock()

	if n == 0 || index < n-1 {
		return nil
	}

	grew, err := l.Grow(ctx)
	if err != nil || grew {
		return err
	}

	l.mu.Lock()
	if len(l.items) == 0 {
		l.mu.Unlock()
		return nil
	}
	last := l.items[len(l.items)-1]
	l.mu.Unlock()

	if l.cb != nil {
		l.cb.OnItemAtEndLoaded(last)
	}
	return nil
}

// Grow appends the next window of stored rows without notifying the
// boundary callback. It reports whether the list got longer.
func (l *PagedList) Grow(ctx context.Context) (bool, error) {
	l.mu.Lock()
	n := len(l.items)
	l.mu.Unlock()

	more, err := l.store.List(ctx, n, l.pageSize)
	if err != nil {
		return false, err
	}

	l.mu.Lock()
	if len(more) > 0 && len(l.items) == n {
		l.items = append(l.items, more...)
	}
	grew := len(l.items) > n
	snapshot := l.snapshotLocked()
	l.mu.Unlock()

	if grew {
		l.updates.Set(snapshot)
	}
	return grew, nil
}

func (l *PagedList) snapshotLocked() []models.Record {
	out := make([]models.Record, len(l.items))
	copy(out, l.items)
	return out
}

// Items returns a copy of the loaded window.
func (l *PagedList) Items() []models.Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

func (l *PagedList) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// Updates streams the window after every load, growth or refresh.
func (l *PagedList) Updates(buffer int) (<-chan []models.Record, func()) {
	return l.updates.Subscribe(buffer)
}

// Close stops following the store and closes update subscribers.
func (l *PagedList) Close() {
	l.stop()
	<-l.done
	l.updates.Close()
}
