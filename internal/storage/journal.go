package storage

import (
	"context"
	"sort"
	"strings"
)

// Journal is a write overlay on top of a base DB. Writes stay in memory
// until Commit flushes them to the base in one batch. Checkpoint and
// RevertTo give nested save/restore points inside a single operation.
//
// A Journal is not safe for concurrent use; callers serialize access.
type Journal struct {
	base    DB
	overlay map[string]overlayEntry
	undo    []undoEntry
}

type overlayEntry struct {
	value   []byte
	deleted bool
}

// undoEntry restores key to prev; had=false means key was absent from
// the overlay before the write.
type undoEntry struct {
	key  string
	prev overlayEntry
	had  bool
}

// NewJournal creates an empty journal over base.
func NewJournal(base DB) *Journal {
	return &Journal{base: base, overlay: make(map[string]overlayEntry)}
}

// Base returns the DB the journal commits to.
func (j *Journal) Base() DB {
	return j.base
}

// Get returns the overlay value for key, falling back to the base.
func (j *Journal) Get(key []byte) ([]byte, error) {
	if e, ok := j.overlay[string(key)]; ok {
		if e.deleted {
			return nil, ErrNotFound
		}
		return cloneBytes(e.value), nil
	}
	return j.base.Get(key)
}

// Put records a write in the overlay.
func (j *Journal) Put(key, value []byte) error {
	j.set(string(key), overlayEntry{value: cloneBytes(value)})
	return nil
}

// Delete records a delete in the overlay.
func (j *Journal) Delete(key []byte) error {
	j.set(string(key), overlayEntry{deleted: true})
	return nil
}

func (j *Journal) set(k string, e overlayEntry) {
	prev, had := j.overlay[k]
	j.undo = append(j.undo, undoEntry{key: k, prev: prev, had: had})
	j.overlay[k] = e
}

// Has checks if key exists in the overlay or the base.
func (j *Journal) Has(key []byte) (bool, error) {
	if e, ok := j.overlay[string(key)]; ok {
		return !e.deleted, nil
	}
	return j.base.Has(key)
}

// ForEach merges base and overlay entries under prefix and visits them in
// ascending key order.
func (j *Journal) ForEach(prefix []byte, fn func(key, value []byte) error) error {
	merged := make(map[string][]byte)
	err := j.base.ForEach(prefix, func(key, value []byte) error {
		merged[string(key)] = cloneBytes(value)
		return nil
	})
	if err != nil {
		return err
	}
	p := string(prefix)
	for k, e := range j.overlay {
		if !strings.HasPrefix(k, p) {
			continue
		}
		if e.deleted {
			delete(merged, k)
		} else {
			merged[k] = cloneBytes(e.value)
		}
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := fn([]byte(k), merged[k]); err != nil {
			return err
		}
	}
	return nil
}

// Close is a no-op; the base DB manages its own lifecycle.
func (j *Journal) Close() error {
	return nil
}

// Checkpoint returns a revision that RevertTo can roll back to.
func (j *Journal) Checkpoint() int {
	return len(j.undo)
}

// RevertTo undoes every write made after the checkpoint rev.
func (j *Journal) RevertTo(rev int) {
	if rev < 0 {
		rev = 0
	}
	for i := len(j.undo) - 1; i >= rev; i-- {
		u := j.undo[i]
		if u.had {
			j.overlay[u.key] = u.prev
		} else {
			delete(j.overlay, u.key)
		}
	}
	if rev < len(j.undo) {
		j.undo = j.undo[:rev]
	}
}

// Dirty returns the number of keys with pending writes.
func (j *Journal) Dirty() int {
	return len(j.overlay)
}

// Commit writes every pending change to the base in one batch and clears
// the journal. Keys are written in sorted order.
func (j *Journal) Commit() error {
	if len(j.overlay) == 0 {
		j.undo = nil
		return nil
	}
	keys := make([]string, 0, len(j.overlay))
	for k := range j.overlay {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	batch := NewBatch(j.base)
	for _, k := range keys {
		e := j.overlay[k]
		var err error
		if e.deleted {
			err = batch.Delete([]byte(k))
		} else {
			err = batch.Put([]byte(k), e.value)
		}
		if err != nil {
			return err
		}
	}
	if err := batch.Commit(); err != nil {
		return err
	}
	j.Discard()
	return nil
}

// Discard drops every pending change.
func (j *Journal) Discard() {
	j.overlay = make(map[string]overlayEntry)
	j.undo = nil
}

type journalKey struct{}

// WithJournal returns a context carrying j.
func WithJournal(ctx context.Context, j *Journal) context.Context {
	return context.WithValue(ctx, journalKey{}, j)
}

// JournalFrom returns the journal carried by ctx, if any.
func JournalFrom(ctx context.Context) (*Journal, bool) {
	if ctx == nil {
		return nil, false
	}
	j, ok := ctx.Value(journalKey{}).(*Journal)
	return j, ok
}

// Scope returns the journal carried by ctx when it sits on top of root,
// and root itself otherwise. Components that share one root DB call it so
// that every write of an operation lands in the same journal.
func Scope(ctx context.Context, root DB) DB {
	if j, ok := JournalFrom(ctx); ok && j.base == root {
		return j
	}
	return root
}
