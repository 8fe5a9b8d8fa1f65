package storage

import (
	"context"
	"testing"
)

func TestJournal_CommitAndDiscard(t *testing.T) {
	base := NewMemory()
	base.Put([]byte("a"), []byte("1"))

	j := NewJournal(base)
	j.Put([]byte("a"), []byte("2"))
	j.Put([]byte("b"), []byte("3"))

	if v, _ := base.Get([]byte("a")); string(v) != "1" {
		t.Fatalf("base changed before Commit(): %q", v)
	}
	if v, _ := j.Get([]byte("a")); string(v) != "2" {
		t.Fatalf("journal Get() = %q, want 2", v)
	}

	if err := j.Commit(); err != nil {
		t.Fatalf("Commit() error: %v", err)
	}
	if v, _ := base.Get([]byte("a")); string(v) != "2" {
		t.Errorf("base after Commit() = %q, want 2", v)
	}
	if j.Dirty() != 0 {
		t.Errorf("Dirty() after Commit() = %d, want 0", j.Dirty())
	}

	j.Delete([]byte("b"))
	j.Discard()
	if ok, _ := base.Has([]byte("b")); !ok {
		t.Error("discarded delete reached the base")
	}
}

func TestJournal_NestedRevert(t *testing.T) {
	base := NewMemory()
	base.Put([]byte("k"), []byte("base"))
	j := NewJournal(base)

	j.Put([]byte("k"), []byte("outer"))
	outer := j.Checkpoint()

	j.Put([]byte("k"), []byte("inner"))
	j.Put([]byte("n"), []byte("new"))
	inner := j.Checkpoint()
	j.Delete([]byte("k"))

	j.RevertTo(inner)
	if v, _ := j.Get([]byte("k")); string(v) != "inner" {
		t.Errorf("after RevertTo(inner) k = %q, want inner", v)
	}

	j.RevertTo(outer)
	if v, _ := j.Get([]byte("k")); string(v) != "outer" {
		t.Errorf("after RevertTo(outer) k = %q, want outer", v)
	}
	if ok, _ := j.Has([]byte("n")); ok {
		t.Error("n should be gone after RevertTo(outer)")
	}

	j.RevertTo(0)
	if v, _ := j.Get([]byte("k")); string(v) != "base" {
		t.Errorf("after RevertTo(0) k = %q, want base", v)
	}
	if j.Dirty() != 0 {
		t.Errorf("Dirty() after full revert = %d, want 0", j.Dirty())
	}
}

func TestJournal_ForEachMergesOverlay(t *testing.T) {
	base := NewMemory()
	base.Put([]byte("p/a"), []byte("1"))
	base.Put([]byte("p/b"), []byte("2"))

	j := NewJournal(base)
	j.Delete([]byte("p/a"))
	j.Put([]byte("p/c"), []byte("3"))
	j.Put([]byte("q/z"), []byte("9"))

	var got []string
	j.ForEach([]byte("p/"), func(key, value []byte) error {
		got = append(got, string(key)+"="+string(value))
		return nil
	})
	want := []string{"p/b=2", "p/c=3"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("ForEach() = %v, want %v", got, want)
	}
}

func TestScope(t *testing.T) {
	root := NewMemory()
	other := NewMemory()
	j := NewJournal(root)
	ctx := WithJournal(context.Background(), j)

	if Scope(ctx, root) != DB(j) {
		t.Error("Scope() should return the journal for its own base")
	}
	if Scope(ctx, other) != DB(other) {
		t.Error("Scope() should ignore a journal over a different base")
	}
	if Scope(context.Background(), root) != DB(root) {
		t.Error("Scope() without a journal should return root")
	}
}
