package storage

import (
	"testing"
)

func TestPrefixDB(t *testing.T) {
	testDB(t, NewPrefixDB(NewMemory(), []byte("ns1/")))
}

func TestPrefixDB_Isolation(t *testing.T) {
	inner := NewMemory()
	dbA := NewPrefixDB(inner, []byte("a/"))
	dbB := NewPrefixDB(inner, []byte("b/"))

	dbA.Put([]byte("key"), []byte("fromA"))
	dbB.Put([]byte("key"), []byte("fromB"))

	got, err := dbA.Get([]byte("key"))
	if err != nil {
		t.Fatalf("A.Get() error: %v", err)
	}
	if string(got) != "fromA" {
		t.Errorf("A.Get() = %q, want fromA", got)
	}

	raw, err := inner.Get([]byte("b/key"))
	if err != nil {
		t.Fatalf("inner.Get(b/key) error: %v", err)
	}
	if string(raw) != "fromB" {
		t.Errorf("inner b/key = %q, want fromB", raw)
	}
}

func TestPrefixDB_ForEachStripsPrefix(t *testing.T) {
	inner := NewMemory()
	db := NewPrefixDB(inner, []byte("ns/"))
	db.Put([]byte("n/1"), []byte("x"))
	inner.Put([]byte("other/n/1"), []byte("y"))

	var keys []string
	db.ForEach([]byte("n/"), func(key, _ []byte) error {
		keys = append(keys, string(key))
		return nil
	})
	if len(keys) != 1 || keys[0] != "n/1" {
		t.Errorf("ForEach keys = %v, want [n/1]", keys)
	}
}

func TestPrefixDB_DeleteAll(t *testing.T) {
	inner := NewMemory()
	db := NewPrefixDB(inner, []byte("L/"))
	db.Put([]byte("a"), []byte("1"))
	db.Put([]byte("b"), []byte("2"))
	inner.Put([]byte("B/keep"), []byte("3"))

	if err := db.DeleteAll(); err != nil {
		t.Fatalf("DeleteAll() error: %v", err)
	}
	if inner.Len() != 1 {
		t.Errorf("inner Len() = %d, want 1", inner.Len())
	}
	if ok, _ := inner.Has([]byte("B/keep")); !ok {
		t.Error("DeleteAll() removed a key outside its namespace")
	}
}

func TestPrefixDB_BatchUsesInner(t *testing.T) {
	inner := NewMemory()
	db := NewPrefixDB(inner, []byte("T/"))

	b := db.NewBatch()
	if _, ok := b.(*prefixBatch); !ok {
		t.Fatalf("NewBatch() = %T, want *prefixBatch", b)
	}
	b.Put([]byte("x"), []byte("1"))
	if err := b.Commit(); err != nil {
		t.Fatalf("Commit() error: %v", err)
	}
	if v, _ := inner.Get([]byte("T/x")); string(v) != "1" {
		t.Errorf("inner T/x = %q, want 1", v)
	}

	// A journal has no batch support, so the fallback is used.
	jb := NewPrefixDB(NewJournal(inner), []byte("T/")).NewBatch()
	if _, ok := jb.(*fallbackBatch); !ok {
		t.Errorf("NewBatch() over journal = %T, want *fallbackBatch", jb)
	}
}
