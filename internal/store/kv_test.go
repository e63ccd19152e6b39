package store

import (
	"errors"
	"path/filepath"
	"strconv"
	"testing"
)

func openTestKV(t *testing.T) *KV {
	t.Helper()
	kv, err := Open(filepath.Join(t.TempDir(), "cashbox.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = kv.Close() })
	return kv
}

func TestKV_GetMissing(t *testing.T) {
	kv := openTestKV(t)

	v, ok, err := kv.Get("moneyApp")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok || v != "" {
		t.Fatalf("Get on empty store = (%q, %v), want (\"\", false)", v, ok)
	}
}

func TestKV_SetOverwrites(t *testing.T) {
	kv := openTestKV(t)

	if err := kv.Set("moneyApp", `{"a":1}`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := kv.Set("moneyApp", `{"a":2}`); err != nil {
		t.Fatalf("Set: %v", err)
	}

	v, ok, err := kv.Get("moneyApp")
	if err != nil || !ok {
		t.Fatalf("Get = (%q, %v, %v), want stored value", v, ok, err)
	}
	if v != `{"a":2}` {
		t.Fatalf("Get = %q, want {\"a\":2}", v)
	}

	revs, err := kv.Revisions("moneyApp")
	if err != nil {
		t.Fatalf("Revisions: %v", err)
	}
	if len(revs) != 1 || revs[0].Value != `{"a":1}` {
		t.Fatalf("Revisions = %+v, want the single replaced value", revs)
	}
}

func TestKV_DeleteArchivesValue(t *testing.T) {
	kv := openTestKV(t)

	if err := kv.Set("moneyApp", "x"); err != nil {
		t.Fatal(err)
	}
	if err := kv.Delete("moneyApp"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := kv.Get("moneyApp"); ok {
		t.Fatal("key still present after Delete")
	}
	if err := kv.Delete("moneyApp"); err != nil {
		t.Fatalf("Delete of missing key: %v", err)
	}

	revs, err := kv.Revisions("moneyApp")
	if err != nil {
		t.Fatal(err)
	}
	if len(revs) != 1 || revs[0].Value != "x" {
		t.Fatalf("Revisions = %+v, want deleted value kept", revs)
	}
}

func TestKV_RevisionsBounded(t *testing.T) {
	kv := openTestKV(t)

	for i := 0; i < keepRevisions+5; i++ {
		if err := kv.Set("k", strconv.Itoa(i)); err != nil {
			t.Fatal(err)
		}
	}

	revs, err := kv.Revisions("k")
	if err != nil {
		t.Fatal(err)
	}
	if len(revs) != keepRevisions {
		t.Fatalf("len(Revisions) = %d, want %d", len(revs), keepRevisions)
	}
	want := strconv.Itoa(keepRevisions + 3)
	if revs[0].Value != want {
		t.Fatalf("newest revision = %q, want %q", revs[0].Value, want)
	}
}

func TestKV_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cashbox.db")

	kv, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := kv.Set("moneyApp", "persisted"); err != nil {
		t.Fatal(err)
	}
	_ = kv.Close()

	kv, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = kv.Close() }()

	v, ok, err := kv.Get("moneyApp")
	if err != nil || !ok || v != "persisted" {
		t.Fatalf("Get after reopen = (%q, %v, %v), want persisted", v, ok, err)
	}
}

func TestKV_UndoStepsBack(t *testing.T) {
	kv := openTestKV(t)

	if _, err := kv.Undo("moneyApp"); !errors.Is(err, ErrNoRevision) {
		t.Fatalf("Undo on empty history = %v, want ErrNoRevision", err)
	}

	for _, v := range []string{"one", "two", "three"} {
		if err := kv.Set("moneyApp", v); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}

	rev, err := kv.Undo("moneyApp")
	if err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if rev.Value != "two" {
		t.Fatalf("restored %q, want %q", rev.Value, "two")
	}
	if _, err := kv.Undo("moneyApp"); err != nil {
		t.Fatalf("second Undo: %v", err)
	}

	v, _, _ := kv.Get("moneyApp")
	if v != "one" {
		t.Fatalf("value after two undos = %q, want %q", v, "one")
	}
	if _, err := kv.Undo("moneyApp"); !errors.Is(err, ErrNoRevision) {
		t.Fatalf("third Undo = %v, want ErrNoRevision", err)
	}
}

func TestKV_UndoAfterDelete(t *testing.T) {
	kv := openTestKV(t)
	_ = kv.Set("moneyApp", "kept")
	_ = kv.Delete("moneyApp")

	if _, err := kv.Undo("moneyApp"); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	v, ok, _ := kv.Get("moneyApp")
	if !ok || v != "kept" {
		t.Fatalf("Get after undo = (%q, %v), want (\"kept\", true)", v, ok)
	}
}

func TestMemory(t *testing.T) {
	m := NewMemory()

	if _, ok, _ := m.Get("k"); ok {
		t.Fatal("empty memory store reported a value")
	}
	_ = m.Set("k", "v")
	if v, ok, _ := m.Get("k"); !ok || v != "v" {
		t.Fatalf("Get = (%q, %v), want (v, true)", v, ok)
	}
	_ = m.Delete("k")
	if _, ok, _ := m.Get("k"); ok {
		t.Fatal("value present after Delete")
	}
	if m.Sets() != 1 {
		t.Fatalf("Sets = %d, want 1", m.Sets())
	}
}
