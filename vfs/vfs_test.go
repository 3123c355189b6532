package vfs

import (
	"context"
	"testing"
	"time"
)

func TestNormalizeTrimsLeadingDotSlashAndSlashes(t *testing.T) {
	cases := map[string]string{
		"./foo/bar":  "foo/bar",
		"/foo/bar/":  "foo/bar",
		"foo":        "foo",
		"./foo/":     "foo",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestVFSWriteThenReadText(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	v := New(ctx, NewMemoryBackend())
	defer v.Stop()

	v.WriteText(ctx, "./notes/a.txt", "hello")
	time.Sleep(5 * time.Millisecond)

	content, found, err := v.ReadText(ctx, "notes/a.txt")
	if err != nil {
		t.Fatalf("ReadText: %v", err)
	}
	if !found || content != "hello" {
		t.Fatalf("got (%q, %v), want (hello, true)", content, found)
	}
}

func TestVFSReadMissingIsNotFound(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	v := New(ctx, NewMemoryBackend())
	defer v.Stop()

	_, found, err := v.ReadText(ctx, "missing.txt")
	if err != nil {
		t.Fatalf("ReadText: %v", err)
	}
	if found {
		t.Fatal("expected found=false")
	}
}

func TestVFSExistsAndDelete(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	v := New(ctx, NewMemoryBackend())
	defer v.Stop()

	v.WriteText(ctx, "a.txt", "x")
	time.Sleep(5 * time.Millisecond)

	ok, _ := v.Exists(ctx, "a.txt")
	if !ok {
		t.Fatal("expected exists=true")
	}

	deleted, _ := v.Delete(ctx, "a.txt")
	if !deleted {
		t.Fatal("expected delete to report true")
	}

	ok, _ = v.Exists(ctx, "a.txt")
	if ok {
		t.Fatal("expected exists=false after delete")
	}
}

func TestVFSListDirectory(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	v := New(ctx, NewMemoryBackend())
	defer v.Stop()

	v.WriteText(ctx, "dir/a.txt", "1")
	v.WriteText(ctx, "dir/b.txt", "2")
	v.WriteText(ctx, "dir/sub/c.txt", "3")
	time.Sleep(5 * time.Millisecond)

	entries, err := v.ListDirectory(ctx, "dir")
	if err != nil {
		t.Fatalf("ListDirectory: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %v, want 3 entries (a.txt, b.txt, sub)", entries)
	}
}
