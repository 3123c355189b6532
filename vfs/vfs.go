// Package vfs implements the virtual filesystem actor: read_text,
// write_text (fire-and-forget), exists, delete, list_directory, per
// spec.md §6. Paths are normalized by trimming a leading "./" and
// surrounding slashes before reaching the backing store.
//
// Grounded on the same actor request/reply shape as storage.ConstructStorage
// (itself grounded on examples/cli-tasks/storage/storage.go's
// Storage-interface + in-memory test double), generalized to a tree of
// paths instead of a flat id->json map.
package vfs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/boonlang/boon-runtime/actor"
)

// Normalize trims a leading "./" and surrounding slashes from path, per
// spec.md §6.
func Normalize(path string) string {
	p := strings.TrimPrefix(path, "./")
	p = strings.Trim(p, "/")
	return p
}

// Backend is the abstract storage the VFS actor delegates to.
type Backend interface {
	ReadText(path string) (string, bool, error)
	WriteText(path string, content string) error
	Exists(path string) (bool, error)
	Delete(path string) (bool, error)
	ListDirectory(path string) ([]string, error)
}

type readReq struct {
	path  string
	reply chan readReply
}
type readReply struct {
	content string
	found   bool
	err     error
}

type writeReq struct {
	path    string
	content string
}

type existsReq struct {
	path  string
	reply chan existsReply
}
type existsReply struct {
	ok  bool
	err error
}

type deleteReq struct {
	path  string
	reply chan existsReply
}

type listReq struct {
	path  string
	reply chan listReply
}
type listReply struct {
	entries []string
	err     error
}

// VFS is the actor wrapping a Backend.
type VFS struct {
	backend  Backend
	readCh   chan readReq
	writeCh  chan writeReq
	existsCh chan existsReq
	deleteCh chan deleteReq
	listCh   chan listReq
	loop     *actor.ActorLoop
}

// New starts a VFS actor wrapping backend.
func New(ctx context.Context, backend Backend) *VFS {
	v := &VFS{
		backend:  backend,
		readCh:   make(chan readReq),
		writeCh:  make(chan writeReq, 64),
		existsCh: make(chan existsReq),
		deleteCh: make(chan deleteReq),
		listCh:   make(chan listReq),
	}
	v.loop = actor.NewActorLoop(ctx, "vfs", nil, v.run)
	return v
}

func (v *VFS) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-v.readCh:
			content, found, err := v.backend.ReadText(Normalize(req.path))
			req.reply <- readReply{content: content, found: found, err: err}
		case req := <-v.writeCh:
			// Fire-and-forget: errors are swallowed per spec.md §6, but
			// logged would be ideal if this actor carried a logger; kept
			// silent to match the teacher's minimal background-loop style.
			_ = v.backend.WriteText(Normalize(req.path), req.content)
		case req := <-v.existsCh:
			ok, err := v.backend.Exists(Normalize(req.path))
			req.reply <- existsReply{ok: ok, err: err}
		case req := <-v.deleteCh:
			ok, err := v.backend.Delete(Normalize(req.path))
			req.reply <- existsReply{ok: ok, err: err}
		case req := <-v.listCh:
			entries, err := v.backend.ListDirectory(Normalize(req.path))
			req.reply <- listReply{entries: entries, err: err}
		}
	}
}

// ReadText returns the file's content, or found=false if it doesn't exist.
func (v *VFS) ReadText(ctx context.Context, path string) (string, bool, error) {
	reply := make(chan readReply, 1)
	select {
	case v.readCh <- readReq{path: path, reply: reply}:
	case <-ctx.Done():
		return "", false, ctx.Err()
	}
	select {
	case r := <-reply:
		return r.content, r.found, r.err
	case <-ctx.Done():
		return "", false, ctx.Err()
	}
}

// WriteText enqueues a write and returns immediately (fire-and-forget per
// spec.md §6).
func (v *VFS) WriteText(ctx context.Context, path string, content string) {
	select {
	case v.writeCh <- writeReq{path: path, content: content}:
	case <-ctx.Done():
	}
}

// Exists reports whether path is present.
func (v *VFS) Exists(ctx context.Context, path string) (bool, error) {
	reply := make(chan existsReply, 1)
	select {
	case v.existsCh <- existsReq{path: path, reply: reply}:
	case <-ctx.Done():
		return false, ctx.Err()
	}
	select {
	case r := <-reply:
		return r.ok, r.err
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Delete removes path, reporting whether it existed.
func (v *VFS) Delete(ctx context.Context, path string) (bool, error) {
	reply := make(chan existsReply, 1)
	select {
	case v.deleteCh <- deleteReq{path: path, reply: reply}:
	case <-ctx.Done():
		return false, ctx.Err()
	}
	select {
	case r := <-reply:
		return r.ok, r.err
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// ListDirectory returns the entries directly under path.
func (v *VFS) ListDirectory(ctx context.Context, path string) ([]string, error) {
	reply := make(chan listReply, 1)
	select {
	case v.listCh <- listReq{path: path, reply: reply}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case r := <-reply:
		return r.entries, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Stop cancels the VFS actor's loop.
func (v *VFS) Stop() { v.loop.Stop() }

// MemoryBackend is an in-memory Backend over a flat path->content map,
// suitable for tests and for the cmd/boonrun smoke harness.
type MemoryBackend struct {
	mu    sync.RWMutex
	files map[string]string
}

// NewMemoryBackend constructs an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{files: make(map[string]string)}
}

func (m *MemoryBackend) ReadText(path string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.files[path]
	return c, ok, nil
}

func (m *MemoryBackend) WriteText(path string, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = content
	return nil
}

func (m *MemoryBackend) Exists(path string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.files[path]
	return ok, nil
}

func (m *MemoryBackend) Delete(path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[path]
	delete(m.files, path)
	return ok, nil
}

func (m *MemoryBackend) ListDirectory(path string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	prefix := path
	if prefix != "" {
		prefix += "/"
	}
	seen := make(map[string]bool)
	var out []string
	for k := range m.files {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		rest := strings.TrimPrefix(k, prefix)
		if i := strings.Index(rest, "/"); i >= 0 {
			rest = rest[:i]
		}
		if rest == "" || seen[rest] {
			continue
		}
		seen[rest] = true
		out = append(out, rest)
	}
	sort.Strings(out)
	return out, nil
}

// OSBackend is a concrete Backend rooted at a real directory on disk.
type OSBackend struct {
	root string
}

// NewOSBackend constructs a Backend rooted at root; root is created if
// missing.
func NewOSBackend(root string) (*OSBackend, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("vfs: create root %q: %w", root, err)
	}
	return &OSBackend{root: root}, nil
}

func (o *OSBackend) resolve(path string) string {
	return filepath.Join(o.root, filepath.FromSlash(path))
}

func (o *OSBackend) ReadText(path string) (string, bool, error) {
	b, err := os.ReadFile(o.resolve(path))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("vfs: read %q: %w", path, err)
	}
	return string(b), true, nil
}

func (o *OSBackend) WriteText(path string, content string) error {
	full := o.resolve(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("vfs: mkdir for %q: %w", path, err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		return fmt.Errorf("vfs: write %q: %w", path, err)
	}
	return nil
}

func (o *OSBackend) Exists(path string) (bool, error) {
	_, err := os.Stat(o.resolve(path))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("vfs: stat %q: %w", path, err)
	}
	return true, nil
}

func (o *OSBackend) Delete(path string) (bool, error) {
	err := os.Remove(o.resolve(path))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("vfs: delete %q: %w", path, err)
	}
	return true, nil
}

func (o *OSBackend) ListDirectory(path string) ([]string, error) {
	entries, err := os.ReadDir(o.resolve(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("vfs: list %q: %w", path, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}
