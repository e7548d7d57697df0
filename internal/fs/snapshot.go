package fs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/adrg/xdg"
	bolt "go.etcd.io/bbolt"

	"github.com/arctir/vkernel/internal/kresult"
)

// snapshotBucket is the single bbolt bucket every named snapshot is stored
// under, keyed by snapshot name.
var snapshotBucket = []byte("snapshots")

// dirSnapshot and fileSnapshot are the wire shapes spec.md §6 describes:
// names, timestamps (second precision), file contents inline, and
// subdirectories recursively. The exact encoding is an implementation
// choice; this one is JSON wrapped by bbolt's key/value store, the way the
// pack's gravwell-gravwell repo leans on go.etcd.io/bbolt for durable local
// state rather than hand-rolled file formats.
type dirSnapshot struct {
	Name       string         `json:"name"`
	CreatedAt  int64          `json:"created_at"`
	ModifiedAt int64          `json:"modified_at"`
	Files      []fileSnapshot `json:"files"`
	Dirs       []dirSnapshot  `json:"dirs"`
}

type fileSnapshot struct {
	Name       string `json:"name"`
	Content    string `json:"content"`
	CreatedAt  int64  `json:"created_at"`
	ModifiedAt int64  `json:"modified_at"`
}

// Store is the durable backing for named snapshots. It wraps a single
// bbolt database file the way the syscall surface's save_to_disk /
// load_from_disk / list_data_files expect a named-blob store to exist.
type Store struct {
	db *bolt.DB
}

// DefaultStoreDir returns $XDG_DATA_HOME/vkerneld/snapshots, mirroring the
// teacher's getDefaultCacheLocation pattern in source/source.go.
func DefaultStoreDir() string {
	return filepath.Join(xdg.DataHome, "vkerneld", "snapshots")
}

// OpenStore opens (creating if necessary) a bbolt-backed snapshot store at
// dir/snapshots.db.
func OpenStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("fs: creating snapshot dir: %w", err)
	}
	db, err := bolt.Open(filepath.Join(dir, "snapshots.db"), 0o644, nil)
	if err != nil {
		return nil, fmt.Errorf("fs: opening snapshot store: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(snapshotBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("fs: initializing snapshot bucket: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database file.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) put(name string, b []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(snapshotBucket).Put([]byte(name), b)
	})
}

func (s *Store) get(name string) ([]byte, bool) {
	var out []byte
	_ = s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(snapshotBucket).Get([]byte(name))
		if v != nil {
			out = append([]byte(nil), v...)
		}
		return nil
	})
	return out, out != nil
}

func (s *Store) list() []string {
	var names []string
	_ = s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(snapshotBucket).ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	sort.Strings(names)
	return names
}

// SaveToDisk serializes the entire tree under name.
func (t *Tree) SaveToDisk(store *Store, name string) kresult.Result {
	if name == "" {
		return kresult.InvalidArgument
	}
	t.mtx.Lock()
	snap := t.snapshotDir(t.root)
	t.mtx.Unlock()

	b, err := json.Marshal(snap)
	if err != nil {
		return kresult.Error
	}
	if err := store.put(name, b); err != nil {
		return kresult.Error
	}
	return kresult.OK
}

// LoadFromDisk replaces the current tree wholesale with the named snapshot
// and resets the cursor to the new root.
func (t *Tree) LoadFromDisk(store *Store, name string) kresult.Result {
	if name == "" {
		return kresult.InvalidArgument
	}
	b, ok := store.get(name)
	if !ok {
		return kresult.NotFound
	}
	var snap dirSnapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return kresult.Error
	}

	t.mtx.Lock()
	defer t.mtx.Unlock()
	t.resetLocked()
	root, res := t.restoreDir(snap, noParent)
	if !res.Ok() {
		t.resetLocked()
		return res
	}
	t.root = root
	t.cwd = root
	return kresult.OK
}

// ListDataFiles enumerates available snapshot names.
func ListDataFiles(store *Store) []string {
	return store.list()
}

// ResetStorage discards the in-memory tree and starts a fresh, empty root.
// It does not touch the on-disk store.
func (t *Tree) ResetStorage() {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	t.resetLocked()
}

func (t *Tree) resetLocked() {
	for _, n := range t.nodes {
		if n.isFile() && n.hasToken {
			t.pool.Deallocate(n.token)
		}
	}
	t.nodes = make(map[NodeID]*node)
	t.nextID = 0
	t.root = t.newNode(kindDir, RootName, noParent)
	t.cwd = t.root
}

func (t *Tree) snapshotDir(id NodeID) dirSnapshot {
	n := t.nodes[id]
	snap := dirSnapshot{
		Name:       n.name,
		CreatedAt:  n.createdAt.Unix(),
		ModifiedAt: n.modifiedAt.Unix(),
	}
	for _, f := range n.childFiles {
		fn := t.nodes[f]
		body, _ := t.readBody(f)
		snap.Files = append(snap.Files, fileSnapshot{
			Name:       fn.name,
			Content:    body,
			CreatedAt:  fn.createdAt.Unix(),
			ModifiedAt: fn.modifiedAt.Unix(),
		})
	}
	for _, d := range n.childDirs {
		snap.Dirs = append(snap.Dirs, t.snapshotDir(d))
	}
	return snap
}

// restoreDir rebuilds a subtree from a snapshot, called with the tree's
// lock already held by the caller.
func (t *Tree) restoreDir(snap dirSnapshot, parent NodeID) (NodeID, kresult.Result) {
	id := t.newNode(kindDir, snap.Name, parent)
	n := t.nodes[id]
	n.createdAt = time.Unix(snap.CreatedAt, 0)
	n.modifiedAt = time.Unix(snap.ModifiedAt, 0)

	for _, fs := range snap.Files {
		fid := t.newNode(kindFile, fs.Name, id)
		fn := t.nodes[fid]
		fn.createdAt = time.Unix(fs.CreatedAt, 0)
		fn.modifiedAt = time.Unix(fs.ModifiedAt, 0)
		if len(fs.Content) > 0 {
			tok, ok := t.pool.Allocate(len(fs.Content), kernelOwner)
			if !ok {
				return 0, kresult.Error
			}
			t.pool.Write(tok, []byte(fs.Content))
			fn.token = tok
			fn.hasToken = true
			fn.size = len(fs.Content)
		}
		n.childFiles = append(n.childFiles, fid)
	}
	for _, ds := range snap.Dirs {
		cid, res := t.restoreDir(ds, id)
		if !res.Ok() {
			return 0, res
		}
		n.childDirs = append(n.childDirs, cid)
	}
	return id, kresult.OK
}
