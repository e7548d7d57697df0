// Package fs implements the kernel's hierarchical in-memory filesystem tree
// (spec component B): path resolution, file/directory lifecycle, and
// snapshot persistence. File bodies are stored as memory-pool tokens, not as
// Go byte slices directly, so the same accounting backs both processes and
// files.
package fs

import (
	"strings"
	"sync"
	"time"

	"github.com/arctir/vkernel/internal/kresult"
	"github.com/arctir/vkernel/internal/memory"
)

// kernelOwner is the PID that owns every file-body allocation the
// filesystem makes in the shared memory pool. PID 0 is reserved for the
// kernel (spec.md §3), and the filesystem is kernel-owned state, not a
// process of its own.
const kernelOwner = 0

// Entry is a by-value directory listing row (spec.md §4.B listDir).
type Entry struct {
	Name       string
	IsDir      bool
	Size       int
	CreatedAt  time.Time
	ModifiedAt time.Time
}

// Tree is the filesystem tree plus its single mutable working-directory
// cursor. All path resolution and mutation happens under Tree's coarse
// lock; spec.md §5 accepts the contention since the interactive workload is
// light.
type Tree struct {
	mtx    sync.Mutex
	nodes  map[NodeID]*node
	nextID NodeID
	root   NodeID
	cwd    NodeID
	pool   *memory.Pool
}

// New creates an empty tree backed by pool for file bodies.
func New(pool *memory.Pool) *Tree {
	t := &Tree{
		nodes: make(map[NodeID]*node),
		pool:  pool,
	}
	t.root = t.newNode(kindDir, RootName, noParent)
	t.cwd = t.root
	return t
}

func (t *Tree) newNode(k kind, name string, parent NodeID) NodeID {
	id := t.nextID
	t.nextID++
	now := time.Now()
	t.nodes[id] = &node{
		id:         id,
		kind:       k,
		name:       name,
		parent:     parent,
		createdAt:  now,
		modifiedAt: now,
	}
	return id
}

func (t *Tree) touchModified(id NodeID) {
	t.nodes[id].modifiedAt = time.Now()
}

// GetWorkingDir returns the "/"-joined absolute path of the cursor.
func (t *Tree) GetWorkingDir() string {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	return t.pathOf(t.cwd)
}

// ChangeDir moves the working-directory cursor. AtRoot is returned (cursor
// unchanged) for ".." past root.
func (t *Tree) ChangeDir(path string) kresult.Result {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	id, res := t.resolveDir(path)
	if !res.Ok() {
		return res
	}
	if !t.nodes[id].isDir() {
		return kresult.NotFound
	}
	t.cwd = id
	return kresult.OK
}

// CreateFile creates an empty file. Fails AlreadyExists if a sibling file
// of that name already exists.
func (t *Tree) CreateFile(path string) kresult.Result {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	parent, name, res := t.resolveParentAndName(path)
	if !res.Ok() {
		return res
	}
	if _, ok := t.childFileByName(parent, name); ok {
		return kresult.AlreadyExists
	}
	id := t.newNode(kindFile, name, parent)
	t.nodes[parent].childFiles = append(t.nodes[parent].childFiles, id)
	t.touchModified(parent)
	return kresult.OK
}

// TouchFile updates modified-at if path exists, or creates it otherwise.
func (t *Tree) TouchFile(path string) kresult.Result {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	parent, name, res := t.resolveParentAndName(path)
	if !res.Ok() {
		return res
	}
	if id, ok := t.childFileByName(parent, name); ok {
		t.touchModified(id)
		return kresult.OK
	}
	id := t.newNode(kindFile, name, parent)
	t.nodes[parent].childFiles = append(t.nodes[parent].childFiles, id)
	t.touchModified(parent)
	return kresult.OK
}

// DeleteFile removes a file, freeing its body in the pool.
func (t *Tree) DeleteFile(path string) kresult.Result {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	parent, name, res := t.resolveParentAndName(path)
	if !res.Ok() {
		return res
	}
	id, ok := t.childFileByName(parent, name)
	if !ok {
		return kresult.NotFound
	}
	t.freeFileBody(id)
	t.removeChildFile(parent, id)
	delete(t.nodes, id)
	t.touchModified(parent)
	return kresult.OK
}

func (t *Tree) removeChildFile(parent, id NodeID) {
	p := t.nodes[parent]
	for i, c := range p.childFiles {
		if c == id {
			p.childFiles = append(p.childFiles[:i], p.childFiles[i+1:]...)
			return
		}
	}
}

func (t *Tree) removeChildDir(parent, id NodeID) {
	p := t.nodes[parent]
	for i, c := range p.childDirs {
		if c == id {
			p.childDirs = append(p.childDirs[:i], p.childDirs[i+1:]...)
			return
		}
	}
}

func (t *Tree) freeFileBody(id NodeID) {
	n := t.nodes[id]
	if n.hasToken {
		t.pool.Deallocate(n.token)
		n.hasToken = false
		n.size = 0
	}
}

// WriteFile atomically replaces a file's body: the old token is freed (if
// any) and a new one allocated sized len(content)+1, with a trailing
// newline appended. This is not transactional — per spec.md §9, the old
// token is freed before the new allocation is attempted, so a pool
// exhaustion failure leaves the file empty, not unchanged.
func (t *Tree) WriteFile(path, content string) kresult.Result {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	id, res := t.resolveFile(path)
	if !res.Ok() {
		return res
	}
	return t.replaceBody(id, content)
}

// EditFile reads the current body, appends suffix, and writes the result
// back with the same atomicity constraints as WriteFile.
func (t *Tree) EditFile(path, suffix string) kresult.Result {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	id, res := t.resolveFile(path)
	if !res.Ok() {
		return res
	}
	cur, res := t.readBody(id)
	if !res.Ok() {
		return res
	}
	return t.replaceBody(id, strings.TrimSuffix(cur, "\n")+suffix)
}

// ReadFile copies a file's body out verbatim.
func (t *Tree) ReadFile(path string) (string, kresult.Result) {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	id, res := t.resolveFile(path)
	if !res.Ok() {
		return "", res
	}
	return t.readBody(id)
}

func (t *Tree) resolveFile(path string) (NodeID, kresult.Result) {
	id, res := t.resolveNode(path)
	if !res.Ok() {
		return 0, res
	}
	if !t.nodes[id].isFile() {
		return 0, kresult.NotFound
	}
	return id, kresult.OK
}

func (t *Tree) readBody(id NodeID) (string, kresult.Result) {
	n := t.nodes[id]
	if !n.hasToken {
		return "", kresult.OK
	}
	buf, ok := t.pool.Read(n.token)
	if !ok {
		return "", kresult.Error
	}
	return string(buf), kresult.OK
}

func (t *Tree) replaceBody(id NodeID, content string) kresult.Result {
	n := t.nodes[id]
	t.freeFileBody(id)
	body := content + "\n"
	tok, ok := t.pool.Allocate(len(body), kernelOwner)
	if !ok {
		return kresult.Error
	}
	t.pool.Write(tok, []byte(body))
	n.token = tok
	n.hasToken = true
	n.size = len(body)
	t.touchModified(id)
	return kresult.OK
}

// FileExists reports whether path resolves to a file.
func (t *Tree) FileExists(path string) bool {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	id, res := t.resolveNode(path)
	return res.Ok() && t.nodes[id].isFile()
}

// MakeDir creates a directory. Fails AlreadyExists if a sibling directory
// of that name already exists.
func (t *Tree) MakeDir(path string) kresult.Result {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	parent, name, res := t.resolveParentAndName(path)
	if !res.Ok() {
		return res
	}
	if _, ok := t.childDirByName(parent, name); ok {
		return kresult.AlreadyExists
	}
	id := t.newNode(kindDir, name, parent)
	t.nodes[parent].childDirs = append(t.nodes[parent].childDirs, id)
	t.touchModified(parent)
	return kresult.OK
}

// RemoveDir recursively removes a directory, freeing every contained file's
// body in the pool. If the cursor is inside the removed subtree, it is
// reset to the removed directory's parent.
func (t *Tree) RemoveDir(path string) kresult.Result {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	parent, name, res := t.resolveParentAndName(path)
	if !res.Ok() {
		return res
	}
	id, ok := t.childDirByName(parent, name)
	if !ok {
		return kresult.NotFound
	}
	if t.isDescendantOrSame(id, t.cwd) {
		t.cwd = parent
	}
	t.removeSubtree(id)
	t.removeChildDir(parent, id)
	t.touchModified(parent)
	return kresult.OK
}

func (t *Tree) removeSubtree(id NodeID) {
	n := t.nodes[id]
	for _, f := range append([]NodeID(nil), n.childFiles...) {
		t.freeFileBody(f)
		delete(t.nodes, f)
	}
	for _, d := range append([]NodeID(nil), n.childDirs...) {
		t.removeSubtree(d)
	}
	delete(t.nodes, id)
}

// ListDir lists child directories then child files, in insertion order.
func (t *Tree) ListDir(path string) ([]Entry, kresult.Result) {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	id, res := t.resolveDir(path)
	if !res.Ok() {
		return nil, res
	}
	n := t.nodes[id]
	if !n.isDir() {
		return nil, kresult.NotFound
	}
	var out []Entry
	for _, d := range n.childDirs {
		c := t.nodes[d]
		out = append(out, Entry{Name: c.name, IsDir: true, CreatedAt: c.createdAt, ModifiedAt: c.modifiedAt})
	}
	for _, f := range n.childFiles {
		c := t.nodes[f]
		out = append(out, Entry{Name: c.name, IsDir: false, Size: c.size, CreatedAt: c.createdAt, ModifiedAt: c.modifiedAt})
	}
	return out, kresult.OK
}

// destination resolves copy/move's destination-disambiguation rule: if dest
// names an existing directory, the source lands inside it under its own
// name; otherwise dest names the final path directly.
func (t *Tree) destination(dest, srcName string) (parent NodeID, name string, res kresult.Result) {
	if id, dres := t.resolveNode(dest); dres.Ok() && t.nodes[id].isDir() {
		return id, srcName, kresult.OK
	}
	return t.resolveParentAndName(dest)
}

// CopyFile copies src to dest, applying destination-disambiguation.
func (t *Tree) CopyFile(src, dest string) kresult.Result {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	srcID, res := t.resolveFile(src)
	if !res.Ok() {
		return res
	}
	srcNode := t.nodes[srcID]
	parent, name, res := t.destination(dest, srcNode.name)
	if !res.Ok() {
		return res
	}
	if _, ok := t.childFileByName(parent, name); ok {
		return kresult.AlreadyExists
	}
	body, res := t.readBody(srcID)
	if !res.Ok() {
		return res
	}
	id := t.newNode(kindFile, name, parent)
	t.nodes[parent].childFiles = append(t.nodes[parent].childFiles, id)
	if srcNode.hasToken {
		if res := t.replaceBody(id, strings.TrimSuffix(body, "\n")); !res.Ok() {
			t.removeChildFile(parent, id)
			delete(t.nodes, id)
			return res
		}
	}
	t.touchModified(parent)
	return kresult.OK
}

// MoveFile moves src to dest, applying destination-disambiguation; the
// source is removed on success.
func (t *Tree) MoveFile(src, dest string) kresult.Result {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	srcID, res := t.resolveFile(src)
	if !res.Ok() {
		return res
	}
	srcNode := t.nodes[srcID]
	srcParent := srcNode.parent
	parent, name, res := t.destination(dest, srcNode.name)
	if !res.Ok() {
		return res
	}
	if _, ok := t.childFileByName(parent, name); ok {
		return kresult.AlreadyExists
	}
	t.removeChildFile(srcParent, srcID)
	srcNode.parent = parent
	srcNode.name = name
	t.nodes[parent].childFiles = append(t.nodes[parent].childFiles, srcID)
	t.touchModified(srcParent)
	t.touchModified(parent)
	t.touchModified(srcID)
	return kresult.OK
}

// CopyDir recursively copies a directory subtree.
func (t *Tree) CopyDir(src, dest string) kresult.Result {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	srcID, res := t.resolveDir(src)
	if !res.Ok() {
		return res
	}
	if !t.nodes[srcID].isDir() {
		return kresult.NotFound
	}
	parent, name, res := t.destination(dest, t.nodes[srcID].name)
	if !res.Ok() {
		return res
	}
	if _, ok := t.childDirByName(parent, name); ok {
		return kresult.AlreadyExists
	}
	newID, res := t.copySubtree(srcID, parent, name)
	if !res.Ok() {
		return res
	}
	t.nodes[parent].childDirs = append(t.nodes[parent].childDirs, newID)
	t.touchModified(parent)
	return kresult.OK
}

func (t *Tree) copySubtree(srcID, newParent NodeID, newName string) (NodeID, kresult.Result) {
	src := t.nodes[srcID]
	id := t.newNode(kindDir, newName, newParent)
	for _, f := range src.childFiles {
		fn := t.nodes[f]
		body, res := t.readBody(f)
		if !res.Ok() {
			return 0, res
		}
		fid := t.newNode(kindFile, fn.name, id)
		t.nodes[id].childFiles = append(t.nodes[id].childFiles, fid)
		if fn.hasToken {
			if res := t.replaceBody(fid, strings.TrimSuffix(body, "\n")); !res.Ok() {
				return 0, res
			}
		}
	}
	for _, d := range src.childDirs {
		dn := t.nodes[d]
		cid, res := t.copySubtree(d, id, dn.name)
		if !res.Ok() {
			return 0, res
		}
		t.nodes[id].childDirs = append(t.nodes[id].childDirs, cid)
	}
	return id, kresult.OK
}

// MoveDir moves a directory subtree. Rejects InvalidArgument if dest is a
// descendant of or equal to src, per spec.md §4.B.
func (t *Tree) MoveDir(src, dest string) kresult.Result {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	srcID, res := t.resolveDir(src)
	if !res.Ok() {
		return res
	}
	if !t.nodes[srcID].isDir() {
		return kresult.NotFound
	}
	if srcID == t.root {
		return kresult.InvalidArgument
	}
	srcNode := t.nodes[srcID]
	srcParent := srcNode.parent

	destID, destRes := t.resolveNode(dest)
	if destRes.Ok() && t.nodes[destID].isDir() {
		if t.isDescendantOrSame(srcID, destID) {
			return kresult.InvalidArgument
		}
	}

	parent, name, res := t.destination(dest, srcNode.name)
	if !res.Ok() {
		return res
	}
	if t.isDescendantOrSame(srcID, parent) {
		return kresult.InvalidArgument
	}
	if _, ok := t.childDirByName(parent, name); ok {
		return kresult.AlreadyExists
	}
	t.removeChildDir(srcParent, srcID)
	srcNode.parent = parent
	srcNode.name = name
	t.nodes[parent].childDirs = append(t.nodes[parent].childDirs, srcID)
	t.touchModified(srcParent)
	t.touchModified(parent)
	t.touchModified(srcID)
	return kresult.OK
}
