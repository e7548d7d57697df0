package fs

import (
	"strings"

	"github.com/arctir/vkernel/internal/kresult"
)

// splitPath turns a path string into (absolute, segments), collapsing
// repeated "/" and dropping empty segments. "." and ".." are kept as
// navigational segments for the caller to interpret.
func splitPath(path string) (absolute bool, segments []string, res kresult.Result) {
	if strings.TrimSpace(path) == "" {
		return false, nil, kresult.InvalidArgument
	}
	absolute = strings.HasPrefix(path, "/")
	raw := strings.Split(path, "/")
	for _, s := range raw {
		if s == "" {
			continue
		}
		if strings.TrimSpace(s) == "" {
			return false, nil, kresult.InvalidArgument
		}
		segments = append(segments, s)
	}
	return absolute, segments, kresult.OK
}

// walk resolves segments starting from start, returning the id of the
// directory node reached. It does not look at the final segment as a
// create/target name; callers that need (parent, name) semantics split the
// last segment off before calling walk.
func (t *Tree) walk(start NodeID, segments []string) (NodeID, kresult.Result) {
	cur := start
	for _, seg := range segments {
		switch seg {
		case ".":
			continue
		case "..":
			n := t.nodes[cur]
			if n.parent == noParent {
				return 0, kresult.AtRoot
			}
			cur = n.parent
		default:
			n := t.nodes[cur]
			if !n.isDir() {
				return 0, kresult.NotFound
			}
			next, ok := t.childDirByName(cur, seg)
			if !ok {
				return 0, kresult.NotFound
			}
			cur = next
		}
	}
	return cur, kresult.OK
}

// resolveDir resolves path to a directory NodeID, relative to the tree's
// current working directory unless the path is absolute.
func (t *Tree) resolveDir(path string) (NodeID, kresult.Result) {
	absolute, segs, res := splitPath(path)
	if !res.Ok() {
		return 0, res
	}
	start := t.cwd
	if absolute {
		start = t.root
	}
	return t.walk(start, segs)
}

// resolveNode resolves path to any node (file or directory).
func (t *Tree) resolveNode(path string) (NodeID, kresult.Result) {
	absolute, segs, res := splitPath(path)
	if !res.Ok() {
		return 0, res
	}
	if len(segs) == 0 {
		if absolute {
			return t.root, kresult.OK
		}
		return t.cwd, kresult.OK
	}
	parentSegs, last := segs[:len(segs)-1], segs[len(segs)-1]
	start := t.cwd
	if absolute {
		start = t.root
	}
	parent, res := t.walk(start, parentSegs)
	if !res.Ok() {
		return 0, res
	}
	switch last {
	case ".":
		return parent, kresult.OK
	case "..":
		n := t.nodes[parent]
		if n.parent == noParent {
			return 0, kresult.AtRoot
		}
		return n.parent, kresult.OK
	}
	if id, ok := t.childDirByName(parent, last); ok {
		return id, kresult.OK
	}
	if id, ok := t.childFileByName(parent, last); ok {
		return id, kresult.OK
	}
	return 0, kresult.NotFound
}

// resolveParentAndName resolves path to a (parent directory, final name)
// pair, for create/rename-style operations. The final name is never "."
// or "..".
func (t *Tree) resolveParentAndName(path string) (NodeID, string, kresult.Result) {
	absolute, segs, res := splitPath(path)
	if !res.Ok() {
		return 0, "", res
	}
	if len(segs) == 0 {
		return 0, "", kresult.InvalidArgument
	}
	parentSegs, last := segs[:len(segs)-1], segs[len(segs)-1]
	if last == "." || last == ".." {
		return 0, "", kresult.InvalidArgument
	}
	start := t.cwd
	if absolute {
		start = t.root
	}
	parent, res := t.walk(start, parentSegs)
	if !res.Ok() {
		return 0, "", res
	}
	return parent, last, kresult.OK
}

func (t *Tree) childDirByName(parent NodeID, name string) (NodeID, bool) {
	p := t.nodes[parent]
	for _, id := range p.childDirs {
		if t.nodes[id].name == name {
			return id, true
		}
	}
	return 0, false
}

func (t *Tree) childFileByName(parent NodeID, name string) (NodeID, bool) {
	p := t.nodes[parent]
	for _, id := range p.childFiles {
		if t.nodes[id].name == name {
			return id, true
		}
	}
	return 0, false
}

// pathOf walks parent back-references from id to the root and renders the
// result as a "/"-joined absolute path.
func (t *Tree) pathOf(id NodeID) string {
	var parts []string
	cur := id
	for cur != t.root {
		n := t.nodes[cur]
		parts = append([]string{n.name}, parts...)
		cur = n.parent
	}
	if len(parts) == 0 {
		return "/"
	}
	return "/" + strings.Join(parts, "/")
}

// isDescendantOrSame reports whether candidate is node id or a descendant
// of it; used to reject moves that would introduce a cycle.
func (t *Tree) isDescendantOrSame(id, candidate NodeID) bool {
	cur := candidate
	for {
		if cur == id {
			return true
		}
		if cur == t.root {
			return false
		}
		cur = t.nodes[cur].parent
	}
}
