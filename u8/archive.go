package u8

import (
	"fmt"
	"iter"
	"slices"
	"strings"
)

// PayloadID identifies a payload slot in an Archive's arena.
type PayloadID int

// NoPayload is the PayloadID reported by directory nodes.
const NoPayload PayloadID = -1

// Node is a file or directory in an archive's name table.
//
// Nodes are owned by exactly one Archive and are only created through its
// methods or by Parse.
type Node struct {
	name     string
	dir      bool
	payload  PayloadID
	children []*Node
}

// Name returns the node's name within its parent directory.
func (n *Node) Name() string { return n.name }

// IsDir reports whether the node is a directory.
func (n *Node) IsDir() bool { return n.dir }

// Payload returns the payload slot a file node refers to, or NoPayload for
// directories.
func (n *Node) Payload() PayloadID { return n.payload }

// Children returns the node's children in stored order. The returned slice
// must not be modified.
func (n *Node) Children() []*Node { return n.children }

// child returns the immediate child with the given name, compared with
// sameName.
func (n *Node) child(name string) *Node {
	for _, c := range n.children {
		if sameName(c.name, name) {
			return c
		}
	}
	return nil
}

// Entry is a flattened view of one node.
type Entry struct {
	// Path is the slash-separated path from the archive root.
	Path string

	// IsDir reports whether the entry is a directory.
	IsDir bool

	// Payload is the payload slot of a file entry, or NoPayload.
	Payload PayloadID

	// Data is the payload content of a file entry. It aliases the archive's
	// arena and must not be modified.
	Data []byte
}

// Archive is an in-memory U8 archive: a tree of names plus an arena of
// payloads that file nodes refer to by index.
//
// The order of children is part of the archive's state and is preserved by
// Serialize; call SortChildren to get the conventional order.
type Archive struct {
	root     *Node
	payloads [][]byte
}

// New returns an empty archive containing only the root directory.
func New() *Archive {
	return &Archive{root: &Node{dir: true, payload: NoPayload}}
}

// Root returns the root directory node.
func (a *Archive) Root() *Node { return a.root }

// AddPayload stores data in a new payload slot and returns its id. The
// archive takes ownership of data.
func (a *Archive) AddPayload(data []byte) PayloadID {
	a.payloads = append(a.payloads, data)
	return PayloadID(len(a.payloads) - 1)
}

// Payload returns the content of a payload slot, or nil if id is invalid.
func (a *Archive) Payload(id PayloadID) []byte {
	if !a.validPayload(id) {
		return nil
	}
	return a.payloads[id]
}

// NumPayloads returns the number of slots in the arena, referenced or not.
func (a *Archive) NumPayloads() int { return len(a.payloads) }

func (a *Archive) validPayload(id PayloadID) bool {
	return id >= 0 && int(id) < len(a.payloads)
}

// Lookup returns the node at path. Matching ignores ASCII case. The empty
// path (or "/") resolves to the root.
func (a *Archive) Lookup(path string) (*Node, bool) {
	n := a.root
	for _, part := range splitPath(path) {
		if !n.dir {
			return nil, false
		}
		if n = n.child(part); n == nil {
			return nil, false
		}
	}
	return n, true
}

// ReadFile returns the payload of the file at path.
func (a *Archive) ReadFile(path string) ([]byte, error) {
	n, ok := a.Lookup(path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotExist, path)
	}
	if n.dir {
		return nil, fmt.Errorf("%w: %s", ErrIsDir, path)
	}
	return a.payloads[n.payload], nil
}

// Mkdir returns the directory at path, creating it and any missing parents.
func (a *Archive) Mkdir(path string) (*Node, error) {
	n := a.root
	for _, part := range splitPath(path) {
		if !validName(part) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
		c := n.child(part)
		if c == nil {
			c = &Node{name: part, dir: true, payload: NoPayload}
			n.children = append(n.children, c)
		} else if !c.dir {
			return nil, fmt.Errorf("%w: %s", ErrNotDir, path)
		}
		n = c
	}
	return n, nil
}

// AddFile adds a file node at path referring to payload slot id. Missing
// parent directories are created. Adding a name that already exists in the
// directory fails with ErrExist.
func (a *Archive) AddFile(path string, id PayloadID) error {
	if !a.validPayload(id) {
		return fmt.Errorf("%w: %d", ErrInvalidPayload, id)
	}
	parts := splitPath(path)
	if len(parts) == 0 || !validName(parts[len(parts)-1]) {
		return fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	dir, err := a.Mkdir(strings.Join(parts[:len(parts)-1], "/"))
	if err != nil {
		return err
	}
	name := parts[len(parts)-1]
	if dir.child(name) != nil {
		return fmt.Errorf("%w: %s", ErrExist, path)
	}
	dir.children = append(dir.children, &Node{name: name, payload: id})
	return nil
}

// Remove deletes the node at path (and, for directories, everything under
// it). It reports whether a node was removed. The root cannot be removed.
// Payload slots are left in the arena; Serialize skips unreferenced slots.
func (a *Archive) Remove(path string) bool {
	parts := splitPath(path)
	if len(parts) == 0 {
		return false
	}
	parent, ok := a.Lookup(strings.Join(parts[:len(parts)-1], "/"))
	if !ok || !parent.dir {
		return false
	}
	name := parts[len(parts)-1]
	for i, c := range parent.children {
		if sameName(c.name, name) {
			parent.children = slices.Delete(parent.children, i, i+1)
			return true
		}
	}
	return false
}

// Entries returns an iterator over every node except the root, depth-first
// in stored order.
func (a *Archive) Entries() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		a.walk(a.root, "", yield)
	}
}

// Files returns an iterator over file entries only.
func (a *Archive) Files() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for e := range a.Entries() {
			if e.IsDir {
				continue
			}
			if !yield(e) {
				return
			}
		}
	}
}

func (a *Archive) walk(dir *Node, dirPath string, yield func(Entry) bool) bool {
	for _, c := range dir.children {
		p := joinPath(dirPath, c.name)
		e := Entry{Path: p, IsDir: c.dir, Payload: c.payload}
		if !c.dir {
			e.Data = a.payloads[c.payload]
		}
		if !yield(e) {
			return false
		}
		if c.dir && !a.walk(c, p, yield) {
			return false
		}
	}
	return true
}

// SortChildren orders every directory's children by folded name (see
// FoldName), the order Nintendo's own tools write.
func (a *Archive) SortChildren() {
	sortNode(a.root)
}

func sortNode(n *Node) {
	slices.SortStableFunc(n.children, func(x, y *Node) int {
		return strings.Compare(FoldName(x.name), FoldName(y.name))
	})
	for _, c := range n.children {
		if c.dir {
			sortNode(c)
		}
	}
}
