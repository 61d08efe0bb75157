// Package testutil builds U8 archive fixtures for tests.
//
// The encoder here is deliberately independent of package u8 so that parser
// tests do not only exercise round trips through the package's own writer.
package testutil

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// Fixture layout constants.
const (
	HeaderSize = 0x20
	NodeSize   = 12
)

// Node describes a file or directory in a fixture archive.
type Node struct {
	Name     string
	Dir      bool
	Data     []byte
	Children []Node
}

// File returns a file fixture node.
func File(name string, data []byte) Node {
	return Node{Name: name, Data: data}
}

// Dir returns a directory fixture node.
func Dir(name string, children ...Node) Node {
	return Node{Name: name, Dir: true, Children: children}
}

// NodeOffset returns the byte offset of node i in a fixture archive.
func NodeOffset(i int) int {
	return HeaderSize + i*NodeSize
}

type builder struct {
	nodes  bytes.Buffer
	strs   bytes.Buffer
	count  int
	files  []fileRef
	shared bool
}

type fileRef struct {
	nodeIndex int
	data      []byte
}

// BuildU8 encodes the given root children as a U8 archive. Every file gets
// its own 0x20-aligned copy of its data.
func BuildU8(tb testing.TB, children ...Node) []byte {
	tb.Helper()
	return build(tb, false, children)
}

// BuildU8Shared is like BuildU8 but files with identical contents share a
// single data range.
func BuildU8Shared(tb testing.TB, children ...Node) []byte {
	tb.Helper()
	return build(tb, true, children)
}

func build(tb testing.TB, shared bool, children []Node) []byte {
	tb.Helper()
	b := &builder{shared: shared}
	b.strs.WriteByte(0)
	b.writeNode(1, 0, 0, 0) // root, patched below
	b.count = 1
	for _, c := range children {
		b.add(c, 0)
	}

	nodes := b.nodes.Bytes()
	binary.BigEndian.PutUint32(nodes[8:], uint32(b.count)) //nolint:gosec // fixture sizes are tiny

	tableSize := len(nodes) + b.strs.Len()
	dataOff := align(HeaderSize+tableSize, 0x20)

	var out bytes.Buffer
	header := make([]byte, HeaderSize)
	binary.BigEndian.PutUint32(header[0:], 0x55aa382d)
	binary.BigEndian.PutUint32(header[4:], HeaderSize)
	binary.BigEndian.PutUint32(header[8:], uint32(tableSize)) //nolint:gosec // fixture sizes are tiny
	binary.BigEndian.PutUint32(header[12:], uint32(dataOff))  //nolint:gosec // fixture sizes are tiny
	out.Write(header)
	out.Write(nodes)
	out.Write(b.strs.Bytes())

	written := make([][2]int, 0, len(b.files))
	for _, f := range b.files {
		off := -1
		if b.shared {
			for _, w := range written {
				if bytes.Equal(out.Bytes()[w[0]:w[0]+w[1]], f.data) {
					off = w[0]
					break
				}
			}
		}
		if off < 0 {
			out.Write(make([]byte, align(out.Len(), 0x20)-out.Len()))
			off = out.Len()
			out.Write(f.data)
			written = append(written, [2]int{off, len(f.data)})
		}
		raw := out.Bytes()
		binary.BigEndian.PutUint32(raw[NodeOffset(f.nodeIndex)+4:], uint32(off)) //nolint:gosec // fixture sizes are tiny
	}
	if out.Len() < dataOff {
		out.Write(make([]byte, dataOff-out.Len()))
	}
	return out.Bytes()
}

func (b *builder) add(n Node, parent int) {
	index := b.count
	b.count++
	nameOff := b.strs.Len()
	b.strs.WriteString(n.Name)
	b.strs.WriteByte(0)
	if !n.Dir {
		b.writeNode(0, nameOff, 0, len(n.Data))
		b.files = append(b.files, fileRef{nodeIndex: index, data: n.Data})
		return
	}
	b.writeNode(1, nameOff, parent, 0)
	for _, c := range n.Children {
		b.add(c, index)
	}
	binary.BigEndian.PutUint32(b.nodes.Bytes()[index*NodeSize+8:], uint32(b.count)) //nolint:gosec // fixture sizes are tiny
}

func (b *builder) writeNode(typ, nameOff, dataOff, size int) {
	var raw [NodeSize]byte
	binary.BigEndian.PutUint32(raw[0:], uint32(typ<<24|nameOff)) //nolint:gosec // fixture sizes are tiny
	binary.BigEndian.PutUint32(raw[4:], uint32(dataOff))         //nolint:gosec // fixture sizes are tiny
	binary.BigEndian.PutUint32(raw[8:], uint32(size))            //nolint:gosec // fixture sizes are tiny
	b.nodes.Write(raw[:])
}

func align(n, a int) int {
	return (n + a - 1) &^ (a - 1)
}

// Patch32 overwrites the big-endian uint32 at off in a copy of data.
func Patch32(data []byte, off int, v uint32) []byte {
	out := bytes.Clone(data)
	binary.BigEndian.PutUint32(out[off:], v)
	return out
}
