package u8

import (
	"bytes"
	"encoding/binary"
	"slices"

	"github.com/meigma/smallworld/internal/sizing"
)

// On-disk constants.
const (
	// Magic is the big-endian value of the four bytes "U\xaa8-".
	Magic uint32 = 0x55aa382d

	// DataAlignment is the boundary every payload starts on.
	DataAlignment = 0x20

	headerSize = 0x20
	nodeSize   = 12

	typeFile = 0
	typeDir  = 1
)

// rawNode is one 12-byte entry of the node table.
type rawNode struct {
	typ     uint8
	nameOff uint32
	dataOff uint32 // file: absolute payload offset; dir: parent index
	size    uint32 // file: payload length; dir: index past last descendant
}

// parser holds the state of a single Parse call.
type parser struct {
	data     []byte
	nodeOff  uint32
	strStart uint32
	strEnd   uint32
	archive  *Archive
	slots    map[[2]uint32]PayloadID
}

// Parse decodes a U8 archive.
//
// File nodes with identical (offset, length) pairs share a payload slot. The
// returned archive owns copies of the payload bytes; data is not retained.
// Errors are *FormatError values wrapping ErrBadMagic, ErrTruncated or
// ErrMalformed.
func Parse(data []byte) (*Archive, error) {
	if len(data) < headerSize {
		return nil, formatErr(ErrTruncated, 0, "need %#x header bytes, have %#x", headerSize, len(data))
	}
	if magic := binary.BigEndian.Uint32(data); magic != Magic {
		return nil, formatErr(ErrBadMagic, 0, "magic %#08x", magic)
	}
	rootOff := binary.BigEndian.Uint32(data[4:])
	tableSize := binary.BigEndian.Uint32(data[8:])

	if !sizing.InBounds(rootOff, nodeSize, len(data)) {
		return nil, formatErr(ErrTruncated, uint64(rootOff), "root node past end of input")
	}
	p := &parser{data: data, nodeOff: rootOff}
	root := p.node(0)
	if root.typ != typeDir {
		return nil, formatErr(ErrMalformed, uint64(rootOff), "root node type %d is not a directory", root.typ)
	}
	count := root.size
	if count == 0 {
		return nil, formatErr(ErrMalformed, uint64(rootOff), "root node declares zero nodes")
	}
	nodesLen := uint64(count) * nodeSize
	if uint64(rootOff)+nodesLen > uint64(len(data)) {
		return nil, formatErr(ErrTruncated, uint64(rootOff), "node table of %d nodes past end of input", count)
	}
	if uint64(tableSize) < nodesLen {
		return nil, formatErr(ErrMalformed, 8, "header size %#x smaller than node table %#x", tableSize, nodesLen)
	}
	if uint64(rootOff)+uint64(tableSize) > uint64(len(data)) {
		return nil, formatErr(ErrTruncated, 8, "string table past end of input")
	}
	p.strStart = rootOff + uint32(nodesLen) //nolint:gosec // bounded by len(data) above
	p.strEnd = rootOff + tableSize
	p.archive = New()
	p.slots = make(map[[2]uint32]PayloadID)

	if err := p.parseDir(p.archive.root, 0, count); err != nil {
		return nil, err
	}
	return p.archive, nil
}

func (p *parser) node(i uint32) rawNode {
	off := p.nodeOff + i*nodeSize
	b := p.data[off : off+nodeSize]
	first := binary.BigEndian.Uint32(b)
	return rawNode{
		typ:     uint8(first >> 24),
		nameOff: first & 0x00ffffff,
		dataOff: binary.BigEndian.Uint32(b[4:]),
		size:    binary.BigEndian.Uint32(b[8:]),
	}
}

func (p *parser) nodeOffset(i uint32) uint64 {
	return uint64(p.nodeOff) + uint64(i)*nodeSize
}

// name reads a NUL-terminated string from the string table.
func (p *parser) name(i uint32, nameOff uint32) (string, error) {
	start := uint64(p.strStart) + uint64(nameOff)
	if start >= uint64(p.strEnd) {
		return "", formatErr(ErrMalformed, p.nodeOffset(i), "name offset %#x outside string table", nameOff)
	}
	s := p.data[start:p.strEnd]
	n := bytes.IndexByte(s, 0)
	if n < 0 {
		return "", formatErr(ErrMalformed, start, "unterminated name")
	}
	return string(s[:n]), nil
}

// parseDir reads the children of the directory node at index, which spans
// the node indices (index, end).
func (p *parser) parseDir(dir *Node, index, end uint32) error {
	i := index + 1
	for i < end {
		raw := p.node(i)
		name, err := p.name(i, raw.nameOff)
		if err != nil {
			return err
		}
		if name == "" {
			return formatErr(ErrMalformed, p.nodeOffset(i), "node %d has an empty name", i)
		}
		if dir.child(name) != nil {
			return formatErr(ErrMalformed, p.nodeOffset(i), "duplicate name %q", name)
		}

		switch raw.typ {
		case typeFile:
			if !sizing.InBounds(raw.dataOff, raw.size, len(p.data)) {
				return formatErr(ErrMalformed, p.nodeOffset(i), "%q: data %#x+%#x out of bounds", name, raw.dataOff, raw.size)
			}
			dir.children = append(dir.children, &Node{name: name, payload: p.slot(raw.dataOff, raw.size)})
			i++
		case typeDir:
			if raw.size <= i || raw.size > end {
				return formatErr(ErrMalformed, p.nodeOffset(i), "%q: directory end index %d outside (%d, %d]", name, raw.size, i, end)
			}
			child := &Node{name: name, dir: true, payload: NoPayload}
			dir.children = append(dir.children, child)
			if err := p.parseDir(child, i, raw.size); err != nil {
				return err
			}
			i = raw.size
		default:
			return formatErr(ErrMalformed, p.nodeOffset(i), "%q: unknown node type %d", name, raw.typ)
		}
	}
	return nil
}

// slot returns the payload slot for a data range, reusing the slot of an
// earlier node with the same range.
func (p *parser) slot(off, size uint32) PayloadID {
	key := [2]uint32{off, size}
	if id, ok := p.slots[key]; ok {
		return id
	}
	id := p.archive.AddPayload(slices.Clone(p.data[off : off+size]))
	p.slots[key] = id
	return id
}
