package u8

import (
	"encoding/binary"
	"fmt"

	"github.com/meigma/smallworld/internal/sizing"
)

// flatNode is a node placed in the serialized node table.
type flatNode struct {
	node    *Node
	path    string
	parent  int
	end     int
	nameOff int
}

// layout is the computed on-disk placement of an archive.
type layout struct {
	nodes     []flatNode
	strings   []byte
	dataOff   int
	slotOff   map[PayloadID]int
	slotOrder []PayloadID
	total     int
}

// plan lays the archive out without writing it. Every referenced payload
// slot gets exactly one aligned position, in order of first reference.
func plan(a *Archive) (*layout, error) {
	l := &layout{
		strings: []byte{0}, // root name
		slotOff: make(map[PayloadID]int),
	}
	l.nodes = append(l.nodes, flatNode{node: a.root})
	if err := l.flatten(a, a.root, "", 0); err != nil {
		return nil, err
	}
	l.nodes[0].end = len(l.nodes)

	tableSize := len(l.nodes)*nodeSize + len(l.strings)
	l.dataOff = sizing.AlignUp(headerSize+tableSize, DataAlignment)

	pos := l.dataOff
	for _, fn := range l.nodes {
		if fn.node.dir {
			continue
		}
		id := fn.node.payload
		if _, ok := l.slotOff[id]; ok {
			continue
		}
		pos = sizing.AlignUp(pos, DataAlignment)
		l.slotOff[id] = pos
		l.slotOrder = append(l.slotOrder, id)
		pos += len(a.payloads[id])
	}
	l.total = pos
	if _, err := sizing.ToUint32(l.total); err != nil {
		return nil, fmt.Errorf("archive size %#x: %w", l.total, err)
	}
	return l, nil
}

func (l *layout) flatten(a *Archive, dir *Node, dirPath string, dirIndex int) error {
	for _, c := range dir.children {
		if !c.dir && !a.validPayload(c.payload) {
			return fmt.Errorf("%w: %d", ErrInvalidPayload, c.payload)
		}
		nameOff := len(l.strings)
		if nameOff > sizing.MaxNameOffset {
			return fmt.Errorf("string table: %w", ErrSizeOverflow)
		}
		l.strings = append(l.strings, c.name...)
		l.strings = append(l.strings, 0)

		p := joinPath(dirPath, c.name)
		index := len(l.nodes)
		l.nodes = append(l.nodes, flatNode{node: c, path: p, parent: dirIndex, nameOff: nameOff})
		if c.dir {
			if err := l.flatten(a, c, p, index); err != nil {
				return err
			}
			l.nodes[index].end = len(l.nodes)
		}
	}
	return nil
}

// Serialize encodes an archive in U8 layout: header, node table, string
// table, then payloads each aligned to DataAlignment.
//
// Output is a deterministic function of the archive's tree, child order and
// payloads. Payload slots referenced by several names are written once;
// unreferenced slots are not written.
func Serialize(a *Archive) ([]byte, error) {
	l, err := plan(a)
	if err != nil {
		return nil, err
	}

	// plan has checked that every offset and count fits in 32 bits.
	buf := make([]byte, l.total)
	be := binary.BigEndian
	be.PutUint32(buf[0:], Magic)
	be.PutUint32(buf[4:], headerSize)
	be.PutUint32(buf[8:], uint32(len(l.nodes)*nodeSize+len(l.strings)))
	be.PutUint32(buf[12:], uint32(l.dataOff))

	off := headerSize
	for _, fn := range l.nodes {
		var typ, dataOff, size uint32
		if fn.node.dir {
			typ = typeDir
			dataOff = uint32(fn.parent)
			size = uint32(fn.end)
		} else {
			typ = typeFile
			dataOff = uint32(l.slotOff[fn.node.payload])
			size = uint32(len(a.payloads[fn.node.payload]))
		}
		be.PutUint32(buf[off:], typ<<24|uint32(fn.nameOff))
		be.PutUint32(buf[off+4:], dataOff)
		be.PutUint32(buf[off+8:], size)
		off += nodeSize
	}
	copy(buf[off:], l.strings)

	for _, id := range l.slotOrder {
		copy(buf[l.slotOff[id]:], a.payloads[id])
	}
	return buf, nil
}

// MarshalBinary implements encoding.BinaryMarshaler using Serialize.
func (a *Archive) MarshalBinary() ([]byte, error) {
	return Serialize(a)
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler using Parse,
// replacing the archive's contents.
func (a *Archive) UnmarshalBinary(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*a = *parsed
	return nil
}
