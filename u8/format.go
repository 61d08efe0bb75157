package u8

import (
	"fmt"
	"io"
	"strings"
)

const (
	formatIndent      = 2
	formatOffsetWidth = 60
	formatSizeWidth   = 10
)

// Format writes a listing of the archive's name table, one node per line,
// with the payload offset and size each file would have after Serialize.
// Names that share a payload show the same offset.
func (a *Archive) Format(w io.Writer) error {
	l, err := plan(a)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%-*s%s%*s\n", formatOffsetWidth-len("OFFSET"), "FILENAME", "OFFSET", formatSizeWidth, "SIZE"); err != nil {
		return err
	}
	depth := make([]int, len(l.nodes))
	for i, fn := range l.nodes {
		if i > 0 {
			depth[i] = depth[fn.parent] + 1
		}
		indent := strings.Repeat(" ", depth[i]*formatIndent)
		if fn.node.dir {
			_, err = fmt.Fprintf(w, "%s%s/\n", indent, fn.node.name)
		} else {
			name := indent + fn.node.name
			offset := fmt.Sprintf(" %#x", l.slotOff[fn.node.payload])
			size := fmt.Sprintf(" %#x", len(a.payloads[fn.node.payload]))
			_, err = fmt.Fprintf(w, "%s%*s%*s\n", name, max(formatOffsetWidth-len(name), 0), offset, formatSizeWidth, size)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// String returns the Format listing, or the layout error text.
func (a *Archive) String() string {
	var b strings.Builder
	if err := a.Format(&b); err != nil {
		return err.Error()
	}
	return b.String()
}
