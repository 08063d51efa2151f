// Package bmff reads the subset of ISO-BMFF boxes needed to answer one
// question about a HEIF image: does its primary item carry an
// orientation-altering transform (irot/imir) in its item properties?
//
// Boxes are modeled as flat byte ranges into the caller's buffer rather
// than a parse tree; descending into a container box means re-walking a
// narrower region. All parsing is best-effort: malformed or truncated
// input stops iteration, it never produces an error.
package bmff

import "encoding/binary"

// BoxType is a 4-byte box tag.
type BoxType [4]byte

func (t BoxType) String() string { return string(t[:]) }

// Box tags used to resolve primary-item orientation.
var (
	TypeMeta = BoxType{'m', 'e', 't', 'a'}
	TypePitm = BoxType{'p', 'i', 't', 'm'}
	TypeIprp = BoxType{'i', 'p', 'r', 'p'}
	TypeIpco = BoxType{'i', 'p', 'c', 'o'}
	TypeIpma = BoxType{'i', 'p', 'm', 'a'}
	TypeIrot = BoxType{'i', 'r', 'o', 't'}
	TypeImir = BoxType{'i', 'm', 'i', 'r'}

	typeUUID = BoxType{'u', 'u', 'i', 'd'}
)

// Box is a view into a byte buffer: [Start, End) spans the whole box
// including its header, [PayloadStart, End) spans its payload. Boxes
// never own the bytes they describe.
type Box struct {
	Type         BoxType
	Start        int
	PayloadStart int
	End          int
}

const maxInt = int(^uint(0) >> 1)

// WalkBoxes yields every top-level box fully contained in buf[start:end],
// in order. The walker handles the standard 8-byte header, the 64-bit
// extended size form (size32 == 1), the extends-to-end form (size32 == 0)
// and the extra 16-byte extended-type field of "uuid" boxes. It stops,
// without failing, at the first point parsing cannot safely continue.
//
// WalkBoxes is not recursive; to descend into a container box, call it
// again on the box's payload range.
func WalkBoxes(buf []byte, start, end int) []Box {
	if start < 0 {
		start = 0
	}
	if end > len(buf) {
		end = len(buf)
	}

	var boxes []Box
	cursor := start
	for cursor+8 <= end {
		boxStart := cursor
		size32 := binary.BigEndian.Uint32(buf[cursor : cursor+4])
		var typ BoxType
		copy(typ[:], buf[cursor+4:cursor+8])
		cursor += 8

		var boxSize int
		switch size32 {
		case 1:
			// 64-bit extended size follows the type tag.
			if cursor+8 > end {
				return boxes
			}
			size64 := binary.BigEndian.Uint64(buf[cursor : cursor+8])
			if size64 > uint64(maxInt) {
				return boxes
			}
			boxSize = int(size64)
			cursor += 8
		case 0:
			// Extends to the end of the enclosing region.
			boxSize = end - boxStart
		default:
			boxSize = int(size32)
		}

		if typ == typeUUID {
			if cursor+16 > end {
				return boxes
			}
			cursor += 16
		}

		headerSize := cursor - boxStart
		if boxSize < headerSize {
			return boxes
		}
		boxEnd := boxStart + boxSize
		if boxEnd > end {
			return boxes
		}

		boxes = append(boxes, Box{Type: typ, Start: boxStart, PayloadStart: cursor, End: boxEnd})
		cursor = boxEnd
		if size32 == 0 {
			// By construction no further boxes follow in this region.
			return boxes
		}
	}
	return boxes
}

func findBox(boxes []Box, typ BoxType) (Box, bool) {
	for _, b := range boxes {
		if b.Type == typ {
			return b, true
		}
	}
	return Box{}, false
}
