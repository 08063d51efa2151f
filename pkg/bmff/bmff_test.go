package bmff

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// makeBox builds a box with a standard 8-byte header.
func makeBox(typ string, payload []byte) []byte {
	buf := make([]byte, 8, 8+len(payload))
	binary.BigEndian.PutUint32(buf[:4], uint32(8+len(payload)))
	copy(buf[4:8], typ)
	return append(buf, payload...)
}

// makeExtBox builds a box using the 64-bit extended size form.
func makeExtBox(typ string, payload []byte) []byte {
	buf := make([]byte, 16, 16+len(payload))
	binary.BigEndian.PutUint32(buf[:4], 1)
	copy(buf[4:8], typ)
	binary.BigEndian.PutUint64(buf[8:16], uint64(16+len(payload)))
	return append(buf, payload...)
}

// makeFullBox prepends a version+flags field to the payload.
func makeFullBox(typ string, version uint8, flags uint32, payload []byte) []byte {
	header := []byte{version, byte(flags >> 16), byte(flags >> 8), byte(flags)}
	return makeBox(typ, append(header, payload...))
}

func u16be(v uint16) []byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return b[:]
}

func u32be(v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return b[:]
}

// heifFixture assembles meta{pitm, iprp{ipco, ipma}} with the given
// primary item id, ipco properties and ipma entry payload.
func heifFixture(primaryItemID uint16, properties [][]byte, ipmaFlags uint32, ipmaEntries []byte, entryCount uint32) []byte {
	pitm := makeFullBox("pitm", 0, 0, u16be(primaryItemID))
	ipco := makeBox("ipco", bytes.Join(properties, nil))
	ipma := makeFullBox("ipma", 0, ipmaFlags, append(u32be(entryCount), ipmaEntries...))
	iprp := makeBox("iprp", append(ipco, ipma...))
	return makeFullBox("meta", 0, 0, append(pitm, iprp...))
}

// ipmaEntry encodes one version-0 entry with 1-byte association records.
func ipmaEntry(itemID uint16, indexes ...byte) []byte {
	entry := append(u16be(itemID), byte(len(indexes)))
	return append(entry, indexes...)
}

func TestWalkBoxesSpansAreContiguous(t *testing.T) {
	buf := bytes.Join([][]byte{
		makeBox("ftyp", []byte("heicmif1")),
		makeBox("free", make([]byte, 5)),
		makeBox("mdat", []byte{1, 2, 3}),
	}, nil)

	boxes := WalkBoxes(buf, 0, len(buf))
	if len(boxes) != 3 {
		t.Fatalf("expected 3 boxes, got %d", len(boxes))
	}

	cursor := 0
	for i, b := range boxes {
		if b.Start != cursor {
			t.Errorf("box %d starts at %d, expected %d", i, b.Start, cursor)
		}
		if b.PayloadStart != b.Start+8 {
			t.Errorf("box %d payload starts at %d, expected %d", i, b.PayloadStart, b.Start+8)
		}
		if b.End <= b.Start {
			t.Errorf("box %d has non-increasing span [%d, %d)", i, b.Start, b.End)
		}
		cursor = b.End
	}
	if cursor != len(buf) {
		t.Errorf("boxes consumed %d bytes, expected %d", cursor, len(buf))
	}
}

func TestWalkBoxesExtendedSize(t *testing.T) {
	payload := make([]byte, 10)
	buf := makeExtBox("mdat", payload)

	boxes := WalkBoxes(buf, 0, len(buf))
	if len(boxes) != 1 {
		t.Fatalf("expected 1 box, got %d", len(boxes))
	}
	b := boxes[0]
	if got, want := b.End-b.Start, 16+len(payload); got != want {
		t.Errorf("box span is %d bytes, expected %d", got, want)
	}
	if b.PayloadStart != 16 {
		t.Errorf("payload starts at %d, expected 16 (after extended header)", b.PayloadStart)
	}
}

func TestWalkBoxesSizeZeroReachesRegionEnd(t *testing.T) {
	first := makeBox("ftyp", []byte("heic"))
	last := make([]byte, 8+7)
	binary.BigEndian.PutUint32(last[:4], 0)
	copy(last[4:8], "mdat")
	buf := append(first, last...)

	boxes := WalkBoxes(buf, 0, len(buf))
	if len(boxes) != 2 {
		t.Fatalf("expected 2 boxes, got %d", len(boxes))
	}
	if boxes[1].End != len(buf) {
		t.Errorf("size-0 box ends at %d, expected region end %d", boxes[1].End, len(buf))
	}
}

func TestWalkBoxesUUIDExtendedType(t *testing.T) {
	payload := []byte{0xAA, 0xBB}
	body := append(bytes.Repeat([]byte{0x42}, 16), payload...)
	buf := makeBox("uuid", body)

	boxes := WalkBoxes(buf, 0, len(buf))
	if len(boxes) != 1 {
		t.Fatalf("expected 1 box, got %d", len(boxes))
	}
	// The 16-byte extended type is part of the header, not the payload.
	if got, want := boxes[0].PayloadStart, 8+16; got != want {
		t.Errorf("payload starts at %d, expected %d", got, want)
	}
}

func TestWalkBoxesStopsOnTruncation(t *testing.T) {
	cases := []struct {
		name string
		buf  []byte
		want int
	}{
		{"declared size exceeds region", append(u32be(100), []byte("mdatrest")...), 0},
		{"size below header size", append(u32be(4), []byte("mdat")...), 0},
		{"short trailer ignored", append(makeBox("ftyp", nil), 0, 0), 1},
		{"truncated extended size", append(u32be(1), []byte("mdat")...), 0},
	}
	for _, tc := range cases {
		boxes := WalkBoxes(tc.buf, 0, len(tc.buf))
		if len(boxes) != tc.want {
			t.Errorf("%s: expected %d boxes, got %d", tc.name, tc.want, len(boxes))
		}
	}
}

func TestWalkBoxesSubRegion(t *testing.T) {
	inner := makeBox("pitm", []byte{0, 0, 0, 0, 0, 1})
	outer := makeBox("meta", inner)

	top := WalkBoxes(outer, 0, len(outer))
	if len(top) != 1 {
		t.Fatalf("expected 1 outer box, got %d", len(top))
	}
	children := WalkBoxes(outer, top[0].PayloadStart, top[0].End)
	if len(children) != 1 || children[0].Type != TypePitm {
		t.Fatalf("expected a pitm child, got %v", children)
	}
}

func TestPrimaryTransformDetected(t *testing.T) {
	properties := [][]byte{
		makeBox("irot", []byte{0x00}),
		makeBox("irot", []byte{0x01}),
	}
	// Association points at the second irot (rotation code 1).
	buf := heifFixture(1, properties, 0, ipmaEntry(1, 2), 1)

	if !HasPrimaryItemOrientationTransform(buf) {
		t.Error("expected transform present for non-zero irot")
	}
}

func TestPrimaryTransformAbsentForZeroRotation(t *testing.T) {
	properties := [][]byte{
		makeBox("irot", []byte{0x00}),
		makeBox("irot", []byte{0x01}),
	}
	// Association points at the first irot (rotation code 0).
	buf := heifFixture(1, properties, 0, ipmaEntry(1, 1), 1)

	if HasPrimaryItemOrientationTransform(buf) {
		t.Error("expected no transform for zero-rotation irot")
	}
}

func TestPrimaryTransformMirror(t *testing.T) {
	properties := [][]byte{
		makeBox("ispe", u32be(100)),
		makeBox("imir", []byte{0x01}),
	}
	buf := heifFixture(7, properties, 0, ipmaEntry(7, 2), 1)

	if !HasPrimaryItemOrientationTransform(buf) {
		t.Error("expected transform present for imir")
	}
}

func TestPrimaryTransformIgnoresOtherItems(t *testing.T) {
	properties := [][]byte{makeBox("irot", []byte{0x03})}
	// The only association belongs to item 9, not the primary item 1.
	buf := heifFixture(1, properties, 0, ipmaEntry(9, 1), 1)

	if HasPrimaryItemOrientationTransform(buf) {
		t.Error("associations of other items must not count")
	}
}

func TestPrimaryTransformOutOfRangeIndexSkipped(t *testing.T) {
	properties := [][]byte{makeBox("irot", []byte{0x00})}
	buf := heifFixture(1, properties, 0, ipmaEntry(1, 5), 1)

	if HasPrimaryItemOrientationTransform(buf) {
		t.Error("out-of-range property index must be ignored")
	}
}

func TestPrimaryTransformExtendedPropertyIndex(t *testing.T) {
	properties := [][]byte{
		makeBox("irot", []byte{0x00}),
		makeBox("irot", []byte{0x02}),
	}
	// Flags bit 0 set: 2-byte records, high bit is the essential flag.
	entry := append(u16be(1), 1)
	entry = append(entry, u16be(0x8002)...)
	buf := heifFixture(1, properties, 1, entry, 1)

	if !HasPrimaryItemOrientationTransform(buf) {
		t.Error("expected transform via extended property index")
	}
}

func TestPrimaryTransformNoMetaBox(t *testing.T) {
	buf := makeBox("ftyp", []byte("heicmif1"))
	if HasPrimaryItemOrientationTransform(buf) {
		t.Error("expected no transform without a meta box")
	}
	if HasPrimaryItemOrientationTransform(nil) {
		t.Error("expected no transform for empty input")
	}
}

func TestIpmaEntryCountPastPayloadEnd(t *testing.T) {
	properties := [][]byte{makeBox("irot", []byte{0x01})}
	// Declares 1000 entries but provides only one; the parser must stop
	// at the truncation and keep the association it already collected.
	buf := heifFixture(1, properties, 0, ipmaEntry(1, 1), 1000)

	if !HasPrimaryItemOrientationTransform(buf) {
		t.Error("expected partial associations from a truncated ipma to be kept")
	}
}

func TestIpmaUnknownVersionAborts(t *testing.T) {
	pitm := makeFullBox("pitm", 0, 0, u16be(1))
	ipco := makeBox("ipco", makeBox("irot", []byte{0x01}))
	ipma := makeFullBox("ipma", 3, 0, append(u32be(1), ipmaEntry(1, 1)...))
	iprp := makeBox("iprp", append(ipco, ipma...))
	buf := makeFullBox("meta", 0, 0, append(pitm, iprp...))

	if HasPrimaryItemOrientationTransform(buf) {
		t.Error("unknown ipma version must abort that box")
	}
}

func TestPitmVersionOne(t *testing.T) {
	pitm := makeFullBox("pitm", 1, 0, u32be(70000))
	ipco := makeBox("ipco", makeBox("imir", []byte{0x00}))
	entry := append(u32be(70000), 1, 1)
	ipma := makeFullBox("ipma", 1, 0, append(u32be(1), entry...))
	iprp := makeBox("iprp", append(ipco, ipma...))
	buf := makeFullBox("meta", 0, 0, append(pitm, iprp...))

	if !HasPrimaryItemOrientationTransform(buf) {
		t.Error("expected transform via 32-bit item ids")
	}
}

func TestPitmUnknownVersion(t *testing.T) {
	pitm := makeFullBox("pitm", 2, 0, u16be(1))
	ipco := makeBox("ipco", makeBox("imir", []byte{0x00}))
	ipma := makeFullBox("ipma", 0, 0, append(u32be(1), ipmaEntry(1, 1)...))
	iprp := makeBox("iprp", append(ipco, ipma...))
	buf := makeFullBox("meta", 0, 0, append(pitm, iprp...))

	if HasPrimaryItemOrientationTransform(buf) {
		t.Error("unknown pitm version means no usable primary item")
	}
}

func TestPropertiesConcatenatedAcrossIpcoBoxes(t *testing.T) {
	pitm := makeFullBox("pitm", 0, 0, u16be(1))
	ipco1 := makeBox("ipco", makeBox("irot", []byte{0x00}))
	ipco2 := makeBox("ipco", makeBox("irot", []byte{0x01}))
	// Index 2 lands in the second ipco's first property.
	ipma := makeFullBox("ipma", 0, 0, append(u32be(1), ipmaEntry(1, 2)...))
	iprp := makeBox("iprp", bytes.Join([][]byte{ipco1, ipco2, ipma}, nil))
	buf := makeFullBox("meta", 0, 0, append(pitm, iprp...))

	if !HasPrimaryItemOrientationTransform(buf) {
		t.Error("property index must span all ipco boxes in order")
	}
}

func BenchmarkHasPrimaryItemOrientationTransform(b *testing.B) {
	properties := [][]byte{
		makeBox("ispe", append(u32be(4032), u32be(3024)...)),
		makeBox("irot", []byte{0x01}),
	}
	buf := heifFixture(1, properties, 0, ipmaEntry(1, 1, 2), 1)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		HasPrimaryItemOrientationTransform(buf)
	}
}
