package bmff

import "encoding/binary"

// ItemProperty is one child box of an ipco container. Its 1-based
// position in the combined property list is the property index that
// ipma associations refer to. Payload is a view into the file buffer.
type ItemProperty struct {
	Type    BoxType
	Payload []byte
}

// HasPrimaryItemOrientationTransform reports whether the primary item of
// a HEIF-family file has a non-identity orientation transform (an imir
// mirror, or an irot rotation with a non-zero quarter-turn count)
// attached via its item properties.
//
// Structural anomalies of any kind (missing boxes, truncated payloads,
// unknown versions) yield false; this function never fails.
func HasPrimaryItemOrientationTransform(buf []byte) bool {
	top := WalkBoxes(buf, 0, len(buf))
	meta, ok := findBox(top, TypeMeta)
	if !ok {
		return false
	}

	// meta is a full box: skip the 4-byte version+flags field before
	// walking its children.
	if meta.PayloadStart+4 > meta.End {
		return false
	}
	children := WalkBoxes(buf, meta.PayloadStart+4, meta.End)

	pitm, ok := findBox(children, TypePitm)
	if !ok {
		return false
	}
	primaryItemID, ok := parsePrimaryItemID(buf, pitm)
	if !ok {
		return false
	}

	// iprp is a plain container box, no header skip.
	iprp, ok := findBox(children, TypeIprp)
	if !ok {
		return false
	}
	iprpChildren := WalkBoxes(buf, iprp.PayloadStart, iprp.End)

	var properties []ItemProperty
	for _, b := range iprpChildren {
		if b.Type == TypeIpco {
			properties = append(properties, propertiesIn(buf, b)...)
		}
	}
	if len(properties) == 0 {
		return false
	}

	var associated []int
	for _, b := range iprpChildren {
		if b.Type == TypeIpma {
			associated = append(associated, primaryItemAssociations(buf, b, primaryItemID)...)
		}
	}
	if len(associated) == 0 {
		return false
	}

	for _, index := range associated {
		if index > len(properties) {
			continue
		}
		prop := properties[index-1]
		if prop.Type == TypeImir {
			return true
		}
		if prop.Type == TypeIrot && len(prop.Payload) > 0 && prop.Payload[0]&0x03 != 0 {
			return true
		}
	}
	return false
}

// parsePrimaryItemID reads the item id from a pitm box. The id is 16-bit
// for version 0 and 32-bit for version 1; any other version means the
// primary item cannot be determined.
func parsePrimaryItemID(buf []byte, pitm Box) (uint32, bool) {
	if pitm.PayloadStart+4 > pitm.End {
		return 0, false
	}
	version := buf[pitm.PayloadStart]
	cursor := pitm.PayloadStart + 4
	switch version {
	case 0:
		if cursor+2 > pitm.End {
			return 0, false
		}
		return uint32(binary.BigEndian.Uint16(buf[cursor : cursor+2])), true
	case 1:
		if cursor+4 > pitm.End {
			return 0, false
		}
		return binary.BigEndian.Uint32(buf[cursor : cursor+4]), true
	}
	return 0, false
}

// propertiesIn lists the child boxes of one ipco container in encounter
// order.
func propertiesIn(buf []byte, ipco Box) []ItemProperty {
	var properties []ItemProperty
	for _, b := range WalkBoxes(buf, ipco.PayloadStart, ipco.End) {
		properties = append(properties, ItemProperty{Type: b.Type, Payload: buf[b.PayloadStart:b.End]})
	}
	return properties
}

// primaryItemAssociations parses an ipma box and returns the property
// indexes associated with primaryItemID, in order. Flags bit 0 selects
// 15-bit association records instead of 7-bit ones; the high "essential"
// bit is ignored, and the reserved index 0 is skipped.
//
// Parsing is fail-open: on truncation, whatever associations were
// already collected are returned rather than discarded.
func primaryItemAssociations(buf []byte, ipma Box, primaryItemID uint32) []int {
	if ipma.PayloadStart+8 > ipma.End {
		return nil
	}
	version := buf[ipma.PayloadStart]
	flags := uint32(buf[ipma.PayloadStart+1])<<16 |
		uint32(buf[ipma.PayloadStart+2])<<8 |
		uint32(buf[ipma.PayloadStart+3])
	cursor := ipma.PayloadStart + 4
	entryCount := binary.BigEndian.Uint32(buf[cursor : cursor+4])
	cursor += 4
	useExtendedIndex := flags&0x1 != 0

	var associations []int
	for i := uint32(0); i < entryCount; i++ {
		var itemID uint32
		switch version {
		case 0:
			if cursor+2 > ipma.End {
				return associations
			}
			itemID = uint32(binary.BigEndian.Uint16(buf[cursor : cursor+2]))
			cursor += 2
		case 1:
			if cursor+4 > ipma.End {
				return associations
			}
			itemID = binary.BigEndian.Uint32(buf[cursor : cursor+4])
			cursor += 4
		default:
			return associations
		}

		if cursor+1 > ipma.End {
			return associations
		}
		associationCount := int(buf[cursor])
		cursor++

		for j := 0; j < associationCount; j++ {
			var propertyIndex int
			if useExtendedIndex {
				if cursor+2 > ipma.End {
					return associations
				}
				propertyIndex = int(binary.BigEndian.Uint16(buf[cursor:cursor+2])) & 0x7FFF
				cursor += 2
			} else {
				if cursor+1 > ipma.End {
					return associations
				}
				propertyIndex = int(buf[cursor]) & 0x7F
				cursor++
			}

			if itemID == primaryItemID && propertyIndex > 0 {
				associations = append(associations, propertyIndex)
			}
		}
	}
	return associations
}
