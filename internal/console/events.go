package console

import "encoding/binary"

const evKey = 0x01

// findKeyDown scans a buffer of input_event records for a key-down event
// whose code is in keys.
func findKeyDown(buf []byte, size, tvSize int, keys []uint16) (uint16, bool) {
	if size <= 0 {
		return 0, false
	}
	for off := 0; off+size <= len(buf); off += size {
		rec := buf[off : off+size]
		typ := binary.LittleEndian.Uint16(rec[tvSize : tvSize+2])
		code := binary.LittleEndian.Uint16(rec[tvSize+2 : tvSize+4])
		value := int32(binary.LittleEndian.Uint32(rec[tvSize+4 : tvSize+8]))
		if typ != evKey || value != 1 {
			continue
		}
		for _, k := range keys {
			if code == k {
				return code, true
			}
		}
	}
	return 0, false
}
