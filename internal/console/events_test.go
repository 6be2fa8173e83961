package console

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	testTV   = 16
	testSize = testTV + 8
)

func event(typ, code uint16, value int32) []byte {
	rec := make([]byte, testSize)
	binary.LittleEndian.PutUint16(rec[testTV:], typ)
	binary.LittleEndian.PutUint16(rec[testTV+2:], code)
	binary.LittleEndian.PutUint32(rec[testTV+4:], uint32(value))
	return rec
}

func TestFindKeyDown(t *testing.T) {
	var buf []byte
	buf = append(buf, event(0x00, 0, 0)...)      // EV_SYN
	buf = append(buf, event(0x01, KeyQ, 1)...)   // not a quit key
	buf = append(buf, event(0x01, KeyEsc, 0)...) // release
	buf = append(buf, event(0x01, KeyF4, 2)...)  // autorepeat
	buf = append(buf, event(0x01, KeyEsc, 1)...) // press

	code, ok := findKeyDown(buf, testSize, testTV, DefaultQuitKeys)
	assert.True(t, ok)
	assert.Equal(t, KeyEsc, code)

	_, ok = findKeyDown(buf[:4*testSize], testSize, testTV, DefaultQuitKeys)
	assert.False(t, ok)

	_, ok = findKeyDown(buf[:testSize-1], testSize, testTV, DefaultQuitKeys)
	assert.False(t, ok, "partial record")

	_, ok = findKeyDown(buf, 0, testTV, DefaultQuitKeys)
	assert.False(t, ok)
}
