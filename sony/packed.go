package sony

import (
	"bytes"
	"encoding/binary"

	"github.com/icza/bitio"
)

// splitHalves breaks a packed 32 bit property value into its high and
// low 16 bit words.
func splitHalves(v uint32) (hi, lo uint16, err error) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	r := bitio.NewReader(bytes.NewReader(b[:]))
	h, err := r.ReadBits(16)
	if err != nil {
		return 0, 0, err
	}
	l, err := r.ReadBits(16)
	if err != nil {
		return 0, 0, err
	}
	return uint16(h), uint16(l), nil
}

func joinHalves(hi, lo uint16) (uint32, error) {
	var buf bytes.Buffer
	w := bitio.NewWriter(&buf)
	if err := w.WriteBits(uint64(hi), 16); err != nil {
		return 0, err
	}
	if err := w.WriteBits(uint64(lo), 16); err != nil {
		return 0, err
	}
	if err := w.Close(); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf.Bytes()), nil
}
