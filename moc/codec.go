// Public domain.

package moc

import (
	"encoding/binary"
	"errors"
	"hash/crc32"

	"github.com/soniakeys/gwmoc/healpix"
)

// Binary encoding, version 1:
//
//	"GMOC"           magic
//	version          1 byte
//	max order        1 byte
//	n                uvarint, number of ranges
//	n times:
//	  gap            uvarint, Lo minus Hi of previous range (first: Lo)
//	  length         uvarint, Hi minus Lo
//	crc              4 bytes little endian, IEEE CRC-32 of all prior bytes
//
// Gaps after the first are at least 1 and lengths at least 1, so the
// encoding of a MOC is unique.
const (
	magic         = "GMOC"
	formatVersion = 1
)

// MarshalBinary encodes m in the binary format.
func (m *MOC) MarshalBinary() ([]byte, error) {
	b := make([]byte, 0, 6+binary.MaxVarintLen64*(1+2*len(m.rs))+4)
	b = append(b, magic...)
	b = append(b, formatVersion, byte(m.depth))
	b = binary.AppendUvarint(b, uint64(len(m.rs)))
	var prev uint64
	for _, r := range m.rs {
		b = binary.AppendUvarint(b, r.Lo-prev)
		b = binary.AppendUvarint(b, r.Hi-r.Lo)
		prev = r.Hi
	}
	return binary.LittleEndian.AppendUint32(b, crc32.ChecksumIEEE(b)), nil
}

// UnmarshalBinary decodes data produced by MarshalBinary into m, which
// should be a zero MOC.  Any corruption is a Serialization error.
func (m *MOC) UnmarshalBinary(data []byte) error {
	d, err := Decode(data)
	if err != nil {
		return err
	}
	*m = *d
	return nil
}

var errTruncated = errors.New("truncated")

// Decode decodes a MOC from the binary format.
func Decode(data []byte) (*MOC, error) {
	const op = "moc.Decode"
	if len(data) < len(magic)+2+1+4 {
		return nil, corrupt(op, "short data", errTruncated)
	}
	body, sum := data[:len(data)-4], data[len(data)-4:]
	if string(body[:len(magic)]) != magic {
		return nil, corrupt(op, "bad magic", nil)
	}
	if crc32.ChecksumIEEE(body) != binary.LittleEndian.Uint32(sum) {
		return nil, corrupt(op, "checksum mismatch", nil)
	}
	if v := body[len(magic)]; v != formatVersion {
		return nil, corrupt(op, "unknown format version", nil)
	}
	depth := int(body[len(magic)+1])
	if depth > healpix.MaxOrder {
		return nil, corrupt(op, "max order out of range", nil)
	}
	p := body[len(magic)+2:]
	uvarint := func() (uint64, error) {
		v, n := binary.Uvarint(p)
		if n <= 0 {
			return 0, errTruncated
		}
		p = p[n:]
		return v, nil
	}
	n, err := uvarint()
	if err != nil {
		return nil, corrupt(op, "range count", err)
	}
	npix := healpix.NPix(depth)
	// every range takes at least two bytes
	if n > uint64(len(p))/2 {
		return nil, corrupt(op, "range count exceeds data", errTruncated)
	}
	rs := make([]Range, 0, n)
	var prev uint64
	for i := uint64(0); i < n; i++ {
		gap, err := uvarint()
		if err != nil {
			return nil, corrupt(op, "range gap", err)
		}
		length, err := uvarint()
		if err != nil {
			return nil, corrupt(op, "range length", err)
		}
		switch {
		case i > 0 && gap == 0:
			return nil, corrupt(op, "adjacent ranges", nil)
		case length == 0:
			return nil, corrupt(op, "empty range", nil)
		case gap > npix-prev || length > npix-prev-gap:
			return nil, corrupt(op, "range beyond last cell", nil)
		}
		lo := prev + gap
		rs = append(rs, Range{lo, lo + length})
		prev = lo + length
	}
	if len(p) != 0 {
		return nil, corrupt(op, "trailing bytes", nil)
	}
	return fromNormal(depth, rs), nil
}
