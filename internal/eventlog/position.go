package eventlog

import (
	"encoding/binary"
	"strconv"
)

// Position identifies a log entry by its sequence (8 bytes big-endian).
// The zero Position sorts before every appended entry.
type Position [8]byte

// PositionFromSeq builds the Position for a sequence number.
func PositionFromSeq(seq uint64) Position {
	var p Position
	binary.BigEndian.PutUint64(p[:], seq)
	return p
}

// Seq returns the sequence encoded in p.
func (p Position) Seq() uint64 { return binary.BigEndian.Uint64(p[:]) }

// IsZero reports whether p precedes every entry.
func (p Position) IsZero() bool { return p.Seq() == 0 }

// Compare returns -1, 0, or 1 ordering p against o.
func (p Position) Compare(o Position) int {
	a, b := p.Seq(), o.Seq()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (p Position) String() string { return strconv.FormatUint(p.Seq(), 10) }
