package core

// PenaltyKind is a single incurred penalty type. Per spec §3, PlusTwo and
// DNF are independent and cumulative within a side (pre-start/post-start).
type PenaltyKind int

const (
	plusTwoWeight = 2
	dnfWeight     = 1
)

// Side accumulates penalties incurred on one side of the solve start
// boundary (pre-start, i.e. during inspection, or post-start, i.e. during
// or after the timed solve).
type Side struct {
	plusTwoCount int
	dnf          bool
}

// IncurPlusTwo adds one +2 penalty (2000ms) to this side.
func (s *Side) IncurPlusTwo() { s.plusTwoCount++ }

// IncurDNF marks this side DNF. DNF is a flag, not cumulative.
func (s *Side) IncurDNF() { s.dnf = true }

func (s Side) IsDNF() bool { return s.dnf }

// PlusTwoCount is the number of +2 penalties incurred on this side.
func (s Side) PlusTwoCount() int { return s.plusTwoCount }

// PlusTwoMillis is the total time penalty in ms contributed by +2 counts
// on this side.
func (s Side) PlusTwoMillis() int64 { return int64(s.plusTwoCount) * 2000 }

// encode packs this side into a single byte: weight 2 is set when at least
// one +2 was incurred, weight 1 (the low bit) when DNF was. See Penalties
// for the full two-side packing, which keeps +2 counts, not just flags.
func (s Side) encode() byte {
	var b byte
	if s.plusTwoCount > 0 {
		b |= plusTwoWeight
	}
	if s.dnf {
		b |= dnfWeight
	}
	return b
}

func decodeSide(b byte, plusTwoCount int) Side {
	return Side{
		plusTwoCount: plusTwoCount,
		dnf:          b&dnfWeight != 0,
	}
}

// Penalties is the pair (pre-start, post-start) described in spec §3.
type Penalties struct {
	Pre  Side
	Post Side
}

// Encode packs Penalties for persistence: low byte = pre-start, next byte
// = post-start, each with weight 2 for +2 and weight 1 for DNF. The
// +2 *count* is carried alongside in a separate varint-friendly field
// because a solve may only ever accrue one pre-start +2 in practice (the
// inspection overrun), but the encoding does not assume that.
type EncodedPenalties struct {
	Flags        uint16 // low byte pre-start, high byte post-start
	PrePlusTwo   int32
	PostPlusTwo  int32
}

func (p Penalties) Encode() EncodedPenalties {
	return EncodedPenalties{
		Flags:       uint16(p.Pre.encode()) | uint16(p.Post.encode())<<8,
		PrePlusTwo:  int32(p.Pre.plusTwoCount),
		PostPlusTwo: int32(p.Post.plusTwoCount),
	}
}

func DecodePenalties(e EncodedPenalties) Penalties {
	return Penalties{
		Pre:  decodeSide(byte(e.Flags), int(e.PrePlusTwo)),
		Post: decodeSide(byte(e.Flags>>8), int(e.PostPlusTwo)),
	}
}

// IsDNF reports whether either side carries a DNF flag.
func (p Penalties) IsDNF() bool { return p.Pre.dnf || p.Post.dnf }
