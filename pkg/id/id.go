package id

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ID is a stream entry identifier.
type ID struct {
	Ms  uint64
	Seq uint64
}

var (
	// Min is the smallest id; rendered as "-".
	Min = ID{}
	// Max is the largest id; rendered as "+".
	Max = ID{Ms: math.MaxUint64, Seq: math.MaxUint64}
)

// Parse parses "<ms>-<seq>", "<ms>" (seq 0), "-" or "+".
func Parse(s string) (ID, error) {
	switch s {
	case "-":
		return Min, nil
	case "+":
		return Max, nil
	case "":
		return ID{}, fmt.Errorf("id: empty")
	}
	msPart, seqPart, hasSeq := strings.Cut(s, "-")
	ms, err := strconv.ParseUint(msPart, 10, 64)
	if err != nil {
		return ID{}, fmt.Errorf("id: invalid ms in %q: %w", s, err)
	}
	var seq uint64
	if hasSeq {
		seq, err = strconv.ParseUint(seqPart, 10, 64)
		if err != nil {
			return ID{}, fmt.Errorf("id: invalid seq in %q: %w", s, err)
		}
	}
	return ID{Ms: ms, Seq: seq}, nil
}

// MustParse is Parse for ids known to be well formed (tests, constants).
func MustParse(s string) ID {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String renders the id in the form Redis accepts.
func (i ID) String() string {
	switch i {
	case Min:
		return "-"
	case Max:
		return "+"
	}
	return strconv.FormatUint(i.Ms, 10) + "-" + strconv.FormatUint(i.Seq, 10)
}

// Time returns the insertion time encoded in the id.
func (i ID) Time() time.Time { return time.UnixMilli(int64(i.Ms)) }

// Compare returns -1, 0, 1.
func (i ID) Compare(other ID) int {
	switch {
	case i.Ms < other.Ms:
		return -1
	case i.Ms > other.Ms:
		return 1
	case i.Seq < other.Seq:
		return -1
	case i.Seq > other.Seq:
		return 1
	}
	return 0
}

// Next returns the smallest id strictly greater than i. Max is returned unchanged.
func (i ID) Next() ID {
	if i == Max {
		return i
	}
	if i.Seq == math.MaxUint64 {
		return ID{Ms: i.Ms + 1}
	}
	return ID{Ms: i.Ms, Seq: i.Seq + 1}
}

// Prev returns the largest id strictly smaller than i. Min is returned unchanged.
func (i ID) Prev() ID {
	if i == Min {
		return i
	}
	if i.Seq == 0 {
		return ID{Ms: i.Ms - 1, Seq: math.MaxUint64}
	}
	return ID{Ms: i.Ms, Seq: i.Seq - 1}
}
