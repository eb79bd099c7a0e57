package feature

// Space names one of the two parameter id spaces.
type Space uint8

const (
	ArcSpace Space = 1 << iota
	LabeledSpace
)

func (s Space) String() string {
	switch s {
	case ArcSpace:
		return "arc"
	case LabeledSpace:
		return "labeled"
	case ArcSpace | LabeledSpace:
		return "arc+labeled"
	default:
		return "none"
	}
}

// DefaultSpaceSize is the size of both id spaces unless configured otherwise.
const DefaultSpaceSize = 115911564

// HashCode maps code into [0, n). It is total over int64, including
// math.MinInt64 whose negation overflows.
func HashCode(code int64, n int) int {
	mixed := (code ^ int64((uint64(code)&0xffffffff00000000)>>32)) * 31
	id := mixed % int64(n)
	if id < 0 {
		id = -id
	}
	return int(id)
}
