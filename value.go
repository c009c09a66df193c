package tinybits

// Kind identifies the type of a decoded Value, or a terminal reader state.
type Kind uint8

const (
	KindArray Kind = iota
	KindMap
	KindInt
	KindDouble
	KindStr
	KindBlob
	KindTrue
	KindFalse
	KindNull
	KindNaN
	KindInf
	KindNegInf
	KindExt
	KindSeparator
	KindDatetime
	KindFinished
	KindError
)

// String reports a short, human-readable name for k, mainly for test output
// and error messages.
func (k Kind) String() string {
	switch k {
	case KindArray:
		return "Array"
	case KindMap:
		return "Map"
	case KindInt:
		return "Int"
	case KindDouble:
		return "Double"
	case KindStr:
		return "Str"
	case KindBlob:
		return "Blob"
	case KindTrue:
		return "True"
	case KindFalse:
		return "False"
	case KindNull:
		return "Null"
	case KindNaN:
		return "NaN"
	case KindInf:
		return "Inf"
	case KindNegInf:
		return "NegInf"
	case KindExt:
		return "Ext"
	case KindSeparator:
		return "Separator"
	case KindDatetime:
		return "Datetime"
	case KindFinished:
		return "Finished"
	case KindError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Value holds the decoded payload for whichever Kind UnpackValue returned.
// Only the fields relevant to the returned Kind are meaningful; it is a
// flat struct rather than a tagged union because Go has no space-efficient
// sum type and the decode path is hot enough that avoiding an interface{}
// allocation per value matters (the C original uses a union for the same
// reason).
type Value struct {
	Int    int64   // KindInt
	Double float64 // KindDouble, KindDatetime (unix time)

	// KindStr, KindBlob: Bytes aliases directly into the Unpacker's
	// source buffer and is valid only for the buffer's lifetime.
	Bytes []byte

	// KindStr only. Follows the C union's signed convention exactly:
	//   StrID == 0  : literal, not recorded (too short/long, or table full)
	//   StrID  < 0  : literal, recorded at table position (-StrID)-1
	//   StrID  > 0  : back-reference resolved to table position StrID-1
	StrID int32

	Length int // KindMap (pair count), KindArray (element count)

	// KindDatetime only. Offset is in whole seconds, already expanded
	// from the wire's 15-minute-step byte.
	Offset int
}

// Datetime is the generic Go representation of a decoded KindDatetime
// value, used by Marshal/Unmarshal and DecodeValue.
type Datetime struct {
	Unixtime float64
	Offset   int
}
