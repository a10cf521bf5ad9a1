package record

import (
	"encoding/binary"
	"fmt"

	heaptrace "github.com/embtrace/heap-trace"
	"github.com/embtrace/heap-trace/errors"
)

// Op identifies the heap operation a record describes.
type Op uint8

const (
	OpInit Op = iota
	OpMalloc
	OpFree
	OpRealloc
)

// String returns the operation name. Unknown values are reported, not
// rejected; readers must tolerate operations newer than themselves.
func (o Op) String() string {
	switch o {
	case OpInit:
		return "init"
	case OpMalloc:
		return "malloc"
	case OpFree:
		return "free"
	case OpRealloc:
		return "realloc"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(o))
	}
}

// FlagHeapBoundsValid marks an Init record whose base/size fields are
// meaningful rather than zero placeholders.
const FlagHeapBoundsValid uint32 = 1 << 0

// Size is the exact wire size of every record, in bytes.
const Size = 24

// Record is one observed heap operation. See the package documentation
// for the wire layout and per-operation argument meanings.
type Record struct {
	Op          Op
	TimestampUS uint64
	Arg1        uint32
	Arg2        uint32
	Arg3        uint32
}

// Init builds the initialization record carrying the traced heap bounds.
func Init(ts uint64, bounds heaptrace.HeapBounds) Record {
	var flags uint32
	if bounds.Valid {
		flags |= FlagHeapBoundsValid
	}
	return Record{Op: OpInit, TimestampUS: ts, Arg1: bounds.Base, Arg2: bounds.Size, Arg3: flags}
}

// Malloc builds an allocation record. ptr is 0 when the allocation failed.
func Malloc(ts uint64, size, ptr uint32) Record {
	return Record{Op: OpMalloc, TimestampUS: ts, Arg1: size, Arg2: ptr}
}

// Free builds a deallocation record. ptr 0 is a recorded null free.
func Free(ts uint64, ptr uint32) Record {
	return Record{Op: OpFree, TimestampUS: ts, Arg1: ptr}
}

// Realloc builds a reallocation record covering all three realloc modes:
// oldPtr 0 is malloc-like, size 0 is free-like, otherwise a true resize.
func Realloc(ts uint64, oldPtr, size, newPtr uint32) Record {
	return Record{Op: OpRealloc, TimestampUS: ts, Arg1: oldPtr, Arg2: size, Arg3: newPtr}
}

// AppendEncode appends the wire encoding of r to dst and returns the
// extended slice. Padding and reserved bytes are always zero.
func (r Record) AppendEncode(dst []byte) []byte {
	dst = append(dst, byte(r.Op), 0, 0, 0)
	dst = binary.NativeEndian.AppendUint64(dst, r.TimestampUS)
	dst = binary.NativeEndian.AppendUint32(dst, r.Arg1)
	dst = binary.NativeEndian.AppendUint32(dst, r.Arg2)
	dst = binary.NativeEndian.AppendUint32(dst, r.Arg3)
	return dst
}

// Decode reads one record from the first Size bytes of b. Padding and
// reserved bytes are ignored. Unknown operations decode normally.
func Decode(b []byte) (Record, error) {
	if len(b) < Size {
		return Record{}, errors.Truncated(len(b), Size)
	}
	return Record{
		Op:          Op(b[0]),
		TimestampUS: binary.NativeEndian.Uint64(b[4:]),
		Arg1:        binary.NativeEndian.Uint32(b[12:]),
		Arg2:        binary.NativeEndian.Uint32(b[16:]),
		Arg3:        binary.NativeEndian.Uint32(b[20:]),
	}, nil
}

// String renders a short human-readable form, used by debug logging and
// the live monitor. The parseable fallback format lives in the tracer.
func (r Record) String() string {
	switch r.Op {
	case OpInit:
		if r.Arg3&FlagHeapBoundsValid != 0 {
			return fmt.Sprintf("init heap=0x%x size=%d", r.Arg1, r.Arg2)
		}
		return "init heap=unknown"
	case OpMalloc:
		return fmt.Sprintf("malloc size=%d ptr=0x%x", r.Arg1, r.Arg2)
	case OpFree:
		return fmt.Sprintf("free ptr=0x%x", r.Arg1)
	case OpRealloc:
		return fmt.Sprintf("realloc old=0x%x size=%d new=0x%x", r.Arg1, r.Arg2, r.Arg3)
	default:
		return fmt.Sprintf("%s ts=%d", r.Op, r.TimestampUS)
	}
}
