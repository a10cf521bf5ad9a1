package tracer

import (
	"fmt"

	"github.com/embtrace/heap-trace/record"
)

// Text fallback marker lines. Everything between them is one
// RECORD:... line per buffered record, parseable by trace tooling even
// when the binary transport is down.
const (
	traceStartMarker = "--- HEAP_TRACE_START ---"
	traceEndMarker   = "--- HEAP_TRACE_END ---"
)

// emitTextTrace renders every buffered record as a structured text line
// through the log hook. Caller holds the lock.
func (t *Tracer) emitTextTrace() {
	t.logf("%s\n", traceStartMarker)
	for i, rec := range t.buf.Records() {
		t.logf("%s\n", fallbackLine(i, rec))
	}
	t.logf("%s\n", traceEndMarker)
}

// fallbackLine renders one record in the text fallback format:
// RECORD:<index>,OP:<op>,TIME:<ts> plus operation-specific fields.
// Unknown operations carry no extra fields rather than failing.
func fallbackLine(i int, rec record.Record) string {
	line := fmt.Sprintf("RECORD:%d,OP:%d,TIME:%d", i, uint8(rec.Op), rec.TimestampUS)
	switch rec.Op {
	case record.OpInit:
		line += fmt.Sprintf(",HEAP_BASE:0x%x,HEAP_SIZE:%d,FLAGS:0x%x", rec.Arg1, rec.Arg2, rec.Arg3)
	case record.OpMalloc:
		line += fmt.Sprintf(",SIZE:%d,PTR:0x%x", rec.Arg1, rec.Arg2)
	case record.OpFree:
		line += fmt.Sprintf(",PTR:0x%x", rec.Arg1)
	case record.OpRealloc:
		line += fmt.Sprintf(",OLD_PTR:0x%x,SIZE:%d,NEW_PTR:0x%x", rec.Arg1, rec.Arg2, rec.Arg3)
	}
	return line
}
