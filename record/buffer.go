package record

// DefaultBufferBytes is the byte budget used when none is configured.
const DefaultBufferBytes = 4096

// Buffer is an ordered, fixed-capacity sequence of records. Capacity is
// byte budget divided by record size, fixed at construction, never
// resized. The buffer never drops or overwrites on its own; the tracer
// flushes before appending to a full buffer.
//
// Buffer provides no locking. The tracer serializes access through the
// registered lock hooks.
type Buffer struct {
	records []Record
	count   int
}

// NewBuffer creates a buffer with capacity byteBudget/Size records.
// Budgets smaller than one record are raised to one record.
func NewBuffer(byteBudget int) *Buffer {
	if byteBudget < Size {
		byteBudget = Size
	}
	return &Buffer{records: make([]Record, byteBudget/Size)}
}

// Append stores r and reports whether there was room. The tracer
// guarantees space by flushing first; a false return means that
// guarantee was violated.
func (b *Buffer) Append(r Record) bool {
	if b.count >= len(b.records) {
		return false
	}
	b.records[b.count] = r
	b.count++
	return true
}

// Count returns the number of records currently held.
func (b *Buffer) Count() int {
	return b.count
}

// Capacity returns the fixed record capacity.
func (b *Buffer) Capacity() int {
	return len(b.records)
}

// Full reports whether an Append would fail.
func (b *Buffer) Full() bool {
	return b.count >= len(b.records)
}

// Records returns the held records, oldest first. The returned slice
// aliases the buffer and is invalidated by Reset.
func (b *Buffer) Records() []Record {
	return b.records[:b.count]
}

// EncodeAll appends the wire encoding of every held record to dst in
// order and returns the extended slice.
func (b *Buffer) EncodeAll(dst []byte) []byte {
	for i := 0; i < b.count; i++ {
		dst = b.records[i].AppendEncode(dst)
	}
	return dst
}

// Reset empties the buffer. Record storage is retained.
func (b *Buffer) Reset() {
	b.count = 0
}
