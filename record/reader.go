package record

import (
	"io"

	"github.com/embtrace/heap-trace/errors"
)

// Reader decodes a flat stream of fixed-size records. Flush boundaries
// leave no trace in the stream, so any concatenation of flushed writes
// reads back as one ordered sequence.
type Reader struct {
	r   io.Reader
	buf [Size]byte
}

// NewReader wraps r for record-at-a-time decoding.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Next returns the next record. It returns io.EOF at a clean end of
// stream and a truncated error for a partial trailing record.
func (r *Reader) Next() (Record, error) {
	n, err := io.ReadFull(r.r, r.buf[:])
	if err == io.EOF {
		return Record{}, io.EOF
	}
	if err != nil {
		return Record{}, errors.New(errors.PhaseDecode, errors.KindTruncated).
			Detail("partial record: %d of %d bytes", n, Size).
			Cause(err).
			Build()
	}
	return Decode(r.buf[:])
}

// ReadAll decodes every record in the stream.
func ReadAll(r io.Reader) ([]Record, error) {
	rd := NewReader(r)
	var out []Record
	for {
		rec, err := rd.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}
