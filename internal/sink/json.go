package sink

import (
	"io"

	"github.com/valyala/fastjson"

	"github.com/gnolang/tgrep/internal/match"
)

// JSON streams records as a single JSON array.
type JSON struct {
	w       io.Writer
	arena   fastjson.Arena
	buf     []byte
	written int
	closers []io.Closer
}

func NewJSON(w io.Writer) *JSON {
	return &JSON{w: w}
}

func (s *JSON) Write(records []match.Record) error {
	s.buf = s.buf[:0]
	for _, r := range records {
		if s.written == 0 {
			s.buf = append(s.buf, '[')
		} else {
			s.buf = append(s.buf, ',')
		}
		s.buf = RecordValue(&s.arena, r).MarshalTo(s.buf)
		s.arena.Reset()
		s.written++
	}
	_, err := s.w.Write(s.buf)
	return err
}

// Close terminates the array and closes the underlying writers. An empty
// run still yields a valid document.
func (s *JSON) Close() error {
	tail := "]"
	if s.written == 0 {
		tail = "[]"
	}
	_, err := io.WriteString(s.w, tail)
	if cerr := closeAll(s.closers); err == nil {
		err = cerr
	}
	return err
}

// RecordValue builds the JSON object for r on a.
func RecordValue(a *fastjson.Arena, r match.Record) *fastjson.Value {
	pos := a.NewObject()
	pos.Set("page", a.NewNumberInt(r.Position.Page))
	pos.Set("offset", a.NewNumberInt(r.Position.Offset))

	obj := a.NewObject()
	obj.Set("source", a.NewString(r.Source))
	obj.Set("position", pos)
	obj.Set("matched_token", a.NewString(r.MatchedToken))
	obj.Set("context_before", a.NewString(r.ContextBefore))
	obj.Set("context_after", a.NewString(r.ContextAfter))
	return obj
}

// MarshalRecords appends records to dst as a JSON array.
func MarshalRecords(dst []byte, records []match.Record) []byte {
	var a fastjson.Arena
	arr := a.NewArray()
	for i, r := range records {
		arr.SetArrayItem(i, RecordValue(&a, r))
	}
	return arr.MarshalTo(dst)
}
