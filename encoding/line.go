package encoding

import (
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
)

// Encoder renders fields into carbon plaintext lines:
//
//	[prefix.][callPrefix.]leaf text epoch \n
//
// The trailing space before the newline is part of the format. An Encoder holds only
// immutable state and is safe for concurrent use.
type Encoder struct {
	prefix string
	opts   Options
	clock  clockwork.Clock
}

// NewEncoder creates an Encoder. prefix is sanitized once here with opts. A nil clock
// means the real clock.
func NewEncoder(prefix string, opts Options, clock clockwork.Clock) *Encoder {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Encoder{
		prefix: Sanitize(prefix, opts),
		opts:   opts,
		clock:  clock,
	}
}

// Prefix returns the sanitized client prefix.
func (e *Encoder) Prefix() string {
	return e.prefix
}

// Options returns a copy of the encoder options.
func (e *Encoder) Options() Options {
	return e.opts
}

// Epoch converts ts to seconds since 1970-01-01T00:00:00Z. A zero ts means now.
func (e *Encoder) Epoch(ts time.Time) int64 {
	if ts.IsZero() {
		ts = e.clock.Now()
	}
	if e.opts.ConvertToUTC {
		return ts.Unix()
	}
	_, offset := ts.Zone()
	return ts.Unix() + int64(offset)
}

// Encode renders a single line.
func (e *Encoder) Encode(leaf, text string, ts time.Time, callPrefix string) []byte {
	return e.encode(leaf, text, e.Epoch(ts), callPrefix)
}

// EncodeFields renders one line per field, in order, all sharing the same timestamp.
func (e *Encoder) EncodeFields(callPrefix string, fields []Field, ts time.Time) [][]byte {
	epoch := e.Epoch(ts)
	lines := make([][]byte, 0, len(fields))
	for _, f := range fields {
		lines = append(lines, e.encode(f.Name, f.Text, epoch, callPrefix))
	}
	return lines
}

func (e *Encoder) encode(leaf, text string, epoch int64, callPrefix string) []byte {
	buf := sharedBufferPool.get()
	defer sharedBufferPool.put(buf)

	if !blank(e.prefix) {
		_, _ = buf.WriteString(e.prefix)
		_ = buf.WriteByte('.')
	}

	switch e.opts.Scope {
	case ScopeLine:
		if !blank(callPrefix) {
			_, _ = buf.WriteString(callPrefix)
			_ = buf.WriteByte('.')
		}
		_, _ = buf.WriteString(leaf)
		writeTail(buf, text, epoch)
		return []byte(Sanitize(buf.String(), e.opts))
	default:
		var path string
		if blank(callPrefix) {
			path = leaf
		} else {
			path = callPrefix + "." + leaf
		}
		_, _ = buf.WriteString(Sanitize(path, e.opts))
		writeTail(buf, text, epoch)
		return append([]byte(nil), buf.Bytes()...)
	}
}

type stringWriter interface {
	WriteString(s string) (int, error)
}

func writeTail(w stringWriter, text string, epoch int64) {
	_, _ = w.WriteString(" ")
	_, _ = w.WriteString(text)
	_, _ = w.WriteString(" ")
	_, _ = w.WriteString(strconv.FormatInt(epoch, 10))
	_, _ = w.WriteString(" \n")
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
