package obserr

import (
	"errors"
	"fmt"
	"sync"
)

// Error kinds surfaced by the carbon client. Every *Error built with Kind matches its
// kind through errors.Is, in addition to its original cause.
var (
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrInvalidValue         = errors.New("invalid value")
	ErrResolutionFailure    = errors.New("resolution failure")
	ErrTransportFailure     = errors.New("transport failure")
	ErrUseAfterDispose      = errors.New("use after dispose")
)

// Error should be used as a drop-in replacement for Golang's native error type
// where adding key/value data or annotated info would provide useful context making
// debugging easier. Error is safe to use concurrently.
type Error struct {
	orig error
	kind error

	mu   sync.RWMutex
	err  error
	vals map[string]interface{}
}

func (e *Error) deepCopy() *Error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return &Error{
		orig: e.orig,
		kind: e.kind,
		mu:   sync.RWMutex{},
		err:  e.err,
		vals: e.copyVals(),
	}
}

func New(e interface{}) *Error {
	var err error

	switch o := e.(type) {
	case string:
		err = errors.New(o)
	case *Error:
		return o.deepCopy()
	case error:
		err = o
	default:
		err = fmt.Errorf("%v", o)
	}

	return &Error{
		orig: err,
		err:  err,
		vals: make(map[string]interface{}),
	}
}

// Kind builds an error of the given kind caused by cause. The message reads
// "<kind>: <cause>", or just the kind when cause is nil.
func Kind(kind error, cause interface{}) *Error {
	if cause == nil {
		e := New(kind)
		e.kind = kind
		return e
	}
	e := New(cause)
	e.kind = kind
	e.err = fmt.Errorf("%s: %s", kind, e.err)
	return e
}

func (e *Error) Error() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.err.Error()
}

// Unwrap exposes the original cause to errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.orig
}

// Is reports whether target is the kind of e.
func (e *Error) Is(target error) bool {
	return e.kind != nil && target == e.kind
}

func (e *Error) Get(k string) interface{} {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.vals[k]
}

func (e *Error) Set(kvs ...interface{}) *Error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := 0; i < len(kvs); i += 2 {
		e.vals[kvs[i].(string)] = kvs[i+1]
	}
	return e
}

func (e *Error) Vals() map[string]interface{} {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.copyVals()
}

// copyVals expects e.mu to be held.
func (e *Error) copyVals() map[string]interface{} {
	vals := make(map[string]interface{}, len(e.vals))
	for k, v := range e.vals {
		vals[k] = v
	}
	return vals
}

func (e *Error) Annotate(ann interface{}) *Error {
	e.mu.Lock()
	defer e.mu.Unlock()
	var a string

	switch o := ann.(type) {
	case string:
		a = o
	case *Error:
		a = o.Error()
	case error:
		a = o.Error()
	default:
		a = fmt.Sprintf("%v", o)
	}

	e.err = fmt.Errorf("%s: %s", a, e.err)
	return e
}

func Annotate(e error, an interface{}) *Error {
	return New(e).Annotate(an)
}

func Original(e error) error {
	var oe *Error
	if errors.As(e, &oe) {
		// oe.orig read is safe because orig field is never changed after construction
		return oe.orig
	}
	return e
}

// KindOf returns the kind sentinel attached to e, or nil when e carries none.
func KindOf(e error) error {
	var oe *Error
	if errors.As(e, &oe) {
		return oe.kind
	}
	return nil
}
