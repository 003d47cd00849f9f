// Package logging is a small leveled logger with structured fields, used by the carbon
// client to report connection lifecycle events.
package logging

import (
	"io"
	"os"

	"github.com/mixpanel/carbon/obserr"
)

// New builds a Logger that writes records at or above levelName to w, formatted as
// "json" or "text". A nil w means os.Stderr.
func New(levelName, formatName string, w io.Writer) (Logger, error) {
	lvl, ok := levelStringToLevel(levelName)
	if !ok {
		return nil, obserr.Kind(obserr.ErrInvalidConfiguration, "unknown log level").Set("level", levelName)
	}
	f, ok := formatToEnum(formatName)
	if !ok {
		return nil, obserr.Kind(obserr.ErrInvalidConfiguration, "unknown log format").Set("format", formatName)
	}
	if w == nil {
		w = os.Stderr
	}
	if lvl == levelNever {
		return Null, nil
	}
	return newLogger(lvl, f, w), nil
}
