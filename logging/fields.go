package logging

import (
	"fmt"
	"os"
)

type Fields map[string]interface{}

var localhostFields = getLocalhostFields()

// MergeFields creates a new Fields set by merging a and b.
func MergeFields(a, b Fields) Fields {
	merged := make(Fields, len(a)+len(b))
	for k, v := range a {
		merged[k] = v
	}
	for k, v := range b {
		merged[k] = v
	}
	return merged
}

func (fields Fields) Dupe() Fields {
	dupe := make(Fields, len(fields))
	for k, v := range fields {
		dupe[k] = v
	}
	return dupe
}

// WithError records err's message, and any key/values it carries, under the returned
// copy.
func (fields Fields) WithError(err error) Fields {
	res := fields.Dupe()
	if e, ok := err.(interface{ Vals() map[string]interface{} }); ok {
		for k, v := range e.Vals() {
			res[k] = v
		}
	}
	res["error_message"] = fmt.Sprintf("%v", err)
	return res
}

func getLocalhostFields() Fields {
	fields := make(Fields)
	fields["pid"] = os.Getpid()
	fields["executable"] = os.Args[0]
	if hostname, err := os.Hostname(); err == nil {
		fields["hostname"] = hostname
	}
	return fields
}
