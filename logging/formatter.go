package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

type format int

const (
	formatJSON = format(iota)
	formatText
)

func jsonFormatter(lvl level, name, message string, fields Fields) string {
	fields = MergeFields(localhostFields, fields)
	fields["logger"] = name
	fields["severity"] = levelToString(lvl)
	fields["message"] = message

	formatted, err := json.Marshal(fields)
	if err != nil {
		return `{"severity": "ERROR", "message": "Failed to serialize to JSON."}`
	}
	return string(formatted)
}

func textFormatter(lvl level, name, message string, fields Fields) string {
	buffer := bytes.NewBuffer(make([]byte, 0, len(message)*2))

	if name == "" {
		fmt.Fprintf(buffer, "[%s]: ", levelToString(lvl))
	} else {
		fmt.Fprintf(buffer, "[%s] %s: ", levelToString(lvl), name)
	}
	formatFields(buffer, message, fields)

	return buffer.String()
}

func formatFields(buffer *bytes.Buffer, message string, fields Fields) {
	buffer.WriteString(message)

	if len(fields) == 0 {
		return
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buffer.WriteString(" | ")
	for i, k := range keys {
		if i > 0 {
			buffer.WriteString(", ")
		}
		buffer.WriteString(k)
		buffer.WriteByte('=')
		fmt.Fprintf(buffer, "%v", fields[k])
	}
}

func formatToEnum(s string) (format, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return formatJSON, true
	case "text", "":
		return formatText, true
	default:
		return formatText, false
	}
}
