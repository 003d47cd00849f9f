package encoding

import (
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mixpanel/carbon/obserr"
)

// Field is one named scalar leaf, with its value already rendered as carbon text.
type Field struct {
	Name string
	Text string
}

// Member is one named, not yet rendered, leaf of a composite value.
type Member struct {
	Name  string
	Value interface{}
}

// Record is an ordered list of members. It is the simplest way to send several related
// values under one name without declaring a type.
type Record []Member

// Flatten implements Flattener.
func (r Record) Flatten() Record {
	return r
}

// Flattener is implemented by composite values that know their own leaves. The order of
// the returned record is the order lines are sent in.
type Flattener interface {
	Flatten() Record
}

// Flatten expands value into the fields to encode under name.
//
// A scalar produces a single field named name, and callPrefix is empty. A composite
// value produces one field per member and callPrefix is name, so each leaf ends up under
// it. Composite values are, in order of precedence: a Flattener, a map with string keys
// (sorted by key), or a struct or pointer to struct (exported fields in declaration
// order). Only one level is flattened; members that are themselves composite fail, and
// so does a composite without any scalar member.
func Flatten(name string, value interface{}) (callPrefix string, fields []Field, err error) {
	if err := CheckName(name); err != nil {
		return "", nil, err
	}
	if value == nil {
		return "", nil, obserr.Kind(obserr.ErrInvalidValue, "nil value").Set("name", name)
	}
	if rv := reflect.ValueOf(value); rv.Kind() == reflect.Ptr && rv.IsNil() {
		return "", nil, obserr.Kind(obserr.ErrInvalidValue, "nil pointer").Set("name", name)
	}

	if f, ok := value.(Flattener); ok {
		fields, err := flattenRecord(f.Flatten())
		if err != nil {
			return "", nil, annotateName(err, name)
		}
		return name, fields, nil
	}

	text, ok, err := ScalarText(value)
	if err != nil {
		return "", nil, annotateName(err, name)
	}
	if ok {
		return "", []Field{{Name: name, Text: text}}, nil
	}

	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return "", nil, obserr.Kind(obserr.ErrInvalidValue, "nil pointer").Set("name", name)
		}
		rv = rv.Elem()
	}
	if text, ok, err := ScalarText(rv.Interface()); err != nil || ok {
		if err != nil {
			return "", nil, annotateName(err, name)
		}
		return "", []Field{{Name: name, Text: text}}, nil
	}

	switch rv.Kind() {
	case reflect.Map:
		fields, err = flattenMap(rv)
	case reflect.Struct:
		fields, err = flattenStruct(rv)
	default:
		err = obserr.Kind(obserr.ErrInvalidValue, "unsupported type "+rv.Type().String())
	}
	if err != nil {
		return "", nil, annotateName(err, name)
	}
	return name, fields, nil
}

// CheckName fails with ErrInvalidValue when name holds a line break, since it would
// split the encoded line in two.
func CheckName(name string) error {
	if strings.ContainsAny(name, "\r\n") {
		return obserr.Kind(obserr.ErrInvalidValue, "line break in name").Set("name", name)
	}
	return nil
}

func annotateName(err error, name string) error {
	if oe, ok := err.(*obserr.Error); ok {
		return oe.Set("name", name)
	}
	return err
}

func flattenRecord(record Record) ([]Field, error) {
	fields := make([]Field, 0, len(record))
	for _, m := range record {
		if err := CheckName(m.Name); err != nil {
			return nil, annotateMember(err, m.Name)
		}
		text, ok, err := memberText(m.Value)
		if err != nil {
			return nil, annotateMember(err, m.Name)
		}
		if !ok {
			continue
		}
		fields = append(fields, Field{Name: m.Name, Text: text})
	}
	if len(fields) == 0 {
		return nil, obserr.Kind(obserr.ErrInvalidValue, "no scalar members")
	}
	return fields, nil
}

func flattenMap(rv reflect.Value) ([]Field, error) {
	if rv.Type().Key().Kind() != reflect.String {
		return nil, obserr.Kind(obserr.ErrInvalidValue, "map keys must be strings")
	}

	keys := make([]string, 0, rv.Len())
	for _, k := range rv.MapKeys() {
		keys = append(keys, k.String())
	}
	sort.Strings(keys)

	record := make(Record, 0, len(keys))
	for _, k := range keys {
		v := rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key()))
		record = append(record, Member{Name: k, Value: v.Interface()})
	}
	return flattenRecord(record)
}

type structField struct {
	index int
	name  string
}

// struct layouts by reflect.Type, so a type is inspected once.
var structPlans sync.Map

func planFor(t reflect.Type) []structField {
	if plan, ok := structPlans.Load(t); ok {
		return plan.([]structField)
	}

	plan := make([]structField, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.PkgPath != "" || sf.Anonymous {
			continue
		}
		name := sf.Name
		if tag, ok := sf.Tag.Lookup("carbon"); ok {
			if tag == "-" {
				continue
			}
			if tag != "" {
				name = tag
			}
		}
		plan = append(plan, structField{index: i, name: name})
	}

	actual, _ := structPlans.LoadOrStore(t, plan)
	return actual.([]structField)
}

func flattenStruct(rv reflect.Value) ([]Field, error) {
	plan := planFor(rv.Type())
	record := make(Record, 0, len(plan))
	for _, sf := range plan {
		record = append(record, Member{Name: sf.name, Value: rv.Field(sf.index).Interface()})
	}
	return flattenRecord(record)
}

// memberText renders a member value. Nil members and nil pointers are skipped.
func memberText(v interface{}) (string, bool, error) {
	if v == nil {
		return "", false, nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return "", false, nil
		}
		rv = rv.Elem()
	}
	text, ok, err := ScalarText(rv.Interface())
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, obserr.Kind(obserr.ErrInvalidValue, "nested composite member")
	}
	return text, true, nil
}

func annotateMember(err error, member string) error {
	if oe, ok := err.(*obserr.Error); ok {
		return oe.Set("member", member)
	}
	return err
}

// ScalarText renders v as locale invariant carbon text. ok is false when v is not a
// scalar. Booleans render as 1 and 0, durations as fractional seconds, floats without
// exponent. Strings are trimmed and any ',' decimal separator becomes '.'; strings
// containing whitespace are rejected since they would split the line.
func ScalarText(v interface{}) (text string, ok bool, err error) {
	if d, isDuration := v.(time.Duration); isDuration {
		return strconv.FormatFloat(d.Seconds(), 'f', -1, 64), true, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		if rv.Bool() {
			return "1", true, nil
		}
		return "0", true, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), true, nil
	case reflect.Float32:
		return formatFloat(rv.Float(), 32)
	case reflect.Float64:
		return formatFloat(rv.Float(), 64)
	case reflect.String:
		return stringText(rv.String())
	default:
		return "", false, nil
	}
}

func formatFloat(f float64, bitSize int) (string, bool, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", false, obserr.Kind(obserr.ErrInvalidValue, "non-finite float").Set("value", f)
	}
	return strconv.FormatFloat(f, 'f', -1, bitSize), true, nil
}

func stringText(s string) (string, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false, obserr.Kind(obserr.ErrInvalidValue, "empty value text")
	}
	if strings.IndexFunc(s, isSpace) >= 0 {
		return "", false, obserr.Kind(obserr.ErrInvalidValue, "value text contains whitespace").Set("value", s)
	}
	return strings.Replace(s, ",", ".", -1), true, nil
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f'
}
