package encoding

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epochTime = time.Date(2020, time.March, 4, 5, 6, 7, 0, time.UTC)

func rawOptions() Options {
	opts := DefaultOptions()
	opts.Sanitize = false
	return opts
}

func TestEncodeUnsanitized(t *testing.T) {
	enc := NewEncoder("host.a", rawOptions(), nil)

	line := enc.Encode("cpu", "1", epochTime, "")
	assert.Equal(t, fmt.Sprintf("host.a.cpu 1 %d \n", epochTime.Unix()), string(line))
}

func TestEncodePrefixes(t *testing.T) {
	testCases := []struct {
		prefix, callPrefix, expected string
	}{
		{"", "", "cpu 1 1583298367 \n"},
		{"   ", "", "cpu 1 1583298367 \n"},
		{"svc", "", "svc.cpu 1 1583298367 \n"},
		{"", "Obj", "Obj.cpu 1 1583298367 \n"},
		{"svc", "Obj", "svc.Obj.cpu 1 1583298367 \n"},
		{"svc", " \t", "svc.cpu 1 1583298367 \n"},
	}

	for _, tc := range testCases {
		enc := NewEncoder(tc.prefix, rawOptions(), nil)
		assert.Equal(t, tc.expected, string(enc.Encode("cpu", "1", epochTime, tc.callPrefix)))
	}
}

func TestEncodeSanitizesNames(t *testing.T) {
	enc := NewEncoder(`Web Servers\Frontend`, DefaultOptions(), nil)
	assert.Equal(t, "web_servers.frontend", enc.Prefix())

	line := enc.Encode("Request_Count", "3.5", epochTime, "HTTP/1.1")
	assert.Equal(t, "web_servers.frontend.http.1.1.request_count 3.5 1583298367 \n", string(line))
}

func TestEncodeSanitizesPrefixOnce(t *testing.T) {
	opts := DefaultOptions()
	opts.Lowercase = false
	enc := NewEncoder("App/Frontend", opts, nil)

	line := enc.Encode("hits", "1", epochTime, "")
	assert.Equal(t, "App.Frontend.hits 1 1583298367 \n", string(line))
}

func TestEncodeLineScope(t *testing.T) {
	opts := DefaultOptions()
	opts.Scope = ScopeLine
	enc := NewEncoder("svc", opts, nil)

	// whole line sanitization turns the separators into underscores
	line := enc.Encode("CPU", "1", epochTime, "")
	assert.Equal(t, "svc.cpu_1_1583298367_\n", string(line))

	opts.Sanitize = false
	enc = NewEncoder("svc", opts, nil)
	assert.Equal(t, "svc.CPU 1 1583298367 \n", string(enc.Encode("CPU", "1", epochTime, "")))
}

func TestEncodeUsesClockForZeroTime(t *testing.T) {
	clock := clockwork.NewFakeClockAt(epochTime)
	enc := NewEncoder("", rawOptions(), clock)

	assert.Equal(t, "cpu 2 1583298367 \n", string(enc.Encode("cpu", "2", time.Time{}, "")))

	clock.Advance(90 * time.Second)
	assert.Equal(t, "cpu 2 1583298457 \n", string(enc.Encode("cpu", "2", time.Time{}, "")))
}

func TestEpochTimezones(t *testing.T) {
	zone := time.FixedZone("CET", 3600)
	local := time.Date(2020, time.March, 4, 6, 6, 7, 0, zone)

	utc := NewEncoder("", DefaultOptions(), nil)
	assert.Equal(t, epochTime.Unix(), utc.Epoch(local))
	assert.Equal(t, epochTime.Unix(), utc.Epoch(epochTime))

	opts := DefaultOptions()
	opts.ConvertToUTC = false
	wall := NewEncoder("", opts, nil)
	assert.Equal(t, epochTime.Unix()+3600, wall.Epoch(local))
	assert.Equal(t, epochTime.Unix(), wall.Epoch(epochTime))
}

func TestEncodeFieldsSharesTimestamp(t *testing.T) {
	clock := clockwork.NewFakeClockAt(epochTime)
	enc := NewEncoder("svc", DefaultOptions(), clock)

	lines := enc.EncodeFields("Obj", []Field{{Name: "A", Text: "1"}, {Name: "B", Text: "x"}}, time.Time{})
	require.Len(t, lines, 2)
	assert.Equal(t, "svc.obj.a 1 1583298367 \n", string(lines[0]))
	assert.Equal(t, "svc.obj.b x 1583298367 \n", string(lines[1]))
}

func TestEncodeRoundTrip(t *testing.T) {
	enc := NewEncoder("host", DefaultOptions(), nil)

	for _, tc := range []struct{ name, text string }{
		{"Cpu Load", "0.75"},
		{`disk\sda/util`, "12"},
		{"mem_free", "1048576"},
	} {
		line := string(enc.Encode(tc.name, tc.text, epochTime, ""))
		require.True(t, strings.HasSuffix(line, " \n"))

		parts := strings.SplitN(strings.TrimSuffix(line, " \n"), " ", 3)
		require.Len(t, parts, 3)
		assert.Equal(t, "host."+Sanitize(tc.name, DefaultOptions()), parts[0])
		assert.Equal(t, tc.text, parts[1])
		assert.Equal(t, "1583298367", parts[2])
	}
}

func TestEncodeLocaleCommaValue(t *testing.T) {
	enc := NewEncoder("", rawOptions(), nil)
	_, fields, err := Flatten("ratio", "3,5")
	require.NoError(t, err)

	lines := enc.EncodeFields("", fields, epochTime)
	assert.Equal(t, "ratio 3.5 1583298367 \n", string(lines[0]))
}

func BenchmarkEncode(b *testing.B) {
	enc := NewEncoder("bench.prefix", DefaultOptions(), nil)
	for n := 0; n < b.N; n++ {
		_ = enc.Encode("Some Metric", "12.5", epochTime, "Call")
	}
}
