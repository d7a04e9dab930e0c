package shared

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

// Fields is the ingestion adapter for upstream records. The API is not
// consistent about key casing or value types, so every lookup accepts the
// camelCase name and its snake_case twin, and scalar readers accept both
// JSON numbers and numeric strings. Nothing past the API boundary sees
// the raw shape.
type Fields map[string]json.RawMessage

// ParseFields decodes a JSON object. A JSON null yields an empty Fields.
func ParseFields(b []byte) (Fields, error) {
	f := Fields{}
	if len(bytes.TrimSpace(b)) == 0 || string(bytes.TrimSpace(b)) == "null" {
		return f, nil
	}
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, err
	}
	return f, nil
}

func (f Fields) raw(name string) (json.RawMessage, bool) {
	for _, key := range []string{name, SnakeCase(name), CamelCase(name)} {
		v, ok := f[key]
		if ok && !isNull(v) {
			return v, true
		}
	}
	return nil, false
}

func isNull(v json.RawMessage) bool {
	t := bytes.TrimSpace(v)
	return len(t) == 0 || string(t) == "null"
}

// Has reports whether a non-null value exists under either casing.
func (f Fields) Has(name string) bool {
	_, ok := f.raw(name)
	return ok
}

// Raw returns the untouched JSON under name, or nil.
func (f Fields) Raw(name string) json.RawMessage {
	v, _ := f.raw(name)
	return v
}

// String reads strings, and renders numbers and booleans as text.
func (f Fields) String(name string) string {
	v, ok := f.raw(name)
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	t := string(bytes.TrimSpace(v))
	if t == "true" || t == "false" {
		return t
	}
	if _, err := strconv.ParseFloat(t, 64); err == nil {
		return t
	}
	return ""
}

// ID reads an identifier that may arrive as number or string.
func (f Fields) ID(name string) string {
	return f.String(name)
}

// Decimal reads a money/quantity value. Unparseable input reads as zero.
func (f Fields) Decimal(name string) decimal.Decimal {
	s := strings.TrimSpace(f.String(name))
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (f Fields) Int(name string) int64 {
	s := strings.TrimSpace(f.String(name))
	if s == "" {
		return 0
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if fl, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(fl)
	}
	return 0
}

// Bool accepts true/false, 1/0 and their string forms; MySQL tinyint
// columns come through as numbers.
func (f Fields) Bool(name string) bool {
	switch strings.ToLower(strings.TrimSpace(f.String(name))) {
	case "true", "1", "yes", "y":
		return true
	}
	return false
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Time parses the supported timestamp layouts, and numbers as unix
// milliseconds. Missing or unparseable values return the zero time.
func (f Fields) Time(name string) time.Time {
	s := strings.TrimSpace(f.String(name))
	if s == "" {
		return time.Time{}
	}
	return ParseTime(s)
}

// ParseTime is the string form of Fields.Time.
func ParseTime(s string) time.Time {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC()
	}
	return time.Time{}
}

// Object returns a nested object as Fields, or nil.
func (f Fields) Object(name string) Fields {
	v, ok := f.raw(name)
	if !ok {
		return nil
	}
	sub, err := ParseFields(v)
	if err != nil {
		return nil
	}
	return sub
}

// Decode unmarshals the value under name into dst. Missing keys leave dst
// untouched.
func (f Fields) Decode(name string, dst any) error {
	v, ok := f.raw(name)
	if !ok {
		return nil
	}
	return json.Unmarshal(v, dst)
}

// SnakeCase converts createdAt to created_at. Already-snake names pass through.
func SnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// CamelCase converts created_at to createdAt.
func CamelCase(s string) string {
	if !strings.Contains(s, "_") {
		return s
	}
	parts := strings.Split(s, "_")
	var b strings.Builder
	b.WriteString(parts[0])
	for _, p := range parts[1:] {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]) + p[1:])
	}
	return b.String()
}
