// Package dates contains every date conversion the console performs: decoding
// timestamps that the clinic API serialises either as epoch numbers (seconds
// or milliseconds) or as date strings, rendering them for display, and
// normalising user-entered dates before submission.
package dates

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	// DisplayLayout is the dd/mm/yyyy form shown in tables and detail cards.
	DisplayLayout = "02/01/2006"
	// TimeLayout is the HH:MM form shown next to appointment dates.
	TimeLayout = "15:04"
	// CanonicalLayout is the yyyy-mm-dd form sent to the API and used by
	// date inputs.
	CanonicalLayout = "2006-01-02"
)

// secondsDigits is the length of the decimal representation that marks an
// epoch value as seconds rather than milliseconds.
const secondsDigits = 10

var stringLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
}

// FromEpoch converts an epoch value to a time. Values whose decimal
// representation is exactly ten characters long are seconds; everything
// else is milliseconds.
func FromEpoch(n int64) time.Time {
	ms := n
	if len(strconv.FormatInt(n, 10)) == secondsDigits {
		ms = n * 1000
	}
	return time.UnixMilli(ms)
}

// Value is a date as the API transmitted it. It keeps the original
// representation so that a value read from the API is written back unchanged.
type Value struct {
	raw    string
	number bool
}

// FromString wraps a date string such as "2024-12-25".
func FromString(s string) Value {
	return Value{raw: strings.TrimSpace(s)}
}

// FromInt wraps an epoch number (seconds or milliseconds).
func FromInt(n int64) Value {
	return Value{raw: strconv.FormatInt(n, 10), number: true}
}

// IsZero reports whether the value is empty or was JSON null.
func (v Value) IsZero() bool { return v.raw == "" }

// String returns the raw representation.
func (v Value) String() string { return v.raw }

// Time resolves the value in loc. Date-only strings are calendar dates in loc,
// not UTC midnights.
func (v Value) Time(loc *time.Location) (time.Time, bool) {
	if v.raw == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	if n, ok := parseEpoch(v.raw); ok {
		return FromEpoch(n).In(loc), true
	}
	if t, err := time.ParseInLocation(CanonicalLayout, v.raw, loc); err == nil {
		return t, true
	}
	for _, layout := range stringLayouts {
		if t, err := time.ParseInLocation(layout, v.raw, loc); err == nil {
			return t.In(loc), true
		}
	}
	return time.Time{}, false
}

func parseEpoch(s string) (int64, bool) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int64(f), true
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.raw == "" {
		return []byte("null"), nil
	}
	if v.number {
		return []byte(v.raw), nil
	}
	return json.Marshal(v.raw)
}

func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*v = Value{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("decode date string: %w", err)
		}
		*v = FromString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("decode date number: %w", err)
	}
	if i, err := n.Int64(); err == nil {
		*v = FromInt(i)
		return nil
	}
	f, err := n.Float64()
	if err != nil {
		return fmt.Errorf("decode date number %q: %w", n, err)
	}
	*v = FromInt(int64(f))
	return nil
}

// FormatDate renders v as dd/mm/yyyy, or "" when v cannot be interpreted.
func FormatDate(v Value, loc *time.Location) string {
	return format(v, loc, DisplayLayout)
}

// FormatTime renders v as HH:MM, or "" when v cannot be interpreted.
func FormatTime(v Value, loc *time.Location) string {
	return format(v, loc, TimeLayout)
}

// FormatForInput renders v as yyyy-mm-dd for pre-filling edit forms.
func FormatForInput(v Value, loc *time.Location) string {
	return format(v, loc, CanonicalLayout)
}

func format(v Value, loc *time.Location, layout string) string {
	t, ok := v.Time(loc)
	if !ok {
		return ""
	}
	return t.Format(layout)
}

// NormalizeDate converts dd/mm/yyyy input to yyyy-mm-dd. Any other input is
// returned trimmed, so canonical dates pass through unchanged.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "/") {
		return s
	}
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return s
	}
	day, month, year := pad2(parts[0]), pad2(parts[1]), strings.TrimSpace(parts[2])
	return year + "-" + month + "-" + day
}

func pad2(s string) string {
	s = strings.TrimSpace(s)
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

// SameDayOrAfter reports whether v falls on or after the calendar day of ref
// in loc. Invalid values are never on or after anything.
func SameDayOrAfter(v Value, ref time.Time, loc *time.Location) bool {
	t, ok := v.Time(loc)
	if !ok {
		return false
	}
	if loc == nil {
		loc = time.Local
	}
	ref = ref.In(loc)
	day := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, loc)
	return !t.Before(day)
}
