package dates

import (
	"encoding/json"
	"testing"
	"time"
)

func TestFromEpoch_SecondsAndMillisAgree(t *testing.T) {
	secs := int64(1735084800) // 2024-12-25T00:00:00Z
	if !FromEpoch(secs).Equal(FromEpoch(secs * 1000)) {
		t.Errorf("FromEpoch(%d) != FromEpoch(%d)", secs, secs*1000)
	}
}

func TestFromEpoch_NonTenDigitIsMillis(t *testing.T) {
	// nine digits: milliseconds, a few days after the epoch
	got := FromEpoch(123456789).UTC()
	want := time.UnixMilli(123456789).UTC()
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestFormatDate_SecondsMillisEquivalence(t *testing.T) {
	locs := []*time.Location{time.UTC, time.FixedZone("UTC+10", 10*3600), time.FixedZone("UTC-7", -7*3600)}
	values := []int64{1735084800, 1000000000, 1700000000, 9999999999}
	for _, loc := range locs {
		for _, secs := range values {
			a := FormatDate(FromInt(secs), loc)
			b := FormatDate(FromInt(secs*1000), loc)
			if a != b {
				t.Errorf("%s: FormatDate(%d)=%q, FormatDate(%d)=%q", loc, secs, a, secs*1000, b)
			}
			if a == "" {
				t.Errorf("%s: FormatDate(%d) returned empty", loc, secs)
			}
		}
	}
}

func TestFormatDate(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"seconds", FromInt(1735084800), "25/12/2024"},
		{"millis", FromInt(1735084800000), "25/12/2024"},
		{"numeric string", FromString("1735084800"), "25/12/2024"},
		{"iso date", FromString("2024-12-25"), "25/12/2024"},
		{"rfc3339", FromString("2024-12-25T09:30:00Z"), "25/12/2024"},
		{"empty", Value{}, ""},
		{"garbage", FromString("not a date"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatDate(tt.v, time.UTC); got != tt.want {
				t.Errorf("FormatDate(%q) = %q, want %q", tt.v.String(), got, tt.want)
			}
		})
	}
}

func TestFormatTime(t *testing.T) {
	v := FromInt(1735119000) // 2024-12-25T09:30:00Z
	if got := FormatTime(v, time.UTC); got != "09:30" {
		t.Errorf("expected 09:30, got %q", got)
	}
	if got := FormatTime(FromInt(1735119000000), time.UTC); got != "09:30" {
		t.Errorf("expected 09:30 for millis, got %q", got)
	}
	if got := FormatTime(Value{}, time.UTC); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}

func TestFormatForInput(t *testing.T) {
	if got := FormatForInput(FromInt(1735084800), time.UTC); got != "2024-12-25" {
		t.Errorf("expected 2024-12-25, got %q", got)
	}
	if got := FormatForInput(FromString("2024-12-25"), time.FixedZone("UTC-7", -7*3600)); got != "2024-12-25" {
		t.Errorf("date-only strings must not shift across zones, got %q", got)
	}
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"25/12/2024", "2024-12-25"},
		{"2024-12-25", "2024-12-25"},
		{"5/1/2024", "2024-01-05"},
		{" 25/12/2024 ", "2024-12-25"},
		{"", ""},
		{"25/12", "25/12"},
	}
	for _, tt := range tests {
		if got := NormalizeDate(tt.in); got != tt.want {
			t.Errorf("NormalizeDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeDate_Idempotent(t *testing.T) {
	once := NormalizeDate("25/12/2024")
	if twice := NormalizeDate(once); twice != once {
		t.Errorf("expected idempotence, got %q then %q", once, twice)
	}
}

func TestValue_JSONRoundTripKeepsRepresentation(t *testing.T) {
	type rec struct {
		D Value `json:"d"`
	}
	inputs := []string{`{"d":1735084800}`, `{"d":"2024-12-25"}`, `{"d":null}`}
	wants := []string{`{"d":1735084800}`, `{"d":"2024-12-25"}`, `{"d":null}`}
	for i, in := range inputs {
		var r rec
		if err := json.Unmarshal([]byte(in), &r); err != nil {
			t.Fatalf("unmarshal %s: %v", in, err)
		}
		out, err := json.Marshal(r)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if string(out) != wants[i] {
			t.Errorf("expected %s, got %s", wants[i], out)
		}
	}
}

func TestValue_UnmarshalFloat(t *testing.T) {
	var v Value
	if err := json.Unmarshal([]byte(`1.7350848e12`), &v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := FormatDate(v, time.UTC); got != "25/12/2024" {
		t.Errorf("expected 25/12/2024, got %q", got)
	}
}

func TestSameDayOrAfter(t *testing.T) {
	ref := time.Date(2024, 12, 25, 15, 0, 0, 0, time.UTC)
	if !SameDayOrAfter(FromString("2024-12-25"), ref, time.UTC) {
		t.Error("same calendar day should count")
	}
	if SameDayOrAfter(FromString("2024-12-24"), ref, time.UTC) {
		t.Error("previous day should not count")
	}
	if SameDayOrAfter(Value{}, ref, time.UTC) {
		t.Error("empty value should not count")
	}
}
