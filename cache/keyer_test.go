package cache

import (
	"errors"
	"strings"
	"testing"
)

func TestKey_String(t *testing.T) {
	k := Key{HotelID: "H123", CheckIn: "2026-09-01", CheckOut: "2026-09-03"}
	want := "H123:2026-09-01:2026-09-03"
	if got := k.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestKey_Validate(t *testing.T) {
	tests := []struct {
		name    string
		key     Key
		wantErr error
	}{
		{
			name: "valid",
			key:  Key{HotelID: "H1", CheckIn: "2026-09-01", CheckOut: "2026-09-02"},
		},
		{
			name:    "empty hotel",
			key:     Key{CheckIn: "2026-09-01", CheckOut: "2026-09-02"},
			wantErr: ErrInvalidKey,
		},
		{
			name:    "whitespace only",
			key:     Key{HotelID: "  ", CheckIn: "2026-09-01", CheckOut: "2026-09-02"},
			wantErr: ErrInvalidKey,
		},
		{
			name:    "colon in field",
			key:     Key{HotelID: "H:1", CheckIn: "2026-09-01", CheckOut: "2026-09-02"},
			wantErr: ErrInvalidKey,
		},
		{
			name:    "newline in field",
			key:     Key{HotelID: "H1\n", CheckIn: "2026-09-01", CheckOut: "2026-09-02"},
			wantErr: ErrInvalidKey,
		},
		{
			name:    "too long",
			key:     Key{HotelID: strings.Repeat("x", MaxKeyLength), CheckIn: "2026-09-01", CheckOut: "2026-09-02"},
			wantErr: ErrKeyTooLong,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.key.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseKey(t *testing.T) {
	k, err := ParseKey("H123:2026-09-01:2026-09-03")
	if err != nil {
		t.Fatalf("ParseKey() error = %v", err)
	}
	want := Key{HotelID: "H123", CheckIn: "2026-09-01", CheckOut: "2026-09-03"}
	if k != want {
		t.Errorf("ParseKey() = %+v, want %+v", k, want)
	}
}

func TestParseKey_Invalid(t *testing.T) {
	for _, s := range []string{"", "one", "one:two", "a:b:c:d", "::"} {
		if _, err := ParseKey(s); err == nil {
			t.Errorf("ParseKey(%q) = nil error, want error", s)
		}
	}
}

func TestKey_RoundTrip(t *testing.T) {
	orig := Key{HotelID: "H7", CheckIn: "2026-12-24", CheckOut: "2026-12-26"}
	parsed, err := ParseKey(orig.String())
	if err != nil {
		t.Fatalf("ParseKey() error = %v", err)
	}
	if parsed != orig {
		t.Errorf("round trip = %+v, want %+v", parsed, orig)
	}
}
