package secret

import (
	"strings"
	"testing"
)

func TestExpandEnvStrict(t *testing.T) {
	t.Setenv("SUPPLIER_API_KEY", "key-123")
	t.Setenv("SUPPLIER_HOST", "api.supplier.example")

	tests := []struct {
		name  string
		in    string
		want  string
		isErr bool
	}{
		{"plain value untouched", "hello", "hello", false},
		{"braced var", "${SUPPLIER_API_KEY}", "key-123", false},
		{"bare var", "$SUPPLIER_API_KEY", "key-123", false},
		{"embedded", "https://${SUPPLIER_HOST}/v1", "https://api.supplier.example/v1", false},
		{"two vars", "${SUPPLIER_HOST}:${SUPPLIER_API_KEY}", "api.supplier.example:key-123", false},
		{"escaped dollar", "cost is $$5", "cost is $5", false},
		{"missing braced var errors", "${DEFINITELY_NOT_SET_ANYWHERE}", "", true},
		{"empty input", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandEnvStrict(tt.in)
			if tt.isErr {
				if err == nil {
					t.Fatalf("ExpandEnvStrict(%q) error = nil, want error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExpandEnvStrict(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ExpandEnvStrict(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestExpandEnvStrict_ReportsAllMissing(t *testing.T) {
	_, err := ExpandEnvStrict("${MISSING_ALPHA} ${MISSING_BETA}")
	if err == nil {
		t.Fatal("ExpandEnvStrict() error = nil, want error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "MISSING_ALPHA") || !strings.Contains(msg, "MISSING_BETA") {
		t.Errorf("error %q does not name both missing variables", msg)
	}
	// Sorted, so alpha comes first regardless of appearance order.
	if strings.Index(msg, "MISSING_ALPHA") > strings.Index(msg, "MISSING_BETA") {
		t.Errorf("error %q lists variables out of order", msg)
	}
}

func TestExpandEnvStrict_RepeatedMissingListedOnce(t *testing.T) {
	_, err := ExpandEnvStrict("${MISSING_GAMMA}/${MISSING_GAMMA}")
	if err == nil {
		t.Fatal("ExpandEnvStrict() error = nil, want error")
	}
	if got := strings.Count(err.Error(), "MISSING_GAMMA"); got != 1 {
		t.Errorf("missing variable listed %d times, want 1", got)
	}
}

func TestExpandEnvStrict_SetButEmptyIsAllowed(t *testing.T) {
	t.Setenv("EMPTY_BUT_SET", "")
	got, err := ExpandEnvStrict("x${EMPTY_BUT_SET}y")
	if err != nil {
		t.Fatalf("ExpandEnvStrict() error = %v", err)
	}
	if got != "xy" {
		t.Errorf("ExpandEnvStrict() = %q, want xy", got)
	}
}
