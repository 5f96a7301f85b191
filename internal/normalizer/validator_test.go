package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChecksum(t *testing.T) {
	tests := []struct {
		digits string
		want   int
	}{
		{"773218", 5},
		{"6417", 5},
		{"5000", 0},
		{"5808", 2},
		{"", 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Checksum(tt.digits), "digits %q", tt.digits)
	}
}

func TestValidateIdentifier(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{"water", "7732-18-5", "7732-18-5", true},
		{"embedded", "CAS 64-17-5 (ethanol)", "64-17-5", true},
		{"quoted", `"58-08-2"`, "58-08-2", true},
		{"short base", "50-00-0", "50-00-0", true},
		{"bad check digit", "7732-18-4", "", false},
		{"missing", "", "", false},
		{"no identifier", "not a number", "", false},
		{"one digit branch", "7732-1-5", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ValidateIdentifier(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateIdentifier_RoundTrip(t *testing.T) {
	for _, cas := range []string{"7732-18-5", "64-17-5", "50-00-0", "58-08-2"} {
		got, ok := ValidateIdentifier(cas)
		assert.True(t, ok)
		assert.Equal(t, cas, got)

		again, ok := ValidateIdentifier(got)
		assert.True(t, ok)
		assert.Equal(t, got, again)
	}
}

func TestValidateIdentifier_PerturbedCheckDigit(t *testing.T) {
	base := "7732-18-"
	for d := '0'; d <= '9'; d++ {
		_, ok := ValidateIdentifier(base + string(d))
		assert.Equal(t, d == '5', ok, "check digit %c", d)
	}
}
