package idempotency

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr error
	}{
		{name: "uuid", key: "550e8400-e29b-41d4-a716-446655440000"},
		{name: "alphanumeric with separators", key: "shipment_2024-batch7"},
		{name: "empty", key: "", wantErr: ErrKeyRequired},
		{name: "too long", key: strings.Repeat("a", 256), wantErr: ErrKeyTooLong},
		{name: "exactly max length", key: strings.Repeat("a", 255)},
		{name: "spaces", key: "abc 123", wantErr: ErrKeyInvalid},
		{name: "special chars", key: "abc@123", wantErr: ErrKeyInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateKey(tt.key)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateKeyWithMaxLength(t *testing.T) {
	assert.NoError(t, ValidateKeyWithMaxLength("abcd", 4))
	assert.ErrorIs(t, ValidateKeyWithMaxLength("abcde", 4), ErrKeyTooLong)
}

func TestComputeFingerprint(t *testing.T) {
	body := []byte(`{"customerId":"c1","packages":[{"weight":"1.5"}]}`)

	got := ComputeFingerprint("POST", "/api/v1/shipments", body)
	assert.Len(t, got, 64)
	assert.Equal(t, got, ComputeFingerprint("POST", "/api/v1/shipments", body))

	assert.NotEqual(t, got, ComputeFingerprint("POST", "/api/v1/shipments", append(body, ' ')))
	assert.NotEqual(t, got, ComputeFingerprint("PUT", "/api/v1/shipments", body))
	assert.NotEqual(t, got, ComputeFingerprint("POST", "/api/v1/packages", body))

	// separators keep path and body from bleeding into each other
	assert.NotEqual(t,
		ComputeFingerprint("POST", "/a", []byte("b")),
		ComputeFingerprint("POST", "/ab", nil))
}

func TestNormalizeKey(t *testing.T) {
	for _, in := range []string{"abc123", "  abc123", "abc123  ", "\tabc123\t"} {
		assert.Equal(t, "abc123", NormalizeKey(in), "input %q", in)
	}
}
