package core

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(v int) *int { return &v }

func TestRedact_Smoke(t *testing.T) {
	email, err := NewDetection("email", "john@example.com", intp(12), intp(28))
	require.NoError(t, err)
	phone, err := NewDetection("phone", "555-1234", nil, nil)
	require.NoError(t, err)
	set, err := NewDetectionSet(email, phone)
	require.NoError(t, err)

	out, err := Redact("Email me at john@example.com or call 555-1234.", set)
	require.NoError(t, err)
	assert.Equal(t, "Email me at [EMAIL] or call [PHONE].", out)
	assert.Equal(t, set.Fingerprint(), ComputeFingerprint([]Detection{phone, email}))
}

func TestErrors(t *testing.T) {
	_, err := NewDetectionSet()
	assert.ErrorIs(t, err, ErrEmptyDetectionSet)
	_, err = NewDetection("email", "", nil, nil)
	assert.ErrorIs(t, err, ErrInvalidDetection)
}

func TestJSONRoundTripShapes(t *testing.T) {
	in := `[{"category":"email","value":"a@b.co","start":0,"end":6}]`
	set, err := UnmarshalDetections(strings.NewReader(in))
	require.NoError(t, err)
	require.Equal(t, 1, set.Len())

	var buf bytes.Buffer
	require.NoError(t, MarshalDetections(&buf, set))
	assert.Contains(t, buf.String(), `"private_data"`)

	again, err := UnmarshalDetections(&buf)
	require.NoError(t, err)
	assert.Equal(t, set.Fingerprint(), again.Fingerprint())

	_, err = UnmarshalDetections(strings.NewReader(`{"private_data": []}`))
	assert.ErrorIs(t, err, ErrEmptyDetectionSet)
	_, err = UnmarshalDetections(strings.NewReader(`"nope"`))
	assert.Error(t, err)
}
