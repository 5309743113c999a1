package redaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(v int) *int { return &v }

func TestNewDetection_Validation(t *testing.T) {
	tests := []struct {
		name     string
		category string
		value    string
		start    *int
		end      *int
		wantErr  bool
	}{
		{name: "offset free", category: "email", value: "a@b.com"},
		{name: "with offsets", category: "email", value: "a@b.com", start: intp(0), end: intp(7)},
		{name: "empty category", category: "", value: "a@b.com", wantErr: true},
		{name: "whitespace category", category: "  \t", value: "a@b.com", wantErr: true},
		{name: "empty value", category: "email", value: "", wantErr: true},
		{name: "whitespace value", category: "email", value: " \n ", wantErr: true},
		{name: "start only", category: "email", value: "a@b.com", start: intp(5), wantErr: true},
		{name: "end only", category: "email", value: "a@b.com", end: intp(5), wantErr: true},
		{name: "end before start", category: "x", value: "y", start: intp(10), end: intp(5), wantErr: true},
		{name: "empty span", category: "x", value: "y", start: intp(3), end: intp(3), wantErr: true},
		{name: "negative start", category: "x", value: "y", start: intp(-1), end: intp(0), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewDetection(tt.category, tt.value, tt.start, tt.end)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidDetection)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.category, d.Category())
			assert.Equal(t, tt.value, d.Value())
			assert.Equal(t, tt.start != nil, d.HasOffsets())
		})
	}
}

func TestOffsetsConsistent(t *testing.T) {
	free, err := ValueDetection("email", "a@b.com")
	require.NoError(t, err)
	assert.True(t, free.OffsetsConsistent())

	exact, err := SpanDetection("email", "a@b.com", 2, 9)
	require.NoError(t, err)
	assert.True(t, exact.OffsetsConsistent())

	short, err := SpanDetection("email", "a@b.com", 2, 5)
	require.NoError(t, err)
	assert.False(t, short.OffsetsConsistent())

	// offsets count runes, not bytes
	name, err := SpanDetection("person", "Zoë Ångström", 0, 12)
	require.NoError(t, err)
	assert.True(t, name.OffsetsConsistent())
}

func TestPlaceholder(t *testing.T) {
	d, err := ValueDetection("credit_card", "4111")
	require.NoError(t, err)
	assert.Equal(t, "[CREDIT_CARD]", d.Placeholder())
}
