package faq

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSONLAcceptsBothLayouts(t *testing.T) {
	data := []byte(`{"prompt":"What is term life?","completion":" Coverage for a fixed period."}

{"user_input":"Do you cover seniors?","bot_response":"Yes, up to age 85."}
`)
	entries, err := ParseJSONL(data)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "What is term life?", entries[0].Prompt)
	assert.Equal(t, " Coverage for a fixed period.", entries[0].Answer)
	assert.Equal(t, "Do you cover seniors?", entries[1].Prompt)
	assert.Equal(t, "Yes, up to age 85.", entries[1].Answer)
}

func TestParseJSONLRejectsBadRows(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed json", `{"prompt": "x"`},
		{"missing answer", `{"prompt":"x"}`},
		{"missing prompt", `{"completion":"y"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseJSONL([]byte(tt.data))
			assert.ErrorIs(t, err, ErrInvalidDataset)
		})
	}
}

func TestParseJSONLEmpty(t *testing.T) {
	_, err := ParseJSONL([]byte("\n  \n"))
	require.True(t, errors.Is(err, ErrEmptyDataset))
}
