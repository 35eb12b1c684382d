package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeToken(t *testing.T) {
	created := time.Date(2026, 1, 15, 14, 30, 45, 123456789, time.UTC)

	token := EncodeToken(FormatTime(created), "acc-42")
	require.NotEmpty(t, token)

	fields, err := DecodeToken(token, 2)
	require.NoError(t, err)
	require.Len(t, fields, 2)

	decoded, err := ParseTime(fields[0])
	require.NoError(t, err)
	assert.True(t, created.Equal(decoded))
	assert.Equal(t, "acc-42", fields[1])
}

func TestDecodeTokenErrors(t *testing.T) {
	_, err := DecodeToken("not base64!", 2)
	assert.ErrorContains(t, err, "base64 decode")

	// Valid base64 but wrong number of fields.
	token := EncodeToken("only-one-field")
	_, err = DecodeToken(token, 3)
	assert.ErrorContains(t, err, "expected 3 fields")
}

func TestParseTimeError(t *testing.T) {
	_, err := ParseTime("not a timestamp")
	assert.ErrorContains(t, err, "time parse")
}
