package currency

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid("INR"))
	assert.True(t, IsValid("USD"))
	assert.True(t, IsValid("usd"), "matching should be case-insensitive")
	assert.True(t, IsValid("EUR"))

	assert.False(t, IsValid(""))
	assert.False(t, IsValid("US"))
	assert.False(t, IsValid("DOGE"))
	assert.False(t, IsValid("USDT"))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "INR", Normalize(" inr "))
	assert.Equal(t, "USD", Normalize("usd"))
}
