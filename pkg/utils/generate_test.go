package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateConfirmationCode(t *testing.T) {
	digits := regexp.MustCompile(`^[0-9]{6}$`)

	for i := 0; i < 20; i++ {
		code, err := GenerateConfirmationCode(6)
		require.NoError(t, err)
		assert.Regexp(t, digits, code)
	}

	code, err := GenerateConfirmationCode(0)
	require.NoError(t, err)
	assert.Len(t, code, 6)
}

func TestConfirmationCodeHash(t *testing.T) {
	hash, err := HashConfirmationCode("123456")
	require.NoError(t, err)

	assert.NotEqual(t, "123456", hash)
	assert.True(t, CheckConfirmationCode("123456", hash))
	assert.False(t, CheckConfirmationCode("123457", hash))
}
