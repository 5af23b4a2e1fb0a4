package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)

	assert.NoError(t, CheckPassword(hash, "s3cret-pass"))
	assert.ErrorIs(t, CheckPassword(hash, "wrong"), ErrPasswordMismatch)
	assert.Error(t, CheckPassword("not-a-bcrypt-hash", "s3cret-pass"))
}
