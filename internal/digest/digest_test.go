package digest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHash(t *testing.T) {
	h := Hash("secret-value")

	assert.Len(t, h, 64, "sha-256 hex digest is 64 characters")
	assert.Equal(t, h, Hash("secret-value"), "deterministic")
	assert.NotEqual(t, h, Hash("secret-valuf"))

	// known vector
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		Hash(""),
	)
}
