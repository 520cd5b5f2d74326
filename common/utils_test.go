package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoalescePicksFirstNonZero(t *testing.T) {
	assert.Equal(t, 5, Coalesce(0, 5, 7))
	assert.Equal(t, "fallback", Coalesce("", "fallback"))
	assert.Zero(t, Coalesce(0, 0))
}
