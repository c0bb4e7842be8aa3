package extcmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvocationToken(t *testing.T) {
	var g Generation
	first := newToken("s1", &g)
	assert.Equal(t, uint64(1), first.Generation)
	assert.True(t, first.IsCurrent())

	second := newToken("s2", &g)
	assert.False(t, first.IsCurrent())
	assert.True(t, second.IsCurrent())

	assert.False(t, first.InvalidateOwner(), "stale token must not bump")
	assert.True(t, second.IsCurrent())

	assert.True(t, second.InvalidateOwner())
	assert.False(t, second.IsCurrent())
	assert.Equal(t, uint64(3), g.Current())

	copied := second
	assert.Equal(t, second, copied)
	assert.False(t, InvocationToken{}.IsCurrent())
	assert.False(t, InvocationToken{}.InvalidateOwner())
}
