package ident

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFormat(t *testing.T) {
	id := New(PrefixConversation)
	require.Len(t, id, len(PrefixConversation)+1+32)
	assert.True(t, HasPrefix(id, PrefixConversation))
	assert.Regexp(t, `^conv_[0-9a-f]{32}$`, id)
}

func TestNewUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		id := New(PrefixMessage)
		_, dup := seen[id]
		require.False(t, dup, "duplicate id generated: %s", id)
		seen[id] = struct{}{}
	}
}

func TestHasPrefix(t *testing.T) {
	assert.True(t, HasPrefix("msg_abc", PrefixMessage))
	assert.False(t, HasPrefix("msgabc", PrefixMessage))
	assert.False(t, HasPrefix("conv_abc", PrefixMessage))
}
