package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/lore-sharing/internal/domain/entities"
)

func TestComputeTag(t *testing.T) {
	desc := "hobbit of the Shire"
	user := entities.User{ID: 1, Nickname: "frodo", Description: &desc}

	t.Run("stable across calls", func(t *testing.T) {
		first, err := ComputeTag(user)
		require.NoError(t, err)
		second, err := ComputeTag(user)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("quoted eight hex digits", func(t *testing.T) {
		tag, err := ComputeTag(user)
		require.NoError(t, err)
		assert.Regexp(t, `^"[0-9a-f]{8}"$`, tag)
	})

	t.Run("changes when content changes", func(t *testing.T) {
		before, err := ComputeTag(user)
		require.NoError(t, err)

		changed := user
		changed.Nickname = "frodo baggins"
		after, err := ComputeTag(changed)
		require.NoError(t, err)

		assert.NotEqual(t, before, after)
	})

	t.Run("independent of field order in serialization", func(t *testing.T) {
		// Map key order does not survive json.Marshal, but canonical form
		// sorts keys anyway; two equal maps must fingerprint the same.
		a := map[string]any{"name": "x", "position": 2}
		b := map[string]any{"position": 2, "name": "x"}

		tagA, err := ComputeTag(a)
		require.NoError(t, err)
		tagB, err := ComputeTag(b)
		require.NoError(t, err)
		assert.Equal(t, tagA, tagB)
	})

	t.Run("unserializable value returns error", func(t *testing.T) {
		_, err := ComputeTag(func() {})
		assert.Error(t, err)
	})
}

func TestEvaluateIfMatch(t *testing.T) {
	tests := []struct {
		name       string
		clientTag  string
		currentTag string
		proceed    bool
	}{
		{
			name:       "absent header proceeds",
			clientTag:  "",
			currentTag: `"cafebabe"`,
			proceed:    true,
		},
		{
			name:       "matching tag proceeds",
			clientTag:  `"cafebabe"`,
			currentTag: `"cafebabe"`,
			proceed:    true,
		},
		{
			name:       "mismatching tag fails",
			clientTag:  `"deadbeef"`,
			currentTag: `"cafebabe"`,
			proceed:    false,
		},
		{
			name:       "wildcard proceeds",
			clientTag:  "*",
			currentTag: `"cafebabe"`,
			proceed:    true,
		},
		{
			name:       "list with a match proceeds",
			clientTag:  `"deadbeef", "cafebabe"`,
			currentTag: `"cafebabe"`,
			proceed:    true,
		},
		{
			name:       "list without a match fails",
			clientTag:  `"deadbeef", "feedface"`,
			currentTag: `"cafebabe"`,
			proceed:    false,
		},
		{
			name:       "weak prefix is ignored",
			clientTag:  `W/"cafebabe"`,
			currentTag: `"cafebabe"`,
			proceed:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.proceed, EvaluateIfMatch(tt.clientTag, tt.currentTag))
		})
	}
}

func TestEvaluateIfNoneMatch(t *testing.T) {
	tests := []struct {
		name       string
		clientTag  string
		currentTag string
		sendFull   bool
	}{
		{
			name:       "absent header sends full response",
			clientTag:  "",
			currentTag: `"cafebabe"`,
			sendFull:   true,
		},
		{
			name:       "matching tag short-circuits",
			clientTag:  `"cafebabe"`,
			currentTag: `"cafebabe"`,
			sendFull:   false,
		},
		{
			name:       "mismatching tag sends full response",
			clientTag:  `"deadbeef"`,
			currentTag: `"cafebabe"`,
			sendFull:   true,
		},
		{
			name:       "wildcard short-circuits",
			clientTag:  "*",
			currentTag: `"cafebabe"`,
			sendFull:   false,
		},
		{
			name:       "list with a match short-circuits",
			clientTag:  `"deadbeef", "cafebabe"`,
			currentTag: `"cafebabe"`,
			sendFull:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.sendFull, EvaluateIfNoneMatch(tt.clientTag, tt.currentTag))
		})
	}
}
