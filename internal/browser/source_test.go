package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePost(t *testing.T) {
	raw := rawPost{
		ID:          "1234567890",
		Text:        "gm ct",
		CreatedAt:   "2026-08-27T09:15:00.000Z",
		Username:    "@alice",
		DisplayName: "Alice",
		HasImage:    true,
	}

	post, err := parsePost(raw)
	require.NoError(t, err)

	assert.Equal(t, "1234567890", post.ID)
	assert.Equal(t, "gm ct", post.Text)
	assert.Equal(t, "@alice", post.Username)
	assert.Equal(t, "Alice", post.DisplayName)
	assert.True(t, post.HasImage)
	assert.Equal(t, 2026, post.CreatedAt.Year())
	assert.Equal(t, "UTC", post.CreatedAt.Location().String())
}

func TestParsePost_InvalidTimestamp(t *testing.T) {
	_, err := parsePost(rawPost{ID: "1", CreatedAt: "yesterday"})
	require.Error(t, err)
}

func TestAuthorKeyFallbacks(t *testing.T) {
	post, err := parsePost(rawPost{ID: "1", CreatedAt: "2026-08-27T09:15:00Z", Username: "@Alice"})
	require.NoError(t, err)
	assert.Equal(t, "@alice", post.AuthorKey())

	post, err = parsePost(rawPost{ID: "2", CreatedAt: "2026-08-27T09:15:00Z", DisplayName: "Bob Crypto"})
	require.NoError(t, err)
	assert.Equal(t, "bob crypto", post.AuthorKey())

	post, err = parsePost(rawPost{ID: "3", CreatedAt: "2026-08-27T09:15:00Z"})
	require.NoError(t, err)
	assert.Equal(t, "unknown", post.AuthorKey())
}
