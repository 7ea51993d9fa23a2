package reply

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sipalingnode/yapbot/internal/classifier"
	"github.com/sipalingnode/yapbot/internal/models"
)

type fakeGenerator struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func TestCompose_PureGreetingWithDisplayName(t *testing.T) {
	gen := &fakeGenerator{}
	s := NewSelector(gen, zap.NewNop())

	post := models.Post{ID: "1", Text: "gm ct", DisplayName: "Alice"}
	text, err := s.Compose(context.Background(), post, classifier.Classify(post.Text))

	require.NoError(t, err)
	assert.Equal(t, "GM Alice", text)
	assert.Empty(t, gen.prompts, "pure greeting must not call the generator")
}

func TestCompose_PureGreetingWithoutDisplayName(t *testing.T) {
	s := NewSelector(&fakeGenerator{}, zap.NewNop())

	post := models.Post{ID: "2", Text: "gn"}
	text, err := s.Compose(context.Background(), post, classifier.Classify(post.Text))

	require.NoError(t, err)
	assert.Equal(t, "GN", text)
}

func TestCompose_ContextualGreetingPromptStartsWithGreetingLine(t *testing.T) {
	gen := &fakeGenerator{reply: "GM Bob, that chart does look strong for the next few weeks."}
	s := NewSelector(gen, zap.NewNop())

	post := models.Post{
		ID:          "3",
		Text:        "Good morning everyone, market looking bullish today gm fam",
		DisplayName: "Bob",
	}
	text, err := s.Compose(context.Background(), post, classifier.Classify(post.Text))

	require.NoError(t, err)
	assert.Equal(t, gen.reply, text)
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], `STARTS with exactly: "GM Bob"`)
	assert.Contains(t, gen.prompts[0], post.Text)
}

func TestCompose_GenericUsesGenericPrompt(t *testing.T) {
	gen := &fakeGenerator{reply: "That release sounds useful, how does it handle larger projects?"}
	s := NewSelector(gen, zap.NewNop())

	post := models.Post{ID: "4", Text: "just shipped a new release, feedback welcome"}
	text, err := s.Compose(context.Background(), post, classifier.Classify(post.Text))

	require.NoError(t, err)
	assert.Equal(t, gen.reply, text)
	require.Len(t, gen.prompts, 1)
	assert.True(t, strings.Contains(gen.prompts[0], "fits the exact context and intent"))
	assert.Contains(t, gen.prompts[0], post.Text)
}

func TestCompose_GeneratorFailureWrapsErrGeneration(t *testing.T) {
	gen := &fakeGenerator{err: fmt.Errorf("%w: rate limited", models.ErrGeneration)}
	s := NewSelector(gen, zap.NewNop())

	post := models.Post{ID: "5", Text: "what do you all think about this?"}
	_, err := s.Compose(context.Background(), post, classifier.Classify(post.Text))

	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrGeneration))
}
