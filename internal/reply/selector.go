package reply

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sipalingnode/yapbot/internal/classifier"
	"github.com/sipalingnode/yapbot/internal/models"
)

// Generator produces reply text from a prompt. Failures, including
// rate-limit and quota errors, are returned wrapped in
// models.ErrGeneration.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Selector dispatches on the classified reply mode: pure greetings are
// composed locally without a generator call, the other two modes go
// through the generator with mode-specific prompts.
type Selector struct {
	generator Generator
	logger    *zap.Logger
}

func NewSelector(generator Generator, logger *zap.Logger) *Selector {
	return &Selector{
		generator: generator,
		logger:    logger,
	}
}

// Compose returns the reply text for a post. The returned error wraps
// models.ErrGeneration whenever the generator is involved and fails;
// the caller is expected to back off and skip the post for the cycle.
func (s *Selector) Compose(ctx context.Context, post models.Post, c classifier.Classification) (string, error) {
	switch c.Mode {
	case classifier.ModePureGreeting:
		text := greetingLine(c.Greeting, post.DisplayName)
		s.logger.Info("Composed pure greeting reply",
			zap.String("post_id", post.ID),
			zap.String("reply", text))
		return text, nil

	case classifier.ModeContextualGreeting:
		prompt := buildGreetingContextPrompt(post.Text, greetingLine(c.Greeting, post.DisplayName))
		return s.generate(ctx, post.ID, prompt)

	default:
		return s.generate(ctx, post.ID, buildGenericPrompt(post.Text))
	}
}

func (s *Selector) generate(ctx context.Context, postID, prompt string) (string, error) {
	text, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("compose reply for %s: %w", postID, err)
	}
	return text, nil
}

// greetingLine builds "GM Alice" style text, or just the greeting when
// the author has no display name.
func greetingLine(g classifier.Greeting, displayName string) string {
	if displayName == "" {
		return string(g)
	}
	return fmt.Sprintf("%s %s", g, displayName)
}

func buildGenericPrompt(originalPost string) string {
	return fmt.Sprintf(`You are a human-like Twitter user replying to a tweet.

TASK:
1. Read the Original Post.
2. Detect the language of the Original Post.
3. Write ONE short, natural reply that fits the exact context and intent.

CONSTRAINTS:
- Reply ONLY in the same language as the Original Post.
- Length: between 10 and 15 words.
- No emojis, no hashtags, no bullet points, no line breaks.
- Do NOT use the dash character (-) anywhere.
- Use normal punctuation only: commas, periods, question marks.
- The reply must specifically address the tweet's content and intent
  (e.g. question, opinion, alpha, announcement)
  and must NOT sound generic or templated.

Original Post:
%s

Reply:`, originalPost)
}

func buildGreetingContextPrompt(originalPost, greeting string) string {
	return fmt.Sprintf(`You are a human-like Twitter user replying to a tweet that starts with a GM/GN greeting.

TASK:
1. Read the Original Post.
2. Detect the language of the Original Post.
3. Write ONE short, natural reply that:
   - STARTS with exactly: "%s"
   - Then continues with a few more words reacting to the rest of the tweet.

CONSTRAINTS:
- Reply ONLY in the same language as the Original Post.
- Total length: between 10 and 15 words (including the greeting line).
- No emojis, no hashtags, no bullet points, no line breaks.
- Do NOT use the dash character (-) anywhere.
- Use normal punctuation only: commas, periods, question marks.
- The reply must clearly respond to the tweet's context, not just say GM or GN.

Original Post:
%s

Reply:`, greeting, originalPost)
}
