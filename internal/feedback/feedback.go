// Package feedback turns a resolved day into the Procrastinemon's message.
// Fixed templates are authoritative; a Generator may supply flavor text.
package feedback

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rcliao/procrastinemon/internal/logger"
	"github.com/rcliao/procrastinemon/internal/model"
)

// FallbackMessage is shown when no category-specific text is available.
const FallbackMessage = "Your Procrastinemon is silent today... must be plotting."

// DefaultTimeout bounds a Generator call.
const DefaultTimeout = 5 * time.Second

// maxWords caps generated text; the prompt asks for under 50.
const maxWords = 60

// Summary is everything a Generator is told about the day.
type Summary struct {
	GoalsCompleted int `json:"goalsCompleted"`
	TotalGoals     int `json:"totalGoals"`
}

// Generator produces a short message for a day summary.
type Generator interface {
	Generate(ctx context.Context, s Summary) (string, error)
	Name() string
}

// Render returns the fixed message for a category.
func Render(category model.Category, completed, missed int) string {
	switch category {
	case model.CategoryAllCompleted:
		return "You've crushed your goals today! Your Procrastinemon is pleased."
	case model.CategoryNoneCompleted:
		return "All goals missed. Your demon has grown stronger from your procrastination."
	case model.CategoryMixedMoreCompleted:
		return fmt.Sprintf("Well done! You completed %d goals. Your demon is a little weaker today.", completed)
	case model.CategoryMixedMoreMissed:
		return fmt.Sprintf("You completed %d goals but missed %d. Your demon is gaining power...", completed, missed)
	default:
		return FallbackMessage
	}
}

// Prompt builds the generation prompt for a summary.
func Prompt(s Summary) string {
	return fmt.Sprintf(`You are the Procrastinemon, a demon that either taunts or rewards the user based on their productivity today.

The user set %d goals for today, and completed %d of them.

If the user completed all their goals, provide an encouraging message.
If the user completed none of their goals, provide a funny taunting message to try and motivate them.
If the user completed some but not all of their goals, provide a neutral message that encourages them to do better tomorrow.

Keep the message short and engaging, and under 50 words. Reply with the message only.`, s.TotalGoals, s.GoalsCompleted)
}

// Renderer produces the message for a resolution. With a nil Generator it
// only uses the fixed templates.
type Renderer struct {
	gen     Generator
	timeout time.Duration
	log     *logger.Logger
}

// NewRenderer creates a Renderer. timeout <= 0 uses DefaultTimeout.
func NewRenderer(gen Generator, timeout time.Duration, log *logger.Logger) *Renderer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Renderer{gen: gen, timeout: timeout, log: log.With("component", "feedback")}
}

// Message returns the text for res and whether a Generator produced it.
// Generator failures and timeouts degrade to the fixed template.
func (r *Renderer) Message(ctx context.Context, res model.ResolutionResult) (string, bool) {
	fixed := Render(res.Category, res.CompletedGoals, res.MissedGoals)
	if r == nil || r.gen == nil {
		return fixed, false
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	type reply struct {
		text string
		err  error
	}
	ch := make(chan reply, 1)
	go func() {
		text, err := r.gen.Generate(ctx, Summary{GoalsCompleted: res.CompletedGoals, TotalGoals: res.TotalGoals})
		ch <- reply{text, err}
	}()

	select {
	case rep := <-ch:
		if rep.err != nil {
			r.log.Warn("message generation failed", "generator", r.gen.Name(), "error", rep.err)
			return fixed, false
		}
		text := clean(rep.text)
		if text == "" {
			r.log.Warn("message generation returned no text", "generator", r.gen.Name())
			return fixed, false
		}
		return text, true
	case <-ctx.Done():
		r.log.Warn("message generation timed out", "generator", r.gen.Name(), "timeout", r.timeout)
		return fixed, false
	}
}

// clean trims quotes and whitespace and caps the word count.
func clean(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "\"“”")
	words := strings.Fields(s)
	if len(words) > maxWords {
		words = words[:maxWords]
		return strings.Join(words, " ") + "..."
	}
	return strings.Join(words, " ")
}
