// Package notify posts risk alerts to Slack.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/slack-go/slack"

	"github.com/dvloznov/docrisk/internal/domain"
)

// Notifier announces a finished assessment.
type Notifier interface {
	Notify(ctx context.Context, rec *domain.AssessmentRecord) error
}

// Poster is the subset of *slack.Client the notifier uses.
type Poster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// Slack posts assessments at or above MinBin to a channel.
type Slack struct {
	poster  Poster
	channel string
	minBin  domain.RiskBin
}

// NewSlack creates a notifier backed by a bot token.
func NewSlack(token, channel string, minBin domain.RiskBin) *Slack {
	return NewSlackWithPoster(slack.New(token), channel, minBin)
}

// NewSlackWithPoster creates a notifier with an existing client.
func NewSlackWithPoster(poster Poster, channel string, minBin domain.RiskBin) *Slack {
	return &Slack{poster: poster, channel: channel, minBin: minBin}
}

// Notify posts rec when its bin ranks at or above the configured minimum.
// Lower bins are ignored.
func (s *Slack) Notify(ctx context.Context, rec *domain.AssessmentRecord) error {
	if !ShouldAlert(rec.Bin, s.minBin) {
		return nil
	}

	_, _, err := s.poster.PostMessageContext(ctx, s.channel, slack.MsgOptionText(Message(rec), false))
	if err != nil {
		return fmt.Errorf("post risk alert for %s: %w", rec.DocumentID, err)
	}
	return nil
}

// ShouldAlert reports whether bin reaches minBin.
func ShouldAlert(bin, minBin domain.RiskBin) bool {
	return bin.Rank() > 0 && bin.Rank() >= minBin.Rank()
}

// Message renders the alert text.
func Message(rec *domain.AssessmentRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, ":warning: *%s* risk for document `%s` (%s)\n", rec.Bin, rec.DocumentID, rec.DocumentType)
	fmt.Fprintf(&b, "Score: %.0f, decision: %s\n", rec.Score, rec.Decision)
	for _, r := range rec.Rationale {
		b.WriteString("• " + r + "\n")
	}
	fmt.Fprintf(&b, "Assessment: %s", rec.ID)
	return b.String()
}
