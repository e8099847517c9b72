package notifier

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"

	"portfolio-service/logger"
)

// LoginNotifier is told about every admin login attempt.
type LoginNotifier interface {
	NotifyLogin(ctx context.Context, username, clientIP string, success bool) error
}

type Slack struct {
	api       *slack.Client
	channelID string
	log       logger.Logger
}

func NewSlack(token, channelID string, log logger.Logger, opts ...slack.Option) *Slack {
	return &Slack{
		api:       slack.New(token, opts...),
		channelID: channelID,
		log:       log,
	}
}

func (s *Slack) SendMsg(ctx context.Context, text string) error {
	_, _, err := s.api.PostMessageContext(
		ctx,
		s.channelID,
		slack.MsgOptionText(text, false),
	)
	if err != nil {
		s.log.Error("failed to send message to Slack channel %s: %v", s.channelID, err)
		return err
	}
	s.log.Debug("Message sent successfully to Slack channel: %s", s.channelID)

	return nil
}

func (s *Slack) NotifyLogin(ctx context.Context, username, clientIP string, success bool) error {
	return s.SendMsg(ctx, loginMessage(username, clientIP, success))
}

func loginMessage(username, clientIP string, success bool) string {
	if success {
		return fmt.Sprintf(":unlock: Admin login for `%s` from %s", username, clientIP)
	}
	return fmt.Sprintf(":warning: Failed admin login for `%s` from %s", username, clientIP)
}

// Nop drops notifications. Used when Slack is not configured.
type Nop struct{}

func (Nop) NotifyLogin(context.Context, string, string, bool) error { return nil }
