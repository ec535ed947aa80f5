package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
)

// Email kinds carried by SendEmailPayload.
const (
	EmailKindVerification = "verification"
	EmailKindWelcome      = "welcome"
)

// SendEmailPayload describes the information required to send an email.
// Token is only set for verification mail.
type SendEmailPayload struct {
	To    string `json:"to"`
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Token string `json:"token,omitempty"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data, asynq.MaxRetry(5)), nil
}

// MailSender delivers rendered transactional mail.
type MailSender interface {
	SendVerification(to, name, token string) error
	SendWelcome(to, name string) error
}

// NewSendEmailHandler returns the handler processing TaskTypeSendEmail
// tasks. Malformed payloads are dropped, delivery failures retry.
func NewSendEmailHandler(sender MailSender, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload SendEmailPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("jobs: decode %s payload: %v: %w", TaskTypeSendEmail, err, asynq.SkipRetry)
		}
		var err error
		switch payload.Kind {
		case EmailKindVerification:
			err = sender.SendVerification(payload.To, payload.Name, payload.Token)
		case EmailKindWelcome:
			err = sender.SendWelcome(payload.To, payload.Name)
		default:
			return fmt.Errorf("jobs: unknown email kind %q: %w", payload.Kind, asynq.SkipRetry)
		}
		if err != nil {
			logger.Warn("send email", slog.String("kind", payload.Kind), slog.String("to", payload.To), slog.Any("error", err))
			return err
		}
		logger.Info("email sent", slog.String("kind", payload.Kind), slog.String("to", payload.To))
		return nil
	}
}
