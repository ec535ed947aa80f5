package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	verifications []string
	welcomes      []string
	fail          bool
}

func (r *recordingSender) SendVerification(to, _, _ string) error {
	if r.fail {
		return errors.New("smtp down")
	}
	r.verifications = append(r.verifications, to)
	return nil
}

func (r *recordingSender) SendWelcome(to, _ string) error {
	if r.fail {
		return errors.New("smtp down")
	}
	r.welcomes = append(r.welcomes, to)
	return nil
}

func newTestHandler(sender *recordingSender) asynq.HandlerFunc {
	return NewSendEmailHandler(sender, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSendEmailHandlerVerification(t *testing.T) {
	sender := &recordingSender{}
	handler := newTestHandler(sender)

	task, err := NewSendEmailTask(SendEmailPayload{
		To:    "winter@example.com",
		Name:  "Winter",
		Kind:  EmailKindVerification,
		Token: "tok",
	})
	require.NoError(t, err)
	require.NoError(t, handler(context.Background(), task))
	require.Equal(t, []string{"winter@example.com"}, sender.verifications)
}

func TestSendEmailHandlerWelcome(t *testing.T) {
	sender := &recordingSender{}
	handler := newTestHandler(sender)

	task, err := NewSendEmailTask(SendEmailPayload{To: "winter@example.com", Name: "Winter", Kind: EmailKindWelcome})
	require.NoError(t, err)
	require.NoError(t, handler(context.Background(), task))
	require.Equal(t, []string{"winter@example.com"}, sender.welcomes)
}

func TestSendEmailHandlerUnknownKindSkipsRetry(t *testing.T) {
	handler := newTestHandler(&recordingSender{})

	task, err := NewSendEmailTask(SendEmailPayload{To: "winter@example.com", Kind: "newsletter"})
	require.NoError(t, err)
	err = handler(context.Background(), task)
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestSendEmailHandlerDeliveryFailureRetries(t *testing.T) {
	sender := &recordingSender{fail: true}
	handler := newTestHandler(sender)

	task, err := NewSendEmailTask(SendEmailPayload{To: "winter@example.com", Kind: EmailKindWelcome})
	require.NoError(t, err)
	err = handler(context.Background(), task)
	require.Error(t, err)
	require.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestSendEmailHandlerMalformedPayload(t *testing.T) {
	handler := newTestHandler(&recordingSender{})
	task := asynq.NewTask(TaskTypeSendEmail, []byte("{not json"))
	err := handler(context.Background(), task)
	require.ErrorIs(t, err, asynq.SkipRetry)
}
