package otpinfra

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hypeframe/monarch/pkg/jobx"
	"github.com/hypeframe/monarch/pkg/kernel"
	"github.com/hypeframe/monarch/pkg/notifx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakySender struct {
	failures int
	sent     []notifx.EmailMessage
}

func (s *flakySender) SendEmail(_ context.Context, msg notifx.EmailMessage, _ ...notifx.Option) error {
	if s.failures > 0 {
		s.failures--
		return errors.New("throttled")
	}
	s.sent = append(s.sent, msg)
	return nil
}

func TestEmailOTPNotifier_RetriesThenDelivers(t *testing.T) {
	sender := &flakySender{failures: 2}
	n := NewEmailOTPNotifier(notifx.NewClient(sender), 10*time.Minute)

	require.NoError(t, n.SendOTP(context.Background(), "p1", "a@x.io", "123456"))
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].HTMLBody, "123456")
}

func TestEmailOTPNotifier_GivesUp(t *testing.T) {
	sender := &flakySender{failures: 10}
	n := NewEmailOTPNotifier(notifx.NewClient(sender), 10*time.Minute)
	assert.Error(t, n.SendOTP(context.Background(), "p1", "a@x.io", "123456"))
}

type capturingQueue struct {
	jobs []jobx.Job
}

func (q *capturingQueue) Enqueue(_ context.Context, job jobx.Job) (string, error) {
	q.jobs = append(q.jobs, job)
	return "job-1", nil
}

func (q *capturingQueue) EnqueueDelayed(ctx context.Context, job jobx.Job, _ time.Duration) (string, error) {
	return q.Enqueue(ctx, job)
}

type recordingDelivery struct {
	projectID kernel.ProjectID
	email     string
	code      string
}

func (r *recordingDelivery) SendOTP(_ context.Context, projectID kernel.ProjectID, email, code string) error {
	r.projectID, r.email, r.code = projectID, email, code
	return nil
}

func TestQueuedOTPNotifier_RoundTripsThroughHandler(t *testing.T) {
	q := &capturingQueue{}
	require.NoError(t, NewQueuedOTPNotifier(q).SendOTP(context.Background(), "p1", "a@x.io", "654321"))
	require.Len(t, q.jobs, 1)
	assert.Equal(t, JobTypeDeliverOTP, q.jobs[0].Type)

	delivery := &recordingDelivery{}
	handler := DeliverOTPHandler(delivery)
	err := handler(context.Background(), &jobx.JobInfo{ID: "job-1", Type: JobTypeDeliverOTP, Payload: q.jobs[0].Payload})
	require.NoError(t, err)
	assert.Equal(t, kernel.ProjectID("p1"), delivery.projectID)
	assert.Equal(t, "a@x.io", delivery.email)
	assert.Equal(t, "654321", delivery.code)
}
