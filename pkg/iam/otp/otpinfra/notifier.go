package otpinfra

import (
	"context"
	"time"

	"github.com/hypeframe/monarch/pkg/asyncx"
	"github.com/hypeframe/monarch/pkg/iam/otp"
	"github.com/hypeframe/monarch/pkg/jobx"
	"github.com/hypeframe/monarch/pkg/kernel"
	"github.com/hypeframe/monarch/pkg/logx"
	"github.com/hypeframe/monarch/pkg/notifx"
)

// JobTypeDeliverOTP es el tipo de job que entrega un código por email.
const JobTypeDeliverOTP = "otp.deliver"

const (
	deliveryAttempts     = 3
	deliveryInitialDelay = 200 * time.Millisecond
)

// ============================================================================
// Direct delivery
// ============================================================================

// EmailOTPNotifier envía el código por email en línea, con reintentos exponenciales.
type EmailOTPNotifier struct {
	client *notifx.Client
	ttl    time.Duration
}

func NewEmailOTPNotifier(client *notifx.Client, ttl time.Duration) *EmailOTPNotifier {
	return &EmailOTPNotifier{client: client, ttl: ttl}
}

func (n *EmailOTPNotifier) SendOTP(ctx context.Context, projectID kernel.ProjectID, email string, code string) error {
	data := notifx.OTPCodeData{Code: code, ExpiresInMinutes: int(n.ttl.Minutes())}
	msg := notifx.OTPCodeMessage(email, data)
	tags := notifx.WithTags(map[string]string{"project_id": projectID.String(), "kind": "otp"})

	_, err := asyncx.RetryWithBackoff(ctx, deliveryAttempts, deliveryInitialDelay, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, n.client.SendTemplatedEmail(ctx, notifx.TemplateOTPCode, data, msg, tags)
	})
	return err
}

// ============================================================================
// Queued delivery
// ============================================================================

// deliverOTPPayload viaja en el job; el código expira con el challenge.
type deliverOTPPayload struct {
	ProjectID kernel.ProjectID `json:"project_id"`
	Email     string           `json:"email"`
	Code      string           `json:"code"`
}

// QueuedOTPNotifier encola la entrega para que la procese un worker de jobx.
type QueuedOTPNotifier struct {
	jobs jobx.JobEnqueuer
}

func NewQueuedOTPNotifier(jobs jobx.JobEnqueuer) *QueuedOTPNotifier {
	return &QueuedOTPNotifier{jobs: jobs}
}

func (n *QueuedOTPNotifier) SendOTP(ctx context.Context, projectID kernel.ProjectID, email string, code string) error {
	job, err := jobx.NewJob(JobTypeDeliverOTP, deliverOTPPayload{ProjectID: projectID, Email: email, Code: code})
	if err != nil {
		return err
	}

	jobID, err := n.jobs.Enqueue(ctx, job)
	if err != nil {
		return err
	}
	logx.WithContext(ctx).WithField("job_id", jobID).Debug("OTP delivery queued")
	return nil
}

// DeliverOTPHandler procesa los jobs JobTypeDeliverOTP con el notifier dado.
func DeliverOTPHandler(delivery otp.NotificationService) jobx.HandlerFunc {
	return func(ctx context.Context, job *jobx.JobInfo) error {
		var payload deliverOTPPayload
		if err := job.Decode(&payload); err != nil {
			return err
		}
		return delivery.SendOTP(ctx, payload.ProjectID, payload.Email, payload.Code)
	}
}
