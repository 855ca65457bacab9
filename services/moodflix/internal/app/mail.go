package app

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"moodflix/internal/metrics"
	"moodflix/internal/util"
	"moodflix/pkg/mailer"
	"moodflix/pkg/queue"
)

// MailJobKind tags password reset mails on the job queue.
const MailJobKind = "mail.reset_code"

// MailDispatcher hands a message to delivery, either inline or via the
// outbox queue.
type MailDispatcher interface {
	Dispatch(ctx context.Context, msg mailer.Message) error
}

// DirectMail sends inline.
type DirectMail struct {
	Sender mailer.Sender
}

func (d DirectMail) Dispatch(ctx context.Context, msg mailer.Message) error {
	if err := d.Sender.Send(ctx, msg); err != nil {
		metrics.MailJobs.WithLabelValues("failed").Inc()
		return fmt.Errorf("send mail: %w", err)
	}
	metrics.MailJobs.WithLabelValues("sent").Inc()
	return nil
}

// Enqueuer is the producer side of a job queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, kind, payload string) (queue.Job, error)
}

// QueuedMail appends the message to the outbox; a worker running
// MailJobHandler delivers it.
type QueuedMail struct {
	Queue Enqueuer
}

func (q QueuedMail) Dispatch(ctx context.Context, msg mailer.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal mail: %w", err)
	}
	job, err := q.Queue.Enqueue(ctx, MailJobKind, string(payload))
	if err != nil {
		return fmt.Errorf("enqueue mail: %w", err)
	}
	metrics.MailJobs.WithLabelValues("queued").Inc()
	util.LoggerFromContext(ctx).Info("mail queued", "job_id", job.ID, "to", maskEmail(msg.To))
	return nil
}

// MailJobHandler delivers queued mail. Malformed or foreign jobs are dropped
// without retry.
func MailJobHandler(sender mailer.Sender) queue.Handler {
	return func(ctx context.Context, job queue.Job) error {
		logger := util.LoggerFromContext(ctx).With("job_id", job.ID, "kind", job.Kind)
		if job.Kind != MailJobKind {
			metrics.MailJobs.WithLabelValues("dropped").Inc()
			logger.Warn("unknown job kind dropped")
			return nil
		}
		var msg mailer.Message
		if err := json.Unmarshal([]byte(job.Payload), &msg); err != nil || msg.To == "" {
			metrics.MailJobs.WithLabelValues("dropped").Inc()
			logger.Warn("malformed mail job dropped", "err", err)
			return nil
		}
		if err := sender.Send(ctx, msg); err != nil {
			metrics.MailJobs.WithLabelValues("failed").Inc()
			return fmt.Errorf("send mail: %w", err)
		}
		metrics.MailJobs.WithLabelValues("sent").Inc()
		logger.Info("mail sent", "to", maskEmail(msg.To), "attempt", job.Attempts)
		return nil
	}
}
