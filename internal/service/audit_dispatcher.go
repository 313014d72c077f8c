package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/uniroom-api/internal/models"
	"github.com/noah-isme/uniroom-api/pkg/jobs"
)

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// AuditDispatcher writes audit logs off the request path through a job
// queue. When the queue refuses a job the log is written inline.
type AuditDispatcher struct {
	repo   auditLogger
	queue  *jobs.Queue[*models.AuditLog]
	logger *zap.Logger
}

// NewAuditDispatcher wires a queue whose workers persist audit logs via repo.
func NewAuditDispatcher(repo auditLogger, cfg jobs.QueueConfig) *AuditDispatcher {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	d := &AuditDispatcher{repo: repo, logger: cfg.Logger}
	d.queue = jobs.NewQueue[*models.AuditLog]("audit", d.handle, cfg)
	return d
}

// Start launches the queue workers.
func (d *AuditDispatcher) Start(ctx context.Context) {
	d.queue.Start(ctx)
}

// Stop drains buffered logs and stops the workers.
func (d *AuditDispatcher) Stop() {
	d.queue.Stop()
}

// CreateAuditLog enqueues log for persistence.
func (d *AuditDispatcher) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	if log == nil {
		return nil
	}
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	if err := d.queue.Enqueue(log.ID, log); err != nil {
		d.logger.Warn("audit queue rejected log, writing inline", zap.String("action", log.Action), zap.Error(err))
		return d.repo.CreateAuditLog(context.WithoutCancel(ctx), log)
	}
	return nil
}

// Stats reports the audit backlog.
func (d *AuditDispatcher) Stats() jobs.Stats {
	return d.queue.Stats()
}

func (d *AuditDispatcher) handle(ctx context.Context, job jobs.Job[*models.AuditLog]) error {
	return d.repo.CreateAuditLog(ctx, job.Payload)
}
