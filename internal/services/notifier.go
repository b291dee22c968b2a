package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/uyho/backend/internal/models"
)

// TaskEnqueuer is the part of *asynq.Client used to queue tasks
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// certificateNotifier queues certificate e-mails for the worker
type certificateNotifier struct {
	client TaskEnqueuer
	logger *zap.Logger
}

// NewCertificateNotifier creates a notifier backed by an asynq client
func NewCertificateNotifier(client TaskEnqueuer, logger *zap.Logger) *certificateNotifier {
	return &certificateNotifier{
		client: client,
		logger: logger,
	}
}

// NotifyCertificateIssued queues a certificate:issued task
func (n *certificateNotifier) NotifyCertificateIssued(ctx context.Context, payload models.CertificateIssuedPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	task := asynq.NewTask(models.TaskCertificateIssued, data)
	info, err := n.client.EnqueueContext(ctx, task, asynq.Queue("default"), asynq.MaxRetry(5))
	if err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	n.logger.Debug("certificate notification queued", zap.String("task_id", info.ID), zap.String("code", payload.Code))
	return nil
}
