package notify

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"
)

// QueuePublisher enqueues reminder events to an Azure Storage queue for
// out-of-process consumers. Failures are logged and dropped.
type QueuePublisher struct {
	queue  *azqueue.QueueClient
	logger *log.Logger
}

func NewQueuePublisher(connStr, queueName string, logger *log.Logger) (*QueuePublisher, error) {
	queue, err := azqueue.NewQueueClientFromConnectionString(connStr, queueName, nil)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &QueuePublisher{queue: queue, logger: logger}, nil
}

func (p *QueuePublisher) ReminderSent(ctx context.Context, ev Event) {
	payload, err := sonic.Marshal(ev)
	if err != nil {
		p.logger.WithError(err).Error("marshal reminder event")
		return
	}
	if _, err := p.queue.EnqueueMessage(ctx, string(payload), nil); err != nil {
		p.logger.Errorf("enqueue reminder event failed, err: %v, task: %s", err, ev.TaskID)
	}
}
