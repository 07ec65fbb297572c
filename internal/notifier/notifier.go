// Package notifier реализует фоновую доставку уведомлений.
//
// Доставка отвязана от транзакции, породившей уведомление: задача
// ставится в очередь после коммита, выполняется в фоне и при сбое
// теряется без влияния на исходную операцию.
package notifier

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/campus-trade/internal/model"
)

// Store описывает контракт записи уведомлений в хранилище.
type Store interface {
	CreateNotification(ctx context.Context, n *model.Notification) error
}

// Notifier принимает уведомления в буферизованную очередь и записывает их
// в хранилище из фоновой горутины.
type Notifier struct {
	store  Store
	logger *zap.Logger
	queue  chan model.Notification
}

const defaultQueueSize = 256

// New создаёт Notifier с очередью указанного размера.
// При size <= 0 используется размер по умолчанию.
func New(store Store, logger *zap.Logger, size int) *Notifier {
	if size <= 0 {
		size = defaultQueueSize
	}
	return &Notifier{
		store:  store,
		logger: logger,
		queue:  make(chan model.Notification, size),
	}
}

// Dispatch ставит уведомление в очередь доставки, не блокируя вызывающего.
// При переполненной очереди уведомление отбрасывается.
func (n *Notifier) Dispatch(notification model.Notification) {
	select {
	case n.queue <- notification:
	default:
		n.logger.Warn("notification queue is full, dropping",
			zap.String("type", string(notification.Type)),
			zap.Int64("receiverID", notification.ReceiverID))
	}
}

// Run обрабатывает очередь до отмены контекста.
func (n *Notifier) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case notification := <-n.queue:
			n.deliver(notification)
		}
	}
}

func (n *Notifier) deliver(notification model.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := n.store.CreateNotification(ctx, &notification); err != nil {
		n.logger.Warn("notification delivery failed",
			zap.Error(err),
			zap.String("type", string(notification.Type)),
			zap.Int64("receiverID", notification.ReceiverID))
	}
}
