package notifier

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"givepay/internal/models"

	"github.com/google/uuid"
)

//go:generate mockgen -source=notifier.go -destination=../../test/mock_notifier.go -package=test

// milestoneCount is the lifetime donation total at which the sender gets a
// notification: the third committed donation and every one after it.
const milestoneCount = 3

const (
	Exchange   = "notifications"
	RoutingKey = "donation.milestone"
)

type Publisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body any) error
}

// Store is the slice of the ledger store the notifier reads. It never writes.
type Store interface {
	GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

type MilestoneEvent struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// event carries the donation count captured inside the transfer's own
// transaction. The worker evaluates that count, never a fresh one, so each
// event reflects its own transfer's position even when processed late.
type event struct {
	senderID uuid.UUID
	count    int64
}

// Notifier decouples milestone notification from the transfer response path:
// Submit enqueues and returns immediately, a single worker does the publishing
// with bounded retries. A full queue drops the event.
type Notifier struct {
	store       Store
	pub         Publisher
	logger      *slog.Logger
	queue       chan event
	wg          sync.WaitGroup
	maxAttempts int
	perEvent    time.Duration
}

func New(store Store, pub Publisher, logger *slog.Logger, queueSize int) *Notifier {
	if queueSize < 1 {
		queueSize = 1
	}
	n := &Notifier{
		store:       store,
		pub:         pub,
		logger:      logger,
		queue:       make(chan event, queueSize),
		maxAttempts: 3,
		perEvent:    5 * time.Second,
	}
	n.wg.Add(1)
	go n.run()
	return n
}

// Submit never blocks the caller; transfer latency must not depend on the
// notification path. donationCount is the sender's total as of the transfer's
// commit, including it.
func (n *Notifier) Submit(senderID uuid.UUID, donationCount int64) {
	select {
	case n.queue <- event{senderID: senderID, count: donationCount}:
	default:
		n.logger.Warn("Notification queue full, dropping event",
			slog.String("sender_id", senderID.String()),
		)
	}
}

// Close drains already-submitted events and stops the worker.
func (n *Notifier) Close() {
	close(n.queue)
	n.wg.Wait()
}

func (n *Notifier) run() {
	defer n.wg.Done()
	for ev := range n.queue {
		n.process(ev)
	}
}

func (n *Notifier) process(ev event) {
	if ev.count < milestoneCount {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), n.perEvent)
	defer cancel()

	user, err := n.store.GetUser(ctx, ev.senderID)
	if err != nil {
		n.logger.Error("Milestone user lookup failed",
			slog.String("sender_id", ev.senderID.String()),
			slog.Any("err", err),
		)
		return
	}

	payload := MilestoneEvent{Email: user.Email, Name: user.Name}
	for attempt := 0; attempt < n.maxAttempts; attempt++ {
		if err = n.pub.Publish(ctx, Exchange, RoutingKey, payload); err == nil {
			n.logger.Info("Milestone notification dispatched",
				slog.String("sender_id", ev.senderID.String()),
				slog.Int64("donation_count", ev.count),
			)
			return
		}
		time.Sleep(time.Duration(1<<attempt) * 100 * time.Millisecond)
	}
	n.logger.Error("Milestone notification failed after retries",
		slog.String("sender_id", ev.senderID.String()),
		slog.Any("err", err),
	)
}
