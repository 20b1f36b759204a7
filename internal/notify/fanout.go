// Package notify delivers new-chapter messages to every subscribed user.
package notify

import (
	"context"
	"fmt"
	"slices"

	"github.com/xKaaZz/Waeleaks/internal/domain"
	"github.com/xKaaZz/Waeleaks/internal/logger"
	"github.com/xKaaZz/Waeleaks/internal/metrics"
)

// Messenger sends one text to one recipient over an external messaging API.
type Messenger interface {
	Send(ctx context.Context, recipientID, credential, text string) error
}

// SubscriberSource lists users eligible for notification.
type SubscriberSource interface {
	Subscribers(ctx context.Context) ([]domain.Subscriber, error)
}

// Delivery is the outcome for a single recipient.
type Delivery struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Err      error  `json:"-"`
}

// Report collects the deliveries of one fan-out in subscriber order.
type Report struct {
	Message    string
	Deliveries []Delivery
}

// Delivered counts successful deliveries.
func (r Report) Delivered() int {
	n := 0
	for _, d := range r.Deliveries {
		if d.Err == nil {
			n++
		}
	}
	return n
}

// Failed counts failed deliveries.
func (r Report) Failed() int { return len(r.Deliveries) - r.Delivered() }

// Fanout sends one message per subscriber and never lets a recipient failure
// affect the others.
type Fanout struct {
	subscribers SubscriberSource
	messenger   Messenger
	log         logger.Logger
	metrics     metrics.Recorder
}

// NewFanout wires a fan-out over subscribers and messenger.
func NewFanout(subscribers SubscriberSource, messenger Messenger, log logger.Logger, rec metrics.Recorder) *Fanout {
	return &Fanout{
		subscribers: subscribers,
		messenger:   messenger,
		log:         logger.Ensure(log),
		metrics:     metrics.Ensure(rec),
	}
}

// Message composes the text announcing the highest new chapter of title.
func Message(title string, added []int) string {
	if len(added) == 0 {
		return ""
	}
	return fmt.Sprintf("New chapter of %s! Chapter %d is available", title, slices.Max(added))
}

// Notify delivers the announcement for added chapters. Only a failure to list
// subscribers is returned; per-recipient failures are recorded in the report.
func (f *Fanout) Notify(ctx context.Context, title string, added []int) (Report, error) {
	if f == nil || f.messenger == nil || len(added) == 0 {
		return Report{}, nil
	}

	subs, err := f.subscribers.Subscribers(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("list subscribers: %w", err)
	}

	report := Report{
		Message:    Message(title, added),
		Deliveries: make([]Delivery, 0, len(subs)),
	}
	for _, sub := range subs {
		err := f.messenger.Send(ctx, sub.RecipientID, sub.Credential, report.Message)
		report.Deliveries = append(report.Deliveries, Delivery{UserID: sub.UserID, Username: sub.Username, Err: err})
		f.metrics.RecordDelivery(err == nil)

		if err != nil {
			f.log.WarnObj("notification delivery failed", "delivery", map[string]any{
				"title":    title,
				"user_id":  sub.UserID,
				"username": sub.Username,
				"error":    err.Error(),
			})
		}
	}

	f.log.InfoObj("notification fan-out complete", "fanout", map[string]any{
		"title":     title,
		"delivered": report.Delivered(),
		"failed":    report.Failed(),
	})
	return report, nil
}
