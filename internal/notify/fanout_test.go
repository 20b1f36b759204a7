package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xKaaZz/Waeleaks/internal/domain"
)

type staticSubscribers struct {
	subs []domain.Subscriber
	err  error
}

func (s staticSubscribers) Subscribers(context.Context) ([]domain.Subscriber, error) {
	return s.subs, s.err
}

type recordingMessenger struct {
	failFor map[string]bool
	sent    []string
	texts   []string
}

func (m *recordingMessenger) Send(_ context.Context, recipientID, _ string, text string) error {
	m.sent = append(m.sent, recipientID)
	m.texts = append(m.texts, text)
	if m.failFor[recipientID] {
		return errors.New("chat not found")
	}
	return nil
}

type countingRecorder struct {
	ok, failed int
}

func (c *countingRecorder) RecordDelivery(ok bool) {
	if ok {
		c.ok++
	} else {
		c.failed++
	}
}

func (c *countingRecorder) RecordPass(string, string, time.Duration) {}
func (c *countingRecorder) RecordChaptersAdded(string, int)          {}
func (c *countingRecorder) RecordPublish(bool)                       {}
func (c *countingRecorder) RecordFeedPoll(bool)                      {}

func threeSubscribers() staticSubscribers {
	return staticSubscribers{subs: []domain.Subscriber{
		{UserID: 1, Username: "ana", RecipientID: "101", Credential: "tok"},
		{UserID: 2, Username: "bob", RecipientID: "102", Credential: "tok"},
		{UserID: 3, Username: "cid", RecipientID: "103", Credential: "tok"},
	}}
}

func TestNotifyIsolatesRecipientFailures(t *testing.T) {
	messenger := &recordingMessenger{failFor: map[string]bool{"102": true}}
	rec := &countingRecorder{}
	f := NewFanout(threeSubscribers(), messenger, nil, rec)

	report, err := f.Notify(context.Background(), "One Piece", []int{1121, 1122})
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(messenger.sent) != 3 {
		t.Fatalf("expected 3 attempts, got %v", messenger.sent)
	}
	if len(report.Deliveries) != 3 {
		t.Fatalf("expected 3 deliveries, got %d", len(report.Deliveries))
	}
	if report.Deliveries[0].Err != nil || report.Deliveries[2].Err != nil {
		t.Fatalf("1st and 3rd deliveries must succeed: %+v", report.Deliveries)
	}
	if report.Deliveries[1].Err == nil {
		t.Fatalf("2nd delivery must report its failure")
	}
	if report.Delivered() != 2 || report.Failed() != 1 {
		t.Fatalf("delivered=%d failed=%d", report.Delivered(), report.Failed())
	}
	if rec.ok != 2 || rec.failed != 1 {
		t.Fatalf("recorder ok=%d failed=%d", rec.ok, rec.failed)
	}
}

func TestNotifyMessageUsesHighestChapter(t *testing.T) {
	messenger := &recordingMessenger{}
	f := NewFanout(threeSubscribers(), messenger, nil, nil)

	report, err := f.Notify(context.Background(), "Kingdom", []int{812, 814, 813})
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	want := "New chapter of Kingdom! Chapter 814 is available"
	if report.Message != want || messenger.texts[0] != want {
		t.Fatalf("message = %q", report.Message)
	}
}

func TestNotifyEmptyAddedSendsNothing(t *testing.T) {
	messenger := &recordingMessenger{}
	f := NewFanout(threeSubscribers(), messenger, nil, nil)

	report, err := f.Notify(context.Background(), "Kingdom", nil)
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(messenger.sent) != 0 || len(report.Deliveries) != 0 {
		t.Fatalf("nothing should be sent for an empty result")
	}
}

func TestNotifyReturnsSubscriberListingError(t *testing.T) {
	f := NewFanout(staticSubscribers{err: errors.New("database locked")}, &recordingMessenger{}, nil, nil)

	if _, err := f.Notify(context.Background(), "Kingdom", []int{1}); err == nil {
		t.Fatalf("expected listing error")
	}
}
