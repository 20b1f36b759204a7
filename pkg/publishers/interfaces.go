package publishers

import (
	"context"
	"io"
	"strings"
)

// Publisher sends chapter release events to a downstream sink (webhook,
// queue, topic).
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) error
}

// TitleScoped is implemented by publishers that only want releases of some
// titles.
type TitleScoped interface {
	Follows(title string) bool
}

// scopedPublisher restricts a publisher to the titles listed in its config.
type scopedPublisher struct {
	Publisher
	titles map[string]struct{}
}

func scopeToTitles(p Publisher, titles []string) Publisher {
	if len(titles) == 0 {
		return p
	}
	set := make(map[string]struct{}, len(titles))
	for _, t := range titles {
		set[titleKey(t)] = struct{}{}
	}
	return &scopedPublisher{Publisher: p, titles: set}
}

func (s *scopedPublisher) Follows(title string) bool {
	_, ok := s.titles[titleKey(title)]
	return ok
}

func (s *scopedPublisher) Close() error {
	if c, ok := s.Publisher.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func titleKey(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}
