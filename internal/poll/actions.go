package poll

import (
	"context"
	"errors"
	"sync"

	"github.com/odysseus0/feedline/internal/model"
)

var ErrNoLink = errors.New("headline has no link")

type Opener interface {
	Open(url string) error
}

type Marker interface {
	MarkHandled(ctx context.Context, id int64) bool
}

// Actions translates reader events into reconciler calls.
type Actions struct {
	marker Marker
	opener Opener

	quitOnce sync.Once
	quit     chan struct{}
}

func NewActions(marker Marker, opener Opener) *Actions {
	return &Actions{
		marker: marker,
		opener: opener,
		quit:   make(chan struct{}),
	}
}

// Dismiss marks h read on the next flush.
func (a *Actions) Dismiss(ctx context.Context, h model.Headline) {
	a.marker.MarkHandled(ctx, h.ID)
}

// Open launches h's link and marks it read. If the link cannot be opened the
// article stays unread.
func (a *Actions) Open(ctx context.Context, h model.Headline) error {
	if h.Link == "" {
		return ErrNoLink
	}
	if a.opener == nil {
		return errors.New("no opener configured")
	}
	if err := a.opener.Open(h.Link); err != nil {
		return err
	}
	a.marker.MarkHandled(ctx, h.ID)
	return nil
}

// Skip leaves h unread.
func (a *Actions) Skip(model.Headline) {}

func (a *Actions) Quit() {
	a.quitOnce.Do(func() { close(a.quit) })
}

func (a *Actions) Done() <-chan struct{} {
	return a.quit
}
