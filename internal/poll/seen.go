package poll

import (
	"context"
	"sync"

	"github.com/odysseus0/feedline/internal/model"
)

// NewOnly wraps p so each headline is rendered at most once across cycles.
// Headlines that drop out of the fetched list are forgotten. A failed render
// leaves the seen set unchanged.
func NewOnly(p Presenter) Presenter {
	return &newOnly{next: p, seen: make(map[int64]struct{})}
}

type newOnly struct {
	next Presenter

	mu   sync.Mutex
	seen map[int64]struct{}
}

func (n *newOnly) Render(ctx context.Context, headlines []model.Headline) error {
	n.mu.Lock()
	current := make(map[int64]struct{}, len(headlines))
	fresh := make([]model.Headline, 0, len(headlines))
	for _, h := range headlines {
		current[h.ID] = struct{}{}
		if _, ok := n.seen[h.ID]; !ok {
			fresh = append(fresh, h)
		}
	}
	n.mu.Unlock()

	if err := n.next.Render(ctx, fresh); err != nil {
		return err
	}
	n.mu.Lock()
	n.seen = current
	n.mu.Unlock()
	return nil
}
