package ttrss

import (
	"fmt"
	"strings"

	"github.com/odysseus0/feedline/internal/model"
)

var validOrderBy = map[string]struct{}{
	"":             {},
	"date_reverse": {},
	"feed_dates":   {},
}

// NormalizeQuery fills defaults and validates q. Errors wrap ErrInvalidQuery.
func NormalizeQuery(q HeadlineQuery) (HeadlineQuery, error) {
	if !q.FeedSet {
		q.Feed = model.FeedFresh
		q.FeedSet = true
	}
	if q.View == "" {
		q.View = model.ViewUnread
	}
	if !q.View.Valid() {
		return q, fmt.Errorf("%w: view mode %q", ErrInvalidQuery, q.View)
	}
	if q.Limit == 0 {
		q.Limit = model.DefaultHeadlineLimit
	}
	if q.Limit < 1 || q.Limit > model.MaxHeadlineLimit {
		return q, fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidQuery, model.MaxHeadlineLimit)
	}
	if q.Skip < 0 {
		return q, fmt.Errorf("%w: skip must be >= 0", ErrInvalidQuery)
	}
	if q.ExcerptLength < 0 {
		return q, fmt.Errorf("%w: excerpt length must be >= 0", ErrInvalidQuery)
	}
	q.OrderBy = strings.TrimSpace(q.OrderBy)
	if _, ok := validOrderBy[q.OrderBy]; !ok {
		return q, fmt.Errorf("%w: order %q", ErrInvalidQuery, q.OrderBy)
	}
	return q, nil
}

// queryParams serializes a normalized query. Only recognized options are
// emitted; optional ones only when set.
func queryParams(q HeadlineQuery) map[string]any {
	params := map[string]any{
		"feed_id":   int64(q.Feed),
		"view_mode": string(q.View),
		"limit":     q.Limit,
	}
	if q.Skip > 0 {
		params["skip"] = q.Skip
	}
	if q.ShowExcerpt {
		params["show_excerpt"] = true
		if q.ExcerptLength > 0 {
			params["excerpt_length"] = q.ExcerptLength
		}
	}
	if q.OrderBy != "" {
		params["order_by"] = q.OrderBy
	}
	return params
}
