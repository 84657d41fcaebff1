package ttrss

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Article field numbers for updateArticle.
const (
	fieldStarred = 0
	fieldUnread  = 2
)

// Client is the typed API surface used by the read loop. Every call goes
// through the Session; one expired session is repaired by a single re-login
// and a single retry.
type Client struct {
	session *Session
}

func NewClient(session *Session) *Client {
	return &Client{session: session}
}

func (c *Client) Session() *Session {
	return c.session
}

// call performs op, classifying status 1 replies. On *AuthError it
// invalidates the session, logs in once, and retries once. If that re-login
// fails, the original *AuthError is returned and the next call tries again.
func (c *Client) call(ctx context.Context, env Envelope) (json.RawMessage, error) {
	if c.session.Expired() {
		if err := c.session.Login(ctx); err != nil {
			return nil, err
		}
	}
	content, token, err := c.callOnce(ctx, env)
	if err == nil || !IsAuthError(err) {
		return content, err
	}

	c.session.Invalidate(token)
	if loginErr := c.session.Login(ctx); loginErr != nil {
		c.session.logger.Warn("re-login failed", "op", env.Op, "err", loginErr)
		return nil, err
	}
	c.session.logger.Debug("re-logged in after session expiry", "op", env.Op)

	content, _, err = c.callOnce(ctx, env)
	return content, err
}

func (c *Client) callOnce(ctx context.Context, env Envelope) (json.RawMessage, string, error) {
	resp, token, err := c.session.Call(ctx, env)
	if err != nil {
		return nil, token, err
	}
	if resp.OK() {
		return resp.Content, token, nil
	}
	code := resp.ErrorCode()
	if code == codeNotLoggedIn {
		return nil, token, &AuthError{Op: env.Op, Message: code}
	}
	return nil, token, &RemoteError{Op: env.Op, Message: code}
}

func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	content, err := c.call(ctx, NewEnvelope("getUnread", nil))
	if err != nil {
		return 0, err
	}
	var body struct {
		Unread json.RawMessage `json:"unread"`
	}
	if err := json.Unmarshal(content, &body); err != nil {
		return 0, &TransportError{Op: "getUnread", Err: fmt.Errorf("decode content: %w", err)}
	}
	n, err := decodeFlexInt(body.Unread)
	if err != nil {
		return 0, &TransportError{Op: "getUnread", Err: err}
	}
	return n, nil
}

type wireHeadline struct {
	ID        json.RawMessage `json:"id"`
	FeedID    json.RawMessage `json:"feed_id"`
	FeedTitle string          `json:"feed_title"`
	Title     string          `json:"title"`
	Link      string          `json:"link"`
	Unread    bool            `json:"unread"`
	Marked    bool            `json:"marked"`
	Updated   int64           `json:"updated"`
	Excerpt   string          `json:"excerpt"`
}

func (w wireHeadline) toHeadline() (Headline, error) {
	id, err := decodeFlexInt(w.ID)
	if err != nil {
		return Headline{}, fmt.Errorf("headline id: %w", err)
	}
	h := Headline{
		ID:        int64(id),
		FeedTitle: strings.TrimSpace(w.FeedTitle),
		Title:     strings.TrimSpace(w.Title),
		Link:      strings.TrimSpace(w.Link),
		Unread:    w.Unread,
		Marked:    w.Marked,
		Excerpt:   w.Excerpt,
	}
	// feed_id is absent for some virtual feeds.
	if feedID, err := decodeFlexInt(w.FeedID); err == nil {
		h.FeedID = int64(feedID)
	}
	if w.Updated > 0 {
		h.Updated = time.Unix(w.Updated, 0).UTC()
	}
	return h, nil
}

// ListHeadlines returns headlines in server order.
func (c *Client) ListHeadlines(ctx context.Context, q HeadlineQuery) ([]Headline, error) {
	q, err := NormalizeQuery(q)
	if err != nil {
		return nil, err
	}
	content, err := c.call(ctx, NewEnvelope("getHeadlines", queryParams(q)))
	if err != nil {
		return nil, err
	}

	var wire []wireHeadline
	if err := json.Unmarshal(content, &wire); err != nil {
		return nil, &TransportError{Op: "getHeadlines", Err: fmt.Errorf("decode content: %w", err)}
	}
	out := make([]Headline, 0, len(wire))
	for _, w := range wire {
		h, err := w.toHeadline()
		if err != nil {
			return nil, &TransportError{Op: "getHeadlines", Err: err}
		}
		out = append(out, h)
	}
	return out, nil
}

// UpdateReadState sets the unread flag on ids. An empty id set is a no-op
// that makes no request.
func (c *Client) UpdateReadState(ctx context.Context, ids []int64, markUnread bool) (int, error) {
	mode := 0
	if markUnread {
		mode = 1
	}
	return c.updateField(ctx, ids, fieldUnread, mode)
}

// SetStarred is exposed for the mark command; the read loop never stars.
func (c *Client) SetStarred(ctx context.Context, ids []int64, starred bool) (int, error) {
	mode := 0
	if starred {
		mode = 1
	}
	return c.updateField(ctx, ids, fieldStarred, mode)
}

func (c *Client) updateField(ctx context.Context, ids []int64, field, mode int) (int, error) {
	joined := joinIDs(ids)
	if joined == "" {
		return 0, nil
	}
	content, err := c.call(ctx, NewEnvelope("updateArticle", map[string]any{
		"article_ids": joined,
		"field":       field,
		"mode":        mode,
	}))
	if err != nil {
		return 0, err
	}
	var body struct {
		Status  string          `json:"status"`
		Updated json.RawMessage `json:"updated"`
	}
	if err := json.Unmarshal(content, &body); err != nil {
		return 0, &TransportError{Op: "updateArticle", Err: fmt.Errorf("decode content: %w", err)}
	}
	if body.Status != "" && body.Status != "OK" {
		return 0, &RemoteError{Op: "updateArticle", Message: body.Status}
	}
	n, err := decodeFlexInt(body.Updated)
	if err != nil {
		return 0, &TransportError{Op: "updateArticle", Err: err}
	}
	return n, nil
}

// CheckSession asks the server whether the current session is still valid.
func (c *Client) CheckSession(ctx context.Context) (bool, error) {
	content, _, err := c.callOnce(ctx, NewEnvelope("isLoggedIn", nil))
	if err != nil {
		if IsAuthError(err) || errors.Is(err, ErrNotAuthenticated) {
			return false, nil
		}
		return false, err
	}
	var body struct {
		Status bool `json:"status"`
	}
	if err := json.Unmarshal(content, &body); err != nil {
		return false, &TransportError{Op: "isLoggedIn", Err: fmt.Errorf("decode content: %w", err)}
	}
	return body.Status, nil
}

func (c *Client) APILevel(ctx context.Context) (int, error) {
	content, err := c.call(ctx, NewEnvelope("getApiLevel", nil))
	if err != nil {
		return 0, err
	}
	var body struct {
		Level json.RawMessage `json:"level"`
	}
	if err := json.Unmarshal(content, &body); err != nil {
		return 0, &TransportError{Op: "getApiLevel", Err: fmt.Errorf("decode content: %w", err)}
	}
	n, err := decodeFlexInt(body.Level)
	if err != nil {
		return 0, &TransportError{Op: "getApiLevel", Err: err}
	}
	return n, nil
}

// joinIDs deduplicates and sorts ids so identical batches serialize
// identically.
func joinIDs(ids []int64) string {
	if len(ids) == 0 {
		return ""
	}
	seen := make(map[int64]struct{}, len(ids))
	uniq := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		uniq = append(uniq, id)
	}
	sort.Slice(uniq, func(i, j int) bool { return uniq[i] < uniq[j] })
	parts := make([]string, len(uniq))
	for i, id := range uniq {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
