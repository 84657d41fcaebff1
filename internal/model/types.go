package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type OutputFormat string

const (
	OutputTable OutputFormat = "table"
	OutputJSON  OutputFormat = "json"
	OutputWide  OutputFormat = "wide"
)

// Credentials identify one account on one TT-RSS installation. They are
// resolved once at startup and never change for the life of a client.
type Credentials struct {
	Endpoint string
	User     string
	Password string
}

// String omits the password so credentials can be logged safely.
func (c Credentials) String() string {
	return fmt.Sprintf("%s@%s", c.User, c.Endpoint)
}

type Headline struct {
	ID        int64     `json:"id"`
	FeedID    int64     `json:"feed_id"`
	FeedTitle string    `json:"feed_title"`
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	Unread    bool      `json:"unread"`
	Marked    bool      `json:"marked"`
	Updated   time.Time `json:"updated"`
	Excerpt   string    `json:"excerpt,omitempty"`
}

// FeedSelector is a TT-RSS feed id. Negative values are virtual feeds.
type FeedSelector int64

const (
	FeedArchived     FeedSelector = 0
	FeedStarred      FeedSelector = -1
	FeedPublished    FeedSelector = -2
	FeedFresh        FeedSelector = -3
	FeedAllArticles  FeedSelector = -4
	FeedRecentlyRead FeedSelector = -6
)

var feedSelectorNames = map[string]FeedSelector{
	"archived":  FeedArchived,
	"starred":   FeedStarred,
	"published": FeedPublished,
	"fresh":     FeedFresh,
	"all":       FeedAllArticles,
	"recent":    FeedRecentlyRead,
}

// ParseFeedSelector accepts a virtual feed name or a numeric feed id.
func ParseFeedSelector(raw string) (FeedSelector, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if sel, ok := feedSelectorNames[s]; ok {
		return sel, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid feed %q (expected fresh|all|starred|published|recent|archived or a feed id)", raw)
	}
	return FeedSelector(n), nil
}

func (f FeedSelector) String() string {
	for name, sel := range feedSelectorNames {
		if sel == f {
			return name
		}
	}
	return strconv.FormatInt(int64(f), 10)
}

type ViewMode string

const (
	ViewAllArticles ViewMode = "all_articles"
	ViewUnread      ViewMode = "unread"
	ViewAdaptive    ViewMode = "adaptive"
	ViewMarked      ViewMode = "marked"
	ViewUpdated     ViewMode = "updated"
)

func (v ViewMode) Valid() bool {
	switch v {
	case ViewAllArticles, ViewUnread, ViewAdaptive, ViewMarked, ViewUpdated:
		return true
	}
	return false
}

const (
	DefaultHeadlineLimit = 60
	MaxHeadlineLimit     = 200
)

// HeadlineQuery is the recognized option table for getHeadlines. Zero values
// mean "use the default"; Normalize fills them in.
type HeadlineQuery struct {
	Feed          FeedSelector
	FeedSet       bool
	View          ViewMode
	Limit         int
	Skip          int
	ShowExcerpt   bool
	ExcerptLength int
	OrderBy       string
}

// FreshUnread is the query the read loop polls with.
func FreshUnread() HeadlineQuery {
	return HeadlineQuery{Feed: FeedFresh, FeedSet: true, View: ViewUnread}
}

type Stats struct {
	Unread   int  `json:"unread"`
	Pending  int  `json:"pending"`
	APILevel int  `json:"api_level"`
	LoggedIn bool `json:"logged_in"`
}
