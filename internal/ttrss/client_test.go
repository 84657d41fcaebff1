package ttrss

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/odysseus0/feedline/internal/model"
	"github.com/odysseus0/feedline/internal/ttrss/ttrsstest"
)

func TestClientEmptyAccount(t *testing.T) {
	srv := newTestServer(t)
	client := newLoggedInClient(t, srv)
	ctx := context.Background()

	n, err := client.UnreadCount(ctx)
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if n != 0 {
		t.Fatalf("unread = %d, want 0", n)
	}

	headlines, err := client.ListHeadlines(ctx, model.FreshUnread())
	if err != nil {
		t.Fatalf("ListHeadlines: %v", err)
	}
	if len(headlines) != 0 {
		t.Fatalf("expected no headlines, got %d", len(headlines))
	}
}

func TestClientListHeadlinesDecodesAndSerializesQuery(t *testing.T) {
	srv := newTestServer(t)
	srv.AddArticles(
		ttrsstest.Article{ID: 1, FeedID: 7, FeedTitle: "Go Blog", Title: "Older", Link: "https://go.dev/1", Unread: true, Updated: 1700000000},
		ttrsstest.Article{ID: 2, FeedID: 7, FeedTitle: "Go Blog", Title: "Newer", Link: "https://go.dev/2", Unread: true, Updated: 1700000100, Excerpt: "<p>hi</p>"},
		ttrsstest.Article{ID: 3, FeedID: 8, FeedTitle: "Other", Title: "Read", Link: "https://example.com/3", Unread: false},
	)
	client := newLoggedInClient(t, srv)

	q := model.FreshUnread()
	q.ShowExcerpt = true
	headlines, err := client.ListHeadlines(context.Background(), q)
	if err != nil {
		t.Fatalf("ListHeadlines: %v", err)
	}
	if len(headlines) != 2 {
		t.Fatalf("expected 2 headlines, got %d", len(headlines))
	}
	first := headlines[0]
	if first.ID != 2 || first.FeedID != 7 || first.FeedTitle != "Go Blog" || first.Title != "Newer" || !first.Unread {
		t.Fatalf("unexpected first headline: %+v", first)
	}
	if first.Excerpt != "<p>hi</p>" {
		t.Fatalf("excerpt not decoded: %q", first.Excerpt)
	}
	if !first.Updated.Equal(time.Unix(1700000100, 0)) {
		t.Fatalf("updated = %v", first.Updated)
	}

	reqs := srv.Requests()
	last := reqs[len(reqs)-1]
	if last.Op != "getHeadlines" || last.SID == "" {
		t.Fatalf("unexpected request: %+v", last)
	}
	if last.Params["feed_id"] != float64(-3) || last.Params["view_mode"] != "unread" || last.Params["limit"] != float64(60) {
		t.Fatalf("unexpected params: %#v", last.Params)
	}
	if _, ok := last.Params["skip"]; ok {
		t.Fatalf("unset skip must not be sent: %#v", last.Params)
	}
}

func TestClientListHeadlinesRejectsInvalidQuery(t *testing.T) {
	srv := newTestServer(t)
	client := newLoggedInClient(t, srv)

	cases := []model.HeadlineQuery{
		{Limit: 500},
		{Limit: -1},
		{View: "sideways"},
		{Skip: -5},
		{OrderBy: "random"},
	}
	for _, q := range cases {
		if _, err := client.ListHeadlines(context.Background(), q); !errors.Is(err, ErrInvalidQuery) {
			t.Fatalf("query %+v: err=%v, want ErrInvalidQuery", q, err)
		}
	}
	if srv.Count("getHeadlines") != 0 {
		t.Fatalf("invalid queries must not reach the server")
	}
}

func TestClientUpdateReadState(t *testing.T) {
	srv := newTestServer(t)
	srv.AddArticles(
		ttrsstest.Article{ID: 10, Unread: true},
		ttrsstest.Article{ID: 11, Unread: true},
		ttrsstest.Article{ID: 12, Unread: false},
	)
	client := newLoggedInClient(t, srv)
	ctx := context.Background()

	n, err := client.UpdateReadState(ctx, []int64{11, 10, 12, 10}, false)
	if err != nil {
		t.Fatalf("UpdateReadState: %v", err)
	}
	if n != 2 {
		t.Fatalf("updated = %d, want 2 (12 was already read)", n)
	}
	reqs := srv.Requests()
	last := reqs[len(reqs)-1]
	if last.Params["article_ids"] != "10,11,12" || last.Params["field"] != float64(2) || last.Params["mode"] != float64(0) {
		t.Fatalf("unexpected updateArticle params: %#v", last.Params)
	}
	if a, _ := srv.Article(10); a.Unread {
		t.Fatalf("article 10 still unread")
	}

	n, err = client.UpdateReadState(ctx, []int64{10}, true)
	if err != nil || n != 1 {
		t.Fatalf("mark unread: n=%d err=%v", n, err)
	}
	if a, _ := srv.Article(10); !a.Unread {
		t.Fatalf("article 10 should be unread again")
	}
}

func TestClientUpdateReadStateEmptyIsNoop(t *testing.T) {
	srv := newTestServer(t)
	client := newLoggedInClient(t, srv)

	n, err := client.UpdateReadState(context.Background(), nil, false)
	if err != nil || n != 0 {
		t.Fatalf("empty update: n=%d err=%v", n, err)
	}
	if srv.Count("updateArticle") != 0 {
		t.Fatalf("empty update must not reach the server")
	}
}

func TestClientReloginOnceOnExpiredSession(t *testing.T) {
	srv := newTestServer(t)
	client := newLoggedInClient(t, srv)
	ctx := context.Background()

	srv.ExpireSessions()
	if _, err := client.UnreadCount(ctx); err != nil {
		t.Fatalf("UnreadCount after expiry: %v", err)
	}
	if srv.Count("login") != 2 {
		t.Fatalf("expected exactly one re-login, got %d logins", srv.Count("login"))
	}
	if srv.Count("getUnread") != 2 {
		t.Fatalf("expected original call plus one retry, got %d", srv.Count("getUnread"))
	}
	if !client.Session().IsAuthenticated() {
		t.Fatalf("session should be re-established")
	}
}

func TestClientReloginFailureSurfacesAuthError(t *testing.T) {
	srv := newTestServer(t)
	client := newLoggedInClient(t, srv)
	ctx := context.Background()

	srv.ExpireSessions()
	srv.BreakLogin(true)
	_, err := client.UnreadCount(ctx)
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("err=%v, want *AuthError", err)
	}
	if authErr.Op != "getUnread" {
		t.Fatalf("expected the original call's error, got op %q", authErr.Op)
	}
	if srv.Count("login") != 2 || srv.Count("getUnread") != 1 {
		t.Fatalf("expected one re-login and no retry: logins=%d calls=%d", srv.Count("login"), srv.Count("getUnread"))
	}
	if client.Session().IsAuthenticated() {
		t.Fatalf("session should be logged out")
	}

	// The next call logs in again once the server accepts logins.
	srv.BreakLogin(false)
	if _, err := client.UnreadCount(ctx); err != nil {
		t.Fatalf("UnreadCount after recovery: %v", err)
	}
	if !client.Session().IsAuthenticated() {
		t.Fatalf("session should be re-established on next call")
	}
}

func TestClientRemoteErrorIsNotRetried(t *testing.T) {
	srv := newTestServer(t)
	client := newLoggedInClient(t, srv)

	srv.FailNext("getHeadlines", "INCORRECT_USAGE")
	_, err := client.ListHeadlines(context.Background(), model.FreshUnread())
	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("err=%v, want *RemoteError", err)
	}
	if remoteErr.Message != "INCORRECT_USAGE" || remoteErr.Op != "getHeadlines" {
		t.Fatalf("unexpected remote error: %+v", remoteErr)
	}
	if srv.Count("getHeadlines") != 1 || srv.Count("login") != 1 {
		t.Fatalf("remote errors must not retry or re-login")
	}
	if !client.Session().IsAuthenticated() {
		t.Fatalf("remote error must not drop the session")
	}
}

func TestClientNotAuthenticatedWithoutLogin(t *testing.T) {
	srv := newTestServer(t)
	client := NewClient(newTestSession(t, srv, testPassword))

	if _, err := client.UnreadCount(context.Background()); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("err=%v, want ErrNotAuthenticated", err)
	}
	if len(srv.Requests()) != 0 {
		t.Fatalf("no request expected before login")
	}
}

func TestClientTransportErrors(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer bad.Close()

	sess := NewSession(NewHTTPTransport(bad.URL, TransportOptions{}), Credentials{User: "u", Password: "p"}, nil)
	if err := sess.Login(context.Background()); !IsTransportError(err) {
		t.Fatalf("login against non-JSON server: err=%v, want transport error", err)
	}

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer down.Close()
	sess = NewSession(NewHTTPTransport(down.URL, TransportOptions{}), Credentials{User: "u", Password: "p"}, nil)
	if err := sess.Login(context.Background()); !IsTransportError(err) {
		t.Fatalf("login against 502: err=%v, want transport error", err)
	}

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer slow.Close()
	sess = NewSession(NewHTTPTransport(slow.URL, TransportOptions{Timeout: 20 * time.Millisecond}), Credentials{User: "u", Password: "p"}, nil)
	if err := sess.Login(context.Background()); !IsTransportError(err) {
		t.Fatalf("login timeout: err=%v, want transport error", err)
	}
}

func TestClientCheckSessionAndAPILevel(t *testing.T) {
	srv := newTestServer(t)
	client := newLoggedInClient(t, srv)
	ctx := context.Background()

	ok, err := client.CheckSession(ctx)
	if err != nil || !ok {
		t.Fatalf("CheckSession: ok=%v err=%v", ok, err)
	}
	level, err := client.APILevel(ctx)
	if err != nil || level != 18 {
		t.Fatalf("APILevel: level=%d err=%v", level, err)
	}

	srv.ExpireSessions()
	ok, err = client.CheckSession(ctx)
	if err != nil || ok {
		t.Fatalf("CheckSession after expiry: ok=%v err=%v", ok, err)
	}
}
