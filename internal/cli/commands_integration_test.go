package cli

import (
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/odysseus0/feedline/internal/store"
	"github.com/odysseus0/feedline/internal/ttrss"
	"github.com/odysseus0/feedline/internal/ttrss/ttrsstest"
)

func seedArticles(srv *ttrsstest.Server) {
	srv.AddArticles(
		ttrsstest.Article{ID: 1, FeedID: 7, FeedTitle: "Go Blog", Title: "Go 1.24", Link: "https://go.dev/blog/1", Unread: true, Updated: 1700000000},
		ttrsstest.Article{ID: 2, FeedID: 7, FeedTitle: "Go Blog", Title: "Range funcs", Link: "https://go.dev/blog/2", Unread: true, Updated: 1700000100},
		ttrsstest.Article{ID: 3, FeedID: 8, FeedTitle: "LWN", Title: "Kernel news", Link: "https://lwn.net/3", Unread: true, Updated: 1700000200},
	)
}

func TestUnreadCommand(t *testing.T) {
	srv := newTestServer(t)
	seedArticles(srv)
	cfg := testConfig(t, srv)

	res := mustRunCLI(t, cfg, "unread")
	if strings.TrimSpace(res.stdout) != "3" {
		t.Fatalf("stdout = %q, want 3", res.stdout)
	}
	if srv.ActiveSessions() != 0 || srv.Count("logout") != 1 {
		t.Fatalf("session must be logged out after the command")
	}

	res = mustRunCLI(t, cfg, "unread", "-o", "json")
	var body UnreadResponse
	if err := json.Unmarshal([]byte(res.stdout), &body); err != nil {
		t.Fatalf("decode json: %v (%s)", err, res.stdout)
	}
	if body.Unread != 3 {
		t.Fatalf("unread = %d, want 3", body.Unread)
	}
}

func TestHeadlinesCommand(t *testing.T) {
	srv := newTestServer(t)
	seedArticles(srv)
	cfg := testConfig(t, srv)

	res := mustRunCLI(t, cfg, "headlines")
	for _, want := range []string{"ID", "Kernel news", "Range funcs", "Go 1.24"} {
		if !strings.Contains(res.stdout, want) {
			t.Fatalf("table missing %q:\n%s", want, res.stdout)
		}
	}

	res = mustRunCLI(t, cfg, "headlines", "--limit", "2", "--skip", "1", "-o", "json")
	var got []Headline
	if err := json.Unmarshal([]byte(res.stdout), &got); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if len(got) != 2 || got[0].ID != 2 || got[1].ID != 1 {
		t.Fatalf("unexpected page: %+v", got)
	}
	reqs := srv.Requests()
	var last ttrsstest.Request
	for _, r := range reqs {
		if r.Op == "getHeadlines" {
			last = r
		}
	}
	if last.Params["limit"] != float64(2) || last.Params["skip"] != float64(1) {
		t.Fatalf("unexpected params: %#v", last.Params)
	}
	// Headlines never changes state.
	if srv.Count("updateArticle") != 0 {
		t.Fatalf("headlines must not update articles")
	}
}

func TestHeadlinesCommandRejectsInvalidOptionsBeforeLogin(t *testing.T) {
	srv := newTestServer(t)
	cfg := testConfig(t, srv)

	for _, args := range [][]string{
		{"headlines", "--limit", "500"},
		{"headlines", "--view", "sideways"},
		{"headlines", "--feed", "everything"},
		{"headlines", "-o", "yaml"},
	} {
		res := runCLI(t, cfg, args...)
		if ErrorExitCode(res.err) != exitInvalidInput {
			t.Fatalf("%v: err=%v code=%d, want %d", args, res.err, ErrorExitCode(res.err), exitInvalidInput)
		}
	}
	if srv.Count("login") != 0 {
		t.Fatalf("invalid options must not log in")
	}
}

func TestReadCommandMarksDismissedAndOpened(t *testing.T) {
	srv := newTestServer(t)
	seedArticles(srv)
	cfg := testConfig(t, srv)
	cfg.OpenCommand = "true"
	scriptReader(t, "nso")

	res := mustRunCLI(t, cfg, "read")
	if !strings.Contains(res.stderr, "Unread articles: 3") {
		t.Fatalf("stderr missing unread count: %q", res.stderr)
	}
	if !strings.Contains(res.stdout, "Marked 2 read, skipped 1.") {
		t.Fatalf("unexpected summary: %q", res.stdout)
	}
	// Newest first: 3 dismissed, 2 skipped, 1 opened.
	for id, wantUnread := range map[int64]bool{1: false, 2: true, 3: false} {
		a, _ := srv.Article(id)
		if a.Unread != wantUnread {
			t.Fatalf("article %d unread=%v, want %v", id, a.Unread, wantUnread)
		}
	}
	if srv.Count("updateArticle") != 1 {
		t.Fatalf("expected one batched update, got %d", srv.Count("updateArticle"))
	}
	if srv.ActiveSessions() != 0 {
		t.Fatalf("session must be logged out")
	}
}

func TestReadCommandQuitFlushesEarlierDecisions(t *testing.T) {
	srv := newTestServer(t)
	seedArticles(srv)
	cfg := testConfig(t, srv)
	scriptReader(t, "nq")

	res := mustRunCLI(t, cfg, "-o", "json")
	var body ReadResponse
	if err := json.Unmarshal([]byte(res.stdout), &body); err != nil {
		t.Fatalf("decode json: %v (%s)", err, res.stdout)
	}
	if !body.Quit || body.Dismissed != 1 || body.Flushed != 1 || body.Shown != 3 {
		t.Fatalf("unexpected response: %+v", body)
	}
	if a, _ := srv.Article(3); a.Unread {
		t.Fatalf("dismissed article still unread")
	}
	if a, _ := srv.Article(2); !a.Unread {
		t.Fatalf("article after quit must stay unread")
	}
}

func TestReadCommandNoHeadlines(t *testing.T) {
	srv := newTestServer(t)
	cfg := testConfig(t, srv)
	scriptReader(t, "")

	res := mustRunCLI(t, cfg, "read")
	if !strings.Contains(res.stdout, "No unread headlines.") {
		t.Fatalf("unexpected stdout: %q", res.stdout)
	}
	if srv.Count("updateArticle") != 0 {
		t.Fatalf("nothing to flush, no update expected")
	}
}

func TestFailedFlushIsJournaledAndFlushedLater(t *testing.T) {
	srv := newTestServer(t)
	seedArticles(srv)
	cfg := testConfig(t, srv)
	scriptReader(t, "nn")

	srv.FailNext("updateArticle", "INTERNAL_ERROR")
	res := runCLI(t, cfg, "read")
	if ErrorExitCode(res.err) != exitRemote {
		t.Fatalf("err=%v code=%d, want remote", res.err, ErrorExitCode(res.err))
	}
	if a, _ := srv.Article(3); !a.Unread {
		t.Fatalf("failed flush must not change the server")
	}

	status := mustRunCLI(t, cfg, "status", "-o", "json")
	var st StatusResponse
	if err := json.Unmarshal([]byte(status.stdout), &st); err != nil {
		t.Fatalf("decode status: %v (%s)", err, status.stdout)
	}
	if st.Pending != 2 || st.LastFlush == nil || st.LastFlush.Error == "" {
		t.Fatalf("status should report the kept ids and the failed flush: %+v", st)
	}

	res = mustRunCLI(t, cfg, "flush")
	if !strings.Contains(res.stdout, "Flushed 2 pending mark(s); server updated 2.") {
		t.Fatalf("unexpected flush output: %q", res.stdout)
	}
	for _, id := range []int64{2, 3} {
		if a, _ := srv.Article(id); a.Unread {
			t.Fatalf("article %d still unread after flush", id)
		}
	}

	res = mustRunCLI(t, cfg, "flush")
	if !strings.Contains(res.stdout, "Nothing to flush.") {
		t.Fatalf("unexpected second flush output: %q", res.stdout)
	}
}

func TestMarkCommand(t *testing.T) {
	srv := newTestServer(t)
	seedArticles(srv)
	cfg := testConfig(t, srv)

	res := mustRunCLI(t, cfg, "mark", "1,2", "2")
	if !strings.Contains(res.stdout, "Updated 2 of 3 article(s).") {
		t.Fatalf("unexpected output: %q", res.stdout)
	}
	if a, _ := srv.Article(1); a.Unread {
		t.Fatalf("article 1 still unread")
	}

	mustRunCLI(t, cfg, "mark", "--unread", "1")
	if a, _ := srv.Article(1); !a.Unread {
		t.Fatalf("article 1 should be unread again")
	}

	res = mustRunCLI(t, cfg, "mark", "--star", "3", "-o", "json")
	var body MarkResponse
	if err := json.Unmarshal([]byte(res.stdout), &body); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if body.Updated != 1 || body.Starred == nil || !*body.Starred {
		t.Fatalf("unexpected star response: %+v", body)
	}
	if a, _ := srv.Article(3); !a.Marked {
		t.Fatalf("article 3 should be starred")
	}

	res = runCLI(t, cfg, "mark", "--unread", "--star", "3")
	if !errors.Is(res.err, store.ErrInvalidInput) {
		t.Fatalf("err=%v, want invalid input", res.err)
	}
	res = runCLI(t, cfg, "mark", "abc")
	if ErrorExitCode(res.err) != exitInvalidInput {
		t.Fatalf("err=%v, want invalid input", res.err)
	}
}

func TestWatchOnceMarkRead(t *testing.T) {
	srv := newTestServer(t)
	seedArticles(srv)
	cfg := testConfig(t, srv)

	res := mustRunCLI(t, cfg, "watch", "--once", "--mark-read")
	lines := strings.Split(strings.TrimSpace(res.stdout), "\n")
	if len(lines) != 3 || !strings.HasSuffix(lines[0], "| Kernel news") {
		t.Fatalf("unexpected watch output:\n%s", res.stdout)
	}
	if n := srv.Count("updateArticle"); n != 1 {
		t.Fatalf("expected one flush, got %d", n)
	}
	for _, id := range []int64{1, 2, 3} {
		if a, _ := srv.Article(id); a.Unread {
			t.Fatalf("article %d still unread", id)
		}
	}
}

func TestWatchOnceJSONLeavesStateAlone(t *testing.T) {
	srv := newTestServer(t)
	seedArticles(srv)
	cfg := testConfig(t, srv)

	res := mustRunCLI(t, cfg, "watch", "--once", "--feed", "fresh", "-o", "json")
	lines := strings.Split(strings.TrimSpace(res.stdout), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 json lines, got %d:\n%s", len(lines), res.stdout)
	}
	var h Headline
	if err := json.Unmarshal([]byte(lines[0]), &h); err != nil || h.ID != 3 {
		t.Fatalf("first line = %s (err %v)", lines[0], err)
	}
	if srv.Count("updateArticle") != 0 {
		t.Fatalf("watch without --mark-read must not update")
	}
}

func TestStatusCommand(t *testing.T) {
	srv := newTestServer(t)
	seedArticles(srv)
	cfg := testConfig(t, srv)

	res := mustRunCLI(t, cfg, "status")
	for _, want := range []string{"api_level", "18", "session_valid", "true", "unread", "pending", "last_flush", "never"} {
		if !strings.Contains(res.stdout, want) {
			t.Fatalf("status missing %q:\n%s", want, res.stdout)
		}
	}
}

func TestAuthAndTransportExitCodes(t *testing.T) {
	srv := newTestServer(t)
	cfg := testConfig(t, srv)
	cfg.Password = "wrong"

	res := runCLI(t, cfg, "unread")
	if !ttrss.IsAuthError(res.err) || ErrorExitCode(res.err) != exitAuth {
		t.Fatalf("err=%v code=%d, want auth", res.err, ErrorExitCode(res.err))
	}
	if !strings.HasPrefix(FormatError(res.err), "Error [auth]:") {
		t.Fatalf("unexpected format: %q", FormatError(res.err))
	}

	// The password flag wins over config.
	mustRunCLI(t, cfg, "-p", testPassword, "unread")

	down := testConfig(t, srv)
	down.URL = "http://127.0.0.1:1/api/"
	res = runCLI(t, down, "unread")
	if ErrorExitCode(res.err) != exitTransport {
		t.Fatalf("err=%v code=%d, want transport", res.err, ErrorExitCode(res.err))
	}
}

func TestStateDBClosedAfterFailedCommand(t *testing.T) {
	srv := newTestServer(t)
	cfg := testConfig(t, srv)

	srv.FailNext("getUnread", "INTERNAL_ERROR")
	res := runCLI(t, cfg, "unread")
	if ErrorExitCode(res.err) != exitRemote {
		t.Fatalf("err=%v code=%d, want remote", res.err, ErrorExitCode(res.err))
	}
	// SQLite removes the WAL file when the last connection closes.
	if _, err := os.Stat(cfg.StatePath + "-wal"); !os.IsNotExist(err) {
		t.Fatalf("state db still open after a failed command (stat err=%v)", err)
	}

	mustRunCLI(t, cfg, "unread")
	if _, err := os.Stat(cfg.StatePath + "-wal"); !os.IsNotExist(err) {
		t.Fatalf("state db still open after a successful command (stat err=%v)", err)
	}
}
