// Package ttrsstest provides an in-process fake of the TT-RSS JSON API for
// tests.
package ttrsstest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
)

type Article struct {
	ID        int64
	FeedID    int64
	FeedTitle string
	Title     string
	Link      string
	Unread    bool
	Marked    bool
	Updated   int64
	Excerpt   string
}

// Request is one decoded request as seen by the server.
type Request struct {
	Op     string
	SID    string
	Params map[string]any
}

type Server struct {
	*httptest.Server

	mu          sync.Mutex
	user        string
	password    string
	apiLevel    int
	nextSID     int
	sessions    map[string]bool
	articles    []*Article
	requests    []Request
	failures    map[string][]string
	loginBroken bool
	apiDisabled bool
}

func NewServer(user, password string) *Server {
	s := &Server{
		user:     user,
		password: password,
		apiLevel: 18,
		sessions: make(map[string]bool),
		failures: make(map[string][]string),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// Endpoint is the API URL clients should use.
func (s *Server) Endpoint() string {
	return s.Server.URL + "/api/"
}

func (s *Server) AddArticles(articles ...Article) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range articles {
		a := articles[i]
		s.articles = append(s.articles, &a)
	}
}

func (s *Server) Article(id int64) (Article, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.articles {
		if a.ID == id {
			return *a, true
		}
	}
	return Article{}, false
}

// ExpireSessions drops every active session, as the server does on timeout.
func (s *Server) ExpireSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string]bool)
}

func (s *Server) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// FailNext makes the next call of op return status 1 with code. Calls queue.
func (s *Server) FailNext(op, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = append(s.failures[op], code)
}

// BreakLogin makes every login fail with LOGIN_ERROR until restored.
func (s *Server) BreakLogin(broken bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loginBroken = broken
}

func (s *Server) DisableAPI(disabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apiDisabled = disabled
}

func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Count returns how many requests of op were received.
func (s *Server) Count(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.requests {
		if r.Op == op {
			n++
		}
	}
	return n
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	params := map[string]any{}
	if err := json.Unmarshal(body, &params); err != nil {
		writeReply(w, 1, map[string]any{"error": "INCORRECT_USAGE"})
		return
	}
	op, _ := params["op"].(string)
	sid, _ := params["sid"].(string)
	delete(params, "op")
	delete(params, "sid")

	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, Request{Op: op, SID: sid, Params: params})

	if s.apiDisabled {
		writeReply(w, 1, map[string]any{"error": "API_DISABLED"})
		return
	}
	if queue := s.failures[op]; len(queue) > 0 {
		s.failures[op] = queue[1:]
		writeReply(w, 1, map[string]any{"error": queue[0]})
		return
	}

	switch op {
	case "login":
		s.login(w, params)
		return
	case "isLoggedIn":
		writeReply(w, 0, map[string]any{"status": s.sessions[sid]})
		return
	case "getApiLevel", "logout", "getUnread", "getHeadlines", "updateArticle":
	default:
		writeReply(w, 1, map[string]any{"error": "UNKNOWN_METHOD", "method": op})
		return
	}

	if !s.sessions[sid] {
		writeReply(w, 1, map[string]any{"error": "NOT_LOGGED_IN"})
		return
	}

	switch op {
	case "logout":
		delete(s.sessions, sid)
		writeReply(w, 0, map[string]any{"status": "OK"})
	case "getApiLevel":
		writeReply(w, 0, map[string]any{"level": s.apiLevel})
	case "getUnread":
		writeReply(w, 0, map[string]any{"unread": strconv.Itoa(s.unreadLocked())})
	case "getHeadlines":
		s.headlines(w, params)
	case "updateArticle":
		s.updateArticle(w, params)
	}
}

func (s *Server) login(w http.ResponseWriter, params map[string]any) {
	user, _ := params["user"].(string)
	password, _ := params["password"].(string)
	if s.loginBroken || user != s.user || password != s.password {
		writeReply(w, 1, map[string]any{"error": "LOGIN_ERROR"})
		return
	}
	s.nextSID++
	sid := fmt.Sprintf("sid-%d", s.nextSID)
	s.sessions[sid] = true
	writeReply(w, 0, map[string]any{"session_id": sid, "api_level": s.apiLevel})
}

func (s *Server) unreadLocked() int {
	n := 0
	for _, a := range s.articles {
		if a.Unread {
			n++
		}
	}
	return n
}

func (s *Server) headlines(w http.ResponseWriter, params map[string]any) {
	feedID := int64(number(params["feed_id"]))
	view, _ := params["view_mode"].(string)
	limit := int(number(params["limit"]))
	skip := int(number(params["skip"]))
	showExcerpt, _ := params["show_excerpt"].(bool)

	out := make([]map[string]any, 0)
	matched := 0
	for i := len(s.articles) - 1; i >= 0; i-- {
		a := s.articles[i]
		if !matchesFeed(a, feedID) {
			continue
		}
		if view == "unread" && !a.Unread {
			continue
		}
		if view == "marked" && !a.Marked {
			continue
		}
		matched++
		if matched <= skip {
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		item := map[string]any{
			"id":         a.ID,
			"feed_id":    strconv.FormatInt(a.FeedID, 10),
			"feed_title": a.FeedTitle,
			"title":      a.Title,
			"link":       a.Link,
			"unread":     a.Unread,
			"marked":     a.Marked,
			"updated":    a.Updated,
		}
		if showExcerpt {
			item["excerpt"] = a.Excerpt
		}
		out = append(out, item)
	}
	writeReply(w, 0, out)
}

func matchesFeed(a *Article, feedID int64) bool {
	switch feedID {
	case -3:
		return a.Unread
	case -4:
		return true
	case -1:
		return a.Marked
	default:
		return a.FeedID == feedID
	}
}

func (s *Server) updateArticle(w http.ResponseWriter, params map[string]any) {
	raw, _ := params["article_ids"].(string)
	field := int(number(params["field"]))
	mode := int(number(params["mode"]))
	if strings.TrimSpace(raw) == "" {
		writeReply(w, 1, map[string]any{"error": "INCORRECT_USAGE"})
		return
	}
	updated := 0
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			continue
		}
		for _, a := range s.articles {
			if a.ID != id {
				continue
			}
			switch field {
			case 0:
				if a.Marked != (mode == 1) {
					a.Marked = mode == 1
					updated++
				}
			case 2:
				if a.Unread != (mode == 1) {
					a.Unread = mode == 1
					updated++
				}
			}
		}
	}
	writeReply(w, 0, map[string]any{"status": "OK", "updated": updated})
}

func number(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		f, _ := strconv.ParseFloat(n, 64)
		return f
	default:
		return 0
	}
}

func writeReply(w http.ResponseWriter, status int, content any) {
	w.Header().Set("Content-Type", "text/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"seq":     0,
		"status":  status,
		"content": content,
	})
}
