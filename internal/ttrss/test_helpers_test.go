package ttrss

import (
	"context"
	"testing"
	"time"

	"github.com/odysseus0/feedline/internal/ttrss/ttrsstest"
)

const (
	testUser     = "reader"
	testPassword = "hunter2"
)

func newTestServer(t *testing.T) *ttrsstest.Server {
	t.Helper()
	srv := ttrsstest.NewServer(testUser, testPassword)
	t.Cleanup(srv.Close)
	return srv
}

func newTestSession(t *testing.T, srv *ttrsstest.Server, password string) *Session {
	t.Helper()
	transport := NewHTTPTransport(srv.Endpoint(), TransportOptions{Timeout: 5 * time.Second, UserAgent: "feedline-test"})
	return NewSession(transport, Credentials{Endpoint: srv.Endpoint(), User: testUser, Password: password}, nil)
}

func newLoggedInClient(t *testing.T, srv *ttrsstest.Server) *Client {
	t.Helper()
	sess := newTestSession(t, srv, testPassword)
	if err := sess.Login(context.Background()); err != nil {
		t.Fatalf("login: %v", err)
	}
	return NewClient(sess)
}
