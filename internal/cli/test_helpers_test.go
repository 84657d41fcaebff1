package cli

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/odysseus0/feedline/internal/config"
	"github.com/odysseus0/feedline/internal/tui"
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

func testConfig(t *testing.T, srv *ttrsstest.Server) config.Config {
	t.Helper()
	return config.Config{
		URL:          srv.Endpoint(),
		User:         testUser,
		Password:     testPassword,
		PollInterval: time.Minute,
		HTTPTimeout:  5 * time.Second,
		StatePath:    filepath.Join(t.TempDir(), "state.db"),
		Limit:        60,
		UserAgent:    "feedline-test",
	}
}

type cliResult struct {
	stdout string
	stderr string
	err    error
}

func runCLI(t *testing.T, cfg config.Config, args ...string) cliResult {
	t.Helper()
	root := NewRootCmd(cfg)
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func mustRunCLI(t *testing.T, cfg config.Config, args ...string) cliResult {
	t.Helper()
	res := runCLI(t, cfg, args...)
	if res.err != nil {
		t.Fatalf("command failed (%v): %v (stderr: %s)", args, res.err, res.stderr)
	}
	return res
}

// scriptReader replaces the interactive reader with a fixed key script:
// 'n' dismisses, 'o' opens, 's' skips, 'q' quits.
func scriptReader(t *testing.T, script string) {
	t.Helper()
	old := runReader
	runReader = func(cmd *cobra.Command, headlines []Headline, handler tui.Handler, opts tui.Options) (tui.Summary, error) {
		var sum tui.Summary
		for i, h := range headlines {
			if i >= len(script) {
				break
			}
			switch script[i] {
			case 'o':
				if err := handler.Open(cmd.Context(), h); err != nil {
					return sum, err
				}
				sum.Opened++
			case 's':
				handler.Skip(h)
				sum.Skipped++
			case 'q':
				handler.Quit()
				sum.Quit = true
				return sum, nil
			default:
				handler.Dismiss(cmd.Context(), h)
				sum.Dismissed++
			}
		}
		return sum, nil
	}
	t.Cleanup(func() { runReader = old })
}
