package cli

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// commandOpener launches a URL with the configured command, or the platform
// default when none is set.
type commandOpener struct {
	argv []string
	// start is swapped in tests.
	start func(name string, args ...string) error
}

func newCommandOpener(command string) *commandOpener {
	return &commandOpener{argv: strings.Fields(command), start: startDetached}
}

func (o *commandOpener) Open(url string) error {
	if strings.TrimSpace(url) == "" {
		return errors.New("cannot open empty URL")
	}
	argv, err := o.command()
	if err != nil {
		return err
	}
	if err := o.start(argv[0], append(argv[1:], url)...); err != nil {
		return fmt.Errorf("open %s: %w", url, err)
	}
	return nil
}

func (o *commandOpener) command() ([]string, error) {
	if len(o.argv) > 0 {
		return append([]string(nil), o.argv...), nil
	}
	switch runtime.GOOS {
	case "darwin":
		return []string{"open"}, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return []string{"xdg-open"}, nil
	case "windows":
		return []string{"cmd", "/c", "start"}, nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}

func startDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
