package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/odysseus0/feedline/internal/config"
	"github.com/odysseus0/feedline/internal/store"
	"github.com/odysseus0/feedline/internal/ttrss"
)

const (
	exitInternal     = 1
	exitInvalidInput = 2
	exitNotFound     = 3
	exitAuth         = 4
	exitTransport    = 5
	exitRemote       = 6
)

func errorKind(err error) (string, int) {
	switch {
	case errors.Is(err, store.ErrInvalidInput),
		errors.Is(err, ttrss.ErrInvalidQuery),
		errors.Is(err, config.ErrMissingCredential):
		return "invalid-input", exitInvalidInput
	case errors.Is(err, store.ErrNotFound):
		return "not-found", exitNotFound
	case ttrss.IsAuthError(err), errors.Is(err, ttrss.ErrNotAuthenticated):
		return "auth", exitAuth
	case ttrss.IsTransportError(err):
		return "transport", exitTransport
	case ttrss.IsRemoteError(err):
		return "remote", exitRemote
	default:
		return "internal", exitInternal
	}
}

func ErrorExitCode(err error) int {
	if err == nil {
		return 0
	}
	_, code := errorKind(err)
	return code
}

func FormatError(err error) string {
	if err == nil {
		return ""
	}
	kind, _ := errorKind(err)
	return fmt.Sprintf("Error [%s]: %v", kind, err)
}

func PrintError(err error) {
	fprintError(os.Stderr, err)
}

func fprintError(w io.Writer, err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(w, FormatError(err))
}
