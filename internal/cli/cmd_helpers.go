package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/odysseus0/feedline/internal/model"
	"github.com/odysseus0/feedline/internal/store"
)

func requireApp(getApp func() *App) (*App, error) {
	app := getApp()
	if app == nil {
		return nil, errors.New("app not initialized")
	}
	return app, nil
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, raw := range args {
		// Accept "1,2,3" as well as separate arguments.
		for _, part := range strings.Split(raw, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			id, err := parseID(part)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", store.ErrInvalidInput, err)
			}
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: at least one article id is required", store.ErrInvalidInput)
	}
	return ids, nil
}

func parseFeedFlag(raw string) (model.FeedSelector, error) {
	sel, err := model.ParseFeedSelector(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", store.ErrInvalidInput, err)
	}
	return sel, nil
}
