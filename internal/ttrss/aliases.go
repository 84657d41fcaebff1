package ttrss

import "github.com/odysseus0/feedline/internal/model"

type Credentials = model.Credentials
type Headline = model.Headline
type HeadlineQuery = model.HeadlineQuery
type FeedSelector = model.FeedSelector
type ViewMode = model.ViewMode
