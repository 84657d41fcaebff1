package cli

import "github.com/odysseus0/feedline/internal/model"

type OutputFormat = model.OutputFormat
type Headline = model.Headline
type Stats = model.Stats

const (
	OutputTable = model.OutputTable
	OutputJSON  = model.OutputJSON
	OutputWide  = model.OutputWide
)
