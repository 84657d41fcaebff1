package cli

import "time"

type UnreadResponse struct {
	Unread int `json:"unread"`
}

type MarkResponse struct {
	IDs     []int64 `json:"ids"`
	Updated int     `json:"updated"`
	Unread  *bool   `json:"unread,omitempty"`
	Starred *bool   `json:"starred,omitempty"`
}

type FlushResponse struct {
	Restored  int `json:"restored"`
	Requested int `json:"requested"`
	Updated   int `json:"updated"`
}

type ReadResponse struct {
	Unread    int  `json:"unread"`
	Shown     int  `json:"shown"`
	Dismissed int  `json:"dismissed"`
	Opened    int  `json:"opened"`
	Skipped   int  `json:"skipped"`
	Flushed   int  `json:"flushed"`
	Quit      bool `json:"quit"`
}

type FlushSummary struct {
	FlushedAt time.Time `json:"flushed_at"`
	Requested int       `json:"requested"`
	Updated   int       `json:"updated"`
	Error     string    `json:"error,omitempty"`
}

type StatusResponse struct {
	Endpoint string `json:"endpoint"`
	User     string `json:"user"`
	Stats
	LastFlush *FlushSummary `json:"last_flush,omitempty"`
}
