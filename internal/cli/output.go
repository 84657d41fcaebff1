package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/odysseus0/feedline/internal/render"
)

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeHeadlinesTable(out io.Writer, headlines []Headline, r *render.Renderer, wide bool) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	if wide {
		fmt.Fprintln(tw, "ID\tFEED_ID\tFEED\tTITLE\tUPDATED\tUNREAD\tSTAR\tLINK\tEXCERPT")
		for _, h := range headlines {
			fmt.Fprintf(
				tw,
				"%d\t%d\t%s\t%s\t%s\t%t\t%t\t%s\t%s\n",
				h.ID,
				h.FeedID,
				render.Compact(h.FeedTitle, 24),
				render.Compact(fallback(h.Title, "(untitled)"), 56),
				formatTime(h.Updated),
				h.Unread,
				h.Marked,
				render.Compact(h.Link, 48),
				r.Excerpt(h, 90),
			)
		}
	} else {
		fmt.Fprintln(tw, "ID\tFEED\tTITLE\tUPDATED")
		for _, h := range headlines {
			fmt.Fprintf(
				tw,
				"%d\t%s\t%s\t%s\n",
				h.ID,
				render.Compact(h.FeedTitle, 24),
				render.Compact(fallback(h.Title, "(untitled)"), 72),
				formatTime(h.Updated),
			)
		}
	}
	_ = tw.Flush()
}

func writeStatusTable(out io.Writer, st StatusResponse, now time.Time) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "METRIC\tVALUE")
	fmt.Fprintf(tw, "account\t%s@%s\n", st.User, st.Endpoint)
	fmt.Fprintf(tw, "api_level\t%d\n", st.APILevel)
	fmt.Fprintf(tw, "session_valid\t%t\n", st.LoggedIn)
	fmt.Fprintf(tw, "unread\t%d\n", st.Unread)
	fmt.Fprintf(tw, "pending\t%d\n", st.Pending)
	if st.LastFlush != nil {
		last := st.LastFlush
		fmt.Fprintf(tw, "last_flush\t%s (%d/%d updated)\n", humanAgo(last.FlushedAt, now), last.Updated, last.Requested)
		if last.Error != "" {
			fmt.Fprintf(tw, "last_flush_error\t%s\n", render.Compact(last.Error, 80))
		}
	} else {
		fmt.Fprintln(tw, "last_flush\tnever")
	}
	_ = tw.Flush()
}

func writeJSONLine(out io.Writer, v any) error {
	return json.NewEncoder(out).Encode(v)
}
