package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/AneeshPatel/MusicVec/internal/query"
)

type exportRow struct {
	Rank       int     `json:"rank"`
	Token      string  `json:"token"`
	Display    string  `json:"display"`
	Score      float64 `json:"score"`
	Unresolved bool    `json:"unresolved,omitempty"`
}

func exportJSON(w io.Writer, rows query.Rows) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	out := make([]exportRow, 0, len(rows))
	for i, r := range rows {
		out = append(out, exportRow{
			Rank:       i + 1,
			Token:      r.Token,
			Display:    r.Display,
			Score:      r.Score,
			Unresolved: r.Unresolved,
		})
	}
	return enc.Encode(out)
}

func exportCSV(w io.Writer, rows query.Rows) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()
	cw.Write([]string{"rank", "token", "display", "score", "unresolved"})
	for i, r := range rows {
		cw.Write([]string{
			strconv.Itoa(i + 1),
			r.Token,
			r.Display,
			fmt.Sprintf("%.4f", r.Score),
			strconv.FormatBool(r.Unresolved),
		})
	}
	return cw.Error()
}

func exportMarkdown(w io.Writer, queryText string, rows query.Rows) error {
	fmt.Fprintf(w, "# Most similar to %q\n\n", queryText)
	fmt.Fprintln(w, "| Rank | Entity | Score |")
	fmt.Fprintln(w, "|-----:|--------|------:|")
	for i, r := range rows {
		display := r.Display
		if r.Unresolved {
			display += " *(unresolved)*"
		}
		fmt.Fprintf(w, "| %d | %s | %.4f |\n", i+1, display, r.Score)
	}
	return nil
}
