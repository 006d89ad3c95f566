package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/AneeshPatel/MusicVec/internal/query"
)

func testRows() query.Rows {
	return query.Rows{
		{Token: "spotify:track:1", Display: "Thriller by Michael Jackson", Score: 0.95},
		{Token: "spotify:track:2", Display: "spotify:track:2", Score: 0.72, Unresolved: true},
	}
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer

	if err := exportJSON(&buf, testRows()); err != nil {
		t.Fatalf("exportJSON failed: %v", err)
	}

	// Verify it's valid JSON
	var rows []exportRow
	if err := json.Unmarshal(buf.Bytes(), &rows); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}

	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Rank != 1 || rows[1].Rank != 2 {
		t.Errorf("ranks not sequential: %+v", rows)
	}
	if rows[0].Display != "Thriller by Michael Jackson" {
		t.Errorf("display = %q", rows[0].Display)
	}
	if !rows[1].Unresolved {
		t.Error("unresolved flag lost in JSON export")
	}
}

func TestExportCSV(t *testing.T) {
	var buf bytes.Buffer

	if err := exportCSV(&buf, testRows()); err != nil {
		t.Fatalf("exportCSV failed: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d records", len(records))
	}
	if records[0][0] != "rank" {
		t.Errorf("header = %v", records[0])
	}
	if records[1][2] != "Thriller by Michael Jackson" {
		t.Errorf("first row display = %q", records[1][2])
	}
	if records[2][4] != "true" {
		t.Errorf("unresolved column = %q, want true", records[2][4])
	}
}

func TestExportMarkdown(t *testing.T) {
	var buf bytes.Buffer

	if err := exportMarkdown(&buf, "thriller", testRows()); err != nil {
		t.Fatalf("exportMarkdown failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, `# Most similar to "thriller"`) {
		t.Errorf("missing title:\n%s", out)
	}
	if !strings.Contains(out, "Thriller by Michael Jackson") {
		t.Errorf("missing row display:\n%s", out)
	}
	if !strings.Contains(out, "*(unresolved)*") {
		t.Errorf("unresolved row not flagged:\n%s", out)
	}
	if !strings.Contains(out, "| 1 |") || !strings.Contains(out, "| 2 |") {
		t.Errorf("missing rank cells:\n%s", out)
	}
}
