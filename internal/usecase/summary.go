package usecase

import (
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// CategoryResult is the outcome of one category run within a batch.
type CategoryResult struct {
	Key      string
	Label    string
	Err      error
	Duration time.Duration
}

// OK reports whether the category succeeded.
func (r CategoryResult) OK() bool {
	return r.Err == nil
}

// Summary aggregates a batch.
type Summary struct {
	BatchID string
	Results []CategoryResult
}

// OK is true only when every category succeeded.
func (s Summary) OK() bool {
	for _, r := range s.Results {
		if !r.OK() {
			return false
		}
	}
	return true
}

// Failed counts failed categories.
func (s Summary) Failed() int {
	n := 0
	for _, r := range s.Results {
		if !r.OK() {
			n++
		}
	}
	return n
}

// Print writes a table of category outcomes to w.
func (s Summary) Print(w io.Writer) error {
	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
	)
	table.Header([]string{"Category", "Status", "Duration", "Error"})

	rows := make([][]string, 0, len(s.Results))
	for _, r := range s.Results {
		status := color.GreenString("ok")
		errText := ""
		if !r.OK() {
			status = color.RedString("FAILED")
			errText = r.Err.Error()
		}
		rows = append(rows, []string{r.Label, status, r.Duration.Round(time.Millisecond).String(), errText})
	}
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}
