package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"github.com/MrSnakeDoc/daylog/internal/domain"
)

var (
	bold    = color.New(color.Bold)
	dateFmt = color.New(color.FgCyan, color.Bold)
	tagFmt  = color.New(color.FgYellow)
	faint   = color.New(color.Faint)
	okFmt   = color.New(color.FgGreen)
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printEntry(w io.Writer, e domain.DiaryEntry) {
	_, _ = fmt.Fprintln(w, dateFmt.Sprint(e.Date))
	if !e.Exists {
		_, _ = fmt.Fprintln(w, faint.Sprint("(no entry yet)"))
		return
	}
	_, _ = fmt.Fprintln(w, e.Content)
}

func printTags(w io.Writer, summaries []domain.TagSummary) {
	if len(summaries) == 0 {
		_, _ = fmt.Fprintln(w, faint.Sprint("no tags"))
		return
	}

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold.Sprint("Tag"), bold.Sprint("Occurrences"), bold.Sprint("Dates"))
	for _, s := range summaries {
		tbl.AddRow(tagFmt.Sprint("#"+s.Name), strconv.Itoa(s.Occurrences), strconv.Itoa(s.Dates))
	}
	tbl.RightAlign(1)
	tbl.RightAlign(2)
	_, _ = fmt.Fprintln(w, tbl)
}

func printCollection(w io.Writer, tag string, items []domain.CollectionItem) {
	_, _ = fmt.Fprintln(w, tagFmt.Sprint("#"+tag), faint.Sprintf("(%d)", len(items)))
	for _, item := range items {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, dateFmt.Sprint(item.Date), faint.Sprint(lineRange(item)))
		_, _ = fmt.Fprintln(w, item.Content)
	}
}

func printDone(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintln(w, okFmt.Sprint("✓"), fmt.Sprintf(format, args...))
}

// lineRange prints the half-open span as 1-based inclusive lines
func lineRange(item domain.CollectionItem) string {
	if item.EndLine == domain.EndOfContent {
		return fmt.Sprintf("line %d to end", item.StartLine+1)
	}
	return fmt.Sprintf("lines %d-%d", item.StartLine+1, item.EndLine)
}
