package report

import (
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"especulai/internal/models"
)

// RenderTable formats the metrics history as an aligned text table.
// Column widths use display width so accented segment names line up.
func RenderTable(records []models.MetricsRecord) string {
	rows := [][]string{logColumns}

	for _, rec := range records {
		rows = append(rows, []string{
			rec.Timestamp.UTC().Format(time.RFC3339),
			rec.Segment,
			rec.Model,
			strconv.FormatFloat(rec.MAE, 'f', 2, 64),
			strconv.FormatFloat(rec.RMSE, 'f', 2, 64),
			strconv.FormatFloat(rec.R2, 'f', 4, 64),
			strconv.Itoa(rec.RowCount),
		})
	}

	widths := make([]int, len(logColumns))
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder

	for rIdx, row := range rows {
		for i, cell := range row {
			b.WriteString("| ")
			b.WriteString(cell)
			b.WriteString(strings.Repeat(" ", widths[i]-runewidth.StringWidth(cell)))
			b.WriteString(" ")
		}

		b.WriteString("|\n")

		if rIdx == 0 {
			for _, w := range widths {
				b.WriteString("|")
				b.WriteString(strings.Repeat("-", w+2))
			}

			b.WriteString("|\n")
		}
	}

	return b.String()
}
