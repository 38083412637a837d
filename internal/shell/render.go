package shell

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/shrimpsizemoose/gradebook/internal/models"
)

// table prints rows under a header with columns padded to display width.
func table(out io.Writer, header []string, rows [][]string) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	line := func(cells []string) {
		padded := make([]string, len(cells))
		for i, cell := range cells {
			if i == len(cells)-1 {
				padded[i] = cell
				continue
			}
			padded[i] = runewidth.FillRight(cell, widths[i])
		}
		fmt.Fprintln(out, strings.TrimRight(strings.Join(padded, "  "), " "))
	}

	line(header)
	for _, row := range rows {
		line(row)
	}
}

func renderStudentReport(out io.Writer, report *models.StudentReport) {
	fmt.Fprintf(out, "Report for %s (%s)\n", report.Student.Name, report.Student.RocketID)
	if len(report.Classes) == 0 {
		fmt.Fprintln(out, "No grades recorded.")
		return
	}

	for _, class := range report.Classes {
		fmt.Fprintf(out, "\n%s - %s\n", class.ClassID, class.ClassName)
		rows := make([][]string, 0, len(class.Lines))
		for _, l := range class.Lines {
			rows = append(rows, []string{
				fmt.Sprintf("%d", l.AssignmentID),
				l.Title,
				fmt.Sprintf("%d/%d", l.Score, l.MaxScore),
				fmt.Sprintf("%.1f%%", l.Percentage),
				l.Letter,
			})
		}
		table(out, []string{"ID", "Assignment", "Score", "Percent", "Grade"}, rows)
	}
}
