package export

import (
	"context"
	"encoding/csv"
	"io"
	"iter"
	"strconv"

	"github.com/shrimpsizemoose/gradebook/internal/apperr"
	"github.com/shrimpsizemoose/gradebook/internal/models"
)

var (
	ClassHeader = []string{"Rocket ID", "Name", "Assignment", "Score"}
	AllHeader   = []string{
		"Rocket ID",
		"Student Name",
		"Class ID",
		"Class Name",
		"Assignment ID",
		"Assignment Title",
		"Type",
		"Due Date",
		"Max Score",
		"Score",
	}
)

type RowSource interface {
	ClassGrades(ctx context.Context, classID string) iter.Seq2[models.ClassGradeRow, error]
	ExportRows(ctx context.Context) iter.Seq2[models.ExportRow, error]
}

// Exporter writes CSV straight from the store's row streams into a sink.
type Exporter struct {
	source RowSource
}

func NewExporter(source RowSource) *Exporter {
	return &Exporter{source: source}
}

// ExportClass writes the four-column grade listing of one class and returns
// the number of data rows written.
func (e *Exporter) ExportClass(ctx context.Context, classID string, w io.Writer) (int, error) {
	return writeCSV(w, ClassHeader, e.source.ClassGrades(ctx, classID), ClassRecord)
}

// ExportAll writes the ten-column dump of every student.
func (e *Exporter) ExportAll(ctx context.Context, w io.Writer) (int, error) {
	return writeCSV(w, AllHeader, e.source.ExportRows(ctx), AllRecord)
}

func ClassRecord(row models.ClassGradeRow) []string {
	return []string{row.RocketID, row.Name, row.Title, strconv.Itoa(row.Score)}
}

func AllRecord(row models.ExportRow) []string {
	return []string{
		row.RocketID,
		row.StudentName,
		optString(row.ClassID),
		optString(row.ClassName),
		optInt(row.AssignmentID),
		optString(row.AssignmentTitle),
		optString(row.Type),
		optString(row.DueDate),
		optInt(row.MaxScore),
		optInt(row.Score),
	}
}

func writeCSV[T any](w io.Writer, header []string, rows iter.Seq2[T, error], record func(T) []string) (int, error) {
	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return 0, apperr.Wrap(err, apperr.KindIOFailure, "failed to write csv header")
	}

	n := 0
	for row, err := range rows {
		if err != nil {
			return n, apperr.Wrap(err, apperr.KindInternal, "failed to read rows for export")
		}
		if err := writer.Write(record(row)); err != nil {
			return n, apperr.Wrap(err, apperr.KindIOFailure, "failed to write csv row")
		}
		n++
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return n, apperr.Wrap(err, apperr.KindIOFailure, "failed to flush csv")
	}
	return n, nil
}

func optString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func optInt(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}
