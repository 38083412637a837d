package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"iter"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/gradebook/internal/apperr"
	"github.com/shrimpsizemoose/gradebook/internal/models"
)

type fakeSource struct {
	classRows []models.ClassGradeRow
	allRows   []models.ExportRow
	err       error
}

func (f *fakeSource) ClassGrades(ctx context.Context, classID string) iter.Seq2[models.ClassGradeRow, error] {
	return seqWithErr(f.classRows, f.err)
}

func (f *fakeSource) ExportRows(ctx context.Context) iter.Seq2[models.ExportRow, error] {
	return seqWithErr(f.allRows, f.err)
}

func seqWithErr[T any](rows []T, err error) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for _, r := range rows {
			if !yield(r, nil) {
				return
			}
		}
		if err != nil {
			var zero T
			yield(zero, err)
		}
	}
}

type mockSource struct {
	mock.Mock
}

func (m *mockSource) ClassGrades(ctx context.Context, classID string) iter.Seq2[models.ClassGradeRow, error] {
	args := m.Called(ctx, classID)
	return seqWithErr(args.Get(0).([]models.ClassGradeRow), args.Error(1))
}

func (m *mockSource) ExportRows(ctx context.Context) iter.Seq2[models.ExportRow, error] {
	args := m.Called(ctx)
	return seqWithErr(args.Get(0).([]models.ExportRow), args.Error(1))
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("disk full")
}

func ptr[T any](v T) *T { return &v }

func TestExportClassRoundTrip(t *testing.T) {
	source := &fakeSource{classRows: []models.ClassGradeRow{
		{RocketID: "R00000001", Name: "Lovelace, Ada", Title: `Essay "On Engines"`, Score: 91},
		{RocketID: "R00000002", Name: "Alan", Title: "HW1", Score: -4},
	}}

	var buf bytes.Buffer
	n, err := NewExporter(source).ExportClass(context.Background(), "CS101", &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, ClassHeader, records[0])

	for i, row := range source.classRows {
		assert.Equal(t, ClassRecord(row), records[i+1])
	}
	assert.Equal(t, "Lovelace, Ada", records[1][1])
	assert.Equal(t, `Essay "On Engines"`, records[1][2])
}

func TestExportClassQuotesSpecialCharacters(t *testing.T) {
	source := &fakeSource{classRows: []models.ClassGradeRow{
		{RocketID: "R00000001", Name: "Lovelace, Ada", Title: `say "hi"`, Score: 1},
	}}

	var buf bytes.Buffer
	_, err := NewExporter(source).ExportClass(context.Background(), "CS101", &buf)
	require.NoError(t, err)
	assert.Equal(t, "Rocket ID,Name,Assignment,Score\nR00000001,\"Lovelace, Ada\",\"say \"\"hi\"\"\",1\n", buf.String())
}

func TestExportAllFillsMissingColumns(t *testing.T) {
	source := &fakeSource{allRows: []models.ExportRow{
		{
			RocketID:        "R00000001",
			StudentName:     "Ada",
			ClassID:         ptr("CS101"),
			ClassName:       ptr("Intro"),
			AssignmentID:    ptr(int64(4)),
			AssignmentTitle: ptr("HW1"),
			Type:            ptr("Homework"),
			DueDate:         ptr("2024-09-01"),
			MaxScore:        ptr(int64(100)),
			Score:           ptr(int64(97)),
		},
		{RocketID: "R00000002", StudentName: "Alan"},
	}}

	var buf bytes.Buffer
	n, err := NewExporter(source).ExportAll(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, AllHeader, records[0])
	assert.Equal(t, []string{"R00000001", "Ada", "CS101", "Intro", "4", "HW1", "Homework", "2024-09-01", "100", "97"}, records[1])
	assert.Equal(t, []string{"R00000002", "Alan", "", "", "", "", "", "", "", ""}, records[2])
}

func TestExportEmptyWritesHeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	n, err := NewExporter(&fakeSource{}).ExportClass(context.Background(), "CS101", &buf)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, "Rocket ID,Name,Assignment,Score\n", buf.String())
}

func TestExportUnwritableSink(t *testing.T) {
	source := &fakeSource{classRows: []models.ClassGradeRow{{RocketID: "R00000001", Name: "Ada", Title: "HW1", Score: 1}}}

	_, err := NewExporter(source).ExportClass(context.Background(), "CS101", failingWriter{})
	assert.ErrorIs(t, err, apperr.ErrIOFailure)

	_, err = NewExporter(source).ExportAll(context.Background(), failingWriter{})
	assert.ErrorIs(t, err, apperr.ErrIOFailure)
}

func TestExportSourceError(t *testing.T) {
	source := &fakeSource{err: errors.New("database is locked")}

	_, err := NewExporter(source).ExportClass(context.Background(), "CS101", &bytes.Buffer{})
	assert.ErrorIs(t, err, apperr.ErrInternal)
	assert.NotErrorIs(t, err, apperr.ErrIOFailure)
}

func TestHeadersAreStable(t *testing.T) {
	assert.Len(t, ClassHeader, 4)
	assert.Len(t, AllHeader, 10)
	assert.True(t, slices.Equal(AllHeader[:2], []string{"Rocket ID", "Student Name"}))
}

func TestExportClassAsksForRequestedClass(t *testing.T) {
	source := new(mockSource)
	source.On("ClassGrades", mock.Anything, "MA201").
		Return([]models.ClassGradeRow{{RocketID: "R00000003", Name: "Grace", Title: "Sets", Score: 18}}, nil)

	var buf bytes.Buffer
	n, err := NewExporter(source).ExportClass(context.Background(), "MA201", &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	source.AssertExpectations(t)
	source.AssertNotCalled(t, "ExportRows", mock.Anything)
}
