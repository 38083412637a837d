package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/gradebook/internal/apperr"
	"github.com/shrimpsizemoose/gradebook/internal/models"
	"github.com/shrimpsizemoose/gradebook/internal/store"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(sqlx.NewDb(db, "postgres")), mock
}

func TestConvertPlaceholders(t *testing.T) {
	assert.Equal(t,
		"SELECT * FROM grades WHERE rocket_id = $1 AND assignment_id = $2",
		convertPlaceholders("SELECT * FROM grades WHERE rocket_id = ? AND assignment_id = ?"),
	)
	assert.Equal(t, "SELECT 1", convertPlaceholders("SELECT 1"))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pq.Error{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("boom")))
	assert.False(t, isUniqueViolation(nil))
}

func TestApplyMigrations(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS students")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.ApplyMigrations(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddStudentDuplicate(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO students (rocket_id, name)")).
		WithArgs("R12345678", "Ada").
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := s.AddStudent(context.Background(), models.Student{RocketID: "R12345678", Name: "Ada"})
	assert.ErrorIs(t, err, apperr.ErrDuplicateKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetStudentUsesDollarPlaceholders(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE rocket_id = $1")).
		WithArgs("R12345678").
		WillReturnRows(sqlmock.NewRows([]string{"rocket_id", "name"}).AddRow("R12345678", "Ada"))

	got, err := s.GetStudent(context.Background(), "R12345678")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Ada", got.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetStudentMissing(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM students")).
		WithArgs("R00000000").
		WillReturnRows(sqlmock.NewRows([]string{"rocket_id", "name"}))

	got, err := s.GetStudent(context.Background(), "R00000000")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAddAssignmentReturnsID(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO assignments (title, due_date, max_score, type, class_id)")).
		WithArgs("HW1", "2024-09-01", 100, "Homework", "CS101").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	assignment := models.Assignment{Title: "HW1", DueDate: "2024-09-01", MaxScore: 100, Type: models.AssignmentHomework, ClassID: "CS101"}
	require.NoError(t, s.AddAssignment(context.Background(), &assignment))
	assert.Equal(t, int64(7), assignment.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteClassCascadesInTransaction(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM grades")).
		WithArgs("CS101", "CS101").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM assignments WHERE class_id = $1")).
		WithArgs("CS101").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM classes WHERE class_id = $1")).
		WithArgs("CS101").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.DeleteClass(context.Background(), "CS101"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteStudentRollsBackOnError(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM grades WHERE rocket_id = $1")).
		WithArgs("R12345678").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := s.DeleteStudent(context.Background(), "R12345678")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertGrade(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (rocket_id, assignment_id) DO UPDATE SET")).
		WithArgs("R12345678", int64(3), 88, "CS101").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.UpsertGrade(context.Background(), models.Grade{RocketID: "R12345678", AssignmentID: 3, Score: 88, ClassID: "CS101"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountGradesFilter(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM grades WHERE 1=1 AND rocket_id = $1 AND class_id = $2")).
		WithArgs("R12345678", "CS101").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := s.CountGrades(context.Background(), store.GradeFilter{RocketID: "R12345678", ClassID: "CS101"})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestClassGradesStreams(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE g.class_id = $1")).
		WithArgs("CS101").
		WillReturnRows(sqlmock.NewRows([]string{"rocket_id", "name", "title", "score"}).
			AddRow("R00000001", "Ada", "HW1", 90).
			AddRow("R00000002", "Alan", "HW1", 75))

	var got []models.ClassGradeRow
	for row, err := range s.ClassGrades(context.Background(), "CS101") {
		require.NoError(t, err)
		got = append(got, row)
	}
	require.Len(t, got, 2)
	assert.Equal(t, models.ClassGradeRow{RocketID: "R00000002", Name: "Alan", Title: "HW1", Score: 75}, got[1])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassGradesQueryError(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("FROM grades g").WillReturnError(errors.New("relation does not exist"))

	var errs int
	for _, err := range s.ClassGrades(context.Background(), "CS101") {
		if err != nil {
			errs++
		}
	}
	assert.Equal(t, 1, errs)
}
