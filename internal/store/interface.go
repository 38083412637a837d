package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/gradebook/internal/apperr"
	"github.com/shrimpsizemoose/gradebook/internal/models"
)

//go:embed migrations/*.sql
var migrations embed.FS

type GradebookStore interface {
	Close() error
	ApplyMigrations(ctx context.Context) error

	AddStudent(ctx context.Context, student models.Student) error
	GetStudent(ctx context.Context, rocketID string) (*models.Student, error)
	ListStudents(ctx context.Context, sortBy string) ([]models.Student, error)
	UpdateStudentName(ctx context.Context, rocketID, name string) (bool, error)
	DeleteStudent(ctx context.Context, rocketID string) error

	AddClass(ctx context.Context, class models.Class) error
	GetClass(ctx context.Context, classID string) (*models.Class, error)
	ListClasses(ctx context.Context, sortBy string) ([]models.Class, error)
	UpdateClassName(ctx context.Context, classID, name string) (bool, error)
	DeleteClass(ctx context.Context, classID string) error

	AddAssignment(ctx context.Context, assignment *models.Assignment) error
	GetAssignment(ctx context.Context, id int64) (*models.Assignment, error)
	ListAssignments(ctx context.Context, classID, sortBy string) ([]models.Assignment, error)
	UpdateAssignment(ctx context.Context, assignment models.Assignment) error
	DeleteAssignment(ctx context.Context, id int64) error

	UpsertGrade(ctx context.Context, grade models.Grade) error
	GetGrade(ctx context.Context, rocketID string, assignmentID int64) (*models.Grade, error)
	CountGrades(ctx context.Context, filter GradeFilter) (int, error)

	// ClassGrades and ExportRows hold a connection while being ranged over.
	// Other reads may run inside the loop; on a SQLite in-memory database a
	// write to a table the stream is reading fails with a locked error.
	ClassGrades(ctx context.Context, classID string) iter.Seq2[models.ClassGradeRow, error]
	ClassScores(ctx context.Context, classID string) ([]int, error)
	StudentReportRows(ctx context.Context, rocketID string) ([]models.StudentReportRow, error)
	ExportRows(ctx context.Context) iter.Seq2[models.ExportRow, error]
}

// BaseStore provides common functionality for different DB implementations.
// Queries are written with ? placeholders and passed through Converter.
type BaseStore struct {
	DB                *sqlx.DB
	Converter         func(string) string
	IsUniqueViolation func(error) bool
}

func (s *BaseStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// ApplyMigrations applies the embedded SQL migrations in name order,
// translating dialect if needed. Every statement is idempotent.
func (s *BaseStore) ApplyMigrations(ctx context.Context, translateSQL func(string) string) error {
	files, err := fs.ReadDir(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	for _, file := range files {
		if !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		content, err := fs.ReadFile(migrations, "migrations/"+file.Name())
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file.Name(), err)
		}

		sql := string(content)
		if translateSQL != nil {
			sql = translateSQL(sql)
		}

		logger.Debug.Printf("Applying migration: %s", file.Name())
		if _, err := s.DB.ExecContext(ctx, sql); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file.Name(), err)
		}
	}

	return nil
}

func (s *BaseStore) q(query string) string {
	if s.Converter == nil {
		return query
	}
	return s.Converter(query)
}

func (s *BaseStore) uniqueViolation(err error) bool {
	return s.IsUniqueViolation != nil && s.IsUniqueViolation(err)
}

func (s *BaseStore) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

func orderBy(sortBy string, allowed map[string]string, fallback string) string {
	if column, ok := allowed[sortBy]; ok {
		return column
	}
	return fallback
}

// streamRows runs query lazily: nothing is executed until the sequence is
// ranged over, and rows are scanned one at a time.
func streamRows[T any](ctx context.Context, db *sqlx.DB, query string, args ...any) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		rows, err := db.QueryxContext(ctx, query, args...)
		if err != nil {
			yield(zero, fmt.Errorf("failed to run query: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var row T
			if err := rows.StructScan(&row); err != nil {
				yield(zero, fmt.Errorf("failed to scan row: %w", err))
				return
			}
			if !yield(row, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(zero, fmt.Errorf("failed to iterate rows: %w", err))
		}
	}
}

func (s *BaseStore) AddStudent(ctx context.Context, student models.Student) error {
	_, err := s.DB.NamedExecContext(ctx, `
		INSERT INTO students (rocket_id, name)
		VALUES (:rocket_id, :name)
	`, student)
	if s.uniqueViolation(err) {
		return apperr.Wrap(err, apperr.KindDuplicateKey, "student %s already exists", student.RocketID)
	}
	if err != nil {
		return fmt.Errorf("failed to create student: %w", err)
	}
	return nil
}

func (s *BaseStore) GetStudent(ctx context.Context, rocketID string) (*models.Student, error) {
	var student models.Student
	err := s.DB.GetContext(ctx, &student, s.q(`
		SELECT rocket_id, name
		FROM students
		WHERE rocket_id = ?
	`), rocketID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	return &student, nil
}

func (s *BaseStore) ListStudents(ctx context.Context, sortBy string) ([]models.Student, error) {
	column := orderBy(sortBy, map[string]string{
		"name":      "name, rocket_id",
		"rocket_id": "rocket_id",
	}, "rocket_id")

	var students []models.Student
	err := s.DB.SelectContext(ctx, &students, `
		SELECT rocket_id, name
		FROM students
		ORDER BY `+column)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	return students, nil
}

// UpdateStudentName reports whether a row was changed.
func (s *BaseStore) UpdateStudentName(ctx context.Context, rocketID, name string) (bool, error) {
	res, err := s.DB.ExecContext(ctx, s.q(`
		UPDATE students SET name = ? WHERE rocket_id = ?
	`), name, rocketID)
	if err != nil {
		return false, fmt.Errorf("failed to update student: %w", err)
	}
	return affected(res)
}

// DeleteStudent removes the student together with every grade they hold.
func (s *BaseStore) DeleteStudent(ctx context.Context, rocketID string) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM grades WHERE rocket_id = ?`), rocketID); err != nil {
			return fmt.Errorf("failed to delete student grades: %w", err)
		}
		if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM students WHERE rocket_id = ?`), rocketID); err != nil {
			return fmt.Errorf("failed to delete student: %w", err)
		}
		return nil
	})
}

func (s *BaseStore) AddClass(ctx context.Context, class models.Class) error {
	_, err := s.DB.NamedExecContext(ctx, `
		INSERT INTO classes (class_id, class_name)
		VALUES (:class_id, :class_name)
	`, class)
	if s.uniqueViolation(err) {
		return apperr.Wrap(err, apperr.KindDuplicateKey, "class %s already exists", class.ClassID)
	}
	if err != nil {
		return fmt.Errorf("failed to create class: %w", err)
	}
	return nil
}

func (s *BaseStore) GetClass(ctx context.Context, classID string) (*models.Class, error) {
	var class models.Class
	err := s.DB.GetContext(ctx, &class, s.q(`
		SELECT class_id, class_name
		FROM classes
		WHERE class_id = ?
	`), classID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get class: %w", err)
	}
	return &class, nil
}

func (s *BaseStore) ListClasses(ctx context.Context, sortBy string) ([]models.Class, error) {
	column := orderBy(sortBy, map[string]string{
		"class_id":   "class_id",
		"class_name": "class_name, class_id",
	}, "class_id")

	var classes []models.Class
	err := s.DB.SelectContext(ctx, &classes, `
		SELECT class_id, class_name
		FROM classes
		ORDER BY `+column)
	if err != nil {
		return nil, fmt.Errorf("failed to list classes: %w", err)
	}
	return classes, nil
}

func (s *BaseStore) UpdateClassName(ctx context.Context, classID, name string) (bool, error) {
	res, err := s.DB.ExecContext(ctx, s.q(`
		UPDATE classes SET class_name = ? WHERE class_id = ?
	`), name, classID)
	if err != nil {
		return false, fmt.Errorf("failed to update class: %w", err)
	}
	return affected(res)
}

// DeleteClass removes the class, its assignments and every grade that points
// at the class or at one of those assignments.
func (s *BaseStore) DeleteClass(ctx context.Context, classID string) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, s.q(`
			DELETE FROM grades
			WHERE class_id = ?
			OR assignment_id IN (SELECT id FROM assignments WHERE class_id = ?)
		`), classID, classID); err != nil {
			return fmt.Errorf("failed to delete class grades: %w", err)
		}
		if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM assignments WHERE class_id = ?`), classID); err != nil {
			return fmt.Errorf("failed to delete class assignments: %w", err)
		}
		if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM classes WHERE class_id = ?`), classID); err != nil {
			return fmt.Errorf("failed to delete class: %w", err)
		}
		return nil
	})
}

// AddAssignment inserts the assignment and stores the generated id back
// into it.
func (s *BaseStore) AddAssignment(ctx context.Context, assignment *models.Assignment) error {
	err := s.DB.QueryRowxContext(ctx, s.q(`
		INSERT INTO assignments (title, due_date, max_score, type, class_id)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`),
		assignment.Title,
		assignment.DueDate,
		assignment.MaxScore,
		string(assignment.Type),
		assignment.ClassID,
	).Scan(&assignment.ID)
	if err != nil {
		return fmt.Errorf("failed to create assignment: %w", err)
	}
	return nil
}

func (s *BaseStore) GetAssignment(ctx context.Context, id int64) (*models.Assignment, error) {
	var assignment models.Assignment
	err := s.DB.GetContext(ctx, &assignment, s.q(`
		SELECT id, title, due_date, max_score, type, class_id
		FROM assignments
		WHERE id = ?
	`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	return &assignment, nil
}

func (s *BaseStore) ListAssignments(ctx context.Context, classID, sortBy string) ([]models.Assignment, error) {
	column := orderBy(sortBy, map[string]string{
		"title":    "title, id",
		"due_date": "due_date, id",
	}, "id")

	var assignments []models.Assignment
	err := s.DB.SelectContext(ctx, &assignments, s.q(`
		SELECT id, title, due_date, max_score, type, class_id
		FROM assignments
		WHERE class_id = ?
		ORDER BY `+column), classID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	return assignments, nil
}

func (s *BaseStore) UpdateAssignment(ctx context.Context, assignment models.Assignment) error {
	_, err := s.DB.ExecContext(ctx, s.q(`
		UPDATE assignments
		SET title = ?, due_date = ?, max_score = ?, type = ?
		WHERE id = ?
	`),
		assignment.Title,
		assignment.DueDate,
		assignment.MaxScore,
		string(assignment.Type),
		assignment.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update assignment: %w", err)
	}
	return nil
}

func (s *BaseStore) DeleteAssignment(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM grades WHERE assignment_id = ?`), id); err != nil {
			return fmt.Errorf("failed to delete assignment grades: %w", err)
		}
		if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM assignments WHERE id = ?`), id); err != nil {
			return fmt.Errorf("failed to delete assignment: %w", err)
		}
		return nil
	})
}

// UpsertGrade keeps a single row per (rocket_id, assignment_id); a repeated
// submission overwrites score and class_id.
func (s *BaseStore) UpsertGrade(ctx context.Context, grade models.Grade) error {
	_, err := s.DB.NamedExecContext(ctx, `
		INSERT INTO grades (rocket_id, assignment_id, score, class_id)
		VALUES (:rocket_id, :assignment_id, :score, :class_id)
		ON CONFLICT (rocket_id, assignment_id) DO UPDATE SET
		score = excluded.score,
		class_id = excluded.class_id
	`, grade)
	if err != nil {
		return fmt.Errorf("failed to save grade: %w", err)
	}
	return nil
}

func (s *BaseStore) GetGrade(ctx context.Context, rocketID string, assignmentID int64) (*models.Grade, error) {
	var grade models.Grade
	err := s.DB.GetContext(ctx, &grade, s.q(`
		SELECT rocket_id, assignment_id, score, class_id
		FROM grades
		WHERE rocket_id = ?
		AND assignment_id = ?
	`), rocketID, assignmentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get grade: %w", err)
	}
	return &grade, nil
}

func (s *BaseStore) CountGrades(ctx context.Context, filter GradeFilter) (int, error) {
	conditions := []string{"1=1"}
	var args []any
	if filter.RocketID != "" {
		conditions = append(conditions, "rocket_id = ?")
		args = append(args, filter.RocketID)
	}
	if filter.ClassID != "" {
		conditions = append(conditions, "class_id = ?")
		args = append(args, filter.ClassID)
	}
	if filter.AssignmentID != 0 {
		conditions = append(conditions, "assignment_id = ?")
		args = append(args, filter.AssignmentID)
	}

	var count int
	query := "SELECT COUNT(*) FROM grades WHERE " + strings.Join(conditions, " AND ")
	if err := s.DB.GetContext(ctx, &count, s.q(query), args...); err != nil {
		return 0, fmt.Errorf("failed to count grades: %w", err)
	}
	return count, nil
}

func (s *BaseStore) ClassGrades(ctx context.Context, classID string) iter.Seq2[models.ClassGradeRow, error] {
	return streamRows[models.ClassGradeRow](ctx, s.DB, s.q(`
		SELECT s.rocket_id, s.name, a.title, g.score
		FROM grades g
		JOIN students s ON s.rocket_id = g.rocket_id
		JOIN assignments a ON a.id = g.assignment_id
		WHERE g.class_id = ?
		ORDER BY g.rocket_id, g.assignment_id
	`), classID)
}

func (s *BaseStore) ClassScores(ctx context.Context, classID string) ([]int, error) {
	var scores []int
	err := s.DB.SelectContext(ctx, &scores, s.q(`
		SELECT score
		FROM grades
		WHERE class_id = ?
		ORDER BY rocket_id, assignment_id
	`), classID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch class scores: %w", err)
	}
	return scores, nil
}

func (s *BaseStore) StudentReportRows(ctx context.Context, rocketID string) ([]models.StudentReportRow, error) {
	var rows []models.StudentReportRow
	err := s.DB.SelectContext(ctx, &rows, s.q(`
		SELECT
			c.class_id,
			c.class_name,
			a.id AS assignment_id,
			a.title,
			a.max_score,
			g.score
		FROM grades g
		JOIN assignments a ON g.assignment_id = a.id
		JOIN classes c ON g.class_id = c.class_id
		WHERE g.rocket_id = ?
		ORDER BY c.class_name, c.class_id, a.id
	`), rocketID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch student report: %w", err)
	}
	return rows, nil
}

// ExportRows left-joins from students so that every student shows up at
// least once, graded or not.
func (s *BaseStore) ExportRows(ctx context.Context) iter.Seq2[models.ExportRow, error] {
	return streamRows[models.ExportRow](ctx, s.DB, `
		SELECT
			s.rocket_id,
			s.name AS student_name,
			c.class_id,
			c.class_name,
			a.id AS assignment_id,
			a.title AS assignment_title,
			a.type,
			a.due_date,
			a.max_score,
			g.score
		FROM students s
		LEFT JOIN grades g ON s.rocket_id = g.rocket_id
		LEFT JOIN assignments a ON g.assignment_id = a.id
		LEFT JOIN classes c ON g.class_id = c.class_id
		ORDER BY s.rocket_id, g.class_id, g.assignment_id
	`)
}
