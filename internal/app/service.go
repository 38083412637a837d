package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/gradebook/internal/apperr"
	"github.com/shrimpsizemoose/gradebook/internal/export"
	"github.com/shrimpsizemoose/gradebook/internal/metrics"
	"github.com/shrimpsizemoose/gradebook/internal/models"
	"github.com/shrimpsizemoose/gradebook/internal/scoring"
	"github.com/shrimpsizemoose/gradebook/internal/store"
)

// Service is the gradebook core. Inputs arrive as raw strings from the
// shell and are validated before anything reaches the store.
type Service struct {
	Config   *Config
	Store    store.GradebookStore
	Grader   *scoring.Grader
	exporter *export.Exporter
}

// AssignmentInput carries raw form values for creating or editing an
// assignment.
type AssignmentInput struct {
	ClassID  string
	Title    string
	DueDate  string
	MaxScore string
	Type     string
}

type GradeInput struct {
	RocketID     string
	AssignmentID string
	Score        string
	// ClassID may be empty, in which case the assignment's class is used.
	ClassID string
}

func NewService(config *Config) (*Service, error) {
	st, err := NewStore(config.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to init store: %w", err)
	}

	service, err := NewServiceWithStore(config, st)
	if err != nil {
		st.Close()
		return nil, err
	}
	return service, nil
}

func NewServiceWithStore(config *Config, st store.GradebookStore) (*Service, error) {
	grader, err := scoring.NewGrader(config.Scoring.Scale)
	if err != nil {
		return nil, fmt.Errorf("failed to init grader: %w", err)
	}

	return &Service{
		Config:   config,
		Store:    st,
		Grader:   grader,
		exporter: export.NewExporter(st),
	}, nil
}

func (s *Service) Close() error {
	var errs []error

	if err := s.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}
	if s.Config.Metrics.Textfile != "" {
		if err := metrics.WriteTextfile(s.Config.Metrics.Textfile); err != nil {
			errs = append(errs, fmt.Errorf("metrics: %w", err))
		}
	}

	return errors.Join(errs...)
}

// reject counts a validation failure and hands the error back unchanged.
func reject(err error) error {
	metrics.ValidationFailuresTotal.WithLabelValues(string(apperr.KindOf(err))).Inc()
	return err
}

// rejectNotFound counts missing references only; store failures pass through.
func rejectNotFound(err error) error {
	if errors.Is(err, apperr.ErrNotFound) {
		return reject(err)
	}
	return err
}

func internalErr(err error, format string, args ...any) error {
	var typed *apperr.Error
	if errors.As(err, &typed) {
		return err
	}
	return apperr.Wrap(err, apperr.KindInternal, format, args...)
}

func mutated(entity, op string) {
	metrics.MutationsTotal.WithLabelValues(entity, op).Inc()
}

// Students

func (s *Service) AddStudent(ctx context.Context, rocketID, name string) (*models.Student, error) {
	student := models.Student{RocketID: strings.TrimSpace(rocketID), Name: strings.TrimSpace(name)}
	if err := models.ValidateRocketID(student.RocketID); err != nil {
		return nil, reject(err)
	}
	if err := student.Validate(); err != nil {
		return nil, reject(err)
	}

	if err := s.Store.AddStudent(ctx, student); err != nil {
		if errors.Is(err, apperr.ErrDuplicateKey) {
			return nil, reject(err)
		}
		return nil, internalErr(err, "failed to add student %s", student.RocketID)
	}

	mutated("student", "add")
	logger.Info.Printf("Added student %s (%s)", student.Name, student.RocketID)
	return &student, nil
}

func (s *Service) GetStudent(ctx context.Context, rocketID string) (*models.Student, error) {
	student, err := s.Store.GetStudent(ctx, strings.TrimSpace(rocketID))
	if err != nil {
		return nil, internalErr(err, "failed to get student %s", rocketID)
	}
	if student == nil {
		return nil, apperr.New(apperr.KindNotFound, "student %s not found", rocketID)
	}
	return student, nil
}

func (s *Service) ListStudents(ctx context.Context, sortBy string) ([]models.Student, error) {
	students, err := s.Store.ListStudents(ctx, sortBy)
	if err != nil {
		return nil, internalErr(err, "failed to list students")
	}
	logger.Debug.Printf("Listed %d students", len(students))
	return students, nil
}

// UpdateStudentName is a no-op for an unknown id.
func (s *Service) UpdateStudentName(ctx context.Context, rocketID, name string) error {
	student := models.Student{RocketID: strings.TrimSpace(rocketID), Name: strings.TrimSpace(name)}
	if err := models.ValidateRocketID(student.RocketID); err != nil {
		return reject(err)
	}
	if err := student.Validate(); err != nil {
		return reject(err)
	}

	updated, err := s.Store.UpdateStudentName(ctx, student.RocketID, student.Name)
	if err != nil {
		return internalErr(err, "failed to update student %s", student.RocketID)
	}
	if !updated {
		logger.Debug.Printf("Student %s not found, nothing to update", student.RocketID)
		return nil
	}

	mutated("student", "update")
	logger.Info.Printf("Updated student %s name to %s", student.RocketID, student.Name)
	return nil
}

// DeleteStudent removes the student and all of their grades. Deleting an
// unknown id succeeds.
func (s *Service) DeleteStudent(ctx context.Context, rocketID string) error {
	rocketID = strings.TrimSpace(rocketID)
	if err := models.ValidateRocketID(rocketID); err != nil {
		return reject(err)
	}

	if err := s.Store.DeleteStudent(ctx, rocketID); err != nil {
		return internalErr(err, "failed to delete student %s", rocketID)
	}

	mutated("student", "delete")
	logger.Info.Printf("Deleted student and their grades: %s", rocketID)
	return nil
}

// Classes

func (s *Service) AddClass(ctx context.Context, classID, name string) (*models.Class, error) {
	class := models.Class{ClassID: strings.TrimSpace(classID), ClassName: strings.TrimSpace(name)}
	if err := class.Validate(); err != nil {
		return nil, reject(err)
	}

	if err := s.Store.AddClass(ctx, class); err != nil {
		if errors.Is(err, apperr.ErrDuplicateKey) {
			return nil, reject(err)
		}
		return nil, internalErr(err, "failed to add class %s", class.ClassID)
	}

	mutated("class", "add")
	logger.Info.Printf("Added class %s - %s", class.ClassID, class.ClassName)
	return &class, nil
}

func (s *Service) GetClass(ctx context.Context, classID string) (*models.Class, error) {
	class, err := s.Store.GetClass(ctx, strings.TrimSpace(classID))
	if err != nil {
		return nil, internalErr(err, "failed to get class %s", classID)
	}
	if class == nil {
		return nil, apperr.New(apperr.KindNotFound, "class %s not found", classID)
	}
	return class, nil
}

func (s *Service) ListClasses(ctx context.Context, sortBy string) ([]models.Class, error) {
	classes, err := s.Store.ListClasses(ctx, sortBy)
	if err != nil {
		return nil, internalErr(err, "failed to list classes")
	}
	return classes, nil
}

func (s *Service) UpdateClassName(ctx context.Context, classID, name string) error {
	class := models.Class{ClassID: strings.TrimSpace(classID), ClassName: strings.TrimSpace(name)}
	if err := class.Validate(); err != nil {
		return reject(err)
	}

	updated, err := s.Store.UpdateClassName(ctx, class.ClassID, class.ClassName)
	if err != nil {
		return internalErr(err, "failed to update class %s", class.ClassID)
	}
	if !updated {
		logger.Debug.Printf("Class %s not found, nothing to update", class.ClassID)
		return nil
	}

	mutated("class", "update")
	logger.Info.Printf("Updated class %s name to %s", class.ClassID, class.ClassName)
	return nil
}

// DeleteClass also removes the class's assignments and grades.
func (s *Service) DeleteClass(ctx context.Context, classID string) error {
	classID = strings.TrimSpace(classID)
	if classID == "" {
		return reject(apperr.New(apperr.KindInvalidFormat, "class id is required"))
	}

	if err := s.Store.DeleteClass(ctx, classID); err != nil {
		return internalErr(err, "failed to delete class %s", classID)
	}

	mutated("class", "delete")
	logger.Info.Printf("Deleted class %s with its assignments and grades", classID)
	return nil
}

// Assignments

// parseAssignment checks max score before type, then the struct rules.
func (s *Service) parseAssignment(input AssignmentInput) (models.Assignment, error) {
	maxScore, err := models.ParseMaxScore(input.MaxScore)
	if err != nil {
		return models.Assignment{}, err
	}
	assignmentType, err := models.ParseAssignmentType(strings.TrimSpace(input.Type))
	if err != nil {
		return models.Assignment{}, err
	}

	assignment := models.Assignment{
		Title:    strings.TrimSpace(input.Title),
		DueDate:  strings.TrimSpace(input.DueDate),
		MaxScore: maxScore,
		Type:     assignmentType,
		ClassID:  strings.TrimSpace(input.ClassID),
	}
	if err := assignment.Validate(); err != nil {
		return models.Assignment{}, err
	}
	return assignment, nil
}

// AddAssignment does not check that the class exists.
func (s *Service) AddAssignment(ctx context.Context, input AssignmentInput) (*models.Assignment, error) {
	assignment, err := s.parseAssignment(input)
	if err != nil {
		return nil, reject(err)
	}

	if err := s.Store.AddAssignment(ctx, &assignment); err != nil {
		return nil, internalErr(err, "failed to add assignment %s", assignment.Title)
	}

	mutated("assignment", "add")
	logger.Info.Printf("Added assignment %d: %s for %s", assignment.ID, assignment.Title, assignment.ClassID)
	return &assignment, nil
}

func (s *Service) GetAssignment(ctx context.Context, rawID string) (*models.Assignment, error) {
	id, err := models.ParseAssignmentID(rawID)
	if err != nil {
		return nil, reject(err)
	}
	return s.getAssignment(ctx, id)
}

func (s *Service) getAssignment(ctx context.Context, id int64) (*models.Assignment, error) {
	assignment, err := s.Store.GetAssignment(ctx, id)
	if err != nil {
		return nil, internalErr(err, "failed to get assignment %d", id)
	}
	if assignment == nil {
		return nil, apperr.New(apperr.KindNotFound, "assignment %d not found", id)
	}
	return assignment, nil
}

func (s *Service) ListAssignments(ctx context.Context, classID, sortBy string) ([]models.Assignment, error) {
	assignments, err := s.Store.ListAssignments(ctx, strings.TrimSpace(classID), sortBy)
	if err != nil {
		return nil, internalErr(err, "failed to list assignments for %s", classID)
	}
	return assignments, nil
}

// UpdateAssignment rewrites title, due date, max score and type. The class
// of an assignment never changes, and an unknown id is a no-op.
func (s *Service) UpdateAssignment(ctx context.Context, rawID string, input AssignmentInput) error {
	id, err := models.ParseAssignmentID(rawID)
	if err != nil {
		return reject(err)
	}

	existing, err := s.Store.GetAssignment(ctx, id)
	if err != nil {
		return internalErr(err, "failed to get assignment %d", id)
	}

	// bad input is reported even for unknown ids
	input.ClassID = "-"
	if existing != nil {
		input.ClassID = existing.ClassID
	}
	assignment, err := s.parseAssignment(input)
	if err != nil {
		return reject(err)
	}
	if existing == nil {
		logger.Debug.Printf("Assignment %d not found, nothing to update", id)
		return nil
	}
	assignment.ID = id

	if err := s.Store.UpdateAssignment(ctx, assignment); err != nil {
		return internalErr(err, "failed to update assignment %d", id)
	}

	mutated("assignment", "update")
	logger.Info.Printf("Updated assignment %d: %s", id, assignment.Title)
	return nil
}

func (s *Service) DeleteAssignment(ctx context.Context, rawID string) error {
	id, err := models.ParseAssignmentID(rawID)
	if err != nil {
		return reject(err)
	}

	if err := s.Store.DeleteAssignment(ctx, id); err != nil {
		return internalErr(err, "failed to delete assignment %d", id)
	}

	mutated("assignment", "delete")
	logger.Info.Printf("Deleted assignment %d", id)
	return nil
}

// Grades

// SubmitGrade validates every field, checks that the student and the
// assignment exist, then upserts the grade. Resubmitting overwrites the
// previous score.
func (s *Service) SubmitGrade(ctx context.Context, input GradeInput) (*models.Grade, error) {
	rocketID := strings.TrimSpace(input.RocketID)
	if err := models.ValidateRocketID(rocketID); err != nil {
		return nil, reject(err)
	}
	assignmentID, err := models.ParseAssignmentID(input.AssignmentID)
	if err != nil {
		return nil, reject(err)
	}
	score, err := models.ParseScore(input.Score)
	if err != nil {
		return nil, reject(err)
	}

	if _, err := s.GetStudent(ctx, rocketID); err != nil {
		return nil, rejectNotFound(err)
	}
	assignment, err := s.getAssignment(ctx, assignmentID)
	if err != nil {
		return nil, rejectNotFound(err)
	}

	classID := strings.TrimSpace(input.ClassID)
	if classID != "" && classID != assignment.ClassID {
		return nil, reject(apperr.New(apperr.KindNotFound, "assignment %d not found in class %s", assignmentID, classID))
	}

	grade := models.Grade{
		RocketID:     rocketID,
		AssignmentID: assignmentID,
		Score:        score,
		ClassID:      assignment.ClassID,
	}
	if err := grade.Validate(); err != nil {
		return nil, reject(err)
	}

	if err := s.Store.UpsertGrade(ctx, grade); err != nil {
		return nil, internalErr(err, "failed to save grade")
	}

	mutated("grade", "submit")
	metrics.GradeScoreHistogram.WithLabelValues(grade.ClassID).Observe(float64(grade.Score))
	logger.Info.Printf("Grade submitted: %s, AID %d, Class %s, Score %d", rocketID, assignmentID, grade.ClassID, score)
	return &grade, nil
}

// Reporting

// ClassGrades streams (rocket id, name, assignment, score) rows for a class.
// Nothing is read until the sequence is ranged over. Lookups such as
// GetStudent are safe inside the loop.
func (s *Service) ClassGrades(ctx context.Context, classID string) iter.Seq2[models.ClassGradeRow, error] {
	return s.Store.ClassGrades(ctx, strings.TrimSpace(classID))
}

// ClassAverage returns nil when the class has no grades.
func (s *Service) ClassAverage(ctx context.Context, classID string) (*models.ClassAverage, error) {
	classID = strings.TrimSpace(classID)
	scores, err := s.Store.ClassScores(ctx, classID)
	if err != nil {
		return nil, internalErr(err, "failed to fetch scores for %s", classID)
	}

	avg, ok := s.Grader.Average(scores)
	if !ok {
		return nil, nil
	}

	eval := s.Grader.Evaluate(avg)
	logger.Info.Printf("%s avg: %.2f%% = %s", classID, avg, eval.Letter)
	return &models.ClassAverage{
		ClassID: classID,
		Average: avg,
		Letter:  eval.Letter,
		GPA:     eval.GPA,
		Count:   len(scores),
	}, nil
}

// StudentReport groups a student's grades per class, classes ordered by
// name, with percentage and letter for each assignment.
func (s *Service) StudentReport(ctx context.Context, rocketID string) (*models.StudentReport, error) {
	student, err := s.GetStudent(ctx, rocketID)
	if err != nil {
		return nil, err
	}

	rows, err := s.Store.StudentReportRows(ctx, student.RocketID)
	if err != nil {
		return nil, internalErr(err, "failed to build report for %s", student.RocketID)
	}

	report := &models.StudentReport{Student: *student}
	for _, row := range rows {
		n := len(report.Classes)
		if n == 0 || report.Classes[n-1].ClassID != row.ClassID {
			report.Classes = append(report.Classes, models.ClassReport{
				ClassID:   row.ClassID,
				ClassName: row.ClassName,
			})
			n++
		}

		eval := s.Grader.EvaluateScore(row.Score, row.MaxScore)
		report.Classes[n-1].Lines = append(report.Classes[n-1].Lines, models.ReportLine{
			AssignmentID: row.AssignmentID,
			Title:        row.Title,
			Score:        row.Score,
			MaxScore:     row.MaxScore,
			Percentage:   eval.Percentage,
			Letter:       eval.Letter,
		})
	}

	return report, nil
}

// Export

func (s *Service) ExportClass(ctx context.Context, classID string, w io.Writer) (int, error) {
	classID = strings.TrimSpace(classID)
	n, err := s.exporter.ExportClass(ctx, classID, w)
	if err != nil {
		return n, err
	}
	metrics.ExportsTotal.WithLabelValues("class").Inc()
	metrics.ExportedRows.WithLabelValues("class").Add(float64(n))
	return n, nil
}

func (s *Service) ExportAll(ctx context.Context, w io.Writer) (int, error) {
	n, err := s.exporter.ExportAll(ctx, w)
	if err != nil {
		return n, err
	}
	metrics.ExportsTotal.WithLabelValues("all").Inc()
	metrics.ExportedRows.WithLabelValues("all").Add(float64(n))
	return n, nil
}

// ExportClassToFile writes the class CSV to path (relative paths resolve
// against the configured export directory) and returns the final path.
func (s *Service) ExportClassToFile(ctx context.Context, classID, path string) (string, int, error) {
	return s.exportToFile(path, func(w io.Writer) (int, error) {
		return s.ExportClass(ctx, classID, w)
	}, fmt.Sprintf("Exported %s", strings.TrimSpace(classID)))
}

func (s *Service) ExportAllToFile(ctx context.Context, path string) (string, int, error) {
	return s.exportToFile(path, func(w io.Writer) (int, error) {
		return s.ExportAll(ctx, w)
	}, "Exported ALL data")
}

func (s *Service) exportToFile(path string, write func(io.Writer) (int, error), what string) (string, int, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", 0, reject(apperr.New(apperr.KindIOFailure, "export path is required"))
	}
	target := s.Config.ExportPath(path)

	f, err := os.Create(target)
	if err != nil {
		return "", 0, apperr.Wrap(err, apperr.KindIOFailure, "failed to create %s", target)
	}

	n, err := write(f)
	if err != nil {
		f.Close()
		if rmErr := os.Remove(target); rmErr != nil {
			logger.Error.Printf("Failed to remove partial export %s: %v", target, rmErr)
		}
		return "", n, err
	}
	if err := f.Close(); err != nil {
		return "", n, apperr.Wrap(err, apperr.KindIOFailure, "failed to close %s", target)
	}

	logger.Info.Printf("%s to %s (%d rows)", what, target, n)
	return target, n, nil
}
