package models

type AssignmentType string

const (
	AssignmentHomework AssignmentType = "Homework"
	AssignmentTest     AssignmentType = "Test"
)

// Valid is case-sensitive: "homework" is rejected.
func (t AssignmentType) Valid() bool {
	return t == AssignmentHomework || t == AssignmentTest
}

// Assignment belongs to a class. DueDate is kept as entered (YYYY-MM-DD is
// expected but not checked against the calendar).
type Assignment struct {
	ID       int64          `db:"id" json:"id"`
	Title    string         `db:"title" json:"title" validate:"required"`
	DueDate  string         `db:"due_date" json:"due_date"`
	MaxScore int            `db:"max_score" json:"max_score" validate:"gt=0"`
	Type     AssignmentType `db:"type" json:"type" validate:"assignmenttype"`
	ClassID  string         `db:"class_id" json:"class_id" validate:"required"`
}

func (a *Assignment) Validate() error {
	return validateStruct(a)
}
