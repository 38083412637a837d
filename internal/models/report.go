package models

// ClassGradeRow is one line of a class grade listing.
type ClassGradeRow struct {
	RocketID string `db:"rocket_id" json:"rocket_id"`
	Name     string `db:"name" json:"name"`
	Title    string `db:"title" json:"title"`
	Score    int    `db:"score" json:"score"`
}

// ExportRow is one line of the full dump. Students without grades come back
// with every grade/assignment/class column NULL.
type ExportRow struct {
	RocketID        string  `db:"rocket_id"`
	StudentName     string  `db:"student_name"`
	ClassID         *string `db:"class_id"`
	ClassName       *string `db:"class_name"`
	AssignmentID    *int64  `db:"assignment_id"`
	AssignmentTitle *string `db:"assignment_title"`
	Type            *string `db:"type"`
	DueDate         *string `db:"due_date"`
	MaxScore        *int64  `db:"max_score"`
	Score           *int64  `db:"score"`
}

type StudentReportRow struct {
	ClassID      string `db:"class_id"`
	ClassName    string `db:"class_name"`
	AssignmentID int64  `db:"assignment_id"`
	Title        string `db:"title"`
	MaxScore     int    `db:"max_score"`
	Score        int    `db:"score"`
}

type ReportLine struct {
	AssignmentID int64   `json:"assignment_id"`
	Title        string  `json:"title"`
	Score        int     `json:"score"`
	MaxScore     int     `json:"max_score"`
	Percentage   float64 `json:"percentage"`
	Letter       string  `json:"letter"`
}

type ClassReport struct {
	ClassID   string       `json:"class_id"`
	ClassName string       `json:"class_name"`
	Lines     []ReportLine `json:"lines"`
}

type StudentReport struct {
	Student Student       `json:"student"`
	Classes []ClassReport `json:"classes"`
}

type ClassAverage struct {
	ClassID string  `json:"class_id"`
	Average float64 `json:"average"`
	Letter  string  `json:"letter"`
	GPA     float64 `json:"gpa"`
	Count   int     `json:"count"`
}
