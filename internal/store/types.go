package store

type DatabaseType string

const (
	DBTypePostgres DatabaseType = "postgres"
	DBTypeSQLite   DatabaseType = "sqlite"
)

type DBConfig struct {
	DSN  string
	Type DatabaseType
}

// GradeFilter narrows CountGrades; zero fields are ignored.
type GradeFilter struct {
	RocketID     string
	ClassID      string
	AssignmentID int64
}
