package models

// Grade is keyed by (RocketID, AssignmentID). ClassID is copied from the
// assignment when the grade is submitted.
type Grade struct {
	RocketID     string `db:"rocket_id" json:"rocket_id" validate:"required,rocketid"`
	AssignmentID int64  `db:"assignment_id" json:"assignment_id" validate:"gt=0"`
	Score        int    `db:"score" json:"score"`
	ClassID      string `db:"class_id" json:"class_id" validate:"required"`
}

func (g *Grade) Validate() error {
	return validateStruct(g)
}
