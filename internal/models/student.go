package models

type Student struct {
	RocketID string `db:"rocket_id" json:"rocket_id" validate:"required,rocketid"`
	Name     string `db:"name" json:"name" validate:"required"`
}

func (s *Student) Validate() error {
	return validateStruct(s)
}
