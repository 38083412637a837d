package models

type Class struct {
	ClassID   string `db:"class_id" json:"class_id" validate:"required"`
	ClassName string `db:"class_name" json:"class_name" validate:"required"`
}

func (c *Class) Validate() error {
	return validateStruct(c)
}
