package dbmodels

import "time"

// Employee directory record. Directory CRUD lives outside this service;
// the row exists so session and form-update back-references resolve.
type Employee struct {
	BaseModel
	FirstName string `gorm:"type:varchar(255)"`
	LastName  string `gorm:"type:varchar(255)"`
	Email     string `gorm:"type:varchar(255);index"`
	ManagerID *string `gorm:"type:varchar(36)"`
	HireDate  time.Time
}

func (e Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}
