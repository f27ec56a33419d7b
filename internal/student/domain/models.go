package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Student is a roster record. The billing core only reads it; roster
// management happens through the thin collaborator API.
type Student struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	NIS       string       `gorm:"size:32;not null;uniqueIndex:ux_students_nis" json:"nis"`
	Name      string       `gorm:"size:255;not null" json:"name"`
	Class     string       `gorm:"size:64;index" json:"class"`
	Active    bool         `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (Student) TableName() string { return "students" }

type ListStudentFilter struct {
	Class      string
	ActiveOnly bool
}

type CreateStudentRequest struct {
	NIS   string `json:"nis"`
	Name  string `json:"name"`
	Class string `json:"class"`
}
