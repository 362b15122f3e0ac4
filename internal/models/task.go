package models

// Task order values are dense and zero-based within a column between
// transactions. AssigneeID must reference a current project participant.
type Task struct {
	BaseModel

	ColumnID    uint   `gorm:"not null;index"`
	Title       string `gorm:"not null"`
	Description *string
	Order       int   `gorm:"not null"`
	AssigneeID  *uint `gorm:"index"`

	// Relationships
	Column   Column `gorm:"foreignKey:ColumnID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Assignee *User  `gorm:"foreignKey:AssigneeID;constraint:OnUpdate:Cascade,OnDelete:SET NULL"`
}
