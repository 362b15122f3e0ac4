package models

// Column is an ordered container of tasks. Order values are dense and
// zero-based within a project between transactions.
type Column struct {
	BaseModel

	ProjectID uint   `gorm:"not null;index"`
	Title     string `gorm:"not null"`
	Order     int    `gorm:"not null"`

	// Relationships
	Project Project `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Tasks   []Task  `gorm:"foreignKey:ColumnID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
