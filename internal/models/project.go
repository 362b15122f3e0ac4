package models

type Project struct {
	BaseModel

	Name        string `gorm:"not null"`
	Description string
	OwnerID     uint `gorm:"not null;index"` // primary owner, always also a participant row

	// Relationships
	Owner        User                 `gorm:"foreignKey:OwnerID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Participants []ProjectParticipant `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Columns      []Column             `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
