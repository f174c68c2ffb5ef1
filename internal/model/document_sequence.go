package model

import "time"

// DocumentSequence holds the last number issued per prefix (e.g.
// "INV-20240313-"). It only moves forward, so numbers of deleted documents
// are never issued again.
type DocumentSequence struct {
	Prefix    string `gorm:"type:varchar(32);primaryKey"`
	LastValue int64  `gorm:"not null"`
	UpdatedAt time.Time
}
