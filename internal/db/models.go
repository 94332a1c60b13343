package db

import (
	"time"

	"gorm.io/datatypes"
)

// Room holds the latest committed snapshot of a game room. The columns beside
// State exist for listing and the compare-and-swap on Revision.
type Room struct {
	ID           string         `gorm:"primaryKey;size:64"`
	Owner        string         `gorm:"size:64;not null"`
	Phase        string         `gorm:"size:32;not null;index"`
	CurrentRound int            `gorm:"not null"`
	PlayerCount  int            `gorm:"not null"`
	Revision     int64          `gorm:"not null"`
	State        datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt    time.Time      `gorm:"not null"`
	UpdatedAt    time.Time      `gorm:"not null"`
}

type ChatMessage struct {
	ID        uint      `gorm:"primaryKey"`
	RoomID    string    `gorm:"size:64;index;not null"`
	Username  string    `gorm:"size:64;not null"`
	Message   string    `gorm:"size:500;not null"`
	System    bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"not null;index"`
}

type Event struct {
	ID        uint           `gorm:"primaryKey"`
	RoomID    string         `gorm:"size:64;index;not null"`
	Type      string         `gorm:"size:64;not null"`
	Payload   datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"not null"`
}

type WordLibrary struct {
	ID        uint      `gorm:"primaryKey"`
	Category  string    `gorm:"size:64;not null;uniqueIndex:idx_word_library_category_text"`
	Text      string    `gorm:"size:64;not null;uniqueIndex:idx_word_library_category_text"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (WordLibrary) TableName() string {
	return "word_library"
}
