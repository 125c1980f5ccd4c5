package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	ID         uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Auth0ID    string    `gorm:"unique;not null"`
	Email      string    `gorm:"unique;not null"`
	Name       string
	Language   string `gorm:"default:'en'"`
	Premium    bool   `gorm:"default:false"`
	Admin      bool   `gorm:"default:false"`
	Streak     int    `gorm:"default:0"`
	TotalDays  int    `gorm:"default:0"`
	Level      int    `gorm:"default:1"`
	XP         int    `gorm:"default:0"`
	BadgeCount int    `gorm:"default:0"`
	QuitDate   time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DeletedAt  gorm.DeletedAt `gorm:"index"`
}

// UserProgress is the snapshot of quit-journey state the AI layer reads.
type UserProgress struct {
	Streak    int `json:"streak"`
	TotalDays int `json:"totalDays"`
	Level     int `json:"level"`
	XP        int `json:"xp"`
	Badges    int `json:"badges"`
}

func (u *User) Progress() UserProgress {
	return UserProgress{
		Streak:    u.Streak,
		TotalDays: u.TotalDays,
		Level:     u.Level,
		XP:        u.XP,
		Badges:    u.BadgeCount,
	}
}
