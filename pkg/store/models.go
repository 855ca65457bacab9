package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence.
type UserModel struct {
	ID           string    `gorm:"primaryKey"`
	Username     string    `gorm:"not null"`
	Email        string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time
}

type RecommendationModel struct {
	ID         string                      `gorm:"primaryKey"`
	UserID     string                      `gorm:"not null;index:idx_rec_user_time,priority:1"`
	Question   string                      `gorm:"type:text;not null"`
	MovieTitle string                      `gorm:"not null"`
	MovieID    int64                       `gorm:"not null"`
	Genres     datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	CreatedAt  time.Time                   `gorm:"not null;index:idx_rec_user_time,priority:2"`

	// Position is the row's index inside its batch.
	Position int `gorm:"not null;default:0"`
}

type CommentModel struct {
	ID        string    `gorm:"primaryKey"`
	UserID    string    `gorm:"not null;index"`
	MovieID   int64     `gorm:"not null;index:idx_comment_movie_time,priority:1"`
	Text      string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null;index:idx_comment_movie_time,priority:2"`
}

// FavoriteModel's composite key keeps (user, movie) unique.
type FavoriteModel struct {
	UserID    string    `gorm:"primaryKey"`
	MovieID   int64     `gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time `gorm:"not null"`
}
