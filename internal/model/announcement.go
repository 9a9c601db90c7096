package model

import "time"

// Announcement is one stored audio asset, either TTS-generated or uploaded.
type Announcement struct {
	ID        int       `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Category  string    `db:"category" json:"category"`
	Filename  string    `db:"filename" json:"filename"`
	URL       string    `db:"url" json:"url"`
	Text      string    `db:"text" json:"text"`
	Voice     string    `db:"voice" json:"voice"`
	Duration  int       `db:"duration" json:"duration"` // seconds, 0 if unknown
	Favorite  bool      `db:"favorite" json:"favorite"`
	CreatedBy int       `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
