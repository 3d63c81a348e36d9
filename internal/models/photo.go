package models

import (
	"fmt"
	"time"
)

// Chapter is one of the four fixed photo categories
type Chapter string

const (
	ChapterChildhood Chapter = "childhood"
	ChapterCollege   Chapter = "college"
	ChapterSquad     Chapter = "squad"
	ChapterCouple    Chapter = "couple"
)

// Chapters lists the chapters in display order
var Chapters = []Chapter{ChapterChildhood, ChapterCollege, ChapterSquad, ChapterCouple}

// Valid reports whether c is a known chapter
func (c Chapter) Valid() bool {
	for _, known := range Chapters {
		if c == known {
			return true
		}
	}
	return false
}

// ParseChapter validates a raw chapter name
func ParseChapter(raw string) (Chapter, error) {
	c := Chapter(raw)
	if !c.Valid() {
		return "", fmt.Errorf("unknown chapter %q", raw)
	}
	return c, nil
}

// Photo is an admin-managed gallery entry
type Photo struct {
	ID          string    `json:"id"`
	Chapter     Chapter   `json:"chapter"`
	Caption     string    `json:"caption"`
	StoragePath string    `json:"storage_path"`
	Order       int       `json:"photo_order"`
	UploadedBy  string    `json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"`
}
