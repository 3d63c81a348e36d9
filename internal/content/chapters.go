// Package content holds the fixed copy shown along the journey: the photo
// chapters and the fortune-teller predictions.
package content

import (
	"wedding-journey/internal/models"
)

// Chapter is a gallery section
type Chapter struct {
	ID       models.Chapter `json:"id"`
	Title    string         `json:"title"`
	Subtitle string         `json:"subtitle"`
	Emoji    string         `json:"emoji"`
	Photos   []GalleryPhoto `json:"photos"`
}

// GalleryPhoto is a photo as shown to guests. URL is empty for placeholders.
type GalleryPhoto struct {
	ID          string `json:"id"`
	Caption     string `json:"caption"`
	URL         string `json:"url,omitempty"`
	Placeholder bool   `json:"placeholder,omitempty"`
}

type chapterCopy struct {
	id           models.Chapter
	title        string
	subtitle     string
	emoji        string
	placeholders []string
}

var chapters = []chapterCopy{
	{
		id:       models.ChapterChildhood,
		title:    "The Early Days",
		subtitle: "Where it all began",
		emoji:    "🌅",
		placeholders: []string{
			"Little Manoj, the OG troublemaker",
			"School days, already a legend",
			"The smile that never changed",
		},
	},
	{
		id:       models.ChapterCollege,
		title:    "College Chronicles",
		subtitle: "When boys became brothers",
		emoji:    "🎓",
		placeholders: []string{
			"First day, last bench, obviously",
			"Canteen kings",
			"Exam? What exam?",
		},
	},
	{
		id:       models.ChapterSquad,
		title:    "The Squad",
		subtitle: "Trip tales & midnight stories",
		emoji:    "🏔️",
		placeholders: []string{
			"Road trip #1, the one that started it all",
			"That one night we'll never talk about",
			"Bros before… well, you know",
			"The group photo we actually all look good in",
		},
	},
	{
		id:       models.ChapterCouple,
		title:    "Manoj & Pooja",
		subtitle: "When he found his forever",
		emoji:    "💕",
		placeholders: []string{
			"The one who tamed the beast",
			"Their first photo together",
			"She said yes (like she had a choice 😂)",
		},
	},
}

// URLFunc resolves a storage path to a public URL
type URLFunc func(storagePath string) string

// Gallery groups photos into the chapters in display order. A chapter with no
// uploaded photos falls back to its placeholder captions. Photos are expected
// sorted by rank already.
func Gallery(photos []models.Photo, url URLFunc) []Chapter {
	byChapter := make(map[models.Chapter][]models.Photo, len(chapters))
	for _, p := range photos {
		byChapter[p.Chapter] = append(byChapter[p.Chapter], p)
	}

	out := make([]Chapter, 0, len(chapters))
	for _, c := range chapters {
		ch := Chapter{
			ID:       c.id,
			Title:    c.title,
			Subtitle: c.subtitle,
			Emoji:    c.emoji,
		}

		uploaded := byChapter[c.id]
		if len(uploaded) == 0 {
			ch.Photos = make([]GalleryPhoto, 0, len(c.placeholders))
			for i, caption := range c.placeholders {
				ch.Photos = append(ch.Photos, GalleryPhoto{
					ID:          placeholderID(c.id, i),
					Caption:     caption,
					Placeholder: true,
				})
			}
		} else {
			ch.Photos = make([]GalleryPhoto, 0, len(uploaded))
			for _, p := range uploaded {
				gp := GalleryPhoto{ID: p.ID, Caption: p.Caption}
				if url != nil {
					gp.URL = url(p.StoragePath)
				}
				ch.Photos = append(ch.Photos, gp)
			}
		}
		out = append(out, ch)
	}
	return out
}

func placeholderID(c models.Chapter, i int) string {
	return string(c) + "-placeholder-" + string(rune('1'+i))
}
