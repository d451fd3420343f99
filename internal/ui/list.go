package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"github.com/do-hu-so/GD-Ba-Than/internal/models"
)

var (
	_ list.Item = mediaItem{}
)

// mediaItem wraps [models.MediaRecord] to implement [list.Item].
type mediaItem struct {
	record models.MediaRecord
	liked  bool
}

func (i mediaItem) FilterValue() string {
	return strings.Join([]string{i.record.Title, i.record.Description, i.record.UploadedBy}, " ")
}

func (i mediaItem) Title() string {
	if i.record.Kind == models.KindVideo {
		return "▶ " + i.record.Title
	}
	return i.record.Title
}

func (i mediaItem) Description() string {
	desc := fmt.Sprintf("%d • %s", i.record.Year, kindLabel(i.record.Kind))
	if i.record.LikeCount > 0 || i.liked {
		heart := "♡"
		if i.liked {
			heart = "♥"
		}
		desc = fmt.Sprintf("%s • %s %d", desc, heart, i.record.LikeCount)
	}
	if i.record.Description != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.record.Description)
	}
	return desc
}

func kindLabel(kind models.Kind) string {
	if kind == models.KindVideo {
		return "video"
	}
	return "photo"
}

func toItems(records []models.MediaRecord, liked map[string]bool) []list.Item {
	items := make([]list.Item, len(records))
	for i, r := range records {
		items[i] = mediaItem{record: r, liked: liked[r.ID]}
	}
	return items
}
