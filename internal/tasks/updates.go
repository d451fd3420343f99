package tasks

import (
	"fmt"

	"github.com/do-hu-so/GD-Ba-Than/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	Uploading Phase = iota
	Syncing
	Downloading
	Thumbnailing
	WritingManifest
)

func (p Phase) String() string {
	switch p {
	case Uploading:
		return "uploading"
	case Syncing:
		return "syncing"
	case Downloading:
		return "downloading"
	case Thumbnailing:
		return "thumbnailing"
	case WritingManifest:
		return "writing_manifest"
	default:
		return ""
	}
}

func uploadUpdate(percent int, filename string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Uploading,
		Step:    percent,
		Total:   100,
		Message: fmt.Sprintf("Uploading %s... %d%%", filename, percent),
	}
}

func uploadedUpdate(record *models.MediaRecord) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Uploading,
		Step:    100,
		Total:   100,
		Message: fmt.Sprintf("Uploaded %s (ID: %s)", record.Title, record.ID),
		Data:    record,
	}
}

func syncStartUpdate() ProgressUpdate {
	return ProgressUpdate{Phase: Syncing, Step: 0, Total: 1, Message: "Fetching remote listing..."}
}

func syncDoneUpdate(result models.SyncResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Syncing,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Sync complete: %d new of %d remote items", result.Added, result.Fetched),
		Data:    result,
	}
}

func downloadStartUpdate(total int) ProgressUpdate {
	return ProgressUpdate{Phase: Downloading, Step: 0, Total: total, Message: fmt.Sprintf("Downloading %d items...", total)}
}

func downloadItemUpdate(step, total int, item models.DownloadItem) ProgressUpdate {
	var msg string
	switch {
	case item.Skipped:
		msg = fmt.Sprintf("Skipped %s (already downloaded)", item.Title)
	case item.Success:
		msg = fmt.Sprintf("Downloaded %s", item.Title)
	default:
		msg = fmt.Sprintf("Failed %s: %s", item.Title, item.Error)
	}
	return ProgressUpdate{Phase: Downloading, Step: step, Total: total, Message: msg, Data: item}
}

func thumbnailUpdate(step, total int, path string) ProgressUpdate {
	return ProgressUpdate{Phase: Thumbnailing, Step: step, Total: total, Message: fmt.Sprintf("Thumbnail written: %s", path)}
}

func manifestUpdate(path string) ProgressUpdate {
	return ProgressUpdate{Phase: WritingManifest, Step: 1, Total: 1, Message: fmt.Sprintf("Manifest written: %s", path)}
}
