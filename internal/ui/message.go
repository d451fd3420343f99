package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/do-hu-so/GD-Ba-Than/internal/models"
	"github.com/do-hu-so/GD-Ba-Than/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgMediaLoaded MsgKind = iota
	MsgLiked
	MsgProgressUpdate
	MsgOperationComplete
	MsgStatus
)

type mediaLoaded struct {
	records []models.MediaRecord
	years   []int
	liked   map[string]bool
}

type likeDone struct {
	result tasks.LikeResult
	err    error
}

type operationDone struct {
	result any
	err    error
}

// mediaLoadedMsg is the constructor for [MsgMediaLoaded]
func mediaLoadedMsg(records []models.MediaRecord, years []int, liked map[string]bool) Msg {
	return Msg{kind: MsgMediaLoaded, data: mediaLoaded{records: records, years: years, liked: liked}}
}

// likedMsg is the constructor for [MsgLiked]
func likedMsg(result tasks.LikeResult, err error) Msg {
	return Msg{kind: MsgLiked, data: likeDone{result: result, err: err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// operationCompleteMsg is the constructor for [MsgOperationComplete]
//
// result is a [models.SyncResult] or a *[models.DownloadReport].
func operationCompleteMsg(result any, err error) Msg {
	return Msg{kind: MsgOperationComplete, data: operationDone{result: result, err: err}}
}

// statusMsg is the constructor for [MsgStatus]
func statusMsg(text string) Msg {
	return Msg{kind: MsgStatus, data: text}
}
