package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/do-hu-so/GD-Ba-Than/internal/formatter"
	"github.com/do-hu-so/GD-Ba-Than/internal/models"
	"github.com/do-hu-so/GD-Ba-Than/internal/shared"
	"github.com/do-hu-so/GD-Ba-Than/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	GalleryView ViewState = iota
	DetailView
	ConfirmView
	ProgressView
	ResultView
)

// Gallery is the read side of the media store the browser needs.
type Gallery interface {
	List(ctx context.Context, kind *models.Kind) []models.MediaRecord
	ListByYear(ctx context.Context, year int, kind *models.Kind) []models.MediaRecord
	Years(ctx context.Context) []int
	LikedIDs(ctx context.Context) []string
}

// ModelOpts configures [NewModel].
type ModelOpts struct {
	Gallery     Gallery
	Workflows   *tasks.Workflows
	Download    tasks.BulkDownloadOpts
	Logger      *log.Logger
	OpenBrowser func(url string) error
}

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	view      ViewState
	gallery   Gallery
	workflows *tasks.Workflows
	download  tasks.BulkDownloadOpts
	logger    *log.Logger
	open      func(string) error

	width  int
	height int

	list     list.Model
	liked    map[string]bool
	years    []int
	yearIdx  int // -1 for all years
	kind     *models.Kind
	selected *models.MediaRecord
	pending  []models.MediaRecord

	op       *operation
	progress tasks.ProgressUpdate
	bar      progress.Model
	result   any
	status   string
	err      error
	help     help.Model
	keys     keyMap
}

// operation is a running sync or bulk download. result and err are written before progress is closed.
type operation struct {
	progress chan tasks.ProgressUpdate
	result   any
	err      error
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts ModelOpts) *Model {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	open := opts.OpenBrowser
	if open == nil {
		open = shared.OpenBrowser
	}

	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.SetShowHelp(false)

	return &Model{
		ctx:       ctx,
		view:      GalleryView,
		gallery:   opts.Gallery,
		workflows: opts.Workflows,
		download:  opts.Download,
		logger:    shared.WithLogger(logger, "component", "tui"),
		open:      open,
		list:      l,
		liked:     map[string]bool{},
		yearIdx:   -1,
		bar:       progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Init initializes the TUI by loading media from the local store.
func (m *Model) Init() tea.Cmd {
	return m.loadMedia()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case GalleryView:
			return m.handleGalleryKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ProgressView:
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			return m, nil
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	var cmd tea.Cmd
	if m.view == GalleryView {
		m.list, cmd = m.list.Update(msg)
	}
	return m, cmd
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgMediaLoaded:
		data := msg.data.(mediaLoaded)
		m.years = data.years
		if m.yearIdx >= len(m.years) {
			m.yearIdx = -1
		}
		m.liked = data.liked
		m.list.Title = m.galleryTitle()
		return m, m.list.SetItems(toItems(data.records, data.liked))

	case MsgLiked:
		data := msg.data.(likeDone)
		if data.err != nil {
			m.status = styles.err.Render(fmt.Sprintf("Like failed: %v", data.err))
			return m, nil
		}
		m.applyLike(data.result)
		return m, nil

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForProgress()

	case MsgOperationComplete:
		data := msg.data.(operationDone)
		m.result = data.result
		m.err = data.err
		m.op = nil
		m.view = ResultView
		return m, nil

	case MsgStatus:
		m.status = msg.data.(string)
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case GalleryView:
		return m.renderGallery()
	case DetailView:
		return m.renderDetail()
	case ConfirmView:
		return m.renderConfirm()
	case ProgressView:
		return m.renderProgress()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleGalleryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if record := m.selectedRecord(); record != nil {
			m.selected = record
			m.status = ""
			m.view = DetailView
		}
		return m, nil
	case key.Matches(msg, m.keys.like):
		if record := m.selectedRecord(); record != nil {
			return m, m.like(record.ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.year):
		m.cycleYear()
		return m, m.loadMedia()
	case key.Matches(msg, m.keys.kind):
		m.cycleKind()
		return m, m.loadMedia()
	case key.Matches(msg, m.keys.sync):
		m.view = ProgressView
		return m, m.startSync()
	case key.Matches(msg, m.keys.download):
		m.pending = m.visibleRecords()
		if len(m.pending) == 0 {
			m.status = styles.warn.Render("Nothing to download")
			return m, nil
		}
		m.view = ConfirmView
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = GalleryView
		m.selected = nil
		m.status = ""
		return m, nil
	case key.Matches(msg, m.keys.like):
		return m, m.like(m.selected.ID)
	case key.Matches(msg, m.keys.open):
		return m, m.openSource(m.selected.SourceURL)
	case key.Matches(msg, m.keys.download):
		m.pending = []models.MediaRecord{*m.selected}
		m.view = ConfirmView
		return m, nil
	}
	return m, nil
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		m.view = ProgressView
		return m, m.startDownload(m.pending)
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.quit):
		m.pending = nil
		if m.selected != nil {
			m.view = DetailView
		} else {
			m.view = GalleryView
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.enter):
		m.view = GalleryView
		m.selected = nil
		m.pending = nil
		m.result = nil
		m.err = nil
		m.progress = tasks.ProgressUpdate{}
		return m, m.loadMedia()
	}
	return m, nil
}

func (m *Model) selectedRecord() *models.MediaRecord {
	item, ok := m.list.SelectedItem().(mediaItem)
	if !ok {
		return nil
	}
	record := item.record
	return &record
}

func (m *Model) visibleRecords() []models.MediaRecord {
	items := m.list.VisibleItems()
	records := make([]models.MediaRecord, 0, len(items))
	for _, it := range items {
		if mi, ok := it.(mediaItem); ok {
			records = append(records, mi.record)
		}
	}
	return records
}

func (m *Model) cycleYear() {
	if len(m.years) == 0 {
		m.yearIdx = -1
		return
	}
	m.yearIdx++
	if m.yearIdx >= len(m.years) {
		m.yearIdx = -1
	}
}

func (m *Model) cycleKind() {
	switch {
	case m.kind == nil:
		k := models.KindImage
		m.kind = &k
	case *m.kind == models.KindImage:
		k := models.KindVideo
		m.kind = &k
	default:
		m.kind = nil
	}
}

func (m *Model) currentYear() int {
	if m.yearIdx < 0 || m.yearIdx >= len(m.years) {
		return 0
	}
	return m.years[m.yearIdx]
}

func (m *Model) galleryTitle() string {
	title := "Family Gallery"
	if year := m.currentYear(); year != 0 {
		title = fmt.Sprintf("%s · %d", title, year)
	} else {
		title += " · All years"
	}
	if m.kind != nil {
		title = fmt.Sprintf("%s · %ss", title, kindLabel(*m.kind))
	}
	return title
}

// applyLike updates the liked item in place, in the list and in the detail view.
func (m *Model) applyLike(result tasks.LikeResult) {
	m.liked[result.ID] = result.Liked
	for i, it := range m.list.Items() {
		mi, ok := it.(mediaItem)
		if !ok || mi.record.ID != result.ID {
			continue
		}
		mi.record.LikeCount = result.Count
		mi.liked = result.Liked
		m.list.SetItem(i, mi)
		break
	}
	if m.selected != nil && m.selected.ID == result.ID {
		m.selected.LikeCount = result.Count
	}
}

func (m *Model) loadMedia() tea.Cmd {
	year, kind := m.currentYear(), m.kind
	return func() tea.Msg {
		var records []models.MediaRecord
		if year != 0 {
			records = m.gallery.ListByYear(m.ctx, year, kind)
		} else {
			records = m.gallery.List(m.ctx, kind)
		}

		liked := make(map[string]bool)
		for _, id := range m.gallery.LikedIDs(m.ctx) {
			liked[id] = true
		}
		return mediaLoadedMsg(records, m.gallery.Years(m.ctx), liked)
	}
}

func (m *Model) like(id string) tea.Cmd {
	return func() tea.Msg {
		result, err := m.workflows.Like(m.ctx, id)
		return likedMsg(result, err)
	}
}

func (m *Model) openSource(url string) tea.Cmd {
	return func() tea.Msg {
		if err := m.open(url); err != nil {
			m.logger.Warn("failed to open browser", "url", url, "err", err)
			return statusMsg(styles.err.Render(fmt.Sprintf("Could not open browser: %v", err)))
		}
		return statusMsg(styles.ok.Render("Opened in browser"))
	}
}

func (m *Model) startSync() tea.Cmd {
	op := &operation{progress: make(chan tasks.ProgressUpdate, 10)}
	m.op = op

	go func() {
		result, err := m.workflows.SyncNow(m.ctx, op.progress)
		if err != nil {
			m.logger.Error("sync failed", "err", err)
		}
		op.result, op.err = result, err
		close(op.progress)
	}()

	return m.waitForProgress()
}

func (m *Model) startDownload(records []models.MediaRecord) tea.Cmd {
	op := &operation{progress: make(chan tasks.ProgressUpdate, 50)}
	m.op = op
	opts := m.download

	go func() {
		report, err := m.workflows.BulkDownload(m.ctx, op.progress, records, opts)
		if err != nil {
			m.logger.Error("download failed", "err", err)
		}
		op.result, op.err = report, err
		close(op.progress)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	op := m.op
	return func() tea.Msg {
		if op == nil {
			return operationCompleteMsg(nil, nil)
		}

		update, ok := <-op.progress
		if !ok {
			return operationCompleteMsg(op.result, op.err)
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderGallery() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.like, m.keys.year, m.keys.kind, m.keys.download, m.keys.sync, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	if len(m.list.Items()) == 0 {
		empty := styles.title.Render(m.galleryTitle()) + "\n" + styles.help.Render("No media yet. Press s to sync.")
		return fmt.Sprintf("%s\n\n%s\n%s", empty, m.status, helpView)
	}
	return fmt.Sprintf("%s\n%s\n%s", m.list.View(), m.status, helpView)
}

func (m *Model) renderDetail() string {
	r := m.selected
	if r == nil {
		return ""
	}

	heart := "♡"
	if m.liked[r.ID] {
		heart = "♥"
	}

	rows := []string{
		styles.title.Render(r.Title),
		detailRow("Kind", kindLabel(r.Kind)),
		detailRow("Year", fmt.Sprint(r.Year)),
		detailRow("Likes", styles.heart.Render(fmt.Sprintf("%s %d", heart, r.LikeCount))),
		detailRow("Uploaded by", r.UploadedBy),
		detailRow("Created", r.CreatedAt),
	}
	if r.Description != "" {
		rows = append(rows, detailRow("Description", r.Description))
	}
	if r.FileSize > 0 {
		rows = append(rows, detailRow("Size", formatter.HumanSize(r.FileSize)))
	}
	rows = append(rows, detailRow("Source", r.SourceURL))
	if r.ThumbnailURL != "" {
		rows = append(rows, detailRow("Thumbnail", r.ThumbnailURL))
	}

	helpKeys := []key.Binding{m.keys.like, m.keys.open, m.keys.download, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", styles.frame.Render(strings.Join(rows, "\n")), m.status, helpView)
}

func detailRow(label, value string) string {
	return styles.label.Render(label) + value
}

func (m *Model) renderConfirm() string {
	what := fmt.Sprintf("%d items", len(m.pending))
	if len(m.pending) == 1 {
		what = fmt.Sprintf("'%s'", m.pending[0].Title)
	}
	title := styles.title.Render(fmt.Sprintf("Download %s?", what))
	info := fmt.Sprintf("\nDirectory: %s\nThumbnails: %t\n", m.download.Dir, m.download.Thumbnails)

	helpKeys := []key.Binding{m.keys.yes, m.keys.no}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderProgress() string {
	var title string
	switch m.progress.Phase {
	case tasks.Syncing:
		title = "Syncing with Cloudinary"
	case tasks.Downloading, tasks.Thumbnailing, tasks.WritingManifest:
		title = "Downloading"
	default:
		title = "Working"
	}

	var pct float64
	if m.progress.Total > 0 {
		pct = float64(m.progress.Step) / float64(m.progress.Total)
	}

	return fmt.Sprintf("%s\n\n%s\n%s", styles.title.Render(title), m.bar.ViewAs(pct), m.progress.Message)
}

func (m *Model) renderResult() string {
	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	if m.err != nil {
		return fmt.Sprintf("%s\n\n%s", styles.err.Render(fmt.Sprintf("Failed: %v", m.err)), helpView)
	}

	switch result := m.result.(type) {
	case models.SyncResult:
		title := styles.ok.Render("✓ Sync Complete!")
		info := fmt.Sprintf("\nFetched: %d\nNew: %d\nTotal: %d", result.Fetched, result.Added, result.Total)
		return fmt.Sprintf("%s\n%s\n\n%s", title, info, helpView)

	case *models.DownloadReport:
		title := styles.ok.Render("✓ Download Complete!")
		info := fmt.Sprintf(
			"\nDirectory: %s\nDownloaded: %d/%d (%s)\nSkipped: %d",
			result.Directory, result.Successful, result.Total, formatter.HumanSize(result.Bytes), result.Skipped,
		)

		var failed string
		if result.Failed > 0 {
			failed = fmt.Sprintf("\n\n%s", styles.warn.Render(fmt.Sprintf("Failed to download %d items:", result.Failed)))
			for _, item := range result.Items {
				if !item.Success && !item.Skipped {
					failed += fmt.Sprintf("\n  • %s (%d): %s", item.Title, item.Year, item.Error)
				}
			}
		}
		return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, failed, helpView)
	}

	return fmt.Sprintf("%s\n\n%s", styles.err.Render("No result available"), helpView)
}
