// package formatter provides functions to export media listings to various formats (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/do-hu-so/GD-Ba-Than/internal/models"
	"github.com/do-hu-so/GD-Ba-Than/internal/shared"
)

// Formats lists the accepted export formats.
var Formats = []string{"csv", "markdown", "txt", "json"}

// ExportToCSV converts records to CSV with columns: ID, Kind, Title, Year, CreatedAt, Likes, SourceURL
func ExportToCSV(records []models.MediaRecord) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Kind", "Title", "Year", "CreatedAt", "Likes", "SourceURL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, m := range records {
		row := []string{
			m.ID,
			string(m.Kind),
			m.Title,
			strconv.Itoa(m.Year),
			m.CreatedAt,
			strconv.Itoa(m.LikeCount),
			m.SourceURL,
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders records grouped by year (newest year first), with thumbnails.
func ExportToMarkdown(records []models.MediaRecord, heading string) ([]byte, error) {
	var buf bytes.Buffer

	if heading == "" {
		heading = "Family Gallery"
	}
	fmt.Fprintf(&buf, "# %s\n\n", heading)
	fmt.Fprintf(&buf, "**Items**: %d (%d photos, %d videos)\n\n", len(records), countKind(records, models.KindImage), countKind(records, models.KindVideo))

	for _, year := range yearsOf(records) {
		fmt.Fprintf(&buf, "## %d\n\n", year)
		for _, m := range records {
			if m.Year != year {
				continue
			}
			thumb := m.ThumbnailURL
			if thumb == "" {
				thumb = m.SourceURL
			}
			fmt.Fprintf(&buf, "- [![%s](%s)](%s) **%s**", escapeMarkdown(m.Title), thumb, m.SourceURL, escapeMarkdown(m.Title))
			if m.Kind == models.KindVideo {
				buf.WriteString(" (video)")
			}
			if m.LikeCount > 0 {
				fmt.Fprintf(&buf, " ♥ %d", m.LikeCount)
			}
			buf.WriteString("\n")
			if m.Description != "" {
				fmt.Fprintf(&buf, "  %s\n", escapeMarkdown(m.Description))
			}
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ExportToText converts records to plain text, one line per record.
func ExportToText(records []models.MediaRecord) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Items: %d\n\n", len(records))
	for i, m := range records {
		fmt.Fprintf(&buf, "%d. [%s] %s (%d) - %s\n", i+1, m.Kind, m.Title, m.Year, m.ID)
	}

	return buf.Bytes(), nil
}

// ExportToJSON encodes records in the persisted record layout.
func ExportToJSON(records []models.MediaRecord) ([]byte, error) {
	if records == nil {
		records = []models.MediaRecord{}
	}
	return shared.MarshalJSON(records, true)
}

// Export renders records in format.
func Export(records []models.MediaRecord, format string) ([]byte, error) {
	switch format {
	case "csv":
		return ExportToCSV(records)
	case "markdown", "md":
		return ExportToMarkdown(records, "")
	case "txt", "text":
		return ExportToText(records)
	case "json":
		return ExportToJSON(records)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q (use %s)", shared.ErrInvalidArgument, format, strings.Join(Formats, ", "))
	}
}

// WriteExport renders records in format and writes them to path, creating parent directories.
func WriteExport(records []models.MediaRecord, format, path string) error {
	data, err := Export(records, format)
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

// WriteDownloadManifest writes report as JSON to path.
func WriteDownloadManifest(report *models.DownloadReport, path string) error {
	data, err := shared.MarshalJSON(report, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	return writeFile(path, data)
}

// HumanSize formats a byte count as B, KB, MB or GB.
func HumanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit && exp < 2; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMG"[exp])
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

func yearsOf(records []models.MediaRecord) []int {
	seen := make(map[int]bool)
	var years []int
	for _, m := range records {
		if !seen[m.Year] {
			seen[m.Year] = true
			years = append(years, m.Year)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}

func countKind(records []models.MediaRecord, kind models.Kind) int {
	n := 0
	for _, m := range records {
		if m.Kind == kind {
			n++
		}
	}
	return n
}

var markdownEscaper = strings.NewReplacer(`[`, `\[`, `]`, `\]`, `*`, `\*`, `_`, `\_`)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
