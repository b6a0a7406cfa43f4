// package formatter provides functions to export the favorites list to various formats (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/shared"
)

// Format is an export format.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "txt"
	FormatJSON     Format = "json"
)

// ParseFormat accepts a format name or common alias ("md", "text").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown export format %q (csv, markdown, txt, json)", shared.ErrInvalidFlag, s)
	}
}

// Extension returns the file extension for f, without the dot.
func (f Format) Extension() string {
	if f == FormatMarkdown {
		return "md"
	}
	return string(f)
}

// ExportToCSV converts favorites to CSV format with columns: ID, Title, Year, Rating, Runtime, Genres, Poster
func ExportToCSV(list models.FavoritesList) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Year", "Rating", "Runtime", "Genres", "Poster"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, m := range list {
		runtime := ""
		if m.Runtime > 0 {
			runtime = fmt.Sprintf("%d", m.Runtime)
		}
		rating := ""
		if m.Rating > 0 {
			rating = fmt.Sprintf("%.1f", m.Rating)
		}
		record := []string{
			m.ID.String(),
			m.DisplayTitle(),
			strings.TrimPrefix(m.DisplayYear(), "—"),
			rating,
			runtime,
			strings.Join(m.Genres, "; "),
			m.PosterPath,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts favorites to Markdown. posters maps movie ids to local image filenames and may be nil.
func ExportToMarkdown(list models.FavoritesList, posters map[models.ItemID]string) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Favorite Movies\n\n")
	buf.WriteString(fmt.Sprintf("**Movies**: %d\n\n", len(list)))

	for i, m := range list {
		buf.WriteString(fmt.Sprintf("## %d. %s (%s)\n\n", i+1, m.DisplayTitle(), m.DisplayYear()))

		if file, ok := posters[m.ID]; ok && file != "" {
			buf.WriteString(fmt.Sprintf("![%s](%s)\n\n", m.DisplayTitle(), file))
		}

		buf.WriteString(fmt.Sprintf("**Rating**: %s\n", m.DisplayRating()))
		if m.Runtime > 0 {
			buf.WriteString(fmt.Sprintf("**Runtime**: %s\n", m.DisplayRuntime()))
		}
		if len(m.Genres) > 0 {
			buf.WriteString(fmt.Sprintf("**Genres**: %s\n", m.DisplayGenres()))
		}
		buf.WriteString("\n")
		buf.WriteString(m.DisplayOverview())
		buf.WriteString("\n\n")
	}

	return buf.Bytes(), nil
}

// ExportToText converts favorites to plain text format
func ExportToText(list models.FavoritesList) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Favorites: %d\n\n", len(list)))
	for i, m := range list {
		buf.WriteString(fmt.Sprintf("%d. %s (%s) ★ %s\n", i+1, m.DisplayTitle(), m.DisplayYear(), m.DisplayRating()))
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts favorites to an indented JSON array. An empty list encodes as [].
func ExportToJSON(list models.FavoritesList) ([]byte, error) {
	return shared.MarshalJSON(list.Clone(), true)
}

// Export renders list in format f.
func Export(list models.FavoritesList, f Format) ([]byte, error) {
	switch f {
	case FormatCSV:
		return ExportToCSV(list)
	case FormatMarkdown:
		return ExportToMarkdown(list, nil)
	case FormatText:
		return ExportToText(list)
	case FormatJSON:
		return ExportToJSON(list)
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidFlag, f)
	}
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// WriteExport writes list in format f.
//
// Defaults to favorites.{ext} as the filename.
func WriteExport(list models.FavoritesList, f Format, path string) (string, error) {
	if path == "" {
		path = "favorites." + f.Extension()
	}

	data, err := Export(list, f)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", f, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", f, err)
	}

	return path, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory string
	Files     []string
	Posters   int
	Warnings  []string
}

// WriteMarkdownExport exports favorites to Markdown in a dedicated directory.
//
// Directory name defaults to "favorites". When posterURL is non-nil, each movie's poster is downloaded into
// {dir}/posters/{id}.jpg and referenced from the document; a failed download only adds a warning.
// Creates a directory structure: {dir}/README.md and optionally {dir}/posters/
func WriteMarkdownExport(ctx context.Context, list models.FavoritesList, outputDir string, posterURL func(models.Movie) string) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = "favorites"
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{
		Directory: outputDir,
		Files:     []string{},
	}

	posters := make(map[models.ItemID]string)
	if posterURL != nil {
		posterDir := filepath.Join(outputDir, "posters")
		for _, m := range list {
			url := posterURL(m)
			if url == "" {
				continue
			}
			if err := os.MkdirAll(posterDir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create poster directory: %w", err)
			}

			data, err := DownloadImage(ctx, url)
			if err != nil {
				result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %v", m.DisplayTitle(), err))
				continue
			}

			name := m.ID.String() + ".jpg"
			path := filepath.Join(posterDir, name)
			if err := os.WriteFile(path, data, 0644); err != nil {
				result.Warnings = append(result.Warnings, fmt.Sprintf("%s: failed to save poster: %v", m.DisplayTitle(), err))
				continue
			}

			posters[m.ID] = "posters/" + name
			result.Files = append(result.Files, path)
			result.Posters++
		}
	}

	mdData, err := ExportToMarkdown(list, posters)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)

	return result, nil
}
