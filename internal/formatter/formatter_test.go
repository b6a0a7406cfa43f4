package formatter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/shared"
	th "github.com/desertthunder/reelx/internal/testing"
)

func sampleFavorites() models.FavoritesList {
	return models.FavoritesList{
		{
			ID:          "550",
			Title:       "Fight Club",
			ReleaseDate: "1999-10-15",
			Rating:      8.4,
			PosterPath:  "/fc.jpg",
			Overview:    "An insomniac office worker crosses paths with a soap maker.",
			Runtime:     139,
			Genres:      []string{"Drama", "Thriller"},
		},
		{ID: "13"},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"", FormatCSV},
		{"CSV", FormatCSV},
		{"md", FormatMarkdown},
		{"markdown", FormatMarkdown},
		{"text", FormatText},
		{"txt", FormatText},
		{" json ", FormatJSON},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if err != nil {
				t.Fatalf("ParseFormat(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}

	if _, err := ParseFormat("xml"); !errors.Is(err, shared.ErrInvalidFlag) {
		t.Errorf("ParseFormat(xml) error = %v, want ErrInvalidFlag", err)
	}
	if FormatMarkdown.Extension() != "md" || FormatText.Extension() != "txt" {
		t.Error("unexpected extensions")
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(sampleFavorites())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 3 {
			t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
		}
		if lines[0] != "ID,Title,Year,Rating,Runtime,Genres,Poster" {
			t.Errorf("CSV headers = %s", lines[0])
		}
		if lines[1] != "550,Fight Club,1999,8.4,139,Drama; Thriller,/fc.jpg" {
			t.Errorf("CSV row = %s", lines[1])
		}
		if lines[2] != "13,Untitled,,,,," {
			t.Errorf("CSV row with missing fields = %s", lines[2])
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		t.Run("without posters", func(t *testing.T) {
			data, err := ExportToMarkdown(sampleFavorites(), nil)
			if err != nil {
				t.Fatalf("ExportToMarkdown failed: %v", err)
			}

			output := string(data)
			for _, want := range []string{
				"# Favorite Movies",
				"**Movies**: 2",
				"## 1. Fight Club (1999)",
				"**Runtime**: 139 mins",
				"**Genres**: Drama, Thriller",
				"## 2. Untitled (—)",
				"No overview available for this movie.",
			} {
				if !strings.Contains(output, want) {
					t.Errorf("Markdown missing %q", want)
				}
			}
			if strings.Contains(output, "![") {
				t.Error("Markdown should not reference posters")
			}
		})

		t.Run("with posters", func(t *testing.T) {
			data, err := ExportToMarkdown(sampleFavorites(), map[models.ItemID]string{"550": "posters/550.jpg"})
			if err != nil {
				t.Fatalf("ExportToMarkdown failed: %v", err)
			}
			if !strings.Contains(string(data), "![Fight Club](posters/550.jpg)") {
				t.Error("Markdown missing poster reference")
			}
		})
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(sampleFavorites())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		if !strings.HasPrefix(output, "Favorites: 2\n") {
			t.Errorf("Text missing count, got: %s", output)
		}
		if !strings.Contains(output, "1. Fight Club (1999) ★ 8.4") {
			t.Errorf("Text missing first movie, got: %s", output)
		}
		if !strings.Contains(output, "2. Untitled (—) ★ —") {
			t.Errorf("Text missing fallback movie, got: %s", output)
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(sampleFavorites())
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		var decoded models.FavoritesList
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(decoded) != 2 || decoded[0].Title != "Fight Club" || decoded[1].ID != "13" {
			t.Errorf("decoded = %+v", decoded)
		}

		empty, err := ExportToJSON(nil)
		if err != nil {
			t.Fatalf("ExportToJSON(nil) failed: %v", err)
		}
		if string(empty) != "[]" {
			t.Errorf("empty list JSON = %s, want []", empty)
		}
	})

	t.Run("Export rejects unknown format", func(t *testing.T) {
		if _, err := Export(nil, Format("xml")); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("error = %v, want ErrInvalidFlag", err)
		}
	})
}

func TestDownloadImage(t *testing.T) {
	t.Run("EmptyURL", func(t *testing.T) {
		if _, err := DownloadImage(context.Background(), ""); err == nil {
			t.Error("expected error for empty URL")
		}
	})

	t.Run("Success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("jpeg-bytes"))
		}))
		defer srv.Close()

		data, err := DownloadImage(context.Background(), srv.URL+"/w500/fc.jpg")
		if err != nil {
			t.Fatalf("DownloadImage failed: %v", err)
		}
		if string(data) != "jpeg-bytes" {
			t.Errorf("data = %q", data)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()

		if _, err := DownloadImage(context.Background(), srv.URL); err == nil || !strings.Contains(err.Error(), "status 404") {
			t.Errorf("error = %v, want status 404", err)
		}
	})
}

func TestWriters(t *testing.T) {
	t.Run("WriteExport", func(t *testing.T) {
		dir := t.TempDir()

		for _, f := range []Format{FormatCSV, FormatMarkdown, FormatText, FormatJSON} {
			t.Run(string(f), func(t *testing.T) {
				path := filepath.Join(dir, "nested", "favorites."+f.Extension())
				got, err := WriteExport(sampleFavorites(), f, path)
				if err != nil {
					t.Fatalf("WriteExport failed: %v", err)
				}
				if got != path {
					t.Errorf("path = %s, want %s", got, path)
				}
				th.AssertFileExists(t, path)
				if content := th.MustReadFile(t, path); !strings.Contains(content, "Fight Club") {
					t.Errorf("%s export missing title", f)
				}
			})
		}
	})

	t.Run("WriteMarkdownExport", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.URL.Path, "/missing.jpg") {
				http.NotFound(w, r)
				return
			}
			w.Write([]byte("img"))
		}))
		defer srv.Close()

		list := sampleFavorites()
		list = append(list, models.Movie{ID: "99", Title: "Broken", PosterPath: "/missing.jpg"})

		dir := filepath.Join(t.TempDir(), "out")
		result, err := WriteMarkdownExport(context.Background(), list, dir, func(m models.Movie) string {
			return m.PosterURL(srv.URL, "original")
		})
		if err != nil {
			t.Fatalf("WriteMarkdownExport failed: %v", err)
		}

		if result.Posters != 1 {
			t.Errorf("Posters = %d, want 1", result.Posters)
		}
		if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0], "Broken") {
			t.Errorf("Warnings = %v", result.Warnings)
		}
		th.AssertFileExists(t, filepath.Join(dir, "posters", "550.jpg"))

		readme := th.MustReadFile(t, filepath.Join(dir, "README.md"))
		if !strings.Contains(readme, "![Fight Club](posters/550.jpg)") {
			t.Error("README missing downloaded poster")
		}
		if strings.Contains(readme, "posters/99.jpg") {
			t.Error("README should not reference failed poster")
		}
	})

	t.Run("WriteMarkdownExport without posters", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "plain")
		result, err := WriteMarkdownExport(context.Background(), sampleFavorites(), dir, nil)
		if err != nil {
			t.Fatalf("WriteMarkdownExport failed: %v", err)
		}
		if result.Posters != 0 || len(result.Files) != 1 {
			t.Errorf("result = %+v", result)
		}
	})
}
