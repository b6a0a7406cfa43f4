package repositories

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/shared"
)

// TodoRepository manages the todo list document. New todos are prepended.
type TodoRepository struct {
	doc *JSONDocument[[]models.Todo]
	now func() time.Time
}

// NewTodoRepository creates a [TodoRepository] over kv.
func NewTodoRepository(kv *KVRepository, logger *log.Logger) *TodoRepository {
	return &TodoRepository{doc: NewJSONDocument[[]models.Todo](kv, TodosKey, logger), now: time.Now}
}

// List returns todos matching filter, newest first.
func (r *TodoRepository) List(filter models.TodoFilter) []models.Todo {
	var out []models.Todo
	for _, t := range r.doc.Load() {
		if filter.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// Add prepends a pending todo with text. Blank text is rejected.
func (r *TodoRepository) Add(text string) (models.Todo, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Todo{}, fmt.Errorf("%w: todo text is empty", shared.ErrInvalidInput)
	}

	todo := models.Todo{ID: shared.GenerateID(), Text: text, CreatedAt: r.now()}
	todos := append([]models.Todo{todo}, r.doc.Load()...)
	return todo, r.doc.Save(todos)
}

// Toggle flips the completed flag of the todo with id.
func (r *TodoRepository) Toggle(id string) (models.Todo, error) {
	todos := r.doc.Load()
	for i := range todos {
		if todos[i].ID == id {
			todos[i].Completed = !todos[i].Completed
			return todos[i], r.doc.Save(todos)
		}
	}
	return models.Todo{}, fmt.Errorf("%w: todo %s", shared.ErrNotFound, id)
}

// Delete removes the todo with id.
func (r *TodoRepository) Delete(id string) error {
	todos := r.doc.Load()
	for i := range todos {
		if todos[i].ID == id {
			return r.doc.Save(append(todos[:i], todos[i+1:]...))
		}
	}
	return fmt.Errorf("%w: todo %s", shared.ErrNotFound, id)
}

// ClearCompleted removes every completed todo and reports how many were removed.
func (r *TodoRepository) ClearCompleted() (int, error) {
	todos := r.doc.Load()
	kept := todos[:0]
	for _, t := range todos {
		if !t.Completed {
			kept = append(kept, t)
		}
	}
	removed := len(todos) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	return removed, r.doc.Save(kept)
}

// NoteRepository manages the notes document. Note ids are the base-36 creation time.
type NoteRepository struct {
	doc *JSONDocument[[]models.Note]
	now func() time.Time
}

// NewNoteRepository creates a [NoteRepository] over kv.
func NewNoteRepository(kv *KVRepository, logger *log.Logger) *NoteRepository {
	return &NoteRepository{doc: NewJSONDocument[[]models.Note](kv, NotesKey, logger), now: time.Now}
}

// List returns notes newest first.
func (r *NoteRepository) List() []models.Note {
	return r.doc.Load()
}

// Add prepends a note with text. Blank text is rejected.
func (r *NoteRepository) Add(text string) (models.Note, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Note{}, fmt.Errorf("%w: note text is empty", shared.ErrInvalidInput)
	}

	now := r.now()
	notes := r.doc.Load()
	id := shared.GenerateTimeID(now)
	for taken(notes, id) {
		now = now.Add(time.Millisecond)
		id = shared.GenerateTimeID(now)
	}

	note := models.Note{ID: id, Text: text, CreatedAt: now}
	return note, r.doc.Save(append([]models.Note{note}, notes...))
}

// Delete removes the note with id.
func (r *NoteRepository) Delete(id string) error {
	notes := r.doc.Load()
	for i := range notes {
		if notes[i].ID == id {
			return r.doc.Save(append(notes[:i], notes[i+1:]...))
		}
	}
	return fmt.Errorf("%w: note %s", shared.ErrNotFound, id)
}

func taken(notes []models.Note, id string) bool {
	for _, n := range notes {
		if n.ID == id {
			return true
		}
	}
	return false
}

// ReviewRepository stores per-movie reviews and the reviewer's remembered username.
type ReviewRepository struct {
	kv  *KVRepository
	doc *JSONDocument[map[string][]models.Review]
	now func() time.Time
}

// NewReviewRepository creates a [ReviewRepository] over kv.
func NewReviewRepository(kv *KVRepository, logger *log.Logger) *ReviewRepository {
	return &ReviewRepository{
		kv:  kv,
		doc: NewJSONDocument[map[string][]models.Review](kv, ReviewsKey, logger),
		now: time.Now,
	}
}

// List returns reviews for movieID, newest first.
func (r *ReviewRepository) List(movieID models.ItemID) []models.Review {
	return r.doc.Load()[movieID.String()]
}

// Add validates review, stamps its id and time, and prepends it to movieID's reviews.
func (r *ReviewRepository) Add(movieID models.ItemID, review models.Review) (models.Review, error) {
	if movieID.IsZero() {
		return models.Review{}, fmt.Errorf("%w: movie id is empty", shared.ErrInvalidInput)
	}
	review.Username = strings.TrimSpace(review.Username)
	review.Comment = strings.TrimSpace(review.Comment)
	if err := review.Validate(); err != nil {
		return models.Review{}, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	review.ID = shared.GenerateID()
	review.CreatedAt = r.now()

	all := r.doc.Load()
	if all == nil {
		all = make(map[string][]models.Review)
	}
	key := movieID.String()
	all[key] = append([]models.Review{review}, all[key]...)
	return review, r.doc.Save(all)
}

// Username returns the last username used for a review, or "".
func (r *ReviewRepository) Username() string {
	name, _, _ := r.kv.Get(UsernameKey)
	return name
}

// SetUsername remembers name for future reviews.
func (r *ReviewRepository) SetUsername(name string) error {
	return r.kv.Set(UsernameKey, strings.TrimSpace(name))
}

// PreferenceRepository stores UI preferences.
type PreferenceRepository struct {
	kv *KVRepository
}

// NewPreferenceRepository creates a [PreferenceRepository] over kv.
func NewPreferenceRepository(kv *KVRepository) *PreferenceRepository {
	return &PreferenceRepository{kv: kv}
}

// Theme returns the stored theme, or fallback when none is stored or storage is unavailable.
func (r *PreferenceRepository) Theme(fallback models.Theme) models.Theme {
	v, ok, err := r.kv.Get(ThemeKey)
	if err != nil || !ok {
		return fallback
	}
	return models.ParseTheme(v)
}

// SetTheme stores theme.
func (r *PreferenceRepository) SetTheme(theme models.Theme) error {
	return r.kv.Set(ThemeKey, string(theme))
}

// ToggleTheme flips the stored theme (starting from fallback) and returns the new value.
func (r *PreferenceRepository) ToggleTheme(fallback models.Theme) (models.Theme, error) {
	next := r.Theme(fallback).Toggle()
	return next, r.SetTheme(next)
}
