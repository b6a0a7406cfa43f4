package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/shared"
	"github.com/urfave/cli/v3"
)

// ReviewsList prints the reviews stored for a movie.
func (r *Runner) ReviewsList(ctx context.Context, cmd *cli.Command) error {
	id, err := models.ParseItemID(cmd.StringArg("id"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrMissingArgument, err)
	}
	if _, err := r.store(); err != nil {
		return err
	}

	reviews := r.reviews.List(id)
	if cmd.Bool("json") {
		if reviews == nil {
			reviews = []models.Review{}
		}
		return r.writeJSON(reviews, true)
	}

	if len(reviews) == 0 {
		return r.writePlain("No reviews for %s yet.\n", id)
	}

	r.writePlainHeader(fmt.Sprintf("Reviews for %s (average %.1f/10)", id, models.AverageRating(reviews)))
	for _, rv := range reviews {
		r.writePlain("%d/10 %s (%s)\n  %s\n", rv.Rating, rv.Username, rv.CreatedAt.Format("2006-01-02"), rv.Comment)
	}
	return nil
}

// ReviewsAdd stores a review. The username flag is remembered for later reviews.
func (r *Runner) ReviewsAdd(ctx context.Context, cmd *cli.Command) error {
	id, err := models.ParseItemID(cmd.StringArg("id"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrMissingArgument, err)
	}
	if _, err := r.store(); err != nil {
		return err
	}

	username := strings.TrimSpace(cmd.String("username"))
	if username == "" {
		username = r.reviews.Username()
	}
	if username == "" {
		return fmt.Errorf("%w: --username (remembered after the first review)", shared.ErrMissingArgument)
	}

	review, err := r.reviews.Add(id, models.Review{
		Username: username,
		Rating:   cmd.Int("rating"),
		Comment:  cmd.StringArg("comment"),
	})
	if err != nil {
		return err
	}
	if err := r.reviews.SetUsername(username); err != nil {
		r.logger.Warn("failed to remember username", "err", err)
	}

	return r.writePlain("✓ Reviewed %s: %d/10 by %s\n", id, review.Rating, review.Username)
}

// TodosList prints todos matching --filter.
func (r *Runner) TodosList(ctx context.Context, cmd *cli.Command) error {
	filter, err := models.ParseTodoFilter(cmd.String("filter"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}
	if _, err := r.store(); err != nil {
		return err
	}

	todos := r.todos.List(filter)
	if cmd.Bool("json") {
		if todos == nil {
			todos = []models.Todo{}
		}
		return r.writeJSON(todos, true)
	}

	if len(todos) == 0 {
		return r.writePlain("Nothing to do.\n")
	}
	for _, t := range todos {
		mark := "[ ]"
		if t.Completed {
			mark = "[x]"
		}
		r.writePlain("%s %s  %s\n", mark, t.ID, t.Text)
	}
	return nil
}

// TodosAdd appends a todo.
func (r *Runner) TodosAdd(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.store(); err != nil {
		return err
	}
	todo, err := r.todos.Add(cmd.StringArg("text"))
	if err != nil {
		return err
	}
	return r.writePlain("✓ Added %s: %s\n", todo.ID, todo.Text)
}

// TodosToggle flips a todo's completed flag.
func (r *Runner) TodosToggle(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.store(); err != nil {
		return err
	}
	todo, err := r.todos.Toggle(cmd.StringArg("id"))
	if err != nil {
		return err
	}
	state := "pending"
	if todo.Completed {
		state = "completed"
	}
	return r.writePlain("✓ %s marked %s\n", todo.Text, state)
}

// TodosDelete removes a todo.
func (r *Runner) TodosDelete(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.store(); err != nil {
		return err
	}
	id := cmd.StringArg("id")
	if err := r.todos.Delete(id); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted %s\n", id)
}

// TodosClear removes every completed todo.
func (r *Runner) TodosClear(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.store(); err != nil {
		return err
	}
	n, err := r.todos.ClearCompleted()
	if err != nil {
		return err
	}
	return r.writePlain("✓ Cleared %d completed todos\n", n)
}

// NotesList prints every note.
func (r *Runner) NotesList(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.store(); err != nil {
		return err
	}

	notes := r.notes.List()
	if cmd.Bool("json") {
		if notes == nil {
			notes = []models.Note{}
		}
		return r.writeJSON(notes, true)
	}

	if len(notes) == 0 {
		return r.writePlain("No notes.\n")
	}
	for _, n := range notes {
		r.writePlain("%s  %s\n", n.ID, n.Text)
	}
	return nil
}

// NotesAdd stores a note.
func (r *Runner) NotesAdd(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.store(); err != nil {
		return err
	}
	note, err := r.notes.Add(cmd.StringArg("text"))
	if err != nil {
		return err
	}
	return r.writePlain("✓ Added note %s\n", note.ID)
}

// NotesDelete removes a note.
func (r *Runner) NotesDelete(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.store(); err != nil {
		return err
	}
	id := cmd.StringArg("id")
	if err := r.notes.Delete(id); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted note %s\n", id)
}
