package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrTodoNotFound is returned when no todo has the requested id.
var ErrTodoNotFound = errors.New("todo not found")

// Todo is the persisted todo record.
type Todo struct {
	ID      int64  `json:"id"`
	Content string `json:"content"`
}

// ListTodos returns every todo ordered by id. The result is never nil.
func (s *Session) ListTodos(ctx context.Context) ([]Todo, error) {
	rows, err := s.query(ctx, `SELECT id, content FROM todo ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	defer rows.Close()

	todos := make([]Todo, 0)
	for rows.Next() {
		var todo Todo
		if err := rows.Scan(&todo.ID, &todo.Content); err != nil {
			return nil, fmt.Errorf("failed to scan todo: %w", err)
		}
		todos = append(todos, todo)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate todos: %w", err)
	}

	return todos, nil
}

// CreateTodo inserts a todo and returns it with its storage-assigned id.
func (s *Session) CreateTodo(ctx context.Context, content string) (*Todo, error) {
	todo := &Todo{}
	err := s.queryRow(ctx, `INSERT INTO todo (content) VALUES (?) RETURNING id, content`, content).
		Scan(&todo.ID, &todo.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to create todo: %w", err)
	}
	return todo, nil
}

// GetTodo looks a todo up by id.
func (s *Session) GetTodo(ctx context.Context, id int64) (*Todo, error) {
	todo := &Todo{}
	err := s.queryRow(ctx, `SELECT id, content FROM todo WHERE id = ?`, id).Scan(&todo.ID, &todo.Content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTodoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get todo %d: %w", id, err)
	}
	return todo, nil
}

// DeleteTodo removes the todo with the given id and commits.
// It returns ErrTodoNotFound, leaving storage untouched, when the id does not exist.
func (s *Session) DeleteTodo(ctx context.Context, id int64) error {
	return s.Transaction(ctx, func(tx *sql.Tx) error {
		var found int64
		err := tx.QueryRowContext(ctx, rebind(s.dialect, `SELECT id FROM todo WHERE id = ?`), id).Scan(&found)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTodoNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to look up todo %d: %w", id, err)
		}

		if _, err := tx.ExecContext(ctx, rebind(s.dialect, `DELETE FROM todo WHERE id = ?`), id); err != nil {
			return fmt.Errorf("failed to delete todo %d: %w", id, err)
		}
		return nil
	})
}
