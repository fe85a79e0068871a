package db

import (
	"context"
	"fmt"
	"strings"

	"tasteit/internal/model"
)

type listRow struct {
	ID       int64  `db:"list_id"`
	Category string `db:"category"`
}

// ListCategories returns the chat's favorite lists, oldest first. The
// restaurants of each list are not loaded.
func (s *Store) ListCategories(ctx context.Context, chatID int64) ([]model.FavoriteList, error) {
	var rows []listRow
	err := s.db.SelectContext(ctx, &rows, s.rebind(`
		SELECT list_id, category
		FROM favorite_list
		WHERE chat_id = ?
		ORDER BY list_id
	`), chatID)
	if err != nil {
		return nil, &model.PersistenceError{Op: "list categories", Err: err}
	}

	lists := make([]model.FavoriteList, 0, len(rows))
	for _, r := range rows {
		lists = append(lists, model.FavoriteList{ID: r.ID, Category: r.Category})
	}
	return lists, nil
}

// CreateList creates a named list for the chat and returns its id.
func (s *Store) CreateList(ctx context.Context, chatID int64, category string) (int64, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return 0, &model.PersistenceError{Op: "create list", Err: fmt.Errorf("empty category")}
	}

	var id int64
	err := s.db.QueryRowxContext(ctx, s.rebind(`
		INSERT INTO favorite_list (category, chat_id)
		VALUES (?, ?)
		RETURNING list_id
	`), category, chatID).Scan(&id)
	if err != nil {
		return 0, &model.PersistenceError{Op: "create list", Err: err}
	}
	return id, nil
}

// LinkRestaurantToList adds a saved restaurant to a list. Linking twice is a no-op.
func (s *Store) LinkRestaurantToList(ctx context.Context, listID int64, restaurantID string) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO restaurant_for_list (list_id, restaurant_id)
		VALUES (?, ?)
		ON CONFLICT (list_id, restaurant_id) DO NOTHING
	`), listID, restaurantID)
	if err != nil {
		return &model.PersistenceError{Op: "link restaurant", Err: err}
	}
	return nil
}

// UnlinkRestaurantFromList removes a restaurant from a list.
func (s *Store) UnlinkRestaurantFromList(ctx context.Context, listID int64, restaurantID string) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		DELETE FROM restaurant_for_list
		WHERE list_id = ? AND restaurant_id = ?
	`), listID, restaurantID)
	if err != nil {
		return &model.PersistenceError{Op: "unlink restaurant", Err: err}
	}
	return nil
}

// DeleteList removes every restaurant link of a list, then the list itself.
func (s *Store) DeleteList(ctx context.Context, listID int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return &model.PersistenceError{Op: "delete list", Err: fmt.Errorf("failed to begin transaction: %w", err)}
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM restaurant_for_list WHERE list_id = ?`), listID); err != nil {
		return &model.PersistenceError{Op: "delete list", Err: fmt.Errorf("failed to delete list links: %w", err)}
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM favorite_list WHERE list_id = ?`), listID); err != nil {
		return &model.PersistenceError{Op: "delete list", Err: fmt.Errorf("failed to delete list: %w", err)}
	}
	if err := tx.Commit(); err != nil {
		return &model.PersistenceError{Op: "delete list", Err: fmt.Errorf("failed to commit: %w", err)}
	}
	return nil
}
