package db

import (
	"context"
	"database/sql"
	"errors"

	"tasteit/internal/model"
)

type chatRow struct {
	ChatID      int64  `db:"chat_id"`
	Lang        string `db:"lang"`
	WalkRadius  int    `db:"walk_radius"`
	DriveRadius int    `db:"drive_radius"`
}

func (s *Store) getChat(ctx context.Context, chatID int64) (chatRow, bool, error) {
	var row chatRow
	err := s.db.GetContext(ctx, &row, s.rebind(`
		SELECT chat_id, lang, walk_radius, drive_radius
		FROM chat
		WHERE chat_id = ?
	`), chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return chatRow{}, false, nil
	}
	if err != nil {
		return chatRow{}, false, &model.PersistenceError{Op: "get chat", Err: err}
	}
	return row, true, nil
}

// Language returns the chat language. It reports false for an unknown chat.
func (s *Store) Language(ctx context.Context, chatID int64) (string, bool, error) {
	row, ok, err := s.getChat(ctx, chatID)
	return row.Lang, ok, err
}

// CreateChat registers a chat with the default radii. It is a no-op for a
// known chat.
func (s *Store) CreateChat(ctx context.Context, chatID int64, lang string) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO chat (chat_id, lang, walk_radius, drive_radius)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (chat_id) DO NOTHING
	`), chatID, lang, s.walkRadius, s.driveRadius)
	if err != nil {
		return &model.PersistenceError{Op: "create chat", Err: err}
	}
	return nil
}

// SetChatLanguage updates the chat language.
func (s *Store) SetChatLanguage(ctx context.Context, chatID int64, lang string) error {
	return s.updateChat(ctx, "set chat language", `UPDATE chat SET lang = ? WHERE chat_id = ?`, lang, chatID)
}

// WalkRadius returns the walking radius in meters, or the default for an
// unknown chat.
func (s *Store) WalkRadius(ctx context.Context, chatID int64) (int, error) {
	row, ok, err := s.getChat(ctx, chatID)
	if err != nil || !ok {
		return s.walkRadius, err
	}
	return row.WalkRadius, nil
}

// DriveRadius returns the driving radius in meters, or the default for an
// unknown chat.
func (s *Store) DriveRadius(ctx context.Context, chatID int64) (int, error) {
	row, ok, err := s.getChat(ctx, chatID)
	if err != nil || !ok {
		return s.driveRadius, err
	}
	return row.DriveRadius, nil
}

// SetWalkRadius updates the walking radius.
func (s *Store) SetWalkRadius(ctx context.Context, chatID int64, meters int) error {
	return s.updateChat(ctx, "set walk radius", `UPDATE chat SET walk_radius = ? WHERE chat_id = ?`, meters, chatID)
}

// SetDriveRadius updates the driving radius.
func (s *Store) SetDriveRadius(ctx context.Context, chatID int64, meters int) error {
	return s.updateChat(ctx, "set drive radius", `UPDATE chat SET drive_radius = ? WHERE chat_id = ?`, meters, chatID)
}

func (s *Store) updateChat(ctx context.Context, op, query string, value any, chatID int64) error {
	res, err := s.db.ExecContext(ctx, s.rebind(query), value, chatID)
	if err != nil {
		return &model.PersistenceError{Op: op, Err: err}
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &model.PersistenceError{Op: op, Err: model.ErrNotFound}
	}
	return nil
}
