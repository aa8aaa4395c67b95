package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pavelanni/examgen/internal/model"
)

// InsertContent stores c with a generated id and creation time.
func (s *Store) InsertContent(ctx context.Context, c model.UploadedContent) (model.UploadedContent, error) {
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now().UTC()

	var fileName sql.NullString
	if c.FileName != "" {
		fileName = sql.NullString{String: c.FileName, Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO uploaded_content (id, user_id, content, title, file_name, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.OwnerID, c.Content, c.Title, fileName, c.CreatedAt,
	)
	if err != nil {
		return model.UploadedContent{}, fmt.Errorf("insert content: %w", err)
	}
	return c, nil
}

// ListContent returns the owner's content, newest first.
func (s *Store) ListContent(ctx context.Context, ownerID int64) ([]model.UploadedContent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, content, title, file_name, created_at
		 FROM uploaded_content WHERE user_id = ?
		 ORDER BY created_at DESC, rowid DESC`, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list content: %w", err)
	}
	defer rows.Close()

	items := []model.UploadedContent{}
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// GetContent returns one of the owner's items, or model.ErrNotFound.
func (s *Store) GetContent(ctx context.Context, ownerID int64, id string) (model.UploadedContent, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, content, title, file_name, created_at
		 FROM uploaded_content WHERE user_id = ? AND id = ?`, ownerID, id,
	)
	c, err := scanContent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.UploadedContent{}, model.ErrNotFound
	}
	return c, err
}

// DeleteContent removes one of the owner's items. Deleting a missing id is not an error.
func (s *Store) DeleteContent(ctx context.Context, ownerID int64, id string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM uploaded_content WHERE user_id = ? AND id = ?`, ownerID, id,
	); err != nil {
		return fmt.Errorf("delete content: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanContent(sc scanner) (model.UploadedContent, error) {
	var c model.UploadedContent
	var fileName sql.NullString
	if err := sc.Scan(&c.ID, &c.OwnerID, &c.Content, &c.Title, &fileName, &c.CreatedAt); err != nil {
		return model.UploadedContent{}, err
	}
	c.FileName = fileName.String
	return c, nil
}
