// Package gormstore keeps uploaded content in PostgreSQL through GORM.
// It is used instead of the SQLite store when a database URL is configured.
package gormstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pavelanni/examgen/internal/model"
)

// UploadedContent is the table row.
type UploadedContent struct {
	ID        string    `gorm:"primaryKey;type:uuid"`
	UserID    int64     `gorm:"not null;index:idx_uploaded_content_user,priority:1"`
	Content   string    `gorm:"type:text;not null"`
	Title     string    `gorm:"not null"`
	FileName  *string
	CreatedAt time.Time `gorm:"not null;index:idx_uploaded_content_user,priority:2"`
}

func (UploadedContent) TableName() string { return "uploaded_content" }

// Repository implements content.Repository on PostgreSQL.
type Repository struct {
	db *gorm.DB
}

// Open connects to databaseURL and migrates the content table.
// Verbose enables GORM's statement logging.
func Open(databaseURL string, verbose bool) (*Repository, error) {
	logLevel := logger.Error
	if verbose {
		logLevel = logger.Info
	}
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&UploadedContent{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Repository{db: db}, nil
}

// New wraps an existing connection.
func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) InsertContent(ctx context.Context, c model.UploadedContent) (model.UploadedContent, error) {
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now().UTC()
	row := fromModel(c)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return model.UploadedContent{}, fmt.Errorf("insert content: %w", err)
	}
	return c, nil
}

func (r *Repository) ListContent(ctx context.Context, ownerID int64) ([]model.UploadedContent, error) {
	var rows []UploadedContent
	err := r.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list content: %w", err)
	}
	items := make([]model.UploadedContent, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toModel())
	}
	return items, nil
}

func (r *Repository) DeleteContent(ctx context.Context, ownerID int64, id string) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", ownerID, id).
		Delete(&UploadedContent{}).Error
	if err != nil {
		return fmt.Errorf("delete content: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func fromModel(c model.UploadedContent) UploadedContent {
	row := UploadedContent{
		ID:        c.ID,
		UserID:    c.OwnerID,
		Content:   c.Content,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
	}
	if c.FileName != "" {
		name := c.FileName
		row.FileName = &name
	}
	return row
}

func (row UploadedContent) toModel() model.UploadedContent {
	c := model.UploadedContent{
		ID:        row.ID,
		OwnerID:   row.UserID,
		Content:   row.Content,
		Title:     row.Title,
		CreatedAt: row.CreatedAt,
	}
	if row.FileName != nil {
		c.FileName = *row.FileName
	}
	return c
}
