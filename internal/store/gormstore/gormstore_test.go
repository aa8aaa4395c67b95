package gormstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pavelanni/examgen/internal/model"
)

func TestRowMapping(t *testing.T) {
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		in   model.UploadedContent
	}{
		{
			name: "with file name",
			in:   model.UploadedContent{ID: "a", OwnerID: 4, Title: "Tema", Content: "texto", FileName: "tema.pdf", CreatedAt: created},
		},
		{
			name: "pasted text",
			in:   model.UploadedContent{ID: "b", OwnerID: 4, Title: "Tema", Content: "texto", CreatedAt: created},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := fromModel(tt.in)
			assert.Equal(t, tt.in.OwnerID, row.UserID)
			assert.Equal(t, tt.in.FileName == "", row.FileName == nil)
			assert.Equal(t, tt.in, row.toModel())
		})
	}
}

func TestTableName(t *testing.T) {
	assert.Equal(t, "uploaded_content", UploadedContent{}.TableName())
}
