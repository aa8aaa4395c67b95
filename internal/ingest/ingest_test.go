package ingest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/examgen/internal/model"
)

func TestPlaceholderPDF(t *testing.T) {
	text, err := Placeholder{}.PDFText(context.Background(), "tema1.pdf")
	require.NoError(t, err)
	assert.Equal(t, `Este es el contenido extraído del PDF "tema1.pdf". En una implementación real, aquí estaría el texto completo del documento PDF.`, text)

	_, err = Placeholder{}.PDFText(context.Background(), "  ")
	assert.ErrorIs(t, err, model.ErrInvalidParameters)
}

func TestPlaceholderURL(t *testing.T) {
	text, err := Placeholder{}.URLContent(context.Background(), "https://es.wikipedia.org/wiki/Célula")
	require.NoError(t, err)
	assert.Equal(t, `Este es el contenido obtenido de la URL "https://es.wikipedia.org/wiki/Célula". En una implementación real, aquí estaría el contenido completo de la página web.`, text)

	for _, bad := range []string{"", "notaurl", "ftp://example.com/x", "https://"} {
		_, err := Placeholder{}.URLContent(context.Background(), bad)
		assert.ErrorIs(t, err, model.ErrInvalidParameters, bad)
	}
}
