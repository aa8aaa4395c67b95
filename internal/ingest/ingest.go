// Package ingest turns uploaded PDFs and URLs into plain text.
package ingest

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/pavelanni/examgen/internal/model"
)

// Extractor produces study text from a PDF or a web page.
type Extractor interface {
	PDFText(ctx context.Context, fileName string) (string, error)
	URLContent(ctx context.Context, rawURL string) (string, error)
}

// Placeholder returns fixed text naming the source instead of parsing it.
type Placeholder struct{}

func (Placeholder) PDFText(_ context.Context, fileName string) (string, error) {
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return "", fmt.Errorf("%w: missing file name", model.ErrInvalidParameters)
	}
	return fmt.Sprintf("Este es el contenido extraído del PDF %q. En una implementación real, aquí estaría el texto completo del documento PDF.", fileName), nil
}

func (Placeholder) URLContent(_ context.Context, rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	u, err := url.Parse(rawURL)
	if err != nil || rawURL == "" || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: invalid URL %q", model.ErrInvalidParameters, rawURL)
	}
	return fmt.Sprintf("Este es el contenido obtenido de la URL %q. En una implementación real, aquí estaría el contenido completo de la página web.", rawURL), nil
}
