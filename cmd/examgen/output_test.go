package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteData(t *testing.T) {
	xlsx := []byte{'P', 'K', 0x03, 0x04, 0x00, 0x7f}
	tests := []struct {
		name    string
		data    []byte
		newline bool
		want    []byte
	}{
		{"text gets newline", []byte(`{"a":1}`), true, []byte("{\"a\":1}\n")},
		{"text already terminated", []byte("hola\n"), true, []byte("hola\n")},
		{"empty text", nil, true, nil},
		{"binary untouched", xlsx, false, xlsx},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, writeData(&buf, tt.data, tt.newline))
			assert.Equal(t, tt.want, buf.Bytes())
		})
	}
}

func TestWriteOutputFileIsExact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exam.json")
	require.NoError(t, writeOutput(path, []byte(`{"a":1}`), true))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(got))
}
