package httpserver

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFoundMeta(t *testing.T) {
	meta := notFoundMeta("https://example.com/missing")
	assert.Equal(t, "Không tìm thấy", meta.Title)
	assert.Equal(t, "https://example.com/missing", meta.URL)
	assert.Equal(t, "website", meta.Type)
}

func TestErrorMeta(t *testing.T) {
	meta := errorMeta("https://example.com/oops")
	assert.NotEmpty(t, meta.Title)
	assert.Equal(t, "website", meta.Type)
}

func TestWriteMinimalError(t *testing.T) {
	rec := httptest.NewRecorder()
	writeMinimalError(rec, 400, "Invalid link")
	assert.Equal(t, 400, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid link")
}
