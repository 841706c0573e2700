package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhoneZW(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"Already local", "0771234567", "0771234567"},
		{"International plus", "+263771234567", "0771234567"},
		{"International no plus", "263771234567", "0771234567"},
		{"Spaces and dashes", "+263 77-123 4567", "0771234567"},
		{"Parentheses", "(263) 771234567", "0771234567"},
		{"Leading whitespace", "  0771234567  ", "0771234567"},
		{"Empty", "", ""},
		{"Short non-prefix number left alone", "263", "263"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizePhoneZW(tc.input))
		})
	}
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, http.StatusCreated, map[string]string{"reference": "ABC123"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ABC123", body["reference"])
}

func TestWriteJSONError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSONError(w, "order not found", http.StatusNotFound)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "order not found", body["error"])
}
