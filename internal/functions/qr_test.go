package functions

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postJSON(t *testing.T, h http.Handler, body map[string]any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestQRHandler(t *testing.T) {
	h := NewQRHandler("qr-secret")

	t.Run("wrong secret", func(t *testing.T) {
		rr := postJSON(t, h, map[string]any{"ticket_code": "abc"},
			map[string]string{"X-QR-Secret": "nope"})
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("unset secret rejects everything", func(t *testing.T) {
		open := NewQRHandler("")
		rr := postJSON(t, open, map[string]any{"ticket_code": "abc"},
			map[string]string{"X-QR-Secret": ""})
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("missing ticket code", func(t *testing.T) {
		rr := postJSON(t, h, map[string]any{"ticket_code": "  "},
			map[string]string{"X-QR-Secret": "qr-secret"})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("returns decodable PNG", func(t *testing.T) {
		rr := postJSON(t, h, map[string]any{"ticket_code": "ticket-123"},
			map[string]string{"X-QR-Secret": "qr-secret"})
		require.Equal(t, http.StatusOK, rr.Code)

		var resp struct {
			TicketCode string `json:"ticket_code"`
			PNGBase64  string `json:"png_base64"`
			DataURL    string `json:"data_url"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "ticket-123", resp.TicketCode)
		assert.True(t, strings.HasPrefix(resp.DataURL, "data:image/png;base64,"))

		png, err := base64.StdEncoding.DecodeString(resp.PNGBase64)
		require.NoError(t, err)
		// PNG magic bytes.
		require.True(t, len(png) > 8)
		assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])
	})
}
