package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContact_Submit(t *testing.T) {
	fb := &fakeBackend{}
	h := NewContactHandler(fb, nil)

	rec := doRequest(t, http.HandlerFunc(h.Submit), http.MethodPost, "/contact", map[string]string{"name": "Asha"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, []string{"email", "subject", "message"}, decodeBody[errorBody](t, rec).Fields)

	body := map[string]string{
		"name":     "Asha",
		"email":    " asha@example.com ",
		"phone":    "9876543210",
		"subject":  "Billing",
		"category": "general",
		"message":  "Question about my invoice",
	}
	rec = doRequest(t, http.HandlerFunc(h.Submit), http.MethodPost, "/contact", body)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, fb.contacts, 1)
	assert.Equal(t, "asha@example.com", fb.contacts[0].Email)

	fb.contactErr = errUnreachable
	rec = doRequest(t, http.HandlerFunc(h.Submit), http.MethodPost, "/contact", body)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
