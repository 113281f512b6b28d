package mealsync

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListener_DialURLCarriesSessionID(t *testing.T) {
	form := NewForm(newFakeBackend(openMealSnapshot()), openMealSnapshot())
	listener := NewListener(form, "ws://localhost:8080/ws/meals/42", "token")

	endpoint, err := listener.dialURL()
	require.NoError(t, err)

	parsed, err := url.Parse(endpoint)
	require.NoError(t, err)
	assert.Equal(t, form.SessionID(), parsed.Query().Get("session_id"))
	assert.Equal(t, "/ws/meals/42", parsed.Path)
}

func TestListener_DialURLPreservesExistingQuery(t *testing.T) {
	form := NewForm(newFakeBackend(openMealSnapshot()), openMealSnapshot())
	listener := NewListener(form, "ws://localhost:8080/ws/meals/42?debug=1", "token")

	endpoint, err := listener.dialURL()
	require.NoError(t, err)

	parsed, err := url.Parse(endpoint)
	require.NoError(t, err)
	assert.Equal(t, "1", parsed.Query().Get("debug"))
	assert.Equal(t, form.SessionID(), parsed.Query().Get("session_id"))
}
