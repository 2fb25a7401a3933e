package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionManagerRoundTrip(t *testing.T) {
	m := NewSessionManager("secret", time.Hour)
	id := NewSessionID()

	tok, err := m.Issue(id)
	require.NoError(t, err)

	got, err := m.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestSessionManagerRejects(t *testing.T) {
	m := NewSessionManager("secret", time.Hour)
	tok, err := NewSessionManager("other", time.Hour).Issue("abc")
	require.NoError(t, err)

	_, err = m.Verify(tok)
	assert.Error(t, err, "wrong key")

	expired, err := NewSessionManager("secret", -time.Minute).Issue("abc")
	require.NoError(t, err)
	_, err = m.Verify(expired)
	assert.Error(t, err, "expired")

	_, err = m.Verify("not-a-token")
	assert.Error(t, err)
}

func TestNewSessionIDUnique(t *testing.T) {
	assert.NotEqual(t, NewSessionID(), NewSessionID())
}
