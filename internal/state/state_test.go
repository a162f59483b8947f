package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidSessionTransition(t *testing.T) {
	assert.True(t, IsValidSessionTransition(SessionIdle, SessionSignupOpen))
	assert.True(t, IsValidSessionTransition(SessionSignupOpen, SessionLocked))
	assert.True(t, IsValidSessionTransition(SessionLocked, SessionSignupOpen))
	assert.True(t, IsValidSessionTransition(SessionLocked, SessionSettled))
	assert.True(t, IsValidSessionTransition(SessionSignupOpen, SessionSettled))

	// settled is terminal
	for _, to := range AllSessionStates {
		assert.False(t, IsValidSessionTransition(SessionSettled, to))
	}

	assert.False(t, IsValidSessionTransition(SessionIdle, SessionLocked))
	assert.False(t, IsValidSessionTransition(SessionIdle, SessionSettled))
}
