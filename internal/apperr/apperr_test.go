package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindMatching(t *testing.T) {
	t.Run("sentinel matches by kind", func(t *testing.T) {
		err := Validation("auth.request_otp", "mobile number must be at least %d characters", 10)
		assert.ErrorIs(t, err, ErrValidation)
		assert.NotErrorIs(t, err, ErrServer)
	})

	t.Run("wrapped errors still match", func(t *testing.T) {
		err := fmt.Errorf("login: %w", Busy("auth.verify_otp"))
		assert.ErrorIs(t, err, ErrBusy)
		assert.Equal(t, KindBusy, KindOf(err))
	})

	t.Run("network keeps cause", func(t *testing.T) {
		cause := errors.New("dial tcp: connection refused")
		err := Network("client.search", cause)
		assert.ErrorIs(t, err, ErrNetwork)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("unclassified", func(t *testing.T) {
		assert.Equal(t, Kind(0), KindOf(errors.New("plain")))
	})
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "Invalid OTP", Message(Server("client.validate_otp", 401, "Invalid OTP")))
	assert.Equal(t, NetworkMessage, Message(Network("client.generate_otp", errors.New("eof"))))
	assert.Equal(t, "plain", Message(errors.New("plain")))
	assert.Equal(t, "", Message(nil))
}

func TestErrorString(t *testing.T) {
	err := Server("client.save_document", 500, "Failed to upload document")
	assert.Equal(t, "client.save_document: Failed to upload document", err.Error())
	assert.Equal(t, 500, err.Status)
}
