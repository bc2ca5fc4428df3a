package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf_WrappedChain(t *testing.T) {
	base := Application("set_trust", "unknown actor")
	wrapped := fmt.Errorf("refresh cluster: %w", base)

	assert.Equal(t, KindApplication, KindOf(wrapped))
	assert.True(t, Is(wrapped, KindApplication))
	assert.False(t, Is(wrapped, KindTransport))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.False(t, Is(nil, KindUnknown))
}

func TestError_Messages(t *testing.T) {
	cause := errors.New("connection refused")

	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"validation", Validation("Receiver", "^[A-Z9]{81}$"), "Receiver: value does not match expected pattern ^[A-Z9]{81}$"},
		{"transport", Transport("get_actors", cause), "get_actors: node unreachable or sent a malformed response: connection refused"},
		{"application", Application("delete_actor", "no such actor"), "delete_actor: no such actor"},
		{"application empty", Application("delete_actor", ""), "delete_actor: request failed without an error message"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestTransport_Unwrap(t *testing.T) {
	cause := errors.New("timeout")
	err := Transport("get_cluster", cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "transport", err.Kind.String())
}
