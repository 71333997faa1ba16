package responder

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMock_CannedReplies(t *testing.T) {
	m := NewMock()
	m.AddReply("weather", "Sunny all week.")
	m.AddReply("road", "Take the scenic route.")

	reply, err := m.Generate(context.Background(), "", "what's the weather like?", nil)
	assert.NoError(t, err)
	assert.Equal(t, "Sunny all week.", reply)

	reply, err = m.Generate(context.Background(), "", "which road should we take?", nil)
	assert.NoError(t, err)
	assert.Equal(t, "Take the scenic route.", reply)

	assert.Equal(t, 2, m.Calls())
}

func TestMock_DefaultEcho(t *testing.T) {
	m := NewMock()

	reply, err := m.Generate(context.Background(), "", "hello", nil)
	assert.NoError(t, err)
	assert.Equal(t, "Mock response to: hello", reply)
}

func TestMock_FailWith(t *testing.T) {
	m := NewMock()
	boom := errors.New("boom")
	m.FailWith(boom)

	_, err := m.Generate(context.Background(), "", "hello", nil)
	assert.ErrorIs(t, err, boom)

	m.FailWith(nil)
	_, err = m.Generate(context.Background(), "", "hello", nil)
	assert.NoError(t, err)
}

func TestMock_RespectsContext(t *testing.T) {
	m := NewMock()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Generate(ctx, "", "hello", nil)
	assert.ErrorIs(t, err, context.Canceled)
}
