package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddKeepsOrder(t *testing.T) {
	s, err := New(nil)
	require.NoError(t, err)

	assert.True(t, s.Add(Command{Kind: KindStart}))
	assert.True(t, s.Add(Command{Kind: KindMessage, Text: "Greetings"}))

	assert.Equal(t, Command{Kind: KindStart}, <-s.Channel())
	assert.Equal(t, Command{Kind: KindMessage, Text: "Greetings"}, <-s.Channel())
}

func TestAddDropsWhenFull(t *testing.T) {
	s, err := New(nil)
	require.NoError(t, err)

	for range bufferSize {
		require.True(t, s.Add(Command{Kind: KindMessage}))
	}

	assert.False(t, s.Add(Command{Kind: KindClose}))
}

func TestAddAfterShutdown(t *testing.T) {
	s, err := New(nil)
	require.NoError(t, err)
	require.NoError(t, s.Shutdown())

	assert.False(t, s.Add(Command{Kind: KindClose}))

	_, ok := <-s.Channel()
	assert.False(t, ok)
}
