package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMessageEncodesJSONAndHeaders(t *testing.T) {
	msg, err := toMessage(Event{
		Key:     "aol-bl-a",
		Value:   map[string]int{"hitRank": 2},
		Headers: map[string]string{"run_id": "aol-bl-a"},
	})
	require.NoError(t, err)

	assert.Equal(t, []byte("aol-bl-a"), msg.Key)
	assert.JSONEq(t, `{"hitRank":2}`, string(msg.Value))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "run_id", msg.Headers[0].Key)
}

func TestToMessageRejectsUnencodable(t *testing.T) {
	_, err := toMessage(Event{Key: "k", Value: make(chan int)})
	assert.Error(t, err)
}
