package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnakeToCamel(t *testing.T) {
	assert.Equal(t, "messageId", SnakeToCamel("message_id"))
	assert.Equal(t, "pushNotificationConfig", SnakeToCamel("push_notification_config"))
	assert.Equal(t, "historyLength", SnakeToCamel("history_length"))
	assert.Equal(t, "messageId", SnakeToCamel("messageId"))
	assert.Equal(t, "kind", SnakeToCamel("kind"))
}

func TestNormalizeJSONKeys(t *testing.T) {
	in := []byte(`{
		"message": {
			"message_id": "m1",
			"role": "user",
			"parts": [{"kind": "text", "text": "hi"}],
			"context_id": "c1"
		},
		"configuration": {"history_length": 3, "blocking": false}
	}`)

	out, err := NormalizeJSONKeys(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"message": {
			"messageId": "m1",
			"role": "user",
			"parts": [{"kind": "text", "text": "hi"}],
			"contextId": "c1"
		},
		"configuration": {"historyLength": 3, "blocking": false}
	}`, string(out))

	// Normalizing twice changes nothing.
	again, err := NormalizeJSONKeys(out)
	require.NoError(t, err)
	assert.JSONEq(t, string(out), string(again))
}
