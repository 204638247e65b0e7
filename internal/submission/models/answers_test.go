package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAnswers(t *testing.T) {
	t.Run("compacts objects", func(t *testing.T) {
		got, err := NormalizeAnswers(json.RawMessage(" {\"q1\" : \"yes\",\n \"q2\": [1, 2]} "))
		require.NoError(t, err)
		assert.JSONEq(t, `{"q1":"yes","q2":[1,2]}`, string(got))
		assert.Equal(t, `{"q1":"yes","q2":[1,2]}`, string(got))
	})

	t.Run("empty object is allowed", func(t *testing.T) {
		got, err := NormalizeAnswers(json.RawMessage(`{}`))
		require.NoError(t, err)
		assert.Equal(t, `{}`, string(got))
	})

	t.Run("missing answers", func(t *testing.T) {
		for _, raw := range []string{"", "   ", "null"} {
			_, err := NormalizeAnswers(json.RawMessage(raw))
			assert.ErrorIs(t, err, ErrAnswersMissing, "input %q", raw)
		}
	})

	t.Run("non-object answers", func(t *testing.T) {
		for _, raw := range []string{`[1,2]`, `"yes"`, `42`, `{"q1":`} {
			_, err := NormalizeAnswers(json.RawMessage(raw))
			assert.ErrorIs(t, err, ErrAnswersNotObject, "input %q", raw)
		}
	})
}
