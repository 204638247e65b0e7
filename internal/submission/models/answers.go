package models

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/tidwall/gjson"
)

var (
	ErrAnswersMissing   = errors.New("answers are required")
	ErrAnswersNotObject = errors.New("answers must be a JSON object")
)

// NormalizeAnswers checks that raw is a JSON object and returns it compacted.
// The object's fields are not inspected: the survey schema is free-form.
func NormalizeAnswers(raw json.RawMessage) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, ErrAnswersMissing
	}
	if !gjson.ValidBytes(trimmed) || !gjson.ParseBytes(trimmed).IsObject() {
		return nil, ErrAnswersNotObject
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return nil, ErrAnswersNotObject
	}
	return buf.Bytes(), nil
}
