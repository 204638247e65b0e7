package models

import (
	"encoding/json"
	"time"
)

// Submission is one subject's survey response. It is written once and never
// updated or deleted.
type Submission struct {
	SubjectID   string
	Email       string
	Answers     json.RawMessage
	SubmittedAt time.Time
}

// SubmitRequest is the POST /submit body.
type SubmitRequest struct {
	Token   string          `json:"token"`
	Answers json.RawMessage `json:"answers"`
}
