package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFlattenAnswers(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   []field
		wantOK bool
	}{
		{
			name:   "scalar values keep document order",
			raw:    `{"q2":"b","q1":3.50,"q3":true,"q4":null}`,
			want:   []field{{"q2", "b"}, {"q1", "3.50"}, {"q3", "true"}, {"q4", ""}},
			wantOK: true,
		},
		{
			name:   "nested values render as compact JSON",
			raw:    `{"tags": [ "a", "b" ], "meta": { "k" : 1 }}`,
			want:   []field{{"tags", `["a","b"]`}, {"meta", `{"k":1}`}},
			wantOK: true,
		},
		{
			name:   "repeated key keeps first position and last value",
			raw:    `{"q1":"first","q2":"x","q1":"second"}`,
			want:   []field{{"q1", "second"}, {"q2", "x"}},
			wantOK: true,
		},
		{name: "empty object", raw: `{}`, want: nil, wantOK: true},
		{name: "not json", raw: `{not json`, wantOK: false},
		{name: "array", raw: `["yes"]`, wantOK: false},
		{name: "string", raw: `"yes"`, wantOK: false},
		{name: "empty", raw: ``, wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := flattenAnswers([]byte(tt.raw))
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildDocument(t *testing.T) {
	at := time.Date(2024, 5, 1, 9, 30, 0, 0, time.FixedZone("KST", 9*3600))

	t.Run("header is the union in first-seen order", func(t *testing.T) {
		doc := buildDocument([]flatRow{
			{email: "a@y.com", submittedAt: at, fields: []field{{"q1", "1"}, {"q2", "2"}}},
			{email: "b@y.com", submittedAt: at, fields: []field{{"q3", "3"}, {"q1", "4"}}},
		})
		assert.Equal(t, []string{"email", "submittedAt", "q1", "q2", "q3"}, doc.Header)
		assert.Equal(t, [][]string{
			{"a@y.com", "2024-05-01T00:30:00.000Z", "1", "2", ""},
			{"b@y.com", "2024-05-01T00:30:00.000Z", "4", "", "3"},
		}, doc.Rows)
	})

	t.Run("reserved columns are never overridden", func(t *testing.T) {
		doc := buildDocument([]flatRow{
			{email: "a@y.com", submittedAt: at, fields: []field{{"email", "spoof"}, {"submittedAt", "never"}, {"q1", "ok"}}},
		})
		assert.Equal(t, []string{"email", "submittedAt", "q1"}, doc.Header)
		assert.Equal(t, []string{"a@y.com", "2024-05-01T00:30:00.000Z", "ok"}, doc.Rows[0])
	})

	t.Run("answers named like reserved columns in a later row are dropped", func(t *testing.T) {
		spoofed, ok := flattenAnswers([]byte(`{"email":"spoof@evil.com","q1":"x","submittedAt":"1999-01-01"}`))
		assert.True(t, ok)

		doc := buildDocument([]flatRow{
			{email: "a@y.com", submittedAt: at, fields: []field{{"q1", "first"}}},
			{email: "b@y.com", submittedAt: at, fields: spoofed},
		})
		assert.Equal(t, []string{"email", "submittedAt", "q1"}, doc.Header)
		assert.Equal(t, [][]string{
			{"a@y.com", "2024-05-01T00:30:00.000Z", "first"},
			{"b@y.com", "2024-05-01T00:30:00.000Z", "x"},
		}, doc.Rows)
	})

	t.Run("no rows gives only the reserved header", func(t *testing.T) {
		doc := buildDocument(nil)
		assert.Equal(t, []string{"email", "submittedAt"}, doc.Header)
		assert.Empty(t, doc.Rows)
	})
}
