package service

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/tidwall/gjson"

	"survey-gateway/internal/export/models"
)

// submittedAtLayout is ISO 8601 in UTC with millisecond precision.
const submittedAtLayout = "2006-01-02T15:04:05.000Z07:00"

type field struct {
	key   string
	value string
}

// flattenAnswers returns the top-level fields of an answers object in document
// order. ok is false when raw is not a JSON object. A key repeated within the
// object keeps its first position and its last value.
func flattenAnswers(raw []byte) (fields []field, ok bool) {
	if !gjson.ValidBytes(raw) {
		return nil, false
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return nil, false
	}
	pos := make(map[string]int)
	doc.ForEach(func(key, value gjson.Result) bool {
		k := key.String()
		cell := renderCell(value)
		if i, seen := pos[k]; seen {
			fields[i].value = cell
			return true
		}
		pos[k] = len(fields)
		fields = append(fields, field{key: k, value: cell})
		return true
	})
	return fields, true
}

// renderCell turns one answer value into CSV cell text: strings verbatim,
// numbers and booleans as their JSON literal, null as empty, and nested
// arrays or objects as compact JSON.
func renderCell(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return v.String()
	case gjson.Null:
		return ""
	case gjson.Number, gjson.True, gjson.False:
		return v.Raw
	default:
		var buf bytes.Buffer
		if err := json.Compact(&buf, []byte(v.Raw)); err != nil {
			return v.Raw
		}
		return buf.String()
	}
}

type flatRow struct {
	email       string
	submittedAt time.Time
	fields      []field
}

// buildDocument unions every row's keys into one header in order of first
// appearance behind the reserved columns. Answer keys that collide with a
// reserved column are dropped.
func buildDocument(rows []flatRow) *models.Document {
	header := []string{models.ColumnEmail, models.ColumnSubmittedAt}
	index := map[string]int{models.ColumnEmail: 0, models.ColumnSubmittedAt: 1}
	for _, row := range rows {
		for _, f := range row.fields {
			if _, ok := index[f.key]; !ok {
				index[f.key] = len(header)
				header = append(header, f.key)
			}
		}
	}

	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		cells := make([]string, len(header))
		cells[0] = row.email
		cells[1] = row.submittedAt.UTC().Format(submittedAtLayout)
		for _, f := range row.fields {
			if i := index[f.key]; i > 1 {
				cells[i] = f.value
			}
		}
		out = append(out, cells)
	}
	return &models.Document{Header: header, Rows: out}
}
