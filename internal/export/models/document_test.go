package models

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV(t *testing.T) {
	t.Run("quotes cells that need it", func(t *testing.T) {
		doc := &Document{
			Header: []string{ColumnEmail, ColumnSubmittedAt, "q1"},
			Rows: [][]string{
				{"x@y.com", "2024-01-01T00:00:00Z", `say "hi", then leave`},
				{"z@y.com", "2024-01-02T00:00:00Z", "line1\nline2"},
			},
		}
		var buf bytes.Buffer
		require.NoError(t, doc.WriteCSV(&buf))
		assert.Equal(t,
			"email,submittedAt,q1\n"+
				"x@y.com,2024-01-01T00:00:00Z,\"say \"\"hi\"\", then leave\"\n"+
				"z@y.com,2024-01-02T00:00:00Z,\"line1\nline2\"\n",
			buf.String())
	})

	t.Run("header only", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, (&Document{Header: []string{ColumnEmail, ColumnSubmittedAt}}).WriteCSV(&buf))
		assert.Equal(t, "email,submittedAt\n", buf.String())
	})
}
