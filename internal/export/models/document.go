package models

import (
	"encoding/csv"
	"fmt"
	"io"
)

// Reserved columns lead every export, ahead of any answer field.
const (
	ColumnEmail       = "email"
	ColumnSubmittedAt = "submittedAt"
)

// Document is a rectangular export: every row has one cell per header column.
type Document struct {
	Header []string
	Rows   [][]string
}

// WriteCSV serializes the document as RFC 4180 CSV.
func (d *Document) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(d.Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(d.Rows); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}
