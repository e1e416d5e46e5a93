// Package report writes detection summaries for the console tools.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"productvision/internal/detection"
)

// Summary is the console shape of a report: only the totals.
type Summary struct {
	Amount   int            `json:"amount"`
	Products map[string]int `json:"products"`
}

// NewSummary drops the per-detection list from r.
func NewSummary(r detection.Report) Summary {
	products := r.Products
	if products == nil {
		products = map[string]int{}
	}
	return Summary{Amount: r.Amount, Products: products}
}

// Print writes r as indented JSON followed by a newline.
func Print(w io.Writer, r detection.Report) error {
	data, err := json.MarshalIndent(NewSummary(r), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
