/*
mapping.go - Custom barcode-to-label mapping for the custom grouping mode

PURPOSE:
  Parses user-supplied "barcode,label" text (one pair per line, comma or tab
  separated) into the lookup the engine uses in custom mode. Malformed lines
  are skipped silently and the parse proceeds with whatever valid pairs
  remain; barcodes with no mapping fall through to the catch-all label.
*/
package flow

import "strings"

// CatchAllLabel is the grouping value assigned to barcodes the custom
// mapping does not cover.
const CatchAllLabel = "Other"

// MaxMappings caps the number of custom mappings accepted in one analysis.
const MaxMappings = 1000

// CustomMapping maps barcodes to user-defined grouping labels.
type CustomMapping map[string]string

// ParseMapping parses mapping text. Lines that do not split into exactly
// (barcode, label) are skipped; empty input yields an empty mapping.
func ParseMapping(text string) CustomMapping {
	mapping := make(CustomMapping)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.SplitN(strings.ReplaceAll(line, "\t", ","), ",", 2)
		if len(parts) != 2 {
			continue
		}
		barcode := strings.TrimSpace(parts[0])
		label := strings.TrimSpace(parts[1])
		if barcode == "" || label == "" {
			continue
		}
		mapping[barcode] = label
	}
	return mapping
}

// LabelFor returns the label for a barcode, or the catch-all label when the
// barcode is unmapped.
func (m CustomMapping) LabelFor(barcode string) string {
	if label, ok := m[barcode]; ok {
		return label
	}
	return CatchAllLabel
}
