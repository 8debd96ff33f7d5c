package analysis

import (
	"encoding/json"
	"fmt"
)

// derivedColumns holds the JSON-encoded recommendation columns shared by the
// SQL repositories.
type derivedColumns struct {
	breakdown   []byte
	fertilizers []byte
	pesticides  []byte
	crops       []byte
}

func encodeDerived(a *Analysis) (derivedColumns, error) {
	var (
		d   derivedColumns
		err error
	)
	if d.breakdown, err = json.Marshal(a.Breakdown); err != nil {
		return d, fmt.Errorf("encoding breakdown: %w", err)
	}
	if d.fertilizers, err = marshalList(a.Fertilizers); err != nil {
		return d, fmt.Errorf("encoding fertilizers: %w", err)
	}
	if d.pesticides, err = marshalList(a.Pesticides); err != nil {
		return d, fmt.Errorf("encoding pesticides: %w", err)
	}
	if d.crops, err = marshalList(a.Crops); err != nil {
		return d, fmt.Errorf("encoding crops: %w", err)
	}
	return d, nil
}

// marshalList encodes nil slices as [] rather than null.
func marshalList[T any](items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	return json.Marshal(items)
}

func (d derivedColumns) decodeInto(a *Analysis) error {
	if len(d.breakdown) > 0 {
		if err := json.Unmarshal(d.breakdown, &a.Breakdown); err != nil {
			return fmt.Errorf("decoding breakdown: %w", err)
		}
	}
	if err := json.Unmarshal(d.fertilizers, &a.Fertilizers); err != nil {
		return fmt.Errorf("decoding fertilizers: %w", err)
	}
	if err := json.Unmarshal(d.pesticides, &a.Pesticides); err != nil {
		return fmt.Errorf("decoding pesticides: %w", err)
	}
	if err := json.Unmarshal(d.crops, &a.Crops); err != nil {
		return fmt.Errorf("decoding crops: %w", err)
	}
	return nil
}

// rowScanner is satisfied by pgx.Row, pgx.Rows, *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
