package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/siddur/internal/ir"
)

// marshalKeys converts a segment key list to canonical JSON TEXT.
// A nil list is stored as [].
func marshalKeys(keys []string) (string, error) {
	data, err := ir.MarshalCanonical(ir.Strings(keys...))
	if err != nil {
		return "", fmt.Errorf("marshal keys: %w", err)
	}
	return string(data), nil
}

// marshalConditions converts a snapshot to canonical JSON TEXT.
func marshalConditions(c ir.DateConditions) (string, error) {
	data, err := c.Canonical()
	if err != nil {
		return "", fmt.Errorf("marshal conditions: %w", err)
	}
	return string(data), nil
}

// unmarshalKeys parses a stored key list. Returns an empty slice, never nil.
func unmarshalKeys(data string) ([]string, error) {
	keys := []string{}
	if data == "" || data == "[]" {
		return keys, nil
	}
	if err := json.Unmarshal([]byte(data), &keys); err != nil {
		return nil, fmt.Errorf("unmarshal keys: %w", err)
	}
	return keys, nil
}

// unmarshalConditions parses a stored snapshot, rejecting unknown enum
// values.
func unmarshalConditions(data string) (ir.DateConditions, error) {
	var c ir.DateConditions
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		return ir.DateConditions{}, fmt.Errorf("unmarshal conditions: %w", err)
	}
	return c, nil
}
