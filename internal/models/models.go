// package models defines the data model for the movie browser and its favorites
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ItemID is an opaque, stable identifier for a catalog item.
//
// Items are compared only by ItemID. It encodes as a JSON string but decodes from either a
// string or a number, since earlier records stored numeric ids.
type ItemID string

// String returns the id as a plain string.
func (id ItemID) String() string { return string(id) }

// IsZero reports whether the id is empty.
func (id ItemID) IsZero() bool { return strings.TrimSpace(string(id)) == "" }

// UnmarshalJSON accepts "550", 550, and 550.0.
func (id *ItemID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ItemID(strings.TrimSpace(s))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("item id must be a string or number: %w", err)
	}
	if i, err := n.Int64(); err == nil {
		*id = ItemID(strconv.FormatInt(i, 10))
		return nil
	}
	f, err := n.Float64()
	if err != nil {
		return fmt.Errorf("item id must be a string or number: %w", err)
	}
	*id = ItemID(strconv.FormatFloat(f, 'f', -1, 64))
	return nil
}

// ParseItemID trims s and rejects empty input.
func ParseItemID(s string) (ItemID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("item id is empty")
	}
	return ItemID(s), nil
}
