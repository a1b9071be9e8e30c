package inventory

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// Item is one catalog entry. An empty dimension list means the item is
// eligible for every value of that dimension.
type Item struct {
	ID         string   `json:"id"`
	Categories []uint32 `json:"categories"`
	Cities     []uint32 `json:"cities"`
	Hours      []uint32 `json:"hours"`
}

// DecodeItems parses the JSON catalog payload. The returned items share one
// backing array and must be treated as read-only.
func DecodeItems(data []byte) ([]*Item, error) {
	var raw []Item
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	items := make([]*Item, len(raw))
	for i := range raw {
		items[i] = &raw[i]
	}
	return items, nil
}
