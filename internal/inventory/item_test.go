package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeItems(t *testing.T) {
	payload := []byte(`[
		{"id": "a", "categories": [], "cities": [3, 4], "hours": [5]},
		{"id": "b", "categories": [1]},
		{"id": ""}
	]`)

	items, err := DecodeItems(payload)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "a", items[0].ID)
	assert.Empty(t, items[0].Categories)
	assert.Equal(t, []uint32{3, 4}, items[0].Cities)
	assert.Equal(t, []uint32{5}, items[0].Hours)

	assert.Equal(t, []uint32{1}, items[1].Categories)
	assert.Nil(t, items[1].Cities, "absent arrays decode as unrestricted")
	assert.Empty(t, items[2].ID)
}

func TestDecodeItems_Empty(t *testing.T) {
	items, err := DecodeItems([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestDecodeItems_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"truncated", `[{"id": "a"`},
		{"not an array", `{"id": "a"}`},
		{"string hour", `[{"id": "a", "hours": ["5"]}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeItems([]byte(tt.payload))
			assert.Error(t, err)
		})
	}
}
