package catalogs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_RepoConfigs(t *testing.T) {
	cats, err := Load(filepath.Join("..", "..", "..", "configs"))
	require.NoError(t, err)
	require.NotEmpty(t, cats.Items.Defs)
	assert.Len(t, cats.Items.Digest, 64)

	coin, ok := cats.Items.Get(201)
	require.True(t, ok)
	assert.True(t, coin.Stackable)
	assert.Equal(t, DefaultMaxStack, coin.MaxStack)
	assert.Equal(t, uint16(201), coin.ClientID)

	sword := cats.Items.Defs[cats.Items.ByName["sword"]]
	assert.Equal(t, 1, sword.MaxStack)
	assert.Equal(t, GroupNormal, sword.Group)

	// Currency ordered from the most valuable denomination down.
	require.Len(t, cats.Items.Currency, 3)
	assert.Equal(t, []uint16{203, 202, 201}, cats.Items.Currency)
}

func TestNewItemCatalog_RejectsCorruptTables(t *testing.T) {
	cases := map[string][]ItemDef{
		"reserved id":        {{ID: 0, Name: "nothing"}},
		"duplicate":          {{ID: 1}, {ID: 1}},
		"unknown group":      {{ID: 1, Group: "weird"}},
		"huge stack":         {{ID: 1, Stackable: true, MaxStack: 1000}},
		"container capacity": {{ID: 1, Group: GroupContainer}},
		"dangling decay":     {{ID: 1, DecayTo: 2}},
		"self decay":         {{ID: 1, DecayTo: 1}},
		"currency unstacked": {{ID: 1, Worth: 5}},
		"negative weight":    {{ID: 1, Weight: -1}},
		"bad floor change":   {{ID: 1, FloorChange: "sideways"}},
	}
	for name, defs := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewItemCatalog(defs)
			assert.Error(t, err)
		})
	}
}

func TestLoad_MalformedJSONIsAnError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "items.json"), []byte(`[{"id":`), 0o644))
	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "items.json")
}

func TestItemDef_SubTypes(t *testing.T) {
	assert.True(t, ItemDef{Stackable: true}.HasSubType())
	assert.True(t, ItemDef{Group: GroupFluid}.HasSubType())
	assert.True(t, ItemDef{Group: GroupCharges}.HasSubType())
	assert.False(t, ItemDef{Group: GroupNormal}.HasSubType())
}
