package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/romkit/catalog"
	"github.com/joshuapare/romkit/pkg/types"
)

// addHealth records Link's health as mem-0001.
func addHealth(t *testing.T, rom string) {
	t.Helper()
	addCategory, addName = "memory", "Link health"
	addAddress, addSize = "$04:F4F4", 2
	addTags = []string{"player", "health"}
	addConfidence = "medium"
	addPayload = `{"data_type": "u16", "max": 160}`
	_, err := captureOutput(t, func() error { return runCatalogAdd([]string{rom}) })
	require.NoError(t, err)
	addCategory, addName, addAddress, addSize, addTags, addConfidence, addPayload = "", "", "", 0, nil, "experimental", ""
}

func TestCatalogAdd(t *testing.T) {
	resetGlobals(t)
	rom := testROM(t)
	addHealth(t, rom)

	c, err := catalog.Open(cfg.Catalog.Path, mustSpace(t, rom))
	require.NoError(t, err)
	d, ok := c.Get("mem-0001")
	require.True(t, ok, "id assigned from the category")
	require.EqualValues(t, 0x274F4, *d.Address)
	require.Equal(t, catalog.ConfidenceMedium, d.Confidence)
	p := d.Payload.(*catalog.MemoryPayload)
	require.Equal(t, 160, *p.Max)
}

func TestCatalogAdd_JSONPrintsStoredCopy(t *testing.T) {
	resetGlobals(t)
	rom := testROM(t)
	jsonOut = true
	addCategory, addName = "memory", "Link health"
	addAddress, addSize = "0x274F4", 2

	out, err := captureOutput(t, func() error { return runCatalogAdd([]string{rom}) })
	require.NoError(t, err)
	assertJSON(t, out)

	var printed catalog.Discovery
	require.NoError(t, json.Unmarshal([]byte(out), &printed))
	require.False(t, printed.CreatedAt.IsZero(), "timestamp set by the catalog")

	c, err := catalog.Open(cfg.Catalog.Path, mustSpace(t, rom))
	require.NoError(t, err)
	stored, ok := c.Get(printed.ID)
	require.True(t, ok)
	require.True(t, stored.CreatedAt.Equal(printed.CreatedAt))
}

func TestCatalogAdd_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		setup func()
		want  error
	}{
		{"foreign payload field", func() {
			addCategory, addAddress, addSize = "memory", "0x100", 1
			addPayload = `{"item_id": 3}`
		}, nil},
		{"routine without address", func() { addCategory = "routine" }, types.ErrInvalidValue},
		{"range past image end", func() {
			addCategory, addAddress, addSize = "table", "0xFFFFF", 4
		}, types.ErrOutOfBounds},
		{"unknown category", func() { addCategory = "music" }, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetGlobals(t)
			rom := testROM(t)
			addName = "x"
			tt.setup()
			_, err := captureOutput(t, func() error { return runCatalogAdd([]string{rom}) })
			require.Error(t, err)
			if tt.want != nil {
				require.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestCatalogFindShowSearch(t *testing.T) {
	resetGlobals(t)
	rom := testROM(t)
	addHealth(t, rom)

	addCategory, addName, addAddress, addSize = "table", "stats block", "0x274F0", 16
	addPayload = `{"entry_size": 2, "entry_count": 8}`
	_, err := captureOutput(t, func() error { return runCatalogAdd([]string{rom}) })
	require.NoError(t, err)

	findAddress = "0x274F5"
	out, err := captureOutput(t, func() error { return runCatalogFind([]string{rom}) })
	require.NoError(t, err)
	assertContains(t, out, []string{"tbl-0001", "mem-0001"})

	findCategory = "memory"
	out, err = captureOutput(t, func() error { return runCatalogFind([]string{rom}) })
	require.NoError(t, err)
	assert.NotContains(t, out, "tbl-0001")

	findAddress, findCategory, findTags = "", "", []string{"PLAYER"}
	jsonOut = true
	out, err = captureOutput(t, func() error { return runCatalogFind([]string{rom}) })
	require.NoError(t, err)
	var found []catalog.Discovery
	require.NoError(t, json.Unmarshal([]byte(out), &found))
	require.Len(t, found, 1)
	require.Equal(t, "mem-0001", found[0].ID)
	jsonOut = false

	out, err = captureOutput(t, func() error { return runCatalogShow([]string{rom, "mem-0001"}) })
	require.NoError(t, err)
	assertContains(t, out, []string{"Link health", "0x0274F4+2", "$04:F4F4", "player, health", `"max":160`})

	out, err = captureOutput(t, func() error { return runCatalogSearch([]string{rom, "HEALTH"}) })
	require.NoError(t, err)
	assertContains(t, out, []string{"mem-0001"})

	searchFuzzy = true
	out, err = captureOutput(t, func() error { return runCatalogSearch([]string{rom, "stblk"}) })
	require.NoError(t, err)
	assertContains(t, out, []string{"tbl-0001"})

	_, err = captureOutput(t, func() error { return runCatalogShow([]string{rom, "mem-0042"}) })
	require.Error(t, err)
}

func TestCatalogPromoteHistory(t *testing.T) {
	resetGlobals(t)
	rom := testROM(t)
	addHealth(t, rom)

	promoteBy = "emulator-trace"
	out, err := captureOutput(t, func() error { return runCatalogPromote([]string{rom, "mem-0001", "verified"}) })
	require.NoError(t, err)
	assertContains(t, out, []string{"mem-0002"})

	out, err = captureOutput(t, func() error { return runCatalogHistory([]string{rom, "mem-0001"}) })
	require.NoError(t, err)
	assertContains(t, out, []string{"mem-0002", "verified", "mem-0001", "medium"})

	out, err = captureOutput(t, func() error { return runCatalogStats([]string{rom}) })
	require.NoError(t, err)
	assertContains(t, out, []string{"2 (1 current, 1 validated)"})

	_, err = captureOutput(t, func() error { return runCatalogPromote([]string{rom, "mem-0001", "high"}) })
	require.ErrorIs(t, err, types.ErrInvalidValue, "superseded entries stay frozen")
}

func TestCatalogRelated(t *testing.T) {
	resetGlobals(t)
	rom := testROM(t)
	addHealth(t, rom)

	addCategory, addName, addAddress, addSize = "routine", "damage handler", "0x8000", 0x40
	addRelated = []string{"mem-0001"}
	_, err := captureOutput(t, func() error { return runCatalogAdd([]string{rom}) })
	require.NoError(t, err)

	out, err := captureOutput(t, func() error { return runCatalogRelated([]string{rom, "rtn-0001"}) })
	require.NoError(t, err)
	assertContains(t, out, []string{"mem-0001"})
}
