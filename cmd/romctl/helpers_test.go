package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joshuapare/romkit/internal/buf"
	"github.com/joshuapare/romkit/internal/config"
	"github.com/joshuapare/romkit/internal/format"
	"github.com/joshuapare/romkit/rom/addrspace"
	"github.com/joshuapare/romkit/rom/patch"
)

// testROM writes a 1 MiB LoROM image with a plausible header (and a stale
// checksum) to a temp dir and returns its path.
func testROM(t *testing.T) string {
	t.Helper()
	img := make([]byte, 0x100000)
	base := format.LoROMHeaderBase
	copy(img[base:], []byte("ROMCTL TEST          "))
	img[base+format.HeaderMapModeOffset] = 0x20
	img[base+format.HeaderROMSizeOffset] = 0x0A
	buf.PutU16LE(img, base+format.ResetVectorOffset, 0x8000)
	img[0x274F4] = 0x14

	path := filepath.Join(t.TempDir(), "test.sfc")
	if err := os.WriteFile(path, img, 0o644); err != nil {
		t.Fatalf("write test rom: %v", err)
	}
	return path
}

// resetGlobals restores every flag to its default and points the config
// at a temp dir.
func resetGlobals(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	verbose, quiet, jsonOut = false, false, false
	mappingName, regionsPath = "", ""
	backupDir, compressionName, catalogPath = "", "", ""
	checksumFix, writeNoChecksum = false, false
	backupDeltaOf = ""
	addID, addCategory, addName, addDescription, addAddress = "", "", "", "", ""
	addSize, addTags, addConfidence, addRelated = 0, nil, "experimental", nil
	addSource, addPayload, addSupersedes = "", "", ""
	findCategory, findTags, findAddress, findConfidence = "", nil, "", ""
	searchFuzzy, searchLimit, relatedDepth, promoteBy = false, 0, 1, ""

	cfg = config.Default()
	cfg.Backup.Dir = filepath.Join(dir, "backups")
	cfg.Catalog.Path = filepath.Join(dir, "catalog.json")
	log = nil
}

// captureOutput captures stdout while running a function
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	// Drain concurrently so large outputs cannot fill the pipe.
	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		done <- buf.String()
	}()

	fnErr := fn()

	w.Close()
	os.Stdout = origStdout
	return <-done, fnErr
}

// assertJSON checks that output is valid JSON
func assertJSON(t *testing.T, output string) {
	t.Helper()
	var result any
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Errorf("invalid JSON output: %v\nOutput: %s", err, output)
	}
}

// assertContains checks that output contains all expected strings
func assertContains(t *testing.T, output string, expected []string) {
	t.Helper()
	for _, want := range expected {
		if !strings.Contains(output, want) {
			t.Errorf("output missing expected string %q\nGot: %s", want, output)
		}
	}
}

func mustSpace(t *testing.T, rom string) *addrspace.Space {
	t.Helper()
	eng, err := patch.Load(rom)
	if err != nil {
		t.Fatalf("load %s: %v", rom, err)
	}
	return eng.Space()
}
