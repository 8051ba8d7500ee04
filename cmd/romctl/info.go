package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := newInfoCmd()
	cmd.Flags().AddFlagSet(imageFlags())
	rootCmd.AddCommand(cmd)
}

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <rom>",
		Short: "Report the internal header and checksum status of an image",
		Long: `The info command loads an image, detects its mapping and prints the
internal header: title, map mode, sizes, version, reset vector and
whether the stored checksum matches the contents.

Example:
  romctl info alttp.sfc
  romctl info alttp.smc --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(args)
		},
	}
	return cmd
}

type infoResult struct {
	File          string `json:"file"`
	Size          int    `json:"size"`
	CopierHeader  bool   `json:"copier_header"`
	Mapping       string `json:"mapping"`
	Title         string `json:"title"`
	MapModeByte   string `json:"map_mode_byte"`
	FastROM       bool   `json:"fast_rom"`
	CartType      string `json:"cart_type"`
	ROMSize       int    `json:"rom_size"`
	Version       int    `json:"version"`
	ResetVector   string `json:"reset_vector"`
	Checksum      string `json:"checksum"`
	ChecksumValid bool   `json:"checksum_valid"`
}

func runInfo(args []string) error {
	path := args[0]
	eng, err := openImage(path)
	if err != nil {
		return fmt.Errorf("failed to load image: %w", err)
	}
	h, err := eng.Header()
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}

	res := infoResult{
		File:          path,
		Size:          eng.Size(),
		CopierHeader:  eng.HasCopierHeader(),
		Mapping:       h.Mode.String(),
		Title:         h.Title,
		MapModeByte:   fmt.Sprintf("0x%02X", h.MapModeByte),
		FastROM:       h.FastROM(),
		CartType:      fmt.Sprintf("0x%02X", h.CartType),
		ROMSize:       h.ROMSizeBytes(),
		Version:       int(h.Version),
		ResetVector:   fmt.Sprintf("$%04X", h.ResetVector),
		Checksum:      h.Checksum.String(),
		ChecksumValid: eng.VerifyChecksum(),
	}
	if jsonOut {
		return printJSON(res)
	}

	printInfo("\nImage Information:\n")
	printInfo("  File: %s\n", res.File)
	printInfo("  Size: %d KiB", res.Size/1024)
	if res.CopierHeader {
		printInfo(" (+512 byte copier header)")
	}
	printInfo("\n")
	printInfo("  Mapping: %s\n", res.Mapping)
	printInfo("  Title: %s\n", res.Title)
	printInfo("  Map mode: %s (FastROM: %t)\n", res.MapModeByte, res.FastROM)
	printInfo("  Cartridge type: %s\n", res.CartType)
	if res.ROMSize > 0 {
		printInfo("  Declared ROM size: %d KiB\n", res.ROMSize/1024)
	}
	printInfo("  Version: 1.%d\n", res.Version)
	printInfo("  Reset vector: %s\n", res.ResetVector)
	if res.ChecksumValid {
		printInfo("  Checksum: %s ✓ valid\n", res.Checksum)
	} else {
		printInfo("  Checksum: %s ✗ mismatch (run 'romctl checksum --fix')\n", res.Checksum)
	}
	return nil
}
