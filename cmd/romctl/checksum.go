package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/romkit/internal/format"
)

var checksumFix bool

func init() {
	cmd := newChecksumCmd()
	cmd.Flags().BoolVar(&checksumFix, "fix", false, "Recompute and write the checksum")
	cmd.Flags().AddFlagSet(imageFlags())
	rootCmd.AddCommand(cmd)
}

func newChecksumCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checksum <rom>",
		Short: "Verify or fix the header checksum",
		Long: `The checksum command compares the stored checksum and complement with
the value computed over the image. With --fix the pair is rewritten and
the image saved in place.

Example:
  romctl checksum alttp.sfc
  romctl checksum alttp.sfc --fix`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChecksum(args)
		},
	}
	return cmd
}

func runChecksum(args []string) error {
	path := args[0]
	eng, err := openImage(path)
	if err != nil {
		return fmt.Errorf("failed to load image: %w", err)
	}
	h, err := eng.Header()
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}
	stored := h.Checksum
	computed, err := format.ComputeChecksum(eng.Snapshot(), h.Base)
	if err != nil {
		return fmt.Errorf("failed to compute checksum: %w", err)
	}

	valid := eng.VerifyChecksum()
	fixed := false
	if checksumFix && !valid {
		if _, err := eng.RecomputeChecksum(); err != nil {
			return err
		}
		if err := eng.Save(path); err != nil {
			return fmt.Errorf("failed to save image: %w", err)
		}
		fixed = true
	}

	if jsonOut {
		return printJSON(map[string]any{
			"file":     path,
			"stored":   stored.String(),
			"computed": computed.String(),
			"valid":    valid,
			"fixed":    fixed,
		})
	}
	printInfo("  Stored:   %s\n", stored)
	printInfo("  Computed: %s\n", computed)
	switch {
	case fixed:
		printInfo("\n✓ Checksum fixed and saved to %s\n", path)
	case valid:
		printInfo("\n✓ Checksum valid\n")
	default:
		printInfo("\n✗ Checksum mismatch\n")
		return fmt.Errorf("checksum mismatch in %s", path)
	}
	return nil
}
