package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/romkit/rom/patch"
	"github.com/joshuapare/romkit/rom/tx"
)

var writeNoChecksum bool

func init() {
	cmd := newWriteCmd()
	cmd.Flags().BoolVar(&writeNoChecksum, "no-checksum", false, "Do not recompute the checksum on commit")
	cmd.Flags().AddFlagSet(imageFlags())
	cmd.Flags().AddFlagSet(storeFlags())
	rootCmd.AddCommand(cmd)
}

func newWriteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "write <rom> <address> <byte>...",
		Short: "Write bytes inside a backed-up transaction",
		Long: `The write command backs up the image, writes the bytes starting at
address and commits. Any failed write rolls the whole transaction back
and the file on disk is left untouched. The header checksum is
recomputed on commit unless --no-checksum is given.

Example:
  romctl write alttp.sfc 0x274F4 0xE7
  romctl write alttp.sfc '$84:F4F4' 0xA0 0x00 --backup-dir backups`,
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWrite(args)
		},
	}
	return cmd
}

type writeResult struct {
	File     string              `json:"file"`
	BackupID string              `json:"backup_id"`
	Writes   []patch.WriteReport `json:"writes"`
	Dirty    []patch.Range       `json:"dirty"`
}

func runWrite(args []string) error {
	path := args[0]
	eng, err := openImage(path)
	if err != nil {
		return fmt.Errorf("failed to load image: %w", err)
	}
	a, err := parseTarget(eng.Space(), args[1])
	if err != nil {
		return err
	}
	vals, err := parseValues(args[2:])
	if err != nil {
		return err
	}
	mgr, err := openBackups(eng)
	if err != nil {
		return fmt.Errorf("failed to open backups: %w", err)
	}

	coord := tx.NewCoordinator(eng, mgr,
		tx.WithChecksumOnCommit(settings().Transaction.ChecksumOnCommit && !writeNoChecksum),
		tx.WithLogger(logr()))

	var txn *tx.Transaction
	err = coord.Run(func(t *tx.Transaction) error {
		txn = t
		return t.WriteBytes(a, vals)
	})
	if txn != nil {
		printVerbose("%s\n", txn.Log().Export())
	}
	if err != nil {
		return fmt.Errorf("write rolled back: %w", err)
	}

	res := writeResult{File: path, BackupID: txn.BackupID(), Writes: txn.Reports(), Dirty: eng.Dirty()}
	if err := eng.Save(path); err != nil {
		return fmt.Errorf("failed to save image (restore with backup %s): %w", res.BackupID, err)
	}

	if jsonOut {
		return printJSON(res)
	}
	for _, r := range res.Writes {
		printInfo("  %s\n", r)
	}
	printInfo("\n✓ %d byte(s) written to %s\n", len(res.Writes), path)
	printInfo("Backup created: %s\n", res.BackupID)
	return nil
}
