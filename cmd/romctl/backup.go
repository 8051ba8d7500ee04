package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/romkit/rom/backup"
)

func init() {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Create, list and restore image backups",
	}
	for _, sub := range []*cobra.Command{
		newBackupCreateCmd(),
		newBackupListCmd(),
		newBackupRestoreCmd(),
		newBackupDeleteCmd(),
	} {
		sub.Flags().AddFlagSet(imageFlags())
		sub.Flags().AddFlagSet(storeFlags())
		cmd.AddCommand(sub)
	}
	rootCmd.AddCommand(cmd)
}

var backupDeltaOf string

func newBackupCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <rom> [description...]",
		Short: "Back up the current image",
		Long: `The create command stores a full backup of the image, or with --delta
only the bytes that differ from an existing full backup.

Example:
  romctl backup create alttp.sfc before hacking
  romctl backup create alttp.sfc --delta bk-0001 after sword patch`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackupCreate(args)
		},
	}
	cmd.Flags().StringVar(&backupDeltaOf, "delta", "", "Store a delta against this full backup")
	return cmd
}

func newBackupListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <rom>",
		Short: "List the backups in the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackupList(args)
		},
	}
}

func newBackupRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <rom> <id>",
		Short: "Restore a backup over the image file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackupRestore(args)
		},
	}
}

func newBackupDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <rom> <id>",
		Short: "Delete a backup",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackupDelete(args)
		},
	}
}

func loadBackups(path string) (*backup.Manager, error) {
	eng, err := openImage(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}
	mgr, err := openBackups(eng)
	if err != nil {
		return nil, fmt.Errorf("failed to open backups: %w", err)
	}
	return mgr, nil
}

func runBackupCreate(args []string) error {
	mgr, err := loadBackups(args[0])
	if err != nil {
		return err
	}
	desc := strings.Join(args[1:], " ")
	var b backup.Backup
	if backupDeltaOf != "" {
		b, err = mgr.CreateDelta(backupDeltaOf, desc)
	} else {
		b, err = mgr.CreateBackup(desc)
	}
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(backupJSON(b))
	}
	printInfo("✓ Backup created: %s\n", b)
	return nil
}

func runBackupList(args []string) error {
	mgr, err := loadBackups(args[0])
	if err != nil {
		return err
	}
	list := mgr.ListBackups()
	if jsonOut {
		out := make([]map[string]any, len(list))
		for i, b := range list {
			out[i] = backupJSON(b)
		}
		return printJSON(out)
	}
	if len(list) == 0 {
		printInfo("No backups\n")
		return nil
	}
	for _, b := range list {
		printInfo("  %s  %s\n", b.Timestamp.Format("2006-01-02 15:04:05"), b)
	}
	return nil
}

func runBackupRestore(args []string) error {
	path, id := args[0], args[1]
	eng, err := openImage(path)
	if err != nil {
		return fmt.Errorf("failed to load image: %w", err)
	}
	mgr, err := openBackups(eng)
	if err != nil {
		return fmt.Errorf("failed to open backups: %w", err)
	}
	if err := mgr.RestoreBackup(id); err != nil {
		return err
	}
	if err := eng.Save(path); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	if jsonOut {
		return printJSON(map[string]any{"file": path, "restored": id})
	}
	printInfo("✓ Restored %s to %s\n", id, path)
	return nil
}

func runBackupDelete(args []string) error {
	mgr, err := loadBackups(args[0])
	if err != nil {
		return err
	}
	if err := mgr.DeleteBackup(args[1]); err != nil {
		return err
	}
	if jsonOut {
		return printJSON(map[string]any{"deleted": args[1]})
	}
	printInfo("✓ Deleted %s\n", args[1])
	return nil
}

func backupJSON(b backup.Backup) map[string]any {
	return map[string]any{
		"id":          b.ID,
		"timestamp":   b.Timestamp,
		"description": b.Description,
		"size":        b.Size,
		"kind":        b.Kind,
		"base_id":     b.BaseID,
		"digest":      b.Digest.String(),
	}
}
