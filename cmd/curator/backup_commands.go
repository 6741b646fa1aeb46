package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newBackupCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Inspect and manage the backup index",
	}
	cmd.AddCommand(newBackupListCommand(ctx))
	cmd.AddCommand(newBackupRestoreCommand(ctx))
	cmd.AddCommand(newBackupCleanupCommand(ctx))
	return cmd
}

func newBackupListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list [original-path]",
		Short: "List indexed backups, newest first, optionally filtered by original path",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openBackupsAlways()
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(args) == 1 {
				filtered := entries[:0]
				for _, entry := range entries {
					if strings.Contains(entry.OriginalPath, args[0]) {
						filtered = append(filtered, entry)
					}
				}
				entries = filtered
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No backups recorded.")
				return nil
			}

			fmt.Fprintln(out, backupTable(entries))
			return nil
		},
	}
}

func newBackupRestoreCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <backup-path> [target]",
		Short: "Restore an indexed backup over its original path, or to target",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openBackupsAlways()
			if err != nil {
				return err
			}
			defer store.Close()

			target := ""
			if len(args) == 2 {
				target = args[1]
			}
			if err := store.Restore(cmd.Context(), args[0], target); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Backup restored.")
			return nil
		},
	}
}

func newBackupCleanupCommand(ctx *commandContext) *cobra.Command {
	var maxAgeDays int

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove old backups and index rows for missing files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openBackupsAlways()
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.Cleanup(cmd.Context(), time.Duration(maxAgeDays)*24*time.Hour)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d backup entries.\n", removed)
			return nil
		},
	}

	cmd.Flags().IntVar(&maxAgeDays, "max-age", 30, "Remove backups older than this many days")
	return cmd
}
