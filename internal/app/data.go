package app

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/purrwatch/internal/config"
	"github.com/blackwell-systems/purrwatch/internal/output"
	"github.com/blackwell-systems/purrwatch/internal/store"
)

var dataWipeYes bool

var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Inspect or wipe the local store without the daemon",
	Long: `Read the SQLite store directly. These commands work whether or not the
daemon is running, except wipe, which refuses while it runs.`,
}

var dataKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List stored keys with size and last write time",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(ctx context.Context, db *store.DB) error {
			return listKeys(ctx, cmd.OutOrStdout(), db)
		})
	},
}

var dataGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print the raw JSON value of a key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(ctx context.Context, db *store.DB) error {
			vals, err := db.Get(ctx, args[0])
			if err != nil {
				return err
			}
			raw, ok := vals[args[0]]
			if !ok {
				return fmt.Errorf("key %q not found", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(raw))
			return nil
		})
	},
}

var dataWipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Delete every stored key",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !dataWipeYes {
			return fmt.Errorf("refusing to wipe without --yes")
		}
		if pid, err := readPID(); err == nil && processExists(pid) {
			return fmt.Errorf("daemon is running (PID %d); stop it with 'purrwatch serve --stop' first", pid)
		}
		return withStore(cmd.Context(), func(ctx context.Context, db *store.DB) error {
			keys, err := db.Keys(ctx)
			if err != nil {
				return err
			}
			if err := db.Delete(ctx, keys...); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d keys\n", len(keys))
			return nil
		})
	},
}

func init() {
	dataWipeCmd.Flags().BoolVar(&dataWipeYes, "yes", false, "Confirm deletion")
	dataCmd.AddCommand(dataKeysCmd, dataGetCmd, dataWipeCmd)
	rootCmd.AddCommand(dataCmd)
}

func withStore(ctx context.Context, fn func(context.Context, *store.DB) error) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer func() { _ = db.Close() }()
	return fn(ctx, db)
}

func listKeys(ctx context.Context, w io.Writer, db *store.DB) error {
	keys, err := db.Keys(ctx)
	if err != nil {
		return err
	}
	vals, err := db.Get(ctx, keys...)
	if err != nil {
		return err
	}
	if flagJSON {
		sizes := make(map[string]int, len(keys))
		for _, k := range keys {
			sizes[k] = len(vals[k])
		}
		return writeJSON(w, sizes)
	}
	tbl := output.NewTable("Key", "Bytes", "Updated").AlignRight(1)
	for _, k := range keys {
		ts, err := db.UpdatedAt(ctx, k)
		if err != nil {
			return err
		}
		updated := "-"
		if !ts.IsZero() {
			updated = ts.Local().Format("2006-01-02 15:04")
		}
		tbl.AddRow(k, strconv.Itoa(len(vals[k])), updated)
	}
	tbl.Print(w)
	return nil
}
