package main

import (
	"consensus-chat/internal"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/database"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var dbPath, prefix string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print the room history stored by a stopped room server",
		RunE: wrap(func(cmd *cobra.Command, _ []string) (int, error) {
			db, err := openReadOnly(dbPath)
			if err != nil {
				return exitRuntime, fmt.Errorf("error while opening Badger: %w", err)
			}
			defer db.Close()

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Key", "Type", "Timestamp", "Entity ID", "Room", "Detail"})
			table.SetAutoWrapText(false)
			table.SetAutoFormatHeaders(true)
			table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
			table.SetAlignment(tablewriter.ALIGN_LEFT)
			table.SetCenterSeparator("")
			table.SetColumnSeparator("")
			table.SetRowSeparator("")
			table.SetHeaderLine(false)
			table.SetBorder(false)
			table.SetTablePadding("\t")

			err = db.View(func(txn *badger.Txn) error {
				it := txn.NewIterator(badger.DefaultIteratorOptions)
				defer it.Close()

				prefixBytes := []byte(prefix)
				for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
					item := it.Item()
					key := string(item.KeyCopy(nil))
					err := item.Value(func(v []byte) error {
						row := internal.HistoryMapper(key, v)
						table.Append([]string{row.Key, row.Type, row.Timestamp, row.EntityID, row.Namespace, row.Detail})
						return nil
					})
					if err != nil {
						return err
					}
				}
				return nil
			})
			if err != nil {
				return exitRuntime, err
			}

			table.Render()
			return exitOK, nil
		}),
	}
	cmd.Flags().StringVar(&dbPath, "db", database.DefaultPath, "path to the badger directory")
	cmd.Flags().StringVar(&prefix, "prefix", "msg:", "key prefix to scan")
	return cmd
}

func openReadOnly(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)

	db, err := badger.Open(opts)
	if err != nil && strings.Contains(err.Error(), "Log truncate required") {
		// A crashed server leaves a log to truncate, which needs a writable open first.
		repaired, err := badger.Open(badger.DefaultOptions(path).WithLogger(nil).WithBypassLockGuard(true))
		if err != nil {
			return nil, fmt.Errorf("repair failed: %w", err)
		}
		_ = repaired.Close()
		return badger.Open(opts)
	}
	return db, err
}
