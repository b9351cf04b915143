// cmd/storefront/ddl.go
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"brihaspati/internal/adapters/out/localstore"
	orderdom "brihaspati/internal/domain/order"
)

// schemas lists every table the storefront creates, by output file name.
var schemas = []struct {
	file, title, ddl string
}{
	{"local_storage.sql", "SQLite local store", localstore.TableDDL},
	{"orders.sql", "PostgreSQL orders", orderdom.OrdersTableDDL},
}

func newDDLCmd() *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "ddl",
		Short: "Print (or write) the SQL schemas the storefront creates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if outDir == "" {
				return writeDDL(cmd.OutOrStdout())
			}
			return writeDDLFiles(outDir)
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "write one .sql file per schema into this directory")
	return cmd
}

func writeDDL(w io.Writer) error {
	for _, s := range schemas {
		if _, err := fmt.Fprintf(w, "-- %s\n%s\n\n", s.title, strings.TrimSpace(s.ddl)); err != nil {
			return err
		}
	}
	return nil
}

func writeDDLFiles(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, s := range schemas {
		content := fmt.Sprintf("-- %s\n%s\n", s.title, strings.TrimSpace(s.ddl))
		if err := os.WriteFile(filepath.Join(dir, s.file), []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}
