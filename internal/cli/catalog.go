package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"facial-editor/internal/catalog"
	"facial-editor/internal/persist"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the sticker catalog",
	}
	cmd.AddCommand(newCatalogListCmd())
	cmd.AddCommand(newCatalogExportCmd())
	return cmd
}

func newCatalogListCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List categories and features",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e := envFromContext(cmd.Context())
			store, err := loadCatalog(e.cfg, e.logger)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			listings := catalog.List(store)
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(listings)
			}
			for _, l := range listings {
				fmt.Fprintf(w, "%s:\n", l.Category)
				for _, n := range l.Names {
					a, err := store.Get(l.Category, n)
					if err != nil {
						return err
					}
					fmt.Fprintf(w, "  %-16s %dx%d\n", n, a.Width(), a.Height())
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newCatalogExportCmd() *cobra.Command {
	var thumbnails bool

	cmd := &cobra.Command{
		Use:   "export [dir]",
		Short: "Write every feature as <dir>/<category>/<name>.png",
		Long: `Write every feature as <dir>/<category>/<name>.png. The result can be
edited and loaded back with catalog.dir.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := envFromContext(cmd.Context())
			store, err := loadCatalog(e.cfg, e.logger)
			if err != nil {
				return err
			}
			n, err := exportCatalog(store, args[0], thumbnails)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d features to %s\n", n, args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&thumbnails, "thumbnails", false, "write gallery thumbnails instead of full-size features")
	return cmd
}

func exportCatalog(store *catalog.Store, dir string, thumbnails bool) (int, error) {
	sink := persist.NewFileSink()
	n := 0
	for _, cat := range store.Categories() {
		catDir := filepath.Join(dir, cat)
		if err := os.MkdirAll(catDir, 0755); err != nil {
			return n, fmt.Errorf("create %s: %w", catDir, err)
		}
		for _, a := range store.Entries(cat) {
			img := a.Image()
			if thumbnails {
				img = catalog.Thumbnail(a)
			}
			if _, err := sink.Write(img, filepath.Join(catDir, a.Name+".png")); err != nil {
				return n, err
			}
			n++
		}
	}
	return n, nil
}
