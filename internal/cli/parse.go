package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	errs "github.com/topogram/topokit/pkg/errors"
	"github.com/topogram/topokit/pkg/topogram"
)

// parseResult is what parse --json prints.
type parseResult struct {
	File    string                  `json:"file"`
	Format  topogram.Format         `json:"format"`
	Skipped int                     `json:"skipped"`
	Nodes   []topogram.NodeDocument `json:"nodes"`
	Edges   []topogram.EdgeDocument `json:"edges"`
}

// parseCommand creates the parse command.
func (c *CLI) parseCommand() *cobra.Command {
	var (
		repair  bool
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Read one topogram file and report its contents",
		Long: `Parse reads a topogram CSV, workbook or JSON export the way import does and
prints the detected format and record counts. With --json it prints the
node and edge documents an import would store.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("repair") {
				repair = cfg.Import.Repair
			}
			path := args[0]
			if _, err := os.Stat(path); err != nil {
				return errs.Wrap(errs.ErrCodeFileNotFound, err, "cannot open %s", path)
			}

			f, err := topogram.ReadFile(path, topogram.ReadOptions{Repair: repair, Limits: cfg.Import.Limits})
			switch {
			case errors.Is(err, topogram.ErrUnsupportedFormat):
				return errs.Wrap(errs.ErrCodeUnsupported, err, "cannot read %s", path)
			case err != nil:
				return errs.Wrap(errs.ErrCodeInvalidFormat, err, "parse %s", path)
			}

			if jsonOut {
				nodes, edges := f.Payloads()
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(parseResult{
					File:    path,
					Format:  f.Format,
					Skipped: f.Skipped,
					Nodes:   nodes,
					Edges:   edges,
				})
			}

			printSuccess("Parsed %s", topogram.TitleFromPath(path))
			printKeyValue("Format", string(f.Format))
			printKeyValue("Nodes", strconv.Itoa(len(f.Nodes)))
			printKeyValue("Edges", strconv.Itoa(len(f.Edges)))
			if f.Skipped > 0 {
				printKeyValue("Skipped rows", strconv.Itoa(f.Skipped))
			}
			if f.Empty() {
				printWarning("%s", fmt.Sprintf("no records found in %s", path))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&repair, "repair", true, "repair unbalanced quotes before parsing CSV")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print node and edge documents as JSON")

	return cmd
}
