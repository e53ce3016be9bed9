package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/topogram/topokit/pkg/config"
	"github.com/topogram/topokit/pkg/ingest"
	"github.com/topogram/topokit/pkg/store"
)

type importOpts struct {
	dir         string
	commit      bool
	limit       int
	folder      string
	cleanFolder bool
	repair      bool
	driver      string
	storeURL    string
	port        int
	jsonOut     bool
}

// importCommand creates the import command.
func (c *CLI) importCommand() *cobra.Command {
	var opts importOpts

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a folder of topogram files into the store",
		Long: `Import finds every *.topogram.csv, .xlsx, .ods and .json file below --dir,
parses it and, with --commit, stores one topogram per file together with
its nodes and edges. Without --commit nothing is written.

Topograms are labeled with --folder, which defaults to a title-cased form
of the directory name. --clean-folder removes the folder's existing
topograms before importing.`,
		Example: `  topokit import --dir ./topograms
  topokit import --dir ./topograms --commit --clean-folder
  topokit import --dir ./topograms --commit --store sqlite --store-url topograms.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("repair") {
				opts.repair = cfg.Import.Repair
			}
			folder := opts.folder
			if folder == "" {
				folder = cfg.Import.Folder
			}

			im := ingest.NewImporter(nil, logger)
			if opts.commit {
				st, err := store.Open(ctx, storeConfig(cfg.Store, opts))
				if err != nil {
					return err
				}
				defer st.Close(ctx)
				im.Store = st
			}

			sum, err := im.Run(ctx, ingest.Options{
				Dir:         opts.dir,
				Folder:      folder,
				Commit:      opts.commit,
				Limit:       opts.limit,
				CleanFolder: opts.cleanFolder,
				Repair:      opts.repair,
				Limits:      cfg.Import.Limits,
			})
			if err != nil {
				return err
			}
			if opts.jsonOut {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(sum)
			}
			printImportSummary(sum)
			if sum.Failed > 0 {
				return fmt.Errorf("%d files failed to import", sum.Failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.dir, "dir", "", "folder with topogram files (required)")
	cmd.Flags().BoolVar(&opts.commit, "commit", false, "write to the store (default is a dry run)")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "process only the first N files")
	cmd.Flags().StringVar(&opts.folder, "folder", "", "folder label (default derived from --dir)")
	cmd.Flags().BoolVar(&opts.cleanFolder, "clean-folder", false, "remove the folder's topograms first (requires --commit)")
	cmd.Flags().BoolVar(&opts.repair, "repair", true, "repair unbalanced quotes in CSV files")
	cmd.Flags().StringVar(&opts.driver, "store", "", "store driver: mongo, sqlite, neo4j, memory")
	cmd.Flags().StringVar(&opts.storeURL, "store-url", "", "store connection URL or SQLite path")
	cmd.Flags().IntVar(&opts.port, "port", 0, "local MongoDB port (ignored with --store-url)")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "print the summary as JSON")
	cmd.MarkFlagRequired("dir")

	return cmd
}

// storeConfig applies the command's store flags to cfg.
func storeConfig(cfg config.Store, opts importOpts) config.Store {
	if opts.driver != "" && opts.driver != cfg.Driver {
		cfg = config.Store{Driver: opts.driver, Username: cfg.Username, Password: cfg.Password}
		cfg = (&config.Config{Store: cfg}).WithDefaults().Store
	}
	switch {
	case opts.storeURL != "":
		cfg.URL = opts.storeURL
	case opts.port > 0 && cfg.Driver == "mongo":
		cfg.URL = "mongodb://127.0.0.1:" + strconv.Itoa(opts.port) + "/" + config.DefaultDatabase
	}
	return cfg
}

func printImportSummary(sum *ingest.Summary) {
	for _, res := range sum.Results {
		switch res.Status {
		case ingest.StatusSkipped:
			printWarning("%s: %v", res.Title, res.Err)
		case ingest.StatusFailed:
			printError("%s: %v", res.Title, res.Err)
		default:
			printDetail("%s  %d nodes · %d edges", res.Title, res.Nodes, res.Edges)
		}
	}

	if sum.Cleaned != nil {
		printInfo("Removed %d topograms, %d nodes, %d edges from %q",
			sum.Cleaned.Topograms, sum.Cleaned.Nodes, sum.Cleaned.Edges, sum.Folder)
	}
	verb := "Parsed"
	if sum.Commit {
		verb = "Imported"
	}
	printSuccess("%s %d of %d files", verb, sum.Files, sum.Found)
	printKeyValue("Folder", sum.Folder)
	printKeyValue("Import run", sum.ImportRun)
	printKeyValue("Nodes", strconv.Itoa(sum.Nodes))
	printKeyValue("Edges", strconv.Itoa(sum.Edges))
	if sum.Skipped > 0 {
		printKeyValue("Skipped", strconv.Itoa(sum.Skipped))
	}
	if sum.Failed > 0 {
		printKeyValue("Failed", strconv.Itoa(sum.Failed))
	}
	if !sum.Commit {
		printDryRun()
		printNextStep("Write to the store", "topokit import --commit --dir <dir>")
	}
}
