package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/romdb/romdb/internal/app"
	"github.com/romdb/romdb/internal/manifest"
	"github.com/romdb/romdb/internal/romdb"
)

var (
	dbPath     string
	schemaPath string
	romsPath   string
	importPath string
	patchPath  string
	configName string
	sortFile   string
	dump       bool
	fullDump   bool
	verify     bool
)

var rootCmd = &cobra.Command{
	Use:   "romdb",
	Short: "Content-addressed archival database for ROM collections",
	Long: `romdb stores ROM collections in a single SQLite file, compressing
each file and delta-encoding related files within a media group.
Import reads a directory of plain-text manifests and a pool of source
files; dump reconstructs the byte-exact tree from the database.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		switch {
		case sortFile != "":
			return manifest.SortFile(sortFile)

		case patchPath != "":
			if importPath == "" {
				return fmt.Errorf("patch generation needs an import path (-i)")
			}
			cfgName := configName
			if cfgName == "" {
				if cfg, err := app.LoadConfig(); err == nil {
					cfgName = cfg.Configuration
				}
			}
			return romdb.CreatePatchFile(importPath, patchPath, cfgName)

		case importPath != "":
			a, err := app.OpenOrCreate(appOptions())
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Import(romsPath, importPath)

		case dump || fullDump:
			a, err := app.Open(appOptions())
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Dump(romsPath, fullDump)

		case verify:
			a, err := app.Open(appOptions())
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Verify()
		}

		return cmd.Help()
	},
}

func appOptions() app.Options {
	return app.Options{
		Database: dbPath,
		Schema:   schemaPath,
		Config:   configName,
	}
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&dbPath, "output", "o", "", "romdb database file")
	flags.StringVarP(&schemaPath, "schema", "s", "", "schema SQL file (built-in schema when omitted)")
	flags.StringVarP(&romsPath, "roms", "r", "", "file pool for import, dump root for dump")
	flags.StringVarP(&importPath, "import", "i", "", "manifest directory to import")
	flags.StringVarP(&patchPath, "patch", "p", "", "write patch.txt here instead of importing")
	flags.StringVarP(&configName, "configuration", "c", "", "manifest configuration name")
	flags.BoolVarP(&dump, "dump", "d", false, "dump files")
	flags.BoolVarP(&fullDump, "full-dump", "f", false, "dump files and manifests")
	flags.BoolVarP(&verify, "verify", "v", false, "verify stored checksums")
	flags.StringVar(&sortFile, "sort", "", "sort a text file in place by natural order")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
