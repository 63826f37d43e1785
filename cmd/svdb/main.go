// Package main provides the svdb command-line tool.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"svdb/internal/importer"
	"svdb/internal/report"
	"svdb/internal/store"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// DefaultDBPath is used when neither --db, config nor environment set one.
const DefaultDBPath = "sv_samples.db"

func main() {
	os.Exit(run())
}

func run() int {
	initConfig()

	root := newRootCmd()
	if err := root.Execute(); err != nil {
		if errors.Is(err, errUsage) {
			return ExitUsage
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if isUsageError(err) {
			return ExitUsage
		}
		return ExitError
	}
	return ExitSuccess
}

// errUsage marks invocations that should exit with the usage code.
var errUsage = errors.New("usage")

// isUsageError reports whether an error from cobra describes a
// command-line mistake rather than a runtime failure.
func isUsageError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") ||
		strings.HasPrefix(msg, "unknown flag") ||
		strings.HasPrefix(msg, "unknown shorthand flag") ||
		strings.HasPrefix(msg, "accepts ") ||
		strings.HasPrefix(msg, "requires at least") ||
		strings.HasPrefix(msg, "invalid argument")
}

// initConfig wires viper to ~/.svdb.yaml and SVDB_* environment variables.
func initConfig() {
	viper.SetConfigName(".svdb")
	viper.SetConfigType("yaml")
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
	}
	viper.SetEnvPrefix("svdb")
	viper.AutomaticEnv()

	viper.SetDefault("db", DefaultDBPath)
	viper.SetDefault("report.top", report.DefaultTopLimit)

	// A missing config file is fine; only report malformed ones.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Warning: could not read config: %v\n", err)
		}
	}
}

func newRootCmd() *cobra.Command {
	var (
		create     bool
		importFile string
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "svdb",
		Short: "AnnotSV structural variant database",
		Long: `svdb imports AnnotSV tab-separated output into a relational database
and prints summary statistics about samples, genes, transcripts and SVs.`,
		Example: `  # Create the database (one-time setup)
  svdb --create --db sv_samples.db

  # Import an AnnotSV output file and print the report
  svdb --import variants.annotated.tsv --db sv_samples.db

  # Re-run the report over the whole database
  svdb report --db sv_samples.db`,
		Version:       fmt.Sprintf("%s (%s) built %s", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath := viper.GetString("db")

			if create {
				if err := runCreate(dbPath); err != nil {
					return err
				}
			}
			if importFile != "" {
				return runImport(dbPath, importFile, verbose)
			}
			if !create {
				cmd.Help()
				return errUsage
			}
			return nil
		},
	}

	cmd.PersistentFlags().String("db", DefaultDBPath, "database path")
	cmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "log import progress to stderr")
	cmd.Flags().BoolVar(&create, "create", false, "create the database schema")
	cmd.Flags().StringVar(&importFile, "import", "", "import an AnnotSV TSV file")
	viper.BindPFlag("db", cmd.PersistentFlags().Lookup("db"))

	cmd.AddCommand(newReportCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// runCreate creates the database schema. Idempotent.
func runCreate(dbPath string) error {
	s, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.CreateSchema(); err != nil {
		return err
	}

	fmt.Printf("Database %s created\n", dbPath)
	return nil
}

// runImport imports an AnnotSV file and prints the report to stdout.
func runImport(dbPath, inputPath string, verbose bool) error {
	if _, err := os.Stat(inputPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", inputPath)
		}
		return fmt.Errorf("stat input file: %w", err)
	}
	if _, err := os.Stat(dbPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("database %s not found, create it first with --create", dbPath)
		}
		return fmt.Errorf("stat database: %w", err)
	}

	s, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer s.Close()

	im := importer.New(s)
	if verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("create logger: %w", err)
		}
		defer logger.Sync()
		im.SetLogger(logger)
	}

	sum, err := im.Run(inputPath)
	if err != nil {
		return fmt.Errorf("import %s: %w", filepath.Base(inputPath), err)
	}

	r := report.New(os.Stdout)
	r.SetTopLimit(viper.GetInt("report.top"))
	r.WriteImportStats(sum)
	return r.Report(s)
}
