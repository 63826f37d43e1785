package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// configKeys are the settings svdb understands, each with its own value
// parser. Anything else in ~/.svdb.yaml is ignored by the tool.
var configKeys = map[string]func(value string) (interface{}, error){
	"db":         parseDBPath,
	"report.top": parseReportTop,
}

func parseDBPath(value string) (interface{}, error) {
	if strings.TrimSpace(value) == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	return value, nil
}

func parseReportTop(value string) (interface{}, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("report.top must be an integer, got %q", value)
	}
	if n <= 0 {
		return nil, fmt.Errorf("report.top must be positive, got %d", n)
	}
	return n, nil
}

// parseConfigValue validates a key and converts its value to the type the
// setting expects.
func parseConfigValue(key, value string) (interface{}, error) {
	parse, ok := configKeys[key]
	if !ok {
		return nil, fmt.Errorf("unknown config key %q (valid keys: %s)", key, knownConfigKeys())
	}
	return parse(value)
}

func knownConfigKeys() string {
	keys := make([]string, 0, len(configKeys))
	for k := range configKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage svdb configuration",
		Long:  "Show, get, or set configuration values. Config is stored in ~/.svdb.yaml.",
		Example: `  svdb config                      # show effective settings
  svdb config set db /data/sv.db   # set the default database path
  svdb config set report.top 5     # shorten the top-N report sections
  svdb config get report.top       # get a value`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd)
		},
	}

	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigGetCmd())

	return cmd
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(cmd, args[0], args[1])
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(cmd, args[0])
		},
	}
}

// runConfigShow prints the effective settings, defaults included.
func runConfigShow(cmd *cobra.Command) error {
	settings := map[string]interface{}{
		"db": viper.GetString("db"),
		"report": map[string]interface{}{
			"top": viper.GetInt("report.top"),
		},
	}

	out, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), string(out))
	return nil
}

func runConfigSet(cmd *cobra.Command, key, value string) error {
	parsed, err := parseConfigValue(key, value)
	if err != nil {
		return err
	}
	viper.Set(key, parsed)

	cfgFile := viper.ConfigFileUsed()
	if cfgFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot determine home directory: %w", err)
		}
		cfgFile = filepath.Join(home, ".svdb.yaml")
	}

	if err := viper.WriteConfigAs(cfgFile); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %v in %s\n", key, parsed, cfgFile)
	return nil
}

func runConfigGet(cmd *cobra.Command, key string) error {
	if _, ok := configKeys[key]; !ok {
		return fmt.Errorf("unknown config key %q (valid keys: %s)", key, knownConfigKeys())
	}
	fmt.Fprintln(cmd.OutOrStdout(), viper.Get(key))
	return nil
}
