package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"mercator-hq/flowlog/pkg/config"
)

const redacted = "[REDACTED]"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the effective configuration",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file and environment overrides",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := config.LoadConfigWithEnvOverrides(cfgFile); err != nil {
			return err
		}
		source := cfgFile
		if source == "" {
			source = "defaults"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Configuration valid (%s)\n", source)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML with secrets redacted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
		if err != nil {
			return err
		}
		redactSecrets(cfg)

		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return err
		}
		return enc.Close()
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)
}

func redactSecrets(cfg *config.Config) {
	for _, s := range []*string{
		&cfg.Loki.Password,
		&cfg.Loki.BearerToken,
		&cfg.Workflows.Git.Auth.Token,
		&cfg.Workflows.Git.Auth.SSHKeyPassphrase,
	} {
		if *s != "" {
			*s = redacted
		}
	}
	for i := range cfg.Server.Auth.APIKeys {
		cfg.Server.Auth.APIKeys[i] = redacted
	}
}
