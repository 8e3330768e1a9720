package cli

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View, validate and change the configuration read from config.toml.

Keys use dot notation matching the TOML tables, for example
regions.min_scan_offset or batch.workers.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the current settings",
	RunE:  runSettingsValidate,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set one configuration key and save it to config.toml.

List values such as kafka.brokers and pipeline.stages are given as a
comma-separated string. The value is rejected if the resulting settings
would not validate.`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsValidateCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Workspace]")
	cmd.Printf("  Root: %s\n", settings.Workspace.Root)
	cmd.Printf("  PDF store: %s\n", valueOrUnset(settings.Workspace.PDFStore))
	cmd.Printf("  Output: %s\n", settings.Output.Dir)
	cmd.Println()

	cmd.Println("[Pipeline]")
	cmd.Printf("  Stages: extract -> %s\n", strings.Join(settings.Pipeline.Stages, " -> "))
	for _, name := range settings.Pipeline.Stages {
		cfg := settings.Pipeline.GetStageConfig(name)
		if len(cfg) == 0 {
			continue
		}
		keys := make([]string, 0, len(cfg))
		for k := range cfg {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			cmd.Printf("  %s.%s: %v\n", name, k, cfg[k])
		}
	}
	cmd.Println()

	cmd.Println("[Batch]")
	cmd.Printf("  Workers: %d\n", settings.Batch.Workers)
	if settings.Batch.RatePerSecond > 0 {
		cmd.Printf("  Rate: %g documents/s\n", settings.Batch.RatePerSecond)
	} else {
		cmd.Println("  Rate: unlimited")
	}
	if settings.Batch.SkipExisting {
		cmd.Println("  Skip existing: yes")
	} else {
		cmd.Println("  Skip existing: no (extract always rebuilds, same as --force)")
	}
	cmd.Println()

	cmd.Println("[Storage]")
	cmd.Printf("  Processing log: %s\n", settings.Storage.ProcessingLog)
	if settings.Storage.DataDir != "" {
		cmd.Printf("  Data dir: %s\n", settings.Storage.DataDir)
	}
	cmd.Println()

	cmd.Println("[Kafka]")
	if settings.Kafka.Enabled {
		cmd.Printf("  Enabled: yes\n")
		cmd.Printf("  Brokers: %s\n", strings.Join(settings.Kafka.Brokers, ", "))
		cmd.Printf("  Topic: %s\n", settings.Kafka.Topic)
	} else {
		cmd.Printf("  Enabled: no\n")
	}
	cmd.Println()

	cmd.Println("[MinIO]")
	if settings.Minio.Enabled {
		cmd.Printf("  Enabled: yes\n")
		cmd.Printf("  Endpoint: %s\n", settings.Minio.Endpoint)
		cmd.Printf("  Bucket: %s\n", settings.Minio.Bucket)
		cmd.Printf("  Prefix: %s\n", valueOrUnset(settings.Minio.Prefix))
		cmd.Printf("  Access key: %s\n", valueOrUnset(settings.Minio.AccessKey))
		if settings.Minio.SecretKey != "" {
			cmd.Printf("  Secret key: %s\n", maskSecret(settings.Minio.SecretKey))
		} else {
			cmd.Printf("  Secret key: (not set)\n")
		}
		cmd.Printf("  TLS: %s\n", yesNo(settings.Minio.UseSSL))
	} else {
		cmd.Printf("  Enabled: no\n")
	}
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'docstruct settings set <key> <value>' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runSettingsValidate(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.Validate(); err != nil {
		return err
	}
	cmd.Println("Configuration is valid.")
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key, value := args[0], args[1]
	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	cmd.Printf("Set %s = %s\n", key, value)
	return nil
}

func valueOrUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func maskSecret(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
