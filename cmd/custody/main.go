package main

import (
	"fmt"
	"os"
	"time"

	"custody-go/internal/app"
	"custody-go/internal/config"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func main() {
	if err := app.LoadEnvFile(".env"); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies secrets from the environment.
func loadConfig() (*config.Config, string, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, "", fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, "", fmt.Errorf("reading config: %w", err)
	}
	cfg.ApplyEnv()
	return cfg, defaults["config_path"], nil
}

// newApp reads the config and creates a CustodyApp acting as the --as user.
// The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "CreateCollection").
func newApp(cmd *cobra.Command, operation string) (*app.CustodyApp, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, err
	}

	actor, _ := cmd.Flags().GetString("as")
	a, err := app.NewCustodyApp(cmd.Context(), cfg, operation, actor)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

var rootCmd = &cobra.Command{
	Use:           "custody",
	Short:         "Document custody service",
	SilenceUsage:  true,
	SilenceErrors: false,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		instanceID := uuid.New().String()
		cfg := config.NewConfig(instanceID, defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Instance ID: %s\n", instanceID)
		fmt.Printf("Base Dir:    %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := loadConfig()
		if err != nil {
			return err
		}

		fmt.Printf("Configuration from %s:\n\n", path)
		fmt.Printf("Instance ID: %s\n", cfg.InstanceID)
		fmt.Printf("Base Dir:    %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:     %s (%s)\n", cfg.LogDir, cfg.LogLevel)
		fmt.Printf("Database:    %s %s\n", cfg.Database.Type, cfg.Database.DataDir)
		fmt.Printf("Store:       %s %q\n", cfg.Store.Type, cfg.Store.Name)
		fmt.Printf("Staging:     %s %s\n", cfg.Staging.Type, cfg.Staging.StagingDir)
		fmt.Printf("Encryption:  %s\n", cfg.Encryption.Type)
		return nil
	},
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Open the database and verify the document store",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "ConfigCheck")
		if err != nil {
			return err
		}
		defer a.Close()

		fmt.Println("Database and document store are ready.")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("as", os.Getenv("CUSTODY_USER"), "Email of the acting user (default $CUSTODY_USER)")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configCheckCmd)

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(collectionCmd)
	rootCmd.AddCommand(docCmd)
	rootCmd.AddCommand(permCmd)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
