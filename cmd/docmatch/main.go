package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/Veraticus/docmatch/internal/cli"
	"github.com/Veraticus/docmatch/internal/common"
	"github.com/Veraticus/docmatch/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	version = "dev"
	rootCmd = &cobra.Command{
		Use:   "docmatch",
		Short: "Match invoices, purchase orders and delivery receipts",
		Long: `docmatch pairs business documents, lines up their items and reports
every deviation between them: amounts, quantities, prices, article numbers,
descriptions and currencies.

It also groups invoices and delivery receipts with the purchase orders
whose lines they share.`,
		PersistentPreRunE: initConfig,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}
)

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/docmatch/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")

	// Bind flags to viper
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))

	// Add commands
	rootCmd.AddCommand(matchCmd())
	rootCmd.AddCommand(matchCandidatesCmd())
	rootCmd.AddCommand(groupCmd())
	rootCmd.AddCommand(mergeCheckCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	interrupts := cli.NewInterruptHandler(os.Stderr)
	ctx, cancel := context.WithCancel(context.Background())
	ctx = interrupts.HandleInterrupts(ctx, "Press Ctrl-C again to exit immediately")

	err := rootCmd.ExecuteContext(ctx)
	cancel() // Always cleanup

	if err != nil {
		var userErr *common.UserError
		if errors.As(err, &userErr) {
			fmt.Fprintln(os.Stderr, cli.FormatError(userErr.UserMessage))
		} else {
			fmt.Fprintln(os.Stderr, cli.FormatError(err.Error()))
		}
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	v := viper.GetViper()
	config.SetDefaults(v)

	// Set up config file
	if cfgFile != "" {
		v.SetConfigFile(config.ExpandPath(cfgFile))
	} else {
		paths, err := config.SearchPaths()
		if err != nil {
			return err
		}
		for _, p := range paths {
			v.AddConfigPath(p)
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Environment variables
	if err := config.BindEnv(v); err != nil {
		return err
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	// Set up logging
	level, err := common.ParseLevel(v.GetString("logging.level"))
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	if err := common.SetupLogger(level, v.GetString("logging.format")); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "docmatch %s\n", version)
		},
	}
}
