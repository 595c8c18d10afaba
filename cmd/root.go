package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/olusolaa/cloud-housekeeper/internal/app"
	apperrors "github.com/olusolaa/cloud-housekeeper/internal/errors"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string
	reporter  string
	userData  map[string]string
)

var rootCmd = &cobra.Command{
	Use:   "housekeeper",
	Short: "Keeps a cloud account's dashboards, snapshots, tags and names in order.",
	Long: `Housekeeper runs the account housekeeping jobs: it rewrites monitoring
dashboards from the current inventory, rotates volume snapshots, propagates
tags and projects from servers to their volumes and addresses, normalizes
display names, mails alarm owners and forwards webhooks to the log collector.

Each job runs once per invocation, from this CLI or as a Lambda handler.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeConfig(cmd)
	},
}

// Execute runs the root command and returns the process exit code.
func Execute(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError(err)
		return 1
	}
	return 0
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Configuration file path (default is .housekeeper.yaml in the working or home directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Override log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&reporter, "reporter", "", "Override report format (text, json)")
	rootCmd.PersistentFlags().StringToStringVar(&userData, "user-data", nil, "Invocation parameters (e.g. 'max_savetime=7,dd_token=abc')")

	viper.BindPFlag("settings.log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("settings.log.format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("settings.reporter", rootCmd.PersistentFlags().Lookup("reporter"))

	viper.SetEnvPrefix("HOUSEKEEPER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(taskCommands()...)
	rootCmd.AddCommand(alarmCmd, forwardCmd, lambdaCmd)
}

func initializeConfig(cmd *cobra.Command) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".housekeeper")
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using configuration file:", viper.ConfigFileUsed())
	} else {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return apperrors.Wrap(err, apperrors.CodeConfigReadError, "failed to read config file")
		}
	}

	for k, v := range userData {
		viper.Set("user_data."+strings.ToLower(strings.TrimSpace(k)), v)
	}
	return nil
}

func bootstrap(ctx context.Context) (*app.Application, error) {
	a, err := app.BuildApplicationFromViper(ctx, viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("application initialization failed: %w", err)
	}
	return a, nil
}

func printError(err error) {
	msg, suggestion, userFacing := apperrors.GetUserFacingMessage(err)
	if !userFacing {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return
	}
	fmt.Fprintf(os.Stderr, "ERROR: %s\n", msg)
	if suggestion != "" {
		fmt.Fprintf(os.Stderr, "Suggestion: %s\n", suggestion)
	}
}

// readInput reads a file, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.WrapUserFacing(err, apperrors.CodeConfigReadError,
			fmt.Sprintf("cannot read %s", path), "Pass an existing file or '-' for stdin")
	}
	return b, nil
}
