package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfg    *Config
	client *Client
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "arena",
		Short: "CLI tool for the Athlete Arena API",
		Long: `arena is a CLI tool for interacting with the Athlete Arena JSON API.

It covers account management, creating and browsing tournaments, and
registering for them.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load token from file if not provided via flag/env
			if err := cfg.LoadToken(); err != nil {
				return err
			}

			// Create HTTP client
			client = NewClient(cfg.ServerURL, cfg.Token)
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env: ARENA_SERVER)")
	rootCmd.PersistentFlags().StringVar(&cfg.Token, "token", cfg.Token, "Bearer token (env: ARENA_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&cfg.TokenFile, "token-file", cfg.TokenFile, "Token file path (env: ARENA_TOKEN_FILE)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output")

	// Add subcommands
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newTournamentCmd())
	rootCmd.AddCommand(newHealthCmd())

	return rootCmd
}

// Exit statuses let scripts branch on why a command failed
const (
	ExitError     = 1
	ExitAuth      = 2
	ExitNotFound  = 3
	ExitConflict  = 4
	ExitFull      = 5
	ExitForbidden = 6
)

// ExitCode maps a command error to the process exit status
func ExitCode(err error) int {
	switch ErrorCode(err) {
	case CodeUnauthorized, CodeInvalidCredentials:
		return ExitAuth
	case CodeTournamentNotFound, CodeNotFound:
		return ExitNotFound
	case CodeAlreadyRegistered, CodeEmailTaken:
		return ExitConflict
	case CodeTournamentFull:
		return ExitFull
	case CodeForbidden:
		return ExitForbidden
	default:
		return ExitError
	}
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(ExitCode(err))
	}
}
