// Package cli wires the command line: the HTTP server plus recruiter tools
// for managing interviews and reviewing graded results.
package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand builds the interview-voice-grader command tree.
func NewRootCommand() *cobra.Command {
	var envFlag string
	var assistantFlag string

	ctx := newCommandContext(&envFlag, &assistantFlag)

	rootCmd := &cobra.Command{
		Use:           "interview-voice-grader",
		Short:         "AI voice interview service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&envFlag, "env-file", "", "Path to a .env file (default .env)")
	rootCmd.PersistentFlags().StringVar(&assistantFlag, "assistant", "", "Assistant configuration file path")

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newMigrateCommand(ctx))
	rootCmd.AddCommand(newInterviewCommand(ctx))
	rootCmd.AddCommand(newResultsCommand(ctx))

	return rootCmd
}
