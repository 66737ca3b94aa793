// Command claude-session runs one-shot prompts or an interactive chat against
// the Claude Code CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	flags := &sessionFlags{}

	cmd := &cobra.Command{
		Use:           "claude-session",
		Short:         "Talk to the Claude Code CLI over its stream-json protocol",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags.register(cmd)

	cmd.AddCommand(askCmd(flags), chatCmd(flags))

	return cmd
}
