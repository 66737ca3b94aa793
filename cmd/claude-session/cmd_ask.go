package main

import (
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	claudecode "github.com/wagiedev/claude-code-sdk-go"
)

func askCmd(flags *sessionFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <prompt>...",
		Short: "Send one prompt and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			for msg, err := range claudecode.Query(ctx, strings.Join(args, " "), opts...) {
				if err != nil {
					return err
				}

				render(cmd.OutOrStdout(), msg)
			}

			return nil
		},
	}
}
