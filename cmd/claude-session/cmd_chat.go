package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	claudecode "github.com/wagiedev/claude-code-sdk-go"
)

func chatCmd(flags *sessionFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive session; Ctrl-C interrupts the current reply",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}

			sessionID := flags.resolvedSessionID()
			fmt.Fprintf(cmd.ErrOrStderr(), "session %s, /quit to exit\n", sessionID)

			return claudecode.WithClient(cmd.Context(), func(client claudecode.Client) error {
				return chat(cmd.Context(), client, sessionID, cmd.InOrStdin(), cmd.OutOrStdout())
			}, opts...)
		},
	}
}

// chat reads prompts line by line and streams each reply. SIGINT during a
// reply sends an interrupt; SIGINT while idle ends the session.
func chat(ctx context.Context, client claudecode.Client, sessionID string, in io.Reader, out io.Writer) error {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT)

	defer signal.Stop(signals)

	lines := make(chan string)
	stop := make(chan struct{})

	defer close(stop)

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-stop:
				return
			}
		}
	}()

	for {
		fmt.Fprint(out, "> ")

		var prompt string

		select {
		case line, ok := <-lines:
			if !ok {
				return nil
			}

			prompt = strings.TrimSpace(line)
		case <-signals:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}

		switch prompt {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		}

		if err := turn(ctx, client, sessionID, prompt, signals, out); err != nil {
			return err
		}
	}
}

// turn sends prompt and renders the reply until its result arrives.
func turn(
	ctx context.Context,
	client claudecode.Client,
	sessionID, prompt string,
	signals <-chan os.Signal,
	out io.Writer,
) error {
	if err := client.Query(ctx, prompt, sessionID); err != nil {
		return err
	}

	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			select {
			case <-signals:
				if err := client.Interrupt(ctx); err != nil {
					slog.Warn("Interrupt failed", "error", err)
				}
			case <-done:
				return
			}
		}
	}()

	for msg, err := range client.ReceiveResponse(ctx) {
		if err != nil {
			return err
		}

		render(out, msg)
	}

	return nil
}
