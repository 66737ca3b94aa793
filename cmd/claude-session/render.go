package main

import (
	"fmt"
	"io"
	"strings"

	claudecode "github.com/wagiedev/claude-code-sdk-go"
)

// render writes the human-readable part of msg to w.
func render(w io.Writer, msg claudecode.Message) {
	switch m := msg.(type) {
	case *claudecode.AssistantMessage:
		for _, block := range m.Content {
			switch b := block.(type) {
			case *claudecode.TextBlock:
				fmt.Fprintln(w, b.Text)
			case *claudecode.ToolUseBlock:
				fmt.Fprintf(w, "[tool %s]\n", b.Name)
			}
		}

		if m.Error != nil {
			fmt.Fprintf(w, "[assistant error: %s]\n", *m.Error)
		}

	case *claudecode.ResultMessage:
		var summary strings.Builder

		fmt.Fprintf(&summary, "[%s in %dms, %d turns", m.Subtype, m.DurationMs, m.NumTurns)

		if m.TotalCostUSD != nil {
			fmt.Fprintf(&summary, ", $%.4f", *m.TotalCostUSD)
		}

		summary.WriteString("]")
		fmt.Fprintln(w, summary.String())
	}
}
