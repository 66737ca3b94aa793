package cli

import (
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/wagiedev/claude-code-sdk-go/internal/config"
	"github.com/wagiedev/claude-code-sdk-go/internal/mcp"
)

// SDKVersion is reported to the CLI through CLAUDE_CODE_SDK_VERSION.
const SDKVersion = "0.1.0"

// BuildArgs maps options to the CLI argument vector for a streaming session.
//
// Output and input are both stream-json; prompts are written to stdin, never
// passed on the command line.
func BuildArgs(options *config.Options) []string {
	args := []string{
		"--output-format", "stream-json",
		"--verbose",
	}

	if options.SystemPrompt != "" {
		args = append(args, "--system-prompt", options.SystemPrompt)
	}

	if len(options.AllowedTools) > 0 {
		args = append(args, "--allowedTools", strings.Join(options.AllowedTools, ","))
	}

	if len(options.DisallowedTools) > 0 {
		args = append(args, "--disallowedTools", strings.Join(options.DisallowedTools, ","))
	}

	if options.MaxTurns > 0 {
		args = append(args, "--max-turns", strconv.Itoa(options.MaxTurns))
	}

	if options.Model != "" {
		args = append(args, "--model", options.Model)
	}

	if options.PermissionPromptToolName != "" {
		args = append(args, "--permission-prompt-tool", options.PermissionPromptToolName)
	}

	if options.PermissionMode != "" {
		args = append(args, "--permission-mode", config.NormalizePermissionMode(options.PermissionMode))
	}

	if options.ContinueConversation {
		args = append(args, "--continue")
	}

	if options.Resume != "" {
		args = append(args, "--resume", options.Resume)
	}

	if mcpConfig := buildMCPConfig(options); mcpConfig != "" {
		args = append(args, "--mcp-config", mcpConfig)
	}

	// Sorted so the argument vector is stable across runs.
	for _, key := range slices.Sorted(maps.Keys(options.ExtraArgs)) {
		if value := options.ExtraArgs[key]; value != nil {
			args = append(args, "--"+key, *value)
		} else {
			args = append(args, "--"+key)
		}
	}

	return append(args, "--input-format", "stream-json")
}

// buildMCPConfig returns the --mcp-config value. An explicit MCPConfig path or
// JSON string wins over MCPServers.
func buildMCPConfig(options *config.Options) string {
	if options.MCPConfig != "" {
		return options.MCPConfig
	}

	if len(options.MCPServers) == 0 {
		return ""
	}

	value, err := mcp.EncodeCLIConfig(options.MCPServers)
	if err != nil {
		return ""
	}

	return value
}

// BuildEnvironment returns the CLI process environment: the current
// environment, the SDK markers, then options.Env in key order.
func BuildEnvironment(options *config.Options) []string {
	env := append(os.Environ(),
		"CLAUDE_CODE_ENTRYPOINT=sdk-go",
		"CLAUDE_CODE_SDK_VERSION="+SDKVersion,
	)

	for _, key := range slices.Sorted(maps.Keys(options.Env)) {
		env = append(env, key+"="+options.Env[key])
	}

	return env
}
