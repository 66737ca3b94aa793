package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	claudecode "github.com/wagiedev/claude-code-sdk-go"
)

// Profile is the on-disk session configuration. Flags override its fields.
type Profile struct {
	Model           string            `toml:"model"`
	SystemPrompt    string            `toml:"systemPrompt"`
	PermissionMode  string            `toml:"permissionMode"`
	MaxTurns        int               `toml:"maxTurns"`
	Cwd             string            `toml:"cwd"`
	CliPath         string            `toml:"cliPath"`
	AllowedTools    []string          `toml:"allowedTools"`
	DisallowedTools []string          `toml:"disallowedTools"`
	Env             map[string]string `toml:"env"`
	ParseErrors     string            `toml:"parseErrors"`
	MaxBufferSize   int               `toml:"maxBufferSize"`
	ControlTimeout  duration          `toml:"controlTimeout"`
}

// duration decodes TOML strings such as "30s".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", text, err)
	}

	d.Duration = parsed

	return nil
}

// loadProfile reads a TOML profile. Unknown keys are rejected.
func loadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}

	var profile Profile

	meta, err := toml.Decode(string(data), &profile)
	if err != nil {
		return nil, fmt.Errorf("decode profile %s: %w", path, err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("profile %s: unknown key %q", path, undecoded[0].String())
	}

	return &profile, nil
}

// sessionFlags are the persistent flags shared by every subcommand.
type sessionFlags struct {
	profile        string
	sessionID      string
	model          string
	permissionMode string
	cwd            string
	maxTurns       int
	parseErrors    string
	verbose        bool
}

func (f *sessionFlags) register(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVar(&f.profile, "profile", "", "TOML profile with session defaults")
	pf.StringVar(&f.sessionID, "session-id", "", "conversation session id (default: random UUID)")
	pf.StringVar(&f.model, "model", "", "model name or alias")
	pf.StringVar(&f.permissionMode, "permission-mode", "", "default, acceptEdits, plan or bypassPermissions")
	pf.StringVar(&f.cwd, "cwd", "", "working directory for the CLI")
	pf.IntVar(&f.maxTurns, "max-turns", 0, "maximum agentic turns per prompt")
	pf.StringVar(&f.parseErrors, "parse-errors", "", "fail or skip frames that are not valid messages")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "log protocol traffic to stderr")
}

// resolvedSessionID returns the flag value or a fresh UUID.
func (f *sessionFlags) resolvedSessionID() string {
	if f.sessionID != "" {
		return f.sessionID
	}

	return uuid.NewString()
}

// options merges the profile, if any, with the flags. Flags win.
func (f *sessionFlags) options() ([]claudecode.Option, error) {
	profile := &Profile{}

	if f.profile != "" {
		loaded, err := loadProfile(f.profile)
		if err != nil {
			return nil, err
		}

		profile = loaded
	}

	if f.model != "" {
		profile.Model = f.model
	}

	if f.permissionMode != "" {
		profile.PermissionMode = f.permissionMode
	}

	if f.cwd != "" {
		profile.Cwd = f.cwd
	}

	if f.maxTurns > 0 {
		profile.MaxTurns = f.maxTurns
	}

	if f.parseErrors != "" {
		profile.ParseErrors = f.parseErrors
	}

	policy, err := claudecode.ParseErrorPolicyFromString(profile.ParseErrors)
	if err != nil {
		return nil, err
	}

	level := slog.LevelWarn
	if f.verbose {
		level = slog.LevelDebug
	}

	opts := []claudecode.Option{
		claudecode.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))),
		claudecode.WithModel(profile.Model),
		claudecode.WithSystemPrompt(profile.SystemPrompt),
		claudecode.WithPermissionMode(profile.PermissionMode),
		claudecode.WithMaxTurns(profile.MaxTurns),
		claudecode.WithCwd(profile.Cwd),
		claudecode.WithCliPath(profile.CliPath),
		claudecode.WithAllowedTools(profile.AllowedTools...),
		claudecode.WithDisallowedTools(profile.DisallowedTools...),
		claudecode.WithEnv(profile.Env),
		claudecode.WithParseErrorPolicy(policy),
	}

	if profile.MaxBufferSize > 0 {
		opts = append(opts, claudecode.WithMaxBufferSize(profile.MaxBufferSize))
	}

	if profile.ControlTimeout.Duration > 0 {
		opts = append(opts, claudecode.WithControlRequestTimeout(profile.ControlTimeout.Duration))
	}

	return opts, nil
}
