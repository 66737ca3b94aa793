package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/wagiedev/claude-code-sdk-go/internal/errors"
)

const (
	// MinimumVersion is the minimum required Claude CLI version.
	MinimumVersion = "2.0.0"

	// VersionCheckTimeout bounds the `claude -v` preflight.
	VersionCheckTimeout = 2 * time.Second

	// skipVersionCheckEnv disables the preflight when set to any value.
	skipVersionCheckEnv = "CLAUDE_AGENT_SDK_SKIP_VERSION_CHECK"
)

var versionPattern = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)`)

// Config holds configuration for CLI discovery.
type Config struct {
	// CliPath is an explicit CLI path that skips PATH search.
	// If empty, discovery will search PATH and common locations.
	CliPath string

	// SkipVersionCheck disables the `-v` preflight, as does setting
	// CLAUDE_AGENT_SDK_SKIP_VERSION_CHECK.
	SkipVersionCheck bool

	// Logger defaults to discarding output.
	Logger *slog.Logger
}

// Discoverer locates and validates the Claude CLI binary.
type Discoverer interface {
	// Discover locates the Claude CLI binary and validates its version.
	// Returns the absolute path to the CLI binary or an error.
	Discover(ctx context.Context) (string, error)
}

// discoverer implements the Discoverer interface.
type discoverer struct {
	cfg *Config
	log *slog.Logger
}

// Compile-time verification that discoverer implements Discoverer.
var _ Discoverer = (*discoverer)(nil)

// NewDiscoverer creates a new CLI discoverer with the given configuration.
func NewDiscoverer(cfg *Config) Discoverer {
	if cfg == nil {
		cfg = &Config{}
	}

	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return &discoverer{
		cfg: cfg,
		log: log.With("component", "cli_discovery"),
	}
}

// Discover returns the CLI path. A version below MinimumVersion is logged,
// never fatal.
func (d *discoverer) Discover(ctx context.Context) (string, error) {
	cliPath, err := d.locate()
	if err != nil {
		d.log.Error("Failed to find Claude CLI", "error", err)

		return "", err
	}

	d.log.Debug("Using Claude CLI", "cli_path", cliPath)

	if d.versionCheckDisabled() {
		return cliPath, nil
	}

	v, err := probeVersion(ctx, cliPath)

	switch {
	case err != nil:
		d.log.Debug("CLI version check failed", "error", err)
	case v.less(minimumVersion):
		d.log.Warn("Claude CLI version is below the supported minimum",
			"version", v.String(),
			"minimum_required", MinimumVersion,
		)
	default:
		d.log.Debug("CLI version check passed", "version", v.String())
	}

	return cliPath, nil
}

// locate resolves the binary: the explicit path alone when one is configured,
// otherwise PATH followed by the usual install locations.
func (d *discoverer) locate() (string, error) {
	if d.cfg.CliPath != "" {
		if isFile(d.cfg.CliPath) {
			return d.cfg.CliPath, nil
		}

		return "", &errors.CLINotFoundError{SearchedPaths: []string{d.cfg.CliPath}}
	}

	if path, err := exec.LookPath("claude"); err == nil {
		return path, nil
	}

	candidates := candidatePaths()
	if i := slices.IndexFunc(candidates, isFile); i >= 0 {
		return candidates[i], nil
	}

	searched := append([]string{"$PATH"}, candidates...)
	d.log.Warn("Claude CLI not found", "searched_paths", searched)

	return "", &errors.CLINotFoundError{SearchedPaths: searched}
}

func (d *discoverer) versionCheckDisabled() bool {
	return d.cfg.SkipVersionCheck || os.Getenv(skipVersionCheckEnv) != ""
}

func isFile(path string) bool {
	info, err := os.Stat(path)

	return err == nil && !info.IsDir()
}

// candidatePaths lists install locations checked when claude is not on PATH.
func candidatePaths() []string {
	paths := []string{
		"/usr/local/bin/claude",
		"/usr/bin/claude",
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return paths
	}

	return append(paths,
		filepath.Join(home, ".local", "bin", "claude"),
		filepath.Join(home, ".claude", "local", "claude"),
		filepath.Join(home, ".npm-global", "bin", "claude"),
		filepath.Join(home, "node_modules", ".bin", "claude"),
		filepath.Join(home, ".yarn", "bin", "claude"),
	)
}

// semver is a major.minor.patch triple.
type semver [3]int

var minimumVersion = mustParseVersion(MinimumVersion)

func (v semver) less(other semver) bool {
	return slices.Compare(v[:], other[:]) < 0
}

func (v semver) String() string {
	return fmt.Sprintf("%d.%d.%d", v[0], v[1], v[2])
}

// parseVersion reads the leading x.y.z of s, as printed by `claude -v`
// ("2.0.14 (Claude Code)").
func parseVersion(s string) (semver, bool) {
	match := versionPattern.FindStringSubmatch(strings.TrimSpace(s))
	if match == nil {
		return semver{}, false
	}

	var v semver

	for i := range v {
		n, err := strconv.Atoi(match[i+1])
		if err != nil {
			return semver{}, false
		}

		v[i] = n
	}

	return v, true
}

func mustParseVersion(s string) semver {
	v, ok := parseVersion(s)
	if !ok {
		panic("invalid version " + s)
	}

	return v
}

// probeVersion runs `cliPath -v`, bounded by VersionCheckTimeout.
func probeVersion(ctx context.Context, cliPath string) (semver, error) {
	ctx, cancel := context.WithTimeout(ctx, VersionCheckTimeout)
	defer cancel()

	output, err := exec.CommandContext(ctx, cliPath, "-v").Output()
	if err != nil {
		return semver{}, fmt.Errorf("run %s -v: %w", cliPath, err)
	}

	v, ok := parseVersion(string(output))
	if !ok {
		return semver{}, fmt.Errorf("unrecognized version output %q", strings.TrimSpace(string(output)))
	}

	return v, nil
}
