package config

import (
	"fmt"
	"slices"
)

// permissionModes lists the modes the CLI accepts after normalization.
var permissionModes = []string{"default", "acceptEdits", "plan", "bypassPermissions"}

// NormalizePermissionMode maps legacy permission mode names to current CLI values.
//
// Legacy mappings:
//   - "acceptAll" -> "bypassPermissions"
//   - "prompt" -> "default"
func NormalizePermissionMode(mode string) string {
	switch mode {
	case "acceptAll":
		return "bypassPermissions"
	case "prompt":
		return "default"
	default:
		return mode
	}
}

// ResolvePermissionMode normalizes mode and rejects names the CLI does not know.
func ResolvePermissionMode(mode string) (string, error) {
	normalized := NormalizePermissionMode(mode)
	if !slices.Contains(permissionModes, normalized) {
		return "", fmt.Errorf("unknown permission mode %q", mode)
	}

	return normalized, nil
}
