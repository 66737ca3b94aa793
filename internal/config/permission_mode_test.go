package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizePermissionMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "legacy acceptAll", in: "acceptAll", want: "bypassPermissions"},
		{name: "legacy prompt", in: "prompt", want: "default"},
		{name: "current mode unchanged", in: "acceptEdits", want: "acceptEdits"},
		{name: "empty unchanged", in: "", want: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tc.want, NormalizePermissionMode(tc.in))
		})
	}
}

func TestParseErrorPolicyString(t *testing.T) {
	require.Equal(t, "fail", ParseErrorFail.String())
	require.Equal(t, "skip", ParseErrorSkip.String())
	require.Equal(t, "unknown", ParseErrorPolicy(9).String())

	var opts Options
	require.Equal(t, ParseErrorFail, opts.ParseErrorPolicy, "zero value fails on parse errors")
}

func TestParseErrorPolicyFromString(t *testing.T) {
	tests := []struct {
		in      string
		want    ParseErrorPolicy
		wantErr bool
	}{
		{in: "fail", want: ParseErrorFail},
		{in: "", want: ParseErrorFail},
		{in: "skip", want: ParseErrorSkip},
		{in: "SKIP", want: ParseErrorSkip},
		{in: "ignore", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseErrorPolicyFromString(tt.in)
			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestResolvePermissionMode(t *testing.T) {
	mode, err := ResolvePermissionMode("acceptAll")
	require.NoError(t, err)
	require.Equal(t, "bypassPermissions", mode)

	mode, err = ResolvePermissionMode("plan")
	require.NoError(t, err)
	require.Equal(t, "plan", mode)

	_, err = ResolvePermissionMode("yolo")
	require.ErrorContains(t, err, "yolo")
}
