// Package cli locates the claude binary and turns session options into its
// argument vector and environment.
//
// Discovery checks Config.CliPath, then PATH, then common install locations,
// and optionally warns when `claude -v` reports a version below MinimumVersion.
//
//	path, err := cli.NewDiscoverer(&cli.Config{Logger: log}).Discover(ctx)
//	args := cli.BuildArgs(options)
//	env := cli.BuildEnvironment(options)
package cli
