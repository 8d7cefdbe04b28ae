package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Build metadata. Release builds inject these via -ldflags; anything
// left empty falls back to the module and VCS stamps the Go toolchain
// records in the binary.
var (
	version = ""
	commit  = ""
	date    = ""
)

// buildVersion resolves the version string, preferring the ldflags
// value over the module version, with "(devel)" for source builds.
func buildVersion() string {
	if version != "" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "(devel)"
}

// buildCommit resolves the commit hash, shortened to seven characters
// when it comes from the VCS stamp.
func buildCommit() string {
	if commit != "" {
		return commit
	}
	if rev := vcsSetting("vcs.revision"); rev != "" {
		if len(rev) > 7 {
			return rev[:7]
		}
		return rev
	}
	return "unknown"
}

// buildDate resolves the build timestamp.
func buildDate() string {
	if date != "" {
		return date
	}
	if t := vcsSetting("vcs.time"); t != "" {
		return t
	}
	return "unknown"
}

// vcsSetting reads one key from the binary's embedded build settings.
func vcsSetting(key string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == key {
			return s.Value
		}
	}
	return ""
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version and build information",
		Long:  "Show the visaingest version together with the commit hash and build date it was built from.",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "visaingest %s (commit %s, built %s)\n",
				buildVersion(), buildCommit(), buildDate())
		},
	}
}
