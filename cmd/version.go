package cmd

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/kamal-hamza/stg-cli/pkg/ui"
)

// Version information - these can be set during build with ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:     "version",
	Short:   "Display version information",
	Aliases: []string{"v"},
	Long: `Display the version of stg and the Go toolchain it was built with. (alias: v)

Binaries installed with "go install" report the module version even when
no ldflags were set.`,
	Run: runVersion,
}

func runVersion(cmd *cobra.Command, args []string) {
	info, _ := debug.ReadBuildInfo()

	fmt.Println(ui.StyleTitle.Render("STG") + " - File Staging Client")
	fmt.Println()
	fmt.Println(ui.RenderKeyValue("Version", resolveVersion(Version, info)))
	fmt.Println(ui.RenderKeyValue("Commit", resolveCommit(GitCommit, info)))
	fmt.Println(ui.RenderKeyValue("Build Date", BuildDate))
	fmt.Println(ui.RenderKeyValue("Go", runtime.Version()))
}

// resolveVersion prefers the ldflags value, then the module version
func resolveVersion(version string, info *debug.BuildInfo) string {
	if version != "dev" || info == nil {
		return version
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		return v
	}
	return version
}

// resolveCommit falls back to the VCS revision stamped by the go command
func resolveCommit(commit string, info *debug.BuildInfo) string {
	if commit != "unknown" || info == nil {
		return commit
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && s.Value != "" {
			if len(s.Value) > 12 {
				return s.Value[:12]
			}
			return s.Value
		}
	}
	return commit
}
