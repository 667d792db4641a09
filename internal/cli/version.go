package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/rileyhilliard/btcdash/internal/ui"
	"github.com/spf13/cobra"
)

// Version information set via ldflags at build time
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	versionShort bool
	versionJSON  bool
)

// VersionOutput is the --json form of version.
type VersionOutput struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Built   string `json:"built"`
	Go      string `json:"go"`
	OS      string `json:"os"`
	Arch    string `json:"arch"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of btcdash.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if versionJSON {
			return WriteJSONSuccess(cmd.OutOrStdout(), versionInfo())
		}
		printVersion(cmd.OutOrStdout(), versionShort)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Print only the version number")
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "output in JSON format")
	versionCmd.MarkFlagsMutuallyExclusive("short", "json")
}

func versionInfo() VersionOutput {
	return VersionOutput{
		Version: formatVersion(version),
		Commit:  commit,
		Built:   date,
		Go:      runtime.Version(),
		OS:      runtime.GOOS,
		Arch:    runtime.GOARCH,
	}
}

func printVersion(w io.Writer, short bool) {
	if short {
		fmt.Fprintln(w, version)
		return
	}
	v := versionInfo()
	fmt.Fprintf(w, "btcdash %s\n", v.Version)
	fmt.Fprint(w, ui.RenderFields([]ui.Field{
		{Label: "commit", Value: v.Commit},
		{Label: "built", Value: v.Built},
		{Label: "go", Value: v.Go},
		{Label: "os/arch", Value: v.OS + "/" + v.Arch},
	}))
}

// formatVersion ensures version has a 'v' prefix for display
func formatVersion(v string) string {
	if v == "" || v == "dev" {
		return v
	}
	if v[0] != 'v' {
		return "v" + v
	}
	return v
}

// SetVersionInfo sets the version information (called from main).
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = formatVersion(v)
}

// GetVersion returns the current version string.
func GetVersion() string {
	return version
}
