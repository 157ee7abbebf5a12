package cmd

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ambientdeck/ambientdeck/internal/appid"
	"github.com/ambientdeck/ambientdeck/internal/output"
)

var versionExtended bool

// versionReport is what `version` prints. The extended fields stay empty
// unless --extended is given.
type versionReport struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Commit    string `json:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	GoVersion string `json:"go_version,omitempty"`
	Platform  string `json:"platform,omitempty"`
	BoardAPI  string `json:"board_api,omitempty"`
	Gofulmen  string `json:"gofulmen,omitempty"`
	Crucible  string `json:"crucible,omitempty"`
}

func newVersionReport(identity *appid.Identity, extended bool) versionReport {
	name := "ambientdeck"
	if identity != nil && identity.BinaryName != "" {
		name = identity.BinaryName
	}
	report := versionReport{Name: name, Version: versionInfo.Version}
	if !extended {
		return report
	}

	deps := crucible.GetVersion()
	report.Commit = versionInfo.Commit
	report.BuildDate = versionInfo.BuildDate
	report.GoVersion = runtime.Version()
	report.Platform = runtime.GOOS + "/" + runtime.GOARCH
	report.BoardAPI = boardAPI(viper.GetString("board.base_url"), viper.GetString("board.api_version"))
	report.Gofulmen = deps.Gofulmen
	report.Crucible = deps.Crucible
	return report
}

func boardAPI(baseURL, apiVersion string) string {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	apiVersion = strings.Trim(strings.TrimSpace(apiVersion), "/")
	switch {
	case baseURL == "":
		return ""
	case apiVersion == "":
		return baseURL
	default:
		return baseURL + "/" + apiVersion
	}
}

func renderVersion(format output.Format, report versionReport, extended bool) (string, error) {
	if !extended && format == output.FormatTable {
		return report.Name + " " + report.Version, nil
	}

	t := output.Table{Title: report.Name, Header: []string{"Component", "Version"}}
	t.Rows = append(t.Rows, []string{report.Name, report.Version})
	if extended {
		t.Rows = append(t.Rows,
			[]string{"commit", report.Commit},
			[]string{"built", report.BuildDate},
			[]string{"go", fmt.Sprintf("%s (%s)", report.GoVersion, report.Platform)},
			[]string{"board api", report.BoardAPI},
			[]string{"gofulmen", report.Gofulmen},
			[]string{"crucible", report.Crucible},
		)
	}
	return output.Render(format, report, t)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Print version information. --extended adds build, runtime, board API and gofulmen details.",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := resolveOutputFormat(cmd)
		if err != nil {
			return err
		}

		rendered, err := renderVersion(format, newVersionReport(GetAppIdentity(), versionExtended), versionExtended)
		if err != nil {
			return err
		}
		return writeOutput(cmd, format, "version", rendered)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	addOutputFlags(versionCmd, "table|json|markdown")
	versionCmd.Flags().BoolVarP(&versionExtended, "extended", "e", false, "show extended version information")
}
