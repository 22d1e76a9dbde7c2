package root

import (
	"github.com/spf13/cobra"

	"github.com/crucial707/ipo-schedule/cmd/cli/admin"
	"github.com/crucial707/ipo-schedule/cmd/cli/schedules"
)

// Exported RootCmd
var RootCmd = &cobra.Command{
	Use:           "ipoctl",
	Short:         "IPO schedule CLI",
	Long:          "Command line interface for the IPO subscription schedule API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	schedules.InitSchedules(RootCmd)
	admin.InitAdmin(RootCmd)
}

// Optional helper to return the RootCmd
func GetRoot() *cobra.Command {
	return RootCmd
}
