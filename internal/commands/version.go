package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// NewVersionCmd creates the version command
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("smanager %s (%s, %s/%s)\n", GetCurrentVersion(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
