package cmd

import (
	"fmt"
	"os"

	"github.com/ltessmer/credd/cmd/groups"
	"github.com/ltessmer/credd/cmd/serve"
	"github.com/ltessmer/credd/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "1.0.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "credd",
		Short: "supplementary group membership service",
		Long: fmt.Sprintf(`credd (v%s)

A group membership service written in Go, managing supplementary
group sets for named principals with copy-on-write updates and
lock-free membership queries.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of credd",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("credd v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(groups.GroupCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "serializer"
	RootCmd.PersistentFlags().String(key, "json", util.WrapString("serializer to use (json, gob, binary)"))
	key = "transport"
	RootCmd.PersistentFlags().String(key, "http", util.WrapString("transport to use (http, tcp, unix)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
