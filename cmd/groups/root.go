package groups

import (
	"github.com/ltessmer/credd/cmd/util"
	libgroups "github.com/ltessmer/credd/lib/groups"
	"github.com/ltessmer/credd/rpc/client"
	"github.com/spf13/cobra"
)

var (
	rpcService libgroups.IGroupService

	// GroupCommands represents the group membership command group
	GroupCommands = &cobra.Command{
		Use:               "groups",
		Short:             "Perform group membership operations",
		PersistentPreRunE: setupGroupsClient,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add common RPC flags to the groups command
	util.SetupRPCClientFlags(GroupCommands)

	// Set default shard ID for group membership operations
	GroupCommands.PersistentFlags().Int("shard", 0, util.WrapString("ID of the shard to connect to"))

	// Add subcommands
	GroupCommands.AddCommand(registerCmd)
	GroupCommands.AddCommand(getCmd)
	GroupCommands.AddCommand(countCmd)
	GroupCommands.AddCommand(setCmd)
	GroupCommands.AddCommand(maySetCmd)
	GroupCommands.AddCommand(checkCmd)
	GroupCommands.AddCommand(checkEffectiveCmd)
	GroupCommands.AddCommand(perfTestCmd)
}

// setupGroupsClient initializes the RPC group service client
func setupGroupsClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	// Get client configuration components
	config := util.GetClientConfig()
	shardId := util.GetShardID()

	// Get serializer and transport
	s, err := util.GetSerializer()
	if err != nil {
		return err
	}

	t, err := util.GetTransport()
	if err != nil {
		return err
	}

	// Create the group service client
	rpcService, err = client.NewRPCGroupService(
		shardId,
		*config,
		t,
		s,
	)

	return err
}
