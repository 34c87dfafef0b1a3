package serve

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	cmdUtil "github.com/ltessmer/credd/cmd/util"
	"github.com/ltessmer/credd/lib/groups"
	"github.com/ltessmer/credd/rpc/common"
	"github.com/ltessmer/credd/rpc/serializer"
	"github.com/ltessmer/credd/rpc/server"
	"github.com/ltessmer/credd/rpc/transport"
	"github.com/ltessmer/credd/rpc/transport/http"
	"github.com/ltessmer/credd/rpc/transport/tcp"
	"github.com/ltessmer/credd/rpc/transport/unix"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start the credd server",
		Long:    `Start the credd server with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is CREDD_<flag> (e.g. CREDD_LOG_LEVEL=debug)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(initConfig)

	// add flags
	key := "shards"
	ServeCmd.PersistentFlags().String(key, "0", cmdUtil.WrapString("Comma-separated list of shard IDs to serve. Each shard is backed by an independent group service with its own principal namespace"))

	key = "max-groups"
	ServeCmd.PersistentFlags().Int(key, 65536, cmdUtil.WrapString("Maximum number of supplementary groups a single principal may hold"))

	key = "seed"
	ServeCmd.PersistentFlags().StringArray(key, nil, cmdUtil.WrapString("Principal to register on every shard at startup. Format: NAME=GID:EGID:FSGID:PRIVILEGED:GROUPS where GROUPS is a comma-separated list of group IDs (may be empty). Can be specified multiple times (e.g. --seed 'root=0:0:0:true:')"))

	key = "timeout"
	ServeCmd.PersistentFlags().Int64(key, 5, cmdUtil.WrapString("Timeout in seconds"))

	key = "endpoint"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0:8080", cmdUtil.WrapString("The address on which the API will listen (e.g. http:localhost:8080, /tmp/credd.sock, ...)"))

	key = "metrics-endpoint"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("The address on which request metrics are exported in Prometheus format (e.g. localhost:9090, empty = disabled)"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// parse shards
	shardsConfig := viper.GetString("shards")
	serveCmdConfig.Shards = []uint64{}
	for _, shardConfig := range strings.Split(shardsConfig, ",") {
		shardID, err := strconv.ParseUint(strings.TrimSpace(shardConfig), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid shard ID %s: %v", shardConfig, err)
		}
		serveCmdConfig.Shards = append(serveCmdConfig.Shards, shardID)
	}

	// parse principal seeds
	serveCmdConfig.Seeds = []common.PrincipalSeed{}
	for _, seedConfig := range viper.GetStringSlice("seed") {
		seed, err := parseSeed(seedConfig)
		if err != nil {
			return err
		}
		serveCmdConfig.Seeds = append(serveCmdConfig.Seeds, seed)
	}

	// read the configuration from the command line flags and environment variables
	serveCmdConfig.MaxGroups = viper.GetInt("max-groups")
	serveCmdConfig.TimeoutSecond = viper.GetInt64("timeout")
	serveCmdConfig.Endpoint = viper.GetString("endpoint")
	serveCmdConfig.MetricsEndpoint = viper.GetString("metrics-endpoint")
	serveCmdConfig.LogLevel = viper.GetString("log-level")

	return nil
}

// parseSeed parses a principal seed in the format NAME=GID:EGID:FSGID:PRIVILEGED:GROUPS
func parseSeed(s string) (common.PrincipalSeed, error) {
	parts := strings.SplitN(s, "=", 2)
	if len(parts) != 2 || parts[0] == "" {
		return common.PrincipalSeed{}, fmt.Errorf("invalid seed format: %s (expected NAME=GID:EGID:FSGID:PRIVILEGED:GROUPS)", s)
	}
	name := strings.TrimSpace(parts[0])

	fields := strings.Split(parts[1], ":")
	if len(fields) != 5 {
		return common.PrincipalSeed{}, fmt.Errorf("invalid seed format: %s (expected NAME=GID:EGID:FSGID:PRIVILEGED:GROUPS)", s)
	}

	gid, err := strconv.ParseUint(strings.TrimSpace(fields[0]), 10, 32)
	if err != nil {
		return common.PrincipalSeed{}, fmt.Errorf("invalid GID in seed %s: %v", s, err)
	}
	egid, err := strconv.ParseUint(strings.TrimSpace(fields[1]), 10, 32)
	if err != nil {
		return common.PrincipalSeed{}, fmt.Errorf("invalid EGID in seed %s: %v", s, err)
	}
	fsgid, err := strconv.ParseUint(strings.TrimSpace(fields[2]), 10, 32)
	if err != nil {
		return common.PrincipalSeed{}, fmt.Errorf("invalid FSGID in seed %s: %v", s, err)
	}
	privileged, err := strconv.ParseBool(strings.TrimSpace(fields[3]))
	if err != nil {
		return common.PrincipalSeed{}, fmt.Errorf("invalid PRIVILEGED in seed %s: %v", s, err)
	}

	var groupIDs []uint32
	if g := strings.TrimSpace(fields[4]); g != "" {
		for _, id := range strings.Split(g, ",") {
			group, err := strconv.ParseUint(strings.TrimSpace(id), 10, 32)
			if err != nil {
				return common.PrincipalSeed{}, fmt.Errorf("invalid group ID %s in seed %s: %v", id, s, err)
			}
			groupIDs = append(groupIDs, uint32(group))
		}
	}

	return common.PrincipalSeed{
		Name: name,
		Spec: groups.PrincipalSpec{
			GID:        uint32(gid),
			EGID:       uint32(egid),
			FSGID:      uint32(fsgid),
			Privileged: privileged,
			Groups:     groupIDs,
		},
	}, nil
}

// run starts the credd server
func run(_ *cobra.Command, _ []string) error {

	// parse the serializer
	var s serializer.IRPCSerializer
	switch viper.GetString("serializer") {
	case "json":
		s = serializer.NewJSONSerializer()
	case "gob":
		s = serializer.NewGOBSerializer()
	case "binary":
		s = serializer.NewBinarySerializer()
	default:
		return fmt.Errorf("invalid serializer %s", viper.GetString("serializer"))
	}

	// Parse the transport
	var t transport.IRPCServerTransport
	switch viper.GetString("transport") {
	case "http":
		t = http.NewHttpServerTransport()
	case "tcp":
		t = tcp.NewTCPServerTransport()
	case "unix":
		t = unix.NewUnixServerTransport()
	default:
		return fmt.Errorf("invalid transport %s", viper.GetString("transport"))
	}

	serv := server.NewRPCServer(
		*serveCmdConfig,
		t,
		s,
	)

	return serv.Serve()
}

// initConfig reads in serveCmdConfig file and ENV variables if set.
func initConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("credd")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}
