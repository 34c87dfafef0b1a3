package groups

import (
	"encoding/csv"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ltessmer/credd/cmd/util"
	libgroups "github.com/ltessmer/credd/lib/groups"
	"github.com/ltessmer/credd/rpc/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for credd servers",
		Long:    "Runs a series of benchmarks against a running credd server. The tool registers synthetic principals under the __perf prefix; registrations are permanent, so reruns against the same server reuse them.",
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfPrincipalPrefix    = "__perf"
	perfAdminName          = "__perf-admin"
	perfNumThreads         = 10
	perfPrincipalSpread    = 100
	perfGroupsPerPrincipal = 32
	perfSkip               = make([]string, 0)
)

func init() {
	// add flags
	key := "skip"
	GroupCommands.PersistentFlags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. set,in-group)"))
	key = "threads"
	GroupCommands.PersistentFlags().Int(key, 10, util.WrapString("Number of threads to use for the benchmark"))
	key = "principals"
	GroupCommands.PersistentFlags().Int(key, 100, util.WrapString("How many different principals to use for the tests"))
	key = "groups-per-principal"
	GroupCommands.PersistentFlags().Int(key, 32, util.WrapString("How many supplementary groups each test principal should hold"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfNumThreads = viper.GetInt("threads")
	perfPrincipalSpread = viper.GetInt("principals")
	perfGroupsPerPrincipal = viper.GetInt("groups-per-principal")
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

func runPerf(_ *cobra.Command, _ []string) error {

	fmt.Println("Performance testing tool for credd servers")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(util.GetClientConfig().String())
	fmt.Printf("Threads: %d\n", perfNumThreads)
	fmt.Printf("Principals: %d\n", perfPrincipalSpread)
	fmt.Printf("Groups per principal: %d\n", perfGroupsPerPrincipal)
	fmt.Println()

	fmt.Println("registering test principals...")

	// The admin principal installs group sets on behalf of the test principals.
	// Registration errors are logged but not fatal: reruns against the same
	// server hit already registered names.
	if err := rpcService.RegisterPrincipal(perfAdminName, libgroups.PrincipalSpec{
		GID: 1, EGID: 1, FSGID: 1, Privileged: true,
	}); err != nil {
		log.Printf("(setup) - error registering admin principal: %v\n", err)
	}

	getName, iter := getPrincipals()
	iter(func(name string) {
		if err := rpcService.RegisterPrincipal(name, libgroups.PrincipalSpec{
			GID:    1,
			EGID:   1,
			FSGID:  1,
			Groups: evenGroups(perfGroupsPerPrincipal),
		}); err != nil {
			log.Printf("(setup) - error registering principal: %v\n", err)
		}
	})

	fmt.Println("starting tests...")

	// Create results map
	results := make(map[string]testing.BenchmarkResult)

	inGroupResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("in-group") {
			return
		}

		b.SetParallelism(perfNumThreads)

		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				// even group IDs are members
				_, err := rpcService.InGroup(getName(counter), 2)
				if err != nil {
					log.Printf("(in-group) - error checking membership: %v\n", err)
				}
				counter++
			}
		})
	})

	results["in-group"] = inGroupResult
	printResult("in-group", inGroupResult)

	inGroupMissResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("in-group-miss") {
			return
		}

		b.SetParallelism(perfNumThreads)

		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				// odd group IDs never match
				_, err := rpcService.InGroup(getName(counter), 3)
				if err != nil {
					log.Printf("(in-group-miss) - error checking membership: %v\n", err)
				}
				counter++
			}
		})
	})

	results["in-group-miss"] = inGroupMissResult
	printResult("in-group-miss", inGroupMissResult)

	inEffectiveResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("in-effective") {
			return
		}

		b.SetParallelism(perfNumThreads)

		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				// group 1 is the effective group of every test principal
				_, err := rpcService.InEffectiveGroup(getName(counter), 1)
				if err != nil {
					log.Printf("(in-effective) - error checking membership: %v\n", err)
				}
				counter++
			}
		})
	})

	results["in-effective"] = inEffectiveResult
	printResult("in-effective", inEffectiveResult)

	getResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("get") {
			return
		}

		b.SetParallelism(perfNumThreads)

		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				_, err := rpcService.GetGroups(getName(counter), perfGroupsPerPrincipal)
				if err != nil {
					log.Printf("(get) - error getting groups: %v\n", err)
				}
				counter++
			}
		})
	})

	results["get"] = getResult
	printResult("get", getResult)

	countResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("count") {
			return
		}

		b.SetParallelism(perfNumThreads)

		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				_, err := rpcService.CountGroups(getName(counter))
				if err != nil {
					log.Printf("(count) - error counting groups: %v\n", err)
				}
				counter++
			}
		})
	})

	results["count"] = countResult
	printResult("count", countResult)

	setResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("set") {
			return
		}

		groupSet := evenGroups(perfGroupsPerPrincipal)

		b.SetParallelism(perfNumThreads)

		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				err := rpcService.SetGroups(perfAdminName, getName(counter), groupSet)
				if err != nil {
					log.Printf("(set) - error setting groups: %v\n", err)
				}
				counter++
			}
		})
	})

	results["set"] = setResult
	printResult("set", setResult)

	mixedUsageResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("mixed") {
			return
		}

		groupSet := evenGroups(perfGroupsPerPrincipal)

		b.SetParallelism(perfNumThreads)

		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				name := getName(counter)
				var err error
				switch counter % 4 {
				case 0: // point query
					_, err = rpcService.InGroup(name, 2)
				case 1: // export
					_, err = rpcService.GetGroups(name, perfGroupsPerPrincipal)
				case 2: // count
					_, err = rpcService.CountGroups(name)
				case 3: // replace
					err = rpcService.SetGroups(perfAdminName, name, groupSet)
				}

				if err != nil {
					log.Printf("(mixed) - error performing operation (%d): %v\n", counter%4, err)
				}
				counter++
			}
		})
	})

	results["mixed"] = mixedUsageResult
	printResult("mixed", mixedUsageResult)

	// Write results to csv is specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results, util.GetClientConfig()); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	// Check if the test is in the skip list
	for _, skip := range perfSkip {
		if test == skip {
			return true
		}
	}
	return false
}

// getPrincipals creates an array of test principal names and functions to work with them
func getPrincipals() (func(int) string, func(func(string))) {
	names := make([]string, perfPrincipalSpread)
	for i := 0; i < perfPrincipalSpread; i++ {
		names[i] = fmt.Sprintf("%s-%d", perfPrincipalPrefix, i)
	}

	// Function to get a name by index (with wraparound)
	getName := func(i int) string {
		return names[i%perfPrincipalSpread]
	}

	// Function to iterate over all names and apply a function to each
	iterateNames := func(fn func(string)) {
		for _, name := range names {
			fn(name)
		}
	}

	return getName, iterateNames
}

// evenGroups returns n even group identifiers (odd IDs are guaranteed misses)
func evenGroups(n int) []uint32 {
	groupIDs := make([]uint32, n)
	for i := 0; i < n; i++ {
		groupIDs[i] = uint32(2 * (i + 1))
	}
	return groupIDs
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, result testing.BenchmarkResult) {
	if result.NsPerOp() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	// Print the formatted result
	fmt.Printf("%-20s%.0fns/op (%s/op)\t%.0f ops/sec\n", test, nsPerOp, time.Duration(nsPerOp), opsPerSec)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]testing.BenchmarkResult, config *common.ClientConfig) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "Skipped",
		"Endpoints", "TimeoutSec", "RetryCount", "ConnectionsPerEndpoint",
		"ShardID", "Serializer", "Transport",
		"Threads", "Principals", "GroupsPerPrincipal",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// Write test results
	for test, result := range results {
		var nsPerOp float64
		var opsPerSec float64
		var skipped string

		if result.NsPerOp() == 0 {
			skipped = "true"
			nsPerOp = 0
			opsPerSec = 0
		} else {
			skipped = "false"
			nsPerOp = math.Max(float64(result.NsPerOp()), 1)
			opsPerSec = 1.0 / (nsPerOp / 1e9)
		}

		row := []string{
			test,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			skipped,
			strings.Join(config.Endpoints, ";"),
			strconv.Itoa(config.TimeoutSecond),
			strconv.Itoa(config.RetryCount),
			strconv.Itoa(config.ConnectionsPerEndpoint),
			strconv.FormatUint(util.GetShardID(), 10),
			viper.GetString("serializer"),
			viper.GetString("transport"),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfPrincipalSpread),
			strconv.Itoa(perfGroupsPerPrincipal),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}

	return nil
}
