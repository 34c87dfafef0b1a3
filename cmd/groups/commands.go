package groups

import (
	"fmt"
	"strconv"

	libgroups "github.com/ltessmer/credd/lib/groups"
	"github.com/spf13/cobra"
)

var (
	registerCmd = &cobra.Command{
		Use:   "register [name] [gid] [egid] [fsgid] [privileged] [group]...",
		Short: "Registers a new principal",
		Args:  cobra.MinimumNArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			gid, err := parseGroupID(args[1])
			if err != nil {
				return fmt.Errorf("gid must be a number: %w", err)
			}
			egid, err := parseGroupID(args[2])
			if err != nil {
				return fmt.Errorf("egid must be a number: %w", err)
			}
			fsgid, err := parseGroupID(args[3])
			if err != nil {
				return fmt.Errorf("fsgid must be a number: %w", err)
			}
			privileged, err := strconv.ParseBool(args[4])
			if err != nil {
				return fmt.Errorf("privileged must be a boolean: %w", err)
			}
			groupIDs, err := parseGroupIDs(args[5:])
			if err != nil {
				return err
			}
			if err := rpcService.RegisterPrincipal(name, libgroups.PrincipalSpec{
				GID:        gid,
				EGID:       egid,
				FSGID:      fsgid,
				Privileged: privileged,
				Groups:     groupIDs,
			}); err != nil {
				return err
			} else {
				fmt.Println("registered successfully")
			}
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [principal]",
		Short: "Reads the supplementary groups of a principal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			principal := args[0]
			n, err := rpcService.CountGroups(principal)
			if err != nil {
				return err
			}
			if groupIDs, err := rpcService.GetGroups(principal, n); err != nil {
				return err
			} else {
				fmt.Printf("principal=%s, count=%d, groups=%v\n", principal, n, groupIDs)
			}
			return nil
		},
	}
	countCmd = &cobra.Command{
		Use:   "count [principal]",
		Short: "Counts the supplementary groups of a principal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			principal := args[0]
			if n, err := rpcService.CountGroups(principal); err != nil {
				return err
			} else {
				fmt.Printf("principal=%s, count=%d\n", principal, n)
			}
			return nil
		},
	}
	setCmd = &cobra.Command{
		Use:   "set [caller] [principal] [group]...",
		Short: "Replaces the supplementary groups of a principal",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller := args[0]
			principal := args[1]
			groupIDs, err := parseGroupIDs(args[2:])
			if err != nil {
				return err
			}
			if err := rpcService.SetGroups(caller, principal, groupIDs); err != nil {
				return err
			} else {
				fmt.Println("set successfully")
			}
			return nil
		},
	}
	maySetCmd = &cobra.Command{
		Use:   "may-set [principal]",
		Short: "Checks if a principal may install arbitrary group sets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			principal := args[0]
			if ok, err := rpcService.MaySetGroups(principal); err != nil {
				return err
			} else {
				fmt.Printf("principal=%s, maySetGroups=%t\n", principal, ok)
			}
			return nil
		},
	}
	checkCmd = &cobra.Command{
		Use:   "check [principal] [group]",
		Short: "Checks if a principal is a member of a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			principal := args[0]
			group, err := parseGroupID(args[1])
			if err != nil {
				return fmt.Errorf("group must be a number: %w", err)
			}
			if ok, err := rpcService.InGroup(principal, group); err != nil {
				return err
			} else {
				fmt.Printf("principal=%s, group=%d, member=%t\n", principal, group, ok)
			}
			return nil
		},
	}
	checkEffectiveCmd = &cobra.Command{
		Use:   "check-effective [principal] [group]",
		Short: "Checks if a principal is a member of a group, including the effective group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			principal := args[0]
			group, err := parseGroupID(args[1])
			if err != nil {
				return fmt.Errorf("group must be a number: %w", err)
			}
			if ok, err := rpcService.InEffectiveGroup(principal, group); err != nil {
				return err
			} else {
				fmt.Printf("principal=%s, group=%d, member=%t\n", principal, group, ok)
			}
			return nil
		},
	}
)

// parseGroupID parses a single group identifier
func parseGroupID(s string) (uint32, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(id), nil
}

// parseGroupIDs parses a list of group identifiers
func parseGroupIDs(args []string) ([]uint32, error) {
	groupIDs := make([]uint32, 0, len(args))
	for _, arg := range args {
		id, err := parseGroupID(arg)
		if err != nil {
			return nil, fmt.Errorf("group must be a number: %w", err)
		}
		groupIDs = append(groupIDs, id)
	}
	return groupIDs, nil
}
