package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/vvka-141/pgwait/internal/config"
	"github.com/vvka-141/pgwait/pkg/pgwait"
)

// sslModes contains valid PostgreSQL SSL modes for shell completion.
var sslModes = []string{"disable", "allow", "prefer", "require", "verify-ca", "verify-full"}

var authMethods = []string{"standard", "aws", "google", "azure"}

var backoffNames = []string{config.BackoffFixed, config.BackoffExponential}

func matchPrefix(candidates []string, toComplete string) []string {
	var matches []string
	for _, c := range candidates {
		if strings.HasPrefix(c, toComplete) {
			matches = append(matches, c)
		}
	}
	return matches
}

// completeSSLModes provides shell completion for SSL mode flag values.
func completeSSLModes(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return matchPrefix(sslModes, toComplete), cobra.ShellCompDirectiveNoFileComp
}

func completeAuthMethods(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return matchPrefix(authMethods, toComplete), cobra.ShellCompDirectiveNoFileComp
}

func completeBackoff(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return matchPrefix(backoffNames, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeErrorKinds completes the last element of a comma-separated kind list.
func completeErrorKinds(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	head, last := "", toComplete
	if i := strings.LastIndex(toComplete, ","); i >= 0 {
		head, last = toComplete[:i+1], toComplete[i+1:]
	}

	var matches []string
	for _, name := range matchPrefix(pgwait.KindNames(), last) {
		matches = append(matches, head+name)
	}
	return matches, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
}

// completeDirectories provides shell completion for directory paths.
func completeDirectories(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	// Let the shell handle directory completion
	return nil, cobra.ShellCompDirectiveFilterDirs
}
