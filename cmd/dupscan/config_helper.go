package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// explicitFlags reports which flags the user actually set on the
// command line, so config values are only overridden deliberately.
func explicitFlags(cmd *cobra.Command) map[string]bool {
	set := make(map[string]bool)
	if cmd == nil {
		return set
	}
	cmd.Flags().Visit(func(f *pflag.Flag) {
		set[f.Name] = true
	})
	return set
}
