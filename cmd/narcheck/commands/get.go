package commands

import (
	"fmt"

	"narcheck/pkg/source"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get [store-path-id|hash]",
	Short: "Fetch and validate one narinfo from the configured source",
	Long: `Read <hash>.narinfo from the configured binary cache (disk or S3) and print the parsed record.
Accepts a bare hash, a hash-name store path id, or a full /nix/store path.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if NC == nil {
			return fmt.Errorf("app not initialized")
		}

		name := source.NameFor(baseName(args[0]))
		info, err := NC.Checker.Fetch(cmd.Context(), name)
		return render(cmd.OutOrStdout(), name, info, err)
	},
}

// baseName 去掉 /nix/store/ 之类的目录前缀
func baseName(arg string) string {
	for i := len(arg) - 1; i >= 0; i-- {
		if arg[i] == '/' {
			return arg[i+1:]
		}
	}
	return arg
}

func init() {
	rootCmd.AddCommand(getCmd)
}
