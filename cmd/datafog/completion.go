package datafog

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			w := c.OutOrStdout()
			switch args[0] {
			case "bash":
				return rootCmd.GenBashCompletion(w)
			case "zsh":
				return rootCmd.GenZshCompletion(w)
			case "fish":
				return rootCmd.GenFishCompletion(w, true)
			case "powershell":
				return rootCmd.GenPowerShellCompletionWithDesc(w)
			default:
				return fmt.Errorf("%w: unsupported shell %q", errUsage, args[0])
			}
		},
		Example: `
# Bash
datafog completion bash > /etc/bash_completion.d/datafog

# Zsh
datafog completion zsh > "${fpath[1]}/_datafog"

# Fish
datafog completion fish > ~/.config/fish/completions/datafog.fish`,
	}
	rootCmd.AddCommand(cmd)
}
