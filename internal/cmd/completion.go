package cmd

import (
	"github.com/spf13/cobra"
)

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish]",
		Short: "Generate shell completion script",
		Long: `Generate shell completion script for toolup.

To load completions:

Bash:
  $ source <(toolup completion bash)

  # To load completions for each session, execute once:
  $ toolup completion bash > /etc/bash_completion.d/toolup

Zsh:
  # If shell completion is not already enabled in your environment,
  # enable it once with:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  $ toolup completion zsh > "${fpath[1]}/_toolup"

Fish:
  $ toolup completion fish > ~/.config/fish/completions/toolup.fish
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			}
			return nil
		},
	}
}
