package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gszep/stagehand/internal/gitutil"
)

var cloneCmd = &cobra.Command{
	Use:   "clone [repo-url]",
	Short: "Clone the working repository",
	Long: `Clone the site repository the engine works in. Uses GITHUB_TOKEN
for HTTPS authentication when set. The serve command expects the checkout
at REPO_DIR on the staging branch.`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := GetLogger()
		repoURL := args[0]

		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			output = viper.GetString("REPO_DIR")
		}
		if output == "" {
			output = gitutil.ExtractRepoName(repoURL)
		}
		branch, _ := cmd.Flags().GetString("branch")

		cloner := gitutil.NewCloner(logger)
		if err := cloner.Clone(repoURL, output, branch); err != nil {
			logger.Error("clone failed", "error", err)
			return err
		}

		logger.Info("clone completed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cloneCmd)

	cloneCmd.Flags().String("output", "", "output directory (defaults to REPO_DIR)")
	cloneCmd.Flags().String("branch", "staging", "branch to check out")
}
