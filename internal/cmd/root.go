package cmd

import (
	"github.com/XavierBriggs/fortuna/services/replay-api/internal/config"
	"github.com/XavierBriggs/fortuna/services/replay-api/internal/fixtures"
	"github.com/XavierBriggs/fortuna/services/replay-api/internal/logger"
	"github.com/XavierBriggs/fortuna/services/replay-api/internal/storage"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "replayctl",
	Short: "Operate on replay fixtures and parsed replay artifacts",
	Long: `replayctl stages replay files, sends them to the analysis service,
and inspects the positions the API would serve for a parsed replay.

Directories and service URLs come from the same environment variables as
the replay API (PARSED_DIR, REPLAY_DIR, ANALYZER_URL, TEST_DIR, ...).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		appConfig = cfg
		log = logger.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
		if verbose {
			log.SetLevel(logrus.DebugLevel)
		}
		return nil
	},
}

var (
	appConfig *config.Config
	log       *logrus.Logger
	verbose   bool
)

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func workspace() *fixtures.Workspace {
	return fixtures.NewWorkspace(appConfig.Fixtures.TestDir, appConfig.Fixtures.ReplayDir)
}

func parsedPaths() storage.Paths {
	return storage.Paths{
		ParsedDir: appConfig.Storage.ParsedDir,
		ReplayDir: appConfig.Storage.ReplayDir,
	}
}
