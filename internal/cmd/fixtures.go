package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/XavierBriggs/fortuna/services/replay-api/internal/analyzer"
	"github.com/XavierBriggs/fortuna/services/replay-api/internal/fixtures"
	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [replay...]",
	Short: "Stage replays in the test folder",
	Long: `Fetch copies replays into TEST_DIR. Each argument is either an http(s)
URL or a file name inside TEST_REPLAY_DIR. With --complex the built-in list
of unusual replays is staged instead.`,
	RunE: runFetch,
}

var parseCmd = &cobra.Command{
	Use:   "parse <replay>",
	Short: "Analyze a replay and write its artifacts to PARSED_DIR",
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove staged replays from the test folder",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := workspace().ClearDir(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Cleared %s\n", appConfig.Fixtures.TestDir)
		return nil
	},
}

var fetchComplex bool

func init() {
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(clearCmd)

	fetchCmd.Flags().BoolVar(&fetchComplex, "complex", false, "stage the complex replay list")
}

func runFetch(cmd *cobra.Command, args []string) error {
	replays := args
	if fetchComplex {
		replays = fixtures.ComplexReplayList()
	}
	if len(replays) == 0 {
		return fmt.Errorf("no replays given")
	}

	names, err := workspace().WriteFilesToDisk(cmd.Context(), replays)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s\n", name)
	}
	return nil
}

func runParse(cmd *cobra.Command, args []string) error {
	client := analyzer.NewClient(appConfig.Analyzer.URL, nil)

	result, guid, err := workspace().ParseFile(cmd.Context(), client, args[0])
	if err != nil {
		return err
	}

	paths := parsedPaths()
	if err := os.MkdirAll(filepath.Clean(paths.ParsedDir), 0o755); err != nil {
		return fmt.Errorf("create parsed dir: %w", err)
	}
	if err := os.WriteFile(paths.Pickle(guid), result.Proto, 0o644); err != nil {
		return fmt.Errorf("write game object: %w", err)
	}
	if err := os.WriteFile(paths.Gzip(guid), result.Frames, 0o644); err != nil {
		return fmt.Errorf("write frame table: %w", err)
	}

	log.WithField("replay_id", guid).Debug("artifacts written")
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Parsed %s as %s (%d frames, %d players)\n",
		args[0], guid, result.Table.Len(), len(result.Game.Players))
	return nil
}
