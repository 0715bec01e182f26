package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"text/tabwriter"
	"time"

	"github.com/XavierBriggs/fortuna/services/replay-api/internal/auth"
	"github.com/XavierBriggs/fortuna/services/replay-api/internal/positions"
	"github.com/XavierBriggs/fortuna/services/replay-api/internal/retry"
	"github.com/XavierBriggs/fortuna/services/replay-api/internal/storage"
	"github.com/spf13/cobra"
)

var positionsCmd = &cobra.Command{
	Use:   "positions <replay-id>",
	Short: "Load a replay's positions the way the API does",
	Long: `Positions reads the parsed artifacts from PARSED_DIR, downloading them
from REMOTE_STORE_URL when they are not on disk, and prints a summary.
Use --json for the full API payload.`,
	Args: cobra.ExactArgs(1),
	RunE: runPositions,
}

var tokenCmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "Sign a bearer token for local testing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if appConfig.Auth.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required")
		}
		token, err := auth.NewVerifier(appConfig.Auth.JWTSecret, appConfig.Auth.JWTIssuer).Sign(args[0], tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

var (
	positionsJSON       bool
	positionsFrameStart int
	positionsFrameEnd   int
	tokenTTL            time.Duration
)

func init() {
	rootCmd.AddCommand(positionsCmd)
	rootCmd.AddCommand(tokenCmd)

	positionsCmd.Flags().BoolVar(&positionsJSON, "json", false, "print the full positions payload")
	positionsCmd.Flags().IntVar(&positionsFrameStart, "frame-start", 0, "first frame to include")
	positionsCmd.Flags().IntVar(&positionsFrameEnd, "frame-end", 0, "frame to stop before (0 = last)")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
}

func runPositions(cmd *cobra.Command, args []string) error {
	var remote storage.Downloader
	if appConfig.Remote.URL != "" {
		remote = storage.NewRemoteStore(
			appConfig.Remote.URL,
			&http.Client{Timeout: appConfig.Remote.Timeout},
			retry.NewRetryPolicy(appConfig.Remote.Retries, appConfig.Remote.RetryDelay),
		)
	}

	loader := positions.NewLoader(parsedPaths(), remote, log)
	rp, err := loader.Load(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if positionsFrameStart != 0 || positionsFrameEnd != 0 {
		rp = rp.Window(positionsFrameStart, positionsFrameEnd)
	}

	out := cmd.OutOrStdout()
	if positionsJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rp)
	}

	fmt.Fprintf(out, "Replay %s: %d frames\n", rp.ID, rp.Len())
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PLAYER\tTEAM\tSAMPLES")
	for i, name := range rp.Names {
		team := "blue"
		if rp.Colors[i] {
			team = "orange"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\n", name, team, len(rp.Players[i]))
	}
	return tw.Flush()
}
