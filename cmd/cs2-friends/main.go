package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/charmbracelet/fang"
	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"
)

var (
	BuildVersion   = "master"
	BuildCommit    = "00000000"
	BuildDate      = time.Now().Format("2006-01-02T15:04:05Z")
	BuildGoVersion = runtime.Version()
	cfgFile        string
	rootCmd        = &cobra.Command{
		Use:   "cs2-friends",
		Short: "Joinable CS2 friends",
		Long:  `cs2-friends - Shows which of your steam friends are playing Counter-Strike 2 and can be joined`,
		RunE:  runWatch,
	}

	versionCmd = &cobra.Command{
		Use:               "version",
		Short:             "Print version information",
		Long:              "Print detailed version information about cs2-friends",
		Args:              cobra.NoArgs,
		ValidArgsFunction: cobra.NoFileCompletions,
		Run:               version,
	}

	friendsCmd = &cobra.Command{
		Use:               "friends",
		Short:             "List friends currently playing",
		Args:              cobra.NoArgs,
		ValidArgsFunction: cobra.NoFileCompletions,
		RunE:              runFriends,
	}

	watchCmd = &cobra.Command{
		Use:               "watch",
		Short:             "Poll continuously and serve the results over http",
		Args:              cobra.NoArgs,
		ValidArgsFunction: cobra.NoFileCompletions,
		RunE:              runWatch,
	}

	tokenCmd = &cobra.Command{
		Use:   "token [credential]",
		Short: "Show what kind of credential is configured",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runToken,
	}

	resolveCmd = &cobra.Command{
		Use:   "resolve <vanity>",
		Short: "Resolve a custom profile url name into a steam id",
		Args:  cobra.ExactArgs(1),
		RunE:  runResolve,
	}
)

var errApp = errors.New("application error")

func main() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file path")
	friendsCmd.Flags().Bool("json", false, "Output JSON instead of a table")
	rootCmd.AddCommand(versionCmd, friendsCmd, watchCmd, tokenCmd, resolveCmd)

	if err := fang.Execute(context.Background(), rootCmd); err != nil {
		slog.Error("Exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func version(_ *cobra.Command, _ []string) {
	fmt.Printf("cs2-friends - Joinable CS2 friends\n\n") //nolint:forbidigo
	fmt.Printf("  Version: %s\n", BuildVersion)          //nolint:forbidigo
	fmt.Printf("  Commit:  %s\n", BuildCommit)           //nolint:forbidigo
	fmt.Printf("  Built:   %s\n", BuildDate)             //nolint:forbidigo
	fmt.Printf("  Runtime: %s\n\n", BuildGoVersion)      //nolint:forbidigo
}
