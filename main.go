package main

import (
	"clipsplit/config"
	"clipsplit/internal/logging"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	// Cancel on Ctrl+C / SIGTERM so running ffmpeg processes are killed
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\n⚠️  Interrupt received, cleaning up...")
		cancel()
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			fmt.Fprintln(os.Stderr, "⚠️  Cancelled by user")
			os.Exit(130) // Standard exit code for SIGINT
		}
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "clipsplit",
	Short: "Split a video into fixed-duration clips",
	Long: `clipsplit cuts a video into consecutive clips of a fixed length with ffmpeg.
Clips are written as <output-dir>/clip_<start>_<end>.mp4 and can be listed,
previewed in the web UI, downloaded and purged.

Configuration priority: CLI flags > config file > defaults.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}

		logging.Init(cfg.Verbose)
		log.Debug().Str("config", cfgFile).Msg("configuration loaded")

		cmd.SetContext(config.WithConfig(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./clipsplit.yaml, ~/.clipsplit/config.yaml, /etc/clipsplit/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, config.FlagVerbose, "v", false, "verbose output")
	config.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(splitCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(purgeCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSaveCmd)
}
