package main

import (
	"clipsplit/chunker"
	"clipsplit/config"
	"clipsplit/ffmpeg"
	"clipsplit/internal/logging"
	"clipsplit/internal/timeutil"
	"clipsplit/materializer"
	"clipsplit/models"
	"clipsplit/server"
	"clipsplit/splitter"
	"clipsplit/store"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var splitCmd = &cobra.Command{
	Use:   "split [input video]",
	Short: "Split a video into clips",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		cfg.Input = args[0]
		if err := cfg.ValidateInput(); err != nil {
			return err
		}
		return runSplit(cmd.Context(), cfg)
	},
}

var planCmd = &cobra.Command{
	Use:   "plan [duration | input video]",
	Short: "Show the clip boundaries without extracting anything",
	Long: `Show the clip boundaries for a duration (seconds, or a Go duration such as 1h2m30s)
or for a video file, which is probed with ffprobe.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		seconds, err := splitter.MinutesToSeconds(cfg.SplitMinutes)
		if err != nil {
			return err
		}

		total, ok := parseDuration(args[0])
		if !ok {
			s, err := newSplitter(cfg)
			if err != nil {
				return err
			}
			source, err := s.Probe(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			total = source.Duration
		}

		segments, err := chunker.PlanWithPolicy(total, seconds, cfg.TrailingPolicy())
		if err != nil {
			return err
		}

		fmt.Printf("Source: %.3fs, %d clip(s) of up to %s (%s)\n",
			total, len(segments), timeutil.HumanDuration(seconds), cfg.TrailingPolicy())
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "#\tSTART\tEND\tLENGTH\tFILE")
		for _, seg := range segments {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", seg.Index,
				timeutil.FormatSeconds(seg.Start), timeutil.FormatSeconds(seg.End),
				timeutil.HumanDuration(seg.Duration()), store.ClipName(seg))
		}
		return w.Flush()
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the clips in the output directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		clips, err := store.List(cfg.OutputDir)
		if err != nil {
			return err
		}
		if len(clips) == 0 {
			fmt.Printf("No clips in %s\n", cfg.OutputDir)
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "FILE\tSTART\tEND\tSIZE")
		for _, clip := range clips {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", clip.Name(),
				timeutil.FormatSeconds(clip.Segment.Start), timeutil.FormatSeconds(clip.Segment.End),
				formatSize(clip.Size))
		}
		return w.Flush()
	},
}

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete every clip in the output directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		if err := store.Purge(cfg.OutputDir); err != nil {
			return err
		}
		fmt.Printf("✓ Purged %s\n", cfg.OutputDir)
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web UI",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		if err := checkTools(cfg); err != nil {
			return err
		}

		s, err := newSplitter(cfg)
		if err != nil {
			return err
		}
		srv, err := server.New(s, server.Options{
			UploadDir:      cfg.UploadDir,
			MaxUploadBytes: cfg.MaxUploadBytes(),
			DefaultMinutes: cfg.SplitMinutes,
		}, logging.WithComponent("server"))
		if err != nil {
			return err
		}

		fmt.Printf("Web UI on http://%s (clips in %s)\n", displayAddr(cfg.Server.Addr), cfg.OutputDir)
		return srv.ListenAndServe(cmd.Context(), cfg.Server.Addr)
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or save the effective configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		config.FromContext(cmd.Context()).PrintConfig(os.Stdout)
	},
}

var configSaveCmd = &cobra.Command{
	Use:   "save [path]",
	Short: "Write the effective configuration as YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.SaveConfigFile(config.FromContext(cmd.Context()), args[0]); err != nil {
			return err
		}
		fmt.Printf("✓ Configuration saved to %s\n", args[0])
		return nil
	},
}

// newSplitter wires the ffmpeg backend, materializer and splitter from cfg.
func newSplitter(cfg *config.Config) (*splitter.Splitter, error) {
	backend := materializer.NewFFmpegBackend(cfg.Tools.FFmpeg, cfg.Tools.FFprobe, materializer.EncodeSettings{
		VideoCodec:   cfg.Video.Codec,
		CRF:          cfg.Video.CRF,
		Preset:       cfg.Video.Preset,
		AudioCodec:   cfg.Audio.Codec,
		AudioBitrate: cfg.Audio.Bitrate,
	})

	m := materializer.New(backend, materializer.Options{
		Mode:    cfg.ExtractMode(),
		Workers: cfg.Workers,
		OnProgress: func(p *models.ExtractionProgress) {
			log.Debug().Msg(p.FormatSummary())
		},
		OnClipDone: func(done, total int, a models.ClipArtifact) {
			if a.OK() {
				fmt.Printf("  [%d/%d] ✓ %s (%s)\n", done, total, a.Name(), formatSize(a.Size))
			} else {
				fmt.Printf("  [%d/%d] ✗ %s\n", done, total, a.Name())
			}
		},
	}, logging.WithComponent("materializer"))

	s, err := splitter.New(backend, m, splitter.Options{
		OutputDir: cfg.OutputDir,
		Trailing:  cfg.TrailingPolicy(),
	}, logging.WithComponent("splitter"))
	if err != nil {
		return nil, err
	}
	return s, nil
}

// checkTools fails early when ffmpeg or ffprobe cannot be found.
func checkTools(cfg *config.Config) error {
	for _, binary := range []string{cfg.Tools.FFmpeg, cfg.Tools.FFprobe} {
		path, err := ffmpeg.Locate(binary)
		if err != nil {
			return err
		}
		log.Debug().Str("binary", path).Msg("found tool")
	}
	return nil
}

// parseDuration accepts plain seconds ("90", "90.5") or a Go duration
// ("1h30m").
func parseDuration(arg string) (float64, bool) {
	if seconds, err := strconv.ParseFloat(arg, 64); err == nil {
		return seconds, true
	}
	if d, err := time.ParseDuration(arg); err == nil {
		return d.Seconds(), true
	}
	return 0, false
}

func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
