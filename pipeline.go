package main

import (
	"clipsplit/config"
	"clipsplit/internal/timeutil"
	"clipsplit/splitter"
	"context"
	"fmt"
	"time"
)

// runSplit executes the complete split workflow for cfg.Input
func runSplit(ctx context.Context, cfg *config.Config) error {
	startTime := time.Now()

	seconds, err := splitter.MinutesToSeconds(cfg.SplitMinutes)
	if err != nil {
		return err
	}

	if !cfg.DryRun {
		if err := checkTools(cfg); err != nil {
			return err
		}
	}

	s, err := newSplitter(cfg)
	if err != nil {
		return err
	}

	fmt.Println("╔════════════════════════════════════════════════════════════════╗")
	fmt.Println("║                    CLIPSPLIT - SPLIT START                     ║")
	fmt.Println("╚════════════════════════════════════════════════════════════════╝")
	fmt.Printf("Input:  %s\n", cfg.Input)
	fmt.Printf("Output: %s\n", cfg.OutputDir)
	fmt.Printf("Mode:   %s\n", cfg.Mode)
	fmt.Println()

	// PHASE 1: Media Analysis + Planning
	fmt.Println("📊 Phase 1: Media Analysis")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	source, segments, err := s.Plan(ctx, cfg.Input, seconds)
	if err != nil {
		return fmt.Errorf("planning failed: %w", err)
	}

	fmt.Printf("  Duration:   %.2f seconds (%s)\n", source.Duration, timeutil.HumanDuration(int(source.Duration)))
	fmt.Printf("  Clip size:  %s\n", timeutil.HumanDuration(seconds))
	fmt.Printf("  Trailing:   %s\n", cfg.TrailingPolicy())
	fmt.Printf("  Clips:      %d\n", len(segments))
	fmt.Println()

	if cfg.DryRun {
		lines, err := s.DryRun(source, segments)
		if err != nil {
			return err
		}
		fmt.Println("═══════════════════════════════════════════════════════════")
		fmt.Println("                      DRY RUN MODE")
		fmt.Println("═══════════════════════════════════════════════════════════")
		for _, line := range lines {
			fmt.Println(line)
		}
		fmt.Println("\n✓ Plan is valid. No clips were written.")
		return nil
	}

	// PHASE 2: Extraction
	fmt.Println("✂️  Phase 2: Extraction")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	job, err := s.Execute(ctx, source, segments, seconds)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	fmt.Println()

	succeeded, failed := job.Succeeded(), job.Failed()

	fmt.Println("╔════════════════════════════════════════════════════════════════╗")
	fmt.Println("║                         SPLIT SUMMARY                          ║")
	fmt.Println("╚════════════════════════════════════════════════════════════════╝")
	fmt.Printf("  Clips:     %d/%d\n", len(succeeded), len(job.Artifacts))
	fmt.Printf("  Output:    %s\n", job.OutputDir)
	fmt.Printf("  Time:      %s\n", time.Since(startTime).Round(time.Millisecond))

	for _, a := range failed {
		fmt.Printf("  ✗ %s: %s\n", a.Name(), a.Error)
	}

	if len(succeeded) == 0 {
		return fmt.Errorf("no clips were produced")
	}
	if len(failed) > 0 {
		fmt.Printf("\n⚠️  Done with %d failed clip(s).\n", len(failed))
		return nil
	}

	fmt.Printf("\n✅ Done! Generated %d clips.\n", len(succeeded))
	return nil
}
