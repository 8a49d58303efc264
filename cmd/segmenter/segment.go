package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-segmenter/internal/bootstrap"
	"github.com/johnquangdev/meeting-segmenter/internal/usecase/segment"
	"github.com/johnquangdev/meeting-segmenter/pkg/config"
	"github.com/johnquangdev/meeting-segmenter/pkg/logger"
)

type segmentFlags struct {
	transcript    string
	topics        string
	strategy      string
	source        string
	checkpointDir string
}

func newSegmentCommand() *cobra.Command {
	var flags segmentFlags

	cmd := &cobra.Command{
		Use:   "segment",
		Short: "Segment a transcript against an agenda",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSegment(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.transcript, "transcript", "", "path to the transcript file")
	cmd.Flags().StringVar(&flags.topics, "topics", "", "path to the agenda file, one item per line")
	cmd.Flags().StringVar(&flags.strategy, "strategy", "", "llm, embedding or moderator (default from SEGMENTER_STRATEGY)")
	cmd.Flags().StringVar(&flags.source, "source", "", "checkpoint base name (default transcript file name)")
	cmd.Flags().StringVar(&flags.checkpointDir, "checkpoint-dir", "", "filesystem checkpoint directory (default STORAGE_DIR)")
	_ = cmd.MarkFlagRequired("transcript")
	_ = cmd.MarkFlagRequired("topics")

	return cmd
}

func runSegment(cmd *cobra.Command, flags segmentFlags) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	zapLogger, err := logger.New(cfg.Server.Environment, cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer zapLogger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := bootstrap.Build(ctx, cfg, bootstrap.Options{
		WithCheckpoints: true,
		CheckpointDir:   flags.checkpointDir,
	}, zapLogger)
	if err != nil {
		return err
	}
	defer deps.Close()

	strategy := flags.strategy
	if strategy == "" {
		strategy = cfg.Segmentation.Strategy
	}

	result, err := deps.Pipeline.Run(ctx, segment.Request{
		Source:         flags.source,
		TranscriptPath: flags.transcript,
		TopicsPath:     flags.topics,
		Strategy:       strategy,
	})
	if err != nil {
		zapLogger.Error("❌ segmentation failed", zap.Error(err))
		return err
	}

	zapLogger.Info("✅ segmentation finished",
		zap.String("run_id", result.RunID.String()),
		zap.String("strategy", result.Strategy),
		zap.Int("calls", result.Calls),
		zap.Int("anomalies", len(result.Anomalies)),
		zap.Bool("skipped", result.Skipped),
	)

	out := cmd.OutOrStdout()
	if _, err := out.Write(result.Boundaries); err != nil {
		return err
	}
	_, err = fmt.Fprintln(out)
	return err
}
