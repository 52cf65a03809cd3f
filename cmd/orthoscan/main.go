package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/markdave123-py/orthoscan/internal/config"
	"github.com/markdave123-py/orthoscan/internal/core/exemplars"
	"github.com/markdave123-py/orthoscan/internal/core/ingestion_engine"
	objectclient "github.com/markdave123-py/orthoscan/internal/core/object-client"
	"github.com/markdave123-py/orthoscan/internal/logging"
	"github.com/markdave123-py/orthoscan/internal/output"
)

type analyzeFlags struct {
	format        string
	normalization string
	segmentation  string
	ranking       string
	minCount      int
	suffix        string
	auxRatio      float64
	limit         int
	contentType   string
	timeout       time.Duration
}

func newRootCmd() *cobra.Command {
	var (
		verbose bool
		logger  = zap.NewNop()
	)
	cfg := config.LoadConfig()

	root := &cobra.Command{
		Use:   "orthoscan",
		Short: "Exemplar character analysis for DBL bundles and USX texts",
		Long: `orthoscan counts the characters (base letters with their combining marks)
used in a text corpus and ranks them, producing exemplar character sets.

Inputs are DBL zip bundles, bare USX files, other documents docconv can read,
or s3://bucket/key objects.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := "warn"
			if verbose {
				level = zapcore.DebugLevel.String()
			}
			l, err := logging.New(level, "console")
			if err != nil {
				return err
			}
			logger = l
			for _, w := range cfg.Warnings {
				logger.Warn("config", zap.String("detail", w))
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	f := &analyzeFlags{}
	analyzeCmd := &cobra.Command{
		Use:   "analyze <file|s3://bucket/key|->...",
		Short: "Analyze one or more inputs as a single corpus",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithTimeout(ctx, f.timeout)
			defer cancel()
			return runAnalyze(ctx, cfg, f, args, cmd.InOrStdin(), cmd.OutOrStdout(), logger)
		},
	}
	flags := analyzeCmd.Flags()
	flags.StringVarP(&f.format, "format", "f", string(output.FormatTable), "Output format: json, yaml, table or ldml")
	flags.StringVar(&f.normalization, "normalization", cfg.Normalization, "Unicode normalization: nfc, nfd or none")
	flags.StringVar(&f.segmentation, "segmentation", cfg.Segmentation, "Cluster segmentation: marks or graphemes")
	flags.StringVar(&f.ranking, "ranking", cfg.Ranking, "Ranking: frequency, first-seen or codepoint")
	flags.IntVar(&f.minCount, "min-count", cfg.MinCount, "Leave out clusters seen fewer times")
	flags.StringVar(&f.suffix, "suffix", cfg.USXSuffix, "Suffix of the archive entries to read")
	flags.Float64Var(&f.auxRatio, "aux-ratio", cfg.AuxRatio, "Letter share below which a letter is auxiliary (ldml)")
	flags.IntVar(&f.limit, "limit", 0, "Maximum table rows, 0 for all")
	flags.StringVar(&f.contentType, "content-type", "", "Override the content type guessed from the file name")
	flags.DurationVar(&f.timeout, "timeout", 10*time.Minute, "Operation timeout")

	root.AddCommand(analyzeCmd)
	return root
}

func runAnalyze(ctx context.Context, cfg *config.Config, f *analyzeFlags, args []string, stdin io.Reader, out io.Writer, log *zap.Logger) error {
	format, err := output.ParseFormat(f.format)
	if err != nil {
		return err
	}
	opts, err := exemplars.ParseOptions(f.normalization, f.segmentation, f.ranking, f.minCount)
	if err != nil {
		return err
	}
	if f.auxRatio < 0 || f.auxRatio >= 1 {
		return fmt.Errorf("--aux-ratio must be in [0,1), got %g", f.auxRatio)
	}

	extractor := ingestion_engine.NewRoutingExtractor(
		ingestion_engine.NewArchiveExtractor(f.suffix, log),
		ingestion_engine.NewDocconvExtractor(false, log),
	)
	eng := exemplars.New(opts)
	src := &sources{cfg: cfg, stdin: stdin, log: log}

	var rep exemplars.Report
	for _, arg := range args {
		data, name, err := src.read(ctx, arg)
		if err != nil {
			return err
		}
		ct := f.contentType
		if ct == "" {
			ct = ingestion_engine.ContentTypeFor(name)
		}
		log.Debug("analyzing input", zap.String("input", arg), zap.String("content_type", ct), zap.Int("bytes", len(data)))

		// The engine keeps accumulating across inputs; the last report covers them all.
		rep, err = ingestion_engine.AnalyzeDocument(ctx, extractor, data, ct, eng, log)
		if err != nil {
			return fmt.Errorf("%s: %w", arg, err)
		}
	}

	return output.Write(out, format, rep, output.Options{AuxRatio: f.auxRatio, Limit: f.limit})
}

// sources reads local files, stdin ("-") and s3:// objects. The S3 client is
// built on first use.
type sources struct {
	cfg   *config.Config
	stdin io.Reader
	log   *zap.Logger
	s3    *objectclient.S3Client
}

func (s *sources) read(ctx context.Context, arg string) (data []byte, name string, err error) {
	switch {
	case arg == "-":
		data, err = io.ReadAll(s.stdin)
		return data, "stdin.usx", err
	case strings.HasPrefix(arg, "s3://"):
		bucket, key := objectclient.ParseS3URL(arg)
		if bucket == "" || key == "" {
			return nil, "", fmt.Errorf("bad s3 url %q", arg)
		}
		if s.s3 == nil {
			if s.s3, err = objectclient.NewS3Client(ctx, s.cfg, s.log); err != nil {
				return nil, "", err
			}
		}
		data, err = s.s3.GetFile(ctx, bucket, key)
		return data, filepath.Base(key), err
	default:
		data, err = os.ReadFile(arg)
		return data, filepath.Base(arg), err
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
