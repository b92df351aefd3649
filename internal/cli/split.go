package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rshade/trainload/internal/config"
	"github.com/rshade/trainload/internal/source"
	"github.com/rshade/trainload/internal/timetable"
	"github.com/rshade/trainload/internal/uploader"
)

// NewSplitCmd creates the split command, which cuts a large CSV into
// numbered chunk files that each repeat the header.
func NewSplitCmd() *cobra.Command {
	var (
		chunkSize int
		prefix    string
		outDir    string
		encoding  string
	)

	cmd := &cobra.Command{
		Use:   "split [file]",
		Short: "Split a timetable CSV into smaller files",
		Long: `Splits the CSV into files of at most --chunk-size data rows, named
<prefix>_<n>.csv and numbered from 1. Every file starts with the original
header. Output is always UTF-8.`,
		Example: `  # Split train_data.csv into 10,000-row files in the current directory
  trainload split

  # Split into 2,500-row files under ./chunks
  trainload split stops.csv --chunk-size 2500 --out-dir ./chunks`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *config.GetGlobalConfig()
			if len(args) > 0 {
				cfg.Input.Path = args[0]
			}
			flags := cmd.Flags()
			if flags.Changed("chunk-size") {
				cfg.Split.ChunkSize = chunkSize
			}
			if flags.Changed("prefix") {
				cfg.Split.Prefix = prefix
			}
			if flags.Changed("out-dir") {
				cfg.Split.OutDir = outDir
			}
			if flags.Changed("encoding") {
				cfg.Input.Encoding = encoding
			}
			return runSplit(cmd, &cfg)
		},
	}

	cmd.Flags().IntVar(&chunkSize, "chunk-size", timetable.DefaultChunkSize, "data rows per output file")
	cmd.Flags().StringVar(&prefix, "prefix", config.DefaultSplitPrefix, "output file name prefix")
	cmd.Flags().StringVar(&outDir, "out-dir", ".", "directory for the output files")
	cmd.Flags().StringVar(&encoding, "encoding", "", "input encoding")

	return cmd
}

func runSplit(cmd *cobra.Command, cfg *config.Config) error {
	ctx := cmd.Context()
	out := NewStatusPrinter(cmd.OutOrStdout())

	if cfg.Split.ChunkSize < 1 {
		return fmt.Errorf("%w: got %d", timetable.ErrInvalidChunkSize, cfg.Split.ChunkSize)
	}
	comma, err := cfg.Input.Comma()
	if err != nil {
		return err
	}

	location := cfg.Input.Path
	rc, err := source.Open(ctx, location, source.Options{CredentialsFile: sourceCredentials(cfg.Store)})
	if err != nil {
		return &uploader.LoadError{Source: location, Err: err}
	}
	defer rc.Close()

	if err = os.MkdirAll(cfg.Split.OutDir, 0o750); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	var paths []string
	create := func(index int) (io.WriteCloser, error) {
		p := chunkPath(cfg.Split.OutDir, cfg.Split.Prefix, index)
		paths = append(paths, p)
		return os.Create(p)
	}

	chunks, err := timetable.Split(ctx, rc, timetable.LoadOptions{
		Encoding: cfg.Input.Encoding,
		Comma:    comma,
	}, cfg.Split.ChunkSize, create)
	for i, c := range chunks {
		if i < len(paths) {
			out.ChunkWritten(paths[i], c)
		}
	}
	if err != nil {
		return &uploader.LoadError{Source: location, Err: err}
	}

	logger.Info().
		Str("source", location).
		Int("files", len(chunks)).
		Int("chunk_size", cfg.Split.ChunkSize).
		Msg("split complete")
	out.SplitDone(chunks)
	return nil
}

func chunkPath(dir, prefix string, index int) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%d.csv", prefix, index))
}
