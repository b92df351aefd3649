package timetable

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// DefaultChunkSize is the number of data rows per chunk used by Split.
const DefaultChunkSize = 10000

// ErrInvalidChunkSize is returned for a non-positive chunk size.
var ErrInvalidChunkSize = errors.New("chunk size must be positive")

// ChunkCreator opens the destination for chunk index (1-based).
type ChunkCreator func(index int) (io.WriteCloser, error)

// Chunk describes one file written by Split.
type Chunk struct {
	Index int
	Rows  int
}

// Split streams r into chunks of at most chunkSize data rows. Every chunk
// starts with the input header. Input is decoded per opts; output is UTF-8.
// No chunk is created for an input with a header and no rows.
func Split(ctx context.Context, r io.Reader, opts LoadOptions, chunkSize int, create ChunkCreator) ([]Chunk, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidChunkSize, chunkSize)
	}

	decoded, err := Decode(r, opts.Encoding)
	if err != nil {
		return nil, err
	}
	reader := newCSVReader(decoded, opts.Comma)

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyInput
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	var (
		chunks []Chunk
		out    io.WriteCloser
		w      *csv.Writer
	)

	closeChunk := func() error {
		if out == nil {
			return nil
		}
		w.Flush()
		flushErr := w.Error()
		closeErr := out.Close()
		out, w = nil, nil
		if flushErr != nil {
			return fmt.Errorf("writing chunk %d: %w", len(chunks), flushErr)
		}
		if closeErr != nil {
			return fmt.Errorf("closing chunk %d: %w", len(chunks), closeErr)
		}
		return nil
	}

	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			_ = closeChunk()
			return chunks, ctxErr
		}

		row, readErr := reader.Read()
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			_ = closeChunk()
			return chunks, fmt.Errorf("reading row: %w", readErr)
		}

		if out == nil || chunks[len(chunks)-1].Rows >= chunkSize {
			if err = closeChunk(); err != nil {
				return chunks, err
			}
			index := len(chunks) + 1
			if out, err = create(index); err != nil {
				return chunks, fmt.Errorf("creating chunk %d: %w", index, err)
			}
			w = csv.NewWriter(out)
			if err = w.Write(header); err != nil {
				_ = out.Close()
				return chunks, fmt.Errorf("writing chunk %d header: %w", index, err)
			}
			chunks = append(chunks, Chunk{Index: index})
		}

		if err = w.Write(row); err != nil {
			_ = closeChunk()
			return chunks, fmt.Errorf("writing chunk %d: %w", len(chunks), err)
		}
		chunks[len(chunks)-1].Rows++
	}

	return chunks, closeChunk()
}
