package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rshade/trainload/internal/engine/batch"
	"github.com/rshade/trainload/internal/timetable"
	"github.com/rshade/trainload/internal/uploader"
)

// StatusPrinter writes one emoji-prefixed line per upload event. Lines are
// styled only when the destination is a terminal.
type StatusPrinter struct {
	w      io.Writer
	p      *message.Printer
	styled bool

	okStyle   lipgloss.Style
	infoStyle lipgloss.Style
	errStyle  lipgloss.Style
	dimStyle  lipgloss.Style
}

// NewStatusPrinter returns a printer writing to w.
func NewStatusPrinter(w io.Writer) *StatusPrinter {
	styled := false
	if f, ok := w.(*os.File); ok {
		styled = isTerminal(f)
	}
	return &StatusPrinter{
		w:         w,
		p:         message.NewPrinter(language.English),
		styled:    styled,
		okStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		infoStyle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33")),
		errStyle:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		dimStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("246")),
	}
}

var _ uploader.Reporter = (*StatusPrinter)(nil)

func (s *StatusPrinter) line(icon string, style lipgloss.Style, text string) {
	if s.styled {
		text = style.Render(text)
	}
	_, _ = fmt.Fprintf(s.w, "%s %s\n", icon, text)
}

// Starting announces the upload target before any work is done.
func (s *StatusPrinter) Starting(driver, collection string, batchSize int, dryRun bool) {
	text := s.p.Sprintf("Uploading to %s/%s in batches of %d", driver, collection, batchSize)
	if dryRun {
		text += " (dry run, nothing is written)"
	}
	s.line("🚀", s.infoStyle, text)
}

// Loaded implements uploader.Reporter.
func (s *StatusPrinter) Loaded(source string, rows int) {
	s.line("📂", s.infoStyle, s.p.Sprintf("Loaded %d records from %s", rows, source))
}

// BatchCommitted implements uploader.Reporter.
func (s *StatusPrinter) BatchCommitted(snap batch.ProgressSnapshot) {
	text := s.p.Sprintf("Batch %d/%d committed (%d records, %d/%d total)",
		snap.ProcessedBatches, snap.TotalBatches, snap.LastBatchSize,
		snap.ProcessedItems, snap.TotalItems)
	if snap.EstimatedRemaining > 0 {
		text += ", ~" + snap.EstimatedRemaining.Round(time.Second).String() + " left"
	}
	s.line("✅", s.okStyle, text)
}

// Done implements uploader.Reporter.
func (s *StatusPrinter) Done(summary uploader.Summary) {
	s.line("🎉", s.okStyle, s.p.Sprintf("Upload complete: %d records in %d batches (%s)",
		summary.Records, summary.Batches, summary.Duration.Round(time.Millisecond)))
	if summary.LogID != "" {
		s.line("  ", s.dimStyle, "upload log entry "+summary.LogID)
	}
}

// Aborted implements uploader.Reporter. The error itself is printed once by
// the caller of Execute.
func (s *StatusPrinter) Aborted(from uploader.State, _ error) {
	s.line("⏹️", s.errStyle, fmt.Sprintf("Upload stopped while %s", from))
}

// ChunkWritten reports one file produced by split.
func (s *StatusPrinter) ChunkWritten(path string, chunk timetable.Chunk) {
	s.line("📂", s.okStyle, s.p.Sprintf("Wrote %s (%d rows)", path, chunk.Rows))
}

// SplitDone reports the end of a split.
func (s *StatusPrinter) SplitDone(chunks []timetable.Chunk) {
	rows := 0
	for _, c := range chunks {
		rows += c.Rows
	}
	s.line("🎉", s.okStyle, s.p.Sprintf("Split %d rows into %d files", rows, len(chunks)))
}

// DerivedUploading announces one derived collection before its batches.
func (s *StatusPrinter) DerivedUploading(icon, what string, n int, collection string) {
	s.line(icon, s.infoStyle, s.p.Sprintf("Uploading %d %s to %s", n, what, collection))
}

// StationsDone reports the end of a stations run.
func (s *StatusPrinter) StationsDone(stations, pairs int, elapsed time.Duration) {
	s.line("🎉", s.okStyle, s.p.Sprintf("Stations complete: %d stations, %d distance pairs (%s)",
		stations, pairs, elapsed.Round(time.Millisecond)))
}
