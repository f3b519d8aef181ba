package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/JonMunkholm/dftlab/internal/logging"
	"github.com/google/uuid"
)

// DefaultMaxFileSize caps ingest input at 16MB when no limit is configured.
const DefaultMaxFileSize int64 = 16 << 20

// Options configures a Service.
type Options struct {
	MaxFileSize   int64
	MaxConcurrent int
	MaxWait       time.Duration
	Strict        bool // default strict mode when a request does not choose
}

// Service is the entry point for ingest and export. It owns the workspace,
// the ingest limiter and the ticket counter.
type Service struct {
	opts      Options
	workspace *Workspace
	limiter   *IngestLimiter
	tickets   atomic.Uint64
}

// NewService creates a Service with an empty workspace.
func NewService(opts Options) *Service {
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	return &Service{
		opts:      opts,
		workspace: NewWorkspace(),
		limiter:   NewIngestLimiter(opts.MaxConcurrent, opts.MaxWait),
	}
}

// Workspace returns the shared pipeline state.
func (s *Service) Workspace() *Workspace { return s.workspace }

// MaxFileSize returns the configured ingest size limit in bytes.
func (s *Service) MaxFileSize() int64 { return s.opts.MaxFileSize }

// IngestRequest describes one file selection.
type IngestRequest struct {
	FileName string
	Body     io.Reader
	Mode     Mode
	Strict   *bool // nil uses the service default
}

// Ingest validates, reads and parses a file, then publishes it to the
// workspace. Failures leave previously loaded data in place.
//
// Each call takes a ticket before reading. If a later ingest has already been
// applied by the time this one finishes, the result is discarded and
// ErrStaleIngest is returned.
func (s *Service) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	start := time.Now()

	if err := ValidateFileName(req.FileName); err != nil {
		return nil, err
	}
	mode, ok := ParseMode(string(req.Mode))
	if !ok {
		return nil, fmt.Errorf("%q: %w", req.Mode, ErrUnknownMode)
	}
	strict := s.opts.Strict
	if req.Strict != nil {
		strict = *req.Strict
	}

	ticket := s.tickets.Add(1)
	ingestID := uuid.New().String()
	log := logging.WithFields(ctx,
		"ingest_id", ingestID,
		"ticket", ticket,
		"file", req.FileName,
		"mode", mode,
		"client_ip", ClientIPFromContext(ctx),
	)

	if err := s.limiter.Acquire(ctx); err != nil {
		log.Warn("ingest slot unavailable", "error", err)
		return nil, err
	}
	defer s.limiter.Release()

	data, err := readLimited(req.Body, s.opts.MaxFileSize)
	if err != nil {
		log.Warn("ingest read failed", "error", err)
		return nil, err
	}

	res := &IngestResult{
		IngestID: ingestID,
		Ticket:   ticket,
		FileName: req.FileName,
		Mode:     mode,
	}

	opts := ParseOptions{Strict: strict}
	var samples Samples
	if mode == ModeGrid {
		res.Grid, samples, err = ParseGrid(data, opts)
		res.Rows, res.Cols = res.Grid.Rows(), res.Grid.Cols()
	} else {
		samples, err = ParseFlat(data, opts)
		res.Sequence = samples.Values
	}
	if err != nil {
		log.Info("ingest rejected", "error", err, "bytes", len(data))
		return nil, err
	}

	res.Count = samples.Count()
	res.Skipped = samples.Skipped
	res.Stats = Summarize(samples.Values)
	res.IngestedAt = time.Now()
	res.Duration = time.Since(start)

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if _, err := s.workspace.PublishInput(res); err != nil {
		log.Info("ingest discarded", "error", err)
		return nil, err
	}

	log.Info("ingest applied",
		"count", res.Count,
		"skipped", res.Skipped,
		"rows", res.Rows,
		"cols", res.Cols,
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

// readLimited reads all of r, failing with ErrFileTooLarge past limit bytes.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if r == nil {
		return nil, ErrEmptyOrInvalidInput
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: exceeds %d bytes", ErrFileTooLarge, limit)
	}
	return data, nil
}

// ExportOptions selects the file name and format of an export.
type ExportOptions struct {
	Prefix    string
	Precision Precision
	// SizeLabel overrides the N shown in the file name. Nil uses the
	// workspace sample count.
	SizeLabel any
}

// Export writes the current result through d.
// Returns ErrNothingToExport when no result has been computed yet.
func (s *Service) Export(ctx context.Context, d Downloader, opts ExportOptions) (ExportReceipt, error) {
	snap := s.workspace.Snapshot()

	label := opts.SizeLabel
	if label == nil {
		label = snap.N
	}

	receipt, err := Export(d, ExportRequest{
		Result:    snap.Result,
		SizeLabel: label,
		Prefix:    opts.Prefix,
		Precision: opts.Precision,
	})
	log := logging.WithFields(ctx, "input_version", snap.InputVersion, "transform", snap.Transform)
	if err != nil {
		if !errors.Is(err, ErrNothingToExport) {
			log.Error("export failed", "error", err)
		}
		return ExportReceipt{}, err
	}

	log.Info("export written", "file", receipt.FileName, "lines", receipt.Lines, "bytes", receipt.Bytes)
	return receipt, nil
}

// LimiterStatus reports ingest slot usage.
func (s *Service) LimiterStatus() LimiterStatus { return s.limiter.Status() }

// WaitForIngests blocks until in-flight ingests finish or ctx is done.
func (s *Service) WaitForIngests(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// Close releases workspace subscribers.
func (s *Service) Close() { s.workspace.Close() }
