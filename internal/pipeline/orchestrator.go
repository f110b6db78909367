// Package pipeline drives one-file-at-a-time submission of uploaded
// documents to the model and merges the parsed records into the store.
package pipeline

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/KaitoS828/sappuri-CSVcenter/internal/common"
	"github.com/KaitoS828/sappuri-CSVcenter/internal/document"
	"github.com/KaitoS828/sappuri-CSVcenter/internal/llm"
	"github.com/KaitoS828/sappuri-CSVcenter/internal/metrics"
	"github.com/KaitoS828/sappuri-CSVcenter/internal/record"
)

// UploadedFile is one document submitted in a batch.
type UploadedFile struct {
	Name     string
	MIMEType string
	Data     []byte
}

// FileOutcome summarizes one file's processing.
type FileOutcome struct {
	Filename string `json:"filename"`
	Records  int    `json:"records"`
	OK       bool   `json:"ok"`
}

// BatchResult summarizes a completed batch. Failed files contribute no
// records and no per-file failure reason beyond the logs.
type BatchResult struct {
	BatchID        string        `json:"batchId"`
	FilesAttempted int           `json:"filesAttempted"`
	FilesSucceeded int           `json:"filesSucceeded"`
	RecordsAdded   int           `json:"recordsAdded"`
	ElapsedSeconds float64       `json:"elapsedSeconds"`
	Files          []FileOutcome `json:"files"`
}

// Status reports the orchestrator state for UI polling.
type Status struct {
	State          string  `json:"state"` // "idle" or "running"
	ElapsedSeconds float64 `json:"elapsedSeconds"`
}

// Orchestrator runs extraction batches strictly sequentially: one file's
// model call and parsing complete (or fail) before the next begins, and a
// second batch is refused while one is in flight.
type Orchestrator struct {
	extractor llm.DocumentExtractor
	store     *record.Store
	metrics   *metrics.Metrics
	logger    *slog.Logger

	running atomic.Bool
	timer   elapsedTimer
}

func NewOrchestrator(extractor llm.DocumentExtractor, store *record.Store, m *metrics.Metrics, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		extractor: extractor,
		store:     store,
		metrics:   m,
		logger:    logger,
	}
}

// ProcessBatch attempts every file in submission order. A model or parse
// failure on one file is logged and skipped; the batch always runs to
// completion over its submitted files. Successfully parsed records are
// appended to the store as each file finishes, so partial progress is
// visible mid-batch.
func (o *Orchestrator) ProcessBatch(ctx context.Context, files []UploadedFile) (BatchResult, error) {
	if len(files) == 0 {
		return BatchResult{}, common.ErrNoFile
	}
	if !o.running.CompareAndSwap(false, true) {
		return BatchResult{}, common.ErrBusy
	}
	defer o.running.Store(false)

	o.timer.Start()
	defer o.timer.Stop()

	batchID := uuid.New().String()
	start := time.Now()
	res := BatchResult{BatchID: batchID, FilesAttempted: len(files)}

	o.logger.Info("pipeline.batch.start", "batch_id", batchID, "files", len(files))

	for _, f := range files {
		outcome := o.processFile(ctx, batchID, f)
		res.Files = append(res.Files, outcome)
		if outcome.OK {
			res.FilesSucceeded++
			res.RecordsAdded += outcome.Records
		}
	}

	res.ElapsedSeconds = time.Since(start).Seconds()
	if o.metrics != nil {
		o.metrics.ObserveBatch(res.ElapsedSeconds)
		o.metrics.SetRecordsHeld(o.store.Len())
	}
	o.logger.Info("pipeline.batch.done",
		"batch_id", batchID,
		"files", res.FilesAttempted,
		"succeeded", res.FilesSucceeded,
		"records_added", res.RecordsAdded,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// processFile runs inspect -> model -> parse -> append for a single file.
func (o *Orchestrator) processFile(ctx context.Context, batchID string, f UploadedFile) FileOutcome {
	if o.metrics != nil {
		o.metrics.FileProcessed()
	}

	info := document.Inspect(f.Name, f.MIMEType, f.Data, o.logger)

	rawText, err := o.extractor.ExtractText(ctx, llm.ExtractRequest{
		FileBytes:    f.Data,
		MIMEType:     info.MIMEType,
		FilenameHint: f.Name,
		BatchID:      batchID,
	})
	if err != nil {
		o.logger.Error("pipeline.file.model_failed", "batch_id", batchID, "filename", f.Name, "error", err)
		if o.metrics != nil {
			o.metrics.FileFailed("model")
		}
		return FileOutcome{Filename: f.Name}
	}

	candidates, err := record.ParseResponse(rawText, o.logger)
	if err != nil {
		o.logger.Error("pipeline.file.parse_failed", "batch_id", batchID, "filename", f.Name, "error", err)
		if o.metrics != nil {
			o.metrics.FileFailed("parse")
		}
		return FileOutcome{Filename: f.Name}
	}

	total := o.store.Append(candidates, record.Provenance{
		Ref:  batchID + "/" + f.Name,
		Kind: info.MIMEType,
	})
	if o.metrics != nil {
		o.metrics.RecordsAdded(len(candidates))
		o.metrics.SetRecordsHeld(total)
	}

	o.logger.Info("pipeline.file.ok",
		"batch_id", batchID,
		"filename", f.Name,
		"records", len(candidates),
		"store_total", total,
	)
	return FileOutcome{Filename: f.Name, Records: len(candidates), OK: true}
}

// Status reports whether a batch is running and the latest elapsed sample.
func (o *Orchestrator) Status() Status {
	state := "idle"
	if o.running.Load() {
		state = "running"
	}
	return Status{
		State:          state,
		ElapsedSeconds: o.timer.Elapsed().Seconds(),
	}
}
