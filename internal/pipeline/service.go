// Package pipeline ties the import paths together: delimited files parsed
// locally, documents extracted through the model, and model-driven CSV
// conversion. Every ingested document is archived in the blob store and
// recorded as a stored file.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rfmelo/gestorpme/internal/delimited"
	"github.com/rfmelo/gestorpme/internal/domain"
	"github.com/rfmelo/gestorpme/internal/extract"
	"github.com/rfmelo/gestorpme/internal/filestore"
	"github.com/rfmelo/gestorpme/internal/importer"
	"github.com/rfmelo/gestorpme/internal/runs"
	"github.com/rfmelo/gestorpme/internal/store"
)

// Target says what a delimited file contains.
type Target string

const (
	TargetClients      Target = "clients"
	TargetTransactions Target = "transactions"
)

// Extractor is what the pipeline needs from the generative layer.
type Extractor interface {
	ExtractRecords(ctx context.Context, doc extract.Document, mode extract.Mode, hint domain.PolarityHint, settings domain.Settings) (extract.Extraction, error)
	ConvertCSV(ctx context.Context, doc extract.Document, mode extract.Mode) (string, error)
}

// Upload is an incoming file plus its declared media type.
type Upload struct {
	Name      string
	MediaType string
	Data      []byte
}

// Result is what an import run produced.
type Result struct {
	RunID    string           `json:"runId"`
	Summary  importer.Summary `json:"summary"`
	Artifact string           `json:"artifact,omitempty"` // converted CSV, when the run produced one
}

// Service runs imports. One at a time: every entry point goes through the
// gate.
type Service struct {
	store     store.Store
	blobs     filestore.Blobs
	extractor Extractor
	exec      *importer.Executor
	gate      *importer.Gate
	runs      *runs.Tracker
	activity  *importer.ActivityLog
	log       zerolog.Logger

	now   func() time.Time
	newID func() string
}

func NewService(
	s store.Store,
	blobs filestore.Blobs,
	extractor Extractor,
	exec *importer.Executor,
	activity *importer.ActivityLog,
	log zerolog.Logger,
) *Service {
	return &Service{
		store:     s,
		blobs:     blobs,
		extractor: extractor,
		exec:      exec,
		gate:      importer.NewGate(),
		runs:      runs.NewTracker(),
		activity:  activity,
		log:       log,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Runs exposes the run tracker for the API layer.
func (s *Service) Runs() *runs.Tracker { return s.runs }

// Activity exposes the operator-facing log for the API layer.
func (s *Service) Activity() *importer.ActivityLog { return s.activity }

// ImportDelimited imports a CSV or XLSX file without touching the model.
func (s *Service) ImportDelimited(ctx context.Context, up Upload, target Target, hint domain.PolarityHint) (Result, error) {
	if err := s.gate.Acquire(); err != nil {
		return Result{}, err
	}
	defer s.gate.Release()

	runID := s.runs.Begin(runs.KindDelimited, up.Name)
	s.activity.Clear()
	s.activity.Add(importer.SeverityInfo, fmt.Sprintf("importando %s", up.Name))

	summary, err := s.importDelimited(ctx, up, target, hint)
	if err != nil {
		s.runs.Fail(runID, err)
		return Result{RunID: runID}, err
	}
	s.runs.Complete(runID, summary)
	return Result{RunID: runID, Summary: summary}, nil
}

func (s *Service) importDelimited(ctx context.Context, up Upload, target Target, hint domain.PolarityHint) (importer.Summary, error) {
	// 1. Parse the file into classified rows. XLSX goes through excelize,
	// everything else through the delimiter sniffer.
	table, err := parseUpload(up)
	if err != nil {
		s.activity.Add(importer.SeverityError, err.Error())
		return importer.Summary{}, err
	}
	// 2. Archive the original file.
	if err := s.archive(ctx, up); err != nil {
		s.log.Warn().Err(err).Str("file", up.Name).Msg("falha ao arquivar documento")
	}

	// 3. Merge into the store.
	return s.merge(ctx, table.Records(), target, hint)
}

// ImportDocument sends the document to the model and merges whatever it
// extracted, clients and transactions alike.
func (s *Service) ImportDocument(ctx context.Context, up Upload, mode extract.Mode, hint domain.PolarityHint) (Result, error) {
	if err := s.gate.Acquire(); err != nil {
		return Result{}, err
	}
	defer s.gate.Release()

	runID := s.runs.Begin(runs.KindDocument, up.Name)
	s.activity.Clear()
	s.activity.Add(importer.SeverityInfo, fmt.Sprintf("extraindo %s", up.Name))

	summary, err := s.importDocument(ctx, up, mode, hint)
	if err != nil {
		s.activity.Add(importer.SeverityError, err.Error())
		s.runs.Fail(runID, err)
		return Result{RunID: runID}, err
	}
	s.runs.Complete(runID, summary)
	return Result{RunID: runID, Summary: summary}, nil
}

func (s *Service) importDocument(ctx context.Context, up Upload, mode extract.Mode, hint domain.PolarityHint) (importer.Summary, error) {
	// 1. Load current settings so the prompt lists known values.
	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return importer.Summary{}, err
	}

	// 2. Extract records through the model.
	doc := extract.Document{Name: up.Name, MIMEType: up.MediaType, Data: up.Data}
	ext, err := s.extractor.ExtractRecords(ctx, doc, mode, hint, settings)
	if err != nil {
		return importer.Summary{}, err
	}
	if ext.RepairAttempts > 0 {
		s.activity.Add(importer.SeverityWarning, fmt.Sprintf("resposta do modelo recuperada após %d reparo(s)", ext.RepairAttempts))
	}

	// 3. Archive the original document.
	if err := s.archive(ctx, up); err != nil {
		s.log.Warn().Err(err).Str("file", up.Name).Msg("falha ao arquivar documento")
	}

	// 4. Merge clients first, then transactions, accumulating one summary.
	var total importer.Summary
	if len(ext.Clients) > 0 {
		cs, err := s.exec.ImportClients(ctx, ext.Clients)
		if err != nil {
			return total, err
		}
		accumulate(&total, cs)
	}
	if len(ext.Transactions) > 0 {
		ts, err := s.exec.ImportTransactions(ctx, ext.Transactions, settings, hint)
		if err != nil {
			return total, err
		}
		accumulate(&total, ts)
	}

	// 5. Fold newly seen categories and entities into the settings. The
	// gate makes this the only writer.
	if err := s.mergeSettings(ctx, settings, total); err != nil {
		return total, err
	}
	return total, nil
}

// ConvertAndImport asks the model for a CSV rendition of the document,
// imports it through the local parser and returns the CSV artifact. The
// artifact comes back even when the follow-up import fails.
func (s *Service) ConvertAndImport(ctx context.Context, up Upload, mode extract.Mode, hint domain.PolarityHint) (Result, error) {
	if err := s.gate.Acquire(); err != nil {
		return Result{}, err
	}
	defer s.gate.Release()

	runID := s.runs.Begin(runs.KindConvert, up.Name)
	s.activity.Clear()
	s.activity.Add(importer.SeverityInfo, fmt.Sprintf("convertendo %s", up.Name))

	// 1. Model converts the document to the fixed CSV layout.
	doc := extract.Document{Name: up.Name, MIMEType: up.MediaType, Data: up.Data}
	csv, err := s.extractor.ConvertCSV(ctx, doc, mode)
	if err != nil {
		s.activity.Add(importer.SeverityError, err.Error())
		s.runs.Fail(runID, err)
		return Result{RunID: runID}, err
	}

	// 2. Archive the original document.
	if err := s.archive(ctx, up); err != nil {
		s.log.Warn().Err(err).Str("file", up.Name).Msg("falha ao arquivar documento")
	}

	// 3. Re-parse the artifact through the local path and import it.
	result := Result{RunID: runID, Artifact: csv}
	table, err := delimited.Parse(csv)
	if err != nil {
		s.activity.Add(importer.SeverityError, err.Error())
		s.runs.Fail(runID, err)
		return result, err
	}
	summary, err := s.merge(ctx, table.Records(), TargetTransactions, hint)
	if err != nil {
		s.runs.Fail(runID, err)
		return result, err
	}

	result.Summary = summary
	s.runs.Complete(runID, summary)
	return result, nil
}

// merge routes records to the right executor and persists new settings
// values for transaction imports.
func (s *Service) merge(ctx context.Context, records []domain.ImportRecord, target Target, hint domain.PolarityHint) (importer.Summary, error) {
	if target == TargetClients {
		return s.exec.ImportClients(ctx, records)
	}
	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return importer.Summary{}, err
	}
	summary, err := s.exec.ImportTransactions(ctx, records, settings, hint)
	if err != nil {
		return summary, err
	}
	if err := s.mergeSettings(ctx, settings, summary); err != nil {
		return summary, err
	}
	return summary, nil
}

// mergeSettings appends newly seen categories and entities and saves.
func (s *Service) mergeSettings(ctx context.Context, settings domain.Settings, summary importer.Summary) error {
	if len(summary.NewCategories) == 0 && len(summary.NewEntities) == 0 {
		return nil
	}
	settings.Categories = append(settings.Categories, summary.NewCategories...)
	settings.Entities = append(settings.Entities, summary.NewEntities...)
	return s.store.SaveSettings(ctx, settings)
}

// archive saves the raw upload and records it as a stored file.
func (s *Service) archive(ctx context.Context, up Upload) error {
	id := s.newID()
	uri, err := s.blobs.Save(ctx, id+"-"+filepath.Base(up.Name), up.Data)
	if err != nil {
		return err
	}
	return s.store.UpsertFile(ctx, domain.StoredFile{
		ID:        id,
		Name:      up.Name,
		MimeClass: domain.ClassifyMime(up.MediaType),
		SizeLabel: domain.SizeLabel(int64(len(up.Data))),
		Date:      s.now(),
		URI:       uri,
	})
}

func parseUpload(up Upload) (*delimited.Table, error) {
	ext := strings.ToLower(filepath.Ext(up.Name))
	if ext == ".xlsx" || ext == ".xls" {
		return delimited.ParseWorkbook(bytes.NewReader(up.Data))
	}
	return delimited.Parse(string(up.Data))
}

func accumulate(total *importer.Summary, s importer.Summary) {
	total.Created += s.Created
	total.Warnings += s.Warnings
	total.NewCategories = append(total.NewCategories, s.NewCategories...)
	total.NewEntities = append(total.NewEntities, s.NewEntities...)
}
