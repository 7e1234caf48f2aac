package app

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"invoicegen/adapters/excel"
	"invoicegen/domain/layout"
	"invoicegen/internal"
	"invoicegen/internal/bundle"
	"invoicegen/internal/config"
	"invoicegen/internal/errors"
	"invoicegen/internal/report"
	"invoicegen/models"
	"invoicegen/ports"
)

// GenerationService runs the full document pipeline for one input: resolve
// the customer bundle, load its config, render every configured sheet into
// the template workbook, save once, and record the session.
type GenerationService struct {
	bundles ports.BundleRepository
	audit   ports.AuditRepository
	cfg     *config.Config
	logger  *internal.Logger
}

// GenerationRequest describes one document to generate.
type GenerationRequest struct {
	// DataPath is the input data JSON; its file stem is the invoice
	// identifier and drives bundle resolution.
	DataPath string

	// Data is the decoded payload; when nil it is loaded from DataPath.
	Data map[string]any

	// OutputPath is where the finished workbook is saved. Empty derives
	// <output_dir>/<identifier>.xlsx.
	OutputPath string

	Mode layout.Mode

	// ExplicitConfigPath and ExplicitTemplatePath bypass bundle
	// resolution when both are set.
	ExplicitConfigPath   string
	ExplicitTemplatePath string
}

// GenerationResult reports one finished run.
type GenerationResult struct {
	Session    *models.GenerationSession
	OutputPath string
	Report     report.Report
}

// NewGenerationService creates a generation service. audit may be nil;
// sessions are then reported through the sidecar only.
func NewGenerationService(bundles ports.BundleRepository, audit ports.AuditRepository, cfg *config.Config) *GenerationService {
	return &GenerationService{
		bundles: bundles,
		audit:   audit,
		cfg:     cfg,
		logger:  internal.DefaultLogger,
	}
}

// Generate renders one document end to end. Structural failures (missing
// footer boundary, content loss, absent styling) abort the run with no
// output file written; a sheet failing for any other reason records a
// partial success and the remaining sheets still render.
func (s *GenerationService) Generate(ctx context.Context, req GenerationRequest) (*GenerationResult, error) {
	started := time.Now()
	identifier := identifierOf(req.DataPath)

	// Bundle resolution runs first so an unknown identifier reports
	// BUNDLE_NOT_FOUND even when the data path is bad too.
	assets, err := s.resolveAssets(req)
	if err != nil {
		return nil, err
	}

	data := req.Data
	if data == nil {
		loaded, err := loadInputData(req.DataPath)
		if err != nil {
			return nil, err
		}
		data = loaded
	}

	b, err := bundle.Load(assets.ConfigPath)
	if err != nil {
		return nil, err
	}

	file, err := excelize.OpenFile(assets.TemplatePath)
	if err != nil {
		return nil, errors.Wrapf(err, "opening template %s", assets.TemplatePath)
	}
	defer file.Close()

	outputPath := req.OutputPath
	if outputPath == "" {
		name := identifier + ".xlsx"
		if s.cfg.Generation.KeepTemplateName {
			name = filepath.Base(assets.TemplatePath)
		}
		outputPath = filepath.Join(s.cfg.Paths.OutputDir, name)
	}

	session := models.NewGenerationSession(uuid.New(), identifier, b.Customer(), map[string]any{
		"config_path":   assets.ConfigPath,
		"template_path": assets.TemplatePath,
	})
	session.TemplatePath = assets.TemplatePath
	session.OutputPath = outputPath
	session.DAFMode = req.Mode.DAF
	session.CustomMode = req.Mode.Custom

	rules := bundle.BuildReplacementRules(req.Mode, b.Doc.Context)
	s.logger.Info("Generation %s: %d sheets, %d replacement rules, daf=%v custom=%v",
		identifier, len(b.SheetOrder()), len(rules), req.Mode.DAF, req.Mode.Custom)

	var outcomes []report.SheetOutcome
	var replacements []report.ReplacementEntry
	sheetDone := make(map[string]*models.GenerationSheet)

	for _, sheetName := range b.SheetOrder() {
		if err := ctx.Err(); err != nil {
			session.Finish(models.GenerationStatusFatal, err)
			s.record(ctx, session, sheetDone)
			return nil, errors.Wrap(err, "generation cancelled")
		}

		outcome, changes, fatal := s.processSheet(file, b, sheetName, data, rules, req.Mode)
		if d := time.Duration(outcome.DurationMS) * time.Millisecond; d > s.cfg.Generation.SheetTimeout {
			s.logger.Warn("Sheet %s took %s, over the %s budget", sheetName, d, s.cfg.Generation.SheetTimeout)
		}
		outcomes = append(outcomes, outcome)
		session.RecordSheet(outcome.Succeeded)
		sheetDone[sheetName] = sheetRecord(session.ID, outcome)
		replacements = append(replacements, changes...)

		if fatal != nil {
			session.Finish(models.GenerationStatusFatal, fatal)
			s.record(ctx, session, sheetDone)
			return nil, fatal
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating output directory for %s", outputPath)
	}
	if err := file.SaveAs(outputPath); err != nil {
		saveErr := errors.Wrapf(err, "saving workbook %s", outputPath)
		session.Finish(models.GenerationStatusFatal, saveErr)
		s.record(ctx, session, sheetDone)
		return nil, saveErr
	}

	session.Finish(session.Outcome(), nil)
	s.record(ctx, session, sheetDone)

	rep := report.Report{
		SessionID:    session.ID.String(),
		Status:       string(session.Status),
		Identifier:   identifier,
		Customer:     b.Customer(),
		OutputFile:   outputPath,
		DAFMode:      req.Mode.DAF,
		CustomMode:   req.Mode.Custom,
		GeneratedAt:  started,
		DurationMS:   time.Since(started).Milliseconds(),
		Sheets:       outcomes,
		Replacements: replacements,
	}
	if tables, ok := data["processed_tables_data"].(map[string]any); ok {
		rep.Summary = report.Summarize(tables)
	}
	if s.cfg.Report.Enabled {
		if err := report.WriteSidecar(outputPath, rep); err != nil {
			s.logger.Warn("Sidecar for %s not written: %v", identifier, err)
		}
	}

	s.logger.Info("Generation %s finished with status %s in %dms", identifier, session.Status, rep.DurationMS)
	return &GenerationResult{Session: session, OutputPath: outputPath, Report: rep}, nil
}

// processSheet renders one sheet. The third return value is non-nil only
// for structural errors that must abort the whole document.
func (s *GenerationService) processSheet(file *excelize.File, b *bundle.Bundle, sheetName string, data map[string]any, rules []bundle.ReplacementRule, mode layout.Mode) (report.SheetOutcome, []report.ReplacementEntry, error) {
	started := time.Now()
	outcome := report.SheetOutcome{Name: sheetName}

	fail := func(err error) (report.SheetOutcome, []report.ReplacementEntry, error) {
		outcome.Error = err.Error()
		outcome.DurationMS = time.Since(started).Milliseconds()
		if isStructural(err) {
			s.logger.Error("Sheet %s failed structurally: %v", sheetName, err)
			return outcome, nil, err
		}
		s.logger.Warn("Sheet %s failed: %v", sheetName, err)
		return outcome, nil, nil
	}

	idx, err := file.GetSheetIndex(sheetName)
	if err != nil || idx < 0 {
		return fail(errors.NotFound("sheet " + sheetName + " in template"))
	}

	sb, err := b.Sheet(sheetName)
	if err != nil {
		return fail(err)
	}

	footerStart, err := excel.DetectFooterStart(file, sheetName, sb.Layout.HeaderRow)
	if err != nil {
		return fail(err)
	}

	snap, err := excel.CaptureSnapshot(file, sheetName, sb.Layout.HeaderRow-1, footerStart)
	if err != nil {
		return fail(err)
	}

	changes := snap.ApplyReplacements(rules, data)

	tables := resolveTables(sb, data, mode)
	result, err := excel.NewSheetProcessor(file, sheetName).Process(excel.SheetParams{
		Layout:        sb.Layout,
		Styles:        sb.Styles,
		Mode:          mode,
		Snapshot:      snap,
		Tables:        tables,
		GlobalWeights: globalWeights(data),
	})
	if err != nil {
		return fail(err)
	}

	excel.ConfigurePrintArea(file, sheetName)

	outcome.Succeeded = true
	outcome.Tables = len(result.Tables)
	outcome.Rows = result.RowsOut
	outcome.DurationMS = time.Since(started).Milliseconds()
	return outcome, replacementEntries(changes), nil
}

func (s *GenerationService) resolveAssets(req GenerationRequest) (ports.BundleAssets, error) {
	if req.ExplicitConfigPath != "" && req.ExplicitTemplatePath != "" {
		return ports.BundleAssets{
			DataPath:     req.DataPath,
			ConfigPath:   req.ExplicitConfigPath,
			TemplatePath: req.ExplicitTemplatePath,
		}, nil
	}
	return s.bundles.Resolve(req.DataPath)
}

// record persists the session and its sheet rows; persistence failures
// are logged, never allowed to mask the generation outcome.
func (s *GenerationService) record(ctx context.Context, session *models.GenerationSession, sheets map[string]*models.GenerationSheet) {
	if s.audit == nil {
		return
	}
	if err := s.audit.SaveSession(ctx, session); err != nil {
		s.logger.Warn("Failed to persist session %s: %v", session.ID, err)
		return
	}
	for _, sheet := range sheets {
		if err := s.audit.SaveSheet(ctx, sheet); err != nil {
			s.logger.Warn("Failed to persist sheet %s of session %s: %v", sheet.SheetName, session.ID, err)
		}
	}
}

// isStructural reports whether the error must abort the whole document.
func isStructural(err error) bool {
	switch errors.GetCode(err) {
	case errors.CodeFooterNotFound, errors.CodeContentLoss, errors.CodeTemplateInvalid, errors.CodeConfigInvalid:
		return true
	}
	return false
}

func identifierOf(dataPath string) string {
	base := filepath.Base(dataPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func loadInputData(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading input data %s", path)
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, errors.Wrapf(err, "parsing input data %s", path)
	}
	return data, nil
}

func sheetRecord(sessionID uuid.UUID, outcome report.SheetOutcome) *models.GenerationSheet {
	record := &models.GenerationSheet{
		ID:          uuid.New(),
		SessionID:   sessionID,
		SheetName:   outcome.Name,
		Succeeded:   outcome.Succeeded,
		RowsWritten: outcome.Rows,
		Tables:      outcome.Tables,
		DurationMS:  outcome.DurationMS,
		CreatedAt:   time.Now(),
	}
	if outcome.Error != "" {
		record.Error.String = outcome.Error
		record.Error.Valid = true
	}
	return record
}

func replacementEntries(changes []excel.ReplacementChange) []report.ReplacementEntry {
	if len(changes) == 0 {
		return nil
	}
	entries := make([]report.ReplacementEntry, len(changes))
	for i, c := range changes {
		entries[i] = report.ReplacementEntry{
			Original: c.Original,
			New:      c.New,
			Term:     c.Term,
			Location: c.Location,
		}
	}
	return entries
}
