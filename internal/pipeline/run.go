// Package pipeline orchestrates full and incremental lexicon runs: document
// ingestion, the four analyzers, lexicon generation, and the manifest.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/career-lexicon/internal/classify"
	"github.com/jonathan/career-lexicon/internal/dates"
	"github.com/jonathan/career-lexicon/internal/db"
	"github.com/jonathan/career-lexicon/internal/export"
	"github.com/jonathan/career-lexicon/internal/extraction"
	"github.com/jonathan/career-lexicon/internal/keywords"
	"github.com/jonathan/career-lexicon/internal/logger"
	"github.com/jonathan/career-lexicon/internal/narratives"
	"github.com/jonathan/career-lexicon/internal/observability"
	"github.com/jonathan/career-lexicon/internal/pipeline/steps"
	"github.com/jonathan/career-lexicon/internal/qualifications"
	"github.com/jonathan/career-lexicon/internal/rendering"
	"github.com/jonathan/career-lexicon/internal/similarity"
	"github.com/jonathan/career-lexicon/internal/state"
	"github.com/jonathan/career-lexicon/internal/themes"
	"github.com/jonathan/career-lexicon/internal/types"
)

// Statistics keys reported in Result.Statistics
const (
	StatDocumentsProcessed  = "documents_processed"
	StatThemesFound         = "themes_found"
	StatQualificationsFound = "qualifications_found"
	StatNarrativesFound     = "narratives_found"
	StatKeywordsFound       = "keywords_found"
	StatNewDocuments        = "new_documents"
	StatTotalDocuments      = "total_documents"
)

// previewLength bounds document previews in debug logs
const previewLength = 80

// ProgressEvent represents a progress update during a run
type ProgressEvent struct {
	Step     string `json:"step"`
	Category string `json:"category"`
	Message  string `json:"message"`
	RunID    string `json:"run_id,omitempty"`
	Content  any    `json:"content,omitempty"`
}

// ProgressCallback is called when run progress occurs
type ProgressCallback func(event ProgressEvent)

// Options configures one run
type Options struct {
	InputDir     string
	OutputDir    string
	StateFile    string // defaults to <OutputDir>/.state.json
	MinFrequency int    // keyword threshold, defaults to keywords.DefaultMinFrequency
	Concurrency  int    // analyzers run at once, defaults to 1
	XLSXPath     string // optional workbook export
	Verbose      bool
	OnProgress   ProgressCallback
}

func (o Options) statePath() string {
	if o.StateFile != "" {
		return o.StateFile
	}
	return state.DefaultPath(o.OutputDir)
}

func (o Options) minFrequency() int {
	if o.MinFrequency <= 0 {
		return keywords.DefaultMinFrequency
	}
	return o.MinFrequency
}

func (o Options) concurrency() int {
	if o.Concurrency < 1 {
		return 1
	}
	return o.Concurrency
}

// Result is the payload of a run. Success is true iff Errors is empty. A
// failed run also lists the stages it never reached: Skipped could have
// started, Blocked were waiting on a stage that did not complete.
type Result struct {
	RunID      string         `json:"run_id,omitempty"`
	Success    bool           `json:"success"`
	Errors     []string       `json:"errors"`
	Statistics map[string]int `json:"statistics"`
	Skipped    []string       `json:"skipped_steps,omitempty"`
	Blocked    []string       `json:"blocked_steps,omitempty"`
}

// Store persists runs and their lexicons. *db.DB satisfies it.
type Store interface {
	CreateRun(ctx context.Context, mode, inputDir, outputDir string) (uuid.UUID, error)
	SaveDocuments(ctx context.Context, runID uuid.UUID, docs []db.DocumentSummary) error
	SaveLexicons(ctx context.Context, runID uuid.UUID, lex types.Lexicons) error
	SaveTextArtifact(ctx context.Context, runID uuid.UUID, step, category, text string) error
	CompleteRun(ctx context.Context, runID uuid.UUID, status string, stats map[string]int, runErrors []string) error
}

// Orchestrator runs the lexicon pipeline. Only Similarity is shared between
// runs; every other field is optional.
type Orchestrator struct {
	Similarity *similarity.Service
	Generator  *rendering.Generator
	Store      Store
	Logger     *zap.Logger
	Printer    *observability.Printer
}

// New returns an orchestrator using the given similarity service and logger
func New(sim *similarity.Service, log *zap.Logger) *Orchestrator {
	return &Orchestrator{Similarity: sim, Logger: log}
}

// RunFull processes every supported file under opts.InputDir, regardless of
// the manifest, and regenerates all four lexicons. It never returns an error;
// failures are reported in Result.Errors.
func (o *Orchestrator) RunFull(ctx context.Context, opts Options) *Result {
	r := o.start(ctx, opts, db.ModeFull)
	m := r.loadManifest()

	if !r.checkInput() {
		return r.finish(ctx)
	}

	files, err := state.ListFiles(opts.InputDir, extraction.SupportedExtensions)
	if err != nil {
		r.addError(fmt.Sprintf("failed to list input files: %v", err))
		return r.finish(ctx)
	}
	r.log.Info("found documents", zap.Int("count", len(files)))

	docs := r.processFiles(ctx, files, m)
	r.stats[StatDocumentsProcessed] = len(docs)

	r.analyzeAndGenerate(ctx, docs)
	r.saveManifest(m)
	return r.finish(ctx)
}

// RunIncremental re-extracts only new or changed files but, when anything
// changed, re-analyzes the whole current corpus. With no changes it writes
// no lexicons and only refreshes the manifest. A missing or unreadable
// manifest falls back to a full run.
func (o *Orchestrator) RunIncremental(ctx context.Context, opts Options) *Result {
	path := opts.statePath()
	m, err := state.Read(path)
	if err != nil {
		o.logger().Info("no usable manifest, running full build",
			zap.String("state_file", path), zap.Error(err))
		res := o.RunFull(ctx, opts)
		res.Statistics[StatNewDocuments] = res.Statistics[StatDocumentsProcessed]
		res.Statistics[StatTotalDocuments] = res.Statistics[StatDocumentsProcessed]
		return res
	}

	r := o.start(ctx, opts, db.ModeIncremental)
	r.stats[StatNewDocuments] = 0
	r.stats[StatTotalDocuments] = 0
	r.tracker.Complete(steps.LoadManifest)
	r.emit(steps.LoadManifest, fmt.Sprintf("Loaded manifest with %d documents", len(m.Documents)), nil)

	if !r.checkInput() {
		return r.finish(ctx)
	}

	changed, err := state.FilesToProcess(opts.InputDir, m, extraction.SupportedExtensions)
	if err != nil {
		r.addError(fmt.Sprintf("failed to list input files: %v", err))
		return r.finish(ctx)
	}

	if len(changed) == 0 {
		r.log.Info("no new or modified documents")
		r.stats[StatTotalDocuments] = len(state.KnownFiles(m))
		r.tracker.Complete(steps.ProcessDocuments)
		r.emit(steps.ProcessDocuments, "No new or modified documents", nil)
		r.saveManifest(m)
		return r.finish(ctx)
	}
	r.log.Info("found new or modified documents", zap.Int("count", len(changed)))

	isChanged := make(map[string]bool, len(changed))
	for _, f := range changed {
		isChanged[f] = true
	}
	files := append([]string(nil), changed...)
	for _, f := range state.KnownFiles(m) {
		if !isChanged[f] {
			files = append(files, f)
		}
	}
	sort.Strings(files)

	docs := r.processFiles(ctx, files, m)
	newDocs := 0
	for _, d := range docs {
		if isChanged[d.Filepath] {
			newDocs++
		}
	}
	r.stats[StatDocumentsProcessed] = len(docs)
	r.stats[StatNewDocuments] = newDocs
	r.stats[StatTotalDocuments] = len(docs)

	r.analyzeAndGenerate(ctx, docs)
	r.saveManifest(m)
	return r.finish(ctx)
}

func (o *Orchestrator) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// run carries the mutable state of one orchestrator invocation
type run struct {
	o       *Orchestrator
	opts    Options
	log     *zap.Logger
	tracker *steps.Tracker
	runID   uuid.UUID

	mu     sync.Mutex
	errors []string
	stats  map[string]int

	emitMu sync.Mutex
}

func (o *Orchestrator) start(ctx context.Context, opts Options, mode string) *run {
	r := &run{
		o:       o,
		opts:    opts,
		log:     o.logger().With(zap.String("mode", mode)),
		tracker: steps.NewTracker(),
		errors:  []string{},
		stats: map[string]int{
			StatDocumentsProcessed:  0,
			StatThemesFound:         0,
			StatQualificationsFound: 0,
			StatNarrativesFound:     0,
			StatKeywordsFound:       0,
		},
	}

	if o.Store != nil {
		id, err := o.Store.CreateRun(ctx, mode, opts.InputDir, opts.OutputDir)
		if err != nil {
			r.addError(fmt.Sprintf("failed to record run: %v", err))
		} else {
			r.runID = id
			r.log = logger.WithFields(r.log, zap.String(logger.FieldRunID, id.String()))
		}
	}
	return r
}

// addError records a run-level error and logs it
func (r *run) addError(msg string) {
	r.log.Error(msg)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, msg)
}

// emit calls the progress callback if configured
func (r *run) emit(step, message string, content any) {
	if r.opts.OnProgress == nil {
		return
	}
	event := ProgressEvent{
		Step:     step,
		Category: steps.StepRegistry[step].Category,
		Message:  message,
		Content:  content,
	}
	if r.runID != uuid.Nil {
		event.RunID = r.runID.String()
	}
	r.emitMu.Lock()
	defer r.emitMu.Unlock()
	r.opts.OnProgress(event)
}

// loadManifest reads the manifest, starting fresh when it is missing or corrupt
func (r *run) loadManifest() *state.ProcessingManifest {
	path := r.opts.statePath()
	m, err := state.Read(path)
	if err != nil {
		if state.Exists(path) {
			r.log.Warn("manifest unreadable, starting fresh", zap.String("state_file", path), zap.Error(err))
		}
		m = state.NewManifest()
	}
	r.tracker.Complete(steps.LoadManifest)
	r.emit(steps.LoadManifest, fmt.Sprintf("Loaded manifest with %d documents", len(m.Documents)), nil)
	return m
}

func (r *run) checkInput() bool {
	info, err := os.Stat(r.opts.InputDir)
	if err != nil || !info.IsDir() {
		r.addError(fmt.Sprintf("input directory not found: %s", r.opts.InputDir))
		return false
	}
	return true
}

// processFiles extracts, dates and classifies each file and records it in the
// manifest. Files without text are logged, recorded as failed extractions and
// left out of the corpus.
func (r *run) processFiles(ctx context.Context, files []string, m *state.ProcessingManifest) []types.Document {
	docs := make([]types.Document, 0, len(files))
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			r.addError(fmt.Sprintf("run cancelled: %v", err))
			break
		}

		var (
			doc types.Document
			ok  bool
		)
		if err := guard(func() error {
			doc, ok = r.processFile(path, m)
			return nil
		}); err != nil {
			r.log.Error("error processing document", zap.String(logger.FieldFile, path), zap.Error(err))
			continue
		}
		if ok {
			docs = append(docs, doc)
			r.emit(steps.ProcessDocuments, fmt.Sprintf("Processed %s as %s", path, doc.DocType), nil)
		}
	}

	r.log.Info("processed documents", zap.Int("count", len(docs)), zap.Int("files", len(files)))
	r.tracker.Complete(steps.ProcessDocuments)
	return docs
}

func (r *run) processFile(path string, m *state.ProcessingManifest) (types.Document, bool) {
	log := r.log.With(zap.String(logger.FieldFile, path))

	date := dates.ParseFilename(filepath.Base(path))
	res := extraction.Extract(path)
	if !res.Success {
		log.Warn("skipping document, extraction failed", zap.Error(res.Err(path)))
		r.recordFailure(log, path, date, m)
		return types.Document{}, false
	}
	if strings.TrimSpace(res.Text) == "" {
		log.Warn("skipping empty document")
		r.recordFailure(log, path, date, m)
		return types.Document{}, false
	}

	docType, confidence, reasoning := classify.Classify(path, res.Text)
	log.Debug("classified document",
		zap.String("document_type", string(docType)),
		zap.Float64("confidence", confidence),
		zap.String("reasoning", reasoning),
		zap.String("preview", logger.TruncateForLog(res.Text, previewLength)))

	hash, err := state.ComputeFileHash(path)
	if err != nil {
		log.Warn("skipping document, hash failed", zap.Error(err))
		return types.Document{}, false
	}
	if err := state.AddRecord(m, state.NewRecord(path, hash, docType, date, true)); err != nil {
		log.Warn("skipping document, invalid manifest record", zap.Error(err))
		return types.Document{}, false
	}

	return types.Document{Filepath: path, Text: res.Text, DocType: docType, Date: date}, true
}

// recordFailure remembers a file that yielded no text so unchanged copies of
// it are not re-extracted on the next incremental run
func (r *run) recordFailure(log *zap.Logger, path string, date *time.Time, m *state.ProcessingManifest) {
	hash, err := state.ComputeFileHash(path)
	if err != nil {
		log.Warn("failed to hash unreadable document", zap.Error(err))
		return
	}
	if err := state.AddRecord(m, state.NewRecord(path, hash, types.DocUnknown, date, false)); err != nil {
		log.Warn("invalid manifest record", zap.Error(err))
	}
}

// analyzeAndGenerate runs the analyzers on the corpus and writes the outputs
func (r *run) analyzeAndGenerate(ctx context.Context, docs []types.Document) {
	if len(docs) == 0 {
		r.addError(fmt.Sprintf("no documents could be processed from %s", r.opts.InputDir))
		return
	}

	lex := r.analyze(ctx, docs)
	r.stats[StatThemesFound] = len(lex.Themes)
	r.stats[StatQualificationsFound] = len(lex.Qualifications)
	r.stats[StatNarrativesFound] = len(lex.Narratives)
	r.stats[StatKeywordsFound] = len(lex.Keywords)

	if r.opts.Verbose && r.o.Printer != nil {
		r.o.Printer.PrintLexicons(lex)
	}

	written := r.generate(lex)
	r.export(lex)
	r.persist(ctx, docs, lex, written)
}

// analyze runs the four analyzers, at most opts.Concurrency at a time. An
// analyzer that fails or panics leaves its findings empty.
func (r *run) analyze(ctx context.Context, docs []types.Document) types.Lexicons {
	sim := r.o.Similarity
	if sim == nil {
		sim = similarity.Default()
	}
	minFreq := r.opts.minFrequency()

	var (
		lex types.Lexicons
		mu  sync.Mutex
	)
	jobs := []struct {
		step string
		name string
		run  func() (int, error)
	}{
		{steps.AnalyzeThemes, "themes", func() (int, error) {
			found, err := themes.Analyze(ctx, docs, sim)
			if err != nil {
				return 0, err
			}
			mu.Lock()
			defer mu.Unlock()
			lex.Themes = found
			return len(found), nil
		}},
		{steps.AnalyzeQualifications, "qualifications", func() (int, error) {
			found, err := qualifications.Analyze(ctx, docs, sim)
			if err != nil {
				return 0, err
			}
			mu.Lock()
			defer mu.Unlock()
			lex.Qualifications = found
			return len(found), nil
		}},
		{steps.AnalyzeNarratives, "narratives", func() (int, error) {
			found, err := narratives.Analyze(ctx, docs)
			if err != nil {
				return 0, err
			}
			mu.Lock()
			defer mu.Unlock()
			lex.Narratives = found
			return len(found), nil
		}},
		{steps.AnalyzeKeywords, "keywords", func() (int, error) {
			found, err := keywords.Analyze(ctx, docs, sim, minFreq)
			if err != nil {
				return 0, err
			}
			mu.Lock()
			defer mu.Unlock()
			lex.Keywords = found
			return len(found), nil
		}},
	}

	var g errgroup.Group
	g.SetLimit(r.opts.concurrency())
	for _, job := range jobs {
		g.Go(func() error {
			defer r.tracker.Complete(job.step)
			if err := steps.ValidateDependencies(r.tracker, job.step); err != nil {
				r.addError(fmt.Sprintf("%s analysis failed: %v", job.name, err))
				return nil
			}

			var count int
			err := guard(func() error {
				var err error
				count, err = job.run()
				return err
			})
			if err != nil {
				r.addError(fmt.Sprintf("%s analysis failed: %v", job.name, err))
				return nil
			}
			r.log.Info("analysis complete", zap.String(logger.FieldAnalyzer, job.name), zap.Int("findings", count))
			r.emit(job.step, fmt.Sprintf("Found %d %s", count, job.name), nil)
			return nil
		})
	}
	_ = g.Wait()
	return lex
}

// generate writes the four lexicons and returns the paths written, keyed by file name
func (r *run) generate(lex types.Lexicons) map[string]string {
	if err := steps.ValidateDependencies(r.tracker, steps.GenerateLexicons); err != nil {
		r.addError(fmt.Sprintf("cannot generate lexicons: %v", err))
		return nil
	}

	gen := r.o.Generator
	if gen == nil {
		gen = rendering.NewGenerator()
	}
	outputs := []struct {
		file  string
		write func(path string) error
	}{
		{rendering.ThemesFile, func(p string) error { return gen.WriteThemes(lex.Themes, p) }},
		{rendering.QualificationsFile, func(p string) error { return gen.WriteQualifications(lex.Qualifications, p) }},
		{rendering.NarrativesFile, func(p string) error { return gen.WriteNarratives(lex.Narratives, p) }},
		{rendering.KeywordsFile, func(p string) error { return gen.WriteKeywords(lex.Keywords, p, r.opts.minFrequency()) }},
	}

	written := make(map[string]string, len(outputs))
	for _, out := range outputs {
		path := filepath.Join(r.opts.OutputDir, out.file)
		if err := guard(func() error { return out.write(path) }); err != nil {
			r.addError(fmt.Sprintf("failed to generate %s: %v", out.file, err))
			continue
		}
		written[out.file] = path
		r.emit(steps.GenerateLexicons, fmt.Sprintf("Wrote %s", path), path)
	}
	r.tracker.Complete(steps.GenerateLexicons)
	return written
}

func (r *run) export(lex types.Lexicons) {
	if r.opts.XLSXPath == "" {
		return
	}
	path, err := export.WriteWorkbook(lex, r.opts.XLSXPath)
	if err != nil {
		r.addError(fmt.Sprintf("failed to export workbook: %v", err))
		return
	}
	r.tracker.Complete(steps.ExportWorkbook)
	r.emit(steps.ExportWorkbook, fmt.Sprintf("Exported workbook to %s", path), path)
}

// persist stores the document inventory, the findings and the rendered
// markdown with the run record
func (r *run) persist(ctx context.Context, docs []types.Document, lex types.Lexicons, written map[string]string) {
	if r.o.Store == nil || r.runID == uuid.Nil {
		return
	}
	if err := r.o.Store.SaveDocuments(ctx, r.runID, summarize(docs)); err != nil {
		r.addError(fmt.Sprintf("failed to persist document inventory: %v", err))
		return
	}
	if err := r.o.Store.SaveLexicons(ctx, r.runID, lex); err != nil {
		r.addError(fmt.Sprintf("failed to persist lexicons: %v", err))
		return
	}

	names := make([]string, 0, len(written))
	for name := range written {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		content, err := os.ReadFile(written[name])
		if err != nil {
			r.addError(fmt.Sprintf("failed to persist %s: %v", name, err))
			continue
		}
		if err := r.o.Store.SaveTextArtifact(ctx, r.runID, db.LexiconStep(name), db.CategoryLexicon, string(content)); err != nil {
			r.addError(fmt.Sprintf("failed to persist %s: %v", name, err))
		}
	}
	r.tracker.Complete(steps.PersistRun)
	r.emit(steps.PersistRun, "Saved lexicons to database", nil)
}

func summarize(docs []types.Document) []db.DocumentSummary {
	out := make([]db.DocumentSummary, len(docs))
	for i, d := range docs {
		out[i] = db.DocumentSummary{Filepath: d.Filepath, DocumentType: string(d.DocType)}
		if d.Date != nil {
			date := d.Date.Format(types.DateLayout)
			out[i].Date = &date
		}
	}
	return out
}

func (r *run) saveManifest(m *state.ProcessingManifest) {
	path := r.opts.statePath()
	if err := state.Save(m, path); err != nil {
		r.addError(fmt.Sprintf("failed to save manifest: %v", err))
		return
	}
	r.tracker.Complete(steps.SaveManifest)
	r.emit(steps.SaveManifest, fmt.Sprintf("Saved manifest to %s", path), nil)
}

// finish closes the run record and builds the result payload
func (r *run) finish(ctx context.Context) *Result {
	if r.o.Store != nil && r.runID != uuid.Nil {
		status := db.StatusCompleted
		if len(r.errors) > 0 {
			status = db.StatusFailed
		}
		if err := r.o.Store.CompleteRun(ctx, r.runID, status, r.stats, r.errors); err != nil {
			r.addError(fmt.Sprintf("failed to complete run record: %v", err))
		}
	}

	res := &Result{
		Success:    len(r.errors) == 0,
		Errors:     r.errors,
		Statistics: r.stats,
	}
	if r.runID != uuid.Nil {
		res.RunID = r.runID.String()
	}
	if !res.Success {
		res.Skipped = steps.GetAvailableSteps(r.tracker)
		res.Blocked = steps.GetBlockedSteps(r.tracker)
	}
	r.log.Info("run finished",
		zap.Bool("success", res.Success),
		zap.Int("errors", len(res.Errors)),
		zap.Strings("completed_steps", r.tracker.Completed()),
		zap.Strings("blocked_steps", res.Blocked))

	if r.opts.Verbose && r.o.Printer != nil {
		r.o.Printer.PrintRunSummary(res.Success, res.Statistics, res.Errors, res.Blocked)
	}
	return res
}

// guard runs fn, converting a panic into an error
func guard(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return fn()
}
