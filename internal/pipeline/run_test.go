package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/career-lexicon/internal/db"
	"github.com/jonathan/career-lexicon/internal/observability"
	"github.com/jonathan/career-lexicon/internal/pipeline/steps"
	"github.com/jonathan/career-lexicon/internal/rendering"
	"github.com/jonathan/career-lexicon/internal/similarity"
	"github.com/jonathan/career-lexicon/internal/state"
	"github.com/jonathan/career-lexicon/internal/types"
)

var lexiconFiles = []string{
	rendering.ThemesFile,
	rendering.QualificationsFile,
	rendering.NarrativesFile,
	rendering.KeywordsFile,
}

const coverLetter = `Dear Hiring Manager,

I believe in collaborative leadership. I value transparency in every team I join.
I work like a bridge between product and engineering. Furthermore, I enjoy stakeholder management across product groups.
I look forward to discussing the role.

Sincerely,
Jordan`

const resume2020 = `Senior Software Engineer at TechCorp
- Built payment APIs and owned stakeholder management for the payments program.
`

const resume2024 = `Senior Software Engineer at TechCorp
- Led the payments team through a platform migration with careful stakeholder management.
`

// writeCorpus creates three documents and returns the input and output directories
func writeCorpus(t *testing.T) (string, string) {
	t.Helper()
	root := t.TempDir()
	in := filepath.Join(root, "documents")
	require.NoError(t, os.MkdirAll(in, 0o755))

	files := map[string]string{
		"2024-01-15-cover-letter.txt": coverLetter,
		"2020-06-01-resume.txt":       resume2020,
		"2024-02-01-resume.txt":       resume2024,
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(in, name), []byte(content), 0o644))
	}
	return in, filepath.Join(root, "lexicons")
}

func newTestOrchestrator() *Orchestrator {
	return New(similarity.NewServiceWithEmbedder(similarity.NewHashingEmbedder(similarity.DefaultDimension)), nil)
}

func modTimes(t *testing.T, dir string) map[string]time.Time {
	t.Helper()
	out := make(map[string]time.Time)
	for _, f := range lexiconFiles {
		info, err := os.Stat(filepath.Join(dir, f))
		require.NoError(t, err)
		out[f] = info.ModTime()
	}
	return out
}

func TestRunFull(t *testing.T) {
	in, out := writeCorpus(t)

	res := newTestOrchestrator().RunFull(context.Background(), Options{InputDir: in, OutputDir: out})
	require.True(t, res.Success, "errors: %v", res.Errors)
	assert.Empty(t, res.Errors)
	assert.Empty(t, res.RunID)
	assert.Nil(t, res.Skipped)
	assert.Nil(t, res.Blocked)

	assert.Equal(t, 3, res.Statistics[StatDocumentsProcessed])
	assert.Greater(t, res.Statistics[StatThemesFound], 0)
	assert.Greater(t, res.Statistics[StatNarrativesFound], 0)
	for _, key := range []string{StatQualificationsFound, StatKeywordsFound} {
		assert.Contains(t, res.Statistics, key)
	}
	assert.NotContains(t, res.Statistics, StatNewDocuments)

	for _, f := range lexiconFiles {
		assert.FileExists(t, filepath.Join(out, f))
	}

	m, err := state.Read(state.DefaultPath(out))
	require.NoError(t, err)
	require.Len(t, m.Documents, 3)
	letter := filepath.Join(in, "2024-01-15-cover-letter.txt")
	rec, ok := m.Documents[letter]
	require.True(t, ok)
	assert.Equal(t, types.DocCoverLetter, rec.DocumentType)
	require.NotNil(t, rec.DateFromFilename)
	assert.Equal(t, "2024-01-15", *rec.DateFromFilename)
	hash, err := state.ComputeFileHash(letter)
	require.NoError(t, err)
	assert.Equal(t, hash, rec.FileHash)
}

func TestRunIncremental_NoChanges(t *testing.T) {
	in, out := writeCorpus(t)
	o := newTestOrchestrator()
	opts := Options{InputDir: in, OutputDir: out}

	first := o.RunFull(context.Background(), opts)
	require.True(t, first.Success, "errors: %v", first.Errors)

	before := modTimes(t, out)
	m, err := state.Read(state.DefaultPath(out))
	require.NoError(t, err)
	stamp := m.LastUpdated

	time.Sleep(20 * time.Millisecond)
	second := o.RunIncremental(context.Background(), opts)
	require.True(t, second.Success, "errors: %v", second.Errors)
	assert.Equal(t, 0, second.Statistics[StatNewDocuments])
	assert.Equal(t, 3, second.Statistics[StatTotalDocuments])
	assert.Equal(t, 0, second.Statistics[StatDocumentsProcessed])
	assert.Equal(t, 0, second.Statistics[StatThemesFound])

	assert.Equal(t, before, modTimes(t, out))
	m, err = state.Read(state.DefaultPath(out))
	require.NoError(t, err)
	assert.NotEqual(t, stamp, m.LastUpdated)
	assert.Len(t, m.Documents, 3)
}

func TestRunIncremental_UnreadableFileIsNotRetried(t *testing.T) {
	in, out := writeCorpus(t)
	notes := filepath.Join(in, "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("   \n"), 0o644))
	o := newTestOrchestrator()
	opts := Options{InputDir: in, OutputDir: out}

	full := o.RunFull(context.Background(), opts)
	require.True(t, full.Success, "errors: %v", full.Errors)
	assert.Equal(t, 3, full.Statistics[StatDocumentsProcessed])
	before := modTimes(t, out)

	m, err := state.Read(state.DefaultPath(out))
	require.NoError(t, err)
	rec, ok := m.Documents[notes]
	require.True(t, ok, "empty files are recorded")
	assert.False(t, rec.ExtractionSuccess)
	assert.Equal(t, types.DocUnknown, rec.DocumentType)

	for i := 0; i < 2; i++ {
		time.Sleep(20 * time.Millisecond)
		res := o.RunIncremental(context.Background(), opts)
		require.True(t, res.Success, "errors: %v", res.Errors)
		assert.Equal(t, 0, res.Statistics[StatNewDocuments])
		assert.Equal(t, 3, res.Statistics[StatTotalDocuments])
		assert.Equal(t, 0, res.Statistics[StatDocumentsProcessed])
		assert.Equal(t, before, modTimes(t, out), "lexicons are not rewritten")
	}
}

func TestRunIncremental_ModifiedFile(t *testing.T) {
	in, out := writeCorpus(t)
	o := newTestOrchestrator()
	opts := Options{InputDir: in, OutputDir: out}

	require.True(t, o.RunFull(context.Background(), opts).Success)

	changed := filepath.Join(in, "2024-02-01-resume.txt")
	require.NoError(t, os.WriteFile(changed, []byte(resume2024+"- Mentored four engineers through promotion.\n"), 0o644))

	res := o.RunIncremental(context.Background(), opts)
	require.True(t, res.Success, "errors: %v", res.Errors)
	assert.Equal(t, 1, res.Statistics[StatNewDocuments])
	assert.Equal(t, 3, res.Statistics[StatTotalDocuments])
	assert.Equal(t, 3, res.Statistics[StatDocumentsProcessed])
	assert.Greater(t, res.Statistics[StatThemesFound], 0, "analysis spans the whole corpus")

	m, err := state.Read(state.DefaultPath(out))
	require.NoError(t, err)
	hash, err := state.ComputeFileHash(changed)
	require.NoError(t, err)
	assert.Equal(t, hash, m.Documents[changed].FileHash)
	assert.False(t, state.NeedsProcessing(changed, m))
}

func TestRunIncremental_WithoutManifestRunsFull(t *testing.T) {
	in, out := writeCorpus(t)

	res := newTestOrchestrator().RunIncremental(context.Background(), Options{InputDir: in, OutputDir: out})
	require.True(t, res.Success, "errors: %v", res.Errors)
	assert.Equal(t, 3, res.Statistics[StatDocumentsProcessed])
	assert.Equal(t, 3, res.Statistics[StatNewDocuments])
	assert.Equal(t, 3, res.Statistics[StatTotalDocuments])
	assert.FileExists(t, state.DefaultPath(out))
}

func TestRun_CorruptManifest(t *testing.T) {
	tests := []struct {
		name string
		run  func(*Orchestrator, Options) *Result
	}{
		{"full", func(o *Orchestrator, opts Options) *Result { return o.RunFull(context.Background(), opts) }},
		{"incremental", func(o *Orchestrator, opts Options) *Result { return o.RunIncremental(context.Background(), opts) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, out := writeCorpus(t)
			statePath := filepath.Join(out, "custom-state.json")
			require.NoError(t, os.MkdirAll(out, 0o755))
			require.NoError(t, os.WriteFile(statePath, []byte("{not json"), 0o644))

			res := tt.run(newTestOrchestrator(), Options{InputDir: in, OutputDir: out, StateFile: statePath})
			require.True(t, res.Success, "errors: %v", res.Errors)
			assert.Equal(t, 3, res.Statistics[StatDocumentsProcessed])

			m, err := state.Read(statePath)
			require.NoError(t, err)
			assert.Len(t, m.Documents, 3)
			assert.NoFileExists(t, state.DefaultPath(out))
		})
	}
}

func TestRun_MissingInputDirectory(t *testing.T) {
	root := t.TempDir()
	missing := filepath.Join(root, "nope")
	opts := Options{InputDir: missing, OutputDir: filepath.Join(root, "out")}

	res := newTestOrchestrator().RunFull(context.Background(), opts)
	assert.False(t, res.Success)
	assert.Equal(t, []string{"input directory not found: " + missing}, res.Errors)
	assert.Equal(t, 0, res.Statistics[StatDocumentsProcessed])
	assert.NoFileExists(t, filepath.Join(root, "out", rendering.ThemesFile))

	res = newTestOrchestrator().RunIncremental(context.Background(), opts)
	assert.False(t, res.Success)
	assert.Contains(t, res.Errors, "input directory not found: "+missing)
}

func TestRun_NoDocumentsIsAnError(t *testing.T) {
	root := t.TempDir()
	in := filepath.Join(root, "in")
	require.NoError(t, os.MkdirAll(in, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(in, "blank.txt"), []byte("   \n\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(in, "image.png"), []byte("png"), 0o644))

	res := newTestOrchestrator().RunFull(context.Background(), Options{InputDir: in, OutputDir: filepath.Join(root, "out")})
	assert.False(t, res.Success)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "no documents could be processed")
	assert.Equal(t, 0, res.Statistics[StatDocumentsProcessed])
	assert.Equal(t, []string{steps.AnalyzeKeywords, steps.AnalyzeNarratives, steps.AnalyzeQualifications, steps.AnalyzeThemes}, res.Skipped)
	assert.Equal(t, []string{steps.ExportWorkbook, steps.GenerateLexicons, steps.PersistRun}, res.Blocked)
}

// panicEmbedder fails the way an unexpected analyzer bug would
type panicEmbedder struct{}

func (panicEmbedder) Embed(context.Context, []string) ([][]float32, error) {
	panic("embedding backend exploded")
}

func (panicEmbedder) Dimension() int { return 8 }

func TestRun_AnalyzerPanicIsIsolated(t *testing.T) {
	in, out := writeCorpus(t)
	o := New(similarity.NewServiceWithEmbedder(panicEmbedder{}), nil)

	res := o.RunFull(context.Background(), Options{InputDir: in, OutputDir: out, Concurrency: 4})
	assert.False(t, res.Success)
	assert.Contains(t, res.Errors, "keywords analysis failed: panic: embedding backend exploded")
	assert.Equal(t, 0, res.Statistics[StatKeywordsFound])
	assert.Greater(t, res.Statistics[StatNarrativesFound], 0)

	for _, f := range lexiconFiles {
		assert.FileExists(t, filepath.Join(out, f))
	}
	m, err := state.Read(state.DefaultPath(out))
	require.NoError(t, err)
	assert.Len(t, m.Documents, 3)
}

func TestRun_GeneratorFailureIsRecorded(t *testing.T) {
	in, out := writeCorpus(t)
	require.NoError(t, os.MkdirAll(out, 0o755))
	// A directory where a lexicon file should go makes that write fail.
	require.NoError(t, os.MkdirAll(filepath.Join(out, rendering.ThemesFile), 0o755))

	res := newTestOrchestrator().RunFull(context.Background(), Options{InputDir: in, OutputDir: out})
	assert.False(t, res.Success)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "failed to generate "+rendering.ThemesFile)
	assert.FileExists(t, filepath.Join(out, rendering.KeywordsFile))
	assert.FileExists(t, state.DefaultPath(out))
}

func TestRun_ProgressAndSinks(t *testing.T) {
	in, out := writeCorpus(t)
	var printed bytes.Buffer
	o := newTestOrchestrator()
	o.Printer = observability.NewPrinter(&printed)

	var events []ProgressEvent
	res := o.RunFull(context.Background(), Options{
		InputDir:   in,
		OutputDir:  out,
		XLSXPath:   filepath.Join(out, "lexicons"),
		Verbose:    true,
		OnProgress: func(e ProgressEvent) { events = append(events, e) },
	})
	require.True(t, res.Success, "errors: %v", res.Errors)
	assert.FileExists(t, filepath.Join(out, "lexicons.xlsx"))

	categories := make(map[string]bool)
	for _, e := range events {
		assert.NotEmpty(t, e.Message)
		categories[e.Category] = true
	}
	for _, c := range []string{"manifest", "processing", "analyzing", "generating", "saving"} {
		assert.True(t, categories[c], "missing %s event", c)
	}

	assert.Contains(t, printed.String(), "RUN SUMMARY")
	assert.Contains(t, printed.String(), "TOP THEMES")
}

// fakeStore records calls made by the orchestrator
type fakeStore struct {
	id        uuid.UUID
	createErr error
	docs      []db.DocumentSummary
	saved     *types.Lexicons
	texts     map[string]string
	status    string
	stats     map[string]int
}

func (f *fakeStore) CreateRun(_ context.Context, _, _, _ string) (uuid.UUID, error) {
	if f.createErr != nil {
		return uuid.Nil, f.createErr
	}
	return f.id, nil
}

func (f *fakeStore) SaveDocuments(_ context.Context, _ uuid.UUID, docs []db.DocumentSummary) error {
	f.docs = docs
	return nil
}

func (f *fakeStore) SaveLexicons(_ context.Context, _ uuid.UUID, lex types.Lexicons) error {
	f.saved = &lex
	return nil
}

func (f *fakeStore) SaveTextArtifact(_ context.Context, _ uuid.UUID, step, _, text string) error {
	if f.texts == nil {
		f.texts = make(map[string]string)
	}
	f.texts[step] = text
	return nil
}

func (f *fakeStore) CompleteRun(_ context.Context, _ uuid.UUID, status string, stats map[string]int, _ []string) error {
	f.status = status
	f.stats = stats
	return nil
}

func TestRun_PersistsToStore(t *testing.T) {
	in, out := writeCorpus(t)
	store := &fakeStore{id: uuid.New()}
	o := newTestOrchestrator()
	o.Store = store

	res := o.RunFull(context.Background(), Options{InputDir: in, OutputDir: out})
	require.True(t, res.Success, "errors: %v", res.Errors)
	assert.Equal(t, store.id.String(), res.RunID)

	require.Len(t, store.docs, 3)
	for _, d := range store.docs {
		assert.NotEmpty(t, d.DocumentType)
		require.NotNil(t, d.Date, d.Filepath)
	}

	require.NotNil(t, store.saved)
	assert.Len(t, store.saved.Themes, res.Statistics[StatThemesFound])
	assert.Len(t, store.texts, len(lexiconFiles))
	for _, f := range lexiconFiles {
		assert.Contains(t, store.texts[db.LexiconStep(f)], "Generated:")
	}
	assert.Equal(t, db.StatusCompleted, store.status)
	assert.Equal(t, 3, store.stats[StatDocumentsProcessed])
}

func TestRun_StoreFailureIsRecorded(t *testing.T) {
	in, out := writeCorpus(t)
	store := &fakeStore{createErr: errors.New("connection refused")}
	o := newTestOrchestrator()
	o.Store = store

	res := o.RunFull(context.Background(), Options{InputDir: in, OutputDir: out})
	assert.False(t, res.Success)
	assert.Equal(t, []string{"failed to record run: connection refused"}, res.Errors)
	assert.Nil(t, store.saved)
	assert.Empty(t, store.status)
	assert.FileExists(t, filepath.Join(out, rendering.ThemesFile))
}

func TestGuard(t *testing.T) {
	assert.NoError(t, guard(func() error { return nil }))
	assert.EqualError(t, guard(func() error { return errors.New("boom") }), "boom")
	assert.EqualError(t, guard(func() error { panic("bad") }), "panic: bad")
}
