package intake

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vrijenattawar/ZoATS/internal/config"
	"github.com/vrijenattawar/ZoATS/internal/store"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in       string
		fallback string
		want     string
	}{
		{"José Müller", "unknown", "jose-muller"},
		{"  Jane   Doe  ", "unknown", "jane-doe"},
		{"O'Brien, Seán", "unknown", "o-brien-sean"},
		{"Associate Consultant (2026)", "job", "associate-consultant-2026"},
		{"", "unknown", "unknown"},
		{"!!!", "unknown", "unknown"},
		{"ALL-CAPS_NAME", "unknown", "all-caps-name"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in, tt.fallback), tt.in)
	}
}

type intakeFixture struct {
	ingester *Ingester
	store    *store.JobStore
	inbox    string
}

func newFixture(t *testing.T) *intakeFixture {
	t.Helper()
	inbox := t.TempDir()
	st := store.New(t.TempDir())
	return &intakeFixture{
		ingester: NewIngester(st, config.IntakeConfig{InboxDir: inbox}),
		store:    st,
		inbox:    inbox,
	}
}

func (f *intakeFixture) drop(t *testing.T, name, content string, mtime time.Time) {
	t.Helper()
	path := filepath.Join(f.inbox, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func TestRun_IngestsBundleWithSidecar(t *testing.T) {
	f := newFixture(t)
	now := time.Now()
	f.drop(t, "Jane_Doe_Resume.pdf", "resume bytes", now.Add(-time.Minute))
	meta, _ := json.Marshal(Metadata{Name: "Jane Doe", Email: "jane@example.com", Source: "referral"})
	f.drop(t, "metadata.json", string(meta), now.Add(-50*time.Second))

	report, err := f.ingester.Run("job-001", false)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Bundles)
	require.Len(t, report.Ingested, 1)
	assert.Equal(t, 0, report.Skipped)
	assert.Equal(t, 0, report.Held)

	candidateID := report.Ingested[0]
	assert.Regexp(t, regexp.MustCompile(`^job-001-jane-doe-\d{8}-[0-9a-f]{6}$`), candidateID)

	rawDir := filepath.Join(f.store.CandidateDir("job-001", candidateID), "raw")
	assert.FileExists(t, filepath.Join(rawDir, "Jane_Doe_Resume.pdf"))
	assert.FileExists(t, filepath.Join(rawDir, "metadata.json"))

	interactions, err := os.ReadFile(filepath.Join(f.store.CandidateDir("job-001", candidateID), "interactions.md"))
	require.NoError(t, err)
	assert.Contains(t, string(interactions), "Intake")
	assert.Contains(t, string(interactions), "Jane_Doe_Resume.pdf")
	assert.Contains(t, string(interactions), "referral")

	// The inbox drop is empty afterwards.
	entries, err := os.ReadDir(f.inbox)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRun_SplitsTwoApplicantsArrivingTogether(t *testing.T) {
	f := newFixture(t)
	now := time.Now()
	f.drop(t, "alice_resume.pdf", "a", now.Add(-90*time.Second))
	f.drop(t, "bob_resume.pdf", "b", now.Add(-60*time.Second))

	report, err := f.ingester.Run("job-001", false)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Bundles, "close arrivals with different stems stay separate")
	assert.Len(t, report.Ingested, 2)

	candidates, err := f.store.ListCandidates("job-001")
	require.NoError(t, err)
	assert.Len(t, candidates, 2)
}

func TestRun_SameStemBeyondWindowIsOneBundle(t *testing.T) {
	f := newFixture(t)
	now := time.Now()
	f.drop(t, "carol_resume.pdf", "pdf", now.Add(-time.Hour))
	f.drop(t, "carol_resume.docx", "docx", now.Add(-time.Minute))

	report, err := f.ingester.Run("job-001", false)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Bundles, "matching stems bundle regardless of mtime gap")
	require.Len(t, report.Ingested, 1)

	rawDir := filepath.Join(f.store.CandidateDir("job-001", report.Ingested[0]), "raw")
	assert.FileExists(t, filepath.Join(rawDir, "carol_resume.pdf"))
	assert.FileExists(t, filepath.Join(rawDir, "carol_resume.docx"))
}

func TestRun_ReingestIsSkipped(t *testing.T) {
	f := newFixture(t)
	now := time.Now()
	f.drop(t, "dave_resume.pdf", "v1", now)

	report, err := f.ingester.Run("job-001", false)
	require.NoError(t, err)
	require.Len(t, report.Ingested, 1)
	first := report.Ingested[0]

	// The same file lands in the drop again (a duplicate upload).
	f.drop(t, "dave_resume.pdf", "v1", now)
	report, err = f.ingester.Run("job-001", false)
	require.NoError(t, err)
	assert.Empty(t, report.Ingested)
	assert.Equal(t, 1, report.Skipped)

	candidates, err := f.store.ListCandidates("job-001")
	require.NoError(t, err)
	assert.Equal(t, []string{first}, candidates, "no second candidate directory")
}

func TestRun_HoldsBundleWithoutResume(t *testing.T) {
	f := newFixture(t)
	f.drop(t, "cover_photo.png", "png", time.Now())

	report, err := f.ingester.Run("job-001", false)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Held)
	assert.Empty(t, report.Ingested)

	// Held files stay in the drop for an operator to look at.
	assert.FileExists(t, filepath.Join(f.inbox, "cover_photo.png"))
}

func TestRun_DryRunMovesNothing(t *testing.T) {
	f := newFixture(t)
	f.drop(t, "erin_resume.pdf", "pdf", time.Now())

	report, err := f.ingester.Run("job-001", true)
	require.NoError(t, err)
	require.Len(t, report.Ingested, 1)

	assert.FileExists(t, filepath.Join(f.inbox, "erin_resume.pdf"))
	candidates, err := f.store.ListCandidates("job-001")
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestBuildCandidateID_UsesMetadataFields(t *testing.T) {
	meta := Metadata{Name: "Frank Wu", AppliedDate: "2026-03-15", RoleCode: "AC-NYC"}
	bundle := []inboxFile{{name: "whatever.pdf", modTime: time.Now()}}

	id := buildCandidateID("job-001", meta, bundle)
	assert.True(t, strings.HasPrefix(id, "ac-nyc-frank-wu-20260315-"), id)
	assert.Len(t, id, len("ac-nyc-frank-wu-20260315-")+6)
}

func TestNameFrom_StripsRoleWords(t *testing.T) {
	bundle := []inboxFile{{name: "Grace_Hall_Resume.pdf"}}
	assert.Equal(t, "Grace Hall", nameFrom(Metadata{}, bundle))
}
