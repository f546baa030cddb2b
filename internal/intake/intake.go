// Package intake ingests resume bundles from an inbox-drop directory into
// per-candidate directories under a job. Parsing the resume files themselves
// is the parser collaborator's job; intake only routes and records.
package intake

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/vrijenattawar/ZoATS/internal/config"
	"github.com/vrijenattawar/ZoATS/internal/store"
)

// bundleWindow is the mtime proximity within which differently-named files
// are treated as one applicant's bundle.
const bundleWindow = 2 * time.Minute

const metadataFilename = "metadata.json"

var resumeExts = map[string]bool{
	".pdf":  true,
	".docx": true,
	".md":   true,
	".txt":  true,
}

// Metadata is the optional sidecar an upstream system can drop next to the
// resume files.
type Metadata struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Source      string `json:"source"`
	AppliedDate string `json:"applied_date"`
	RoleCode    string `json:"role_code"`
}

// Report summarizes one intake run.
type Report struct {
	Bundles  int
	Ingested []string
	Skipped  int
	Held     int
}

// Ingester routes inbox-drop bundles into the job store.
type Ingester struct {
	store *store.JobStore
	cfg   config.IntakeConfig
}

// NewIngester creates an Ingester.
func NewIngester(st *store.JobStore, cfg config.IntakeConfig) *Ingester {
	return &Ingester{store: st, cfg: cfg}
}

type inboxFile struct {
	path    string
	name    string
	modTime time.Time
}

// Run scans the inbox-drop directory, groups files into per-applicant
// bundles, and moves each resume-carrying bundle into a fresh candidate
// directory. Bundles without a resume-like file are held in place. Re-running
// over an already-ingested bundle is a no-op.
func (in *Ingester) Run(jobID string, dryRun bool) (Report, error) {
	var report Report

	if err := in.store.EnsureJob(jobID); err != nil {
		return report, err
	}

	files, err := in.scanInbox()
	if err != nil {
		return report, err
	}
	if len(files) == 0 {
		zap.L().Info("inbox drop empty", zap.String("dir", in.cfg.InboxDir))
		return report, nil
	}

	bundles := groupBundles(files)
	report.Bundles = len(bundles)

	for _, bundle := range bundles {
		if !hasResume(bundle) {
			report.Held++
			zap.L().Info("bundle held, no resume-like file",
				zap.Strings("files", fileNames(bundle)))
			continue
		}
		candidateID, ingested, err := in.processBundle(jobID, bundle, dryRun)
		if err != nil {
			return report, err
		}
		if ingested {
			report.Ingested = append(report.Ingested, candidateID)
		} else {
			report.Skipped++
		}
	}

	zap.L().Info("intake complete",
		zap.String("job_id", jobID),
		zap.Int("bundles", report.Bundles),
		zap.Int("ingested", len(report.Ingested)),
		zap.Int("skipped", report.Skipped),
		zap.Int("held", report.Held))
	return report, nil
}

func (in *Ingester) scanInbox() ([]inboxFile, error) {
	if err := os.MkdirAll(in.cfg.InboxDir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "intake: create inbox dir %s", in.cfg.InboxDir)
	}
	entries, err := os.ReadDir(in.cfg.InboxDir)
	if err != nil {
		return nil, eris.Wrapf(err, "intake: read inbox dir %s", in.cfg.InboxDir)
	}

	files := make([]inboxFile, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, eris.Wrapf(err, "intake: stat %s", e.Name())
		}
		files = append(files, inboxFile{
			path:    filepath.Join(in.cfg.InboxDir, e.Name()),
			name:    e.Name(),
			modTime: info.ModTime(),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].modTime.Before(files[j].modTime) })
	return files, nil
}

// groupBundles clusters files by normalized stem, letting mtime proximity
// pull differently-named sidecars (a metadata.json uploaded with a resume)
// into the same bundle. A cluster holding more than one resume stem means two
// applicants arrived close together; it is split on resume stem, with sidecars
// staying attached to the resume they followed.
func groupBundles(files []inboxFile) [][]inboxFile {
	if len(files) == 0 {
		return nil
	}

	var clusters [][]inboxFile
	current := []inboxFile{files[0]}
	for _, f := range files[1:] {
		prev := current[len(current)-1]
		if stemKey(f.name) == stemKey(prev.name) || f.modTime.Sub(prev.modTime) <= bundleWindow {
			current = append(current, f)
			continue
		}
		clusters = append(clusters, current)
		current = []inboxFile{f}
	}
	clusters = append(clusters, current)

	var bundles [][]inboxFile
	for _, c := range clusters {
		stems := map[string]bool{}
		for _, f := range c {
			if isResume(f.name) {
				stems[stemKey(f.name)] = true
			}
		}
		if len(stems) <= 1 {
			bundles = append(bundles, c)
			continue
		}
		var cur []inboxFile
		curStem := ""
		for _, f := range c {
			if isResume(f.name) && stemKey(f.name) != curStem {
				if len(cur) > 0 && curStem != "" {
					bundles = append(bundles, cur)
					cur = nil
				}
				curStem = stemKey(f.name)
			}
			cur = append(cur, f)
		}
		if len(cur) > 0 {
			bundles = append(bundles, cur)
		}
	}
	return bundles
}

func (in *Ingester) processBundle(jobID string, bundle []inboxFile, dryRun bool) (string, bool, error) {
	meta := readMetadata(bundle)
	candidateID := buildCandidateID(jobID, meta, bundle)
	rawDir := filepath.Join(in.store.CandidateDir(jobID, candidateID), "raw")

	// Candidate ids embed a random suffix, so an already-ingested bundle is
	// detected by its files having left the inbox, not by directory collision.
	// A collision here means a partial previous run; skip rather than overwrite.
	if existing := in.findExisting(jobID, bundle); existing != "" {
		zap.L().Info("bundle already ingested",
			zap.String("candidate_id", existing),
			zap.Strings("files", fileNames(bundle)))
		return existing, false, nil
	}

	if dryRun {
		zap.L().Info("would ingest bundle",
			zap.String("candidate_id", candidateID),
			zap.Strings("files", fileNames(bundle)))
		return candidateID, true, nil
	}

	if err := in.store.EnsureCandidate(jobID, candidateID); err != nil {
		return "", false, err
	}
	if err := os.MkdirAll(rawDir, 0o755); err != nil {
		return "", false, eris.Wrapf(err, "intake: create raw dir for %s", candidateID)
	}

	moved := make([]string, 0, len(bundle))
	for _, f := range bundle {
		target := filepath.Join(rawDir, f.name)
		if err := os.Rename(f.path, target); err != nil {
			return "", false, eris.Wrapf(err, "intake: move %s", f.name)
		}
		moved = append(moved, f.name)
	}

	if err := in.writeInteractions(jobID, candidateID, meta, moved); err != nil {
		return "", false, err
	}

	zap.L().Info("bundle ingested",
		zap.String("job_id", jobID),
		zap.String("candidate_id", candidateID),
		zap.Int("files", len(moved)))
	return candidateID, true, nil
}

// findExisting checks whether any candidate's raw dir already holds one of
// the bundle's file names.
func (in *Ingester) findExisting(jobID string, bundle []inboxFile) string {
	candidates, err := in.store.ListCandidates(jobID)
	if err != nil {
		return ""
	}
	for _, c := range candidates {
		rawDir := filepath.Join(in.store.CandidateDir(jobID, c), "raw")
		for _, f := range bundle {
			if store.Exists(filepath.Join(rawDir, f.name)) {
				return c
			}
		}
	}
	return ""
}

func (in *Ingester) writeInteractions(jobID, candidateID string, meta Metadata, moved []string) error {
	var b strings.Builder
	b.WriteString("# Interactions\n\n")
	fmt.Fprintf(&b, "## %s | Intake\n", time.Now().UTC().Format("2006-01-02 15:04:05"))
	if meta.Source != "" {
		fmt.Fprintf(&b, "Source: %s\n", meta.Source)
	}
	if meta.Name != "" || meta.Email != "" {
		raw, _ := json.Marshal(meta)
		fmt.Fprintf(&b, "Metadata: `%s`\n", raw)
	}
	b.WriteString("Files:\n")
	for _, name := range moved {
		fmt.Fprintf(&b, "- %s\n", name)
	}

	path := filepath.Join(in.store.CandidateDir(jobID, candidateID), "interactions.md")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return eris.Wrapf(err, "intake: write interactions for %s", candidateID)
	}
	return nil
}

func readMetadata(bundle []inboxFile) Metadata {
	var meta Metadata
	for _, f := range bundle {
		if strings.EqualFold(f.name, metadataFilename) {
			data, err := os.ReadFile(f.path)
			if err != nil {
				break
			}
			// A malformed sidecar degrades to filename-derived identity.
			_ = json.Unmarshal(data, &meta)
			break
		}
	}
	return meta
}

func buildCandidateID(jobID string, meta Metadata, bundle []inboxFile) string {
	roleCode := meta.RoleCode
	if roleCode == "" {
		roleCode = jobID
	}
	return fmt.Sprintf("%s-%s-%s-%s",
		Slugify(roleCode, "job"),
		Slugify(nameFrom(meta, bundle), "unknown"),
		datePart(meta, bundle),
		shortID())
}

func nameFrom(meta Metadata, bundle []inboxFile) string {
	if meta.Name != "" {
		return meta.Name
	}
	for _, f := range bundle {
		if !resumeExts[strings.ToLower(filepath.Ext(f.name))] {
			continue
		}
		stem := strings.TrimSuffix(f.name, filepath.Ext(f.name))
		stem = roleWordRe.ReplaceAllString(stem, "")
		stem = strings.TrimSpace(sepRe.ReplaceAllString(stem, " "))
		if stem != "" {
			return stem
		}
	}
	return "unknown"
}

func datePart(meta Metadata, bundle []inboxFile) string {
	if meta.AppliedDate != "" {
		cleaned := strings.ReplaceAll(meta.AppliedDate, "/", "-")
		if t, err := time.Parse("2006-01-02", cleaned); err == nil {
			return t.Format("20060102")
		}
	}
	latest := bundle[0].modTime
	for _, f := range bundle[1:] {
		if f.modTime.After(latest) {
			latest = f.modTime
		}
	}
	return latest.Format("20060102")
}

func shortID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:6]
}

var (
	nonAlnumRe = regexp.MustCompile(`[^a-z0-9]+`)
	hyphenRe   = regexp.MustCompile(`-+`)
	roleWordRe = regexp.MustCompile(`(?i)(resume|cv|application|candidate)`)
	sepRe      = regexp.MustCompile(`[_-]+`)
)

var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify lowercases, strips diacritics, and collapses every non-alphanumeric
// run to a single hyphen. Empty input yields the fallback.
func Slugify(text, fallback string) string {
	if text == "" {
		return fallback
	}
	if plain, _, err := transform.String(deaccent, text); err == nil {
		text = plain
	}
	text = strings.ToLower(strings.TrimSpace(text))
	text = nonAlnumRe.ReplaceAllString(text, "-")
	text = strings.Trim(hyphenRe.ReplaceAllString(text, "-"), "-")
	if text == "" {
		return fallback
	}
	return text
}

func stemKey(name string) string {
	return Slugify(strings.TrimSuffix(name, filepath.Ext(name)), "")
}

func isResume(name string) bool {
	return resumeExts[strings.ToLower(filepath.Ext(name))]
}

func hasResume(bundle []inboxFile) bool {
	for _, f := range bundle {
		if isResume(f.name) {
			return true
		}
	}
	return false
}

func fileNames(bundle []inboxFile) []string {
	out := make([]string, 0, len(bundle))
	for _, f := range bundle {
		out = append(out, f.name)
	}
	return out
}
