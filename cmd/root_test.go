package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/gazette-archiver/internal/gazette"
	"github.com/JakeFAU/gazette-archiver/internal/storage/sqlite"
)

func writeConfig(t *testing.T) (cfgPath, dbPath string) {
	t.Helper()
	dir := t.TempDir()
	dbPath = filepath.Join(dir, "gazettes.db")
	cfgPath = filepath.Join(dir, "config.yaml")
	body := "stores:\n" +
		"  scrape_uri: file://" + filepath.Join(dir, "scraped") + "\n" +
		"  archive_uri: memory://\n" +
		"  cache_dir: " + filepath.Join(dir, "cache") + "\n" +
		"database:\n" +
		"  uri: sqlite://" + dbPath + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(body), 0o600))
	return cfgPath, dbPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "absent.env")))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRulesCommandPrintsTable(t *testing.T) {
	out, err := execute(t, "rules")
	require.NoError(t, err)

	assert.Contains(t, out, "HOST")
	assert.Contains(t, out, "Published-Tender-Bulletin.aspx")
	assert.Contains(t, out, "ZA-EC")
	assert.Contains(t, out, "Gauteng")
	assert.Contains(t, out, "westerncape.gov.za")
}

func TestArchiveCommandEmptyFeed(t *testing.T) {
	cfgPath, _ := writeConfig(t)

	out, err := execute(t, "archive", "--config", cfgPath, "--limit", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "0 processed")
	assert.Contains(t, out, "archived")
}

func TestArchiveCommandRejectsNegativeLimit(t *testing.T) {
	cfgPath, _ := writeConfig(t)

	_, err := execute(t, "archive", "--config", cfgPath, "--limit", "-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--limit")
}

func TestArchiveCommandMissingConfig(t *testing.T) {
	_, err := execute(t, "archive", "--config", filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}

func TestFailuresCommandRejectsBadRunID(t *testing.T) {
	cfgPath, _ := writeConfig(t)

	_, err := execute(t, "failures", "--config", cfgPath, "--run", "yesterday")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--run")
}

func TestFailuresCommandListsLedger(t *testing.T) {
	cfgPath, dbPath := writeConfig(t)

	store, err := sqlite.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Record(context.Background(), gazette.Failure{
		ID:          "0190f3a4-0000-7000-8000-000000000001",
		RunID:       "0190f3a4-0000-7000-8000-0000000000aa",
		DocumentID:  42,
		OriginalURI: "https://www.gpwonline.co.za/x.pdf",
		Stage:       "extract",
		Kind:        gazette.KindNeedsManualReview,
		Message:     "needs manual review: volume number not found on cover",
		OccurredAt:  time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, store.Close())

	out, err := execute(t, "failures", "--config", cfgPath, "--run", "0190f3a4-0000-7000-8000-0000000000aa")
	require.NoError(t, err)
	assert.Contains(t, out, "needs_manual_review")
	assert.Contains(t, out, "42")
	assert.Contains(t, out, "2024-05-01T12:00:00Z")
}
