package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	body  map[string]string
	err   error
	calls []string
}

func (f *fakeStore) Download(_ context.Context, relPath, localPath string) error {
	f.calls = append(f.calls, relPath)
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(localPath, []byte(f.body[relPath]), 0o600)
}

func TestEnsureMissThenHit(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := &fakeStore{body: map[string]string{"gpw/2016/2923_1-7_TenderBulletin.pdf": "%PDF-1.6"}}
	c, err := New(dir, store)
	require.NoError(t, err)

	local, hit, err := c.Ensure(context.Background(), "gpw/2016/2923_1-7_TenderBulletin.pdf")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, filepath.Join(dir, "gpw", "2016", "2923_1-7_TenderBulletin.pdf"), local)
	body, err := os.ReadFile(local)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.6", string(body))

	again, hit, err := c.Ensure(context.Background(), "gpw/2016/2923_1-7_TenderBulletin.pdf")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, local, again)
	assert.Len(t, store.calls, 1, "a cache hit must not touch the scrape store")
}

func TestEnsureHitWithoutStore(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "wc"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wc", "7581.pdf"), []byte("cached"), 0o600))

	store := &fakeStore{err: errors.New("store offline")}
	c, err := New(dir, store)
	require.NoError(t, err)

	_, hit, err := c.Ensure(context.Background(), "wc/7581.pdf")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Empty(t, store.calls)
}

func TestEnsureDownloadFailureLeavesNoEntry(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c, err := New(dir, &fakeStore{err: errors.New("boom")})
	require.NoError(t, err)

	_, _, err = c.Ensure(context.Background(), "a/b.pdf")
	require.Error(t, err)

	entries, err := os.ReadDir(filepath.Join(dir, "a"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPathStaysInsideCache(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c, err := New(dir, &fakeStore{})
	require.NoError(t, err)

	p, err := c.Path("../../etc/passwd")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "etc", "passwd"), p)

	_, err = c.Path("")
	require.Error(t, err)
	_, err = c.Path("/")
	require.Error(t, err)
}

func TestNewRequiresDir(t *testing.T) {
	t.Parallel()

	_, err := New("", &fakeStore{})
	require.Error(t, err)
}
