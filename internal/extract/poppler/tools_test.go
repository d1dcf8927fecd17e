package poppler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const plainInfo = `Title:          Government Gazette
Producer:       Acrobat Distiller 11.0 (Windows)
Tagged:         no
Pages:          12
Encrypted:      no
Page size:      595.32 x 841.92 pts (A4)
PDF version:    1.6
`

const lockedInfo = `Pages:          4
Encrypted:      yes (print:yes copy:no change:no addNotes:no algorithm:AES)
`

type call struct {
	name string
	args []string
}

type fakeRunner struct {
	out   map[string]string
	err   map[string]error
	calls []call
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, call{name: name, args: args})
	if err := f.err[name]; err != nil {
		return nil, err
	}
	return []byte(f.out[name]), nil
}

func TestPageCount(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{out: map[string]string{"pdfinfo": plainInfo}}
	n, err := New(Options{}, runner).PageCount(context.Background(), "/cache/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, 12, n)
	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{"/cache/a.pdf"}, runner.calls[0].args)
}

func TestPageCountErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	_, err := New(Options{}, &fakeRunner{out: map[string]string{"pdfinfo": "Encrypted: no\n"}}).PageCount(ctx, "a.pdf")
	require.Error(t, err)

	_, err = New(Options{}, &fakeRunner{out: map[string]string{"pdfinfo": "Pages: many\n"}}).PageCount(ctx, "a.pdf")
	require.Error(t, err)

	_, err = New(Options{}, &fakeRunner{err: map[string]error{"pdfinfo": errors.New("exit status 1")}}).PageCount(ctx, "a.pdf")
	require.Error(t, err)
}

func TestEncrypted(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		info string
		want bool
	}{
		{"plain", plainInfo, false},
		{"copy forbidden", lockedInfo, true},
		{"copy allowed", "Encrypted: yes (print:yes copy:yes change:no addNotes:no)\n", false},
		{"no permission list", "Encrypted: yes\n", true},
		{"no encrypted line", "Pages: 3\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := New(Options{}, &fakeRunner{out: map[string]string{"pdfinfo": tt.info}}).Encrypted(context.Background(), "a.pdf")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCoverTextUsesFirstPageOnly(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{out: map[string]string{"/opt/poppler/pdftotext": "INDEX OF THE GOVERNMENT GAZETTES"}}
	tools := New(Options{PDFToText: "/opt/poppler/pdftotext"}, runner)

	text, err := tools.CoverText(context.Background(), "a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "INDEX OF THE GOVERNMENT GAZETTES", text)
	require.Len(t, runner.calls, 1)
	assert.Equal(t, "/opt/poppler/pdftotext", runner.calls[0].name)
	assert.Equal(t, []string{"-f", "1", "-l", "1", "a.pdf", "-"}, runner.calls[0].args)
}

func TestDecrypt(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "locked.pdf")
	require.NoError(t, os.WriteFile(src, []byte("locked"), 0o600))

	runner := &fakeRunner{}
	out, err := New(Options{}, runner).Decrypt(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(out))
	assert.True(t, strings.HasPrefix(filepath.Base(out), "locked.pdf.decrypt-"))

	require.Len(t, runner.calls, 1)
	assert.Equal(t, "qpdf", runner.calls[0].name)
	assert.Equal(t, []string{"--password=", "--decrypt", src, out}, runner.calls[0].args)
}

func TestDecryptFailureRemovesTarget(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "locked.pdf")
	require.NoError(t, os.WriteFile(src, []byte("locked"), 0o600))

	runner := &fakeRunner{err: map[string]error{"qpdf": errors.New("exit status 2")}}
	_, err := New(Options{}, runner).Decrypt(context.Background(), src)
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestExecRunnerReportsMissingBinary(t *testing.T) {
	t.Parallel()

	_, err := ExecRunner{}.Run(context.Background(), "gazettes-no-such-binary")
	require.Error(t, err)
}
