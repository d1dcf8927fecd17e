// Package poppler implements the content tools on top of pdfinfo, pdftotext and qpdf.
package poppler

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// Runner executes an external command and returns its standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes name with args. Standard error is folded into the returned error.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) // #nosec G204 -- binaries come from config.
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return out, fmt.Errorf("run %s: %w", name, err)
		}
		return out, fmt.Errorf("run %s: %w: %s", name, err, msg)
	}
	return out, nil
}

// Options names the binaries to invoke.
type Options struct {
	PDFInfo   string
	PDFToText string
	QPDF      string
}

// DefaultOptions resolves the binaries from PATH.
func DefaultOptions() Options {
	return Options{PDFInfo: "pdfinfo", PDFToText: "pdftotext", QPDF: "qpdf"}
}

// Tools implements gazette.ContentTools.
type Tools struct {
	opts   Options
	runner Runner
}

// New creates Tools. Empty option fields fall back to DefaultOptions and a nil runner to ExecRunner.
func New(opts Options, runner Runner) *Tools {
	def := DefaultOptions()
	if opts.PDFInfo == "" {
		opts.PDFInfo = def.PDFInfo
	}
	if opts.PDFToText == "" {
		opts.PDFToText = def.PDFToText
	}
	if opts.QPDF == "" {
		opts.QPDF = def.QPDF
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Tools{opts: opts, runner: runner}
}

// Encrypted reports whether pdfinfo marks the file encrypted without copy permission.
func (t *Tools) Encrypted(ctx context.Context, path string) (bool, error) {
	info, err := t.info(ctx, path)
	if err != nil {
		return false, err
	}
	value, ok := info["Encrypted"]
	if !ok {
		return false, nil
	}
	if !strings.HasPrefix(value, "yes") {
		return false, nil
	}
	// pdfinfo prints "yes (print:yes copy:no ...)"; without a permission list we
	// cannot tell, so treat it as locked.
	if !strings.Contains(value, "(") {
		return true, nil
	}
	return strings.Contains(value, "copy:no"), nil
}

// Decrypt writes a decrypted copy next to path and returns its location.
func (t *Tools) Decrypt(ctx context.Context, path string) (string, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".decrypt-*")
	if err != nil {
		return "", fmt.Errorf("create decrypt target: %w", err)
	}
	out := tmp.Name()
	if err := tmp.Close(); err != nil {
		_ = os.Remove(out)
		return "", fmt.Errorf("close decrypt target: %w", err)
	}
	if _, err := t.runner.Run(ctx, t.opts.QPDF, "--password=", "--decrypt", path, out); err != nil {
		_ = os.Remove(out)
		return "", fmt.Errorf("decrypt %s: %w", path, err)
	}
	return out, nil
}

// CoverText extracts the text of page one.
func (t *Tools) CoverText(ctx context.Context, path string) (string, error) {
	out, err := t.runner.Run(ctx, t.opts.PDFToText, "-f", "1", "-l", "1", path, "-")
	if err != nil {
		return "", fmt.Errorf("extract cover text of %s: %w", path, err)
	}
	return string(out), nil
}

// PageCount parses the "Pages:" line of pdfinfo.
func (t *Tools) PageCount(ctx context.Context, path string) (int, error) {
	info, err := t.info(ctx, path)
	if err != nil {
		return 0, err
	}
	value, ok := info["Pages"]
	if !ok {
		return 0, errors.New("pdfinfo reported no page count")
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("parse page count %q: %w", value, err)
	}
	return n, nil
}

func (t *Tools) info(ctx context.Context, path string) (map[string]string, error) {
	out, err := t.runner.Run(ctx, t.opts.PDFInfo, path)
	if err != nil {
		return nil, fmt.Errorf("read pdf info of %s: %w", path, err)
	}
	return parseInfo(out), nil
}

func parseInfo(out []byte) map[string]string {
	info := make(map[string]string)
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}
		info[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return info
}
