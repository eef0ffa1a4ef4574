// Package archive downloads selected accounts documents into a local staging
// directory and copies them to object storage.
package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"accounts/internal/logging"
	"accounts/internal/pkg/companieshouse"
	"accounts/internal/storage"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
)

var pathHostile = regexp.MustCompile(`[\s\\/]`)

// StagingName is both the staged file name and the object key for the
// document at index of the company registered under number.
func StagingName(number string, index int) string {
	return fmt.Sprintf("%s_%d.pdf", pathHostile.ReplaceAllString(number, "_"), index)
}

type DocumentSource interface {
	GetDocumentMetadata(ctx context.Context, metadataURL string) (*companieshouse.DocumentMetadata, error)
	DownloadDocument(ctx context.Context, documentURL string, w io.Writer) (int64, error)
}

type Artifact struct {
	Index int
	Key   string
	Path  string
	URL   string
	Size  int64
}

type Archiver struct {
	source     DocumentSource
	uploader   storage.Uploader
	stagingDir string
	keepStaged bool
	staged     bool
	logger     zerolog.Logger
}

func New(source DocumentSource, uploader storage.Uploader, stagingDir string) *Archiver {
	return &Archiver{
		source:     source,
		uploader:   uploader,
		stagingDir: stagingDir,
		keepStaged: true,
		logger:     logging.NewLogger("archive"),
	}
}

// KeepStagedFiles controls whether staged files stay on disk after upload.
func (a *Archiver) KeepStagedFiles(keep bool) {
	a.keepStaged = keep
}

func (a *Archiver) ensureStagingDir() error {
	if a.staged {
		return nil
	}
	if err := os.MkdirAll(a.stagingDir, 0755); err != nil {
		return fmt.Errorf("create staging dir %s: %w", a.stagingDir, err)
	}
	a.staged = true
	return nil
}

// Archive resolves the selected filing to its document, stages it locally and
// uploads it. Nothing is left behind in storage when it fails.
func (a *Archiver) Archive(ctx context.Context, number string, sel companieshouse.Selection) (*Artifact, error) {
	logger := a.logger.With().Str("number", number).Int("index", sel.Index).Logger()

	metadata, err := a.source.GetDocumentMetadata(ctx, sel.Filing.Links.DocumentMetadata)
	if err != nil {
		return nil, fmt.Errorf("document metadata: %w", err)
	}

	if err := a.ensureStagingDir(); err != nil {
		return nil, err
	}

	key := StagingName(number, sel.Index)
	path := filepath.Join(a.stagingDir, key)

	size, err := a.stage(ctx, metadata.Links.Document, path)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("path", path).Str("size", humanize.Bytes(uint64(size))).Msg("accounts downloaded")

	url, err := a.uploader.Upload(ctx, key, path)
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	logger.Info().Str("url", url).Msg("accounts uploaded")

	if !a.keepStaged {
		if err := os.Remove(path); err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("failed to remove staged file")
		}
	}

	return &Artifact{
		Index: sel.Index,
		Key:   key,
		Path:  path,
		URL:   url,
		Size:  size,
	}, nil
}

func (a *Archiver) stage(ctx context.Context, documentURL, path string) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create staged file: %w", err)
	}

	size, err := a.source.DownloadDocument(ctx, documentURL, f)
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return 0, fmt.Errorf("download document: %w", err)
	}

	return size, nil
}
