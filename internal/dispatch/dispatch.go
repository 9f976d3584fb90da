// Package dispatch turns a changed save file into at most one upload.
package dispatch

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/rakaly/rakaly-uploader/internal/errors"
	"github.com/rakaly/rakaly-uploader/internal/id"
	"github.com/rakaly/rakaly-uploader/internal/signature"
)

// SaveExtension is the only extension forwarded for upload. The comparison
// is case-sensitive.
const SaveExtension = ".eu4"

// IsSaveFile reports whether path names a save file.
func IsSaveFile(path string) bool {
	return filepath.Ext(path) == SaveExtension
}

// Uploader performs the two upload strategies.
type Uploader interface {
	UploadArchive(ctx context.Context, path string) error
	UploadCompressedText(ctx context.Context, path string) error
}

// Recorder receives every outcome, e.g. for status reporting.
type Recorder interface {
	Record(Outcome)
}

// Outcome is the result of dispatching one file.
type Outcome struct {
	ID       string
	Path     string
	Format   signature.Format
	Err      error
	Finished time.Time
	Elapsed  time.Duration
}

// Success reports whether the upload went through.
func (o Outcome) Success() bool {
	return o.Err == nil
}

// Dispatcher classifies files and routes them to the uploader.
type Dispatcher struct {
	uploader Uploader
	recorder Recorder
	logger   *slog.Logger
}

// New creates a dispatcher. recorder may be nil.
func New(logger *slog.Logger, uploader Uploader, recorder Recorder) *Dispatcher {
	return &Dispatcher{
		uploader: uploader,
		recorder: recorder,
		logger:   logger,
	}
}

// Dispatch reads the file's signature and uploads it with the matching
// strategy. Failures are reported in the outcome, never returned.
func (d *Dispatcher) Dispatch(ctx context.Context, path string) Outcome {
	start := time.Now()
	out := Outcome{ID: id.MustGenerate("upl"), Path: path}

	class, err := readSignature(path)
	if err == nil {
		out.Format = class.Format
		err = d.route(ctx, path, class)
	}

	out.Err = err
	out.Finished = time.Now()
	out.Elapsed = out.Finished.Sub(start)
	d.report(out, class)
	return out
}

func (d *Dispatcher) route(ctx context.Context, path string, class signature.Classification) error {
	switch class.Format {
	case signature.Archive:
		if err := d.uploader.UploadArchive(ctx, path); err != nil {
			return errors.Wrapf(err, errors.CodeUpload, "unable to upload zip: %s", path)
		}
	case signature.CompressedText:
		if err := d.uploader.UploadCompressedText(ctx, path); err != nil {
			return errors.Wrapf(err, errors.CodeUpload, "unable to upload txt: %s", path)
		}
	default:
		return errors.Newf(errors.CodeSignature, "unexpected file signature: %s - %s", class.Hex(), path)
	}
	return nil
}

func (d *Dispatcher) report(out Outcome, class signature.Classification) {
	if out.Success() {
		d.logger.Info("successfully uploaded",
			"path", out.Path,
			"format", out.Format,
			"upload_id", out.ID,
			"elapsed", out.Elapsed,
		)
	} else {
		attrs := []any{"path", out.Path, "upload_id", out.ID, "error", out.Err.Error()}
		if errors.Is(out.Err, errors.ErrSignature) {
			attrs = append(attrs, "signature", class.Hex())
		}
		d.logger.Warn("upload failed", attrs...)
	}

	if d.recorder != nil {
		d.recorder.Record(out)
	}
}

// readSignature reads and classifies the first signature.Size bytes.
func readSignature(path string) (signature.Classification, error) {
	//#nosec G304 -- path comes from the watched directory
	f, err := os.Open(path)
	if err != nil {
		return signature.Classification{}, errors.Wrapf(err, errors.CodeIO, "unable to open: %s", path)
	}
	defer f.Close()

	var prefix [signature.Size]byte
	if _, err := io.ReadFull(f, prefix[:]); err != nil {
		return signature.Classification{}, errors.Wrapf(err, errors.CodeIO, "unable to read: %s", path)
	}
	return signature.Classify(prefix), nil
}
