// Package normalize converts uploaded case files (PDF, audio, image)
// into UTF-8 text. PDFs try native text-layer extraction first and fall
// back to the inference provider when the text layer is too thin; audio
// and images always delegate to the provider.
package normalize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ledgerline/docket/internal/inference"
)

// nativeTextThreshold is the minimum whitespace-collapsed character count
// for a PDF text layer to be trusted. Anything at or below it is treated
// as an image-based scan.
const nativeTextThreshold = 50

// Kind identifies how a file is normalized.
type Kind string

// Supported file kinds.
const (
	KindPDF     Kind = "pdf"
	KindAudio   Kind = "audio"
	KindImage   Kind = "image"
	KindUnknown Kind = "unknown"
)

// DetectKind maps a MIME content type to a normalization kind.
func DetectKind(contentType string) Kind {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	switch {
	case ct == "application/pdf":
		return KindPDF
	case strings.HasPrefix(ct, "audio/"):
		return KindAudio
	case strings.HasPrefix(ct, "image/"):
		return KindImage
	}
	return KindUnknown
}

// Document is a transient byte blob awaiting normalization. It is
// consumed into a text fragment and not retained afterward.
type Document struct {
	Name        string
	ContentType string
	Kind        Kind
	Data        []byte
}

// File outcome statuses for batch reports.
const (
	FileNormalized = "normalized"
	FileSkipped    = "skipped"
	FileFailed     = "failed"
)

// FileReport records the outcome of one file within a batch.
type FileReport struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Options tunes normalizer behavior.
type Options struct {
	// RenderPages rasterizes PDF pages to PNG via ImageMagick before the
	// inference fallback instead of inlining the raw PDF bytes. Requires
	// ImageMagick on the host.
	RenderPages bool
}

// Normalizer converts documents to text using an inference Generator for
// the OCR, description, and transcription fallbacks.
type Normalizer struct {
	gen    inference.Generator
	opts   Options
	logger *slog.Logger
}

// New creates a Normalizer.
func New(gen inference.Generator, opts Options, logger *slog.Logger) *Normalizer {
	return &Normalizer{
		gen:    gen,
		opts:   opts,
		logger: logger.With("system", "normalize"),
	}
}

// Normalize converts a single document to text.
func (n *Normalizer) Normalize(ctx context.Context, doc Document) (string, error) {
	kind := doc.Kind
	if kind == "" || kind == KindUnknown {
		kind = DetectKind(doc.ContentType)
	}

	switch kind {
	case KindPDF:
		return n.normalizePDF(ctx, doc)
	case KindAudio:
		return n.fallback(ctx, instructionTranscribe, doc.ContentType, doc.Data)
	case KindImage:
		return n.fallback(ctx, instructionDescribe, doc.ContentType, doc.Data)
	default:
		return "", fmt.Errorf("%w: %s (%s)", ErrUnsupported, doc.Name, doc.ContentType)
	}
}

// normalizePDF tries the native text layer first. A thin text layer means
// an image-based document; those take the fallback path exactly once.
func (n *Normalizer) normalizePDF(ctx context.Context, doc Document) (string, error) {
	text, err := extractPDFText(doc.Data)
	if err != nil {
		n.logger.Warn("native pdf extraction failed, using fallback", "file", doc.Name, "error", err)
	} else if len(collapseWhitespace(text)) > nativeTextThreshold {
		return text, nil
	}

	if n.opts.RenderPages {
		return n.fallbackRendered(ctx, doc)
	}

	return n.fallback(ctx, instructionOCR, "application/pdf", doc.Data)
}

// fallback sends the original bytes inline to the inference provider.
func (n *Normalizer) fallback(ctx context.Context, instruction, mimeType string, data []byte) (string, error) {
	text, err := n.gen.Generate(ctx, inference.Request{
		System: instruction,
		Parts: []inference.Part{
			inference.BlobPart(mimeType, data),
			inference.TextPart(promptExtract),
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: fallback: %w", ErrExtraction, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: fallback returned empty text", ErrExtraction)
	}

	return text, nil
}

// fallbackRendered rasterizes the PDF and sends page images instead of
// the raw document.
func (n *Normalizer) fallbackRendered(ctx context.Context, doc Document) (string, error) {
	pages, err := renderPDFPages(ctx, doc.Data)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrExtraction, err)
	}

	parts := make([]inference.Part, 0, len(pages)+1)
	for _, page := range pages {
		parts = append(parts, inference.BlobPart("image/png", page))
	}
	parts = append(parts, inference.TextPart(promptExtract))

	text, err := n.gen.Generate(ctx, inference.Request{
		System: instructionOCR,
		Parts:  parts,
	})
	if err != nil {
		return "", fmt.Errorf("%w: fallback: %w", ErrExtraction, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: fallback returned empty text", ErrExtraction)
	}

	return text, nil
}

// NormalizeAll converts a batch of documents, preserving input order in
// the combined text. Unsupported kinds are skipped and failures recorded
// per file; the batch errors only when no file produces text.
func (n *Normalizer) NormalizeAll(ctx context.Context, docs []Document) (string, []FileReport, error) {
	texts := make([]string, len(docs))
	reports := make([]FileReport, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchWorkerCount(len(docs)))

	for i, doc := range docs {
		g.Go(func() error {
			reports[i] = FileReport{Name: doc.Name, Status: FileNormalized}

			text, err := n.Normalize(gctx, doc)
			switch {
			case err == nil:
				texts[i] = text
			case errors.Is(err, ErrUnsupported):
				reports[i].Status = FileSkipped
				reports[i].Error = err.Error()
			default:
				reports[i].Status = FileFailed
				reports[i].Error = err.Error()
			}

			return nil
		})
	}

	g.Wait()

	combined := make([]string, 0, len(texts))
	for _, t := range texts {
		if t != "" {
			combined = append(combined, t)
		}
	}

	if len(combined) == 0 && len(docs) > 0 {
		return "", reports, fmt.Errorf("%w: no files could be normalized", ErrExtraction)
	}

	return strings.Join(combined, "\n\n"), reports, nil
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func batchWorkerCount(n int) int {
	return max(min(runtime.NumCPU(), n), 1)
}
