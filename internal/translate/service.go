package translate

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/banglalekha/go-services/pkg/logger"
	"github.com/banglalekha/go-services/pkg/metrics"
)

// ObjectStore is where rendered PDFs end up. Satisfied by storage.MinIOStorage.
type ObjectStore interface {
	UploadFile(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	GetPresignedURL(ctx context.Context, key string, expires time.Duration) (string, error)
}

// presignTTL is how long an exported PDF link stays fetchable.
const presignTTL = 7 * 24 * time.Hour

// Service wraps repository operations with the translation business logic
type Service struct {
	repo       Repository
	translator Translator
	renderer   PDFRenderer
	store      ObjectStore
}

func NewService(repo Repository, tr Translator, rend PDFRenderer, store ObjectStore) *Service {
	return &Service{repo: repo, translator: tr, renderer: rend, store: store}
}

// Translate sends raw text through the model service and stores the result.
func (s *Service) Translate(ctx context.Context, userID, rawText string) (*Translation, error) {
	if s.translator == nil {
		return nil, fmt.Errorf("translator is not configured")
	}
	translated, err := s.translator.Translate(ctx, rawText)
	if err != nil {
		return nil, fmt.Errorf("translate: %w", err)
	}
	t := &Translation{
		UserID:         userID,
		RawText:        rawText,
		TranslatedText: translated,
		Visibility:     VisibilityPrivate,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	metrics.TranslationsTotal.Inc()
	return t, nil
}

// Retranslate re-runs a document's visible text through the translator and
// reinserts the translated words into the original markup, keeping tags,
// attributes and whitespace intact.
func (s *Service) Retranslate(ctx context.Context, userID, markup string) (*Translation, error) {
	if s.translator == nil {
		return nil, fmt.Errorf("translator is not configured")
	}
	visible, err := ExtractText(markup)
	if err != nil {
		return nil, err
	}
	translated, err := s.translator.Translate(ctx, visible)
	if err != nil {
		return nil, fmt.Errorf("translate: %w", err)
	}
	merged, err := MergeTranslation(markup, translated)
	if err != nil {
		return nil, err
	}
	if merged.Truncated {
		logger.Warnf("retranslate: translated stream shorter than markup demand (used %d words)", merged.WordsUsed)
	}
	t := &Translation{
		UserID:         userID,
		RawText:        markup,
		TranslatedText: merged.HTML,
		Truncated:      merged.Truncated,
		Visibility:     VisibilityPrivate,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	metrics.TranslationsTotal.Inc()
	return t, nil
}

// GetAllByUser lists the caller's translations, newest first.
func (s *Service) GetAllByUser(ctx context.Context, userID string) ([]*Translation, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Get fetches a single translation, enforcing visibility: owners always
// see their own, everyone else only PUBLIC ones. Every successful fetch
// bumps the visit counter.
func (s *Service) Get(ctx context.Context, id, viewerID string) (*Translation, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.UserID != viewerID && t.Visibility != VisibilityPublic {
		return nil, ErrNotFound
	}
	t.TotalVisits++
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// GetPublic lists translations shared with everyone.
func (s *Service) GetPublic(ctx context.Context) ([]*Translation, error) {
	return s.repo.ListPublic(ctx)
}

// GeneratePDF renders the stored translation to a PDF, uploads it and
// persists the link. Idempotent: once a PDF exists the stored link is
// returned without rendering again.
func (s *Service) GeneratePDF(ctx context.Context, id, userID string) (*Translation, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.UserID != userID {
		return nil, ErrNotFound
	}
	if t.PDFLink != "" {
		return t, nil
	}
	if s.renderer == nil || s.store == nil {
		return nil, fmt.Errorf("pdf export is not configured")
	}

	pdf, err := s.renderer.Render(ctx, t.TranslatedText)
	if err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}

	key := fmt.Sprintf("pdf/%s_%s.pdf", uuid.NewString(), t.ID)
	if err := s.store.UploadFile(ctx, key, bytes.NewReader(pdf), int64(len(pdf)), "application/pdf"); err != nil {
		return nil, fmt.Errorf("store pdf: %w", err)
	}
	link, err := s.store.GetPresignedURL(ctx, key, presignTTL)
	if err != nil {
		return nil, fmt.Errorf("presign pdf: %w", err)
	}

	t.PDFKey = key
	t.PDFLink = link
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	metrics.PDFExportsTotal.Inc()
	return t, nil
}

// PDFText returns the visible text behind one of the caller's exported
// PDFs. The PDF is rendered from TranslatedText, so reading the stored
// markup gives the same content without a PDF parse round trip.
func (s *Service) PDFText(ctx context.Context, id, userID string) (string, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if t.UserID != userID {
		return "", ErrNotFound
	}
	if t.PDFLink == "" {
		return "", fmt.Errorf("no pdf exported for this translation")
	}
	text, err := ExtractText(t.TranslatedText)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no text found in pdf")
	}
	return text, nil
}

// UpdateShareability flips a translation's visibility.
func (s *Service) UpdateShareability(ctx context.Context, id, userID string, v Visibility) (*Translation, error) {
	if v != VisibilityPrivate && v != VisibilityPublic {
		return nil, fmt.Errorf("unknown visibility %q", v)
	}
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.UserID != userID {
		return nil, ErrNotFound
	}
	t.Visibility = v
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}
