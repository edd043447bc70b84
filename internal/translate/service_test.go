package translate

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTranslator struct {
	out string
	err error
	in  string
}

func (s *stubTranslator) Translate(_ context.Context, text string) (string, error) {
	s.in = text
	return s.out, s.err
}

type stubRenderer struct {
	out   []byte
	err   error
	calls int
}

func (s *stubRenderer) Render(_ context.Context, _ string) ([]byte, error) {
	s.calls++
	return s.out, s.err
}

type stubStore struct {
	uploaded map[string][]byte
}

func (s *stubStore) UploadFile(_ context.Context, key string, reader io.Reader, _ int64, _ string) error {
	if s.uploaded == nil {
		s.uploaded = map[string][]byte{}
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	s.uploaded[key] = data
	return nil
}

func (s *stubStore) GetPresignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://storage.example.com/" + key, nil
}

func TestService_Translate(t *testing.T) {
	tr := &stubTranslator{out: "আশা করি তুমি ভালো আছো"}
	svc := NewService(NewMemoryRepository(), tr, &stubRenderer{}, &stubStore{})

	got, err := svc.Translate(context.Background(), "u-1", "asha kori tumi bhalo acho")
	require.NoError(t, err)
	assert.Equal(t, "asha kori tumi bhalo acho", tr.in)
	assert.Equal(t, "আশা করি তুমি ভালো আছো", got.TranslatedText)
	assert.Equal(t, VisibilityPrivate, got.Visibility)
	assert.NotEmpty(t, got.ID)

	list, err := svc.GetAllByUser(context.Background(), "u-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestService_Translate_UpstreamFailure(t *testing.T) {
	tr := &stubTranslator{err: errors.New("model offline")}
	svc := NewService(NewMemoryRepository(), tr, &stubRenderer{}, &stubStore{})
	_, err := svc.Translate(context.Background(), "u-1", "kichu")
	require.Error(t, err)
}

func TestService_Retranslate_MergesMarkup(t *testing.T) {
	tr := &stubTranslator{out: "ওহে বিশ্ব"}
	svc := NewService(NewMemoryRepository(), tr, &stubRenderer{}, &stubStore{})

	got, err := svc.Retranslate(context.Background(), "u-1", "<p>Hello world</p>")
	require.NoError(t, err)
	assert.Equal(t, "Hello world", tr.in)
	assert.Equal(t, "<p>ওহে বিশ্ব</p>", got.TranslatedText)
	assert.False(t, got.Truncated)
}

func TestService_Retranslate_FlagsTruncation(t *testing.T) {
	tr := &stubTranslator{out: "একটাই"}
	svc := NewService(NewMemoryRepository(), tr, &stubRenderer{}, &stubStore{})

	got, err := svc.Retranslate(context.Background(), "u-1", "<p>onek gulo shobdo ache ekhane</p>")
	require.NoError(t, err)
	assert.True(t, got.Truncated)
}

func TestService_GeneratePDF_Idempotent(t *testing.T) {
	repo := NewMemoryRepository()
	rend := &stubRenderer{out: []byte("%PDF-1.4 fake")}
	store := &stubStore{}
	svc := NewService(repo, &stubTranslator{out: "x"}, rend, store)

	tr := &Translation{UserID: "u-1", TranslatedText: "<p>ওহে</p>"}
	require.NoError(t, repo.Create(context.Background(), tr))

	first, err := svc.GeneratePDF(context.Background(), tr.ID, "u-1")
	require.NoError(t, err)
	assert.NotEmpty(t, first.PDFLink)
	assert.Len(t, store.uploaded, 1)

	second, err := svc.GeneratePDF(context.Background(), tr.ID, "u-1")
	require.NoError(t, err)
	assert.Equal(t, first.PDFLink, second.PDFLink)
	assert.Equal(t, 1, rend.calls, "second export must reuse the stored pdf")
}

func TestService_GeneratePDF_WrongOwner(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, &stubTranslator{}, &stubRenderer{out: []byte("x")}, &stubStore{})
	tr := &Translation{UserID: "u-1", TranslatedText: "<p>ওহে</p>"}
	require.NoError(t, repo.Create(context.Background(), tr))

	_, err := svc.GeneratePDF(context.Background(), tr.ID, "someone-else")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_UpdateShareability(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, &stubTranslator{}, &stubRenderer{}, &stubStore{})
	tr := &Translation{UserID: "u-1", TranslatedText: "<p>ওহে</p>"}
	require.NoError(t, repo.Create(context.Background(), tr))

	got, err := svc.UpdateShareability(context.Background(), tr.ID, "u-1", VisibilityPublic)
	require.NoError(t, err)
	assert.Equal(t, VisibilityPublic, got.Visibility)

	pub, err := svc.GetPublic(context.Background())
	require.NoError(t, err)
	require.Len(t, pub, 1)

	_, err = svc.UpdateShareability(context.Background(), tr.ID, "u-1", Visibility("FRIENDS"))
	assert.Error(t, err)
}

func TestService_Get_VisibilityAndVisits(t *testing.T) {
	tr := &stubTranslator{out: "ওহে বিশ্ব"}
	svc := NewService(NewMemoryRepository(), tr, &stubRenderer{}, &stubStore{})
	ctx := context.Background()

	created, err := svc.Translate(ctx, "u-1", "ohe bisso")
	require.NoError(t, err)

	// private: hidden from everyone but the owner
	_, err = svc.Get(ctx, created.ID, "u-2")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Get(ctx, created.ID, "")
	assert.ErrorIs(t, err, ErrNotFound)

	own, err := svc.Get(ctx, created.ID, "u-1")
	require.NoError(t, err)
	assert.Equal(t, 1, own.TotalVisits)

	_, err = svc.UpdateShareability(ctx, created.ID, "u-1", VisibilityPublic)
	require.NoError(t, err)

	// public: anyone may view, each view counts
	seen, err := svc.Get(ctx, created.ID, "u-2")
	require.NoError(t, err)
	assert.Equal(t, 2, seen.TotalVisits)
	anon, err := svc.Get(ctx, created.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 3, anon.TotalVisits)
}

func TestService_PDFText(t *testing.T) {
	tr := &stubTranslator{out: "ওহে বিশ্ব"}
	rend := &stubRenderer{out: []byte("%PDF-1.4 fake")}
	svc := NewService(NewMemoryRepository(), tr, rend, &stubStore{})
	ctx := context.Background()

	created, err := svc.Retranslate(ctx, "u-1", "<p>ohe bisso</p>")
	require.NoError(t, err)

	// no export yet
	_, err = svc.PDFText(ctx, created.ID, "u-1")
	require.Error(t, err)

	_, err = svc.GeneratePDF(ctx, created.ID, "u-1")
	require.NoError(t, err)

	text, err := svc.PDFText(ctx, created.ID, "u-1")
	require.NoError(t, err)
	assert.Equal(t, "ওহে বিশ্ব", text)

	// someone else's export stays hidden
	_, err = svc.PDFText(ctx, created.ID, "u-2")
	assert.ErrorIs(t, err, ErrNotFound)
}
