package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medibill/internal/domain"
	"medibill/internal/reconcile"
)

type stubFetcher struct {
	doc *domain.FetchedDocument
	err error
}

func (s *stubFetcher) Fetch(_ context.Context, _ string) (*domain.FetchedDocument, error) {
	return s.doc, s.err
}

type stubPreparer struct {
	pages []domain.PageImage
	err   error
}

func (s *stubPreparer) Prepare(_ context.Context, _ []byte, _ string) ([]domain.PageImage, error) {
	return s.pages, s.err
}

type stubScanner struct {
	report domain.FraudReport
}

func (s *stubScanner) Scan(pages []domain.PageImage) domain.FraudReport {
	s.report.PagesScanned = len(pages)
	return s.report
}

type stubExtractor struct {
	raw *domain.RawExtraction
	err error
}

func (s *stubExtractor) Extract(_ context.Context, _ []domain.PageImage, _ string) (*domain.RawExtraction, error) {
	return s.raw, s.err
}

const validModelOutput = `{"pagewise_line_items":[{"page_no":"1","page_type":"Bill Detail","bill_items":[
	{"item_name":"Consultation","item_quantity":1,"item_rate":500,"item_amount":500}
]}]}`

func newTestService(f *stubFetcher, p *stubPreparer, e *stubExtractor) ExtractionService {
	return NewExtractionService(
		f, p, &stubScanner{report: domain.FraudReport{RiskLevel: domain.RiskLow}},
		e, reconcile.NewReconciler(reconcile.DefaultOptions()), 5*time.Second,
	)
}

func TestExtractBillData_Success(t *testing.T) {
	svc := newTestService(
		&stubFetcher{doc: &domain.FetchedDocument{Bytes: []byte("pdf"), ContentType: "application/pdf"}},
		&stubPreparer{pages: []domain.PageImage{{PageNo: 1}}},
		&stubExtractor{raw: &domain.RawExtraction{
			Text:  validModelOutput,
			Model: "gemini-2.5-flash",
			Usage: domain.TokenUsage{TotalTokens: 1500, InputTokens: 1200, OutputTokens: 300},
		}},
	)

	env, err := svc.ExtractBillData(context.Background(), "https://example.com/bill.pdf")
	require.NoError(t, err)
	require.NotNil(t, env)

	assert.True(t, env.IsSuccess)
	assert.Nil(t, env.Error)
	require.NotNil(t, env.Data)
	assert.Equal(t, 1, env.Data.TotalItemCount)
	assert.Equal(t, 1500, env.TokenUsage.TotalTokens)
	require.NotNil(t, env.FraudReport)
	assert.Equal(t, domain.RiskLow, env.FraudReport.RiskLevel)
	assert.Equal(t, 1, env.FraudReport.PagesScanned)
}

func TestExtractBillData_FetchFailure(t *testing.T) {
	svc := newTestService(
		&stubFetcher{err: domain.ErrFetchNotFound},
		&stubPreparer{},
		&stubExtractor{},
	)

	env, err := svc.ExtractBillData(context.Background(), "https://example.com/gone.pdf")
	require.ErrorIs(t, err, domain.ErrFetchNotFound)
	require.NotNil(t, env)

	assert.False(t, env.IsSuccess)
	assert.Nil(t, env.Data)
	require.NotNil(t, env.Error)
	assert.Equal(t, "document retrieval failed: not found", *env.Error)
	assert.Equal(t, 0, env.TokenUsage.TotalTokens)
}

func TestExtractBillData_PrepareFailure(t *testing.T) {
	svc := newTestService(
		&stubFetcher{doc: &domain.FetchedDocument{Bytes: []byte("x"), ContentType: "text/plain"}},
		&stubPreparer{err: domain.ErrUnsupportedFileType},
		&stubExtractor{},
	)

	env, err := svc.ExtractBillData(context.Background(), "https://example.com/doc.txt")
	require.ErrorIs(t, err, domain.ErrUnsupportedFileType)
	assert.False(t, env.IsSuccess)
}

func TestExtractBillData_ModelFailure(t *testing.T) {
	svc := newTestService(
		&stubFetcher{doc: &domain.FetchedDocument{Bytes: []byte("pdf"), ContentType: "application/pdf"}},
		&stubPreparer{pages: []domain.PageImage{{PageNo: 1}}},
		&stubExtractor{err: errors.New("upstream 502")},
	)

	env, err := svc.ExtractBillData(context.Background(), "https://example.com/bill.pdf")
	require.ErrorIs(t, err, domain.ErrModelFailure)
	assert.False(t, env.IsSuccess)
	require.NotNil(t, env.FraudReport, "fraud report attached even on model failure")
}

func TestExtractBillData_MalformedModelOutput(t *testing.T) {
	svc := newTestService(
		&stubFetcher{doc: &domain.FetchedDocument{Bytes: []byte("pdf"), ContentType: "application/pdf"}},
		&stubPreparer{pages: []domain.PageImage{{PageNo: 1}}},
		&stubExtractor{raw: &domain.RawExtraction{
			Text:  "Sorry, I cannot process this.",
			Usage: domain.TokenUsage{TotalTokens: 800, InputTokens: 700, OutputTokens: 100},
		}},
	)

	env, err := svc.ExtractBillData(context.Background(), "https://example.com/bill.pdf")
	require.ErrorIs(t, err, domain.ErrMalformedResponse)
	assert.False(t, env.IsSuccess)
	assert.Equal(t, 800, env.TokenUsage.TotalTokens, "tokens spent on a bad response are still reported")
}

func TestExtractBillData_NoLineItems(t *testing.T) {
	svc := newTestService(
		&stubFetcher{doc: &domain.FetchedDocument{Bytes: []byte("pdf"), ContentType: "application/pdf"}},
		&stubPreparer{pages: []domain.PageImage{{PageNo: 1}}},
		&stubExtractor{raw: &domain.RawExtraction{
			Text: `{"pagewise_line_items":[{"page_no":"1","page_type":"Other","bill_items":[]}]}`,
		}},
	)

	env, err := svc.ExtractBillData(context.Background(), "https://example.com/photo.jpg")
	require.ErrorIs(t, err, domain.ErrNoLineItems)
	assert.False(t, env.IsSuccess)
}

func TestExtractBillData_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := newTestService(
		&stubFetcher{err: ctx.Err()},
		&stubPreparer{},
		&stubExtractor{},
	)

	env, err := svc.ExtractBillData(ctx, "https://example.com/bill.pdf")
	require.ErrorIs(t, err, domain.ErrCancelled)
	assert.False(t, env.IsSuccess)
}
