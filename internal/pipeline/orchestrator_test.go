package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"tweetvault/internal/model"
)

type fakeFetcher struct {
	calls int
	gone  bool
	err   error
}

func (f *fakeFetcher) Fetch(ctx context.Context, locator string) (*model.TweetData, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.gone {
		return nil, nil
	}
	return &model.TweetData{
		URL:     locator,
		TweetID: "123",
		Content: "testing $BTC sentiment",
		Handle:  "someone",
	}, nil
}

type fakeAnalyzer struct {
	score float64
	token string
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, text string) model.Analysis {
	return model.Analysis{CombinedScore: f.score, Token: f.token}
}

type fakePrices struct {
	calls   int
	success bool
}

func (f *fakePrices) Price(ctx context.Context, symbol string, useCache bool) model.PriceQuote {
	f.calls++
	return model.PriceQuote{Symbol: symbol, Price: 1.5, Source: "coingecko", Success: f.success}
}

type fakeWriter struct {
	records []model.ContentRecord
	err     error
}

func (f *fakeWriter) Write(record model.ContentRecord) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.records = append(f.records, record)
	return "/tmp/record.json", nil
}

type fakeUploader struct {
	calls int
	err   error
}

func (f *fakeUploader) Store(ctx context.Context, localPath string) (model.StorageResult, error) {
	f.calls++
	if f.err != nil {
		return model.StorageResult{}, f.err
	}
	return model.StorageResult{ContentID: "Qm123", RootID: "Qm123"}, nil
}

type fakeRegistry struct {
	exists    bool
	existsErr error
	storeErr  error
	stored    []model.ContentRecord
}

func (f *fakeRegistry) Exists(ctx context.Context, hash common.Hash) (bool, error) {
	return f.exists, f.existsErr
}

func (f *fakeRegistry) Store(ctx context.Context, record model.ContentRecord) (string, error) {
	if f.storeErr != nil {
		return "", f.storeErr
	}
	f.stored = append(f.stored, record)
	return "0xtx", nil
}

type fakeSubmitter struct {
	locators []string
	scores   []float64
	err      error
}

func (f *fakeSubmitter) Submit(ctx context.Context, locator string, score float64) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.locators = append(f.locators, locator)
	f.scores = append(f.scores, score)
	return "0xresubmit", nil
}

type harness struct {
	fetcher   *fakeFetcher
	prices    *fakePrices
	writer    *fakeWriter
	uploader  *fakeUploader
	registry  *fakeRegistry
	submitter *fakeSubmitter
}

func newHarness(t *testing.T, score float64, token string) (*Orchestrator, *harness) {
	t.Helper()

	resubmits, err := LoadResubmitLog(filepath.Join(t.TempDir(), "resubmitted.json"))
	if err != nil {
		t.Fatalf("resubmit log: %v", err)
	}

	h := &harness{
		fetcher:   &fakeFetcher{},
		prices:    &fakePrices{success: true},
		writer:    &fakeWriter{},
		uploader:  &fakeUploader{},
		registry:  &fakeRegistry{},
		submitter: &fakeSubmitter{},
	}
	o := NewOrchestrator(Deps{
		Fetcher:   h.fetcher,
		Analyzer:  &fakeAnalyzer{score: score, token: token},
		Prices:    h.prices,
		Local:     h.writer,
		Uploader:  h.uploader,
		Registry:  h.registry,
		Submitter: h.submitter,
		Resubmits: resubmits,
		Threshold: 0.75,
	})
	return o, h
}

func testEvent(locator string) model.SubmissionEvent {
	return model.SubmissionEvent{
		BlockNumber: 100,
		TxHash:      "0xabc",
		LogIndex:    1,
		Validation:  locator,
		Depositor:   "0x2222222222222222222222222222222222222222",
	}
}

func TestProcessFullPath(t *testing.T) {
	o, h := newHarness(t, 0.5, "BTC")

	event := testEvent("https://x.com/someone/status/123")
	if err := o.Process(context.Background(), event); err != nil {
		t.Fatalf("process: %v", err)
	}

	if len(h.writer.records) != 1 {
		t.Fatalf("expected one local write, got %d", len(h.writer.records))
	}
	record := h.writer.records[0]
	if record.Tweet.TweetID != "123" {
		t.Fatalf("tweet lost: %+v", record)
	}
	if record.Price == nil || record.Price.Symbol != "BTC" {
		t.Fatalf("price not attached: %+v", record.Price)
	}
	if len(h.registry.stored) != 1 {
		t.Fatalf("expected one registry write, got %d", len(h.registry.stored))
	}
	if len(h.submitter.locators) != 0 {
		t.Fatalf("score below threshold must not resubmit")
	}

	stats := o.Stats()
	if stats.Processed != 1 || stats.Stored != 1 || stats.Registered != 1 || stats.Errored != 0 {
		t.Fatalf("stats mismatch: %+v", stats)
	}
}

func TestProcessMissingLocator(t *testing.T) {
	o, h := newHarness(t, 0.5, "")

	err := o.Process(context.Background(), testEvent("no link here"))
	if err == nil {
		t.Fatalf("expected error for missing locator")
	}
	if h.fetcher.calls != 0 {
		t.Fatalf("missing locator must not fetch")
	}
	if o.Stats().Errored != 1 {
		t.Fatalf("missing locator must count as error: %+v", o.Stats())
	}
}

func TestProcessGoneContent(t *testing.T) {
	o, h := newHarness(t, 0.9, "")
	h.fetcher.gone = true

	err := o.Process(context.Background(), testEvent("https://x.com/a/status/1"))
	if err == nil {
		t.Fatalf("gone content must fail the event")
	}
	if len(h.writer.records) != 0 || h.uploader.calls != 0 {
		t.Fatalf("gone content must not persist")
	}
	if o.Stats().Processed != 0 {
		t.Fatalf("gone content must not count as processed: %+v", o.Stats())
	}
	if o.Stats().Errored != 1 {
		t.Fatalf("gone content must count as error: %+v", o.Stats())
	}
}

func TestProcessAlreadyRegistered(t *testing.T) {
	o, h := newHarness(t, 0.5, "")
	h.registry.exists = true

	if err := o.Process(context.Background(), testEvent("https://x.com/a/status/2")); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(h.registry.stored) != 0 {
		t.Fatalf("existing record must not be re-registered")
	}
	if o.Stats().Stored != 1 || o.Stats().Registered != 0 || o.Stats().Errored != 0 {
		t.Fatalf("stats mismatch: %+v", o.Stats())
	}
}

func TestProcessRegistryFailureIsNonFatal(t *testing.T) {
	o, h := newHarness(t, 0.5, "")
	h.registry.storeErr = fmt.Errorf("out of gas")

	if err := o.Process(context.Background(), testEvent("https://x.com/a/status/3")); err != nil {
		t.Fatalf("registry failure must not fail the event: %v", err)
	}
	if o.Stats().Stored != 1 {
		t.Fatalf("upload must survive registry failure: %+v", o.Stats())
	}
	if o.Stats().Errored != 1 {
		t.Fatalf("registry failure must be counted: %+v", o.Stats())
	}
}

func TestProcessUploadFailureIsFatal(t *testing.T) {
	o, h := newHarness(t, 0.5, "")
	h.uploader.err = fmt.Errorf("pin rejected")

	err := o.Process(context.Background(), testEvent("https://x.com/a/status/4"))
	if err == nil {
		t.Fatalf("upload failure must fail the event")
	}
	if len(h.registry.stored) != 0 || len(h.submitter.locators) != 0 {
		t.Fatalf("later stages must not run after upload failure")
	}
}

func TestProcessResubmitsHighScoreOnce(t *testing.T) {
	o, h := newHarness(t, 0.80, "")

	locator := "https://x.com/someone/status/999"
	if err := o.Process(context.Background(), testEvent(locator)); err != nil {
		t.Fatalf("process: %v", err)
	}

	if len(h.submitter.locators) != 1 || h.submitter.locators[0] != locator {
		t.Fatalf("expected one resubmission of %s, got %v", locator, h.submitter.locators)
	}
	if h.submitter.scores[0] != 0.80 {
		t.Fatalf("score mismatch: %v", h.submitter.scores)
	}

	// A second deposit for the same content must not trigger another one.
	again := testEvent(locator)
	again.TxHash = "0xdef"
	if err := o.Process(context.Background(), again); err != nil {
		t.Fatalf("process again: %v", err)
	}
	if len(h.submitter.locators) != 1 {
		t.Fatalf("content resubmitted twice: %v", h.submitter.locators)
	}
	if o.Stats().Resubmitted != 1 {
		t.Fatalf("stats mismatch: %+v", o.Stats())
	}
}

func TestProcessSkipsResubmitWithoutLog(t *testing.T) {
	o, h := newHarness(t, 0.90, "")
	o.deps.Resubmits = nil

	if err := o.Process(context.Background(), testEvent("https://x.com/a/status/7")); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(h.submitter.locators) != 0 {
		t.Fatalf("resubmission requires the durable log: %v", h.submitter.locators)
	}
}

func TestProcessSkipsPriceWithoutToken(t *testing.T) {
	o, h := newHarness(t, 0.5, "")

	if err := o.Process(context.Background(), testEvent("https://x.com/a/status/5")); err != nil {
		t.Fatalf("process: %v", err)
	}
	if h.prices.calls != 0 {
		t.Fatalf("no token must mean no price lookup")
	}
	if h.writer.records[0].Price != nil {
		t.Fatalf("price must stay nil without token")
	}
}

func TestProcessOmitsFailedQuote(t *testing.T) {
	o, h := newHarness(t, 0.5, "BTC")
	h.prices.success = false

	if err := o.Process(context.Background(), testEvent("https://x.com/a/status/6")); err != nil {
		t.Fatalf("process: %v", err)
	}
	if h.writer.records[0].Price != nil {
		t.Fatalf("failed quote must not be attached")
	}
}
