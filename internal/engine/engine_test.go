package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibharvest/bibharvest/internal/config"
	"github.com/bibharvest/bibharvest/internal/logging"
	"github.com/bibharvest/bibharvest/internal/sandbox"
	"github.com/bibharvest/bibharvest/internal/translator"
)

const testPage = `<html><head><title>Engine Test</title></head><body>
<h1>A Heading</h1>
<span class="author">Jane Doe</span>
</body></html>`

func testConfig() config.EngineConfig {
	return config.EngineConfig{
		ProbeTimeout: 2 * time.Second,
		GracePeriod:  5 * time.Second,
	}
}

func source(id string, priority int, body string) string {
	header := fmt.Sprintf(
		`{"id":%q,"label":%q,"urlPattern":"^https?://example\\.com/","priority":%d,"declaredCapabilityKind":4}`,
		id, id, priority)
	return header + "\n" + body
}

func newTestEngine(t *testing.T, cfg config.EngineConfig, sources ...string) *Engine {
	t.Helper()
	catalog := translator.NewCatalog()
	for _, s := range sources {
		require.True(t, catalog.AddSource(s))
	}
	return New(catalog, nil, cfg, nil, nil)
}

func request() Request {
	return Request{URL: "https://example.com/page", HTML: testPage}
}

func TestExtractNoMatch(t *testing.T) {
	e := newTestEngine(t, testConfig())

	_, err := e.Extract(context.Background(), request())
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestExtractFirstPositiveCandidateWins(t *testing.T) {
	e := newTestEngine(t, testConfig(),
		source("high", 200, `
			function detect(doc, url) { return "webpage"; }
			function extract(doc, url) {
				var i = new Item("webpage");
				i.title = "from high";
				i.complete();
			}`),
		source("low", 100, `
			function detect(doc, url) { return "webpage"; }
			function extract(doc, url) {
				var i = new Item("webpage");
				i.title = "from low";
				i.complete();
			}`),
	)

	out, err := e.Extract(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, "high", out.Translator)
	require.Len(t, out.Records, 1)
	assert.Equal(t, "from high", out.Records[0].Title)
}

func TestExtractProbeFaultAdvancesToNext(t *testing.T) {
	e := newTestEngine(t, testConfig(),
		source("broken", 200, `
			function detect(doc, url) { throw new Error("probe boom"); }
			function extract(doc, url) {}`),
		source("working", 100, `
			function detect(doc, url) { return "webpage"; }
			function extract(doc, url) {
				var i = new Item("webpage");
				i.title = "survivor";
				i.complete();
			}`),
	)

	out, err := e.Extract(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, "working", out.Translator)
}

func TestExtractProbeNegativeAdvancesToNext(t *testing.T) {
	e := newTestEngine(t, testConfig(),
		source("declines", 200, `
			function detect(doc, url) { return false; }
			function extract(doc, url) {
				var i = new Item("webpage");
				i.complete();
			}`),
		source("accepts", 100, `
			function detect(doc, url) { return "webpage"; }
			function extract(doc, url) {
				var i = new Item("webpage");
				i.title = "accepted";
				i.complete();
			}`),
	)

	out, err := e.Extract(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, "accepts", out.Translator)
}

func TestExtractFaultDiscardsRecords(t *testing.T) {
	e := newTestEngine(t, testConfig(),
		source("faulty", 100, `
			function detect(doc, url) { return "webpage"; }
			function extract(doc, url) {
				var i = new Item("webpage");
				i.title = "emitted before fault";
				i.complete();
				throw new Error("extraction boom");
			}`),
	)

	_, err := e.Extract(context.Background(), request())
	assert.ErrorIs(t, err, ErrNoExtraction)
}

func TestExtractEmptyAdvancesToNext(t *testing.T) {
	e := newTestEngine(t, testConfig(),
		source("barren", 200, `
			function detect(doc, url) { return "webpage"; }
			function extract(doc, url) {}`),
		source("fruitful", 100, `
			function detect(doc, url) { return "webpage"; }
			function extract(doc, url) {
				var i = new Item("webpage");
				i.title = "fruit";
				i.complete();
			}`),
	)

	out, err := e.Extract(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, "fruitful", out.Translator)
}

func TestExtractCompletesWithoutWaitingForGracePeriod(t *testing.T) {
	cfg := testConfig()
	cfg.GracePeriod = time.Hour

	e := newTestEngine(t, cfg,
		source("quick", 100, `
			function detect(doc, url) { return "webpage"; }
			function extract(doc, url) {
				var a = new Item("webpage");
				a.title = "one";
				a.complete();
				var b = new Item("webpage");
				b.title = "two";
				b.complete();
			}`),
	)

	start := time.Now()
	out, err := e.Extract(context.Background(), request())
	require.NoError(t, err)
	require.Len(t, out.Records, 2)
	assert.Less(t, time.Since(start), 10*time.Second,
		"explicit completion finishes the run, not the grace period")
}

func TestExtractGracePeriodKeepsEmittedRecords(t *testing.T) {
	cfg := testConfig()
	cfg.GracePeriod = 200 * time.Millisecond

	e := newTestEngine(t, cfg,
		source("runaway", 100, `
			function detect(doc, url) { return "webpage"; }
			function extract(doc, url) {
				var i = new Item("webpage");
				i.title = "kept";
				i.complete();
				while (true) {}
			}`),
	)

	out, err := e.Extract(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, "runaway", out.Translator)
	require.Len(t, out.Records, 1)
	assert.Equal(t, "kept", out.Records[0].Title)
}

func TestExtractProbeTimeoutAdvancesToNext(t *testing.T) {
	cfg := testConfig()
	cfg.ProbeTimeout = 200 * time.Millisecond

	e := newTestEngine(t, cfg,
		source("stuck", 200, `
			function detect(doc, url) { while (true) {} }
			function extract(doc, url) {}`),
		source("prompt", 100, `
			function detect(doc, url) { return "webpage"; }
			function extract(doc, url) {
				var i = new Item("webpage");
				i.title = "prompt";
				i.complete();
			}`),
	)

	out, err := e.Extract(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, "prompt", out.Translator)
}

func TestExtractFetchFailure(t *testing.T) {
	fetcher := sandbox.NewFetcher(config.FetchConfig{
		Timeout:    500 * time.Millisecond,
		UserAgent:  "engine-test",
		MaxRetries: 0,
	}, nil, logging.NewNop())

	catalog := translator.NewCatalog()
	require.True(t, catalog.AddSource(source("any", 100, `
		function detect(doc, url) { return "webpage"; }
		function extract(doc, url) {}`)))
	e := New(catalog, fetcher, testConfig(), nil, nil)

	_, err := e.Extract(context.Background(), Request{URL: "http://127.0.0.1:1/unreachable"})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoMatch)
	assert.NotErrorIs(t, err, ErrNoExtraction)
}
