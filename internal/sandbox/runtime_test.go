package sandbox

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibharvest/bibharvest/internal/document"
	"github.com/bibharvest/bibharvest/internal/record"
)

const articleHTML = `<html><head><title>Paper Title</title>
<meta name="citation_doi" content="doi:10.1000/xyz123">
</head><body>
<h1 class="title">An  Example   Paper</h1>
<div class="authors"><span class="author">Jane Doe</span><span class="author">Roe, Richard</span></div>
<a id="pdf" href="/files/paper.pdf">PDF</a>
</body></html>`

func newTestRuntime(t *testing.T, emit func(record.Snapshot)) *Runtime {
	t.Helper()
	doc, err := document.Parse(articleHTML, "https://example.com/articles/1")
	require.NoError(t, err)

	rt, err := NewRuntime(Options{
		Document: doc,
		PageURL:  "https://example.com/articles/1",
		Emit:     emit,
	})
	require.NoError(t, err)
	return rt
}

func TestBlockedGlobals(t *testing.T) {
	rt := newTestRuntime(t, nil)

	for _, name := range []string{"require", "process", "module", "exports", "globalThis"} {
		v, err := rt.vm.RunString("typeof " + name)
		require.NoError(t, err)
		assert.Equal(t, "undefined", v.String(), name)
	}
}

func TestTimersAreNoOps(t *testing.T) {
	rt := newTestRuntime(t, nil)

	_, err := rt.vm.RunString(`setTimeout(function() { throw "never runs"; }, 0)`)
	assert.NoError(t, err)
	_, err = rt.vm.RunString(`setInterval(function() { throw "never runs"; }, 0)`)
	assert.NoError(t, err)
}

func TestProbePositive(t *testing.T) {
	rt := newTestRuntime(t, nil)
	require.NoError(t, rt.Load(`function detect(doc, url) { return "journalArticle"; }`))

	token, positive, err := rt.Probe()
	require.NoError(t, err)
	assert.True(t, positive)
	assert.Equal(t, "journalArticle", token)
}

func TestProbeNegative(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"returns false", `function detect(doc, url) { return false; }`},
		{"returns nothing", `function detect(doc, url) {}`},
		{"returns null", `function detect(doc, url) { return null; }`},
		{"returns empty string", `function detect(doc, url) { return ""; }`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := newTestRuntime(t, nil)
			require.NoError(t, rt.Load(tt.body))

			_, positive, err := rt.Probe()
			require.NoError(t, err)
			assert.False(t, positive)
		})
	}
}

func TestProbeFault(t *testing.T) {
	rt := newTestRuntime(t, nil)
	require.NoError(t, rt.Load(`function detect(doc, url) { throw new Error("boom"); }`))

	_, positive, err := rt.Probe()
	assert.Error(t, err)
	assert.False(t, positive)
}

func TestProbeMissingEntryPoint(t *testing.T) {
	rt := newTestRuntime(t, nil)
	require.NoError(t, rt.Load(`function extract(doc, url) {}`))

	_, _, err := rt.Probe()
	assert.Error(t, err)
}

func TestProbeSeesDocumentAndURL(t *testing.T) {
	rt := newTestRuntime(t, nil)
	require.NoError(t, rt.Load(`
		function detect(doc, url) {
			if (url.indexOf("/articles/") < 0) return false;
			if (doc.title !== "Paper Title") return false;
			if (attr(doc, "#pdf", "href") !== "/files/paper.pdf") return false;
			if (attr(doc, "#pdf", "missing") !== null) return false;
			if (text(doc, ".absent") !== null) return false;
			return "journalArticle";
		}`))

	token, positive, err := rt.Probe()
	require.NoError(t, err)
	require.True(t, positive)
	assert.Equal(t, "journalArticle", token)
}

func TestExtractEmitsRecords(t *testing.T) {
	var emitted []record.Snapshot
	rt := newTestRuntime(t, func(s record.Snapshot) { emitted = append(emitted, s) })
	require.NoError(t, rt.Load(`
		function extract(doc, url) {
			var item = new Item("journalArticle");
			item.title = text(doc, "h1.title");
			item.DOI = utils.cleanDOI(attr(doc, "meta[name='citation_doi']", "content"));
			item.creators.push(utils.cleanAuthor(text(doc, ".author", 0), "author", false));
			item.creators.push(utils.cleanAuthor(text(doc, ".author", 1), "author", true));
			item.tags.push("physics");
			item.complete();
			item.complete();

			var second = new Item("webpage");
			second.title = doc.title;
			second.complete();
		}`))

	require.NoError(t, rt.Extract())
	require.Len(t, emitted, 2, "complete() is idempotent per item")

	first := emitted[0]
	assert.Equal(t, "journalArticle", first.ItemType)
	assert.Equal(t, "An Example Paper", first.Title)
	assert.Equal(t, "10.1000/xyz123", first.Fields["DOI"])
	require.Len(t, first.Creators, 2)
	assert.Equal(t, record.Creator{FirstName: "Jane", LastName: "Doe", CreatorType: "author"}, first.Creators[0])
	assert.Equal(t, record.Creator{FirstName: "Richard", LastName: "Roe", CreatorType: "author"}, first.Creators[1])
	require.Len(t, first.Tags, 1)
	assert.Equal(t, "physics", first.Tags[0].Tag)

	assert.Equal(t, "webpage", emitted[1].ItemType)
	assert.Equal(t, "Paper Title", emitted[1].Title)
}

func TestExtractFault(t *testing.T) {
	var emitted []record.Snapshot
	rt := newTestRuntime(t, func(s record.Snapshot) { emitted = append(emitted, s) })
	require.NoError(t, rt.Load(`
		function extract(doc, url) {
			var item = new Item("webpage");
			item.title = "before the fault";
			item.complete();
			throw new Error("halfway failure");
		}`))

	err := rt.Extract()
	assert.Error(t, err)
	// Records completed before the fault were already emitted; the engine
	// decides whether to keep them.
	assert.Len(t, emitted, 1)
}

func TestItemInvalidTypeDefaults(t *testing.T) {
	var emitted []record.Snapshot
	rt := newTestRuntime(t, func(s record.Snapshot) { emitted = append(emitted, s) })
	require.NoError(t, rt.Load(`
		function extract(doc, url) {
			var item = new Item("notARealType");
			item.complete();
		}`))

	require.NoError(t, rt.Extract())
	require.Len(t, emitted, 1)
	assert.Equal(t, record.DefaultItemType, emitted[0].ItemType)
}

func TestXpathFromScript(t *testing.T) {
	var emitted []record.Snapshot
	rt := newTestRuntime(t, func(s record.Snapshot) { emitted = append(emitted, s) })
	require.NoError(t, rt.Load(`
		function extract(doc, url) {
			var spans = utils.xpath(doc, "//span[@class='author']");
			var item = new Item("webpage");
			item.title = spans.length + ":" + spans[0].textContent;
			item.tags.push(utils.xpathText(doc, "//h1"));
			item.complete();
		}`))

	require.NoError(t, rt.Extract())
	require.Len(t, emitted, 1)
	assert.Equal(t, "2:Jane Doe", emitted[0].Title)
	require.Len(t, emitted[0].Tags, 1)
	assert.Equal(t, "An Example Paper", emitted[0].Tags[0].Tag)
}

func TestXpathEmptyAndInvalid(t *testing.T) {
	rt := newTestRuntime(t, nil)
	require.NoError(t, rt.Load(`
		function detect(doc, url) {
			if (utils.xpath(doc, "//article").length !== 0) return false;
			if (utils.xpathText(doc, "//article") !== null) return false;
			return "ok";
		}`))
	_, positive, err := rt.Probe()
	require.NoError(t, err)
	assert.True(t, positive)

	rt = newTestRuntime(t, nil)
	require.NoError(t, rt.Load(`function detect(doc, url) { utils.xpath(doc, "//["); }`))
	_, _, err = rt.Probe()
	assert.Error(t, err, "a bad expression degrades to a candidate fault")
}

func TestScopedQuerySelector(t *testing.T) {
	rt := newTestRuntime(t, nil)
	require.NoError(t, rt.Load(`
		function detect(doc, url) {
			var authors = doc.querySelector(".authors");
			if (authors === null) return false;
			if (authors.querySelectorAll(".author").length !== 2) return false;
			if (doc.querySelector(".absent") !== null) return false;
			var pdf = doc.querySelector("#pdf");
			if (pdf.tagName !== "A") return false;
			if (!pdf.hasAttribute("href")) return false;
			return "ok";
		}`))

	_, positive, err := rt.Probe()
	require.NoError(t, err)
	assert.True(t, positive)
}

func TestUtilsTextHelpers(t *testing.T) {
	rt := newTestRuntime(t, nil)
	require.NoError(t, rt.Load(`
		function detect(doc, url) {
			if (utils.trimInternal("  a   b ") !== "a b") return false;
			if (utils.cleanISBN("978-0-306-40615-7") !== "9780306406157") return false;
			if (utils.strToISO("March 4, 2021") !== "2021-03-04") return false;
			if (!utils.itemTypeExists("book")) return false;
			if (utils.itemTypeExists("sculpture")) return false;
			if (!utils.fieldIsValidForType("ISBN", "book")) return false;
			return "ok";
		}`))

	_, positive, err := rt.Probe()
	require.NoError(t, err)
	assert.True(t, positive)
}

func TestInterruptStopsRunawayScript(t *testing.T) {
	rt := newTestRuntime(t, nil)
	require.NoError(t, rt.Load(`function detect(doc, url) { while (true) {} }`))

	done := make(chan error, 1)
	go func() {
		_, _, err := rt.Probe()
		done <- err
	}()

	time.Sleep(50 * time.Millisecond)
	rt.Interrupt("test timeout")

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("interrupt did not stop the script")
	}
}

func TestRequestExposesStatusHeadersBody(t *testing.T) {
	srv := newTestServer(t)
	doc, err := document.Parse(articleHTML, srv.URL+"/page")
	require.NoError(t, err)

	rt, err := NewRuntime(Options{
		Document: doc,
		PageURL:  srv.URL + "/page",
		Fetcher:  newTestFetcher(),
	})
	require.NoError(t, err)
	require.NoError(t, rt.Load(`
		function detect(doc, url) {
			var resp = utils.request("/text");
			if (resp.status !== 200) return false;
			if (resp.body !== "plain body") return false;
			if (resp.headers["Content-Type"].indexOf("text/plain") !== 0) return false;

			var missing = utils.request("/missing");
			if (missing.status !== 404) return false;
			return "ok";
		}`))

	token, positive, err := rt.Probe()
	require.NoError(t, err)
	require.True(t, positive)
	assert.Equal(t, "ok", token)
}

func TestLocationHref(t *testing.T) {
	rt := newTestRuntime(t, nil)
	require.NoError(t, rt.Load(`
		function detect(doc, url) {
			return doc.location.href === "https://example.com/articles/1" ? "ok" : false;
		}`))

	_, positive, err := rt.Probe()
	require.NoError(t, err)
	assert.True(t, positive)
}
