package sandbox

import (
	"context"
	"net/url"

	"go.uber.org/zap"

	"github.com/bibharvest/bibharvest/internal/document"
)

// ProcessDocuments fetches, parses and visits each URL strictly one at a
// time; each document is fully handled before the next fetch begins, since
// visitor state accumulated across iterations can depend on the order.
//
// Per-item faults are logged and never abort the remaining items. done runs
// exactly once, after the last item, even for an empty list.
func (f *Fetcher) ProcessDocuments(ctx context.Context, base *url.URL, urls []string, visit func(*document.Document, string) error, done func()) {
	if done != nil {
		defer done()
	}

	for _, ref := range urls {
		resolved, err := f.ResolveURL(base, ref)
		if err != nil {
			f.log.Warn("batch item skipped: bad url", zap.String("url", ref), zap.Error(err))
			continue
		}

		doc, err := f.Document(ctx, resolved)
		if err != nil {
			f.log.Warn("batch item skipped: fetch failed", zap.String("url", resolved), zap.Error(err))
			continue
		}

		if err := visit(doc, resolved); err != nil {
			f.log.Warn("batch item visitor failed", zap.String("url", resolved), zap.Error(err))
		}
	}
}
