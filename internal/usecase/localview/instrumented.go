package localview

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/laminadb/lamina/internal/domain"
	"github.com/laminadb/lamina/internal/domain/document"
	"github.com/laminadb/lamina/internal/domain/path"
	"github.com/laminadb/lamina/internal/domain/query"
	"github.com/laminadb/lamina/internal/metrics"
)

// InstrumentedView wraps a View with Prometheus metrics and debug
// logging. The core service is observability-free; this layer owns all
// of it.
type InstrumentedView struct {
	inner  View
	logger *zap.Logger
}

// NewInstrumentedView wraps a view with observability.
func NewInstrumentedView(inner View, logger *zap.Logger) *InstrumentedView {
	return &InstrumentedView{inner: inner, logger: logger}
}

// GetDocument delegates and records operation metrics.
func (v *InstrumentedView) GetDocument(
	ctx context.Context, key path.DocumentKey,
) (*document.Document, error) {
	start := time.Now()

	doc, err := v.inner.GetDocument(ctx, key)

	v.observe("get_document", start, err)
	if err != nil {
		v.logger.Error("Local view lookup failed",
			zap.String("key", key.String()),
			zap.Error(err),
		)
		return nil, err
	}

	v.logger.Debug("Local view lookup completed",
		zap.String("key", key.String()),
		zap.String("state", doc.Type().String()),
		zap.Duration("duration", time.Since(start)),
	)
	return doc, nil
}

// GetDocuments delegates and records operation metrics.
func (v *InstrumentedView) GetDocuments(
	ctx context.Context, keys []path.DocumentKey,
) (map[path.DocumentKey]*document.Document, error) {
	start := time.Now()

	docs, err := v.inner.GetDocuments(ctx, keys)

	v.observe("get_documents", start, err)
	if err != nil {
		v.logger.Error("Local view batch lookup failed",
			zap.Int("keys", len(keys)),
			zap.Error(err),
		)
		return nil, err
	}

	metrics.ViewDocumentsReturned.WithLabelValues("get_documents").Observe(float64(len(docs)))
	v.logger.Debug("Local view batch lookup completed",
		zap.Int("keys", len(keys)),
		zap.Duration("duration", time.Since(start)),
	)
	return docs, nil
}

// GetLocalViewOfDocuments delegates and records operation metrics.
func (v *InstrumentedView) GetLocalViewOfDocuments(
	ctx context.Context, base map[path.DocumentKey]*document.Document,
) (map[path.DocumentKey]*document.Document, error) {
	start := time.Now()

	docs, err := v.inner.GetLocalViewOfDocuments(ctx, base)

	v.observe("get_local_view", start, err)
	if err != nil {
		v.logger.Error("Local view overlay failed",
			zap.Int("documents", len(base)),
			zap.Error(err),
		)
		return nil, err
	}

	metrics.ViewDocumentsReturned.WithLabelValues("get_local_view").Observe(float64(len(docs)))
	return docs, nil
}

// GetDocumentsMatchingQuery delegates and records operation metrics.
func (v *InstrumentedView) GetDocumentsMatchingQuery(
	ctx context.Context, q query.Query, sinceReadTime domain.SnapshotVersion,
) (map[path.DocumentKey]*document.Document, error) {
	start := time.Now()

	docs, err := v.inner.GetDocumentsMatchingQuery(ctx, q, sinceReadTime)

	v.observe("get_matching", start, err)
	if err != nil {
		v.logger.Error("Local view query failed",
			zap.String("query", q.String()),
			zap.Error(err),
		)
		return nil, err
	}

	metrics.ViewDocumentsReturned.WithLabelValues("get_matching").Observe(float64(len(docs)))
	v.logger.Debug("Local view query completed",
		zap.String("query", q.String()),
		zap.Int("documents", len(docs)),
		zap.Duration("duration", time.Since(start)),
	)
	return docs, nil
}

func (v *InstrumentedView) observe(operation string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.ViewRequestsTotal.WithLabelValues(operation, status).Inc()
	metrics.ViewRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
