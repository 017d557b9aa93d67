package stream

import (
	"context"

	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/confusedbuffalo/phone-report/internal/model"
	"github.com/confusedbuffalo/phone-report/internal/reconcile"
	"github.com/confusedbuffalo/phone-report/internal/safeedit"
)

// Processor consumes a one-shot feature sequence, reconciles each feature
// and persists the invalid ones. It holds one in-flight record at a time;
// restarting means re-invoking the upstream supplier.
type Processor struct {
	reconciler *reconcile.Reconciler
	classifier *safeedit.Classifier

	bounds *geom.Bounds
}

// NewProcessor builds a processor from the reconciler and the safe-edit
// classifier used for the running safe-edit counter.
func NewProcessor(r *reconcile.Reconciler, c *safeedit.Classifier) *Processor {
	return &Processor{
		reconciler: r,
		classifier: c,
		bounds:     geom.NewBounds(geom.XY),
	}
}

// Run drains the feature channel, writing one record per invalid feature to
// the array writer and returning the accumulated statistics once the
// sequence is exhausted. A sink failure aborts the run and propagates.
func (p *Processor) Run(ctx context.Context, features <-chan model.Feature, country string, w *ArrayWriter) (*model.RunStats, error) {
	stats := &model.RunStats{}

	for {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		case f, ok := <-features:
			if !ok {
				return stats, nil
			}

			rec, numbers := p.reconciler.Check(f, country)
			stats.TotalNumbers += numbers
			if rec == nil {
				continue
			}

			if err := rec.Validate(); err != nil {
				// A reconciler bug, not bad input. Skip the record rather
				// than persist an inconsistent one.
				zap.L().Error("stream: inconsistent record", zap.Error(err))
				continue
			}

			stats.InvalidCount++
			if rec.AutoFixable {
				stats.AutoFixableCount++
			}
			if p.classifier.IsSafeItemEdit(rec, country) {
				stats.SafeEditCount++
			}
			if rec.Lat != 0 || rec.Lon != 0 {
				p.bounds.Extend(geom.NewPointFlat(geom.XY, []float64{rec.Lon, rec.Lat}))
			}

			if err := w.Write(rec); err != nil {
				return stats, err
			}
		}
	}
}

// BBox returns the bounding box of the invalid features seen, or nil when
// none carried coordinates.
func (p *Processor) BBox() *model.BBox {
	if p.bounds.IsEmpty() {
		return nil
	}
	return &model.BBox{
		MinLon: p.bounds.Min(0),
		MinLat: p.bounds.Min(1),
		MaxLon: p.bounds.Max(0),
		MaxLat: p.bounds.Max(1),
	}
}
