package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confusedbuffalo/phone-report/internal/model"
	"github.com/confusedbuffalo/phone-report/internal/phone"
	"github.com/confusedbuffalo/phone-report/internal/reconcile"
	"github.com/confusedbuffalo/phone-report/internal/safeedit"
)

func newTestProcessor() *Processor {
	v := phone.NewValidator(phone.NewParser(), phone.DefaultRules())
	return NewProcessor(reconcile.New(v), safeedit.NewClassifier(v))
}

func sendFeatures(features ...model.Feature) <-chan model.Feature {
	ch := make(chan model.Feature, len(features))
	for _, f := range features {
		ch <- f
	}
	close(ch)
	return ch
}

func TestRun_CountsAndPersists(t *testing.T) {
	p := newTestProcessor()
	var buf bytes.Buffer
	w := NewArrayWriter(&buf)

	stats, err := p.Run(context.Background(), sendFeatures(
		model.Feature{Type: model.FeatureNode, ID: 1, Lat: 51.5, Lon: -0.12,
			Tags: map[string]string{"phone": "+44 20 7946 0000"}},
		model.Feature{Type: model.FeatureNode, ID: 2, Lat: 53.5, Lon: -2.25,
			Tags: map[string]string{"phone": "0161 496 0000"}},
		model.Feature{Type: model.FeatureWay, ID: 3, Lat: 52.5, Lon: -1.9,
			Tags: map[string]string{"phone": "not a number"}},
	), "GB", w)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.Equal(t, 3, stats.TotalNumbers)
	assert.Equal(t, 2, stats.InvalidCount, "only features needing edits are persisted")
	assert.Equal(t, 1, stats.AutoFixableCount)
	assert.Equal(t, 1, stats.SafeEditCount)
	assert.Equal(t, 2, w.Count())

	var records []model.FeatureRecord
	require.NoError(t, json.Unmarshal(buf.Bytes(), &records))
	require.Len(t, records, 2)
}

func TestRun_BBoxCoversInvalidFeaturesOnly(t *testing.T) {
	p := newTestProcessor()
	w := NewArrayWriter(&bytes.Buffer{})

	_, err := p.Run(context.Background(), sendFeatures(
		model.Feature{Type: model.FeatureNode, ID: 1, Lat: 60.0, Lon: 10.0,
			Tags: map[string]string{"phone": "+44 20 7946 0000"}}, // valid, excluded
		model.Feature{Type: model.FeatureNode, ID: 2, Lat: 51.5, Lon: -0.12,
			Tags: map[string]string{"phone": "0161 496 0000"}},
		model.Feature{Type: model.FeatureNode, ID: 3, Lat: 53.5, Lon: -2.25,
			Tags: map[string]string{"phone": "0207 9460000"}},
	), "GB", w)
	require.NoError(t, err)

	bbox := p.BBox()
	require.NotNil(t, bbox)
	assert.Equal(t, -2.25, bbox.MinLon)
	assert.Equal(t, 51.5, bbox.MinLat)
	assert.Equal(t, -0.12, bbox.MaxLon)
	assert.Equal(t, 53.5, bbox.MaxLat)
}

func TestRun_BBoxIgnoresMissingCoordinates(t *testing.T) {
	p := newTestProcessor()
	w := NewArrayWriter(&bytes.Buffer{})

	_, err := p.Run(context.Background(), sendFeatures(
		model.Feature{Type: model.FeatureRelation, ID: 1,
			Tags: map[string]string{"phone": "0161 496 0000"}}, // no center
		model.Feature{Type: model.FeatureNode, ID: 2, Lat: 51.5, Lon: -0.12,
			Tags: map[string]string{"phone": "0207 9460000"}},
	), "GB", w)
	require.NoError(t, err)

	// The coordinate-less feature must not drag the box to the origin.
	bbox := p.BBox()
	require.NotNil(t, bbox)
	assert.Equal(t, -0.12, bbox.MinLon)
	assert.Equal(t, 51.5, bbox.MinLat)
	assert.Equal(t, -0.12, bbox.MaxLon)
	assert.Equal(t, 51.5, bbox.MaxLat)
}

func TestRun_BBoxNilWhenNoCoordinates(t *testing.T) {
	p := newTestProcessor()
	w := NewArrayWriter(&bytes.Buffer{})

	stats, err := p.Run(context.Background(), sendFeatures(
		model.Feature{Type: model.FeatureRelation, ID: 1,
			Tags: map[string]string{"phone": "0161 496 0000"}},
	), "GB", w)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.InvalidCount)
	assert.Nil(t, p.BBox())
}

func TestRun_EmptyBBoxIsNil(t *testing.T) {
	p := newTestProcessor()
	w := NewArrayWriter(&bytes.Buffer{})

	stats, err := p.Run(context.Background(), sendFeatures(), "GB", w)
	require.NoError(t, err)
	assert.Zero(t, stats.InvalidCount)
	assert.Nil(t, p.BBox())
}

func TestRun_ContextCancellation(t *testing.T) {
	p := newTestProcessor()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Never-closed channel: only cancellation can end the run.
	_, err := p.Run(ctx, make(chan model.Feature), "GB", NewArrayWriter(&bytes.Buffer{}))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_SinkFailureAborts(t *testing.T) {
	p := newTestProcessor()

	_, err := p.Run(context.Background(), sendFeatures(
		model.Feature{Type: model.FeatureNode, ID: 1, Lat: 51.5, Lon: -0.12,
			Tags: map[string]string{"phone": "0161 496 0000"}},
	), "GB", NewArrayWriter(failingSink{}))
	assert.Error(t, err)
}
