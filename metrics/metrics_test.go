package metrics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iedon/zine-go/data"
)

func TestObserveBuild(t *testing.T) {
	m := New()
	m.ObserveBuild(time.Second, nil)
	m.ObserveBuild(time.Second, nil)
	m.ObserveBuild(time.Second, errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.builds.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.builds.WithLabelValues("error")))
}

func TestObservePreview(t *testing.T) {
	m := New()
	m.ObservePreview("cached")
	m.ObservePreview("fetched")
	m.ObservePreview("cached")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.previews.WithLabelValues("cached")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.previews.WithLabelValues("fetched")))
}

func TestTrackStore(t *testing.T) {
	store, err := data.Open(t.TempDir())
	require.NoError(t, err)

	m := New()
	m.TrackStore(store)
	store.InsertURLPreview("https://a.test", data.Preview{Title: "A"})
	store.InsertURLPreview("https://b.test", data.Preview{Title: "B"})

	expected := `
# HELP zine_cached_url_previews Entries in the url preview cache.
# TYPE zine_cached_url_previews gauge
zine_cached_url_previews 2
`
	assert.NoError(t, testutil.GatherAndCompare(m.registry, strings.NewReader(expected), "zine_cached_url_previews"))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveBuild(time.Second, nil)
		m.ObservePreview("cached")
		m.TrackStore(nil)
	})
}
