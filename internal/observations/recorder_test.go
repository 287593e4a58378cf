package observations

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skywatch-bcn/planeview/internal/dump1090"
	"github.com/skywatch-bcn/planeview/pkg/core"
)

type testLogger struct{ errors []string }

func (l *testLogger) Debug(string, ...any) {}
func (l *testLogger) Info(string, ...any)  {}
func (l *testLogger) Error(msg string, _ ...any) {
	l.errors = append(l.errors, msg)
}

type stubSource struct {
	report *dump1090.Report
	err    error
}

func (s *stubSource) Fetch(context.Context) (*dump1090.Report, error) {
	return s.report, s.err
}

type memoryBackend struct {
	mu  sync.Mutex
	obs []core.Observation
	err error
}

func (b *memoryBackend) Init() error  { return nil }
func (b *memoryBackend) Close() error { return nil }
func (b *memoryBackend) RecordObservation(o *core.Observation) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.obs = append(b.obs, *o)
	return nil
}

func (b *memoryBackend) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.obs)
}

type pointSink struct {
	points []*influxdb2_write.Point
	err    error
}

func (s *pointSink) WritePoint(p *influxdb2_write.Point) error {
	if s.err != nil {
		return s.err
	}
	s.points = append(s.points, p)
	return nil
}

func ptr[T any](v T) *T { return &v }

var fixed = time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)

func sampleReport() *dump1090.Report {
	return &dump1090.Report{Aircraft: []dump1090.Aircraft{
		// inside the approach corridor
		{Hex: "34510a", Lat: ptr(41.3438), Lon: ptr(2.2354), BarometerAltitude: dump1090.Altitude{Feet: 1850, Valid: true}},
		// located, outside
		{Hex: "4ca7b1", Lat: ptr(41.0), Lon: ptr(2.0), BarometerAltitude: dump1090.Altitude{Feet: 36000, Valid: true}},
		// no position yet
		{Hex: "3c66b3", BarometerAltitude: dump1090.Altitude{Ground: true, Valid: true}},
	}}
}

func newRecorder(t *testing.T, src *stubSource, backend *memoryBackend, opts ...Option) (*Recorder, *testLogger) {
	t.Helper()
	log := &testLogger{}
	opts = append([]Option{WithClock(func() time.Time { return fixed })}, opts...)
	r, err := New(src, backend, log, opts...)
	require.NoError(t, err)
	return r, log
}

func TestRecord(t *testing.T) {
	backend := &memoryBackend{}
	sink := &pointSink{}
	r, log := newRecorder(t, &stubSource{report: sampleReport()}, backend, WithPoints(sink, "lebl"))

	require.NoError(t, r.Record(context.Background()))
	assert.Empty(t, log.errors)

	require.Len(t, backend.obs, 1)
	obs := backend.obs[0]
	assert.Equal(t, fixed, obs.Time)
	require.Len(t, obs.Aircraft, 3)
	assert.Equal(t, "34510a", obs.Aircraft[0].ICAO)
	assert.Nil(t, obs.Aircraft[2].Lat)
	assert.True(t, obs.Aircraft[2].OnGround)

	require.Len(t, sink.points, 1)
	fields := map[string]any{}
	for _, f := range sink.points[0].FieldList() {
		fields[f.Key] = f.Value
	}
	assert.Equal(t, map[string]any{"seen": int64(3), "located": int64(2), "inside": int64(1)}, fields)
	assert.Equal(t, fixed, sink.points[0].Time())
}

func TestRecord_WithoutPoints(t *testing.T) {
	backend := &memoryBackend{}
	r, _ := newRecorder(t, &stubSource{report: &dump1090.Report{}}, backend)

	require.NoError(t, r.Record(context.Background()))
	require.Len(t, backend.obs, 1)
	assert.Empty(t, backend.obs[0].Aircraft)
}

func TestRecord_FetchFailure(t *testing.T) {
	backend := &memoryBackend{}
	r, log := newRecorder(t, &stubSource{err: errors.New("connection refused")}, backend)

	assert.Error(t, r.Record(context.Background()))
	assert.Empty(t, backend.obs)
	assert.Equal(t, []string{"receiver fetch failed"}, log.errors)
}

func TestRecord_StoreFailure(t *testing.T) {
	backend := &memoryBackend{err: errors.New("disk full")}
	sink := &pointSink{}
	r, log := newRecorder(t, &stubSource{report: sampleReport()}, backend, WithPoints(sink, "lebl"))

	assert.Error(t, r.Record(context.Background()))
	assert.Empty(t, sink.points)
	assert.Equal(t, []string{"storing observation failed"}, log.errors)
}

func TestRecord_PointFailure(t *testing.T) {
	backend := &memoryBackend{}
	r, log := newRecorder(t, &stubSource{report: sampleReport()}, backend,
		WithPoints(&pointSink{err: errors.New("no backup")}, "lebl"))

	assert.Error(t, r.Record(context.Background()))
	assert.Len(t, backend.obs, 1)
	assert.Equal(t, []string{"writing airspace point failed"}, log.errors)
}

func TestRun_RecordsImmediatelyAndOnTick(t *testing.T) {
	backend := &memoryBackend{}
	r, _ := newRecorder(t, &stubSource{report: sampleReport()}, backend, Interval(10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return backend.count() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("recorder did not stop")
	}
}

func TestInterval_IgnoresNonPositive(t *testing.T) {
	r, _ := newRecorder(t, &stubSource{}, &memoryBackend{}, Interval(0))
	assert.Equal(t, defaultInterval, r.cfg.interval)
}
