package crossover

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/xover/internal/domain"
	"github.com/kailas-cloud/xover/internal/domain/job"
	"github.com/kailas-cloud/xover/internal/domain/record"
	"github.com/kailas-cloud/xover/internal/domain/track"
)

// --- Mocks ---

type loadCall struct {
	satellite string
	days      domain.DateRange
}

type mockLoader struct {
	samples map[string][]track.Sample
	inputs  map[string]record.Inputs
	err     map[string]error
	calls   []loadCall
}

func (m *mockLoader) Load(
	_ context.Context, _, satellite string, days domain.DateRange,
) ([]track.Sample, record.Inputs, error) {
	m.calls = append(m.calls, loadCall{satellite: satellite, days: days})
	if err := m.err[satellite]; err != nil {
		return nil, record.Inputs{}, err
	}
	return m.samples[satellite], m.inputs[satellite], nil
}

type mockWriter struct {
	err     error
	key     record.FileKey
	records []record.Record
	meta    record.Metadata
	calls   int
}

func (m *mockWriter) Write(
	_ context.Context, key record.FileKey, records []record.Record, meta record.Metadata,
) (string, error) {
	m.calls++
	m.key, m.records, m.meta = key, records, meta
	if m.err != nil {
		return "", m.err
	}
	return key.Dir() + "/" + key.Name() + ".parquet", nil
}

type mockStages struct {
	err   error
	name  string
	field string
	stage job.Stage
	calls int
}

func (m *mockStages) Set(_ context.Context, name, field string, stage job.Stage) error {
	m.calls++
	m.name, m.field, m.stage = name, field, stage
	return m.err
}

// --- Helpers ---

var fixedNow = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

func selfJob(t *testing.T, processing string) job.Job {
	t.Helper()
	j, err := job.Parse(job.Request{Date: "2021-01-01", Source: "GSFC", DFVersion: "p3", Processing: processing})
	require.NoError(t, err)
	return j
}

func crossingSamples(opts domain.Options) []track.Sample {
	var all []track.Sample
	all = append(all, pass(1, 1, testDay.Add(time.Hour), northward, opts)...)
	all = append(all, pass(1, 4, testDay.Add(3*time.Hour), southward, opts)...)
	return all
}

func newService(l *mockLoader, w *mockWriter, s *mockStages) *Service {
	var stages StageStore
	if s != nil {
		stages = s
	}
	return New(l, w, stages, domain.DefaultOptions()).WithClock(func() time.Time { return fixedNow })
}

// --- Tests ---

func TestProcess_SelfCrossovers(t *testing.T) {
	opts := domain.DefaultOptions()
	loader := &mockLoader{
		samples: map[string][]track.Sample{"GSFC": crossingSamples(opts)},
		inputs:  map[string]record.Inputs{"GSFC": {Filenames: []string{"gsfc_20210101.parquet"}}},
	}
	writer := &mockWriter{}
	stages := &mockStages{}

	out, err := newService(loader, writer, stages).Process(context.Background(), selfJob(t, ""))
	require.NoError(t, err)

	assert.Equal(t, 1, out.Crossovers)
	assert.Equal(t, 1, out.Evaluated)
	assert.Equal(t, "p3/GSFC/2021/xovers_GSFC-2021-01-01.parquet", out.Path)
	assert.Equal(t, 8, out.Samples1)

	require.Len(t, loader.calls, 1, "self mode loads one window")
	assert.Equal(t, 12, loader.calls[0].days.Days())

	require.Len(t, writer.records, 1)
	assert.Equal(t, "GSFC self-crossovers", writer.meta.Title)
	assert.Equal(t, "gsfc_20210101.parquet", writer.meta.InputFilenames)
	assert.Equal(t, fixedNow, writer.meta.CreatedOn)

	assert.Equal(t, "xover_p3", stages.name)
	assert.Equal(t, "GSFC_2021-01-01", stages.field)
	assert.Equal(t, job.StageComplete, stages.stage)
}

func TestProcess_CrossSatellite(t *testing.T) {
	opts := domain.DefaultOptions()
	loader := &mockLoader{
		samples: map[string][]track.Sample{
			"GSFC": pass(1, 1, testDay.Add(2*time.Hour), northward, opts),
			"S6":   pass(5, 3, testDay.Add(-time.Hour), southward, opts),
		},
		inputs: map[string]record.Inputs{
			"GSFC": {Filenames: []string{"a"}},
			"S6":   {Filenames: []string{"b"}},
		},
	}
	writer := &mockWriter{}

	j, err := job.Parse(job.Request{Date: "2021-01-01", Source: "GSFC", Source2: "S6", DFVersion: "p3"})
	require.NoError(t, err)

	out, err := newService(loader, writer, nil).Process(context.Background(), j)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Crossovers)

	require.Len(t, loader.calls, 2)
	assert.Equal(t, "GSFC", loader.calls[0].satellite)
	assert.Equal(t, 3, loader.calls[0].days.Days())
	assert.Equal(t, "S6", loader.calls[1].satellite)
	assert.Equal(t, 24, loader.calls[1].days.Days())

	assert.Equal(t, "GSFC crossovers with S6", writer.meta.Title)
	assert.Equal(t, "a, b", writer.meta.InputFilenames)
	assert.Equal(t, "xovers_GSFC_S6-2021-01-01", writer.key.Name())
}

func TestProcess_NoInputWritesEmptyFile(t *testing.T) {
	loader := &mockLoader{err: map[string]error{"GSFC": domain.ErrNoInputData}}
	writer := &mockWriter{}
	stages := &mockStages{}

	out, err := newService(loader, writer, stages).Process(context.Background(), selfJob(t, ""))
	require.NoError(t, err)

	assert.Equal(t, 1, writer.calls)
	assert.NotNil(t, writer.records)
	assert.Empty(t, writer.records)
	assert.Zero(t, out.Crossovers)
	assert.Equal(t, job.StageComplete, stages.stage)
}

func TestProcess_LoadErrorMarksFailed(t *testing.T) {
	boom := errors.New("disk on fire")
	loader := &mockLoader{err: map[string]error{"GSFC": boom}}
	writer := &mockWriter{}
	stages := &mockStages{}

	_, err := newService(loader, writer, stages).Process(context.Background(), selfJob(t, ""))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var dayErr *domain.DayError
	require.ErrorAs(t, err, &dayErr)
	assert.True(t, dayErr.Day.Equal(testDay))

	assert.Zero(t, writer.calls)
	assert.Equal(t, job.StageFailed, stages.stage)
}

func TestProcess_WriteErrorMarksFailed(t *testing.T) {
	loader := &mockLoader{samples: map[string][]track.Sample{"GSFC": crossingSamples(domain.DefaultOptions())}}
	writer := &mockWriter{err: errors.New("read-only")}
	stages := &mockStages{}

	_, err := newService(loader, writer, stages).Process(context.Background(), selfJob(t, ""))
	require.Error(t, err)
	assert.Equal(t, job.StageFailed, stages.stage)
}

func TestProcess_ReprocessSkipsStage(t *testing.T) {
	loader := &mockLoader{samples: map[string][]track.Sample{"GSFC": crossingSamples(domain.DefaultOptions())}}
	stages := &mockStages{}

	_, err := newService(loader, &mockWriter{}, stages).Process(context.Background(), selfJob(t, "reprocess"))
	require.NoError(t, err)
	assert.Zero(t, stages.calls)
}

func TestProcess_StageErrorIsReturned(t *testing.T) {
	loader := &mockLoader{samples: map[string][]track.Sample{"GSFC": crossingSamples(domain.DefaultOptions())}}
	stageErr := errors.New("redis down")
	stages := &mockStages{err: stageErr}

	_, err := newService(loader, &mockWriter{}, stages).Process(context.Background(), selfJob(t, ""))
	assert.ErrorIs(t, err, stageErr)
}

func TestProcess_InvalidSample(t *testing.T) {
	loader := &mockLoader{samples: map[string][]track.Sample{"GSFC": {{Cycle: 1, Pass: 12345}}}}
	writer := &mockWriter{}

	_, err := newService(loader, writer, nil).Process(context.Background(), selfJob(t, ""))
	assert.ErrorIs(t, err, domain.ErrInvalidSample)
	assert.Zero(t, writer.calls)
}

func TestProcess_CancelledContext(t *testing.T) {
	loader := &mockLoader{samples: map[string][]track.Sample{"GSFC": crossingSamples(domain.DefaultOptions())}}
	writer := &mockWriter{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newService(loader, writer, nil).Process(ctx, selfJob(t, ""))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, writer.calls)
}
