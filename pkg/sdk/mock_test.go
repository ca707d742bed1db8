package xover

import (
	"context"

	"github.com/kailas-cloud/xover/internal/domain/job"
	"github.com/kailas-cloud/xover/internal/domain/record"
	batchuc "github.com/kailas-cloud/xover/internal/usecase/batch"
	crossoveruc "github.com/kailas-cloud/xover/internal/usecase/crossover"
	healthuc "github.com/kailas-cloud/xover/internal/usecase/health"
)

// --- dayUseCase mock ---

type mockDayUC struct {
	processFn func(ctx context.Context, j job.Job) (crossoveruc.Outcome, error)
}

func (m *mockDayUC) Process(ctx context.Context, j job.Job) (crossoveruc.Outcome, error) {
	return m.processFn(ctx, j)
}

// --- batchUseCase mock ---

type mockBatchUC struct {
	runFn      func(ctx context.Context, reqs []job.Request) batchuc.Report
	runRangeFn func(ctx context.Context, rr batchuc.RangeRequest) (batchuc.Report, error)
}

func (m *mockBatchUC) Run(ctx context.Context, reqs []job.Request) batchuc.Report {
	return m.runFn(ctx, reqs)
}

func (m *mockBatchUC) RunRange(ctx context.Context, rr batchuc.RangeRequest) (batchuc.Report, error) {
	return m.runRangeFn(ctx, rr)
}

// --- crossoverReader mock ---

type mockReader struct {
	readFn func(ctx context.Context, key record.FileKey) ([]record.Record, record.Metadata, error)
}

func (m *mockReader) Read(ctx context.Context, key record.FileKey) ([]record.Record, record.Metadata, error) {
	return m.readFn(ctx, key)
}

// --- stageReader mock ---

type mockStages struct {
	getFn func(ctx context.Context, name string) (map[string]job.Stage, error)
}

func (m *mockStages) Get(ctx context.Context, name string) (map[string]job.Stage, error) {
	return m.getFn(ctx, name)
}

// --- healthUseCase mock ---

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(context.Context) healthuc.Report { return m.report }

// --- helpers ---

func testClient(day dayUseCase, batch batchUseCase, reader crossoverReader, stages stageReader) *Client {
	return &Client{
		daySvc:     day,
		batchSvc:   batch,
		crossovers: reader,
		stages:     stages,
	}
}
