package xover

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/xover/internal/domain"
	"github.com/kailas-cloud/xover/internal/repository/dailyfile"
)

func TestNew_MissingDirs(t *testing.T) {
	if _, err := New(context.Background()); err == nil {
		t.Fatal("expected error when no daily files directory provided")
	}
	if _, err := New(context.Background(), WithDailyFiles(t.TempDir())); err == nil {
		t.Fatal("expected error when no crossovers directory provided")
	}
}

func TestNew_InvalidOptions(t *testing.T) {
	_, err := New(context.Background(),
		WithDailyFiles(t.TempDir()),
		WithCrossoversDir(t.TempDir()),
		WithKMCutoff(-1),
	)
	if !errors.Is(err, ErrInvalidOptions) {
		t.Fatalf("err = %v, want ErrInvalidOptions", err)
	}
}

func TestClientOptions(t *testing.T) {
	cfg := &clientConfig{}
	epoch := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, o := range []Option{
		WithRedis("localhost:6379", "secret"),
		WithKeyPrefix("test:"),
		WithEpoch(epoch),
		WithWindow(6, 0),
		WithCycleLength(10),
		WithKMCutoff(12),
		WithMaxCrossoversPerDay(40),
		WithSatellite("S6", Satellite{RawSSH: true, UseFlag: true}),
		WithWorkers(3),
		WithMaxBatchSize(7),
	} {
		o.apply(cfg)
	}

	if cfg.addrs[0] != "localhost:6379" || cfg.password != "secret" {
		t.Errorf("redis = %v / %q", cfg.addrs, cfg.password)
	}
	if cfg.keyPrefix != "test:" || cfg.workers != 3 || cfg.maxBatchSize != 7 {
		t.Errorf("unexpected config %+v", cfg)
	}
	if !cfg.satellites["S6"].RawSSH {
		t.Error("satellite override lost")
	}

	opts, err := cfg.options()
	if err != nil {
		t.Fatalf("options() error: %v", err)
	}
	if !opts.Epoch.Equal(epoch) {
		t.Errorf("Epoch = %v", opts.Epoch)
	}
	if opts.WindowSizeDays != 6 || opts.WindowPaddingDays != 0 {
		t.Errorf("window = %d + %d, want 6 + 0", opts.WindowSizeDays, opts.WindowPaddingDays)
	}
	if opts.KMCutoff != 12 || opts.MaxCrossoversPerDay != 40 || opts.CycleLengthDays != 10 {
		t.Errorf("unexpected options %+v", opts)
	}
}

func TestClientOptions_Defaults(t *testing.T) {
	opts, err := (&clientConfig{}).options()
	if err != nil {
		t.Fatalf("options() error: %v", err)
	}
	def := domain.DefaultOptions()
	if opts.WindowPaddingDays != def.WindowPaddingDays || opts.KMCutoff != def.KMCutoff {
		t.Errorf("options = %+v, want defaults", opts)
	}
}

func TestSatelliteReader(t *testing.T) {
	s := Satellite{}.reader()
	if s.SSHColumn != dailyfile.ColumnSSHSmoothed || s.FillValue != math.MaxFloat64 || s.UseFlag {
		t.Errorf("default reader = %+v", s)
	}

	s = Satellite{RawSSH: true, FillValue: -9999, UseFlag: true}.reader()
	if s.SSHColumn != dailyfile.ColumnSSH || s.FillValue != -9999 || !s.UseFlag {
		t.Errorf("raw reader = %+v", s)
	}
}

func TestStatus(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{fmt.Errorf("wrap: %w", domain.ErrInvalidJob), "invalid"},
		{domain.ErrInvalidOptions, "invalid"},
		{fmt.Errorf("load: %w", domain.ErrNoInputData), "no_input"},
		{errors.New("boom"), "error"},
	}
	for _, tt := range tests {
		if got := status(tt.err); got != tt.want {
			t.Errorf("status(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestObserver_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	var logs bytes.Buffer
	obs, err := newObserver(slog.New(slog.NewTextHandler(&logs, nil)), reg)
	if err != nil {
		t.Fatalf("newObserver() error: %v", err)
	}

	obs.observe("process_day", time.Now(), nil)
	obs.observe("process_day", time.Now(), domain.ErrNoInputData, slog.String("day", "2021-01-01"))

	if got := testutil.ToFloat64(obs.metrics.operations.WithLabelValues("process_day", "ok")); got != 1 {
		t.Errorf("ok count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(obs.metrics.operations.WithLabelValues("process_day", "no_input")); got != 1 {
		t.Errorf("no_input count = %v, want 1", got)
	}
	if !strings.Contains(logs.String(), "operation failed") || !strings.Contains(logs.String(), "day=2021-01-01") {
		t.Errorf("unexpected logs %q", logs.String())
	}
}

func TestObserver_ReusesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("first observer: %v", err)
	}
	second, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("second observer: %v", err)
	}
	if first.metrics.operations != second.metrics.operations {
		t.Error("expected the registered counter to be reused")
	}
}

func TestObserver_Nil(t *testing.T) {
	var obs *observer
	obs.observe("noop", time.Now(), nil) // must not panic
}

// --- end to end against real files ---

type dailyRow struct {
	Time        int64   `parquet:"time"`
	Longitude   float64 `parquet:"longitude"`
	Latitude    float64 `parquet:"latitude"`
	SSHSmoothed float64 `parquet:"ssh_smoothed"`
	SSH         float64 `parquet:"ssh"`
	Cycle       int32   `parquet:"cycle"`
	Pass        int32   `parquet:"pass"`
	NasaFlag    int32   `parquet:"nasa_flag"`
}

// passRows lays four samples along lon 10.0..10.3, ten seconds apart.
func passRows(pass int32, start time.Time, lats []float64) []dailyRow {
	t0 := domain.DefaultOptions().Ticks(start)
	rows := make([]dailyRow, len(lats))
	for k, lat := range lats {
		ssh := float64(pass) + 0.1*float64(k)
		rows[k] = dailyRow{
			Time:        t0 + int64(k)*int64(10*time.Second),
			Longitude:   10 + 0.1*float64(k),
			Latitude:    lat,
			SSHSmoothed: ssh,
			SSH:         ssh,
			Cycle:       1,
			Pass:        pass,
		}
	}
	return rows
}

func writeDaily(t *testing.T, root string, rows []dailyRow) {
	t.Helper()
	dir := filepath.Join(root, "p3", "GSFC", "2021")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(filepath.Join(dir, "GSFC_20210101.parquet"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	w := parquet.NewGenericWriter[dailyRow](f, parquet.KeyValueMetadata("history", "Created on 2024-01-01"))
	if _, err := w.Write(rows); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestClient_EndToEnd(t *testing.T) {
	daily, out := t.TempDir(), t.TempDir()
	day := time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC)

	var rows []dailyRow
	rows = append(rows, passRows(1, day.Add(time.Hour), []float64{-0.15, -0.05, 0.05, 0.15})...)
	rows = append(rows, passRows(4, day.Add(3*time.Hour), []float64{0.15, 0.05, -0.05, -0.15})...)
	writeDaily(t, daily, rows)

	reg := prometheus.NewRegistry()
	c, err := New(context.Background(), WithDailyFiles(daily), WithCrossoversDir(out), WithWorkers(1), WithPrometheus(reg))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer c.Close()

	res, err := c.ProcessDay(context.Background(), Job{Day: day, Source: "GSFC", Version: "p3"})
	if err != nil {
		t.Fatalf("ProcessDay() error: %v", err)
	}
	if res.Crossovers != 1 {
		t.Fatalf("Crossovers = %d, want 1", res.Crossovers)
	}
	if _, err := os.Stat(res.Path); err != nil {
		t.Fatalf("output file: %v", err)
	}

	got, meta, err := c.Crossovers(context.Background(), "p3", "GSFC", "", day)
	if err != nil {
		t.Fatalf("Crossovers() error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len(rows) = %d, want 1", len(got))
	}
	if got[0].Pass1 != 1 || got[0].Pass2 != 4 {
		t.Errorf("passes = %d/%d, want 1/4", got[0].Pass1, got[0].Pass2)
	}
	if math.Abs(got[0].Lon-10.15) > 1e-9 || math.Abs(got[0].Lat) > 1e-9 {
		t.Errorf("crossover at (%v, %v), want (10.15, 0)", got[0].Lon, got[0].Lat)
	}
	if meta.Title != "GSFC self-crossovers" {
		t.Errorf("Title = %q", meta.Title)
	}
	if !strings.Contains(meta.InputFilenames, "GSFC_20210101.parquet") {
		t.Errorf("InputFilenames = %q", meta.InputFilenames)
	}

	if _, err := c.Stages(context.Background(), "p3"); !errors.Is(err, ErrStagesDisabled) {
		t.Errorf("Stages() err = %v, want ErrStagesDisabled", err)
	}
	if h := c.Health(context.Background()); h.Status != "ok" {
		t.Errorf("Health = %+v", h)
	}
	if n, err := testutil.GatherAndCount(reg, "xover_sdk_operations_total"); err != nil || n == 0 {
		t.Errorf("expected SDK operation metrics, got %d (%v)", n, err)
	}
}

func TestClient_EmptyDay(t *testing.T) {
	c, err := New(context.Background(), WithDailyFiles(t.TempDir()), WithCrossoversDir(t.TempDir()))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	day := time.Date(2021, time.March, 3, 0, 0, 0, 0, time.UTC)

	report := c.Run(context.Background(), []Job{{ID: "m1", Day: day, Source: "J3", Version: "p3", Processing: "reprocess"}})
	if len(report.Items) != 1 || report.Items[0].Status != "ok" || report.Items[0].Crossovers != 0 {
		t.Fatalf("report = %+v", report)
	}

	rows, _, err := c.Crossovers(context.Background(), "p3", "J3", "J3", day)
	if err != nil {
		t.Fatalf("Crossovers() error: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("len(rows) = %d, want 0", len(rows))
	}
}
