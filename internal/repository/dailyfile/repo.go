// Package dailyfile reads per-day along-track sample files.
//
// Files live under <dir>/<version>/<satellite>/<YYYY>/ and carry their date as
// the first eight-digit group of the file name, e.g. GSFC_20210101.parquet.
package dailyfile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
	"go.uber.org/zap"

	"github.com/kailas-cloud/xover/internal/domain"
	"github.com/kailas-cloud/xover/internal/domain/record"
	"github.com/kailas-cloud/xover/internal/domain/track"
	"github.com/kailas-cloud/xover/internal/logger"
)

var datePattern = regexp.MustCompile(`\d{8}`)

const readBatch = 1024

// Satellite configures how samples of one source are read.
type Satellite struct {
	// SSHColumn selects the height column, ColumnSSHSmoothed or ColumnSSH.
	SSHColumn string
	// FillValue marks missing heights.
	FillValue float64
	// UseFlag drops samples whose quality flag is non-zero. Smoothed heights
	// are already quality controlled, so it only applies to ColumnSSH.
	UseFlag bool
}

// DefaultSatellite reads smoothed heights with the float64 fill value and ignores the flag.
func DefaultSatellite() Satellite {
	return Satellite{SSHColumn: ColumnSSHSmoothed, FillValue: math.MaxFloat64}
}

// Repo reads daily files from a local directory tree.
type Repo struct {
	dir  string
	sats map[string]Satellite
}

// New creates a daily file repository rooted at dir.
func New(dir string) *Repo {
	return &Repo{dir: dir, sats: make(map[string]Satellite)}
}

// WithSatellite overrides the read settings of one satellite.
func (r *Repo) WithSatellite(name string, s Satellite) *Repo {
	if s.SSHColumn == "" {
		s.SSHColumn = ColumnSSHSmoothed
	}
	r.sats[name] = s
	return r
}

func (r *Repo) satellite(name string) Satellite {
	if s, ok := r.sats[name]; ok {
		return s
	}
	return DefaultSatellite()
}

type dayFile struct {
	path string
	day  time.Time
}

// Load reads every sample of the files dated within days.
// It returns domain.ErrNoInputData when no file falls in the range.
func (r *Repo) Load(
	ctx context.Context, version, satellite string, days domain.DateRange,
) ([]track.Sample, record.Inputs, error) {
	log := logger.FromContext(ctx)

	var years []string
	for y := days.First.Year(); y <= days.Last.Year(); y++ {
		years = append(years, fmt.Sprintf("%04d", y))
	}
	files, err := r.list(version, satellite, years)
	if err != nil {
		return nil, record.Inputs{}, err
	}

	selected := files[:0]
	for _, f := range files {
		if days.Contains(f.day) {
			selected = append(selected, f)
		}
	}
	if len(selected) == 0 {
		return nil, record.Inputs{}, fmt.Errorf("%s %s between %s and %s: %w",
			version, satellite, days.First.Format(time.DateOnly), days.Last.Format(time.DateOnly), domain.ErrNoInputData)
	}

	cfg := r.satellite(satellite)
	var (
		samples []track.Sample
		inputs  record.Inputs
	)
	for _, f := range selected {
		if err := ctx.Err(); err != nil {
			return nil, record.Inputs{}, err
		}
		got, in, err := readFile(f.path, cfg)
		if err != nil {
			return nil, record.Inputs{}, fmt.Errorf("read %s: %w", filepath.Base(f.path), err)
		}
		samples = append(samples, got...)
		inputs = inputs.Merge(in)
	}

	log.Debug("Window loaded",
		zap.String("satellite", satellite),
		zap.Int("files", len(selected)),
		zap.Int("samples", len(samples)),
	)
	return samples, inputs, nil
}

// Available returns the first and last day that have a file for satellite.
func (r *Repo) Available(_ context.Context, version, satellite string) (domain.DateRange, error) {
	files, err := r.list(version, satellite, []string{"*"})
	if err != nil {
		return domain.DateRange{}, err
	}
	if len(files) == 0 {
		return domain.DateRange{}, fmt.Errorf("%s %s: %w", version, satellite, domain.ErrNoInputData)
	}
	return domain.DateRange{First: files[0].day, Last: files[len(files)-1].day}, nil
}

// Check verifies that the root directory is readable.
func (r *Repo) Check(_ context.Context) error {
	info, err := os.Stat(r.dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", r.dir)
	}
	return nil
}

// list returns the dated files under the given year directories, sorted by day then path.
func (r *Repo) list(version, satellite string, years []string) ([]dayFile, error) {
	var out []dayFile
	for _, year := range years {
		pattern := filepath.Join(r.dir, version, satellite, year, "*.parquet")
		paths, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("glob daily files: %w", err)
		}
		for _, p := range paths {
			day, ok := dateFromName(filepath.Base(p))
			if !ok {
				continue
			}
			out = append(out, dayFile{path: p, day: day})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].day.Equal(out[j].day) {
			return out[i].day.Before(out[j].day)
		}
		return out[i].path < out[j].path
	})
	return out, nil
}

func dateFromName(name string) (time.Time, bool) {
	m := datePattern.FindString(name)
	if m == "" {
		return time.Time{}, false
	}
	day, err := time.Parse("20060102", m)
	if err != nil {
		return time.Time{}, false
	}
	return day, true
}

func readFile(path string, cfg Satellite) ([]track.Sample, record.Inputs, error) {
	h, err := openParquet(path)
	if err != nil {
		return nil, record.Inputs{}, err
	}
	defer h.Close()

	cols, err := resolveColumns(h.pf, cfg.SSHColumn)
	if err != nil {
		return nil, record.Inputs{}, err
	}

	in := record.Inputs{Filenames: []string{filepath.Base(path)}}
	if v, ok := h.pf.Lookup(MetaHistory); ok && v != "" {
		in.Histories = []string{history(v)}
	}
	if v, ok := h.pf.Lookup(MetaProductGenerationStep); ok && v != "" {
		in.ProductGenerationSteps = []string{v}
	}

	out := make([]track.Sample, 0, h.pf.NumRows())
	buf := make([]parquet.Row, readBatch)
	for _, rg := range h.pf.RowGroups() {
		rows := parquet.NewRowGroupReader(rg)
		for {
			n, readErr := rows.ReadRows(buf)
			for i := 0; i < n; i++ {
				if s, ok := rowToSample(buf[i], cols, cfg); ok {
					out = append(out, s)
				}
			}
			if readErr != nil {
				if errors.Is(readErr, io.EOF) {
					break
				}
				return nil, record.Inputs{}, fmt.Errorf("read rows: %w", readErr)
			}
		}
	}
	return out, in, nil
}

// history keeps the part after "Created on " when present.
func history(v string) string {
	if _, after, ok := strings.Cut(v, "Created on "); ok {
		return after
	}
	return v
}

// rowToSample extracts a sample, rejecting rows with missing or filled values.
func rowToSample(row parquet.Row, cols columns, cfg Satellite) (track.Sample, bool) {
	var s track.Sample
	var hasTime, hasC, hasP, flagged bool
	s.Lon, s.Lat, s.SSH = math.NaN(), math.NaN(), math.NaN()

	for _, v := range row {
		switch v.Column() {
		case cols.time:
			s.Time, hasTime = integer(v)
		case cols.lon:
			s.Lon = float(v)
		case cols.lat:
			s.Lat = float(v)
		case cols.ssh:
			s.SSH = float(v)
		case cols.cycle:
			c, ok := integer(v)
			s.Cycle, hasC = int32(c), ok && c >= 0 && c < math.MaxInt32
		case cols.pass:
			p, ok := integer(v)
			s.Pass, hasP = int32(p), ok && p >= 0 && p < math.MaxInt32
		case cols.flag:
			if f, ok := integer(v); ok && f != 0 {
				flagged = true
			}
		}
	}

	if !hasTime || !hasC || !hasP {
		return s, false
	}
	if cfg.UseFlag && cfg.SSHColumn == ColumnSSH && flagged {
		return s, false
	}
	if math.IsNaN(s.SSH) || s.SSH == cfg.FillValue || math.IsInf(s.SSH, 0) {
		return s, false
	}
	if math.IsNaN(s.Lon) || math.IsNaN(s.Lat) || math.IsInf(s.Lon, 0) || math.IsInf(s.Lat, 0) {
		return s, false
	}
	return s, true
}
