package dailyfile

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
)

// Column names of a daily file.
const (
	ColumnTime        = "time"
	ColumnLongitude   = "longitude"
	ColumnLatitude    = "latitude"
	ColumnSSHSmoothed = "ssh_smoothed"
	ColumnSSH         = "ssh"
	ColumnCycle       = "cycle"
	ColumnPass        = "pass"
	ColumnFlag        = "nasa_flag"
)

// Key/value metadata read from daily file headers.
const (
	MetaHistory               = "history"
	MetaProductGenerationStep = "product_generation_step"
)

// columns holds leaf column indexes, -1 when absent.
type columns struct {
	time, lon, lat, ssh, cycle, pass, flag int
}

func resolveColumns(pf *parquet.File, sshColumn string) (columns, error) {
	cols := columns{time: -1, lon: -1, lat: -1, ssh: -1, cycle: -1, pass: -1, flag: -1}
	for i, path := range pf.Schema().Columns() {
		if len(path) == 0 {
			continue
		}
		switch path[0] {
		case ColumnTime:
			cols.time = i
		case ColumnLongitude:
			cols.lon = i
		case ColumnLatitude:
			cols.lat = i
		case sshColumn:
			cols.ssh = i
		case ColumnCycle:
			cols.cycle = i
		case ColumnPass:
			cols.pass = i
		case ColumnFlag:
			cols.flag = i
		}
	}
	for name, idx := range map[string]int{
		ColumnTime: cols.time, ColumnLongitude: cols.lon, ColumnLatitude: cols.lat,
		sshColumn: cols.ssh, ColumnCycle: cols.cycle, ColumnPass: cols.pass,
	} {
		if idx < 0 {
			return cols, fmt.Errorf("column %q not found", name)
		}
	}
	return cols, nil
}

// float reads a numeric value as float64; nulls become NaN.
func float(v parquet.Value) float64 {
	if v.IsNull() {
		return math.NaN()
	}
	switch v.Kind() {
	case parquet.Double:
		return v.Double()
	case parquet.Float:
		return float64(v.Float())
	case parquet.Int32:
		return float64(v.Int32())
	case parquet.Int64:
		return float64(v.Int64())
	default:
		return math.NaN()
	}
}

// integer reads a numeric value as int64; ok is false for nulls and non-integer kinds.
func integer(v parquet.Value) (int64, bool) {
	if v.IsNull() {
		return 0, false
	}
	switch v.Kind() {
	case parquet.Int32:
		return int64(v.Int32()), true
	case parquet.Int64:
		return v.Int64(), true
	default:
		return 0, false
	}
}

// parquetHandle wraps parquet.File + underlying os.File for proper cleanup.
type parquetHandle struct {
	pf   *parquet.File
	file *os.File
}

func (h *parquetHandle) Close() {
	_ = h.file.Close()
}

func openParquet(path string) (*parquetHandle, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat: %w", err)
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("open parquet: %w", err)
	}
	return &parquetHandle{pf: pf, file: f}, nil
}
