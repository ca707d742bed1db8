package record

import (
	"path"
	"time"
)

// FileKey identifies one day's crossover output.
type FileKey struct {
	Version string
	Sat1    string
	Sat2    string
	Day     time.Time
}

// Sources joins the satellite names, a single name for self-crossovers.
func (k FileKey) Sources() string {
	if k.Sat1 == k.Sat2 || k.Sat2 == "" {
		return k.Sat1
	}
	return k.Sat1 + "_" + k.Sat2
}

// Name returns the output file name without extension: xovers_<sources>-<YYYY-MM-DD>.
func (k FileKey) Name() string {
	return "xovers_" + k.Sources() + "-" + k.Day.Format(time.DateOnly)
}

// Dir returns the relative directory of the file: <version>/<sources>/<YYYY>.
func (k FileKey) Dir() string {
	return path.Join(k.Version, k.Sources(), k.Day.Format("2006"))
}
