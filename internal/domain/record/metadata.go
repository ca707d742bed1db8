package record

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/kailas-cloud/xover/internal/domain"
)

// Metadata key names stored alongside a day's records.
const (
	KeyTitle                       = "title"
	KeySubtitle                    = "subtitle"
	KeyWindowLength                = "window_length"
	KeyCreatedOn                   = "created_on"
	KeyInputFilenames              = "input_filenames"
	KeyInputHistories              = "input_histories"
	KeyInputProductGenerationSteps = "input_product_generation_steps"
	KeySatelliteNames              = "satellite_names"
	KeyTimeUnits                   = "time_units"
)

const createdOnLayout = "2006-01-02T15:04:05"

// Inputs describes the files a window was read from.
type Inputs struct {
	Filenames              []string
	Histories              []string
	ProductGenerationSteps []string
}

// Merge appends the other inputs, skipping values already present.
func (in Inputs) Merge(other Inputs) Inputs {
	return Inputs{
		Filenames:              appendUnique(in.Filenames, other.Filenames),
		Histories:              appendUnique(in.Histories, other.Histories),
		ProductGenerationSteps: appendUnique(in.ProductGenerationSteps, other.ProductGenerationSteps),
	}
}

func appendUnique(dst, src []string) []string {
	out := append([]string(nil), dst...)
	for _, s := range src {
		if !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}

// Metadata is the descriptive header of a day's crossover file.
type Metadata struct {
	Title                       string
	Subtitle                    string
	WindowLength                string
	CreatedOn                   time.Time
	InputFilenames              string
	InputHistories              string
	InputProductGenerationSteps string
	SatelliteNames              string
	TimeUnits                   string
}

// NewMetadata describes a day's crossovers between sat1 and sat2 searched over windowDays days.
func NewMetadata(opts domain.Options, sat1, sat2 string, windowDays int, in Inputs, now time.Time) Metadata {
	title := sat1 + " self-crossovers"
	names := sat1
	if sat1 != sat2 {
		title = fmt.Sprintf("%s crossovers with %s", sat1, sat2)
		names = sat1 + ", " + sat2
	}
	return Metadata{
		Title:    title,
		Subtitle: fmt.Sprintf("within %d days", opts.WindowSizeDays),
		WindowLength: fmt.Sprintf("%d days (nominal: %d days + %d days padding)",
			windowDays, opts.WindowSizeDays, opts.WindowPaddingDays),
		CreatedOn:                   now.UTC().Truncate(time.Second),
		InputFilenames:              strings.Join(in.Filenames, ", "),
		InputHistories:              strings.Join(in.Histories, ", "),
		InputProductGenerationSteps: strings.Join(in.ProductGenerationSteps, ", "),
		SatelliteNames:              names,
		TimeUnits:                   "nanoseconds since " + opts.Epoch.UTC().Format(time.DateTime),
	}
}

// KeyValues flattens the metadata for file headers.
func (m Metadata) KeyValues() map[string]string {
	return map[string]string{
		KeyTitle:                       m.Title,
		KeySubtitle:                    m.Subtitle,
		KeyWindowLength:                m.WindowLength,
		KeyCreatedOn:                   m.CreatedOn.UTC().Format(createdOnLayout),
		KeyInputFilenames:              m.InputFilenames,
		KeyInputHistories:              m.InputHistories,
		KeyInputProductGenerationSteps: m.InputProductGenerationSteps,
		KeySatelliteNames:              m.SatelliteNames,
		KeyTimeUnits:                   m.TimeUnits,
	}
}

// MetadataFromKeyValues rebuilds metadata read from a file header. Missing keys stay empty.
func MetadataFromKeyValues(kv map[string]string) (Metadata, error) {
	m := Metadata{
		Title:                       kv[KeyTitle],
		Subtitle:                    kv[KeySubtitle],
		WindowLength:                kv[KeyWindowLength],
		InputFilenames:              kv[KeyInputFilenames],
		InputHistories:              kv[KeyInputHistories],
		InputProductGenerationSteps: kv[KeyInputProductGenerationSteps],
		SatelliteNames:              kv[KeySatelliteNames],
		TimeUnits:                   kv[KeyTimeUnits],
	}
	if s := kv[KeyCreatedOn]; s != "" {
		t, err := time.Parse(createdOnLayout, s)
		if err != nil {
			return Metadata{}, fmt.Errorf("parse %s %q: %w", KeyCreatedOn, s, err)
		}
		m.CreatedOn = t
	}
	return m, nil
}
