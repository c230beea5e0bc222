package constituent

import (
	_ "embed"
	"encoding/json"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"
	"time"
)

// Catalog of the FES2014 ocean tide constituents. Speeds are in degrees per
// mean solar hour.

type Species string

const (
	LongPeriod   Species = "long-period"
	Diurnal      Species = "diurnal"
	Semidiurnal  Species = "semidiurnal"
	Terdiurnal   Species = "terdiurnal"
	ShallowWater Species = "shallow-water"
)

const fileExt = ".nc"

type Metadata struct {
	code        string
	name        string
	description string
	species     Species
	speed       float64
}

func (m Metadata) Code() string {
	return m.code
}

func (m Metadata) Name() string {
	return m.name
}

func (m Metadata) Description() string {
	return m.description
}

func (m Metadata) Species() Species {
	return m.species
}

// Speed in degrees per hour.
func (m Metadata) Speed() float64 {
	return m.speed
}

// Period is the time the constituent takes to complete one cycle.
func (m Metadata) Period() time.Duration {
	if m.speed == 0 {
		return 0
	}
	hours := 360 / m.speed
	return time.Duration(math.Round(hours * float64(time.Hour)))
}

// FileName of the constituent grid inside the FES2014 ocean_tide directory.
func (m Metadata) FileName() string {
	return m.code + fileExt
}

//go:embed constituents.json
var catalogJson []byte

var (
	loadOnce         sync.Once
	codeToMetadata   map[string]*Metadata
	sortedByCodeList []*Metadata
)

// GetMetadata returns the constituent with requested code.
// Returns nil if not found
func GetMetadata(code string) *Metadata {
	loadCatalog()
	return codeToMetadata[strings.ToLower(strings.TrimSpace(code))]
}

// GetMetadataByFileName resolves "m2.nc" (or "M2.NC") to its constituent.
func GetMetadataByFileName(fileName string) *Metadata {
	lower := strings.ToLower(fileName)
	if !strings.HasSuffix(lower, fileExt) {
		return nil
	}
	return GetMetadata(strings.TrimSuffix(lower, fileExt))
}

// All returns every constituent sorted by code.
func All() []*Metadata {
	loadCatalog()
	r := make([]*Metadata, len(sortedByCodeList))
	copy(r, sortedByCodeList)
	return r
}

type constituentJson struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Species     string  `json:"species"`
	Speed       float64 `json:"speed"`
}

func loadCatalog() {
	loadOnce.Do(func() {
		codeToMetadata = map[string]*Metadata{}

		var m map[string]constituentJson
		if err := json.Unmarshal(catalogJson, &m); err != nil {
			slog.Error(
				"failed to unmarshal constituent catalog",
				slog.Any("error", err),
			)
			return
		}

		for code, c := range m {
			metadata := jsonToMetadata(code, c)
			codeToMetadata[metadata.Code()] = metadata
			sortedByCodeList = append(sortedByCodeList, metadata)
		}
		sort.Slice(sortedByCodeList, func(i, j int) bool {
			return sortedByCodeList[i].code < sortedByCodeList[j].code
		})
	})
}

func jsonToMetadata(code string, c constituentJson) *Metadata {
	return &Metadata{
		code:        strings.ToLower(code),
		name:        c.Name,
		description: c.Description,
		species:     Species(c.Species),
		speed:       c.Speed,
	}
}
