package features

import (
	"sort"
	"time"

	"github.com/OldStager01/dpf-rul/pkg/models"
)

// SensorIndex groups telemetry by VIN in time order so that window queries
// are a pair of binary searches.
type SensorIndex struct {
	byVIN      map[string][]models.SensorReading
	duplicates int
}

// NewSensorIndex builds an index from readings in any order. When several
// records share a VIN and timestamp only the first one seen is kept.
func NewSensorIndex(readings []models.SensorReading) *SensorIndex {
	idx := &SensorIndex{byVIN: make(map[string][]models.SensorReading)}

	for _, r := range readings {
		if r.VIN == "" {
			continue
		}
		idx.byVIN[r.VIN] = append(idx.byVIN[r.VIN], r)
	}

	for vin, rs := range idx.byVIN {
		sort.SliceStable(rs, func(i, j int) bool { return rs[i].Time.Before(rs[j].Time) })

		deduped := rs[:0]
		for i, r := range rs {
			if i > 0 && r.Time.Equal(deduped[len(deduped)-1].Time) {
				idx.duplicates++
				continue
			}
			deduped = append(deduped, r)
		}
		idx.byVIN[vin] = deduped
	}

	return idx
}

// Window returns the readings of a VIN with from <= t < to.
func (idx *SensorIndex) Window(vin string, from, to time.Time) []models.SensorReading {
	rs := idx.byVIN[vin]
	start := sort.Search(len(rs), func(i int) bool { return !rs[i].Time.Before(from) })
	end := sort.Search(len(rs), func(i int) bool { return !rs[i].Time.Before(to) })
	if start >= end {
		return nil
	}
	return rs[start:end]
}

// VINs returns the indexed VINs in sorted order.
func (idx *SensorIndex) VINs() []string {
	vins := make([]string, 0, len(idx.byVIN))
	for vin := range idx.byVIN {
		vins = append(vins, vin)
	}
	sort.Strings(vins)
	return vins
}

// Latest returns the timestamp of the newest reading for a VIN.
func (idx *SensorIndex) Latest(vin string) (time.Time, bool) {
	rs := idx.byVIN[vin]
	if len(rs) == 0 {
		return time.Time{}, false
	}
	return rs[len(rs)-1].Time, true
}

func (idx *SensorIndex) Len(vin string) int {
	return len(idx.byVIN[vin])
}

// Duplicates is the number of records dropped as (vin, time) duplicates.
func (idx *SensorIndex) Duplicates() int {
	return idx.duplicates
}
