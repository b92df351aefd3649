package timetable

import (
	"cmp"
	"slices"
	"strings"
)

// ColTrainName is the optional column carrying the train's display name.
const ColTrainName = "train_name"

// Derived document keys: station codes are used as-is apart from '%' and '/',
// and pair keys join two escaped codes with '_'.
//
//nolint:gochecknoglobals // Stateless replacers.
var (
	stationEscaper = strings.NewReplacer("%", "%25", "/", "%2F")
	pairEscaper    = strings.NewReplacer("%", "%25", "_", "%5F", "/", "%2F")
)

// Station is one entry of the station directory derived from a timetable.
type Station struct {
	Code string
	Name string
}

// Key returns the document key, the station code.
func (s Station) Key() string {
	return stationEscaper.Replace(s.Code)
}

// Fields returns the station as a document body.
func (s Station) Fields() map[string]any {
	return map[string]any{
		"code": s.Code,
		"name": s.Name,
	}
}

// StationDistance is the track distance between two stations on one
// train's route.
type StationDistance struct {
	FromCode   string
	FromName   string
	ToCode     string
	ToName     string
	DistanceKm float64
	TrainNo    string
	TrainName  string
}

// Key returns "{from}_{to}".
func (d StationDistance) Key() string {
	return pairKey(d.FromCode, d.ToCode)
}

// Fields returns the pair as a document body.
func (d StationDistance) Fields() map[string]any {
	return map[string]any{
		"fromStationCode": d.FromCode,
		"fromStationName": d.FromName,
		"toStationCode":   d.ToCode,
		"toStationName":   d.ToName,
		"distanceKm":      d.DistanceKm,
		"trainNo":         d.TrainNo,
		"trainName":       d.TrainName,
	}
}

func pairKey(from, to string) string {
	return pairEscaper.Replace(from) + "_" + pairEscaper.Replace(to)
}

// Routes groups records by train number, in order of first appearance, and
// sorts every route by sequence. Records with equal sequence keep their input
// order.
func Routes(records []Record) [][]Record {
	index := make(map[string]int)
	var routes [][]Record

	for _, rec := range records {
		i, ok := index[rec.TrainNo]
		if !ok {
			i = len(routes)
			index[rec.TrainNo] = i
			routes = append(routes, nil)
		}
		routes[i] = append(routes[i], rec)
	}

	for _, route := range routes {
		slices.SortStableFunc(route, func(a, b Record) int {
			return cmp.Compare(a.Sequence, b.Sequence)
		})
	}
	return routes
}

// DeriveStations returns one Station per distinct station code, walking the
// routes in order. Rows without a code or name are skipped. A code keeps its
// first position; its name is the last one seen.
func DeriveStations(records []Record) []Station {
	index := make(map[string]int)
	var stations []Station

	for _, route := range Routes(records) {
		for _, rec := range route {
			if rec.StationCode == "" || rec.StationName == "" {
				continue
			}
			if i, ok := index[rec.StationCode]; ok {
				stations[i].Name = rec.StationName
				continue
			}
			index[rec.StationCode] = len(stations)
			stations = append(stations, Station{Code: rec.StationCode, Name: rec.StationName})
		}
	}
	return stations
}

// DeriveDistances returns the distance between every ordered pair of stops
// on every route where the later stop is further from the source. A pair is
// kept once: the first route that yields it wins, and the reverse pair is
// skipped.
func DeriveDistances(records []Record) []StationDistance {
	seen := make(map[string]struct{})
	var out []StationDistance

	for _, route := range Routes(records) {
		trainName := route[0].Extra[ColTrainName]

		for i, from := range route {
			for _, to := range route[i+1:] {
				d := to.DistanceFromSource - from.DistanceFromSource
				if d <= 0 {
					continue
				}

				key := pairKey(from.StationCode, to.StationCode)
				if _, ok := seen[key]; ok {
					continue
				}
				if _, ok := seen[pairKey(to.StationCode, from.StationCode)]; ok {
					continue
				}
				seen[key] = struct{}{}

				out = append(out, StationDistance{
					FromCode:   from.StationCode,
					FromName:   from.StationName,
					ToCode:     to.StationCode,
					ToName:     to.StationName,
					DistanceKm: d,
					TrainNo:    from.TrainNo,
					TrainName:  trainName,
				})
			}
		}
	}
	return out
}
