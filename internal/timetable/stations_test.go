package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stop(train, code, name string, seq int64, dist float64) Record {
	return Record{
		TrainNo:            train,
		StationCode:        code,
		StationName:        name,
		Sequence:           seq,
		DistanceFromSource: dist,
		Extra:              map[string]string{ColTrainName: "EXP " + train},
	}
}

func TestRoutes_GroupsAndSorts(t *testing.T) {
	records := []Record{
		stop("2", "C", "CEE", 2, 50),
		stop("1", "B", "BEE", 2, 10),
		stop("2", "B", "BEE", 1, 0),
		stop("1", "A", "AYE", 1, 0),
	}

	routes := Routes(records)
	require.Len(t, routes, 2)
	assert.Equal(t, "2", routes[0][0].TrainNo)
	assert.Equal(t, []string{"B", "C"}, []string{routes[0][0].StationCode, routes[0][1].StationCode})
	assert.Equal(t, []string{"A", "B"}, []string{routes[1][0].StationCode, routes[1][1].StationCode})

	assert.Equal(t, "C", records[0].StationCode, "input order must not change")
}

func TestDeriveStations(t *testing.T) {
	records := []Record{
		stop("107", "SWV", "SAWANTWADI ROAD", 1, 0),
		stop("107", "THVM", "THIVIM", 2, 32),
		stop("108", "THVM", "THIVIM JN", 1, 0),
		stop("108", "", "NOWHERE", 2, 5),
		stop("108", "KRMI", "", 3, 9),
	}

	assert.Equal(t, []Station{
		{Code: "SWV", Name: "SAWANTWADI ROAD"},
		{Code: "THVM", Name: "THIVIM JN"},
	}, DeriveStations(records))
}

func TestDeriveDistances(t *testing.T) {
	records := []Record{
		stop("107", "MAO", "MADGOAN", 3, 77),
		stop("107", "SWV", "SAWANTWADI", 1, 0),
		stop("107", "THVM", "THIVIM", 2, 32),
		// Reverse direction repeats every pair.
		stop("108", "MAO", "MADGOAN", 1, 0),
		stop("108", "THVM", "THIVIM", 2, 45),
		stop("108", "SWV", "SAWANTWADI", 3, 77),
		// Zero and negative deltas are dropped.
		stop("109", "X", "EX", 1, 10),
		stop("109", "Y", "WHY", 2, 10),
		stop("109", "Z", "ZED", 3, 4),
	}

	got := DeriveDistances(records)
	require.Len(t, got, 3)

	assert.Equal(t, StationDistance{
		FromCode: "SWV", FromName: "SAWANTWADI",
		ToCode: "THVM", ToName: "THIVIM",
		DistanceKm: 32, TrainNo: "107", TrainName: "EXP 107",
	}, got[0])
	assert.Equal(t, "SWV_MAO", got[1].Key())
	assert.InDelta(t, 77.0, got[1].DistanceKm, 0)
	assert.Equal(t, "THVM_MAO", got[2].Key())
	assert.InDelta(t, 45.0, got[2].DistanceKm, 0)
}

func TestDerivedKeys(t *testing.T) {
	assert.Equal(t, "NDLS", Station{Code: "NDLS"}.Key())
	assert.Equal(t, "A%2FB", Station{Code: "A/B"}.Key())

	assert.Equal(t, "A%5FB_C", StationDistance{FromCode: "A_B", ToCode: "C"}.Key())
	assert.NotEqual(t,
		StationDistance{FromCode: "A_B", ToCode: "C"}.Key(),
		StationDistance{FromCode: "A", ToCode: "B_C"}.Key())
}

func TestDerive_Empty(t *testing.T) {
	assert.Empty(t, DeriveStations(nil))
	assert.Empty(t, DeriveDistances(nil))
}
