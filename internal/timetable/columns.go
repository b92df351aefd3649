package timetable

// Column names with special handling.
const (
	ColTrainNo            = "train_no"
	ColStationCode        = "station_code"
	ColSequence           = "sequence"
	ColStationName        = "station_name"
	ColDistanceFromSource = "distance_from_source"
)

// RequiredColumns must all be present in the header of an input file.
//
//nolint:gochecknoglobals // Read-only lookup table.
var RequiredColumns = []string{
	ColTrainNo,
	ColStationCode,
	ColSequence,
	ColStationName,
	ColDistanceFromSource,
}
