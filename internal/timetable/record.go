package timetable

// Record is one normalized timetable row.
type Record struct {
	TrainNo            string
	StationCode        string
	StationName        string
	Sequence           int64
	DistanceFromSource float64

	// Extra holds every other column verbatim, keyed by header name.
	Extra map[string]string
}

// Key returns the document key for the record.
func (r Record) Key() string {
	return BuildKey(r.TrainNo, r.StationCode, r.Sequence)
}

// Fields returns the record as a document body: every input column, with
// sequence as an integer and distance_from_source as a float.
func (r Record) Fields() map[string]any {
	fields := make(map[string]any, len(r.Extra)+len(RequiredColumns))
	for k, v := range r.Extra {
		fields[k] = v
	}
	fields[ColTrainNo] = r.TrainNo
	fields[ColStationCode] = r.StationCode
	fields[ColStationName] = r.StationName
	fields[ColSequence] = r.Sequence
	fields[ColDistanceFromSource] = r.DistanceFromSource
	return fields
}

// Normalize converts every table row into a Record. It is total: each row
// yields exactly one Record, in input order.
func Normalize(t *Table) []Record {
	records := make([]Record, 0, t.Len())
	for _, row := range t.Rows {
		records = append(records, NormalizeRow(t.Columns, row))
	}
	return records
}

// NormalizeRow converts one row. Cells beyond len(columns) are ignored and
// missing cells read as "".
func NormalizeRow(columns, row []string) Record {
	rec := Record{Extra: make(map[string]string, len(columns))}

	for i, col := range columns {
		var cell string
		if i < len(row) {
			cell = row[i]
		}

		switch col {
		case ColTrainNo:
			rec.TrainNo = cell
		case ColStationCode:
			rec.StationCode = cell
		case ColStationName:
			rec.StationName = StripStationName(cell)
		case ColSequence:
			rec.Sequence = ParseSequence(cell)
		case ColDistanceFromSource:
			rec.DistanceFromSource = ParseDistance(cell)
		default:
			rec.Extra[col] = cell
		}
	}

	return rec
}
