// Package timetable reads railway timetable CSV files and turns their rows
// into typed records.
//
// A file is first loaded as a Table of string cells, exactly as it appears on
// disk apart from padding short rows. Normalize then converts each row into a
// Record: sequence and distance_from_source are coerced to numbers (zero when
// unparsable) and trailing commas are stripped from station_name. Columns the
// package does not know about are carried through untouched.
package timetable
