package protocol

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MinFields is the number of comma-separated fields a data record needs
// before it can be decoded.
const MinFields = 6

// Field positions inside a "#d" record.
const (
	fieldPower   = 3 // tenths of a watt
	fieldVoltage = 4 // tenths of a volt
	fieldCurrent = 5 // milliamps
)

// Record is a data line split into its fields.
type Record struct {
	Line   RawLine
	Fields []string
}

// Sample is one decoded meter reading. Index is the virtual elapsed time in
// seconds since the session started.
type Sample struct {
	Timestamp time.Time
	Index     int
	Power     float64 // W
	Voltage   float64 // V
	Current   float64 // A
}

// SplitRecord decomposes a data line into fields. The record terminator
// ';' and line endings are dropped.
func SplitRecord(line RawLine) Record {
	text := strings.TrimSuffix(strings.TrimSpace(line.Text()), ";")
	return Record{Line: line, Fields: strings.Split(text, ",")}
}

// Decode converts a record into a Sample stamped with ts and index. Short
// records and non-numeric measurement fields yield ErrRecordRejected.
func Decode(rec Record, ts time.Time, index int) (Sample, error) {
	if len(rec.Fields) < MinFields {
		return Sample{}, fmt.Errorf("%w: %d fields, need %d", ErrRecordRejected, len(rec.Fields), MinFields)
	}

	w, err := parseField(rec.Fields, fieldPower)
	if err != nil {
		return Sample{}, err
	}
	v, err := parseField(rec.Fields, fieldVoltage)
	if err != nil {
		return Sample{}, err
	}
	a, err := parseField(rec.Fields, fieldCurrent)
	if err != nil {
		return Sample{}, err
	}

	return Sample{
		Timestamp: ts,
		Index:     index,
		Power:     w / 10,
		Voltage:   v / 10,
		Current:   a / 1000,
	}, nil
}

// parseField reads a measurement field. The meter sends plain decimal
// integers; anything else (NaN, Inf, hex or fractional values) is rejected.
func parseField(fields []string, i int) (float64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(fields[i]), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: field %d %q: %v", ErrRecordRejected, i, fields[i], err)
	}
	return float64(n), nil
}
