package collector

import "wattsup-logger/internal/protocol"

// Series is the in-memory history of a session, used for live charts.
type Series struct {
	Index   []int
	Power   []float64
	Voltage []float64
	Current []float64
}

// Add appends s.
func (r *Series) Add(s protocol.Sample) {
	r.Index = append(r.Index, s.Index)
	r.Power = append(r.Power, s.Power)
	r.Voltage = append(r.Voltage, s.Voltage)
	r.Current = append(r.Current, s.Current)
}

// Len returns the number of samples held.
func (r *Series) Len() int {
	return len(r.Index)
}
