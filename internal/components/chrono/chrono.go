package chrono

import "time"

// ReportingZone is the zone dates on the wikis are written in and the zone
// notification timestamps are rendered in.
var ReportingZone = time.FixedZone("UTC+8", 8*60*60)

type API interface {
	Now() time.Time
	Location() *time.Location
}

type StandardImpl struct {
	location *time.Location
}

func NewStandardImpl() StandardImpl {
	return StandardImpl{location: ReportingZone}
}

func (s StandardImpl) Now() time.Time {
	return time.Now().In(s.location)
}

func (s StandardImpl) Location() *time.Location {
	return s.location
}

// Fixed is an API that always returns the same instant.
type Fixed struct {
	At time.Time
}

func NewFixed(at time.Time) Fixed {
	return Fixed{At: at.In(ReportingZone)}
}

func (f Fixed) Now() time.Time {
	return f.At
}

func (f Fixed) Location() *time.Location {
	return ReportingZone
}
