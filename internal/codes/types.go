package codes

import "encoding/json"

// Status is the redeemability of a code.
//
// Only StatusActive and StatusExpired are ever persisted, StatusIndefinite and
// StatusUnknown are produced by the resolver and collapsed before a Code leaves
// this package.
type Status string

const (
	StatusActive     Status = "active"
	StatusExpired    Status = "expired"
	StatusIndefinite Status = "indefinite"
	StatusUnknown    Status = "unknown"
)

type Reward struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}

// Duration holds the free text validity window of a code, a nil field means
// the label was not present in the source cell.
type Duration struct {
	Discovered *string `json:"discovered"`
	Valid      *string `json:"valid"`
	Expired    *string `json:"expired"`
	Notes      *string `json:"notes"`
}

// Code is a single redeemable promotional code.
type Code struct {
	Code     string   `json:"code"`
	Link     *string  `json:"link"`
	Server   string   `json:"server"`
	Status   Status   `json:"status"`
	Rewards  []Reward `json:"rewards"`
	Duration Duration `json:"duration"`
}

// MarshalJSON keeps `rewards` an array even when no reward was extracted.
func (c Code) MarshalJSON() ([]byte, error) {
	type plain Code
	out := plain(c)
	if out.Rewards == nil {
		out.Rewards = []Reward{}
	}
	return json.Marshal(out)
}

// Split partitions codes by status, preserving order.
func Split(all []Code) (active, expired []Code) {
	active = []Code{}
	expired = []Code{}
	for _, c := range all {
		switch c.Status {
		case StatusActive:
			active = append(active, c)
		case StatusExpired:
			expired = append(expired, c)
		}
	}
	return active, expired
}

// Strings returns the code strings in order.
func Strings(list []Code) []string {
	out := make([]string, len(list))
	for i, c := range list {
		out[i] = c.Code
	}
	return out
}

func str(s string) *string {
	return &s
}
