package codes

import (
	"encoding/json"
	"testing"
	"time"

	"hoyocodes/internal/components/telemetry"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestCleanCode(t *testing.T) {
	cases := []struct {
		input  string
		expect string
	}{
		{"ab-12_CD!", "AB12CD"},
		{"  GENSHINGIFT", "GENSHINGIFT"},
		{"漢字", ""},
		{"---", ""},
	}
	for _, test := range cases {
		require.Equal(t, test.expect, CleanCode(test.input), test.input)
	}
}

func TestNormalizeImageURL(t *testing.T) {
	cases := []struct {
		input  string
		expect string
	}{
		{
			"https://static.wikia.nocookie.net/gensin-impact/images/d/d4/Item_Primogem.png/revision/latest/scale-to-width-down/25?cb=20201117071158",
			"https://static.wikia.nocookie.net/gensin-impact/images/d/d4/Item_Primogem.png/revision/latest",
		},
		{"https://example.com/a/Item.JPEG?x=1", "https://example.com/a/Item.JPEG/revision/latest"},
		{"https://example.com/a/item.webp?x=1", "https://example.com/a/item.webp/revision/latest"},
		{"https://example.com/a/item?x=1", "https://example.com/a/item/revision/latest"},
		{"", ""},
	}
	for _, test := range cases {
		require.Equal(t, test.expect, NormalizeImageURL(test.input), test.input)
	}
}

func TestPickLink(t *testing.T) {
	cases := []struct {
		name   string
		cell   Cell
		expect *string
	}{
		{name: "no links", cell: Cell{}, expect: nil},
		{name: "first link", cell: Cell{Links: []string{"https://a", "https://b"}}, expect: str("https://a")},
		{name: "fragment dropped", cell: Cell{Links: []string{"#cite_note-1"}}, expect: nil},
		{
			name:   "footnote skips citation",
			cell:   Cell{Footnote: true, Links: []string{"https://source", "https://redeem"}},
			expect: str("https://redeem"),
		},
		{
			name:   "footnote with in-page reference",
			cell:   Cell{Footnote: true, Links: []string{"https://redeem", "#cite_note-1"}},
			expect: str("https://redeem"),
		},
		{
			name:   "footnote with single link",
			cell:   Cell{Footnote: true, Links: []string{"https://redeem"}},
			expect: str("https://redeem"),
		},
	}
	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.expect, pickLink(test.cell))
		})
	}
}

func TestNormalizeRow(t *testing.T) {
	now := time.Date(2024, time.June, 15, 0, 0, 0, 0, utc8)
	normalizer := NewNormalizer(telemetry.NewRecorder())

	row := Row{Cells: []Cell{
		{Text: "CODE1 CODE2", Tokens: []string{"CODE1", "CODE2"}},
		{Text: "NA/EU"},
		{Text: "Primogem x60", Rewards: []RawReward{{
			Name:     "Primogem x60",
			ImageSrc: "https://static.wikia.nocookie.net/gensin-impact/images/d/d4/Item_Primogem.png/revision/latest/scale-to-width-down/25?cb=1",
		}}},
		{Text: "Discovered: June 1, 2024 Valid until: July 1, 2099"},
	}}

	rewards := []Reward{{
		Name:  "Primogem x60",
		Image: "https://static.wikia.nocookie.net/gensin-impact/images/d/d4/Item_Primogem.png/revision/latest",
	}}
	duration := Duration{
		Discovered: str("June 1, 2024"),
		Valid:      str("July 1, 2099"),
	}
	expect := []Code{
		{Code: "CODE1", Server: "NA/EU", Status: StatusActive, Rewards: rewards, Duration: duration},
		{Code: "CODE2", Server: "NA/EU", Status: StatusActive, Rewards: rewards, Duration: duration},
	}

	got := normalizer.NormalizeRow(row, "", now)
	if diff := cmp.Diff(expect, got); diff != "" {
		t.Fatalf("unexpected codes (-want +got):\n%s", diff)
	}

	labelled := normalizer.NormalizeRow(row, StatusExpired, now)
	require.Len(t, labelled, 2)
	for _, c := range labelled {
		require.Equal(t, StatusExpired, c.Status)
	}
}

func TestNormalizeRowSkips(t *testing.T) {
	now := time.Date(2024, time.June, 15, 0, 0, 0, 0, utc8)
	normalizer := NewNormalizer(telemetry.NewRecorder())

	noTokens := Row{Cells: []Cell{{Text: "coming soon"}, {}, {}, {}}}
	require.Empty(t, normalizer.NormalizeRow(noTokens, "", now))

	short := Row{Cells: []Cell{{Tokens: []string{"CODE1"}}, {}}}
	require.Empty(t, normalizer.NormalizeRow(short, "", now))
}

func TestNormalizeRowCollapsesStatus(t *testing.T) {
	now := time.Date(2024, time.June, 15, 0, 0, 0, 0, utc8)
	normalizer := NewNormalizer(telemetry.NewRecorder())

	row := func(duration string) Row {
		return Row{Cells: []Cell{{Tokens: []string{"X"}}, {}, {}, {Text: duration}}}
	}

	cases := []struct {
		duration string
		expect   Status
	}{
		{"Valid: (indefinite)", StatusActive},
		{"Valid: when the event ends", StatusActive},
		{"Discovered: Jan 1, 2020 Expired: Jan 1, 2021", StatusExpired},
		{"Discovered: Jan 1, 2020", StatusActive},
		{"Valid: May 1, 2024", StatusExpired},
		{"Discovered: Jan 1, 2024Valid until: May 1, 2024", StatusExpired},
	}
	for _, test := range cases {
		got := normalizer.NormalizeRow(row(test.duration), "", now)
		require.Len(t, got, 1)
		require.Equal(t, test.expect, got[0].Status, test.duration)
	}
}

func TestNormalizeExchangeRow(t *testing.T) {
	normalizer := NewNormalizer(telemetry.NewRecorder())

	row := Row{Cells: []Cell{
		{Text: "HI3GIFT a", Bold: []string{"hi3gift"}},
		{Text: "2024-05-01"},
		{Text: ""},
		{Text: "Crystal x100, Asterite x50 & Mithril"},
		{Text: "No"},
	}}
	got := normalizer.NormalizeExchangeRow(row)
	expect := []Code{{
		Code:   "HI3GIFT",
		Server: ExchangeServer,
		Status: StatusActive,
		Rewards: []Reward{
			{Name: "Crystal x100"},
			{Name: "Asterite x50"},
			{Name: "Mithril"},
		},
		Duration: Duration{Discovered: str("2024-05-01")},
	}}
	if diff := cmp.Diff(expect, got); diff != "" {
		t.Fatalf("unexpected codes (-want +got):\n%s", diff)
	}

	row.Cells[4].Text = "Yes"
	expired := normalizer.NormalizeExchangeRow(row)
	require.Len(t, expired, 1)
	require.Equal(t, StatusExpired, expired[0].Status)

	require.Empty(t, normalizer.NormalizeExchangeRow(Row{Cells: []Cell{{Text: "X"}}}))
}

func TestCodeJSON(t *testing.T) {
	c := Code{Code: "ABC", Server: "All", Status: StatusActive}
	out, err := json.Marshal(c)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"code": "ABC",
		"link": null,
		"server": "All",
		"status": "active",
		"rewards": [],
		"duration": {"discovered": null, "valid": null, "expired": null, "notes": null}
	}`, string(out))
}

func TestSplit(t *testing.T) {
	all := []Code{
		{Code: "A", Status: StatusActive},
		{Code: "B", Status: StatusExpired},
		{Code: "C", Status: StatusActive},
	}
	active, expired := Split(all)
	require.Equal(t, []string{"A", "C"}, Strings(active))
	require.Equal(t, []string{"B"}, Strings(expired))

	active, expired = Split(nil)
	require.NotNil(t, active)
	require.NotNil(t, expired)
}
