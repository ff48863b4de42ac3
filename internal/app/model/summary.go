package model

// Totals is the headline section of the dashboard summary. CTR is computed in
// the service layer so division by zero never leaves the process.
type Totals struct {
	Pageviews int64   `json:"pageviews"`
	Clicks    int64   `json:"clicks"`
	Uniques   int64   `json:"uniques"`
	CTR       float64 `json:"ctr"`
}

// LinkStat is one (link_id, label) group with click and unique-visitor counts.
type LinkStat struct {
	LinkID  string  `json:"link_id"`
	Label   *string `json:"label"`
	Clicks  int64   `json:"clicks"`
	Uniques int64   `json:"uniques"`
}

// ReferrerStat is one non-empty referrer with its pageview count.
type ReferrerStat struct {
	Referrer  string `json:"referrer"`
	Pageviews int64  `json:"pageviews"`
}

// CountryStat aggregates traffic per country.
type CountryStat struct {
	Country   string `json:"country"`
	Pageviews int64  `json:"pageviews"`
	Clicks    int64  `json:"clicks"`
	Uniques   int64  `json:"uniques"`
}

// LocationStat aggregates traffic per coordinate pair for the map view.
type LocationStat struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	City      *string `json:"city"`
	Country   *string `json:"country"`
	Pageviews int64   `json:"pageviews"`
	Uniques   int64   `json:"uniques"`
}

// BreakdownStat is a generic categorical group (device, OS or browser).
type BreakdownStat struct {
	Name      string `json:"name"`
	Pageviews int64  `json:"pageviews"`
	Uniques   int64  `json:"uniques"`
}

// TimeseriesPoint is one UTC calendar day of the trend chart.
type TimeseriesPoint struct {
	Day       string `json:"day"`
	Pageviews int64  `json:"pageviews"`
	Clicks    int64  `json:"clicks"`
}

// PeakHourStat is one non-empty cell of the hour-of-day x weekday heatmap.
type PeakHourStat struct {
	Hour      int   `json:"hour"`
	DayOfWeek int   `json:"day_of_week"`
	Pageviews int64 `json:"pageviews"`
	Clicks    int64 `json:"clicks"`
}

// UTMStat aggregates traffic per campaign attribution triple.
type UTMStat struct {
	UTMSource   *string `json:"utm_source"`
	UTMMedium   *string `json:"utm_medium"`
	UTMCampaign *string `json:"utm_campaign"`
	Pageviews   int64   `json:"pageviews"`
	Clicks      int64   `json:"clicks"`
	Uniques     int64   `json:"uniques"`
}

// ActivityEntry is one row of the live feed.
type ActivityEntry struct {
	EventName  string  `json:"event_name"`
	OccurredAt int64   `json:"occurred_at"`
	PagePath   string  `json:"page_path"`
	LinkID     *string `json:"link_id"`
	Label      *string `json:"label"`
	Country    *string `json:"country"`
	City       *string `json:"city"`
	Device     string  `json:"device"`
	Browser    string  `json:"browser"`
	Referrer   *string `json:"referrer"`
}

// Summary is the full aggregation payload returned by the dashboard endpoint.
type Summary struct {
	Totals           Totals            `json:"totals"`
	TopLinks         []LinkStat        `json:"top_links"`
	TopReferrers     []ReferrerStat    `json:"top_referrers"`
	TopCountries     []CountryStat     `json:"top_countries"`
	Locations        []LocationStat    `json:"locations"`
	Devices          []BreakdownStat   `json:"devices"`
	OperatingSystems []BreakdownStat   `json:"operating_systems"`
	Browsers         []BreakdownStat   `json:"browsers"`
	Timeseries       []TimeseriesPoint `json:"timeseries"`
	PeakHours        []PeakHourStat    `json:"peak_hours"`
	UTMCampaigns     []UTMStat         `json:"utm_campaigns"`
	RecentActivity   []ActivityEntry   `json:"recent_activity"`
}
