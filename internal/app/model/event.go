package model

// Event names accepted by the ingestion endpoint.
const (
	EventPageView  = "page_view"
	EventLinkClick = "link_click"
)

// Event is one immutable analytics event as stored in Postgres.
// occurred_at, is_bot, geolocation and device fields are always assigned
// server-side; client-supplied values for them are ignored.
type Event struct {
	EventID    string `json:"event_id" gorm:"column:event_id;primaryKey;size:36"`
	EventName  string `json:"event_name" gorm:"column:event_name;size:16;not null;index"`
	OccurredAt int64  `json:"occurred_at" gorm:"column:occurred_at;not null;index"`
	VisitorID  string `json:"visitor_id" gorm:"column:visitor_id;size:36;not null;index"`
	SessionID  string `json:"session_id" gorm:"column:session_id;size:36;not null"`
	PagePath   string `json:"page_path" gorm:"column:page_path;size:500;not null"`

	// Link click fields, absent on page views.
	LinkID         *string `json:"link_id,omitempty" gorm:"column:link_id;size:200"`
	Label          *string `json:"label,omitempty" gorm:"column:label;size:200"`
	DestinationURL *string `json:"destination_url,omitempty" gorm:"column:destination_url;size:1000"`

	Referrer *string `json:"referrer,omitempty" gorm:"column:referrer;size:1000"`

	UTMSource   *string `json:"utm_source,omitempty" gorm:"column:utm_source;size:200"`
	UTMMedium   *string `json:"utm_medium,omitempty" gorm:"column:utm_medium;size:200"`
	UTMCampaign *string `json:"utm_campaign,omitempty" gorm:"column:utm_campaign;size:200"`
	UTMContent  *string `json:"utm_content,omitempty" gorm:"column:utm_content;size:200"`
	UTMTerm     *string `json:"utm_term,omitempty" gorm:"column:utm_term;size:200"`

	UserAgent string `json:"user_agent" gorm:"column:user_agent;size:500"`
	IsBot     bool   `json:"is_bot" gorm:"column:is_bot;not null;index"`

	// Geolocation derived from the edge proxy, never from the payload.
	Country   *string  `json:"country,omitempty" gorm:"column:country;size:8"`
	Region    *string  `json:"region,omitempty" gorm:"column:region;size:200"`
	City      *string  `json:"city,omitempty" gorm:"column:city;size:200"`
	Timezone  *string  `json:"timezone,omitempty" gorm:"column:timezone;size:64"`
	Latitude  *float64 `json:"latitude,omitempty" gorm:"column:latitude"`
	Longitude *float64 `json:"longitude,omitempty" gorm:"column:longitude"`

	// Categorical labels derived from the user agent.
	Device  string `json:"device" gorm:"column:device;size:32;not null"`
	OS      string `json:"os" gorm:"column:os;size:32;not null"`
	Browser string `json:"browser" gorm:"column:browser;size:32;not null"`
}

// TableName keeps the table aligned with the dashboard queries.
func (Event) TableName() string { return "events" }

const (
	EventStreamName     = "EVENTS"
	EventStreamSubject  = "events.ingested"
	EventConsumerName   = "event-telemetry"
	EventStreamMaxBytes = 1024 * 1024 * 100 // 100MB
)
