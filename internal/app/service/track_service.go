package service

import (
	"context"
	"fmt"
	"net/url"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sifan077/PulseTrack/internal/app/model"
	"github.com/sifan077/PulseTrack/internal/app/repository"
	infraprom "github.com/sifan077/PulseTrack/internal/infra/prometheus"
	"go.uber.org/zap"
)

// Field length caps applied before storage. Oversized values are truncated,
// never rejected.
const (
	maxIdentifierLen = 200
	maxPathLen       = 500
	maxURLLen        = 1000
)

// ValidationError describes a rejected payload. Kind matches the wire-level
// error taxonomy (invalid_event, missing_field, invalid_id_format).
type ValidationError struct {
	Kind  string
	Field string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Field)
	}
	return e.Kind
}

// TrackPayload is the client-supplied portion of an event. Fields the server
// derives itself (timestamps, bot flag, geo, device labels) are not accepted
// from the client.
type TrackPayload struct {
	EventID        string `json:"event_id"`
	EventName      string `json:"event_name"`
	VisitorID      string `json:"visitor_id"`
	SessionID      string `json:"session_id"`
	PagePath       string `json:"page_path"`
	LinkID         string `json:"link_id"`
	Label          string `json:"label"`
	DestinationURL string `json:"destination_url"`
	Referrer       string `json:"referrer"`
	UTMSource      string `json:"utm_source"`
	UTMMedium      string `json:"utm_medium"`
	UTMCampaign    string `json:"utm_campaign"`
	UTMContent     string `json:"utm_content"`
	UTMTerm        string `json:"utm_term"`
}

// Geolocation carries the edge proxy's view of where the request came from.
type Geolocation struct {
	Country   *string
	Region    *string
	City      *string
	Timezone  *string
	Latitude  *float64
	Longitude *float64
}

// RequestMeta is the server-trusted request context used for enrichment.
type RequestMeta struct {
	UserAgent string
	Geo       Geolocation
}

// IngestResult reports the outcome of a successful ingestion.
type IngestResult struct {
	Deduped bool
}

// TrackService validates, sanitizes, enriches and persists inbound events.
type TrackService interface {
	Ingest(ctx context.Context, payload TrackPayload, meta RequestMeta) (IngestResult, error)
}

type trackService struct {
	repo      repository.EventRepository
	publisher *EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewTrackService returns the ingestion service. The publisher may be nil
// when no JetStream fan-out is configured.
func NewTrackService(repo repository.EventRepository, publisher *EventPublisher, logger *zap.Logger) TrackService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &trackService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *trackService) Ingest(ctx context.Context, payload TrackPayload, meta RequestMeta) (IngestResult, error) {
	if err := validatePayload(payload); err != nil {
		return IngestResult{}, err
	}

	event := buildEvent(payload, meta, s.now().UnixMilli())
	if event.IsBot {
		infraprom.BotEvents.Inc()
	}

	deduped, err := s.repo.Insert(ctx, event)
	if err != nil {
		return IngestResult{}, fmt.Errorf("insert event: %w", err)
	}

	if deduped {
		infraprom.EventsDeduped.Inc()
		return IngestResult{Deduped: true}, nil
	}

	infraprom.EventsIngested.WithLabelValues(event.EventName).Inc()

	if s.publisher != nil {
		go func(ev model.Event) {
			if err := s.publisher.Publish(&ev); err != nil {
				s.logger.Error("failed to publish event",
					zap.Error(err), zap.String("event_id", ev.EventID))
			}
		}(*event)
	}

	return IngestResult{}, nil
}

func validatePayload(p TrackPayload) error {
	if p.EventName != model.EventPageView && p.EventName != model.EventLinkClick {
		return &ValidationError{Kind: "invalid_event"}
	}

	required := []struct {
		name  string
		value string
	}{
		{"event_id", p.EventID},
		{"visitor_id", p.VisitorID},
		{"session_id", p.SessionID},
		{"page_path", p.PagePath},
	}
	for _, f := range required {
		if f.value == "" {
			return &ValidationError{Kind: "missing_field", Field: f.name}
		}
	}

	for _, f := range required[:3] {
		if !isCanonicalUUID(f.value) {
			return &ValidationError{Kind: "invalid_id_format", Field: f.name}
		}
	}

	return nil
}

// isCanonicalUUID accepts only the 8-4-4-4-12 textual form; uuid.Parse alone
// would also admit braced, URN and 32-hex variants.
func isCanonicalUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

func buildEvent(p TrackPayload, meta RequestMeta, occurredAt int64) *model.Event {
	ua := truncate(meta.UserAgent, maxPathLen)
	info := ClassifyUserAgent(meta.UserAgent)

	return &model.Event{
		EventID:        p.EventID,
		EventName:      p.EventName,
		OccurredAt:     occurredAt,
		VisitorID:      p.VisitorID,
		SessionID:      p.SessionID,
		PagePath:       truncate(p.PagePath, maxPathLen),
		LinkID:         optional(p.LinkID, maxIdentifierLen),
		Label:          optional(p.Label, maxIdentifierLen),
		DestinationURL: optional(p.DestinationURL, maxURLLen),
		Referrer:       sanitizeReferrer(p.Referrer),
		UTMSource:      optional(p.UTMSource, maxIdentifierLen),
		UTMMedium:      optional(p.UTMMedium, maxIdentifierLen),
		UTMCampaign:    optional(p.UTMCampaign, maxIdentifierLen),
		UTMContent:     optional(p.UTMContent, maxIdentifierLen),
		UTMTerm:        optional(p.UTMTerm, maxIdentifierLen),
		UserAgent:      ua,
		IsBot:          IsBot(meta.UserAgent),
		Country:        meta.Geo.Country,
		Region:         meta.Geo.Region,
		City:           meta.Geo.City,
		Timezone:       meta.Geo.Timezone,
		Latitude:       meta.Geo.Latitude,
		Longitude:      meta.Geo.Longitude,
		Device:         info.Device,
		OS:             info.OS,
		Browser:        info.Browser,
	}
}

// sanitizeReferrer clears any username/password embedded in a parseable
// referrer URL so credentials never reach storage, then applies the URL cap.
func sanitizeReferrer(raw string) *string {
	if raw == "" {
		return nil
	}
	if u, err := url.Parse(raw); err == nil && u.User != nil {
		u.User = nil
		raw = u.String()
	}
	out := truncate(raw, maxURLLen)
	return &out
}

func optional(s string, limit int) *string {
	if s == "" {
		return nil
	}
	out := truncate(s, limit)
	return &out
}

// truncate caps s at limit bytes without splitting a rune: the store rejects
// invalid UTF-8, and an oversized value must be absorbed, not errored.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
