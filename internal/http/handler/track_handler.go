package handler

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/PulseTrack/internal/app/service"
	"go.uber.org/zap"
)

// TrackDeps groups dependencies required by the ingestion handlers.
type TrackDeps struct {
	Logger  *zap.Logger
	Tracker service.TrackService
}

// TrackHandler implements the public beacon endpoints.
type TrackHandler struct {
	logger  *zap.Logger
	tracker service.TrackService
}

// NewTrackHandler creates a track handler with the provided dependencies.
func NewTrackHandler(deps TrackDeps) *TrackHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrackHandler{
		logger:  logger,
		tracker: deps.Tracker,
	}
}

// Health is the liveness endpoint.
func (h *TrackHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"ok": true})
}

// Track handles POST /track: one beacon event in, validated, enriched and
// stored. Duplicate deliveries answer success with a deduped marker.
func (h *TrackHandler) Track(c *fiber.Ctx) error {
	var payload service.TrackPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid_json",
		})
	}

	meta := service.RequestMeta{
		UserAgent: c.Get(fiber.HeaderUserAgent),
		Geo:       geoFromHeaders(c),
	}

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := h.tracker.Ingest(ctx, payload, meta)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			body := fiber.Map{"error": verr.Kind}
			if verr.Field != "" {
				body["field"] = verr.Field
			}
			return c.Status(fiber.StatusBadRequest).JSON(body)
		}

		h.logger.Error("failed to ingest event", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":  "db_error",
			"detail": err.Error(),
		})
	}

	if result.Deduped {
		return c.JSON(fiber.Map{"ok": true, "deduped": true})
	}
	return c.JSON(fiber.Map{"ok": true})
}

// geoFromHeaders reads the edge proxy's geolocation headers. Geolocation is
// never accepted from the request body.
func geoFromHeaders(c *fiber.Ctx) service.Geolocation {
	return service.Geolocation{
		Country:   headerValue(c, "CF-IPCountry"),
		Region:    headerValue(c, "CF-Region"),
		City:      headerValue(c, "CF-IPCity"),
		Timezone:  headerValue(c, "CF-Timezone"),
		Latitude:  headerFloat(c, "CF-IPLatitude"),
		Longitude: headerFloat(c, "CF-IPLongitude"),
	}
}

func headerValue(c *fiber.Ctx, name string) *string {
	v := c.Get(name)
	if v == "" {
		return nil
	}
	return &v
}

func headerFloat(c *fiber.Ctx, name string) *float64 {
	v := c.Get(name)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &f
}
