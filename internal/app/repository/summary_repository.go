package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sifan077/PulseTrack/internal/app/model"
)

// SummaryRepository defines the read-only aggregation queries behind the
// dashboard. Every query is filtered to occurred_at BETWEEN startMs AND endMs
// (inclusive, epoch milliseconds) and counts only non-bot traffic.
type SummaryRepository interface {
	Totals(ctx context.Context, startMs, endMs int64) (model.Totals, error)
	TopLinks(ctx context.Context, startMs, endMs int64, limit int) ([]model.LinkStat, error)
	TopReferrers(ctx context.Context, startMs, endMs int64) ([]model.ReferrerStat, error)
	TopCountries(ctx context.Context, startMs, endMs int64) ([]model.CountryStat, error)
	Locations(ctx context.Context, startMs, endMs int64) ([]model.LocationStat, error)
	Devices(ctx context.Context, startMs, endMs int64) ([]model.BreakdownStat, error)
	OperatingSystems(ctx context.Context, startMs, endMs int64) ([]model.BreakdownStat, error)
	Browsers(ctx context.Context, startMs, endMs int64) ([]model.BreakdownStat, error)
	Timeseries(ctx context.Context, startMs, endMs int64) ([]model.TimeseriesPoint, error)
	PeakHours(ctx context.Context, startMs, endMs int64) ([]model.PeakHourStat, error)
	UTMCampaigns(ctx context.Context, startMs, endMs int64) ([]model.UTMStat, error)
	RecentActivity(ctx context.Context, startMs, endMs int64) ([]model.ActivityEntry, error)
}

type summaryRepository struct {
	pool *pgxpool.Pool
}

// NewSummaryRepository returns a pgx-backed SummaryRepository.
func NewSummaryRepository(pool *pgxpool.Pool) SummaryRepository {
	return &summaryRepository{pool: pool}
}

func (r *summaryRepository) Totals(ctx context.Context, startMs, endMs int64) (model.Totals, error) {
	const q = `
		SELECT
			COUNT(*) FILTER (WHERE event_name = 'page_view' AND NOT is_bot) AS pageviews,
			COUNT(*) FILTER (WHERE event_name = 'link_click' AND NOT is_bot) AS clicks,
			COUNT(DISTINCT visitor_id) FILTER (WHERE NOT is_bot) AS uniques
		FROM events
		WHERE occurred_at BETWEEN $1 AND $2`

	var t model.Totals
	err := r.pool.QueryRow(ctx, q, startMs, endMs).Scan(&t.Pageviews, &t.Clicks, &t.Uniques)
	if err != nil {
		return model.Totals{}, fmt.Errorf("query totals: %w", err)
	}
	return t, nil
}

func (r *summaryRepository) TopLinks(ctx context.Context, startMs, endMs int64, limit int) ([]model.LinkStat, error) {
	q := `
		SELECT link_id, label,
			COUNT(*) FILTER (WHERE event_name = 'link_click' AND NOT is_bot) AS clicks,
			COUNT(DISTINCT visitor_id) FILTER (WHERE NOT is_bot) AS uniques
		FROM events
		WHERE occurred_at BETWEEN $1 AND $2 AND link_id IS NOT NULL
		GROUP BY link_id, label
		ORDER BY clicks DESC`
	args := []any{startMs, endMs}
	if limit > 0 {
		q += " LIMIT $3"
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query top links: %w", err)
	}
	defer rows.Close()

	out := []model.LinkStat{}
	for rows.Next() {
		var s model.LinkStat
		if err := rows.Scan(&s.LinkID, &s.Label, &s.Clicks, &s.Uniques); err != nil {
			return nil, fmt.Errorf("scan top links: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *summaryRepository) TopReferrers(ctx context.Context, startMs, endMs int64) ([]model.ReferrerStat, error) {
	const q = `
		SELECT referrer,
			COUNT(*) FILTER (WHERE event_name = 'page_view' AND NOT is_bot) AS pageviews
		FROM events
		WHERE occurred_at BETWEEN $1 AND $2 AND referrer IS NOT NULL AND referrer <> ''
		GROUP BY referrer
		ORDER BY pageviews DESC
		LIMIT 10`

	rows, err := r.pool.Query(ctx, q, startMs, endMs)
	if err != nil {
		return nil, fmt.Errorf("query top referrers: %w", err)
	}
	defer rows.Close()

	out := []model.ReferrerStat{}
	for rows.Next() {
		var s model.ReferrerStat
		if err := rows.Scan(&s.Referrer, &s.Pageviews); err != nil {
			return nil, fmt.Errorf("scan top referrers: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *summaryRepository) TopCountries(ctx context.Context, startMs, endMs int64) ([]model.CountryStat, error) {
	const q = `
		SELECT country,
			COUNT(*) FILTER (WHERE event_name = 'page_view' AND NOT is_bot) AS pageviews,
			COUNT(*) FILTER (WHERE event_name = 'link_click' AND NOT is_bot) AS clicks,
			COUNT(DISTINCT visitor_id) FILTER (WHERE NOT is_bot) AS uniques
		FROM events
		WHERE occurred_at BETWEEN $1 AND $2 AND country IS NOT NULL
		GROUP BY country
		ORDER BY pageviews DESC
		LIMIT 15`

	rows, err := r.pool.Query(ctx, q, startMs, endMs)
	if err != nil {
		return nil, fmt.Errorf("query top countries: %w", err)
	}
	defer rows.Close()

	out := []model.CountryStat{}
	for rows.Next() {
		var s model.CountryStat
		if err := rows.Scan(&s.Country, &s.Pageviews, &s.Clicks, &s.Uniques); err != nil {
			return nil, fmt.Errorf("scan top countries: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *summaryRepository) Locations(ctx context.Context, startMs, endMs int64) ([]model.LocationStat, error) {
	const q = `
		SELECT latitude, longitude, city, country,
			COUNT(*) FILTER (WHERE event_name = 'page_view' AND NOT is_bot) AS pageviews,
			COUNT(DISTINCT visitor_id) FILTER (WHERE NOT is_bot) AS uniques
		FROM events
		WHERE occurred_at BETWEEN $1 AND $2
			AND latitude IS NOT NULL
			AND longitude IS NOT NULL
		GROUP BY latitude, longitude, city, country
		ORDER BY pageviews DESC
		LIMIT 100`

	rows, err := r.pool.Query(ctx, q, startMs, endMs)
	if err != nil {
		return nil, fmt.Errorf("query locations: %w", err)
	}
	defer rows.Close()

	out := []model.LocationStat{}
	for rows.Next() {
		var s model.LocationStat
		if err := rows.Scan(&s.Latitude, &s.Longitude, &s.City, &s.Country, &s.Pageviews, &s.Uniques); err != nil {
			return nil, fmt.Errorf("scan locations: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *summaryRepository) Devices(ctx context.Context, startMs, endMs int64) ([]model.BreakdownStat, error) {
	return r.breakdown(ctx, "device", startMs, endMs)
}

func (r *summaryRepository) OperatingSystems(ctx context.Context, startMs, endMs int64) ([]model.BreakdownStat, error) {
	return r.breakdown(ctx, "os", startMs, endMs)
}

func (r *summaryRepository) Browsers(ctx context.Context, startMs, endMs int64) ([]model.BreakdownStat, error) {
	return r.breakdown(ctx, "browser", startMs, endMs)
}

// breakdown groups pageviews and unique visitors by one categorical column.
// The column name is fixed by the three callers above, never caller input.
func (r *summaryRepository) breakdown(ctx context.Context, column string, startMs, endMs int64) ([]model.BreakdownStat, error) {
	q := fmt.Sprintf(`
		SELECT %s,
			COUNT(*) FILTER (WHERE event_name = 'page_view' AND NOT is_bot) AS pageviews,
			COUNT(DISTINCT visitor_id) FILTER (WHERE NOT is_bot) AS uniques
		FROM events
		WHERE occurred_at BETWEEN $1 AND $2 AND %s <> ''
		GROUP BY %s
		ORDER BY pageviews DESC`, column, column, column)

	rows, err := r.pool.Query(ctx, q, startMs, endMs)
	if err != nil {
		return nil, fmt.Errorf("query %s breakdown: %w", column, err)
	}
	defer rows.Close()

	out := []model.BreakdownStat{}
	for rows.Next() {
		var s model.BreakdownStat
		if err := rows.Scan(&s.Name, &s.Pageviews, &s.Uniques); err != nil {
			return nil, fmt.Errorf("scan %s breakdown: %w", column, err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *summaryRepository) Timeseries(ctx context.Context, startMs, endMs int64) ([]model.TimeseriesPoint, error) {
	const q = `
		SELECT to_char(to_timestamp(occurred_at / 1000.0) AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day,
			COUNT(*) FILTER (WHERE event_name = 'page_view' AND NOT is_bot) AS pageviews,
			COUNT(*) FILTER (WHERE event_name = 'link_click' AND NOT is_bot) AS clicks
		FROM events
		WHERE occurred_at BETWEEN $1 AND $2
		GROUP BY day
		ORDER BY day ASC`

	rows, err := r.pool.Query(ctx, q, startMs, endMs)
	if err != nil {
		return nil, fmt.Errorf("query timeseries: %w", err)
	}
	defer rows.Close()

	out := []model.TimeseriesPoint{}
	for rows.Next() {
		var p model.TimeseriesPoint
		if err := rows.Scan(&p.Day, &p.Pageviews, &p.Clicks); err != nil {
			return nil, fmt.Errorf("scan timeseries: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *summaryRepository) PeakHours(ctx context.Context, startMs, endMs int64) ([]model.PeakHourStat, error) {
	const q = `
		SELECT
			EXTRACT(HOUR FROM to_timestamp(occurred_at / 1000.0) AT TIME ZONE 'UTC')::int AS hour,
			EXTRACT(DOW FROM to_timestamp(occurred_at / 1000.0) AT TIME ZONE 'UTC')::int AS day_of_week,
			COUNT(*) FILTER (WHERE event_name = 'page_view') AS pageviews,
			COUNT(*) FILTER (WHERE event_name = 'link_click') AS clicks
		FROM events
		WHERE occurred_at BETWEEN $1 AND $2 AND NOT is_bot
		GROUP BY hour, day_of_week
		ORDER BY hour, day_of_week`

	rows, err := r.pool.Query(ctx, q, startMs, endMs)
	if err != nil {
		return nil, fmt.Errorf("query peak hours: %w", err)
	}
	defer rows.Close()

	out := []model.PeakHourStat{}
	for rows.Next() {
		var s model.PeakHourStat
		if err := rows.Scan(&s.Hour, &s.DayOfWeek, &s.Pageviews, &s.Clicks); err != nil {
			return nil, fmt.Errorf("scan peak hours: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *summaryRepository) UTMCampaigns(ctx context.Context, startMs, endMs int64) ([]model.UTMStat, error) {
	const q = `
		SELECT utm_source, utm_medium, utm_campaign,
			COUNT(*) FILTER (WHERE event_name = 'page_view') AS pageviews,
			COUNT(*) FILTER (WHERE event_name = 'link_click') AS clicks,
			COUNT(DISTINCT visitor_id) AS uniques
		FROM events
		WHERE occurred_at BETWEEN $1 AND $2
			AND NOT is_bot
			AND (utm_source IS NOT NULL OR utm_medium IS NOT NULL OR utm_campaign IS NOT NULL)
		GROUP BY utm_source, utm_medium, utm_campaign
		ORDER BY pageviews DESC
		LIMIT 20`

	rows, err := r.pool.Query(ctx, q, startMs, endMs)
	if err != nil {
		return nil, fmt.Errorf("query utm campaigns: %w", err)
	}
	defer rows.Close()

	out := []model.UTMStat{}
	for rows.Next() {
		var s model.UTMStat
		if err := rows.Scan(&s.UTMSource, &s.UTMMedium, &s.UTMCampaign, &s.Pageviews, &s.Clicks, &s.Uniques); err != nil {
			return nil, fmt.Errorf("scan utm campaigns: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *summaryRepository) RecentActivity(ctx context.Context, startMs, endMs int64) ([]model.ActivityEntry, error) {
	const q = `
		SELECT event_name, occurred_at, page_path, link_id, label,
			country, city, device, browser, referrer
		FROM events
		WHERE occurred_at BETWEEN $1 AND $2 AND NOT is_bot
		ORDER BY occurred_at DESC
		LIMIT 50`

	rows, err := r.pool.Query(ctx, q, startMs, endMs)
	if err != nil {
		return nil, fmt.Errorf("query recent activity: %w", err)
	}
	defer rows.Close()

	out := []model.ActivityEntry{}
	for rows.Next() {
		var e model.ActivityEntry
		if err := rows.Scan(&e.EventName, &e.OccurredAt, &e.PagePath, &e.LinkID, &e.Label,
			&e.Country, &e.City, &e.Device, &e.Browser, &e.Referrer); err != nil {
			return nil, fmt.Errorf("scan recent activity: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
