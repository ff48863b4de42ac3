package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sifan077/PulseTrack/internal/app/model"
	"github.com/sifan077/PulseTrack/internal/app/repository"
)

// SummaryService computes the dashboard aggregation payloads for a requested
// reporting window.
type SummaryService interface {
	Summary(ctx context.Context, rangeKey, start, end string) (*model.Summary, error)
	Links(ctx context.Context, rangeKey, start, end string) ([]model.LinkStat, error)
}

type summaryService struct {
	repo repository.SummaryRepository
	now  func() time.Time
}

// NewSummaryService returns a service backed by the given repository.
func NewSummaryService(repo repository.SummaryRepository) SummaryService {
	return &summaryService{repo: repo, now: time.Now}
}

// Summary runs every aggregation section for the resolved interval. Sections
// are all-or-nothing per request: the first failing query fails the summary.
func (s *summaryService) Summary(ctx context.Context, rangeKey, start, end string) (*model.Summary, error) {
	tr, err := ResolveRange(rangeKey, start, end, s.now())
	if err != nil {
		return nil, err
	}

	totals, err := s.repo.Totals(ctx, tr.StartMs, tr.EndMs)
	if err != nil {
		return nil, fmt.Errorf("summary totals: %w", err)
	}
	// Guard the zero-pageview case so CTR is 0, never NaN/Inf.
	if totals.Pageviews > 0 {
		totals.CTR = float64(totals.Clicks) / float64(totals.Pageviews)
	}

	topLinks, err := s.repo.TopLinks(ctx, tr.StartMs, tr.EndMs, 10)
	if err != nil {
		return nil, fmt.Errorf("summary top links: %w", err)
	}
	referrers, err := s.repo.TopReferrers(ctx, tr.StartMs, tr.EndMs)
	if err != nil {
		return nil, fmt.Errorf("summary referrers: %w", err)
	}
	countries, err := s.repo.TopCountries(ctx, tr.StartMs, tr.EndMs)
	if err != nil {
		return nil, fmt.Errorf("summary countries: %w", err)
	}
	locations, err := s.repo.Locations(ctx, tr.StartMs, tr.EndMs)
	if err != nil {
		return nil, fmt.Errorf("summary locations: %w", err)
	}
	devices, err := s.repo.Devices(ctx, tr.StartMs, tr.EndMs)
	if err != nil {
		return nil, fmt.Errorf("summary devices: %w", err)
	}
	operatingSystems, err := s.repo.OperatingSystems(ctx, tr.StartMs, tr.EndMs)
	if err != nil {
		return nil, fmt.Errorf("summary operating systems: %w", err)
	}
	browsers, err := s.repo.Browsers(ctx, tr.StartMs, tr.EndMs)
	if err != nil {
		return nil, fmt.Errorf("summary browsers: %w", err)
	}
	timeseries, err := s.repo.Timeseries(ctx, tr.StartMs, tr.EndMs)
	if err != nil {
		return nil, fmt.Errorf("summary timeseries: %w", err)
	}
	peakHours, err := s.repo.PeakHours(ctx, tr.StartMs, tr.EndMs)
	if err != nil {
		return nil, fmt.Errorf("summary peak hours: %w", err)
	}
	campaigns, err := s.repo.UTMCampaigns(ctx, tr.StartMs, tr.EndMs)
	if err != nil {
		return nil, fmt.Errorf("summary utm campaigns: %w", err)
	}
	activity, err := s.repo.RecentActivity(ctx, tr.StartMs, tr.EndMs)
	if err != nil {
		return nil, fmt.Errorf("summary recent activity: %w", err)
	}

	return &model.Summary{
		Totals:           totals,
		TopLinks:         topLinks,
		TopReferrers:     referrers,
		TopCountries:     countries,
		Locations:        locations,
		Devices:          devices,
		OperatingSystems: operatingSystems,
		Browsers:         browsers,
		Timeseries:       timeseries,
		PeakHours:        peakHours,
		UTMCampaigns:     campaigns,
		RecentActivity:   activity,
	}, nil
}

// Links returns the full per-link click/unique breakdown. Per-link CTR would
// need per-link pageview attribution and is intentionally not computed.
func (s *summaryService) Links(ctx context.Context, rangeKey, start, end string) ([]model.LinkStat, error) {
	tr, err := ResolveRange(rangeKey, start, end, s.now())
	if err != nil {
		return nil, err
	}

	links, err := s.repo.TopLinks(ctx, tr.StartMs, tr.EndMs, 0)
	if err != nil {
		return nil, fmt.Errorf("links breakdown: %w", err)
	}
	return links, nil
}
