package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/PulseTrack/config"
	"github.com/sifan077/PulseTrack/internal/app/model"
)

const testOrigin = "https://dash.example.com"

type fakeEventRepo struct {
	seen   map[string]bool
	failed error
}

func (f *fakeEventRepo) Insert(ctx context.Context, event *model.Event) (bool, error) {
	if f.failed != nil {
		return false, f.failed
	}
	if f.seen == nil {
		f.seen = make(map[string]bool)
	}
	if f.seen[event.EventID] {
		return true, nil
	}
	f.seen[event.EventID] = true
	return false, nil
}

type fakeSummaryRepo struct {
	queried bool
	totals  model.Totals
	links   []model.LinkStat
}

func (f *fakeSummaryRepo) Totals(ctx context.Context, startMs, endMs int64) (model.Totals, error) {
	f.queried = true
	return f.totals, nil
}

func (f *fakeSummaryRepo) TopLinks(ctx context.Context, startMs, endMs int64, limit int) ([]model.LinkStat, error) {
	f.queried = true
	return f.links, nil
}

func (f *fakeSummaryRepo) TopReferrers(ctx context.Context, startMs, endMs int64) ([]model.ReferrerStat, error) {
	f.queried = true
	return nil, nil
}

func (f *fakeSummaryRepo) TopCountries(ctx context.Context, startMs, endMs int64) ([]model.CountryStat, error) {
	f.queried = true
	return nil, nil
}

func (f *fakeSummaryRepo) Locations(ctx context.Context, startMs, endMs int64) ([]model.LocationStat, error) {
	f.queried = true
	return nil, nil
}

func (f *fakeSummaryRepo) Devices(ctx context.Context, startMs, endMs int64) ([]model.BreakdownStat, error) {
	f.queried = true
	return nil, nil
}

func (f *fakeSummaryRepo) OperatingSystems(ctx context.Context, startMs, endMs int64) ([]model.BreakdownStat, error) {
	f.queried = true
	return nil, nil
}

func (f *fakeSummaryRepo) Browsers(ctx context.Context, startMs, endMs int64) ([]model.BreakdownStat, error) {
	f.queried = true
	return nil, nil
}

func (f *fakeSummaryRepo) Timeseries(ctx context.Context, startMs, endMs int64) ([]model.TimeseriesPoint, error) {
	f.queried = true
	return nil, nil
}

func (f *fakeSummaryRepo) PeakHours(ctx context.Context, startMs, endMs int64) ([]model.PeakHourStat, error) {
	f.queried = true
	return nil, nil
}

func (f *fakeSummaryRepo) UTMCampaigns(ctx context.Context, startMs, endMs int64) ([]model.UTMStat, error) {
	f.queried = true
	return nil, nil
}

func (f *fakeSummaryRepo) RecentActivity(ctx context.Context, startMs, endMs int64) ([]model.ActivityEntry, error) {
	f.queried = true
	return nil, nil
}

func newTestServer(t *testing.T, events *fakeEventRepo, summaries *fakeSummaryRepo) *Server {
	t.Helper()
	s := New(Dependencies{
		Config: config.AppConfig{
			AdminToken:     "test-admin-token",
			AdminPassword:  "test-password",
			AllowedOrigins: testOrigin,
			ClientIPHeader: "CF-Connecting-IP",
		},
		Events:    events,
		Summaries: summaries,
	})
	t.Cleanup(func() { s.Shutdown(context.Background()) })
	return s
}

func trackRequest(body string) *http.Request {
	req := httptest.NewRequest(fiber.MethodPost, "/track", bytes.NewBufferString(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("decode body %q: %v", raw, err)
	}
	return body
}

const trackBody = `{
	"event_id": "8f14e45f-ceea-4e17-a6b8-4f1d8c2a9b01",
	"event_name": "page_view",
	"visitor_id": "2c1b7a90-1111-4222-8333-444455556666",
	"session_id": "9e107d9d-3721-4a2f-9d5e-1f4f3a2b1c0d",
	"page_path": "/pricing"
}`

func TestHealth(t *testing.T) {
	s := newTestServer(t, &fakeEventRepo{}, &fakeSummaryRepo{})

	resp, err := s.App().Test(httptest.NewRequest(fiber.MethodGet, "/health", nil))
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body := decodeBody(t, resp); body["ok"] != true {
		t.Fatalf("body = %v", body)
	}
}

func TestTrack_AcceptsAndDedupes(t *testing.T) {
	events := &fakeEventRepo{}
	s := newTestServer(t, events, &fakeSummaryRepo{})

	resp, err := s.App().Test(trackRequest(trackBody))
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("first delivery status = %d, want 200", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["ok"] != true || body["deduped"] != nil {
		t.Fatalf("first delivery body = %v", body)
	}

	resp, err = s.App().Test(trackRequest(trackBody))
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("duplicate delivery status = %d, want 200", resp.StatusCode)
	}
	body = decodeBody(t, resp)
	if body["ok"] != true || body["deduped"] != true {
		t.Fatalf("duplicate delivery body = %v", body)
	}
}

func TestTrack_ValidationErrors(t *testing.T) {
	cases := []struct {
		name      string
		body      string
		wantError string
		wantField string
	}{
		{"malformed json", `{"event_id":`, "invalid_json", ""},
		{"unknown event name", `{
			"event_id": "8f14e45f-ceea-4e17-a6b8-4f1d8c2a9b01",
			"event_name": "purchase",
			"visitor_id": "2c1b7a90-1111-4222-8333-444455556666",
			"session_id": "9e107d9d-3721-4a2f-9d5e-1f4f3a2b1c0d",
			"page_path": "/pricing"
		}`, "invalid_event", ""},
		{"missing page path", `{
			"event_id": "8f14e45f-ceea-4e17-a6b8-4f1d8c2a9b01",
			"event_name": "page_view",
			"visitor_id": "2c1b7a90-1111-4222-8333-444455556666",
			"session_id": "9e107d9d-3721-4a2f-9d5e-1f4f3a2b1c0d"
		}`, "missing_field", "page_path"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			events := &fakeEventRepo{}
			s := newTestServer(t, events, &fakeSummaryRepo{})

			resp, err := s.App().Test(trackRequest(tc.body))
			if err != nil {
				t.Fatalf("request error: %v", err)
			}
			if resp.StatusCode != fiber.StatusBadRequest {
				t.Fatalf("status = %d, want 400", resp.StatusCode)
			}

			body := decodeBody(t, resp)
			if body["error"] != tc.wantError {
				t.Fatalf("error = %v, want %q", body["error"], tc.wantError)
			}
			if tc.wantField != "" && body["field"] != tc.wantField {
				t.Fatalf("field = %v, want %q", body["field"], tc.wantField)
			}
			if len(events.seen) != 0 {
				t.Fatal("rejected payload must not reach the store")
			}
		})
	}
}

func TestTrack_RateLimited(t *testing.T) {
	s := newTestServer(t, &fakeEventRepo{}, &fakeSummaryRepo{})

	for i := 1; i <= 15; i++ {
		resp, err := s.App().Test(trackRequest(trackBody))
		if err != nil {
			t.Fatalf("request %d error: %v", i, err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i, resp.StatusCode)
		}
	}

	resp, err := s.App().Test(trackRequest(trackBody))
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	if resp.StatusCode != fiber.StatusTooManyRequests {
		t.Fatalf("16th request status = %d, want 429", resp.StatusCode)
	}
	if body := decodeBody(t, resp); body["error"] != "rate_limited" {
		t.Fatalf("body = %v", body)
	}
}

func TestSummary_RequiresBearerToken(t *testing.T) {
	summaries := &fakeSummaryRepo{}
	s := newTestServer(t, &fakeEventRepo{}, summaries)

	cases := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"wrong token", "Bearer nope"},
		{"token without scheme", "test-admin-token"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, "/summary", nil)
			if tc.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tc.header)
			}

			resp, err := s.App().Test(req)
			if err != nil {
				t.Fatalf("request error: %v", err)
			}
			if resp.StatusCode != fiber.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", resp.StatusCode)
			}
			if summaries.queried {
				t.Fatal("unauthorized request must not touch the store")
			}
		})
	}
}

func TestSummary_ReturnsAggregates(t *testing.T) {
	summaries := &fakeSummaryRepo{totals: model.Totals{Pageviews: 100, Clicks: 25, Uniques: 40}}
	s := newTestServer(t, &fakeEventRepo{}, summaries)

	req := httptest.NewRequest(fiber.MethodGet, "/summary?range=30d", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer test-admin-token")

	resp, err := s.App().Test(req)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	body := decodeBody(t, resp)
	totals, ok := body["totals"].(map[string]any)
	if !ok {
		t.Fatalf("missing totals section: %v", body)
	}
	if totals["pageviews"] != float64(100) || totals["ctr"] != 0.25 {
		t.Fatalf("totals = %v", totals)
	}
}

func TestSummary_InvalidCustomRange(t *testing.T) {
	s := newTestServer(t, &fakeEventRepo{}, &fakeSummaryRepo{})

	req := httptest.NewRequest(fiber.MethodGet, "/summary?range=custom&start=2024-01-01", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer test-admin-token")

	resp, err := s.App().Test(req)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if body := decodeBody(t, resp); body["error"] != "invalid_custom_range" {
		t.Fatalf("body = %v", body)
	}
}

func TestLinks_WrapsBreakdown(t *testing.T) {
	label := "Hero CTA"
	summaries := &fakeSummaryRepo{
		links: []model.LinkStat{{LinkID: "cta-hero", Label: &label, Clicks: 9, Uniques: 4}},
	}
	s := newTestServer(t, &fakeEventRepo{}, summaries)

	req := httptest.NewRequest(fiber.MethodGet, "/links", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer test-admin-token")

	resp, err := s.App().Test(req)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	body := decodeBody(t, resp)
	links, ok := body["links"].([]any)
	if !ok || len(links) != 1 {
		t.Fatalf("body = %v, want one wrapped link entry", body)
	}
}

func TestAuthLogin(t *testing.T) {
	s := newTestServer(t, &fakeEventRepo{}, &fakeSummaryRepo{})

	login := func(origin, password string) *http.Response {
		req := httptest.NewRequest(fiber.MethodPost, "/auth/login",
			bytes.NewBufferString(`{"password":"`+password+`"}`))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		if origin != "" {
			req.Header.Set(fiber.HeaderOrigin, origin)
		}
		resp, err := s.App().Test(req)
		if err != nil {
			t.Fatalf("request error: %v", err)
		}
		return resp
	}

	if resp := login("", "test-password"); resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("missing origin status = %d, want 403", resp.StatusCode)
	}
	if resp := login("https://attacker.example", "test-password"); resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("foreign origin status = %d, want 403", resp.StatusCode)
	}
	if resp := login(testOrigin, "wrong"); resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("wrong password status = %d, want 401", resp.StatusCode)
	}

	resp := login(testOrigin, "test-password")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("login status = %d, want 200", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["ok"] != true || body["token"] != "test-admin-token" {
		t.Fatalf("login body = %v", body)
	}
}

func TestAuthVerify(t *testing.T) {
	s := newTestServer(t, &fakeEventRepo{}, &fakeSummaryRepo{})

	req := httptest.NewRequest(fiber.MethodGet, "/auth/verify", nil)
	resp, err := s.App().Test(req)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("anonymous verify status = %d, want 401", resp.StatusCode)
	}
	if body := decodeBody(t, resp); body["authenticated"] != false {
		t.Fatalf("body = %v", body)
	}

	req = httptest.NewRequest(fiber.MethodGet, "/auth/verify", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer test-admin-token")
	resp, err = s.App().Test(req)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("verify status = %d, want 200", resp.StatusCode)
	}
	if body := decodeBody(t, resp); body["authenticated"] != true {
		t.Fatalf("body = %v", body)
	}
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t, &fakeEventRepo{}, &fakeSummaryRepo{})

	resp, err := s.App().Test(httptest.NewRequest(fiber.MethodGet, "/nope", nil))
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	if body := decodeBody(t, resp); body["error"] != "Not found" {
		t.Fatalf("body = %v", body)
	}
}
