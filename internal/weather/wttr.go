package weather

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const wttrUserAgent = "parasol/1.0"

// WttrService fetches live reports from wttr.in using its JSON format.
// It holds its own HTTP client so hung requests cannot stall a turn.
type WttrService struct {
	baseURL string
	client  *http.Client
}

// NewWttrService creates a wttr.in-backed weather service. An empty baseURL
// defaults to the public instance.
func NewWttrService(baseURL string) *WttrService {
	if baseURL == "" {
		baseURL = "https://wttr.in"
	}
	return &WttrService{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Lookup queries wttr.in for city and maps the j1 payload onto a Report.
func (s *WttrService) Lookup(ctx context.Context, city string) (*Report, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, fmt.Errorf("empty city: %w", ErrUnknownCity)
	}

	reqURL := fmt.Sprintf("%s/%s?format=j1", s.baseURL, url.PathEscape(city))
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("wttr: create request: %w", err)
	}
	// wttr.in varies its response on the client; the default Go agent gets HTML.
	req.Header.Set("User-Agent", wttrUserAgent)
	req.Header.Set("Accept-Language", "zh,en")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wttr: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("wttr: read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound || strings.Contains(string(body), "Unknown location") {
		return nil, fmt.Errorf("%q: %w", city, ErrUnknownCity)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("wttr: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return parseWttr(body, city)
}

// parseWttr maps the j1 document onto a Report. All numeric fields arrive
// as strings; rain probability is the day's worst hourly chance.
func parseWttr(body []byte, city string) (*Report, error) {
	doc := string(body)
	if !gjson.Valid(doc) {
		return nil, fmt.Errorf("wttr: invalid JSON response")
	}

	current := gjson.Get(doc, "current_condition.0")
	if !current.Exists() {
		return nil, fmt.Errorf("wttr: no current conditions in response")
	}

	report := &Report{
		Location: gjson.Get(doc, "nearest_area.0.areaName.0.value").String(),
		Temperature: Temperature{
			Current: int(current.Get("temp_C").Int()),
			Low:     int(gjson.Get(doc, "weather.0.mintempC").Int()),
			High:    int(gjson.Get(doc, "weather.0.maxtempC").Int()),
		},
		Humidity: int(current.Get("humidity").Int()),
	}
	if report.Location == "" {
		report.Location = city
	}

	for _, hour := range gjson.Get(doc, "weather.0.hourly.#.chanceofrain").Array() {
		if p := int(hour.Int()); p > report.RainProbability {
			report.RainProbability = p
		}
	}

	return report, nil
}
