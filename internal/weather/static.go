package weather

import (
	"context"
	"fmt"
	"strings"
)

// staticReports is the built-in fixture set. Cities are keyed by lowercase
// pinyin; Chinese names resolve through cityAliases.
var staticReports = map[string]Report{
	"beijing": {
		Location:        "Beijing",
		Temperature:     Temperature{Current: 32, Low: 26, High: 35},
		RainProbability: 10,
		Humidity:        40,
	},
	"shenzhen": {
		Location:        "Shenzhen",
		Temperature:     Temperature{Current: 28, Low: 24, High: 31},
		RainProbability: 90,
		Humidity:        85,
	},
}

var cityAliases = map[string]string{
	"北京": "beijing",
	"深圳": "shenzhen",
}

// StaticService serves the fixture data. It needs no network and is the
// default backend for the weather tool.
type StaticService struct{}

// NewStaticService creates a fixture-backed weather service.
func NewStaticService() *StaticService {
	return &StaticService{}
}

// Lookup returns the fixture report for city, resolving Chinese aliases and
// ignoring case. Unknown cities return ErrUnknownCity.
func (s *StaticService) Lookup(_ context.Context, city string) (*Report, error) {
	key := strings.ToLower(strings.TrimSpace(city))
	if canonical, ok := cityAliases[key]; ok {
		key = canonical
	}

	report, ok := staticReports[key]
	if !ok {
		return nil, fmt.Errorf("%q: %w", city, ErrUnknownCity)
	}
	return &report, nil
}
