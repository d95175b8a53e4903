// Package weather provides city weather lookups. The static service serves
// fixture data for offline use, the wttr service queries wttr.in, and the
// cached service layers a SQLite cache over either.
package weather

import (
	"context"
	"errors"
)

// ErrUnknownCity is returned when no report exists for the requested city.
var ErrUnknownCity = errors.New("unknown city")

// Temperature holds current and daily bounds in degrees Celsius.
type Temperature struct {
	Current int `json:"current"`
	Low     int `json:"low"`
	High    int `json:"high"`
}

// Report is the weather summary for one city.
type Report struct {
	Location        string      `json:"location"`
	Temperature     Temperature `json:"temperature"`
	RainProbability int         `json:"rain_probability"`
	Humidity        int         `json:"humidity"`
}

// Service looks up the weather report for a city.
type Service interface {
	Lookup(ctx context.Context, city string) (*Report, error)
}
