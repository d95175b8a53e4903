package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/HexSleeves/parasol/internal/llm"
	"github.com/HexSleeves/parasol/internal/weather"
)

// weatherUnavailable is the payload the model sees when a lookup fails.
// Unknown cities and upstream outages read the same: weather is
// unavailable, answer accordingly.
const weatherUnavailable = `{"error": "Weather Unavailable"}`

// WeatherToolName is the registered name of the weather lookup tool.
const WeatherToolName = "fetch_weather"

// RegisterWeather adds the fetch_weather tool backed by svc.
func RegisterWeather(r *Registry, svc weather.Service) error {
	return r.Register(weatherToolDef(), weatherHandler(svc))
}

func weatherToolDef() llm.ToolDef {
	return llm.ToolDef{
		Name:        WeatherToolName,
		Description: "获取指定城市的天气信息，包括温度、降雨概率和湿度",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"city": map[string]interface{}{
					"type":        "string",
					"description": "城市名称，如beijing或shenzhen",
				},
			},
			"required": []string{"city"},
		},
	}
}

type fetchWeatherInput struct {
	City string `json:"city"`
}

func weatherHandler(svc weather.Service) Handler {
	return func(ctx context.Context, input json.RawMessage) (string, error) {
		var in fetchWeatherInput
		if err := json.Unmarshal(input, &in); err != nil {
			return "", fmt.Errorf("invalid input: %w", err)
		}
		if in.City == "" {
			return "", fmt.Errorf("city is required")
		}

		report, err := svc.Lookup(ctx, in.City)
		if err != nil {
			return weatherUnavailable, nil
		}

		data, err := json.Marshal(report)
		if err != nil {
			return "", fmt.Errorf("encode report: %w", err)
		}
		return string(data), nil
	}
}
