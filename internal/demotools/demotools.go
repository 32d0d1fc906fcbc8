// Package demotools is a small deterministic toolkit used by the CLI and the
// examples to exercise the tool-calling loop without external services.
package demotools

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/skosovsky/codebridge"
)

// Version is reported by every demo tool.
const Version = "1.0.0"

// WeatherArgs are the arguments of get_current_weather.
type WeatherArgs struct {
	Location string `json:"location" description:"The city and state, e.g. San Francisco, CA"`
	Format   string `json:"format,omitempty" description:"The temperature unit to use. Infer this from the user's location." enum:"celsius,fahrenheit" default:"celsius"`
}

// Weather is the canned report returned by get_current_weather.
type Weather struct {
	Location    string `json:"location"`
	Temperature string `json:"temperature"`
	Condition   string `json:"condition"`
}

// CurrentWeather answers with fixed sunny weather in the requested unit.
func CurrentWeather(_ context.Context, args WeatherArgs) (Weather, error) {
	temp := "25°C"
	if args.Format == "fahrenheit" {
		temp = "77°F"
	}
	return Weather{Location: args.Location, Temperature: temp, Condition: "Sunny"}, nil
}

// FeedbackArgs are the arguments of rank_feedback.
type FeedbackArgs struct {
	Value int `json:"value" description:"Rank the customer's feedback on a scale of 1 to 10" minimum:"1" maximum:"10"`
}

// RankFeedback acknowledges a feedback rank.
func RankFeedback(_ context.Context, args FeedbackArgs) (string, error) {
	return fmt.Sprintf("The feedback rank is %d", args.Value), nil
}

// TemperatureArgs are the arguments of process_temperature.
type TemperatureArgs struct {
	Temperature float64 `json:"temperature" description:"Temperature in Celsius (must be between -273.15 and 1000.0)" minimum:"-273.15" maximum:"1000"`
}

// ProcessTemperature echoes a validated temperature.
func ProcessTemperature(_ context.Context, args TemperatureArgs) (string, error) {
	return "The temperature is " + strconv.FormatFloat(args.Temperature, 'f', -1, 64) + "°C", nil
}

// Tools builds the demo toolkit. opts apply to every tool.
func Tools(opts ...codebridge.ToolOption) ([]codebridge.Tool, error) {
	with := func(extra ...codebridge.ToolOption) []codebridge.ToolOption {
		return slices.Concat([]codebridge.ToolOption{codebridge.WithVersion(Version)}, opts, extra)
	}
	weather, err := codebridge.NewTool("get_current_weather", "Get the current weather in a given location",
		CurrentWeather, with(codebridge.WithTags("weather"))...)
	if err != nil {
		return nil, err
	}
	rank, err := codebridge.NewTool("rank_feedback", "Function to rank customer's feedback on a scale of 1 to 10",
		RankFeedback, with(codebridge.WithTags("feedback"))...)
	if err != nil {
		return nil, err
	}
	temp, err := codebridge.NewTool("process_temperature", "Function to process temperature in Celsius",
		ProcessTemperature, with()...)
	if err != nil {
		return nil, err
	}
	return []codebridge.Tool{weather, rank, temp}, nil
}

// Registry returns a registry holding the demo toolkit.
func Registry(regOpts []codebridge.RegistryOption, toolOpts ...codebridge.ToolOption) (*codebridge.Registry, error) {
	tools, err := Tools(toolOpts...)
	if err != nil {
		return nil, err
	}
	reg := codebridge.NewRegistry(regOpts...)
	if err := reg.Register(tools...); err != nil {
		return nil, err
	}
	return reg, nil
}
