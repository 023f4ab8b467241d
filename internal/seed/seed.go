// Package seed loads the station fixture used to populate a fresh store.
package seed

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/livecharge/livecharge/internal/station"
)

//go:embed stations.yaml
var defaultFixture []byte

// StationFixture is one station entry in a seed file.
type StationFixture struct {
	Name        string     `yaml:"name"`
	Coordinates [2]float64 `yaml:"coordinates"`
	Status      string     `yaml:"status"`
}

// File is the top-level seed document.
type File struct {
	Stations []StationFixture `yaml:"stations"`
}

// Default returns the built-in sample stations.
func Default() ([]*station.Station, error) {
	return Parse(defaultFixture)
}

// Load reads stations from path. An empty path selects the built-in fixture.
func Load(path string) ([]*station.Station, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a seed document. Stations default to working and always
// start without reviews.
func Parse(data []byte) ([]*station.Station, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	if len(f.Stations) == 0 {
		return nil, errors.New("seed file lists no stations")
	}

	stations := make([]*station.Station, 0, len(f.Stations))
	for i, fx := range f.Stations {
		name := strings.TrimSpace(fx.Name)
		if name == "" {
			return nil, fmt.Errorf("station %d: name is required", i)
		}

		status := station.StatusWorking
		if fx.Status != "" {
			status = station.Status(fx.Status)
		}
		if !status.Valid() {
			return nil, fmt.Errorf("station %q: invalid status %q", name, fx.Status)
		}

		loc := station.NewGeoPoint(fx.Coordinates[0], fx.Coordinates[1])
		if !loc.Valid() {
			return nil, fmt.Errorf("station %q: coordinates out of range", name)
		}

		stations = append(stations, &station.Station{
			Name:     name,
			Location: loc,
			Status:   status,
			Reviews:  []station.Review{},
		})
	}
	return stations, nil
}
