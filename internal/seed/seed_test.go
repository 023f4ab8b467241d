package seed_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livecharge/livecharge/internal/seed"
	"github.com/livecharge/livecharge/internal/station"
)

func TestDefault(t *testing.T) {
	stations, err := seed.Default()
	require.NoError(t, err)
	require.Len(t, stations, 8)

	first := stations[0]
	assert.Equal(t, "Ajmer Road (DCM) EV-Station", first.Name)
	assert.Equal(t, 75.7462, first.Location.Lon())
	assert.Equal(t, 26.8936, first.Location.Lat())
	assert.Equal(t, "Point", first.Location.Type)

	for _, st := range stations {
		assert.Equal(t, station.StatusWorking, st.Status, st.Name)
		assert.NotNil(t, st.Reviews, st.Name)
		assert.Empty(t, st.Reviews, st.Name)
		assert.Empty(t, st.ID, st.Name)
	}
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stations.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
stations:
  - name: Depot
    coordinates: [-0.1276, 51.5072]
    status: maintenance
`), 0o600))

	stations, err := seed.Load(path)
	require.NoError(t, err)
	require.Len(t, stations, 1)
	assert.Equal(t, station.StatusMaintenance, stations[0].Status)
	assert.Equal(t, -0.1276, stations[0].Location.Lon())
}

func TestLoad_EmptyPathUsesDefault(t *testing.T) {
	stations, err := seed.Load("")
	require.NoError(t, err)
	assert.Len(t, stations, 8)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := seed.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestParse_Rejects(t *testing.T) {
	tests := map[string]string{
		"malformed":  "stations: [",
		"empty":      "stations: []",
		"no name":    "stations:\n  - coordinates: [1, 2]\n",
		"bad status": "stations:\n  - name: A\n    coordinates: [1, 2]\n    status: closed\n",
		"bad coords": "stations:\n  - name: A\n    coordinates: [200, 2]\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := seed.Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}
