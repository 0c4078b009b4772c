package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestModelInitAndInspect(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, "model", "init", filepath.Join(dir, "model.json"))
	require.NoError(t, err)
	assert.Contains(t, out, "placeholder model")

	out, err = run(t, "model", "inspect", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "model.json")
	assert.Contains(t, out, "model_bundle")
}

func TestPredictSendsOnlyGivenFlags(t *testing.T) {
	var got map[string]float64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"success":true,"prediction":5,"prediction_label":"Class 5",
			"recommendation":"GOOD - Plant is healthy.","confidence":0.9}`))
	}))
	defer srv.Close()

	out, err := run(t, "predict", "--url", srv.URL, "--height", "42", "--humidity", "61")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"Height_cm": 42, "Humidity_%": 61}, got)
	assert.Contains(t, out, "Class 5 (confidence 0.900)")
	assert.Contains(t, out, "GOOD - Plant is healthy.")
}

func TestHealthCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"healthy","model":"RandomForestClassifier","using_fallback":false,"features_count":8}`))
	}))
	defer srv.Close()

	out, err := run(t, "health", "--url", srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "healthy: model=RandomForestClassifier fallback=false features=8\n", out)
}

func TestSensorCommand(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("CONFIG_FILE", "")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/channels/42/feeds/last.json", r.URL.Path)
		assert.Equal(t, "RK", r.URL.Query().Get("api_key"))
		w.Write([]byte(`{"created_at":"2026-04-01T08:30:00Z","entry_id":9,
			"field1":"22.5","field2":"61","field3":"700","field4":"2547.5"}`))
	}))
	defer srv.Close()

	out, err := run(t, "sensor", "--read-url", srv.URL, "--channel", "42", "--read-key", "RK")
	require.NoError(t, err)
	assert.Contains(t, out, "entry 9 at 2026-04-01 08:30:00")
	assert.Contains(t, out, "temperature=22.50C humidity=61.00% light=700 soil=2548 (50.0%)")
}
