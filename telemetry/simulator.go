// Package telemetry simulates the greenhouse sensor node: it produces random
// readings and uploads them to a ThingSpeak-style update endpoint.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/config"
	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/models"
)

// Reading ranges.
const (
	MinTemperature  = 18.0
	MaxTemperature  = 35.0
	MinHumidity     = 40.0
	MaxHumidity     = 90.0
	MinLight        = 100
	MaxLight        = 1023
	MinSoilMoisture = 200
	MaxSoilMoisture = 800
)

// Sample draws one simulated reading from rng.
func Sample(rng *rand.Rand) models.SensorReading {
	return models.SensorReading{
		Timestamp:    time.Now(),
		Temperature:  round2(MinTemperature + rng.Float64()*(MaxTemperature-MinTemperature)),
		Humidity:     round2(MinHumidity + rng.Float64()*(MaxHumidity-MinHumidity)),
		Light:        MinLight + rng.Intn(MaxLight-MinLight+1),
		SoilMoisture: MinSoilMoisture + rng.Intn(MaxSoilMoisture-MinSoilMoisture+1),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// BuildURL formats the upload request for r. Numbers use their shortest form.
func BuildURL(base, apiKey string, r models.SensorReading) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep +
		"api_key=" + url.QueryEscape(apiKey) +
		"&field1=" + strconv.FormatFloat(r.Temperature, 'f', -1, 64) +
		"&field2=" + strconv.FormatFloat(r.Humidity, 'f', -1, 64) +
		"&field3=" + strconv.Itoa(r.Light) +
		"&field4=" + strconv.Itoa(r.SoilMoisture)
}

// hostPort extracts a dialable address from the upload URL.
func hostPort(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid upload url: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid upload url %q: missing host", raw)
	}
	if u.Port() != "" {
		return u.Host, nil
	}
	port := "80"
	if u.Scheme == "https" {
		port = "443"
	}
	return net.JoinHostPort(u.Hostname(), port), nil
}

// WaitForNetwork dials the upload host once per second until a connection
// succeeds or ctx is done.
func WaitForNetwork(ctx context.Context, uploadURL string, log *logrus.Entry) error {
	addr, err := hostPort(uploadURL)
	if err != nil {
		return err
	}
	dialer := net.Dialer{Timeout: time.Second}
	log.WithField("addr", addr).Info("connecting to network")
	for attempt := 1; ; attempt++ {
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err == nil {
			log.WithFields(logrus.Fields{
				"local":    conn.LocalAddr().String(),
				"attempts": attempt,
			}).Info("network connected")
			conn.Close()
			return nil
		}
		log.WithField("attempt", attempt).Debug("network not reachable yet")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
}

// Simulator uploads one reading per interval.
type Simulator struct {
	cfg    config.TelemetryConfig
	client *http.Client
	rng    *rand.Rand
	log    *logrus.Entry
}

func NewSimulator(cfg config.TelemetryConfig, rng *rand.Rand, log *logrus.Entry) *Simulator {
	if cfg.Interval <= 0 {
		cfg.Interval = 20 * time.Second
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Simulator{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		rng:    rng,
		log:    log,
	}
}

// Run samples and uploads until ctx is cancelled. Upload errors are logged
// and the loop carries on with the next cycle.
func (s *Simulator) Run(ctx context.Context) error {
	for {
		r := Sample(s.rng)
		s.log.WithFields(logrus.Fields{
			"temperature":   r.Temperature,
			"humidity":      r.Humidity,
			"light":         r.Light,
			"soil_moisture": r.SoilMoisture,
		}).Info("sensor reading")

		if body, err := s.Upload(ctx, r); err != nil {
			s.log.WithError(err).Error("error sending data")
		} else {
			s.log.WithField("response", body).Info("data sent")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.cfg.Interval):
		}
	}
}

// Upload issues a single GET for r and returns the response body.
func (s *Simulator) Upload(ctx context.Context, r models.SensorReading) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, BuildURL(s.cfg.UploadURL, s.cfg.APIKey, r), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("upload returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return strings.TrimSpace(string(body)), nil
}
