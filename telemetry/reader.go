package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/config"
	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/models"
)

// feedEntry is one row of a ThingSpeak channel feed. Field values arrive as
// strings and may be null.
type feedEntry struct {
	EntryID   int64           `json:"entry_id"`
	CreatedAt string          `json:"created_at"`
	Field1    *string         `json:"field1"`
	Field2    *string         `json:"field2"`
	Field3    *string         `json:"field3"`
	Field4    *string         `json:"field4"`
	Error     json.RawMessage `json:"error"`
}

// ChannelReader fetches the newest entry of a ThingSpeak channel.
type ChannelReader struct {
	base      string
	channelID string
	apiKey    string
	client    *http.Client
	log       *logrus.Entry
}

// NewChannelReader returns nil when no channel is configured.
func NewChannelReader(cfg config.TelemetryConfig, log *logrus.Entry) *ChannelReader {
	if cfg.ChannelID == "" {
		return nil
	}
	base := cfg.ReadURL
	if base == "" {
		base = "https://api.thingspeak.com"
	}
	return &ChannelReader{
		base:      strings.TrimRight(base, "/"),
		channelID: cfg.ChannelID,
		apiKey:    cfg.ReadAPIKey,
		client:    &http.Client{Timeout: 10 * time.Second},
		log:       log,
	}
}

func (r *ChannelReader) lastURL() string {
	u := r.base + "/channels/" + url.PathEscape(r.channelID) + "/feeds/last.json"
	if r.apiKey != "" {
		u += "?api_key=" + url.QueryEscape(r.apiKey)
	}
	return u
}

// Latest returns the newest reading on the channel.
func (r *ChannelReader) Latest(ctx context.Context) (*models.SensorReading, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.lastURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach ThingSpeak: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read ThingSpeak response: %w", err)
	}
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusBadRequest, http.StatusUnauthorized:
		return nil, errors.New("invalid API key, channel doesn't exist, or insufficient permissions")
	case http.StatusNotFound:
		return nil, fmt.Errorf("channel %s not found on ThingSpeak", r.channelID)
	case http.StatusTooManyRequests:
		return nil, errors.New("ThingSpeak rate limit exceeded")
	default:
		return nil, fmt.Errorf("ThingSpeak returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	// An unreadable private channel answers "-1" with status 200.
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "-1" || trimmed == "" {
		return nil, fmt.Errorf("channel %s has no readable entries", r.channelID)
	}
	var entry feedEntry
	if err := json.Unmarshal(body, &entry); err != nil {
		return nil, fmt.Errorf("failed to decode ThingSpeak entry: %w", err)
	}
	if len(entry.Error) > 0 && string(entry.Error) != "null" {
		return nil, fmt.Errorf("ThingSpeak error: %s", entry.Error)
	}

	reading := parseEntry(entry)
	r.log.WithFields(logrus.Fields{
		"channel":  r.channelID,
		"entry_id": reading.EntryID,
	}).Debug("fetched latest channel entry")
	return reading, nil
}

// parseEntry maps the channel fields onto a reading using the simulator's
// layout: field1 temperature, field2 humidity, field3 light, field4 soil.
// Missing or unparsable fields fall back to the feature defaults, and soil
// moisture to DefaultSoilRaw.
func parseEntry(e feedEntry) *models.SensorReading {
	reading := &models.SensorReading{
		EntryID:      e.EntryID,
		Temperature:  fieldFloat(e.Field1, models.FeatureDefaults[models.FeatureRoomTemperature]),
		Humidity:     fieldFloat(e.Field2, models.FeatureDefaults[models.FeatureHumidity]),
		Light:        int(math.Round(fieldFloat(e.Field3, 0))),
		SoilMoisture: int(math.Round(fieldFloat(e.Field4, models.DefaultSoilRaw))),
	}
	if ts, err := time.Parse(time.RFC3339, e.CreatedAt); err == nil {
		reading.Timestamp = ts
	}
	return reading
}

func fieldFloat(v *string, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(*v), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fallback
	}
	return f
}
