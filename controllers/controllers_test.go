package controllers

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/config"
	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/logger"
	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/middlewares"
	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/ml"
	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/models"
	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/services"
	"github.com/douaabenharroud/BotaniAI-Plant-Disease-Detection/storage"
)

type zeroModel struct{}

func (zeroModel) Name() string                   { return "ZeroModel" }
func (zeroModel) NumFeatures() int               { return 8 }
func (zeroModel) Classes() []int                 { return []int{0, 1} }
func (zeroModel) Predict([]float64) (int, error) { return 0, nil }

func newTestRouter(t *testing.T, b *ml.Bundle, secret string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.Discard()
	hub := NewHub(log)
	svc := services.NewPredictionService(b,
		services.WithStore(storage.NewMemoryStore(100)),
		services.WithBroadcaster(hub),
		services.WithModelDir(t.TempDir()),
		services.WithLogger(log),
	)
	cfg := config.Defaults().Server
	cfg.JWTSecret = secret
	return SetupRouter(svc, hub, cfg, log)
}

func do(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestFeaturesRoute(t *testing.T) {
	r := newTestRouter(t, ml.NewFallbackBundle(), "")

	w := do(r, http.MethodGet, "/features", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)

	var names []string
	for _, n := range body["features"].([]interface{}) {
		names = append(names, n.(string))
	}
	assert.Equal(t, models.DefaultFeatureNames(), names)
	assert.NotEmpty(t, body["timestamp"])
}

func TestPredictWithDefaults(t *testing.T) {
	r := newTestRouter(t, ml.NewFallbackBundle(), "")

	w := do(r, http.MethodPost, "/predict", `{}`)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)

	assert.Equal(t, true, body["success"])
	class := body["prediction"].(float64)
	assert.GreaterOrEqual(t, class, 1.0)
	assert.LessOrEqual(t, class, 5.0)
	assert.Greater(t, body["confidence"].(float64), 0.0)
	assert.Equal(t, true, body["using_fallback"])
	assert.Equal(t, "RandomForestClassifier", body["model_type"])
	assert.NotEmpty(t, body["prediction_id"])

	used := body["features_used"].(map[string]interface{})
	assert.Equal(t, 30.0, used[models.FeatureHeight])
	assert.Equal(t, 50.0, used[models.FeatureSoilMoisture])
}

func TestPredictRemapsZeroAndAcceptsPercentAliases(t *testing.T) {
	b := &ml.Bundle{Model: zeroModel{}, FeatureNames: models.DefaultFeatureNames(), Source: "test"}
	r := newTestRouter(t, b, "")

	w := do(r, http.MethodPost, "/predict", `{"Humidity_percent": 70, "Soil_Moisture_percent": 20}`)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)

	assert.Equal(t, 1.0, body["prediction"])
	assert.Equal(t, 0.0, body["original_model_prediction"])
	assert.Equal(t, "Class 1", body["prediction_label"])
	assert.Equal(t, models.ClassDescription(1), body["recommendation"])
	assert.Equal(t, 0.85, body["confidence"])

	used := body["features_used"].(map[string]interface{})
	assert.Equal(t, 70.0, used[models.FeatureHumidity])
	assert.Equal(t, 20.0, used[models.FeatureSoilMoisture])
}

func TestPredictValidation(t *testing.T) {
	r := newTestRouter(t, ml.NewFallbackBundle(), "")

	w := do(r, http.MethodPost, "/predict", `{"Height_cm": 0}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(r, http.MethodPost, "/predict", `{"Room_Temperature_C": 55}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(r, http.MethodPost, "/predict", `{"Height_cm": "tall"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(r, http.MethodPost, "/predict", `{"Height_cm": "0"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(r, http.MethodPost, "/predict", `{not json`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestPredictAcceptsNumericStrings(t *testing.T) {
	r := newTestRouter(t, ml.NewFallbackBundle(), "")

	w := do(r, http.MethodPost, "/predict", `{"Height_cm": "30", "Leaf_Count": " 14 ", "Humidity_percent": "72.5"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	used := decode(t, w)["features_used"].(map[string]interface{})
	assert.Equal(t, 30.0, used[models.FeatureHeight])
	assert.Equal(t, 14.0, used[models.FeatureLeafCount])
	assert.Equal(t, 72.5, used[models.FeatureHumidity])
}

func TestPredictSimpleNormalizesKeys(t *testing.T) {
	r := newTestRouter(t, ml.NewFallbackBundle(), "")

	w := do(r, http.MethodPost, "/predict/simple", `{"humidity": 70, "Height cm": "40", "SoilMoisture": 500, "color": "green"}`)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)

	require.Equal(t, true, body["success"], body["error"])
	normalized := body["normalized_data"].(map[string]interface{})
	assert.Equal(t, map[string]interface{}{
		models.FeatureHumidity:     70.0,
		models.FeatureHeight:       40.0,
		models.FeatureSoilMoisture: 500.0,
	}, normalized)

	original := body["original_data"].(map[string]interface{})
	assert.Equal(t, "green", original["color"])
	assert.Equal(t, []interface{}{models.FeatureSoilMoisture}, body["out_of_range"])

	class := body["prediction"].(float64)
	assert.GreaterOrEqual(t, class, 1.0)
	assert.LessOrEqual(t, class, 5.0)
}

func TestPredictSimpleFailuresReturn200(t *testing.T) {
	r := newTestRouter(t, ml.NewFallbackBundle(), "")

	w := do(r, http.MethodPost, "/predict/simple", `{"Height_cm": "very tall"}`)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "Height_cm")
	assert.NotEmpty(t, body["timestamp"])

	w = do(r, http.MethodPost, "/predict/simple", `[1,2]`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["success"])
}

func TestInfoRoutes(t *testing.T) {
	r := newTestRouter(t, ml.NewFallbackBundle(), "")

	body := decode(t, do(r, http.MethodGet, "/", ""))
	assert.Equal(t, "BotaniAI ML Service", body["service"])
	assert.Equal(t, "running", body["status"])
	assert.Equal(t, 8.0, body["features_count"])

	body = decode(t, do(r, http.MethodGet, "/health", ""))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "RandomForestClassifier", body["model"])
	assert.Equal(t, true, body["store_healthy"])

	body = decode(t, do(r, http.MethodGet, "/test", ""))
	sample := body["sample_request"].(map[string]interface{})
	assert.Len(t, sample, 8)

	body = decode(t, do(r, http.MethodGet, "/model-info", ""))
	assert.Equal(t, "StandardScaler", body["scaler_type"])
	assert.Equal(t, true, body["scaler_loaded"])
	assert.Equal(t, true, body["has_predict_proba"])
	assert.Equal(t, ml.FallbackSource, body["model_source"])
	assert.Equal(t, []interface{}{}, body["available_model_files"])
}

func TestModelInfoWithoutScaler(t *testing.T) {
	b := &ml.Bundle{Model: zeroModel{}, FeatureNames: models.DefaultFeatureNames(), Source: "test"}
	body := decode(t, do(newTestRouter(t, b, ""), http.MethodGet, "/model-info", ""))
	assert.Equal(t, "None", body["scaler_type"])
	assert.Equal(t, false, body["scaler_loaded"])
	assert.Equal(t, false, body["has_predict_proba"])
}

func TestHistoryRoutes(t *testing.T) {
	r := newTestRouter(t, ml.NewFallbackBundle(), "")

	id := decode(t, do(r, http.MethodPost, "/predict", `{"Height_cm": 42}`))["prediction_id"].(string)
	do(r, http.MethodPost, "/predict/simple", `{"Leaf_Count": 9}`)

	body := decode(t, do(r, http.MethodGet, "/predictions?limit=1", ""))
	assert.Equal(t, 1.0, body["count"])
	latest := body["predictions"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, models.EndpointSimple, latest["endpoint"])

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/predictions?limit=abc", "").Code)

	w := do(r, http.MethodGet, "/predictions/download-csv", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	rows, err := csv.NewReader(w.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "timestamp", rows[0][0])
	assert.Equal(t, models.FeatureSoilMoisture, rows[0][len(rows[0])-1])
	assert.Equal(t, id, rows[2][1])
	assert.Equal(t, "42.00", rows[2][8])

	body = decode(t, do(r, http.MethodGet, "/predictions/"+id, ""))
	record := body["prediction"].(map[string]interface{})
	assert.Equal(t, id, record["id"])
	assert.Equal(t, models.EndpointPredict, record["endpoint"])

	body = decode(t, do(r, http.MethodGet, "/predictions/stats", ""))
	assert.Equal(t, 2.0, body["total_predictions"])
	assert.Equal(t, 2.0, body["today_predictions"])
	classes := body["class_distribution"].(map[string]interface{})
	assert.Len(t, classes, models.MaxClass+1)
	var counted float64
	for _, n := range classes {
		counted += n.(float64)
	}
	assert.Equal(t, 2.0, counted)
	assert.Equal(t, map[string]interface{}{models.EndpointPredict: 1.0, models.EndpointSimple: 1.0}, body["endpoint_distribution"])

	assert.Equal(t, http.StatusOK, do(r, http.MethodDelete, "/predictions/"+id, "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodDelete, "/predictions/"+id, "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/predictions/"+id, "").Code)
}

type stubSensor struct {
	reading *models.SensorReading
	err     error
}

func (s stubSensor) Latest(context.Context) (*models.SensorReading, error) { return s.reading, s.err }

func newSensorRouter(t *testing.T, src services.SensorSource) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.Discard()
	hub := NewHub(log)
	opts := []services.Option{services.WithLogger(log), services.WithBroadcaster(hub)}
	if src != nil {
		opts = append(opts, services.WithSensorSource(src))
	}
	svc := services.NewPredictionService(ml.NewFallbackBundle(), opts...)
	return SetupRouter(svc, hub, config.Defaults().Server, log)
}

func TestPredictSensor(t *testing.T) {
	reading := &models.SensorReading{EntryID: 41, Temperature: 26.4, Humidity: 48, Light: 610, SoilMoisture: models.SoilRawWet}
	r := newSensorRouter(t, stubSensor{reading: reading})

	w := do(r, http.MethodPost, "/predict/sensor", `{"Height_cm": "55", "Humidity_%": 99}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, true, body["success"])

	used := body["features_used"].(map[string]interface{})
	assert.Equal(t, 55.0, used[models.FeatureHeight])
	assert.Equal(t, 26.4, used[models.FeatureRoomTemperature])
	assert.Equal(t, 48.0, used[models.FeatureHumidity])
	assert.Equal(t, 100.0, used[models.FeatureSoilMoisture])

	conversion := body["soil_moisture_conversion"].(map[string]interface{})
	assert.Equal(t, float64(models.SoilRawWet), conversion["raw"])
	assert.Equal(t, 100.0, conversion["percent"])
	assert.Equal(t, 41.0, body["sensor_data"].(map[string]interface{})["entry_id"])

	w = do(r, http.MethodPost, "/predict/sensor", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 30.0, decode(t, w)["features_used"].(map[string]interface{})[models.FeatureHeight])

	assert.Equal(t, http.StatusUnprocessableEntity, do(r, http.MethodPost, "/predict/sensor", `{"Height_cm": "tall"}`).Code)
}

func TestPredictSensorUnavailable(t *testing.T) {
	w := do(newSensorRouter(t, nil), http.MethodPost, "/predict/sensor", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = do(newSensorRouter(t, stubSensor{err: errors.New("ThingSpeak rate limit exceeded")}), http.MethodPost, "/predict/sensor", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, decode(t, w)["detail"], "rate limit")
}

func TestHistoryRequiresTokenWhenSecretSet(t *testing.T) {
	r := newTestRouter(t, ml.NewFallbackBundle(), "s3cret")

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/predictions", "").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/predict", `{}`).Code)

	token, err := middlewares.IssueToken("s3cret", "grower", time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/predictions", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebSocketReceivesPredictions(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := logger.Discard()
	hub := NewHub(log)
	svc := services.NewPredictionService(ml.NewFallbackBundle(),
		services.WithBroadcaster(hub),
		services.WithLogger(log),
	)
	srv := httptest.NewServer(SetupRouter(svc, hub, config.Defaults().Server, log))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Post(srv.URL+"/predict", "application/json", strings.NewReader(`{"Leaf_Count": 20}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg models.PredictionResult
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, 20.0, msg.Features[models.FeatureLeafCount])
	assert.NotEmpty(t, msg.ID)

	conn.Close()
	require.Eventually(t, func() bool { return hub.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestBroadcastDoesNotBlockOnStalledClient(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := logger.Discard()
	hub := NewHub(log)
	svc := services.NewPredictionService(ml.NewFallbackBundle(),
		services.WithBroadcaster(hub),
		services.WithLogger(log),
	)
	srv := httptest.NewServer(SetupRouter(svc, hub, config.Defaults().Server, log))
	defer srv.Close()

	// this client never reads
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	payload := map[string]string{"blob": strings.Repeat("x", 4096)}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 20000; i++ {
			hub.Broadcast(payload)
		}
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Broadcast blocked on a client that does not read")
	}
	assert.Equal(t, 0, hub.Count())

	finished := make(chan int, 1)
	go func() {
		resp, err := http.Post(srv.URL+"/predict", "application/json", strings.NewReader(`{}`))
		if err != nil {
			finished <- 0
			return
		}
		resp.Body.Close()
		finished <- resp.StatusCode
	}()
	select {
	case code := <-finished:
		assert.Equal(t, http.StatusOK, code)
	case <-time.After(5 * time.Second):
		t.Fatal("prediction blocked behind a stalled websocket client")
	}
}
