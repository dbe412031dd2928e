package backend

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soil-bot/internal/domain/entity"
)

const testBaseURL = "http://backend.test"

// setupHTTPMock подменяет транспорт по умолчанию на время теста.
func setupHTTPMock(t *testing.T) *Client {
	t.Helper()
	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)
	return NewClient(testBaseURL+"/", 5*time.Second, nil)
}

func TestPredictorClient_Predict(t *testing.T) {
	client := setupHTTPMock(t)

	httpmock.RegisterResponder("POST", testBaseURL+"/api/predict",
		func(req *http.Request) (*http.Response, error) {
			var body predictRequest
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				return httpmock.NewStringResponse(http.StatusBadRequest, `{"detail":"bad body"}`), nil
			}
			raw, err := base64.StdEncoding.DecodeString(body.Image)
			if err != nil || string(raw) != "jpeg-bytes" {
				return httpmock.NewStringResponse(http.StatusBadRequest, `{"detail":"bad image"}`), nil
			}
			return httpmock.NewStringResponse(http.StatusOK, `{
				"soil_type": "Silty Sand",
				"confidence": 0.82,
				"status": "PENDING",
				"probabilities": {"Silty Sand": 0.82, "Clayey Sand": 0.18}
			}`), nil
		})

	p, err := NewPredictorClient(client).Predict(context.Background(), []byte("jpeg-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "Silty Sand", p.Label)
	assert.InDelta(t, 0.82, p.Confidence, 0.0001)
	assert.Equal(t, entity.PredictionPending, p.Status)
	assert.Len(t, p.Probabilities, 2)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestPredictorClient_PredictedClassFallback(t *testing.T) {
	client := setupHTTPMock(t)

	httpmock.RegisterResponder("POST", testBaseURL+"/api/predict",
		httpmock.NewStringResponder(http.StatusOK, `{"predicted_class": "Unclassified", "confidence": 0.4}`))

	p, err := NewPredictorClient(client).Predict(context.Background(), []byte("img"))
	require.NoError(t, err)
	assert.Equal(t, entity.UnclassifiedLabel, p.Label)
	assert.Equal(t, entity.PredictionRejected, p.Status)
}

func TestPredictorClient_ServerRejects(t *testing.T) {
	client := setupHTTPMock(t)

	httpmock.RegisterResponder("POST", testBaseURL+"/api/predict",
		httpmock.NewStringResponder(http.StatusOK, `{"soil_type": "Silty Sand", "confidence": 0.9, "status": "REJECTED"}`))

	p, err := NewPredictorClient(client).Predict(context.Background(), []byte("img"))
	require.NoError(t, err)
	assert.Equal(t, entity.PredictionRejected, p.Status)
}

func TestPredictorClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"detail from body", http.StatusInternalServerError, `{"detail":"model not loaded"}`, "model not loaded"},
		{"status only", http.StatusBadGateway, `oops`, "HTTP error: 502"},
		{"confidence out of range", http.StatusOK, `{"soil_type":"Silty Sand","confidence":3}`, "confidence"},
		{"confidence missing", http.StatusOK, `{"soil_type":"Silty Sand"}`, "confidence is missing"},
		{"malformed json", http.StatusOK, `{`, "decode response"},
		{"unknown status", http.StatusOK, `{"soil_type":"Silty Sand","confidence":0.9,"status":"APPROVED"}`, "unknown status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := setupHTTPMock(t)
			httpmock.RegisterResponder("POST", testBaseURL+"/api/predict",
				httpmock.NewStringResponder(tt.status, tt.body))

			_, err := NewPredictorClient(client).Predict(context.Background(), []byte("img"))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestPredictorClient_EmptyImage(t *testing.T) {
	client := setupHTTPMock(t)
	_, err := NewPredictorClient(client).Predict(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, 0, httpmock.GetTotalCallCount())
}

func TestScaleClient_Send(t *testing.T) {
	client := setupHTTPMock(t)

	httpmock.RegisterResponderWithQuery("GET", testBaseURL+"/api/command", "input=1",
		httpmock.NewStringResponder(http.StatusOK, `{"status":"total_weight","weight":250.5,"message":"Total weight recorded"}`))
	httpmock.RegisterResponderWithQuery("GET", testBaseURL+"/api/command", "input=W",
		httpmock.NewStringResponder(http.StatusOK, `{"kind":"weight_check","weight":12}`))

	scale := NewScaleClient(client)

	resp, err := scale.Send(context.Background(), entity.CommandTotal)
	require.NoError(t, err)
	assert.Equal(t, entity.KindTotalWeight, resp.Kind)
	require.NotNil(t, resp.Weight)
	assert.InDelta(t, 250.5, *resp.Weight, 0.001)
	assert.Equal(t, "Total weight recorded", resp.Message)

	resp, err = scale.Send(context.Background(), entity.CommandCheck)
	require.NoError(t, err)
	assert.Equal(t, entity.KindWeightCheck, resp.Kind)
}

func TestScaleClient_RejectsMalformed(t *testing.T) {
	client := setupHTTPMock(t)

	httpmock.RegisterResponderWithQuery("GET", testBaseURL+"/api/command", "input=2",
		httpmock.NewStringResponder(http.StatusOK, `{"status":"gravel_weight"}`))

	_, err := NewScaleClient(client).Send(context.Background(), entity.CommandGravel)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weight is missing")
}

func TestScaleClient_SandNeedsClassifier(t *testing.T) {
	client := setupHTTPMock(t)
	_, err := NewScaleClient(client).Send(context.Background(), entity.CommandSand)
	require.Error(t, err)
	assert.Equal(t, 0, httpmock.GetTotalCallCount())
}

func TestClassifierClient_Classify(t *testing.T) {
	client := setupHTTPMock(t)

	httpmock.RegisterResponder("POST", testBaseURL+"/api/command",
		func(req *http.Request) (*http.Response, error) {
			if req.Header.Get("Authorization") != "Bearer jwt-123" {
				return httpmock.NewStringResponse(http.StatusUnauthorized, `{"detail":"Invalid token"}`), nil
			}
			var body classifyRequest
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				return httpmock.NewStringResponse(http.StatusBadRequest, `{"detail":"bad body"}`), nil
			}
			if body.Input != "3" || body.Location == nil || *body.Location != "Site A" || body.ImageSoilType == nil {
				return httpmock.NewStringResponse(http.StatusBadRequest, `{"detail":"missing context"}`), nil
			}
			return httpmock.NewStringResponse(http.StatusOK, `{
				"status": "results",
				"total_weight": 100, "gravel_weight": 30, "sand_weight": 50,
				"gravel_percent": 30, "sand_percent": 50, "fines_percent": 20,
				"soil_type": "SM", "save_status": "Saved to database"
			}`), nil
		})

	classifier := NewClassifierClient(client)
	req := entity.ClassificationRequest{Location: "Site A", ImageSoilType: "Silty Sand", Image: []byte("img")}

	resp, err := classifier.Classify(context.Background(), entity.Auth{Token: "jwt-123"}, req)
	require.NoError(t, err)
	assert.Equal(t, entity.KindResults, resp.Kind)
	assert.Equal(t, "SM", resp.SoilType)
	assert.Equal(t, "Saved to database", resp.SaveStatus)
	f, ok := resp.ReportedFractions()
	require.True(t, ok)
	assert.InDelta(t, 20, f.FinesPercent, 0.001)

	_, err = classifier.Classify(context.Background(), entity.Auth{Token: "wrong"}, req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid token")
}

func TestClassifierClient_NoToken(t *testing.T) {
	client := setupHTTPMock(t)
	_, err := NewClassifierClient(client).Classify(context.Background(), entity.Auth{}, entity.ClassificationRequest{})
	require.Error(t, err)
	assert.Equal(t, 0, httpmock.GetTotalCallCount())
}

func TestParseCommandResponse(t *testing.T) {
	resp, err := ParseCommandResponse([]byte(`{"status":"reset","message":"Reset done"}`))
	require.NoError(t, err)
	assert.Equal(t, entity.KindReset, resp.Kind)

	_, err = ParseCommandResponse([]byte(`{"status":"dancing"}`))
	require.Error(t, err)

	_, err = ParseCommandResponse([]byte(`{"status":"results","total_weight":100}`))
	require.Error(t, err)
}
