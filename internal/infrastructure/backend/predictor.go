package backend

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"soil-bot/internal/domain/entity"
	"soil-bot/internal/domain/port"
)

// PredictorClient клиент модели, предсказывающей тип грунта по снимку
type PredictorClient struct {
	*Client
}

func NewPredictorClient(c *Client) *PredictorClient {
	return &PredictorClient{Client: c}
}

type predictRequest struct {
	Image string `json:"image"`
}

type predictResponse struct {
	SoilType       string             `json:"soil_type"`
	PredictedClass string             `json:"predicted_class"`
	Confidence     *float64           `json:"confidence"`
	Probabilities  map[string]float64 `json:"probabilities"`
	Status         string             `json:"status"`
}

// Predict отправляет снимок в base64 на /api/predict.
func (c *PredictorClient) Predict(ctx context.Context, image []byte) (*entity.Prediction, error) {
	if len(image) == 0 {
		return nil, eris.New("predictor: empty image")
	}

	data, err := c.do(ctx, http.MethodPost, "/api/predict", predictRequest{
		Image: base64.StdEncoding.EncodeToString(image),
	}, nil)
	if err != nil {
		return nil, eris.Wrap(err, "predictor: predict")
	}

	var body predictResponse
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, eris.Wrap(err, "predictor: decode response")
	}
	if body.Confidence == nil {
		return nil, eris.New("predictor: confidence is missing")
	}

	label := body.SoilType
	if label == "" {
		label = body.PredictedClass
	}
	prediction, err := entity.NewPrediction(label, *body.Confidence, body.Probabilities)
	if err != nil {
		return nil, eris.Wrap(err, "predictor: invalid prediction")
	}
	switch status := entity.PredictionStatus(body.Status); status {
	case "":
	case entity.PredictionPending, entity.PredictionRejected:
		prediction.Status = status
	default:
		return nil, eris.Errorf("predictor: unknown status %q", body.Status)
	}

	c.log.Info("image predicted",
		zap.String("label", prediction.Label),
		zap.Float64("confidence", prediction.Confidence),
	)
	return prediction, nil
}

var _ port.Predictor = (*PredictorClient)(nil)
