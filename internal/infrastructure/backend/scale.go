package backend

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/url"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"soil-bot/internal/domain/entity"
	"soil-bot/internal/domain/port"
)

// ScaleClient клиент контроллера весов (/api/command)
type ScaleClient struct {
	*Client
}

func NewScaleClient(c *Client) *ScaleClient {
	return &ScaleClient{Client: c}
}

// Send отправляет команду GET-запросом.
func (c *ScaleClient) Send(ctx context.Context, cmd entity.Command) (*entity.ScaleResponse, error) {
	if cmd == entity.CommandSand {
		return nil, eris.New("scale: command 3 requires authorization, use the classifier")
	}

	data, err := c.do(ctx, http.MethodGet, "/api/command?input="+url.QueryEscape(string(cmd)), nil, nil)
	if err != nil {
		return nil, eris.Wrapf(err, "scale: command %s", cmd)
	}
	resp, err := ParseCommandResponse(data)
	if err != nil {
		return nil, err
	}

	c.log.Debug("scale response", zap.String("command", string(cmd)), zap.String("kind", string(resp.Kind)))
	return resp, nil
}

// ClassifierClient финальное взвешивание с классификацией и сохранением.
type ClassifierClient struct {
	*Client
}

func NewClassifierClient(c *Client) *ClassifierClient {
	return &ClassifierClient{Client: c}
}

type classifyRequest struct {
	Input         string  `json:"input"`
	ImageSoilType *string `json:"image_soil_type"`
	ImageData     *string `json:"image_data"`
	Location      *string `json:"location"`
}

// Classify отправляет команду 3 POST-запросом с bearer-токеном.
func (c *ClassifierClient) Classify(ctx context.Context, auth entity.Auth, req entity.ClassificationRequest) (*entity.ScaleResponse, error) {
	if !auth.Valid() {
		return nil, eris.New("classifier: user not authenticated")
	}

	body := classifyRequest{
		Input:         string(entity.CommandSand),
		ImageSoilType: optional(req.ImageSoilType),
		Location:      optional(req.Location),
	}
	if len(req.Image) > 0 {
		encoded := base64.StdEncoding.EncodeToString(req.Image)
		body.ImageData = &encoded
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+auth.Token)

	data, err := c.do(ctx, http.MethodPost, "/api/command", body, header)
	if err != nil {
		return nil, eris.Wrap(err, "classifier: classify")
	}
	resp, err := ParseCommandResponse(data)
	if err != nil {
		return nil, err
	}

	c.log.Info("sample classified", zap.String("soil_type", resp.SoilType), zap.String("save_status", resp.SaveStatus))
	return resp, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

var (
	_ port.Scale      = (*ScaleClient)(nil)
	_ port.Classifier = (*ClassifierClient)(nil)
)
