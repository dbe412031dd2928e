package container

import (
	"go.uber.org/zap"

	app "soil-bot/internal/application"
	"soil-bot/internal/domain/port"
)

type Container struct {
	OperatorService *app.OperatorService
	AnalysisService *app.AnalysisService
}

func New(operatorRepo port.OperatorRepository, ext app.Collaborators, log *zap.Logger) *Container {
	operatorService := app.NewOperatorService(operatorRepo)
	analysisService := app.NewAnalysisService(operatorRepo, ext, log)

	return &Container{
		OperatorService: operatorService,
		AnalysisService: analysisService,
	}
}
