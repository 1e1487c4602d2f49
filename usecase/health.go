package usecase

import (
	"context"

	"github.com/dennis-nst/no-lose/core/config"
	domainHealth "github.com/dennis-nst/no-lose/domains/health"
	"gorm.io/gorm"
)

type healthService struct {
	db *gorm.DB
}

func NewHealthService(db *gorm.DB) domainHealth.IHealthUsecase {
	return &healthService{db: db}
}

func (service *healthService) Check(ctx context.Context) domainHealth.HealthStatus {
	status := domainHealth.HealthStatus{
		Status:   "ok",
		Version:  config.AppVersion,
		Database: "ok",
	}

	sqlDB, err := service.db.WithContext(ctx).DB()
	if err != nil || sqlDB.PingContext(ctx) != nil {
		status.Status = "degraded"
		status.Database = "unreachable"
	}
	return status
}
