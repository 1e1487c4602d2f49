package health

import "context"

type HealthStatus struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Database string `json:"database"`
}

type IHealthUsecase interface {
	Check(ctx context.Context) HealthStatus
}
