package usecase

import (
	"context"

	"network20-backend/internal/domain"
)

// HealthProbe reports whether one dependency is reachable.
type HealthProbe func(ctx context.Context) error

type HealthUsecase interface {
	Check(ctx context.Context) map[string]string
}

type healthUsecase struct {
	mode   domain.StoreMode
	probes map[string]HealthProbe
}

func NewHealthUsecase(mode domain.StoreMode, probes map[string]HealthProbe) HealthUsecase {
	return &healthUsecase{mode: mode, probes: probes}
}

// Check reports "ok" overall only when every probe passes.
func (u *healthUsecase) Check(ctx context.Context) map[string]string {
	result := map[string]string{
		"status": "ok",
		"mode":   string(u.mode),
	}
	for name, probe := range u.probes {
		if err := probe(ctx); err != nil {
			result[name] = err.Error()
			result["status"] = "degraded"
			continue
		}
		result[name] = "ok"
	}
	return result
}
