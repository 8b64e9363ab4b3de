// handler.go — общие структуры и вспомогательные функции обработчиков API.
// DTO ответов сериализуются в camelCase, доменные модели наружу не отдаются.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	apierrors "github.com/arturkryukov/plantstore/internal/api/errors"
	"github.com/arturkryukov/plantstore/internal/domain/model"
	"github.com/arturkryukov/plantstore/internal/service"
)

// plantResponse — DTO записи растения в ответах API.
type plantResponse struct {
	ID                string    `json:"id"`
	PlantName         string    `json:"plantName"`
	ImageURL          string    `json:"imageUrl"`
	Description       string    `json:"description"`
	CareTips          string    `json:"careTips"`
	LongHarvestTime   string    `json:"longHarvestTime"`
	PlainType         string    `json:"plainType"`
	SoilType          string    `json:"soilType"`
	WaterAvailability string    `json:"waterAvailability"`
	PlantingSeason    string    `json:"plantingSeason"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// plantListResponse — DTO страницы каталога с метаданными пагинации.
type plantListResponse struct {
	Items       []plantResponse `json:"items"`
	CurrentPage int             `json:"currentPage"`
	TotalItems  int             `json:"totalItems"`
	TotalPages  int             `json:"totalPages"`
}

// messageResponse — DTO подтверждения операции.
type messageResponse struct {
	Message string `json:"message"`
}

// toPlantResponse преобразует доменную модель в DTO ответа.
func toPlantResponse(p *model.Plant) plantResponse {
	return plantResponse{
		ID:                p.ID,
		PlantName:         p.PlantName,
		ImageURL:          p.ImageURL,
		Description:       p.Description,
		CareTips:          p.CareTips,
		LongHarvestTime:   p.LongHarvestTime,
		PlainType:         p.PlainType,
		SoilType:          p.SoilType,
		WaterAvailability: p.WaterAvailability,
		PlantingSeason:    p.PlantingSeason,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeServiceError транслирует ошибку сервисного слоя в HTTP-ответ.
// Детали неожиданных ошибок клиенту не раскрываются — только лог.
func writeServiceError(w http.ResponseWriter, err error, logger *slog.Logger) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		apierrors.ValidationError(w, verr.Field+": "+verr.Message)
	case errors.Is(err, service.ErrBadRequest):
		apierrors.BadRequest(w, err.Error())
	case errors.Is(err, service.ErrNotFound):
		apierrors.NotFound(w, err.Error())
	case errors.Is(err, service.ErrAssetStore):
		apierrors.AssetStoreError(w, service.ErrAssetStore.Error())
	default:
		logger.Error("Необработанная ошибка сервисного слоя", slog.String("error", err.Error()))
		apierrors.InternalError(w, "внутренняя ошибка сервера")
	}
}
