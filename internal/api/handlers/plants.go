// plants.go — HTTP-обработчики каталога растений.
// POST /plant, GET /plant, GET /plant/{id}, PUT /plant/{id}, DELETE /plant/{id}.
// Поля принимаются как multipart/form-data (с файлом в поле images)
// или как JSON-тело без изображения.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/arturkryukov/plantstore/internal/api/errors"
	"github.com/arturkryukov/plantstore/internal/domain/model"
	"github.com/arturkryukov/plantstore/internal/service"
)

// Параметры пагинации по умолчанию.
const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// maxMultipartMemory — лимит памяти для разбора multipart-формы (32 MiB).
const maxMultipartMemory = 32 << 20

// PlantHandler — обработчик endpoints каталога растений.
type PlantHandler struct {
	plants *service.PlantService
	logger *slog.Logger
}

// NewPlantHandler создаёт обработчик каталога растений.
func NewPlantHandler(plants *service.PlantService, logger *slog.Logger) *PlantHandler {
	return &PlantHandler{
		plants: plants,
		logger: logger.With(slog.String("component", "plant_handler")),
	}
}

// plantForm — JSON-представление входных полей (для запросов без изображения).
type plantForm struct {
	PlantName         string `json:"plantName"`
	CareTips          string `json:"careTips"`
	Description       string `json:"description"`
	LongHarvestTime   string `json:"longHarvestTime"`
	PlainType         string `json:"plainType"`
	PlantingSeason    string `json:"plantingSeason"`
	SoilType          string `json:"soilType"`
	WaterAvailability string `json:"waterAvailability"`
}

// parsePlantRequest извлекает поля растения и опциональное изображение.
// Возвращает функцию освобождения ресурсов (файл multipart-формы).
func parsePlantRequest(r *http.Request) (*model.PlantFields, *service.ImageUpload, func(), error) {
	noop := func() {}

	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			return nil, nil, noop, err
		}

		fields := &model.PlantFields{
			PlantName:         r.FormValue("plantName"),
			CareTips:          r.FormValue("careTips"),
			Description:       r.FormValue("description"),
			LongHarvestTime:   r.FormValue("longHarvestTime"),
			PlainType:         r.FormValue("plainType"),
			PlantingSeason:    r.FormValue("plantingSeason"),
			SoilType:          r.FormValue("soilType"),
			WaterAvailability: r.FormValue("waterAvailability"),
		}

		file, header, err := r.FormFile("images")
		if err != nil {
			if err == http.ErrMissingFile {
				return fields, nil, noop, nil
			}
			return nil, nil, noop, err
		}

		img := &service.ImageUpload{
			Reader:   file,
			Filename: header.Filename,
			Size:     header.Size,
		}
		return fields, img, func() { file.Close() }, nil
	}

	// JSON-тело без изображения
	var form plantForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		return nil, nil, noop, err
	}
	return &model.PlantFields{
		PlantName:         form.PlantName,
		CareTips:          form.CareTips,
		Description:       form.Description,
		LongHarvestTime:   form.LongHarvestTime,
		PlainType:         form.PlainType,
		PlantingSeason:    form.PlantingSeason,
		SoilType:          form.SoilType,
		WaterAvailability: form.WaterAvailability,
	}, nil, noop, nil
}

// Create — POST /plant. Создаёт запись растения, опционально с изображением.
func (h *PlantHandler) Create(w http.ResponseWriter, r *http.Request) {
	fields, img, cleanup, err := parsePlantRequest(r)
	if err != nil {
		apierrors.BadRequest(w, "не удалось разобрать тело запроса")
		return
	}
	defer cleanup()

	p, err := h.plants.Create(r.Context(), fields, img)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, toPlantResponse(p))
}

// List — GET /plant. Постраничная выдача каталога (новые первыми).
// Query-параметры: page (по умолчанию 1), limit (по умолчанию 10, максимум 100).
func (h *PlantHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", defaultPage)
	if err != nil {
		apierrors.BadRequest(w, "параметр page должен быть целым числом")
		return
	}
	limit, err := queryInt(r, "limit", defaultLimit)
	if err != nil {
		apierrors.BadRequest(w, "параметр limit должен быть целым числом")
		return
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	result, err := h.plants.List(r.Context(), page, limit)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	resp := plantListResponse{
		Items:       make([]plantResponse, 0, len(result.Items)),
		CurrentPage: result.CurrentPage,
		TotalItems:  result.TotalItems,
		TotalPages:  result.TotalPages,
	}
	for _, p := range result.Items {
		resp.Items = append(resp.Items, toPlantResponse(p))
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get — GET /plant/{id}. Возвращает запись по идентификатору.
func (h *PlantHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := h.plants.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, toPlantResponse(p))
}

// Update — PUT /plant/{id}. Обновляет поля (полностью или частично),
// опционально заменяя изображение.
func (h *PlantHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	fields, img, cleanup, err := parsePlantRequest(r)
	if err != nil {
		apierrors.BadRequest(w, "не удалось разобрать тело запроса")
		return
	}
	defer cleanup()

	p, err := h.plants.Update(r.Context(), id, fields, img)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, toPlantResponse(p))
}

// Delete — DELETE /plant/{id}. Удаляет запись и best-effort её изображение.
func (h *PlantHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.plants.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "растение удалено"})
}

// queryInt читает целочисленный query-параметр со значением по умолчанию.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
