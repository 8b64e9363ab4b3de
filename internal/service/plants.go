// Пакет service — бизнес-логика Plantstore.
// PlantService — оркестрация операций над записями растений:
// валидация → (опционально) сохранение изображения → запись в БД.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/arturkryukov/plantstore/internal/assetstore"
	"github.com/arturkryukov/plantstore/internal/domain/model"
	"github.com/arturkryukov/plantstore/internal/repository"
)

// Бизнес-метрики Plantstore.
var (
	// plantsTotal поддерживается единственным способом: выставляется
	// из COUNT(*) при листинге. Inc/Dec в Create/Delete не используются,
	// иначе при конкурентных операциях значение расходится с базой.
	plantsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ps_plants_total",
		Help: "Количество записей растений в каталоге по данным последнего листинга.",
	})
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ps_operations_total",
		Help: "Общее количество операций над записями растений.",
	}, []string{"operation", "result"})
)

// ImageUpload — загружаемое изображение из multipart-запроса.
type ImageUpload struct {
	// Reader — содержимое файла
	Reader io.Reader
	// Filename — оригинальное имя файла
	Filename string
	// Size — размер в байтах (из multipart header)
	Size int64
}

// PlantPage — страница каталога с метаданными пагинации.
type PlantPage struct {
	Items       []*model.Plant
	CurrentPage int
	TotalItems  int
	TotalPages  int
}

// PlantService — сервис операций над каталогом растений.
// Зависимости передаются явно при конструировании (без глобальных синглтонов).
type PlantService struct {
	repo          repository.PlantRepository
	assets        assetstore.Store
	cache         *PlantCache
	maxUploadSize int64
	logger        *slog.Logger
}

// NewPlantService создаёт сервис каталога растений.
func NewPlantService(
	repo repository.PlantRepository,
	assets assetstore.Store,
	cache *PlantCache,
	maxUploadSize int64,
	logger *slog.Logger,
) *PlantService {
	return &PlantService{
		repo:          repo,
		assets:        assets,
		cache:         cache,
		maxUploadSize: maxUploadSize,
		logger:        logger.With(slog.String("component", "plant_service")),
	}
}

// Create создаёт запись растения.
// Порядок: валидация всех полей → сохранение изображения (если есть) →
// запись в БД. При ошибке хранилища изображений запись не создаётся;
// при ошибке БД уже сохранённое изображение удаляется best-effort.
func (s *PlantService) Create(ctx context.Context, fields *model.PlantFields, img *ImageUpload) (*model.Plant, error) {
	// Сначала валидация полей — чтобы не загружать изображение впустую
	if verr := ValidateCreate(fields); verr != nil {
		operationsTotal.WithLabelValues("create", "error").Inc()
		return nil, verr
	}
	if img != nil {
		if verr := ValidateImage(img.Filename, img.Size, s.maxUploadSize); verr != nil {
			operationsTotal.WithLabelValues("create", "error").Inc()
			return nil, verr
		}
	}
	NormalizeFields(fields)

	imageURL := model.NoImage
	if img != nil {
		asset, err := s.assets.Save(ctx, img.Reader, img.Filename)
		if err != nil {
			operationsTotal.WithLabelValues("create", "error").Inc()
			return nil, fmt.Errorf("%w: %w", ErrAssetStore, err)
		}
		imageURL = asset.URL
	}

	p := &model.Plant{
		PlantName:         fields.PlantName,
		ImageURL:          imageURL,
		Description:       fields.Description,
		CareTips:          fields.CareTips,
		LongHarvestTime:   fields.LongHarvestTime,
		PlainType:         fields.PlainType,
		SoilType:          fields.SoilType,
		WaterAvailability: fields.WaterAvailability,
		PlantingSeason:    fields.PlantingSeason,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		// Не оставляем осиротевшее изображение при сбое БД
		if imageURL != model.NoImage {
			s.assets.Reclaim(ctx, imageURL)
		}
		operationsTotal.WithLabelValues("create", "error").Inc()
		return nil, fmt.Errorf("ошибка создания записи: %w", err)
	}

	s.cache.Set(p.ID, p)
	operationsTotal.WithLabelValues("create", "success").Inc()

	s.logger.Info("Растение создано",
		slog.String("id", p.ID),
		slog.String("plant_name", p.PlantName),
	)
	return p, nil
}

// List возвращает страницу каталога (новые первыми).
// Пустая страница при валидных параметрах — ErrNotFound
// (политика «пустой результат как not found»).
func (s *PlantService) List(ctx context.Context, page, limit int) (*PlantPage, error) {
	if page < 1 {
		return nil, fmt.Errorf("%w: номер страницы должен быть положительным", ErrBadRequest)
	}
	if limit < 1 {
		return nil, fmt.Errorf("%w: размер страницы должен быть положительным", ErrBadRequest)
	}

	offset := (page - 1) * limit
	items, total, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		operationsTotal.WithLabelValues("list", "error").Inc()
		return nil, fmt.Errorf("ошибка получения списка: %w", err)
	}

	plantsTotal.Set(float64(total))

	if len(items) == 0 {
		operationsTotal.WithLabelValues("list", "error").Inc()
		return nil, fmt.Errorf("%w: страница %d пуста", ErrNotFound, page)
	}

	operationsTotal.WithLabelValues("list", "success").Inc()
	return &PlantPage{
		Items:       items,
		CurrentPage: page,
		TotalItems:  total,
		TotalPages:  (total + limit - 1) / limit,
	}, nil
}

// GetByID возвращает запись по идентификатору (с учётом LRU-кэша).
func (s *PlantService) GetByID(ctx context.Context, id string) (*model.Plant, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: идентификатор не указан", ErrBadRequest)
	}

	if p, ok := s.cache.Get(id); ok {
		return p, nil
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: id=%s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("ошибка получения записи: %w", err)
	}

	s.cache.Set(id, p)
	return p, nil
}

// Update обновляет запись (полностью или частично), опционально заменяя
// изображение. Порядок замены: сначала сохраняется новое изображение,
// и только после подтверждения — удаляется старое. При сбое сохранения
// старое изображение остаётся доступным, операция завершается ошибкой.
func (s *PlantService) Update(ctx context.Context, id string, fields *model.PlantFields, img *ImageUpload) (*model.Plant, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: идентификатор не указан", ErrBadRequest)
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			operationsTotal.WithLabelValues("update", "error").Inc()
			return nil, fmt.Errorf("%w: id=%s", ErrNotFound, id)
		}
		operationsTotal.WithLabelValues("update", "error").Inc()
		return nil, fmt.Errorf("ошибка получения записи: %w", err)
	}

	if verr := ValidatePartial(fields); verr != nil {
		operationsTotal.WithLabelValues("update", "error").Inc()
		return nil, verr
	}
	if img != nil {
		if verr := ValidateImage(img.Filename, img.Size, s.maxUploadSize); verr != nil {
			operationsTotal.WithLabelValues("update", "error").Inc()
			return nil, verr
		}
	}
	NormalizeFields(fields)

	imageURL := current.ImageURL
	if img != nil {
		asset, err := s.assets.Save(ctx, img.Reader, img.Filename)
		if err != nil {
			operationsTotal.WithLabelValues("update", "error").Inc()
			return nil, fmt.Errorf("%w: %w", ErrAssetStore, err)
		}
		// Старое изображение удаляем только после успешного сохранения нового
		s.reclaimOld(ctx, current.ImageURL)
		imageURL = asset.URL
	}

	applyFields(current, fields)
	current.ImageURL = imageURL

	if err := s.repo.Update(ctx, current); err != nil {
		operationsTotal.WithLabelValues("update", "error").Inc()
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: id=%s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("ошибка обновления записи: %w", err)
	}

	s.cache.Set(id, current)
	operationsTotal.WithLabelValues("update", "success").Inc()

	s.logger.Info("Растение обновлено", slog.String("id", id))
	return current, nil
}

// Delete удаляет запись растения. Удаление изображения — best-effort:
// сбой очистки логируется, но не препятствует удалению записи.
func (s *PlantService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: идентификатор не указан", ErrBadRequest)
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			operationsTotal.WithLabelValues("delete", "error").Inc()
			return fmt.Errorf("%w: id=%s", ErrNotFound, id)
		}
		operationsTotal.WithLabelValues("delete", "error").Inc()
		return fmt.Errorf("ошибка получения записи: %w", err)
	}

	s.reclaimOld(ctx, current.ImageURL)

	if err := s.repo.Delete(ctx, id); err != nil {
		operationsTotal.WithLabelValues("delete", "error").Inc()
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: id=%s", ErrNotFound, id)
		}
		return fmt.Errorf("ошибка удаления записи: %w", err)
	}

	s.cache.Delete(id)
	operationsTotal.WithLabelValues("delete", "success").Inc()

	s.logger.Info("Растение удалено", slog.String("id", id))
	return nil
}

// reclaimOld удаляет прежнее изображение записи, если оно есть
// и принадлежит управляемому хранилищу. Сбой — warning, не ошибка.
func (s *PlantService) reclaimOld(ctx context.Context, imageURL string) {
	if imageURL == model.NoImage || !s.assets.Owns(imageURL) {
		return
	}
	if !s.assets.Reclaim(ctx, imageURL) {
		s.logger.Warn("Не удалось удалить прежнее изображение",
			slog.String("url", imageURL),
		)
	}
}

// applyFields переносит непустые поля входного набора в запись.
func applyFields(p *model.Plant, f *model.PlantFields) {
	if f.PlantName != "" {
		p.PlantName = f.PlantName
	}
	if f.CareTips != "" {
		p.CareTips = f.CareTips
	}
	if f.Description != "" {
		p.Description = f.Description
	}
	if f.LongHarvestTime != "" {
		p.LongHarvestTime = f.LongHarvestTime
	}
	if f.PlainType != "" {
		p.PlainType = f.PlainType
	}
	if f.SoilType != "" {
		p.SoilType = f.SoilType
	}
	if f.WaterAvailability != "" {
		p.WaterAvailability = f.WaterAvailability
	}
	if f.PlantingSeason != "" {
		p.PlantingSeason = f.PlantingSeason
	}
}
