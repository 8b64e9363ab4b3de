package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/arturkryukov/plantstore/internal/domain/model"
)

// plantColumns — список столбцов таблицы plants для SELECT-запросов.
// DRY: одно место для всех SELECT'ов.
const plantColumns = `id, plant_name, image_url, description, care_tips,
	long_harvest_time, plain_type, soil_type, water_availability,
	planting_season, created_at, updated_at`

// PlantRepository — интерфейс доступа к каталогу растений.
type PlantRepository interface {
	// Create сохраняет новое растение. Заполняет ID, CreatedAt, UpdatedAt.
	Create(ctx context.Context, p *model.Plant) error
	// GetByID возвращает растение по UUID или ErrNotFound.
	GetByID(ctx context.Context, id string) (*model.Plant, error)
	// List возвращает страницу растений (сортировка: created_at DESC)
	// и общее количество записей в каталоге.
	List(ctx context.Context, limit, offset int) ([]*model.Plant, int, error)
	// Update обновляет растение целиком. ErrNotFound, если записи нет.
	Update(ctx context.Context, p *model.Plant) error
	// Delete удаляет растение. ErrNotFound, если записи нет.
	Delete(ctx context.Context, id string) error
}

// plantRepo — реализация PlantRepository через pgx.
type plantRepo struct {
	db DBTX
}

// NewPlantRepository создаёт репозиторий растений.
func NewPlantRepository(db DBTX) PlantRepository {
	return &plantRepo{db: db}
}

// Create вставляет запись. ID и временные метки генерирует PostgreSQL.
func (r *plantRepo) Create(ctx context.Context, p *model.Plant) error {
	query := `
		INSERT INTO plants (plant_name, image_url, description, care_tips,
			long_harvest_time, plain_type, soil_type, water_availability,
			planting_season)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		p.PlantName, p.ImageURL, p.Description, p.CareTips,
		p.LongHarvestTime, p.PlainType, p.SoilType, p.WaterAvailability,
		p.PlantingSeason,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("ошибка создания растения: %w", err)
	}
	return nil
}

// GetByID возвращает растение по UUID или ErrNotFound.
func (r *plantRepo) GetByID(ctx context.Context, id string) (*model.Plant, error) {
	query := fmt.Sprintf(`SELECT %s FROM plants WHERE id = $1`, plantColumns)

	p := &model.Plant{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.PlantName, &p.ImageURL, &p.Description, &p.CareTips,
		&p.LongHarvestTime, &p.PlainType, &p.SoilType, &p.WaterAvailability,
		&p.PlantingSeason, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения растения: %w", err)
	}
	return p, nil
}

// List возвращает страницу растений (новые первыми) и общее количество.
func (r *plantRepo) List(ctx context.Context, limit, offset int) ([]*model.Plant, int, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM plants ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		plantColumns,
	)

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения списка растений: %w", err)
	}
	defer rows.Close()

	var result []*model.Plant
	for rows.Next() {
		p := &model.Plant{}
		if err := rows.Scan(
			&p.ID, &p.PlantName, &p.ImageURL, &p.Description, &p.CareTips,
			&p.LongHarvestTime, &p.PlainType, &p.SoilType, &p.WaterAvailability,
			&p.PlantingSeason, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("ошибка сканирования растения: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("ошибка итерации результатов: %w", err)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM plants`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчёта растений: %w", err)
	}

	return result, total, nil
}

// Update обновляет все поля растения. updated_at выставляет PostgreSQL.
func (r *plantRepo) Update(ctx context.Context, p *model.Plant) error {
	query := `
		UPDATE plants
		SET plant_name = $2, image_url = $3, description = $4, care_tips = $5,
			long_harvest_time = $6, plain_type = $7, soil_type = $8,
			water_availability = $9, planting_season = $10,
			updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRow(ctx, query,
		p.ID, p.PlantName, p.ImageURL, p.Description, p.CareTips,
		p.LongHarvestTime, p.PlainType, p.SoilType, p.WaterAvailability,
		p.PlantingSeason,
	).Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("ошибка обновления растения: %w", err)
	}
	return nil
}

// Delete удаляет запись растения.
func (r *plantRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM plants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления растения: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
