// Пакет model — доменные модели Plantstore.
// Plant — запись каталога растений (таблица plants).
package model

import "time"

// NoImage — sentinel-значение imageURL для записи без изображения.
const NoImage = "-"

// Допустимые значения категориальных полей.
// Вход сравнивается без учёта регистра, хранится в нижнем регистре.
var (
	// PlainTypes — типы местности.
	PlainTypes = []string{"low", "high", "slope"}
	// SoilTypes — типы почвы.
	SoilTypes = []string{"clay", "sandy", "peat", "humus"}
	// WaterAvailabilities — доступность воды.
	WaterAvailabilities = []string{"abundant", "moderate", "limited"}
	// PlantingSeasons — сезоны посадки.
	PlantingSeasons = []string{"rainy", "dry", "transitional"}
)

// Plant — запись растения в каталоге.
type Plant struct {
	// ID — UUID записи (назначается БД при создании, неизменяемый)
	ID string
	// PlantName — название растения
	PlantName string
	// ImageURL — URL изображения или NoImage ("-")
	ImageURL string
	// Description — описание растения
	Description string
	// CareTips — советы по уходу
	CareTips string
	// LongHarvestTime — срок до сбора урожая
	LongHarvestTime string
	// PlainType — тип местности: low, high, slope
	PlainType string
	// SoilType — тип почвы: clay, sandy, peat, humus
	SoilType string
	// WaterAvailability — доступность воды: abundant, moderate, limited
	WaterAvailability string
	// PlantingSeason — сезон посадки: rainy, dry, transitional
	PlantingSeason string
	// CreatedAt — время создания записи
	CreatedAt time.Time
	// UpdatedAt — время последнего обновления
	UpdatedAt time.Time
}

// PlantFields — входной набор полей записи (без ID, imageURL и timestamps).
// При создании все поля обязательны; при обновлении пустая строка
// означает "поле не менять".
type PlantFields struct {
	PlantName         string
	CareTips          string
	Description       string
	LongHarvestTime   string
	PlainType         string
	PlantingSeason    string
	SoilType          string
	WaterAvailability string
}
