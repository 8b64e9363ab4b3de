// validate.go — валидация входных полей растения и загружаемых изображений.
// Без побочных эффектов: валидатор возвращает первое нарушение.
package service

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/arturkryukov/plantstore/internal/domain/model"
)

// presenceOrder — фиксированный порядок проверки обязательности полей.
// Клиенту возвращается первое отсутствующее поле.
var presenceOrder = []string{
	"plantName", "careTips", "description", "longHarvestTime",
	"plainType", "plantingSeason", "soilType", "waterAvailability",
}

// allowedImageExtensions — допустимые расширения загружаемых изображений.
var allowedImageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

// fieldValue возвращает значение поля по его внешнему имени.
func fieldValue(f *model.PlantFields, name string) string {
	switch name {
	case "plantName":
		return f.PlantName
	case "careTips":
		return f.CareTips
	case "description":
		return f.Description
	case "longHarvestTime":
		return f.LongHarvestTime
	case "plainType":
		return f.PlainType
	case "plantingSeason":
		return f.PlantingSeason
	case "soilType":
		return f.SoilType
	case "waterAvailability":
		return f.WaterAvailability
	}
	return ""
}

// ValidateCreate проверяет полный набор полей при создании записи.
// Сначала обязательность всех восьми полей (в фиксированном порядке),
// затем принадлежность категориальных значений словарям. Возвращает
// первое нарушение или nil. Устойчиво к регистру: категориальные
// значения сравниваются в нижнем регистре.
func ValidateCreate(f *model.PlantFields) *ValidationError {
	for _, name := range presenceOrder {
		if strings.TrimSpace(fieldValue(f, name)) == "" {
			return NewValidationError(name, "поле обязательно и не может быть пустым")
		}
	}
	return validateCategories(f, false)
}

// ValidatePartial проверяет частичный набор полей при обновлении.
// Пустое поле означает "не менять" и не проверяется; непустые
// категориальные значения обязаны принадлежать словарям.
func ValidatePartial(f *model.PlantFields) *ValidationError {
	return validateCategories(f, true)
}

// validateCategories проверяет категориальные поля в фиксированном порядке:
// plainType, soilType, waterAvailability, plantingSeason.
func validateCategories(f *model.PlantFields, skipEmpty bool) *ValidationError {
	checks := []struct {
		field   string
		value   string
		allowed []string
	}{
		{"plainType", f.PlainType, model.PlainTypes},
		{"soilType", f.SoilType, model.SoilTypes},
		{"waterAvailability", f.WaterAvailability, model.WaterAvailabilities},
		{"plantingSeason", f.PlantingSeason, model.PlantingSeasons},
	}

	for _, c := range checks {
		if skipEmpty && strings.TrimSpace(c.value) == "" {
			continue
		}
		if !containsFold(c.allowed, c.value) {
			return NewValidationError(c.field, fmt.Sprintf(
				"недопустимое значение %q, допустимые: %s",
				c.value, strings.Join(c.allowed, ", "),
			))
		}
	}
	return nil
}

// NormalizeFields приводит категориальные поля к нижнему регистру
// (канонический вид для хранения) и обрезает пробелы у текстовых.
func NormalizeFields(f *model.PlantFields) {
	f.PlantName = strings.TrimSpace(f.PlantName)
	f.CareTips = strings.TrimSpace(f.CareTips)
	f.Description = strings.TrimSpace(f.Description)
	f.LongHarvestTime = strings.TrimSpace(f.LongHarvestTime)
	f.PlainType = strings.ToLower(strings.TrimSpace(f.PlainType))
	f.SoilType = strings.ToLower(strings.TrimSpace(f.SoilType))
	f.WaterAvailability = strings.ToLower(strings.TrimSpace(f.WaterAvailability))
	f.PlantingSeason = strings.ToLower(strings.TrimSpace(f.PlantingSeason))
}

// ValidateImage проверяет расширение и размер загружаемого изображения.
// Возвращает ValidationError для клиента.
func ValidateImage(filename string, size, maxSize int64) *ValidationError {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedImageExtensions[ext] {
		return NewValidationError("images", fmt.Sprintf(
			"недопустимый тип файла %q, допустимые: png, jpg, jpeg, gif", ext,
		))
	}
	if maxSize > 0 && size > maxSize {
		return NewValidationError("images", fmt.Sprintf(
			"размер файла %d байт превышает лимит %d байт", size, maxSize,
		))
	}
	return nil
}

// containsFold проверяет вхождение строки в список без учёта регистра.
func containsFold(list []string, v string) bool {
	v = strings.TrimSpace(v)
	for _, item := range list {
		if strings.EqualFold(item, v) {
			return true
		}
	}
	return false
}
