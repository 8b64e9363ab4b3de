package service

import (
	"strings"
	"testing"

	"github.com/arturkryukov/plantstore/internal/domain/model"
)

// validFields возвращает полный валидный набор полей.
func validFields() *model.PlantFields {
	return &model.PlantFields{
		PlantName:         "Томат",
		CareTips:          "Поливать раз в неделю",
		Description:       "Однолетнее растение",
		LongHarvestTime:   "90 дней",
		PlainType:         "low",
		PlantingSeason:    "rainy",
		SoilType:          "humus",
		WaterAvailability: "moderate",
	}
}

// TestValidateCreate_Valid проверяет, что полный корректный набор проходит.
func TestValidateCreate_Valid(t *testing.T) {
	if verr := ValidateCreate(validFields()); verr != nil {
		t.Fatalf("неожиданная ошибка валидации: %v", verr)
	}
}

// TestValidateCreate_MissingFields проверяет обязательность каждого из
// восьми полей и то, что возвращается именно первое отсутствующее.
func TestValidateCreate_MissingFields(t *testing.T) {
	clear := map[string]func(*model.PlantFields){
		"plantName":         func(f *model.PlantFields) { f.PlantName = "" },
		"careTips":          func(f *model.PlantFields) { f.CareTips = "" },
		"description":       func(f *model.PlantFields) { f.Description = "  " },
		"longHarvestTime":   func(f *model.PlantFields) { f.LongHarvestTime = "" },
		"plainType":         func(f *model.PlantFields) { f.PlainType = "" },
		"plantingSeason":    func(f *model.PlantFields) { f.PlantingSeason = "" },
		"soilType":          func(f *model.PlantFields) { f.SoilType = "" },
		"waterAvailability": func(f *model.PlantFields) { f.WaterAvailability = "" },
	}

	for field, clearFn := range clear {
		f := validFields()
		clearFn(f)

		verr := ValidateCreate(f)
		if verr == nil {
			t.Errorf("поле %s: ожидалась ошибка валидации", field)
			continue
		}
		if verr.Field != field {
			t.Errorf("ожидалось поле %s, получено %s", field, verr.Field)
		}
	}
}

// TestValidateCreate_PresenceOrder проверяет фиксированный порядок проверок:
// при нескольких пустых полях возвращается первое по порядку.
func TestValidateCreate_PresenceOrder(t *testing.T) {
	f := validFields()
	f.CareTips = ""
	f.SoilType = ""

	verr := ValidateCreate(f)
	if verr == nil {
		t.Fatal("ожидалась ошибка валидации")
	}
	if verr.Field != "careTips" {
		t.Errorf("ожидалось первое по порядку поле careTips, получено %s", verr.Field)
	}
}

// TestValidateCreate_Categories проверяет словари категориальных полей.
func TestValidateCreate_Categories(t *testing.T) {
	tests := []struct {
		field string
		set   func(*model.PlantFields, string)
	}{
		{"plainType", func(f *model.PlantFields, v string) { f.PlainType = v }},
		{"soilType", func(f *model.PlantFields, v string) { f.SoilType = v }},
		{"waterAvailability", func(f *model.PlantFields, v string) { f.WaterAvailability = v }},
		{"plantingSeason", func(f *model.PlantFields, v string) { f.PlantingSeason = v }},
	}

	for _, tt := range tests {
		f := validFields()
		tt.set(f, "nonsense")

		verr := ValidateCreate(f)
		if verr == nil {
			t.Errorf("поле %s: значение вне словаря должно отклоняться", tt.field)
			continue
		}
		if verr.Field != tt.field {
			t.Errorf("ожидалось поле %s, получено %s", tt.field, verr.Field)
		}
		if !strings.Contains(verr.Message, "допустимые") {
			t.Errorf("сообщение должно перечислять допустимые значения: %s", verr.Message)
		}
	}
}

// TestValidateCreate_CaseInsensitive проверяет устойчивость к регистру.
func TestValidateCreate_CaseInsensitive(t *testing.T) {
	f := validFields()
	f.PlainType = "LOW"
	f.SoilType = "Humus"
	f.WaterAvailability = "MODERATE"
	f.PlantingSeason = "Rainy"

	if verr := ValidateCreate(f); verr != nil {
		t.Fatalf("значения в другом регистре должны приниматься: %v", verr)
	}
}

// TestValidatePartial проверяет частичную валидацию: пустые поля
// пропускаются, непустые категориальные проверяются.
func TestValidatePartial(t *testing.T) {
	f := &model.PlantFields{PlantName: "Огурец"}
	if verr := ValidatePartial(f); verr != nil {
		t.Fatalf("частичный набор без категорий должен проходить: %v", verr)
	}

	f.SoilType = "granite"
	verr := ValidatePartial(f)
	if verr == nil {
		t.Fatal("недопустимое категориальное значение должно отклоняться")
	}
	if verr.Field != "soilType" {
		t.Errorf("ожидалось поле soilType, получено %s", verr.Field)
	}
}

// TestNormalizeFields проверяет приведение к каноническому виду.
func TestNormalizeFields(t *testing.T) {
	f := &model.PlantFields{
		PlantName:         "  Томат  ",
		PlainType:         "LOW",
		SoilType:          " Humus ",
		WaterAvailability: "Moderate",
		PlantingSeason:    "RAINY",
	}
	NormalizeFields(f)

	if f.PlantName != "Томат" {
		t.Errorf("пробелы не обрезаны: %q", f.PlantName)
	}
	if f.PlainType != "low" || f.SoilType != "humus" ||
		f.WaterAvailability != "moderate" || f.PlantingSeason != "rainy" {
		t.Errorf("категории не приведены к нижнему регистру: %+v", f)
	}
}

// TestValidateImage проверяет allow-list расширений и лимит размера.
func TestValidateImage(t *testing.T) {
	for _, name := range []string{"a.png", "b.jpg", "c.JPEG", "d.gif"} {
		if verr := ValidateImage(name, 1024, 5*1024*1024); verr != nil {
			t.Errorf("файл %s должен приниматься: %v", name, verr)
		}
	}

	if verr := ValidateImage("malware.exe", 1024, 5*1024*1024); verr == nil {
		t.Error("недопустимое расширение должно отклоняться")
	}
	if verr := ValidateImage("big.png", 10*1024*1024, 5*1024*1024); verr == nil {
		t.Error("превышение лимита размера должно отклоняться")
	}
	if verr := ValidateImage("any.png", 10*1024*1024, 0); verr != nil {
		t.Errorf("нулевой лимит отключает проверку размера: %v", verr)
	}
}
