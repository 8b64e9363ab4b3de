// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import "errors"

var (
	// ErrNotFound — растение не найдено.
	ErrNotFound = errors.New("растение не найдено")
	// ErrBadRequest — некорректный запрос (формат id, номер страницы и т.п.).
	ErrBadRequest = errors.New("некорректный запрос")
	// ErrAssetStore — хранилище изображений недоступно или отклонило загрузку.
	ErrAssetStore = errors.New("хранилище изображений недоступно")
)

// FieldError — ошибка валидации одного поля.
// Собирается валидатором, отдаётся клиенту с кодом 400.
type FieldError struct {
	// Field — имя поля во входных данных
	Field string `json:"field"`
	// Message — человекочитаемое описание нарушения
	Message string `json:"message"`
}

// ValidationError — ошибка валидации входных данных растения.
// Содержит первое обнаруженное нарушение (порядок проверок фиксирован).
type ValidationError struct {
	FieldError
}

// Error реализует интерфейс error.
func (e *ValidationError) Error() string {
	return "ошибка валидации: " + e.Field + ": " + e.Message
}

// NewValidationError создаёт ошибку валидации поля.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{FieldError{Field: field, Message: message}}
}
