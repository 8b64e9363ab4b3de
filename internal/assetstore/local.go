// local.go — хранилище изображений на локальном диске.
// Паттерн записи: temp файл → запись → fsync → atomic rename.
// Публичный URL строится от базового URL сервиса: {base}/images/{имя}.
package assetstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LocalStore — хранилище изображений на локальном диске.
type LocalStore struct {
	// dataDir — директория хранения изображений (PS_DATA_DIR)
	dataDir string
	// baseURL — базовый публичный URL сервиса (PS_PUBLIC_BASE_URL)
	baseURL string
	logger  *slog.Logger
}

// NewLocal создаёт LocalStore. Проверяет и создаёт директорию,
// если она не существует.
func NewLocal(dataDir, baseURL string, logger *slog.Logger) (*LocalStore, error) {
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию изображений %s: %w", dataDir, err)
	}

	return &LocalStore{
		dataDir: dataDir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger.With(slog.String("component", "local_asset_store")),
	}, nil
}

// Save записывает изображение на диск.
// Формат имени файла: {name}_{timestamp}_{uuid8}.{ext}
// Пример: tulip_20260901150405_a1b2c3d4.jpg
func (s *LocalStore) Save(_ context.Context, r io.Reader, originalFilename string) (*StoredAsset, error) {
	storageName := generateStorageName(originalFilename)
	fullPath := filepath.Join(s.dataDir, storageName)
	tmpPath := fullPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("%w: ошибка создания временного файла: %w", ErrUpload, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("%w: ошибка записи данных: %w", ErrUpload, err)
	}

	// fsync для гарантии записи на диск
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("%w: ошибка fsync: %w", ErrUpload, err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("%w: ошибка закрытия файла: %w", ErrUpload, err)
	}

	// Атомарный rename
	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("%w: ошибка атомарного переименования: %w", ErrUpload, err)
	}

	return &StoredAsset{
		URL:          s.baseURL + "/images/" + storageName,
		ReclaimToken: storageName,
	}, nil
}

// Reclaim удаляет изображение с диска по его публичному URL.
// Best-effort: false, если URL не распознан, файл отсутствует
// или удаление не удалось.
func (s *LocalStore) Reclaim(_ context.Context, imageURL string) bool {
	storageName, ok := s.storageNameFromURL(imageURL)
	if !ok {
		s.logger.Warn("Reclaim: URL не принадлежит локальному хранилищу",
			slog.String("url", imageURL),
		)
		return false
	}

	fullPath := filepath.Join(s.dataDir, storageName)
	if err := os.Remove(fullPath); err != nil {
		s.logger.Warn("Reclaim: не удалось удалить изображение",
			slog.String("path", fullPath),
			slog.String("error", err.Error()),
		)
		return false
	}

	s.logger.Info("Изображение удалено", slog.String("path", fullPath))
	return true
}

// Owns проверяет, что URL выдан этим хранилищем ({base}/images/...).
func (s *LocalStore) Owns(imageURL string) bool {
	return strings.HasPrefix(imageURL, s.baseURL+"/images/")
}

// DataDir возвращает путь к директории изображений.
func (s *LocalStore) DataDir() string {
	return s.dataDir
}

// CheckReady проверяет доступность директории изображений на запись.
// Возвращает статус ("ok", "fail") и сообщение.
func (s *LocalStore) CheckReady() (status string, message string) {
	probe := filepath.Join(s.dataDir, ".ready_probe")
	if err := os.WriteFile(probe, []byte("probe"), 0o600); err != nil {
		return "fail", fmt.Sprintf("директория изображений недоступна на запись: %v", err)
	}
	os.Remove(probe)
	return "ok", "директория изображений доступна"
}

// storageNameFromURL извлекает имя файла из публичного URL.
// Имя проходит через path.Base, чтобы исключить выход за пределы dataDir.
func (s *LocalStore) storageNameFromURL(imageURL string) (string, bool) {
	if !s.Owns(imageURL) {
		return "", false
	}

	parsed, err := url.Parse(imageURL)
	if err != nil {
		return "", false
	}

	name := path.Base(parsed.Path)
	if name == "." || name == "/" || name == "" {
		return "", false
	}
	return name, true
}

// generateStorageName генерирует имя файла для хранения на диске.
// Формат: {name}_{timestamp}_{uuid8}.{ext}
// Комбинация временной и случайной части исключает перезапись чужих файлов.
func generateStorageName(originalFilename string) string {
	ext := strings.ToLower(filepath.Ext(originalFilename))
	name := strings.TrimSuffix(originalFilename, filepath.Ext(originalFilename))

	// Убираем небезопасные символы из имени
	name = sanitize(name)

	// Ограничиваем длину имени для предотвращения проблем с FS
	if len(name) > 50 {
		name = name[:50]
	}

	ts := time.Now().UTC().Format("20060102150405")
	uid := uuid.New().String()[:8] // Короткий UUID для уникальности

	if ext != "" {
		return fmt.Sprintf("%s_%s_%s%s", name, ts, uid, ext)
	}
	return fmt.Sprintf("%s_%s_%s", name, ts, uid)
}

// sanitize убирает небезопасные символы из строки для использования в имени файла.
// Оставляет только буквы, цифры, дефис и подчёркивание.
func sanitize(s string) string {
	var result strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '-' || r == '_' {
			result.WriteRune(r)
		}
	}
	if result.Len() == 0 {
		return "image"
	}
	return result.String()
}
