// imagehost.go — хранилище изображений на внешнем image host.
// HTTP-клиент: multipart upload (POST /api/v1/images) и удаление
// по public_id (DELETE /api/v1/images/{public_id}).
// Авторизация — Bearer API-ключ.
package assetstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

// uploadFolder — папка на image host, в которую складываются изображения растений.
const uploadFolder = "plants"

// uploadResponse — ответ image host на загрузку изображения.
type uploadResponse struct {
	// SecureURL — публичный HTTPS URL загруженного изображения
	SecureURL string `json:"secure_url"`
	// PublicID — идентификатор изображения для последующего удаления
	PublicID string `json:"public_id"`
}

// ImageHostStore — клиент внешнего image host.
type ImageHostStore struct {
	httpClient *http.Client
	// baseURL — URL API image host (PS_IMAGEHOST_URL)
	baseURL string
	// apiKey — API-ключ (PS_IMAGEHOST_API_KEY)
	apiKey string
	// cdnHosts — дополнительные хосты раздачи (PS_IMAGEHOST_CDN_HOSTS):
	// secure_url может указывать на CDN, а не на хост API
	cdnHosts map[string]struct{}
	logger   *slog.Logger
}

// NewImageHost создаёт клиент image host. cdnHosts — необязательный
// список хостов, URL с которых считаются принадлежащими этому хранилищу.
func NewImageHost(baseURL, apiKey string, cdnHosts []string, logger *slog.Logger) *ImageHostStore {
	hosts := make(map[string]struct{}, len(cdnHosts))
	for _, h := range cdnHosts {
		hosts[strings.ToLower(h)] = struct{}{}
	}
	return &ImageHostStore{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		cdnHosts:   hosts,
		logger:     logger.With(slog.String("component", "imagehost_store")),
	}
}

// Save загружает изображение на image host через multipart POST.
// Возвращает secure URL и public_id в качестве токена удаления.
func (s *ImageHostStore) Save(ctx context.Context, r io.Reader, originalFilename string) (*StoredAsset, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", originalFilename)
	if err != nil {
		return nil, fmt.Errorf("%w: формирование multipart: %w", ErrUpload, err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("%w: чтение изображения: %w", ErrUpload, err)
	}
	if err := mw.WriteField("folder", uploadFolder); err != nil {
		return nil, fmt.Errorf("%w: формирование multipart: %w", ErrUpload, err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("%w: закрытие multipart: %w", ErrUpload, err)
	}

	reqURL := s.baseURL + "/api/v1/images"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, &body)
	if err != nil {
		return nil, fmt.Errorf("%w: создание запроса: %w", ErrUpload, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: запрос к image host: %w", ErrUpload, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: image host вернул статус %d: %s",
			ErrUpload, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var upload uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&upload); err != nil {
		return nil, fmt.Errorf("%w: разбор ответа image host: %w", ErrUpload, err)
	}
	if upload.SecureURL == "" {
		return nil, fmt.Errorf("%w: image host не вернул secure_url", ErrUpload)
	}

	s.logger.Info("Изображение загружено на image host",
		slog.String("public_id", upload.PublicID),
		slog.String("url", upload.SecureURL),
	)

	return &StoredAsset{
		URL:          upload.SecureURL,
		ReclaimToken: upload.PublicID,
	}, nil
}

// Reclaim удаляет изображение на image host по его URL.
// public_id выводится детерминированно из URL (папка + последний сегмент
// пути без расширения). Best-effort: false при любом сбое.
func (s *ImageHostStore) Reclaim(ctx context.Context, imageURL string) bool {
	publicID, ok := publicIDFromURL(imageURL)
	if !ok {
		s.logger.Warn("Reclaim: не удалось вывести public_id из URL",
			slog.String("url", imageURL),
		)
		return false
	}

	reqURL := s.baseURL + "/api/v1/images/" + url.PathEscape(publicID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, reqURL, nil)
	if err != nil {
		s.logger.Warn("Reclaim: создание запроса", slog.String("error", err.Error()))
		return false
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Warn("Reclaim: запрос к image host",
			slog.String("public_id", publicID),
			slog.String("error", err.Error()),
		)
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		s.logger.Warn("Reclaim: image host вернул ошибку",
			slog.String("public_id", publicID),
			slog.Int("status", resp.StatusCode),
		)
		return false
	}

	s.logger.Info("Изображение удалено с image host", slog.String("public_id", publicID))
	return true
}

// Owns проверяет, что URL принадлежит настроенному image host:
// хост совпадает с PS_IMAGEHOST_URL либо входит в список CDN-хостов.
func (s *ImageHostStore) Owns(imageURL string) bool {
	parsed, err := url.Parse(imageURL)
	if err != nil || parsed.Host == "" {
		return false
	}
	host := strings.ToLower(parsed.Host)

	if base, err := url.Parse(s.baseURL); err == nil && host == strings.ToLower(base.Host) {
		return true
	}
	_, ok := s.cdnHosts[host]
	return ok
}

// CheckReady проверяет доступность image host.
// Возвращает статус ("ok", "fail") и сообщение.
func (s *ImageHostStore) CheckReady() (status string, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL, nil)
	if err != nil {
		return "fail", fmt.Sprintf("некорректный URL image host: %v", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "fail", fmt.Sprintf("image host недоступен: %v", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 500 {
		return "fail", fmt.Sprintf("image host вернул статус %d", resp.StatusCode)
	}
	return "ok", "image host доступен"
}

// publicIDFromURL выводит public_id из URL изображения:
// "plants/" + последний сегмент пути без расширения.
// https://img.example.com/plants/plant_17257_abc123.jpg → plants/plant_17257_abc123
func publicIDFromURL(imageURL string) (string, bool) {
	parsed, err := url.Parse(imageURL)
	if err != nil {
		return "", false
	}

	name := path.Base(parsed.Path)
	if name == "." || name == "/" || name == "" {
		return "", false
	}
	name = strings.TrimSuffix(name, path.Ext(name))
	if name == "" {
		return "", false
	}

	return uploadFolder + "/" + name, true
}
