// Пакет assetstore — хранение бинарных изображений записей растений.
// Две взаимозаменяемые реализации: LocalStore (локальный диск) и
// ImageHostStore (внешний image host по HTTP). Выбор — через конфигурацию.
package assetstore

import (
	"context"
	"errors"
	"io"
)

// ErrUpload — бэкенд не смог сохранить изображение.
var ErrUpload = errors.New("ошибка сохранения изображения")

// StoredAsset — результат сохранения изображения.
type StoredAsset struct {
	// URL — публично доступный URL изображения
	URL string
	// ReclaimToken — непрозрачный идентификатор для последующего удаления
	// (относительный путь для LocalStore, public_id для ImageHostStore)
	ReclaimToken string
}

// Store — интерфейс хранилища изображений.
type Store interface {
	// Save сохраняет содержимое изображения и возвращает URL + токен удаления.
	// Имя хранения генерируется устойчиво к коллизиям (время + случайная часть).
	Save(ctx context.Context, r io.Reader, originalFilename string) (*StoredAsset, error)

	// Reclaim удаляет ранее сохранённое изображение по его URL.
	// Best-effort: возвращает false (и никогда не панику/ошибку),
	// если изображение не найдено или бэкенд сообщил о сбое.
	Reclaim(ctx context.Context, imageURL string) bool

	// Owns сообщает, был ли URL выдан этим хранилищем.
	// Чужие URL (и sentinel "-") не подлежат удалению.
	Owns(imageURL string) bool
}
