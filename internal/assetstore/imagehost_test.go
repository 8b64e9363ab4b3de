package assetstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// TestImageHostSave проверяет multipart-загрузку и разбор ответа.
func TestImageHostSave(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/images" {
			t.Errorf("неожиданный запрос: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("неверный заголовок авторизации: %s", got)
		}

		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("ошибка разбора multipart: %v", err)
		}
		if got := r.FormValue("folder"); got != "plants" {
			t.Errorf("folder: ожидалось plants, получено %s", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("поле file отсутствует: %v", err)
		}
		defer file.Close()
		if header.Filename != "tulip.jpg" {
			t.Errorf("имя файла: ожидалось tulip.jpg, получено %s", header.Filename)
		}

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{
			"secure_url": "https://img.example.com/plants/tulip_123.jpg",
			"public_id":  "plants/tulip_123",
		})
	}))
	defer srv.Close()

	store := NewImageHost(srv.URL, "test-key", nil, testLogger())

	asset, err := store.Save(context.Background(), strings.NewReader("данные"), "tulip.jpg")
	if err != nil {
		t.Fatalf("ошибка загрузки: %v", err)
	}
	if asset.URL != "https://img.example.com/plants/tulip_123.jpg" {
		t.Errorf("неверный URL: %s", asset.URL)
	}
	if asset.ReclaimToken != "plants/tulip_123" {
		t.Errorf("неверный токен: %s", asset.ReclaimToken)
	}
}

// TestImageHostSave_ServerError проверяет оборачивание ошибки сервера в ErrUpload.
func TestImageHostSave_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	store := NewImageHost(srv.URL, "test-key", nil, testLogger())

	_, err := store.Save(context.Background(), strings.NewReader("данные"), "a.jpg")
	if err == nil {
		t.Fatal("ожидалась ошибка при статусе 500")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("ошибка должна содержать статус: %v", err)
	}
}

// TestImageHostReclaim проверяет удаление по public_id, выведенному из URL.
func TestImageHostReclaim(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("ожидался DELETE, получен %s", r.Method)
		}
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	store := NewImageHost(srv.URL, "test-key", nil, testLogger())

	ok := store.Reclaim(context.Background(), "https://img.example.com/plants/tulip_123.jpg")
	if !ok {
		t.Fatal("Reclaim должен вернуть true")
	}
	if gotPath != "/api/v1/images/plants%2Ftulip_123" && gotPath != "/api/v1/images/plants/tulip_123" {
		t.Errorf("неверный путь удаления: %s", gotPath)
	}
}

// TestImageHostReclaim_Error проверяет best-effort поведение при сбое.
func TestImageHostReclaim_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	store := NewImageHost(srv.URL, "test-key", nil, testLogger())

	if store.Reclaim(context.Background(), "https://img.example.com/plants/x.jpg") {
		t.Error("Reclaim при ошибке сервера должен вернуть false")
	}
}

// TestPublicIDFromURL проверяет вывод public_id из URL изображения.
func TestPublicIDFromURL(t *testing.T) {
	tests := []struct {
		url    string
		want   string
		wantOK bool
	}{
		{"https://img.example.com/plants/tulip_123.jpg", "plants/tulip_123", true},
		{"https://img.example.com/v1/plants/rose.png", "plants/rose", true},
		{"https://img.example.com/noext", "plants/noext", true},
		{"https://img.example.com/", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := publicIDFromURL(tt.url)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("publicIDFromURL(%q) = (%q, %v), ожидалось (%q, %v)",
				tt.url, got, ok, tt.want, tt.wantOK)
		}
	}
}

// TestImageHostOwns проверяет распознавание URL по хосту.
func TestImageHostOwns(t *testing.T) {
	store := NewImageHost("https://img.example.com", "test-key", nil, testLogger())

	if !store.Owns("https://img.example.com/plants/a.jpg") {
		t.Error("URL с совпадающим хостом должен принадлежать хранилищу")
	}
	if store.Owns("https://other.example.com/plants/a.jpg") {
		t.Error("URL с другим хостом не должен принадлежать хранилищу")
	}
	if store.Owns("-") {
		t.Error("sentinel не должен принадлежать хранилищу")
	}
}

// Image host может отдавать secure_url на CDN-хосте, отличном от хоста API.
// Такие URL распознаются через список PS_IMAGEHOST_CDN_HOSTS.
func TestImageHostOwnsCDNHosts(t *testing.T) {
	store := NewImageHost("https://api.img.example.com", "test-key",
		[]string{"cdn.img.example.com", "Static.Img.Example.Com"}, testLogger())

	if !store.Owns("https://cdn.img.example.com/plants/a.jpg") {
		t.Error("URL с CDN-хоста из списка должен принадлежать хранилищу")
	}
	// сравнение хостов регистронезависимое
	if !store.Owns("https://static.img.example.com/plants/a.jpg") {
		t.Error("регистр CDN-хоста не должен влиять на распознавание")
	}
	if !store.Owns("https://api.img.example.com/plants/a.jpg") {
		t.Error("URL с хоста API по-прежнему принадлежит хранилищу")
	}
	if store.Owns("https://elsewhere.example.com/plants/a.jpg") {
		t.Error("URL с хоста вне списка не должен принадлежать хранилищу")
	}
}
