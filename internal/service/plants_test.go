package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/arturkryukov/plantstore/internal/assetstore"
	"github.com/arturkryukov/plantstore/internal/domain/model"
	"github.com/arturkryukov/plantstore/internal/repository"
)

// fakeRepo — in-memory реализация PlantRepository для unit-тестов.
type fakeRepo struct {
	plants    map[string]*model.Plant
	order     []string // порядок создания (для сортировки created_at DESC)
	nextID    int
	createErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{plants: make(map[string]*model.Plant)}
}

func (r *fakeRepo) Create(_ context.Context, p *model.Plant) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	p.ID = fmt.Sprintf("id-%d", r.nextID)
	p.CreatedAt = time.Now().Add(time.Duration(r.nextID) * time.Millisecond)
	p.UpdatedAt = p.CreatedAt
	cp := *p
	r.plants[p.ID] = &cp
	r.order = append(r.order, p.ID)
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (*model.Plant, error) {
	p, ok := r.plants[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeRepo) List(_ context.Context, limit, offset int) ([]*model.Plant, int, error) {
	// created_at DESC == обратный порядок создания
	var result []*model.Plant
	for i := len(r.order) - 1 - offset; i >= 0 && len(result) < limit; i-- {
		cp := *r.plants[r.order[i]]
		result = append(result, &cp)
	}
	return result, len(r.order), nil
}

func (r *fakeRepo) Update(_ context.Context, p *model.Plant) error {
	if _, ok := r.plants[p.ID]; !ok {
		return repository.ErrNotFound
	}
	p.UpdatedAt = time.Now()
	cp := *p
	r.plants[p.ID] = &cp
	return nil
}

func (r *fakeRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.plants[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.plants, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// fakeAssets — реализация assetstore.Store с управляемыми сбоями.
type fakeAssets struct {
	saveErr   error
	reclaimOK bool
	saved     []string
	reclaimed []string
}

func newFakeAssets() *fakeAssets {
	return &fakeAssets{reclaimOK: true}
}

func (a *fakeAssets) Save(_ context.Context, _ io.Reader, originalFilename string) (*assetstore.StoredAsset, error) {
	if a.saveErr != nil {
		return nil, a.saveErr
	}
	url := "http://assets.local/images/" + fmt.Sprintf("%d_", len(a.saved)) + originalFilename
	a.saved = append(a.saved, url)
	return &assetstore.StoredAsset{URL: url, ReclaimToken: originalFilename}, nil
}

func (a *fakeAssets) Reclaim(_ context.Context, imageURL string) bool {
	a.reclaimed = append(a.reclaimed, imageURL)
	return a.reclaimOK
}

func (a *fakeAssets) Owns(imageURL string) bool {
	return strings.HasPrefix(imageURL, "http://assets.local/")
}

// newTestService собирает PlantService с fakes.
func newTestService(repo *fakeRepo, assets *fakeAssets) *PlantService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewPlantService(repo, assets, NewPlantCache(16, time.Minute), 5*1024*1024, logger)
}

func upload(name string) *ImageUpload {
	return &ImageUpload{Reader: strings.NewReader("данные"), Filename: name, Size: 6}
}

// TestCreate_NoImage проверяет sentinel imageURL при создании без изображения.
func TestCreate_NoImage(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, newFakeAssets())

	p, err := svc.Create(context.Background(), validFields(), nil)
	if err != nil {
		t.Fatalf("ошибка создания: %v", err)
	}
	if p.ImageURL != model.NoImage {
		t.Errorf("ожидался sentinel %q, получено %q", model.NoImage, p.ImageURL)
	}
	if p.ID == "" {
		t.Error("ID должен быть назначен")
	}
}

// TestCreate_WithImage проверяет создание с изображением.
func TestCreate_WithImage(t *testing.T) {
	repo := newFakeRepo()
	assets := newFakeAssets()
	svc := newTestService(repo, assets)

	p, err := svc.Create(context.Background(), validFields(), upload("tomato.jpg"))
	if err != nil {
		t.Fatalf("ошибка создания: %v", err)
	}
	if !strings.HasPrefix(p.ImageURL, "http://assets.local/images/") {
		t.Errorf("imageURL должен указывать на сохранённое изображение: %s", p.ImageURL)
	}
	if len(assets.saved) != 1 {
		t.Errorf("ожидалась одна загрузка, получено %d", len(assets.saved))
	}
}

// TestCreate_ValidationBeforeUpload проверяет, что при невалидных полях
// хранилище изображений не вызывается.
func TestCreate_ValidationBeforeUpload(t *testing.T) {
	assets := newFakeAssets()
	svc := newTestService(newFakeRepo(), assets)

	f := validFields()
	f.PlantName = ""

	_, err := svc.Create(context.Background(), f, upload("tomato.jpg"))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("ожидалась ValidationError, получено: %v", err)
	}
	if len(assets.saved) != 0 {
		t.Error("при невалидных полях изображение не должно загружаться")
	}
}

// TestCreate_AssetStoreFailure проверяет отсутствие записи при сбое загрузки.
func TestCreate_AssetStoreFailure(t *testing.T) {
	repo := newFakeRepo()
	assets := newFakeAssets()
	assets.saveErr = errors.New("диск переполнен")
	svc := newTestService(repo, assets)

	_, err := svc.Create(context.Background(), validFields(), upload("tomato.jpg"))
	if !errors.Is(err, ErrAssetStore) {
		t.Fatalf("ожидался ErrAssetStore, получено: %v", err)
	}
	if len(repo.plants) != 0 {
		t.Error("при сбое хранилища изображений запись не должна создаваться")
	}
}

// TestCreate_PersistFailureReclaims проверяет, что при сбое БД
// уже загруженное изображение удаляется.
func TestCreate_PersistFailureReclaims(t *testing.T) {
	repo := newFakeRepo()
	repo.createErr = errors.New("БД недоступна")
	assets := newFakeAssets()
	svc := newTestService(repo, assets)

	_, err := svc.Create(context.Background(), validFields(), upload("tomato.jpg"))
	if err == nil {
		t.Fatal("ожидалась ошибка создания")
	}
	if len(assets.reclaimed) != 1 {
		t.Errorf("изображение должно быть удалено при сбое БД, reclaimed=%d", len(assets.reclaimed))
	}
}

// TestList_Pagination проверяет пагинацию: 15 записей, страница 2 по 10.
func TestList_Pagination(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, newFakeAssets())
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		f := validFields()
		f.PlantName = fmt.Sprintf("Растение %d", i)
		if _, err := svc.Create(ctx, f, nil); err != nil {
			t.Fatalf("ошибка создания: %v", err)
		}
	}

	page, err := svc.List(ctx, 2, 10)
	if err != nil {
		t.Fatalf("ошибка получения списка: %v", err)
	}
	if len(page.Items) != 5 {
		t.Errorf("ожидалось 5 записей на странице 2, получено %d", len(page.Items))
	}
	if page.TotalItems != 15 {
		t.Errorf("totalItems: ожидалось 15, получено %d", page.TotalItems)
	}
	if page.TotalPages != 2 {
		t.Errorf("totalPages: ожидалось 2, получено %d", page.TotalPages)
	}
	if page.CurrentPage != 2 {
		t.Errorf("currentPage: ожидалось 2, получено %d", page.CurrentPage)
	}
}

// TestList_Ordering проверяет порядок «новые первыми».
func TestList_Ordering(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, newFakeAssets())
	ctx := context.Background()

	for _, name := range []string{"Первое", "Второе", "Третье"} {
		f := validFields()
		f.PlantName = name
		if _, err := svc.Create(ctx, f, nil); err != nil {
			t.Fatalf("ошибка создания: %v", err)
		}
	}

	page, err := svc.List(ctx, 1, 10)
	if err != nil {
		t.Fatalf("ошибка получения списка: %v", err)
	}
	if page.Items[0].PlantName != "Третье" {
		t.Errorf("первой должна идти последняя созданная запись, получено %s", page.Items[0].PlantName)
	}
}

// TestList_EmptyNotFound проверяет политику «пустая страница = NotFound».
func TestList_EmptyNotFound(t *testing.T) {
	svc := newTestService(newFakeRepo(), newFakeAssets())

	if _, err := svc.List(context.Background(), 1, 10); !errors.Is(err, ErrNotFound) {
		t.Errorf("пустой каталог: ожидался ErrNotFound, получено: %v", err)
	}
}

// TestList_BadParams проверяет отклонение некорректных параметров страницы.
func TestList_BadParams(t *testing.T) {
	svc := newTestService(newFakeRepo(), newFakeAssets())
	ctx := context.Background()

	if _, err := svc.List(ctx, 0, 10); !errors.Is(err, ErrBadRequest) {
		t.Errorf("page=0: ожидался ErrBadRequest, получено: %v", err)
	}
	if _, err := svc.List(ctx, 1, 0); !errors.Is(err, ErrBadRequest) {
		t.Errorf("limit=0: ожидался ErrBadRequest, получено: %v", err)
	}
}

// TestPlantsTotalGauge проверяет, что ps_plants_total выставляется
// только из COUNT при листинге: Create и Delete гейдж не трогают.
func TestPlantsTotalGauge(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, newFakeAssets())
	ctx := context.Background()

	var created []*model.Plant
	for i := 0; i < 3; i++ {
		f := validFields()
		f.PlantName = fmt.Sprintf("Растение %d", i)
		p, err := svc.Create(ctx, f, nil)
		if err != nil {
			t.Fatalf("ошибка создания: %v", err)
		}
		created = append(created, p)
	}

	if _, err := svc.List(ctx, 1, 10); err != nil {
		t.Fatalf("ошибка получения списка: %v", err)
	}
	if got := testutil.ToFloat64(plantsTotal); got != 3 {
		t.Errorf("после листинга: ps_plants_total = %v, ожидалось 3", got)
	}

	// Delete не декрементирует гейдж, значение обновится следующим листингом
	if err := svc.Delete(ctx, created[0].ID); err != nil {
		t.Fatalf("ошибка удаления: %v", err)
	}
	if got := testutil.ToFloat64(plantsTotal); got != 3 {
		t.Errorf("после удаления: ps_plants_total = %v, ожидалось 3 (без Dec)", got)
	}

	if _, err := svc.List(ctx, 1, 10); err != nil {
		t.Fatalf("ошибка получения списка: %v", err)
	}
	if got := testutil.ToFloat64(plantsTotal); got != 2 {
		t.Errorf("после повторного листинга: ps_plants_total = %v, ожидалось 2", got)
	}
}

// TestGetByID_RoundTrip проверяет эквивалентность create → getById.
func TestGetByID_RoundTrip(t *testing.T) {
	svc := newTestService(newFakeRepo(), newFakeAssets())
	ctx := context.Background()

	created, err := svc.Create(ctx, validFields(), nil)
	if err != nil {
		t.Fatalf("ошибка создания: %v", err)
	}

	got, err := svc.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("ошибка получения: %v", err)
	}
	if got.PlantName != created.PlantName || got.SoilType != created.SoilType ||
		got.PlainType != created.PlainType || got.ImageURL != created.ImageURL {
		t.Errorf("round-trip не совпал: %+v != %+v", got, created)
	}
	if got.CreatedAt.IsZero() {
		t.Error("createdAt должен быть заполнен")
	}
}

// TestGetByID_Errors проверяет BadRequest и NotFound.
func TestGetByID_Errors(t *testing.T) {
	svc := newTestService(newFakeRepo(), newFakeAssets())
	ctx := context.Background()

	if _, err := svc.GetByID(ctx, ""); !errors.Is(err, ErrBadRequest) {
		t.Errorf("пустой id: ожидался ErrBadRequest, получено: %v", err)
	}
	if _, err := svc.GetByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("отсутствующий id: ожидался ErrNotFound, получено: %v", err)
	}
}

// TestUpdate_ReplaceImageOrdering проверяет порядок замены изображения:
// старое удаляется только после успешного сохранения нового.
func TestUpdate_ReplaceImageOrdering(t *testing.T) {
	repo := newFakeRepo()
	assets := newFakeAssets()
	svc := newTestService(repo, assets)
	ctx := context.Background()

	created, err := svc.Create(ctx, validFields(), upload("old.jpg"))
	if err != nil {
		t.Fatalf("ошибка создания: %v", err)
	}
	oldURL := created.ImageURL

	// Успешная замена: старое изображение удалено
	updated, err := svc.Update(ctx, created.ID, &model.PlantFields{}, upload("new.jpg"))
	if err != nil {
		t.Fatalf("ошибка обновления: %v", err)
	}
	if updated.ImageURL == oldURL {
		t.Error("imageURL должен измениться после замены")
	}
	if len(assets.reclaimed) != 1 || assets.reclaimed[0] != oldURL {
		t.Errorf("старое изображение должно быть удалено: %v", assets.reclaimed)
	}
}

// TestUpdate_StoreFailureKeepsOld проверяет: при сбое сохранения нового
// изображения старое остаётся, операция завершается ошибкой.
func TestUpdate_StoreFailureKeepsOld(t *testing.T) {
	repo := newFakeRepo()
	assets := newFakeAssets()
	svc := newTestService(repo, assets)
	ctx := context.Background()

	created, err := svc.Create(ctx, validFields(), upload("old.jpg"))
	if err != nil {
		t.Fatalf("ошибка создания: %v", err)
	}
	oldURL := created.ImageURL

	assets.saveErr = errors.New("хранилище недоступно")
	_, err = svc.Update(ctx, created.ID, &model.PlantFields{}, upload("new.jpg"))
	if !errors.Is(err, ErrAssetStore) {
		t.Fatalf("ожидался ErrAssetStore, получено: %v", err)
	}

	if len(assets.reclaimed) != 0 {
		t.Error("старое изображение не должно удаляться при сбое сохранения нового")
	}
	got, err := svc.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("ошибка получения: %v", err)
	}
	if got.ImageURL != oldURL {
		t.Errorf("запись должна сохранить прежний imageURL: %s", got.ImageURL)
	}
}

// TestUpdate_PartialFields проверяет частичное обновление полей.
func TestUpdate_PartialFields(t *testing.T) {
	svc := newTestService(newFakeRepo(), newFakeAssets())
	ctx := context.Background()

	created, err := svc.Create(ctx, validFields(), nil)
	if err != nil {
		t.Fatalf("ошибка создания: %v", err)
	}

	updated, err := svc.Update(ctx, created.ID,
		&model.PlantFields{PlantName: "Огурец", SoilType: "CLAY"}, nil)
	if err != nil {
		t.Fatalf("ошибка обновления: %v", err)
	}
	if updated.PlantName != "Огурец" {
		t.Errorf("plantName не обновлён: %s", updated.PlantName)
	}
	if updated.SoilType != "clay" {
		t.Errorf("soilType должен нормализоваться к нижнему регистру: %s", updated.SoilType)
	}
	// Остальные поля не тронуты
	if updated.Description != created.Description {
		t.Errorf("description не должен меняться: %s", updated.Description)
	}
}

// TestUpdate_Errors проверяет NotFound и валидацию категорий.
func TestUpdate_Errors(t *testing.T) {
	svc := newTestService(newFakeRepo(), newFakeAssets())
	ctx := context.Background()

	if _, err := svc.Update(ctx, "missing", &model.PlantFields{}, nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("ожидался ErrNotFound, получено: %v", err)
	}

	created, err := svc.Create(ctx, validFields(), nil)
	if err != nil {
		t.Fatalf("ошибка создания: %v", err)
	}
	_, err = svc.Update(ctx, created.ID, &model.PlantFields{PlainType: "underwater"}, nil)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("ожидалась ValidationError, получено: %v", err)
	}
}

// TestDelete_BestEffortReclaim проверяет: сбой удаления изображения
// не препятствует удалению записи.
func TestDelete_BestEffortReclaim(t *testing.T) {
	repo := newFakeRepo()
	assets := newFakeAssets()
	assets.reclaimOK = false
	svc := newTestService(repo, assets)
	ctx := context.Background()

	created, err := svc.Create(ctx, validFields(), upload("doomed.jpg"))
	if err != nil {
		t.Fatalf("ошибка создания: %v", err)
	}

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("удаление записи должно пройти несмотря на сбой очистки: %v", err)
	}
	if _, err := svc.GetByID(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("запись должна быть удалена, получено: %v", err)
	}
}

// TestDelete_ForeignImageNotReclaimed проверяет, что чужой imageURL
// не передаётся в Reclaim.
func TestDelete_ForeignImageNotReclaimed(t *testing.T) {
	repo := newFakeRepo()
	assets := newFakeAssets()
	svc := newTestService(repo, assets)
	ctx := context.Background()

	created, err := svc.Create(ctx, validFields(), nil)
	if err != nil {
		t.Fatalf("ошибка создания: %v", err)
	}
	// Подменяем imageURL на внешний
	stored, _ := repo.GetByID(ctx, created.ID)
	stored.ImageURL = "https://elsewhere.example.com/x.jpg"
	repo.plants[created.ID] = stored
	svc.cache.Delete(created.ID)

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("ошибка удаления: %v", err)
	}
	if len(assets.reclaimed) != 0 {
		t.Errorf("чужой URL не должен передаваться в Reclaim: %v", assets.reclaimed)
	}
}
