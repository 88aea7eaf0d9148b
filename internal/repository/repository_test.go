package repository

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Meetsu369/Dastaavej/internal/config"
	"github.com/Meetsu369/Dastaavej/internal/database"
	"github.com/Meetsu369/Dastaavej/internal/domain/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// setupTestDB запускает PostgreSQL контейнер, применяет миграции.
// Возвращает pgxpool.Pool и функцию очистки.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("Пропуск интеграционного теста: TEST_INTEGRATION не установлена")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("dastaavej_test"),
		postgres.WithUsername("dastaavej"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Не удалось запустить PostgreSQL контейнер: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Ошибка остановки контейнера: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Не удалось получить host контейнера: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Не удалось получить port контейнера: %v", err)
	}

	// Настраиваем env для config.Load()
	os.Setenv("DV_DB_HOST", host)
	os.Setenv("DV_DB_PORT", port.Port())
	os.Setenv("DV_DB_NAME", "dastaavej_test")
	os.Setenv("DV_DB_USER", "dastaavej")
	os.Setenv("DV_DB_PASSWORD", "test-password")
	os.Setenv("DV_DB_SSL_MODE", "disable")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	// Применяем миграции
	if err := database.Migrate(cfg, logger); err != nil {
		t.Fatalf("Ошибка миграций: %v", err)
	}

	// Подключаемся
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("Ошибка подключения: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	return pool
}

// createTestUser создаёт пользователя для тестов заявок.
func createTestUser(t *testing.T, ctx context.Context, pool *pgxpool.Pool, aadhaar string) *model.User {
	t.Helper()

	u := &model.User{
		AadhaarNumber: aadhaar,
		PasswordHash:  "$2a$10$abcdefghijklmnopqrstuv",
		Email:         aadhaar + "@example.com",
		Phone:         "+919876543210",
		Role:          model.RoleCitizen,
	}
	if err := NewUserRepository(pool).Create(ctx, u); err != nil {
		t.Fatalf("Создание пользователя: %v", err)
	}
	return u
}

// --- Тесты UserRepository ---

func TestUserRepository(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewUserRepository(pool)

	u := &model.User{
		AadhaarNumber: "123456789012",
		PasswordHash:  "$2a$10$abcdefghijklmnopqrstuv",
		Email:         "citizen@example.com",
		Phone:         "+919876543210",
		Role:          model.RoleCitizen,
	}

	// Create
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}
	if u.ID == 0 {
		t.Error("ID не установлен после Create")
	}
	if u.CreatedAt.IsZero() {
		t.Error("CreatedAt не установлен")
	}

	// GetByID
	got, err := repo.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID() ошибка: %v", err)
	}
	if got.AadhaarNumber != "123456789012" {
		t.Errorf("AadhaarNumber = %q, хотели %q", got.AadhaarNumber, "123456789012")
	}
	if got.Role != model.RoleCitizen {
		t.Errorf("Role = %q, хотели %q", got.Role, model.RoleCitizen)
	}

	// GetByAadhaar
	got2, err := repo.GetByAadhaar(ctx, "123456789012")
	if err != nil {
		t.Fatalf("GetByAadhaar() ошибка: %v", err)
	}
	if got2.ID != u.ID {
		t.Errorf("ID = %d, хотели %d", got2.ID, u.ID)
	}

	// GetByAadhaar — не найден
	_, err = repo.GetByAadhaar(ctx, "000000000000")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Ожидали ErrNotFound, получили: %v", err)
	}

	// Дубликат aadhaar → ErrConflict
	dup := &model.User{
		AadhaarNumber: "123456789012",
		PasswordHash:  "$2a$10$abcdefghijklmnopqrstuv",
		Email:         "other@example.com",
		Phone:         "+919876543211",
		Role:          model.RoleCitizen,
	}
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Errorf("Дубликат aadhaar: ожидали ErrConflict, получили: %v", err)
	}

	// Дубликат email → ErrConflict
	dup2 := &model.User{
		AadhaarNumber: "123456789013",
		PasswordHash:  "$2a$10$abcdefghijklmnopqrstuv",
		Email:         "citizen@example.com",
		Phone:         "+919876543211",
		Role:          model.RoleCitizen,
	}
	if err := repo.Create(ctx, dup2); !errors.Is(err, ErrConflict) {
		t.Errorf("Дубликат email: ожидали ErrConflict, получили: %v", err)
	}
}

// --- Тесты ApplicationRepository ---

func TestApplicationRepository(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewApplicationRepository(pool)

	user := createTestUser(t, ctx, pool, "111111111111")

	a := &model.Application{
		UserID:          user.ID,
		ApplicationType: "passport",
	}

	// Create — статус по умолчанию Pending
	if err := repo.Create(ctx, a); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}
	if a.Status != "Pending" {
		t.Errorf("Status = %q, хотели %q", a.Status, "Pending")
	}

	// GetByID
	got, err := repo.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID() ошибка: %v", err)
	}
	if got.ApplicationType != "passport" {
		t.Errorf("ApplicationType = %q, хотели %q", got.ApplicationType, "passport")
	}
	if got.RejectionReason != nil {
		t.Errorf("RejectionReason = %v, хотели nil", *got.RejectionReason)
	}

	// ListByUser
	list, err := repo.ListByUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListByUser() ошибка: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("ListByUser() вернул %d записей, хотели 1", len(list))
	}

	// List с фильтром по статусу
	pending := "Pending"
	list2, err := repo.List(ctx, &pending, 10, 0)
	if err != nil {
		t.Fatalf("List() ошибка: %v", err)
	}
	if len(list2) != 1 {
		t.Errorf("List(Pending) вернул %d записей, хотели 1", len(list2))
	}

	// Count
	count, err := repo.Count(ctx, &pending)
	if err != nil {
		t.Fatalf("Count() ошибка: %v", err)
	}
	if count != 1 {
		t.Errorf("Count() = %d, хотели 1", count)
	}

	// UpdateStatus с причиной
	reason := "документы нечитаемы"
	if err := repo.UpdateStatus(ctx, a, "Rejected", &reason); err != nil {
		t.Fatalf("UpdateStatus() ошибка: %v", err)
	}
	if a.Status != "Rejected" {
		t.Errorf("Status = %q, хотели %q", a.Status, "Rejected")
	}
	if a.RejectionReason == nil || *a.RejectionReason != reason {
		t.Errorf("RejectionReason = %v, хотели %q", a.RejectionReason, reason)
	}

	// UpdateStatus без причины — прежняя сохраняется (COALESCE)
	if err := repo.UpdateStatus(ctx, a, "Approved", nil); err != nil {
		t.Fatalf("UpdateStatus() без причины ошибка: %v", err)
	}
	got3, _ := repo.GetByID(ctx, a.ID)
	if got3.Status != "Approved" {
		t.Errorf("Status = %q, хотели %q", got3.Status, "Approved")
	}
	if got3.RejectionReason == nil || *got3.RejectionReason != reason {
		t.Errorf("RejectionReason после обновления без причины = %v, хотели %q", got3.RejectionReason, reason)
	}

	// UpdateStatus несуществующей заявки → ErrNotFound
	missing := &model.Application{ID: 999999}
	if err := repo.UpdateStatus(ctx, missing, "Approved", nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("Ожидали ErrNotFound, получили: %v", err)
	}
}

// --- Тесты DocumentRepository ---

func TestDocumentRepository(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	appRepo := NewApplicationRepository(pool)
	docRepo := NewDocumentRepository(pool)

	user := createTestUser(t, ctx, pool, "222222222222")

	a := &model.Application{UserID: user.ID, ApplicationType: "pan"}
	if err := appRepo.Create(ctx, a); err != nil {
		t.Fatalf("Создание заявки: %v", err)
	}

	d1 := &model.Document{
		ApplicationID: a.ID,
		DocumentType:  "photo",
		FilePath:      "20250101120000_ab12cd34_photo.jpg",
	}
	if err := docRepo.Create(ctx, d1); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}
	if d1.ID == 0 {
		t.Error("ID не установлен после Create")
	}
	if d1.UploadedAt.IsZero() {
		t.Error("UploadedAt не установлен")
	}

	d2 := &model.Document{
		ApplicationID: a.ID,
		DocumentType:  "address_proof",
		FilePath:      "20250101120001_ef56ab78_proof.pdf",
	}
	if err := docRepo.Create(ctx, d2); err != nil {
		t.Fatalf("Create() второго документа ошибка: %v", err)
	}

	// ListByApplication — порядок по id
	docs, err := docRepo.ListByApplication(ctx, a.ID)
	if err != nil {
		t.Fatalf("ListByApplication() ошибка: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("ListByApplication() вернул %d записей, хотели 2", len(docs))
	}
	if docs[0].DocumentType != "photo" || docs[1].DocumentType != "address_proof" {
		t.Errorf("порядок документов: %q, %q", docs[0].DocumentType, docs[1].DocumentType)
	}
}

// --- Тесты TxRunner ---

func TestTxRunner_RollbackOnError(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	user := createTestUser(t, ctx, pool, "333333333333")

	runner := NewTxRunner(pool)
	boom := errors.New("ошибка внутри транзакции")

	err := runner.RunInTx(ctx, func(tx pgx.Tx) error {
		appRepo := NewApplicationRepository(tx)
		a := &model.Application{UserID: user.ID, ApplicationType: "passport"}
		if err := appRepo.Create(ctx, a); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("RunInTx() ошибка: %v, хотели %v", err, boom)
	}

	// После отката заявок быть не должно
	list, err := NewApplicationRepository(pool).ListByUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListByUser() ошибка: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("после отката транзакции найдено %d заявок, хотели 0", len(list))
	}
}
