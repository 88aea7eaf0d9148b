// Пакет uploadstore — хранение загруженных документов на диске.
// Принимаются только файлы с расширениями pdf, png, jpg, jpeg.
package uploadstore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// allowedExtensions — расширения, разрешённые к загрузке.
var allowedExtensions = map[string]bool{
	".pdf":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// Allowed проверяет, разрешено ли имя файла к загрузке.
// Файл без расширения не принимается.
func Allowed(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return allowedExtensions[ext]
}

// Store — управление файлами документов на диске.
type Store struct {
	// dataDir — корневая директория загрузок (DV_UPLOAD_DIR)
	dataDir string
}

// New создаёт новый Store. Проверяет и создаёт директорию
// если она не существует.
func New(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию загрузок %s: %w", dataDir, err)
	}

	return &Store{dataDir: dataDir}, nil
}

// Save записывает данные из reader на диск.
// Формат имени файла: {timestamp}_{uuid}_{name}.{ext}
// Возвращает относительный путь сохранённого файла.
//
// Паттерн: temp файл → запись → fsync → atomic rename.
// При ошибке temp файл удаляется.
func (s *Store) Save(reader io.Reader, originalFilename string) (string, error) {
	if !Allowed(originalFilename) {
		return "", fmt.Errorf("недопустимый тип файла: %s", originalFilename)
	}

	storageName := generateStorageName(originalFilename)
	fullPath := filepath.Join(s.dataDir, storageName)
	tmpPath := fullPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("ошибка создания временного файла: %w", err)
	}

	if _, err := io.Copy(f, reader); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("ошибка записи данных: %w", err)
	}

	// fsync для гарантии записи на диск
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("ошибка fsync: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("ошибка закрытия файла: %w", err)
	}

	// Атомарный rename
	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("ошибка атомарного переименования: %w", err)
	}

	return storageName, nil
}

// Remove удаляет файл с диска.
// storagePath — относительный путь файла в dataDir.
// Возвращает nil если файл уже не существует.
func (s *Store) Remove(storagePath string) error {
	fullPath := filepath.Join(s.dataDir, storagePath)

	err := os.Remove(fullPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ошибка удаления файла %s: %w", storagePath, err)
	}
	return nil
}

// FullPath возвращает абсолютный путь к файлу на диске.
func (s *Store) FullPath(storagePath string) string {
	return filepath.Join(s.dataDir, storagePath)
}

// Exists проверяет существование файла на диске.
func (s *Store) Exists(storagePath string) bool {
	fullPath := filepath.Join(s.dataDir, storagePath)
	_, err := os.Stat(fullPath)
	return err == nil
}

// DataDir возвращает путь к директории загрузок.
func (s *Store) DataDir() string {
	return s.dataDir
}

// generateStorageName генерирует имя файла для хранения на диске.
// Формат: {timestamp}_{uuid}_{name}.{ext}
// Пример: 20260221150405_a1b2c3d4_photo.jpg
func generateStorageName(originalFilename string) string {
	ext := strings.ToLower(filepath.Ext(originalFilename))
	name := strings.TrimSuffix(originalFilename, filepath.Ext(originalFilename))

	name = sanitize(name)

	// Ограничиваем длину имени для предотвращения проблем с FS
	if len(name) > 50 {
		name = name[:50]
	}

	ts := time.Now().UTC().Format("20060102150405")
	uid := uuid.New().String()[:8] // Короткий UUID для уникальности

	return fmt.Sprintf("%s_%s_%s%s", ts, uid, name, ext)
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
		return "file"
	}
	return result.String()
}
