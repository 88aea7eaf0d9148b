package uploadstore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestAllowed проверяет фильтр расширений.
func TestAllowed(t *testing.T) {
	tests := []struct {
		filename string
		want     bool
	}{
		{"photo.jpg", true},
		{"photo.JPG", true}, // Регистр расширения не важен
		{"scan.jpeg", true},
		{"form.pdf", true},
		{"screenshot.png", true},
		{"malware.exe", false},
		{"script.pdf.sh", false}, // Учитывается только последнее расширение
		{"archive.tar.gz", false},
		{"noextension", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := Allowed(tt.filename); got != tt.want {
			t.Errorf("Allowed(%q) = %v, хотели %v", tt.filename, got, tt.want)
		}
	}
}

// TestSaveAndRemove проверяет полный цикл записи и удаления файла.
func TestSaveAndRemove(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() ошибка: %v", err)
	}

	content := "содержимое документа"
	path, err := store.Save(strings.NewReader(content), "photo.jpg")
	if err != nil {
		t.Fatalf("Save() ошибка: %v", err)
	}

	if !strings.HasSuffix(path, ".jpg") {
		t.Errorf("имя файла %q должно заканчиваться на .jpg", path)
	}
	if !store.Exists(path) {
		t.Fatalf("файл %q не найден после Save", path)
	}

	data, err := os.ReadFile(store.FullPath(path))
	if err != nil {
		t.Fatalf("чтение файла: %v", err)
	}
	if string(data) != content {
		t.Errorf("содержимое = %q, хотели %q", data, content)
	}

	// Временных файлов остаться не должно
	entries, _ := os.ReadDir(store.DataDir())
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("остался временный файл: %s", e.Name())
		}
	}

	// Remove
	if err := store.Remove(path); err != nil {
		t.Fatalf("Remove() ошибка: %v", err)
	}
	if store.Exists(path) {
		t.Error("файл существует после Remove")
	}

	// Повторное удаление — не ошибка
	if err := store.Remove(path); err != nil {
		t.Errorf("повторный Remove() ошибка: %v", err)
	}
}

// TestSave_RejectsDisallowed проверяет отказ для запрещённых расширений.
func TestSave_RejectsDisallowed(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() ошибка: %v", err)
	}

	if _, err := store.Save(strings.NewReader("x"), "malware.exe"); err == nil {
		t.Error("Save() должен отклонять запрещённые расширения")
	}
}

// TestSave_SanitizesName проверяет очистку имени файла.
func TestSave_SanitizesName(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() ошибка: %v", err)
	}

	path, err := store.Save(strings.NewReader("x"), "../../etc/passwd.pdf")
	if err != nil {
		t.Fatalf("Save() ошибка: %v", err)
	}

	// Имя не должно содержать разделителей пути
	if strings.ContainsAny(path, "/\\") {
		t.Errorf("имя файла %q содержит разделители пути", path)
	}
	// Файл обязан лежать внутри dataDir
	if filepath.Dir(store.FullPath(path)) != store.DataDir() {
		t.Errorf("файл %q сохранён вне директории загрузок", path)
	}
}
