package model

import "time"

// Document — загруженный файл, приложенный к заявке.
// Хранится в таблице documents. Неизменяем после создания,
// создаётся в одной транзакции с родительской заявкой.
type Document struct {
	// ID — первичный ключ
	ID int64
	// ApplicationID — родительская заявка (FK на applications)
	ApplicationID int64
	// DocumentType — имя поля multipart-формы, из которого пришёл файл
	DocumentType string
	// FilePath — относительный путь файла в директории загрузок
	FilePath string
	// UploadedAt — время загрузки
	UploadedAt time.Time
}
