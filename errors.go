package playqueue

import "errors"

// Таксономия ошибок. Все ошибки пакета оборачивают одну из них,
// поэтому вызывающий код проверяет тип через errors.Is.
var (
	ErrValidation = errors.New("validation error") // громкость/скорость вне диапазона, неверные эффекты
	ErrState      = errors.New("state error")      // операция недопустима в текущем состоянии
	ErrConflict   = errors.New("effect conflict")  // ручная установка параметра во время эффекта
	ErrNotFound   = errors.New("not found")        // неизвестное имя канала
	ErrDecode     = errors.New("decode error")     // файл не найден, повреждён или формат не поддерживается
)
