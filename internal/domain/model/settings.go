package model

import "time"

// ChatSettings — настройки чата, влияющие на выдачу поиска.
type ChatSettings struct {
	// ChatID — идентификатор чата или пользователя
	ChatID int64
	// MaxButtons — расширенная страница результатов; nil — предпочтение не задано
	MaxButtons *bool
	// UpdatedAt — время последнего обновления
	UpdatedAt time.Time
}
