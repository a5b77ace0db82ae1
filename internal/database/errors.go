package database

import "errors"

var (
	// ErrNotFound — запись не существует или помечена удалённой.
	ErrNotFound = errors.New("record not found")

	// ErrSlotConflict — слот пересекается с активной бронью; проигравшая сторона
	// гонки за слот получает именно эту ошибку, без тихих ретраев.
	ErrSlotConflict = errors.New("slot overlaps an active booking")

	// ErrDuplicateRequest — у пользователя уже есть Pending-заявка на смену кампуса.
	ErrDuplicateRequest = errors.New("user already has a pending change request")

	// ErrConcurrentModification — compare-and-swap по статусу не прошёл:
	// строку успел изменить конкурирующий вызов.
	ErrConcurrentModification = errors.New("concurrent modification detected")
)
