package service

import "errors"

// Доменные ошибки сервисного слоя. API-слой переводит их в коды ответов,
// поэтому ошибки сравниваются через errors.Is, а не по тексту.
var (
	// ErrValidation — входные данные операции некорректны.
	ErrValidation = errors.New("validation failed")

	// ErrPastDate — дата брони в прошлом.
	ErrPastDate = errors.New("booking date is in the past")

	// ErrDateTooFar — дата брони дальше разрешённого окна планирования.
	ErrDateTooFar = errors.New("booking date is too far in the future")

	// ErrHolidayConflict — дата выпадает на праздничный день.
	ErrHolidayConflict = errors.New("requested date falls on a holiday")

	// ErrOutsideWorkingHours — слот выходит за рабочее окно кампуса.
	ErrOutsideWorkingHours = errors.New("requested slot is outside campus working hours")

	// ErrFacilityUnavailable — помещение не существует или выведено из оборота.
	ErrFacilityUnavailable = errors.New("facility is not available for booking")
)
