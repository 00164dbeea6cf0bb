// Package state предоставляет ошибки для работы с состоянием.
//
// Все ошибки следуют принципам из dev_manifest.md:
//   - Rule 7: Возвращаются вверх по стеку, никаких panic
//   - Поддержка errors.Is() и errors.As() для error wrapping
package state

import "errors"

// ErrKeyNotFound возвращается когда ключ не найден в хранилище.
var ErrKeyNotFound = errors.New("key not found")

// ErrKeyReserved возвращается при попытке записи в зарезервированный ключ.
//
// Зарезервированные ключи используются системой (history, tools_registry,
// config). Пользователь не может перезаписать их через Set().
var ErrKeyReserved = errors.New("key is reserved")

// ErrInvalidType возвращается когда тип значения не соответствует ожидаемому.
//
// Происходит при type assertion когда значение в store имеет другой тип.
var ErrInvalidType = errors.New("invalid type")
