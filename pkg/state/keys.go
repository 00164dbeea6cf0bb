// Package state предоставляет константы ключей для унифицированного хранилища.
//
// Ключи используются для доступа к данным в CoreState.store.
// Все ключи определены как константы для избежания опечаток.
package state

// Зарезервированные ключи CoreState.
//
// Эти данные доступны только через типизированные методы CoreState —
// Set/Update с таким ключом возвращают ErrKeyReserved.
const (
	// KeyHistory — история диалога ([]llm.Message).
	// Доступ через AppendMessage/GetHistory/SetHistory.
	KeyHistory = "history"

	// KeyToolsRegistry — реестр инструментов (*tools.Registry).
	// Доступ через SetToolsRegistry/GetToolsRegistry.
	KeyToolsRegistry = "tools_registry"

	// KeyConfig — конфигурация приложения (*config.AppConfig).
	// Доступ через поле Config.
	KeyConfig = "config"
)

// reservedKeys — множество зарезервированных ключей.
var reservedKeys = map[string]struct{}{
	KeyHistory:       {},
	KeyToolsRegistry: {},
	KeyConfig:        {},
}

// IsReservedKey сообщает, зарезервирован ли ключ системой.
func IsReservedKey(key string) bool {
	_, ok := reservedKeys[key]
	return ok
}
