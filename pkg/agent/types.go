// Package agent предоставляет простой API для создания и запуска AI агентов.
//
// Пакет agent является фасадом над pkg/chain. Интерфейс Agent определён
// в pkg/chain для избежания циклических импортов.
package agent

import (
	"github.com/ilkoid/serape-ai/pkg/chain"
)

// Agent — переэкспорт интерфейса из pkg/chain.
//
// Переэкспорт выполняется для удобства использования:
//
//	import "github.com/ilkoid/serape-ai/pkg/agent"
//
//	var a agent.Agent = client
//
// Оригинальный интерфейс определён в pkg/chain.Agent.
type Agent = chain.Agent
