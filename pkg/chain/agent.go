package chain

import (
	"context"

	"github.com/ilkoid/serape-ai/pkg/llm"
)

// Agent — высокоуровневый интерфейс агента для простых сценариев.
//
// В отличие от Chain, Agent скрывает ChainInput/ChainOutput:
// на вход строка запроса, на выход строка ответа.
//
// Rule 4: зависимость от интерфейса, а не от конкретного цикла.
type Agent interface {
	// Run выполняет запрос пользователя и возвращает финальный ответ.
	Run(ctx context.Context, query string) (string, error)

	// GetHistory возвращает текущую историю диалога.
	GetHistory() []llm.Message
}
