// Package audit предоставляет SQLite журнал выполненных tool calls.
//
// Каждый dispatch записывается одной строкой: run id, идентификаторы
// call/result пары, аргументы, результат, статус и длительность.
// Журнал переживает процесс — удобен для post-mortem анализа и
// проверки инварианта "каждый результат соответствует своему вызову".
//
// Rule 5: Thread-safe — *sql.DB сам по себе безопасен для
// конкурентного использования.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ilkoid/serape-ai/pkg/tools"
	"github.com/ilkoid/serape-ai/pkg/utils"
)

// Record — одна строка журнала.
type Record struct {
	ID         int64
	RunID      string
	ToolCallID string
	ToolName   string
	Args       string
	Result     string
	OK         bool
	DurationMS int64
	CreatedAt  time.Time
}

// Store — SQLite журнал tool calls.
//
// Реализует tools.Recorder: подключается к диспетчеру через
// Dispatcher.AddRecorder. RunID устанавливается на каждый запуск
// агент-цикла через BindRun.
type Store struct {
	db *sql.DB

	// mu защищает runID: RecordDispatch может вызываться из goroutine
	// диспетчера параллельно с BindRun следующего запуска.
	mu    sync.RWMutex
	runID string
}

// Open открывает (или создает) журнал по указанному пути.
//
// Схема создаётся автоматически при первом открытии.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit db: %w", err)
	}

	const schema = `
	CREATE TABLE IF NOT EXISTS tool_dispatches (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id       TEXT NOT NULL,
		tool_call_id TEXT NOT NULL,
		tool_name    TEXT NOT NULL,
		args         TEXT,
		result       TEXT,
		ok           INTEGER NOT NULL,
		duration_ms  INTEGER NOT NULL,
		created_at   TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_dispatches_run ON tool_dispatches(run_id);
	CREATE INDEX IF NOT EXISTS idx_dispatches_call ON tool_dispatches(tool_call_id);`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create audit schema: %w", err)
	}

	return &Store{db: db}, nil
}

// BindRun привязывает журнал к запуску агент-цикла.
//
// Все последующие RecordDispatch пишутся с этим run id.
func (s *Store) BindRun(runID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runID = runID
}

// RecordDispatch записывает результат одного tool call.
//
// Реализует tools.Recorder. Ошибки записи не пробрасываются —
// журнал не должен ронять агент-цикл; пишем в лог и продолжаем.
func (s *Store) RecordDispatch(call tools.ToolCall, result tools.ToolResult) {
	s.mu.RLock()
	runID := s.runID
	s.mu.RUnlock()

	_, err := s.db.Exec(
		`INSERT INTO tool_dispatches (run_id, tool_call_id, tool_name, args, result, ok, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, result.ToolCallID, result.ToolName, result.Args, result.Result,
		boolToInt(result.OK), result.Duration,
	)
	if err != nil {
		// Журнал вторичен по отношению к работе агента
		utils.Warn("audit: failed to record dispatch", "error", err, "tool", result.ToolName)
	}
}

// ByRun возвращает все записи запуска в порядке выполнения.
func (s *Store) ByRun(ctx context.Context, runID string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, tool_call_id, tool_name, args, result, ok, duration_ms, created_at
		 FROM tool_dispatches WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("audit query failed: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// ByToolCall возвращает записи для конкретного tool call id.
//
// В норме ровно одна запись — инвариант пары call/result.
func (s *Store) ByToolCall(ctx context.Context, toolCallID string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, tool_call_id, tool_name, args, result, ok, duration_ms, created_at
		 FROM tool_dispatches WHERE tool_call_id = ? ORDER BY id`,
		toolCallID,
	)
	if err != nil {
		return nil, fmt.Errorf("audit query failed: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Close закрывает журнал.
func (s *Store) Close() error {
	return s.db.Close()
}

// scanRecords вычитывает строки результата в []Record.
func scanRecords(rows *sql.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		var r Record
		var ok int
		if err := rows.Scan(&r.ID, &r.RunID, &r.ToolCallID, &r.ToolName,
			&r.Args, &r.Result, &ok, &r.DurationMS, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("audit scan failed: %w", err)
		}
		r.OK = ok != 0
		records = append(records, r)
	}
	return records, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Ensure Store implements tools.Recorder
var _ tools.Recorder = (*Store)(nil)
