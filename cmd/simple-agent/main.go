// Simple-agent — демонстрация простого API pkg/agent.
//
// Минимальный пример использования Serape AI:
//   - создание агента в одну строку
//   - выполнение запроса с выбранной политикой tool choice
//
// Использование:
//
//	go run cmd/simple-agent/main.go "какая погода в Москве?"
//	go run cmd/simple-agent/main.go -choice required "какая погода в Москве?"
//	go run cmd/simple-agent/main.go -choice tool:get_weather "прогноз на завтра"
//	go run cmd/simple-agent/main.go -choice none "расскажи анекдот"
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ilkoid/serape-ai/pkg/agent"
	"github.com/ilkoid/serape-ai/pkg/tools"
)

func main() {
	configPath := flag.String("config", "config.yaml", "путь к config.yaml")
	choiceFlag := flag.String("choice", "auto", "политика tool choice: auto | required | none | tool:<name>")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: simple-agent [-choice mode] \"query\"")
		fmt.Fprintln(os.Stderr, "Example: simple-agent -choice required \"какая погода в Москве?\"")
		os.Exit(1)
	}
	query := flag.Arg(0)

	choice, err := tools.ParseChoice(*choiceFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid -choice: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("🤖 Serape AI - Simple Agent Demo")
	fmt.Println("================================")
	fmt.Printf("Query:  %s\n", query)
	fmt.Printf("Choice: %s\n\n", choice)

	// Создаём агент (стандартные инструменты регистрируются из конфига)
	fmt.Println("⏳ Initializing agent...")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client, err := agent.New(ctx, agent.Config{ConfigPath: *configPath})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating agent: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	// Выполняем запрос с выбранной политикой
	fmt.Println("🚀 Running query...")
	startTime := time.Now()

	result, err := client.RunWithChoice(ctx, query, choice)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running query: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\n✅ Result:")
	fmt.Println("-----------")
	fmt.Println(result)
	fmt.Printf("\n⏱  Duration: %s\n", time.Since(startTime).Round(time.Millisecond))
}
