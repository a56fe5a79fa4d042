// Command import-tasks loads task catalog entries from a CSV file into the
// configured storage backend.
//
//	import-tasks tasks.csv
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/ArowuTest/easyearning-backend/internal/bootstrap"
	"github.com/ArowuTest/easyearning-backend/internal/config"
	"github.com/ArowuTest/easyearning-backend/internal/mediation"
	"github.com/ArowuTest/easyearning-backend/internal/services"
	"github.com/ArowuTest/easyearning-backend/internal/utils"
	"golang.org/x/exp/slog"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: import-tasks <file.csv>")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	file, err := os.Open(os.Args[1])
	if err != nil {
		slog.Error("Failed to open CSV file", "path", os.Args[1], "error", err)
		os.Exit(1)
	}
	defer file.Close()

	result, err := utils.ParseTaskCSV(file)
	if err != nil {
		slog.Error("Failed to parse CSV file", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	st, closeStore, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		slog.Error("Failed to open store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	taskService := services.NewTaskService(st, mediation.NewEngine(rng), rng, services.TaskTimings{})
	created := taskService.ImportTasks(ctx, result)

	for _, msg := range result.Errors {
		slog.Warn("Skipped row", "reason", msg)
	}
	slog.Info("Import completed", "rows", result.TotalRows, "created", created, "errors", len(result.Errors))
}
