package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/erp/jobcost/internal/app"
	"github.com/erp/jobcost/internal/domain/costing"
	"github.com/erp/jobcost/internal/infrastructure/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	var (
		configPath    string
		exportProject string
		projectName   string
		outPath       string
	)
	flag.StringVar(&configPath, "config", "", "Path to a TOML config file (default: ./config.toml or /etc/jobcost/config.toml)")
	flag.StringVar(&exportProject, "export-project", "", "Project ID whose job-cost workbook is exported")
	flag.StringVar(&projectName, "project-name", "", "Project name printed on the exported workbook")
	flag.StringVar(&outPath, "out", "jobcost.xlsx", "Output path of the exported workbook")
	flag.Parse()

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	container, err := app.New(ctx, cfg)
	if err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		os.Exit(1)
	}
	log := container.Logger

	code := run(ctx, container, exportProject, projectName, outPath)
	stop()
	if err := container.Close(context.Background()); err != nil {
		log.Error("Error during shutdown", zap.Error(err))
	}
	os.Exit(code)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func run(ctx context.Context, c *app.Container, exportProject, projectName, outPath string) int {
	log := c.Logger
	log.Info("Job-cost engine started",
		zap.String("app", c.Config.App.Name),
		zap.String("env", c.Config.App.Env),
		zap.String("cache_backend", c.Config.Cache.Backend),
		zap.Bool("telemetry", c.Telemetry.IsEnabled()),
	)

	tree, err := c.CostCodes.GetCostCodeHierarchy(ctx)
	if err != nil {
		log.Error("Failed to build cost code hierarchy", zap.Error(err))
		return 1
	}
	for _, division := range tree {
		log.Info("Cost code division",
			zap.String("division", division.Name),
			zap.Int("categories", len(division.Children)),
			zap.Int("cost_codes", countCodes(division)),
		)
	}

	if exportProject == "" {
		return 0
	}

	projectID, err := uuid.Parse(exportProject)
	if err != nil {
		log.Error("Invalid project ID", zap.String("project_id", exportProject), zap.Error(err))
		return 2
	}

	out, err := os.Create(outPath)
	if err != nil {
		log.Error("Failed to create workbook file", zap.String("path", outPath), zap.Error(err))
		return 1
	}
	defer out.Close()

	if err := c.Financials.ExportProjectReport(ctx, projectID, projectName, out); err != nil {
		log.Error("Failed to export project report", zap.Error(err))
		return 1
	}
	log.Info("Project workbook written", zap.String("path", outPath))
	return 0
}

func countCodes(n *costing.HierarchyNode) int {
	total := len(n.CostCodes)
	for _, child := range n.Children {
		total += countCodes(child)
	}
	return total
}
