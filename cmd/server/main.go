package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/convertly-go/api"
	"github.com/yourusername/convertly-go/internal/app"
	"github.com/yourusername/convertly-go/internal/domain"
	"github.com/yourusername/convertly-go/internal/infrastructure"
	"github.com/yourusername/convertly-go/pkg/logger"
)

var serverMode = flag.Bool("server-mode", false, "Internal flag: run in server mode (called by daemon)")

func main() {
	flag.Parse()

	// If not in server mode, run as daemon
	if !*serverMode {
		startAsDaemon()
		return
	}

	// Run as server (called by daemon)
	runServer()
}

// startAsDaemon forks the current process and runs the server in background
func startAsDaemon() {
	// Get the executable path
	execPath, err := os.Executable()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get executable path: %v\n", err)
		os.Exit(1)
	}

	// Get current working directory
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "/"
	}

	// Fork the process
	cmd := exec.Command(execPath, "-server-mode")
	cmd.Dir = cwd
	cmd.Env = os.Environ()

	// Detach from parent process
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true, // Create new session
	}

	// Redirect output to /dev/null
	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open /dev/null: %v\n", err)
		os.Exit(1)
	}
	cmd.Stdin = devNull
	cmd.Stdout = devNull
	cmd.Stderr = devNull

	// Start the child process
	if err := cmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start daemon: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Server started as daemon (PID: %d)\n", cmd.Process.Pid)
	os.Exit(0)
}

func runServer() {
	// Load configuration from default location (~/.convertly/config.yaml)
	config, err := app.LoadConfig("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Create directories before anything logs or persists
	if err := createDirectories(config); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create directories: %v\n", err)
		os.Exit(1)
	}

	// Initialize multi-logger (categories: general, queue, provision, error)
	multiLog, err := logger.NewMultiLogger(logger.MultiLoggerConfig{
		Level:   config.Logging.Level,
		LogsDir: config.Convert.LogsDir,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer multiLog.Close()

	logAdapter := logger.NewLoggerAdapter(multiLog)

	// Lifecycle logging goes to the configured app logger; category events
	// stay with the multi-logger's dated files
	log, err := logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize app logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting Convertly server",
		zap.String("version", "1.0.0"),
		zap.String("host", config.Server.Host),
		zap.Int("port", config.Server.Port),
		zap.String("tools_dir", config.Tools.Dir))

	// Initialize repository
	repo, err := infrastructure.NewSQLiteConversionRepository(config.Queue.DatabasePath)
	if err != nil {
		log.Fatal("Failed to initialize repository", zap.Error(err))
	}
	defer repo.Close()

	// Conversions stuck in processing from a previous crash go back to queued
	if reset, err := repo.ResetOrphanedProcessing(); err != nil {
		log.Warn("Failed to reset orphaned conversions", zap.Error(err))
	} else if reset > 0 {
		log.Info("Reset orphaned conversions to queued", zap.Int64("count", reset))
	}

	// Engine registry and provisioning
	registry := domain.DefaultRegistry()
	statusChecker := infrastructure.NewExecStatusChecker(config.Tools.Dir, log)
	updateChecker := infrastructure.NewHTTPUpdateChecker(config.Tools.ManifestURL, statusChecker, log)
	provisioning := app.NewProvisioningManager(registry, statusChecker, updateChecker, multiLog)

	// Initial status poll so readiness is meaningful before the first refresh
	statusCtx, statusCancel := context.WithTimeout(context.Background(), config.Tools.StatusTimeout)
	if _, err := provisioning.RefreshStatus(statusCtx); err != nil {
		log.Warn("Initial tool status poll failed", zap.Error(err))
	}
	statusCancel()

	// Download coordinator for engine provisioning
	installer := infrastructure.NewHTTPToolInstaller(config.Tools.DownloadBaseURL, config.Tools.Dir, multiLog)
	coordinator := app.NewDownloadCoordinator(installer, provisioning, &config.Tools, multiLog)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := coordinator.Start(ctx); err != nil {
		log.Fatal("Failed to start download coordinator", zap.Error(err))
	}

	// Notification service
	notifier := infrastructure.NewNotificationService(&config.Notification, log)

	// Converter and managers
	converter := infrastructure.NewCLIConverter(&config.Convert, func(name string) (domain.ToolStatus, bool) {
		status, ok := provisioning.Status()[name]
		return status, ok
	}, multiLog)

	conversionMgr := app.NewConversionManager(repo, converter, provisioning, notifier, &config.Convert, log)
	queue := app.NewConversionQueue(repo, conversionMgr, registry, &config.Queue, multiLog)

	if config.Convert.AutoStart {
		if err := queue.Start(ctx); err != nil {
			log.Fatal("Failed to start conversion queue", zap.Error(err))
		}
	}

	// Batch selection manager (session state, no persistence)
	batchMgr := app.NewBatchManager(multiLog)

	// Setup HTTP router
	router := api.SetupRouter(registry, batchMgr, provisioning, coordinator, queue, conversionMgr, logAdapter)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info("HTTP server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal OR auto-exit from the queue
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info("Received shutdown signal")
	case <-queue.WaitForExit():
		log.Info("Conversion queue triggered auto-exit (all conversions complete)")
	}

	log.Info("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop queue and coordinator
	if err := queue.Stop(); err != nil {
		log.Error("Error stopping conversion queue", zap.Error(err))
	}
	if err := coordinator.Stop(); err != nil {
		log.Error("Error stopping download coordinator", zap.Error(err))
	}

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}

func createDirectories(config *domain.Config) error {
	dirs := []string{
		config.Tools.Dir,
		config.Convert.OutputDir,
		config.Convert.WorkDir,
		config.Convert.LogsDir,
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
