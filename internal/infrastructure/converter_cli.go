package infrastructure

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/yourusername/convertly-go/internal/domain"
	"github.com/yourusername/convertly-go/pkg/logger"
	"go.uber.org/zap"
)

// CLIConverter implements domain.Converter by invoking the routed engine
// binary. It owns flag construction and process handling; the routing
// decision was already made by the caller. Conversions run in the work
// directory and results are moved into the output directory on success.
type CLIConverter struct {
	config      *domain.ConvertConfig
	toolStatus  func(name string) (domain.ToolStatus, bool)
	eventLogger *logger.MultiLogger
}

// NewCLIConverter creates a converter using the given configuration.
// toolStatus resolves the engine binary path from the last status poll.
func NewCLIConverter(config *domain.ConvertConfig, toolStatus func(name string) (domain.ToolStatus, bool), eventLogger *logger.MultiLogger) *CLIConverter {
	return &CLIConverter{
		config:      config,
		toolStatus:  toolStatus,
		eventLogger: eventLogger,
	}
}

// Convert runs one conversion through the engine
func (c *CLIConverter) Convert(ctx context.Context, conversion *domain.Conversion, engine domain.Engine) error {
	if !fileExists(conversion.InputPath) {
		return fmt.Errorf("input file does not exist: %s", conversion.InputPath)
	}

	if err := os.MkdirAll(c.config.WorkDir, 0755); err != nil {
		return fmt.Errorf("failed to create work directory: %w", err)
	}

	binary := engine.Command
	if c.toolStatus != nil {
		if status, ok := c.toolStatus(engine.Name); ok && status.Path != "" {
			binary = status.Path
		}
	}

	workPath := c.workOutputPath(conversion)
	args, err := buildEngineArgs(engine, conversion.InputPath, workPath, c.config.WorkDir)
	if err != nil {
		return err
	}

	convertLog, err := c.openLogFile()
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer convertLog.Close()

	cmdLine := ShellEscapeCommand(binary, args...)
	c.writeLogHeader(convertLog, conversion.ID, cmdLine)

	execCtx := ctx
	if c.config.ExecTimeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, c.config.ExecTimeout)
		defer cancel()
	}

	// Both stdout and stderr go to the same dated log file (like cmd > file 2>&1)
	cmd := exec.CommandContext(execCtx, binary, args...)
	cmd.Stdout = convertLog
	cmd.Stderr = convertLog

	if err := cmd.Run(); err != nil {
		c.writeLogFooter(convertLog, false, fmt.Sprintf("%s failed: %v", engine.Name, err))
		return fmt.Errorf("%s failed: %w", engine.Name, err)
	}

	if !fileExists(workPath) {
		c.writeLogFooter(convertLog, false, "No output file produced")
		return fmt.Errorf("%s produced no output file", engine.Name)
	}

	outputPath, err := c.moveToOutput(workPath, conversion.OutputDir)
	if err != nil {
		c.writeLogFooter(convertLog, false, fmt.Sprintf("Failed to move output: %v", err))
		return fmt.Errorf("failed to move output: %w", err)
	}

	conversion.OutputPath = outputPath
	c.writeLogFooter(convertLog, true, fmt.Sprintf("Converted: %s", outputPath))

	if c.eventLogger != nil {
		c.eventLogger.LogQueueEvent("engine_run_completed",
			zap.String("id", conversion.ID),
			zap.String("engine", engine.Name),
			zap.String("output", outputPath))
	}

	return nil
}

// workOutputPath derives the in-progress output path inside the work dir
func (c *CLIConverter) workOutputPath(conversion *domain.Conversion) string {
	base := filepath.Base(conversion.InputPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(c.config.WorkDir, stem+"."+conversion.OutputFormat)
}

// buildEngineArgs constructs the per-engine command line. Each engine family
// has its own invocation shape; quality and codec tuning deliberately stay
// at engine defaults.
func buildEngineArgs(engine domain.Engine, inputPath, workPath, workDir string) ([]string, error) {
	switch engine.Name {
	case domain.EngineFFmpeg:
		return []string{"-y", "-i", inputPath, workPath}, nil
	case domain.EngineImageMagick:
		return []string{inputPath, workPath}, nil
	case domain.EnginePandoc:
		return []string{inputPath, "-o", workPath}, nil
	case domain.EngineLibreOffice:
		// soffice names its own output file inside --outdir; the work path
		// stem matches what it produces
		format := strings.TrimPrefix(filepath.Ext(workPath), ".")
		return []string{"--headless", "--convert-to", format, "--outdir", workDir, inputPath}, nil
	default:
		return nil, fmt.Errorf("no invocation template for engine: %s", engine.Name)
	}
}

// moveToOutput moves the finished file into the output directory, avoiding
// collisions with an existing file of the same name
func (c *CLIConverter) moveToOutput(workPath, outputDir string) (string, error) {
	if outputDir == "" {
		outputDir = c.config.OutputDir
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	destPath := uniquePath(filepath.Join(outputDir, filepath.Base(workPath)))

	if err := os.Rename(workPath, destPath); err != nil {
		// Cross-device rename fails; fall back to copy and delete
		if err := copyFile(workPath, destPath); err != nil {
			return "", err
		}
		os.Remove(workPath)
	}

	return destPath, nil
}

// uniquePath appends a numeric suffix until the path is free
func uniquePath(path string) string {
	if !fileExists(path) {
		return path
	}
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s (%d)%s", stem, i, ext)
		if !fileExists(candidate) {
			return candidate
		}
	}
}

// copyFile copies src to dst preserving contents
func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}

// openLogFile opens the engine output log file for today.
// All engine output (stdout and stderr) goes to this single file.
func (c *CLIConverter) openLogFile() (*os.File, error) {
	if err := os.MkdirAll(c.config.LogsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	dateStr := time.Now().Format("20060102")
	logPath := filepath.Join(c.config.LogsDir, "convert-"+dateStr+".log")
	return os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
}

// writeLogHeader writes the conversion start marker
func (c *CLIConverter) writeLogHeader(file *os.File, conversionID, cmdLine string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	file.WriteString(fmt.Sprintf("\n=== [%s] Conversion: %s ===\n", timestamp, conversionID))
	file.WriteString(fmt.Sprintf("$ %s\n", cmdLine))
}

// writeLogFooter writes the conversion end marker
func (c *CLIConverter) writeLogFooter(file *os.File, success bool, message string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	status := "SUCCESS"
	if !success {
		status = "FAILED"
	}
	file.WriteString(fmt.Sprintf("[%s] %s: %s\n", timestamp, status, message))
	file.WriteString("=== END ===\n\n")
}
