package infrastructure

import (
	"context"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/yourusername/convertly-go/internal/domain"
	"go.uber.org/zap"
)

// ExecStatusChecker implements domain.StatusProvider by probing the host for
// each engine binary. The tools directory is searched before PATH so that
// binaries provisioned by the installer win over system packages.
type ExecStatusChecker struct {
	toolsDir string
	logger   *zap.Logger
}

// NewExecStatusChecker creates a checker rooted at the given tools directory
func NewExecStatusChecker(toolsDir string, logger *zap.Logger) *ExecStatusChecker {
	return &ExecStatusChecker{
		toolsDir: toolsDir,
		logger:   logger,
	}
}

// QueryStatus probes every engine and returns a fresh status map. A missing
// binary is a normal result, not an error; the error return is reserved for
// the probe mechanism itself failing.
func (c *ExecStatusChecker) QueryStatus(ctx context.Context, engines []domain.Engine) (map[string]domain.ToolStatus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := make(map[string]domain.ToolStatus, len(engines))
	for _, engine := range engines {
		path := c.locate(engine.Command)
		result[engine.Name] = domain.ToolStatus{
			Available: path != "",
			Path:      path,
		}
	}
	return result, nil
}

// locate finds an engine binary, preferring the managed tools directory
func (c *ExecStatusChecker) locate(command string) string {
	if c.toolsDir != "" {
		managed := filepath.Join(c.toolsDir, command)
		if isExecutable(managed) {
			return managed
		}
	}

	path, err := exec.LookPath(command)
	if err != nil {
		return ""
	}
	return path
}

// DetectVersion runs `<binary> --version` (or the LibreOffice variant) and
// extracts the leading version token. An empty string means the version
// could not be determined.
func (c *ExecStatusChecker) DetectVersion(ctx context.Context, engine domain.Engine) string {
	path := c.locate(engine.Command)
	if path == "" {
		return ""
	}

	out, err := exec.CommandContext(ctx, path, "--version").CombinedOutput()
	if err != nil {
		if c.logger != nil {
			c.logger.Debug("Version probe failed",
				zap.String("engine", engine.Name),
				zap.Error(err))
		}
		return ""
	}

	return parseVersion(string(out))
}

var versionPattern = regexp.MustCompile(`\d+(?:\.\d+)+`)

// parseVersion pulls the first dotted version number out of a --version
// banner. Engine banners vary wildly (ffmpeg prints build flags, soffice
// prints a product line), so this only relies on the numeric token.
func parseVersion(output string) string {
	firstLine := output
	if idx := strings.IndexByte(output, '\n'); idx >= 0 {
		firstLine = output[:idx]
	}
	return versionPattern.FindString(firstLine)
}
