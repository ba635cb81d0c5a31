package detect

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/LabasniDAM/Labasni-Backend/internal/infrastructure/logger"
)

const (
	uploadDir      = "uploads"
	detectTimeout  = 30 * time.Second
	defaultScript  = "detect.py"
	scriptEnvKey   = "DETECT_SCRIPT"
	maxUploadBytes = 10 << 20
)

// Handler runs a clothing detection script against an uploaded photo and
// relays the script's JSON output. The script path comes from DETECT_SCRIPT.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		file, err := c.FormFile("photo")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "photo file is required"})
			return
		}
		if file.Size > maxUploadBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "photo too large"})
			return
		}

		if err := os.MkdirAll(uploadDir, 0o755); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to prepare upload directory"})
			return
		}

		dst := filepath.Join(uploadDir, uuid.NewString()+filepath.Ext(file.Filename))
		if err := c.SaveUploadedFile(file, dst); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store upload"})
			return
		}
		defer os.Remove(dst)

		script := os.Getenv(scriptEnvKey)
		if script == "" {
			script = defaultScript
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), detectTimeout)
		defer cancel()

		var stdout, stderr bytes.Buffer
		cmd := exec.CommandContext(ctx, "python3", script, "--image", dst)
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		if err := cmd.Run(); err != nil {
			logger.Error("detection script failed",
				zap.String("script", script),
				zap.String("stderr", stderr.String()),
				zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "detection failed"})
			return
		}

		var result json.RawMessage
		if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
			logger.Error("detection script produced invalid output",
				zap.String("script", script), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "detection produced invalid output"})
			return
		}

		c.JSON(http.StatusOK, result)
	}
}
