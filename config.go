// config.go: Configuration parsing utilities
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package recorder

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// SanitizeFilename removes or replaces invalid characters for cross-platform compatibility
func SanitizeFilename(filename string) string {
	if runtime.GOOS == "windows" {
		// Windows invalid characters: < > : " | ? * and control characters
		invalidChars := []string{"<", ">", ":", "\"", "|", "?", "*"}
		result := filename

		for _, char := range invalidChars {
			result = strings.ReplaceAll(result, char, "_")
		}

		// Remove control characters (0-31)
		var sanitized strings.Builder
		for _, r := range result {
			if r >= 32 {
				sanitized.WriteRune(r)
			} else {
				sanitized.WriteRune('_')
			}
		}

		return sanitized.String()
	}

	// For Unix-like systems, just remove null characters
	return strings.ReplaceAll(filename, "\x00", "_")
}

// ValidatePathLength checks if the path length is within OS limits
func ValidatePathLength(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("invalid path: %v", err)
	}

	pathLen := len(absPath)

	switch runtime.GOOS {
	case "windows":
		// Windows has a 260 character limit for paths (historically)
		// Modern versions support longer paths with certain configurations
		if pathLen > 260 {
			return fmt.Errorf("path too long for Windows: %d characters (limit: 260)", pathLen)
		}
	default:
		// Unix-like systems typically have higher limits (4096 on Linux)
		if pathLen > 4096 {
			return fmt.Errorf("path too long: %d characters (limit: 4096)", pathLen)
		}
	}

	return nil
}

// GetDefaultFileMode returns the appropriate default file mode for the OS
func GetDefaultFileMode() os.FileMode {
	if runtime.GOOS == "windows" {
		// On Windows, Go handles ACL conversion
		// 0644 is still appropriate as Go translates it correctly
		return 0644
	}
	return 0644
}

// RetryFileOperation executes a file operation with retry logic for cross-platform reliability
//
// Design rationale: Windows and network filesystems can have transient failures
// due to antivirus scans, indexing services, or file locking. Retry logic
// improves reliability without masking real errors.
//
// Why retry is needed:
// - Windows: Antivirus can temporarily lock files
// - Network shares: Temporary connectivity issues
// - Container environments: Overlay filesystem quirks
// - High load: Temporary resource exhaustion
//
// Conservative approach: Short delays, limited retries to avoid hanging
func RetryFileOperation(operation func() error, retryCount int, retryDelay time.Duration) error {
	if retryCount <= 0 {
		retryCount = 3 // Default retry count - balances reliability vs latency
	}
	if retryDelay <= 0 {
		retryDelay = 10 * time.Millisecond // Default delay - short enough to be unnoticeable
	}

	var lastErr error
	for i := 0; i < retryCount; i++ {
		err := operation()
		if err == nil {
			return nil
		}

		lastErr = err

		// On the last attempt, don't wait - fail fast
		if i < retryCount-1 {
			time.Sleep(retryDelay)
		}
	}

	return fmt.Errorf("operation failed after %d retries: %v", retryCount, lastErr)
}
