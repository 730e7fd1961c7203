package validation

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/username/inversiones/src/logger"
)

// ErrValidationFailed is wrapped by every rejection in this package.
var ErrValidationFailed = errors.New("file validation failed")

// AllowedClientContentTypes is a map for quick lookup of allowed client-declared MIME types.
var AllowedClientContentTypes = map[string]bool{
	"text/csv":                 true,
	"application/csv":          true,
	"text/plain":               true,
	"application/vnd.ms-excel": true,
	"application/octet-stream": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"application/vnd.ms-excel.sheet.macroenabled.12":                    true,
	"application/zip": true,
}

// SpreadsheetExtensions are handled by the workbook reader; anything else is delimited text.
var SpreadsheetExtensions = map[string]bool{
	".xlsx": true,
	".xlsm": true,
	".xltx": true,
	".xltm": true,
	".xls":  true,
}

var textExtensions = map[string]bool{
	".csv": true,
	".txt": true,
	".tsv": true,
}

// IsSpreadsheet reports whether filename carries a spreadsheet extension.
func IsSpreadsheet(filename string) bool {
	return SpreadsheetExtensions[strings.ToLower(filepath.Ext(filename))]
}

// ValidateFileExtension accepts spreadsheet and delimited-text extensions.
func ValidateFileExtension(filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if SpreadsheetExtensions[ext] || textExtensions[ext] {
		return nil
	}
	logger.L.Warn("Disallowed file extension", "filename", filename, "extension", ext)
	return fmt.Errorf("%w: extension '%s' is not a supported spreadsheet or CSV file", ErrValidationFailed, ext)
}

// ValidateClientContentType checks the Content-Type header provided by the client.
func ValidateClientContentType(contentType string) error {
	mediaType := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if mediaType == "" {
		return nil
	}
	if !AllowedClientContentTypes[mediaType] {
		logger.L.Warn("Disallowed client-declared Content-Type", "contentType", contentType)
		return fmt.Errorf("%w: client-declared file type '%s' is not allowed", ErrValidationFailed, contentType)
	}
	return nil
}

// ValidateFileContentByMagicBytes checks the actual file content signature (magic bytes)
// against the kind of file the extension promises. It returns the detected content type.
func ValidateFileContentByMagicBytes(file io.ReadSeeker, filename string) (string, error) {
	if file == nil {
		return "", fmt.Errorf("%w: file is nil", ErrValidationFailed)
	}

	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read file for content type checking: %w", err)
	}

	// Reset the read pointer so the file can be stored in full afterwards.
	if _, seekErr := file.Seek(0, io.SeekStart); seekErr != nil {
		return "", fmt.Errorf("failed to reset file read pointer: %w", seekErr)
	}

	detectedContentType := http.DetectContentType(buffer[:n])
	detectedContentType = strings.ToLower(strings.Split(detectedContentType, ";")[0])

	allowed := map[string]bool{
		"text/plain":               true,
		"text/csv":                 true,
		"application/csv":          true,
		"application/octet-stream": true,
	}
	if IsSpreadsheet(filename) {
		// OOXML workbooks are zip archives; legacy .xls is detected as octet-stream.
		allowed = map[string]bool{
			"application/zip":          true,
			"application/octet-stream": true,
		}
	}

	if !allowed[detectedContentType] {
		logger.L.Warn("Disallowed detected file content type (magic bytes)", "detectedContentType", detectedContentType, "filename", filename)
		return detectedContentType, fmt.Errorf("%w: detected file content type '%s' is not consistent with %s", ErrValidationFailed, detectedContentType, filepath.Ext(filename))
	}

	logger.L.Debug("File content type (magic bytes) validated", "detectedContentType", detectedContentType)
	return detectedContentType, nil
}
