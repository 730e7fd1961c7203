package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/username/inversiones/src/logger"
	"github.com/username/inversiones/src/parsers"
	"github.com/username/inversiones/src/security/validation"
	"github.com/username/inversiones/src/services"
	"github.com/username/inversiones/src/utils"
)

type UploadHandler struct {
	portfolioService services.PortfolioService
	maxUploadBytes   int64
}

func NewUploadHandler(service services.PortfolioService, maxUploadBytes int64) *UploadHandler {
	return &UploadHandler{
		portfolioService: service,
		maxUploadBytes:   maxUploadBytes,
	}
}

func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	limitMB := h.maxUploadBytes / (1024 * 1024)
	reply := h.responder(w, r)

	// Leave room for the multipart envelope around the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+1024*1024)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		log.Warn("Failed to parse multipart form or request too large", "error", err, "limit", h.maxUploadBytes)
		reply.fail(fmt.Sprintf("Failed to parse form or request too large (max %d MB)", limitMB), http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		log.Warn("Failed to retrieve file from request", "error", err)
		reply.fail("Failed to retrieve file from request. Ensure 'file' field is used.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if fileHeader.Size > h.maxUploadBytes {
		log.Warn("Uploaded file too large", "fileSize", fileHeader.Size, "limit", h.maxUploadBytes)
		reply.fail(fmt.Sprintf("File too large, max %d MB", limitMB), http.StatusBadRequest)
		return
	}

	if err := validation.ValidateFileExtension(fileHeader.Filename); err != nil {
		reply.fail(err.Error(), http.StatusBadRequest)
		return
	}

	clientContentType := fileHeader.Header.Get("Content-Type")
	if err := validation.ValidateClientContentType(clientContentType); err != nil {
		reply.fail(err.Error(), http.StatusBadRequest)
		return
	}

	detectedContentType, err := validation.ValidateFileContentByMagicBytes(file, fileHeader.Filename)
	if err != nil {
		log.Warn("Server-side file content validation failed", "filename", fileHeader.Filename, "error", err)
		reply.fail(err.Error(), http.StatusBadRequest)
		return
	}
	log.Info("Processing upload request", "filename", fileHeader.Filename, "clientType", clientContentType, "detectedType", detectedContentType, "size", fileHeader.Size)

	result, err := h.portfolioService.ProcessUpload(fileHeader.Filename, file)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrParsingFailed):
			log.Warn("Upload could not be parsed", "filename", fileHeader.Filename, "error", err)
			reply.fail(parseFailureMessage(err), http.StatusBadRequest)
		case errors.Is(err, services.ErrStorageFailed):
			log.Error("Upload could not be stored", "filename", fileHeader.Filename, "error", err)
			reply.fail("An internal error occurred while storing the file. Please try again later.", http.StatusInternalServerError)
		default:
			log.Error("Internal error processing upload", "filename", fileHeader.Filename, "error", err)
			reply.fail("An internal error occurred while processing the file. Please try again later.", http.StatusInternalServerError)
		}
		return
	}

	reply.ok(result, fmt.Sprintf("%s: %d registros cargados", result.FileName, result.RecordCount))
}

// parseFailureMessage describes why an upload was rejected without naming
// any server-side path.
func parseFailureMessage(err error) string {
	var formatErr *parsers.UnsupportedFormatError
	if errors.As(err, &formatErr) {
		return "Unsupported file format: " + formatErr.Detail()
	}
	return "The file could not be read"
}

// uploadResponder answers JSON clients directly and sends browser form
// posts back to the dashboard with a flash message.
type uploadResponder struct {
	w        http.ResponseWriter
	r        *http.Request
	redirect bool
}

func (h *UploadHandler) responder(w http.ResponseWriter, r *http.Request) uploadResponder {
	// Only the dashboard is an accepted target.
	return uploadResponder{w: w, r: r, redirect: r.URL.Query().Get("redirect") == "/"}
}

func (u uploadResponder) fail(message string, statusCode int) {
	if u.redirect {
		u.flash(message, FlashError)
		return
	}
	utils.SendJSONError(u.w, message, statusCode)
}

func (u uploadResponder) ok(result *services.UploadResult, message string) {
	if u.redirect {
		u.flash(message, FlashOK)
		return
	}
	utils.SendJSON(u.w, result)
}

func (u uploadResponder) flash(message, kind string) {
	query := url.Values{}
	query.Set(flashMessageParam, message)
	query.Set(flashKindParam, kind)
	http.Redirect(u.w, u.r, "/?"+query.Encode(), http.StatusSeeOther)
}
