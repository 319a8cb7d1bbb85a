package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/yourusername/screening-api/internal/service"
)

const maxUploadBytes = 10 * 1024 * 1024

type ExtractHandler struct {
	extract func([]byte) (string, []string, error)
}

func NewExtractHandler() *ExtractHandler {
	return &ExtractHandler{extract: service.ExtractPDFText}
}

// ExtractText handles POST /api/extract-text
// Accepts a PDF file via multipart form, extracts text, returns it
func (h *ExtractHandler) ExtractText(c *gin.Context) {
	data, filename, ok := readPDFUpload(c)
	if !ok {
		return
	}

	text, warnings, err := h.extract(data)
	if errors.Is(err, service.ErrNotPDF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid PDF file"})
		return
	}
	if err != nil {
		log.Error().Err(err).Str("filename", filename).Msg("Failed to extract text from PDF")
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": "Could not extract text from this PDF. It may be image-based or corrupted.",
		})
		return
	}

	if strings.TrimSpace(text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "No text could be extracted. This PDF may be image-based (scanned). Try a text-based PDF.",
		})
		return
	}

	log.Info().
		Str("filename", filename).
		Int("bytes", len(data)).
		Int("textLen", len(text)).
		Int("warnings", len(warnings)).
		Msg("PDF text extracted")

	if warnings == nil {
		warnings = []string{}
	}
	c.JSON(http.StatusOK, gin.H{
		"text":     text,
		"filename": filename,
		"warnings": warnings,
	})
}

// readPDFUpload reads the "file" form field, writing the error response itself
// when the upload is missing, not a PDF or too large
func readPDFUpload(c *gin.Context) ([]byte, string, bool) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return nil, "", false
	}
	defer file.Close()

	// Validate file type
	contentType := header.Header.Get("Content-Type")
	if !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") &&
		contentType != "application/pdf" && contentType != "application/x-pdf" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only PDF files are supported"})
		return nil, "", false
	}

	// Limit to 10MB
	if header.Size > maxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File too large. Maximum size is 10MB."})
		return nil, "", false
	}

	data, err := io.ReadAll(file)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read uploaded file")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read file"})
		return nil, "", false
	}

	return data, header.Filename, true
}
