package handlers

import (
	"encoding/base64"
	"io"
	"net/http"
	"strings"

	"github.com/platewise/platewise-backend/internal/analysis"
	"github.com/platewise/platewise-backend/internal/apperr"
	"github.com/platewise/platewise-backend/internal/meals"

	"github.com/gin-gonic/gin"
)

// MaxImageBytes caps uploaded meal photos.
const MaxImageBytes = 10 << 20

// AnalysisFrontHandler serves meal photo analysis.
type AnalysisFrontHandler struct {
	svc *meals.Service
}

// NewAnalysisFrontHandler constructs an AnalysisFrontHandler.
func NewAnalysisFrontHandler(svc *meals.Service) *AnalysisFrontHandler {
	return &AnalysisFrontHandler{svc: svc}
}

// analyzeRequest is the JSON form of an analysis request. Image is base64,
// optionally as a data URL.
type analyzeRequest struct {
	Image      string `json:"image"`
	MIMEType   string `json:"mime_type"`
	Language   string `json:"language"`
	Correction string `json:"correction"`
}

type reviseRequest struct {
	Previous   analysis.Estimate `json:"previous"`
	Correction string            `json:"correction"`
	Language   string            `json:"language"`
}

// Analyze accepts multipart (image, language, correction) or JSON.
func (h *AnalysisFrontHandler) Analyze(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	input, errInput := readAnalyzeInput(c)
	if errInput != nil {
		writeError(c, errInput)
		return
	}
	result, errAnalyze := h.svc.Analyze(c.Request.Context(), userID, input)
	if errAnalyze != nil {
		writeError(c, errAnalyze)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Revise corrects a previous estimate with free text.
func (h *AnalysisFrontHandler) Revise(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var body reviseRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		writeError(c, apperr.Invalid("invalid json"))
		return
	}
	result, errRevise := h.svc.Revise(c.Request.Context(), userID, body.Previous, body.Correction, body.Language)
	if errRevise != nil {
		writeError(c, errRevise)
		return
	}
	c.JSON(http.StatusOK, result)
}

func readAnalyzeInput(c *gin.Context) (meals.AnalyzeInput, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxImageBytes+(1<<20))
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		return readMultipartInput(c)
	}

	var body analyzeRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		return meals.AnalyzeInput{}, apperr.Invalid("invalid request body")
	}
	data, mimeType, errDecode := decodeImagePayload(body.Image)
	if errDecode != nil {
		return meals.AnalyzeInput{}, errDecode
	}
	if strings.TrimSpace(body.MIMEType) != "" {
		mimeType = strings.TrimSpace(body.MIMEType)
	}
	return meals.AnalyzeInput{Image: data, MIMEType: mimeType, Language: body.Language, Correction: body.Correction}, nil
}

func readMultipartInput(c *gin.Context) (meals.AnalyzeInput, error) {
	header, errFile := c.FormFile("image")
	if errFile != nil {
		return meals.AnalyzeInput{}, apperr.Invalid("image file is required")
	}
	if header.Size > MaxImageBytes {
		return meals.AnalyzeInput{}, apperr.Invalid("image is too large")
	}
	file, errOpen := header.Open()
	if errOpen != nil {
		return meals.AnalyzeInput{}, apperr.Invalid("image could not be read")
	}
	defer func() { _ = file.Close() }()
	data, errRead := io.ReadAll(io.LimitReader(file, MaxImageBytes+1))
	if errRead != nil {
		return meals.AnalyzeInput{}, apperr.Invalid("image could not be read")
	}
	if len(data) > MaxImageBytes {
		return meals.AnalyzeInput{}, apperr.Invalid("image is too large")
	}
	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}
	return meals.AnalyzeInput{
		Image:      data,
		MIMEType:   mimeType,
		Language:   c.PostForm("language"),
		Correction: c.PostForm("correction"),
	}, nil
}

// decodeImagePayload accepts raw base64 or a data URL ("data:<mime>;base64,<data>").
func decodeImagePayload(raw string) ([]byte, string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, "", apperr.Invalid("image is required")
	}
	mimeType := ""
	if strings.HasPrefix(raw, "data:") {
		meta, payload, found := strings.Cut(raw, ",")
		if !found {
			return nil, "", apperr.Invalid("invalid image data url")
		}
		mimeType, _, _ = strings.Cut(strings.TrimPrefix(meta, "data:"), ";")
		raw = payload
	}
	data, errDecode := base64.StdEncoding.DecodeString(raw)
	if errDecode != nil {
		var errRaw error
		data, errRaw = base64.RawStdEncoding.DecodeString(raw)
		if errRaw != nil {
			return nil, "", apperr.Invalid("image is not valid base64")
		}
	}
	if len(data) > MaxImageBytes {
		return nil, "", apperr.Invalid("image is too large")
	}
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return data, mimeType, nil
}

