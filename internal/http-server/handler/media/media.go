package media

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"product-media-manager/internal/domain"
	"product-media-manager/internal/http-server/handler/media/dto"
	"product-media-manager/internal/mediastore"
	media_uc "product-media-manager/internal/usecase/media"
	"product-media-manager/internal/usecase/sequencer"
	"product-media-manager/internal/watermark"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/wb-go/wbf/zlog"
)

const maxMemory = 32 << 20

type MediaHandler struct {
	usecase  mediaUsecase
	validate *validator.Validate
	logger   *zlog.Zerolog
}

func NewMediaHandler(usecase mediaUsecase, logger *zlog.Zerolog) *MediaHandler {
	return &MediaHandler{
		usecase:  usecase,
		validate: validator.New(),
		logger:   logger,
	}
}

func (h *MediaHandler) UploadMedia(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	productID, ok := h.productID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, domain.DefaultMaxUploadSize)
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to parse multipart form")
		h.respondError(w, http.StatusBadRequest, "Invalid request format", nil)
		return
	}

	file, handler, err := r.FormFile("file")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "File is required", nil)
		return
	}
	defer file.Close()

	if handler.Size > domain.DefaultMaxUploadSize {
		h.respondError(w, http.StatusRequestEntityTooLarge, "File too large", nil)
		return
	}

	view, err := h.usecase.UploadImage(ctx, productID, handler.Filename, handler.Header.Get("Content-Type"), handler.Size, file)
	if err != nil {
		h.handleMediaError(w, err, "Failed to upload file")
		return
	}

	h.respondJSON(w, http.StatusCreated, view)
}

func (h *MediaHandler) ListMedia(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.productID(w, r)
	if !ok {
		return
	}

	views, err := h.usecase.List(r.Context(), productID)
	if err != nil {
		h.handleMediaError(w, err, "Failed to list media")
		return
	}

	h.respondJSON(w, http.StatusOK, views)
}

func (h *MediaHandler) GenerateWatermark(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.productID(w, r)
	if !ok {
		return
	}
	index, ok := h.recordIndex(w, r)
	if !ok {
		return
	}

	if err := h.usecase.GenerateOne(r.Context(), productID, index); err != nil {
		h.handleMediaError(w, err, "Failed to generate watermark")
		return
	}

	views, err := h.usecase.List(r.Context(), productID)
	if err != nil || index >= len(views) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.respondJSON(w, http.StatusOK, views[index])
}

func (h *MediaHandler) GenerateAllWatermarks(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.productID(w, r)
	if !ok {
		return
	}

	summary, err := h.usecase.GenerateBulk(r.Context(), productID, nil)
	if err != nil {
		h.handleMediaError(w, err, "Failed to generate watermarks")
		return
	}

	h.respondJSON(w, http.StatusOK, dto.GenerateAllResponse{
		Total:     summary.Total,
		Succeeded: summary.Succeeded,
		Failed:    summary.Failed,
	})
}

func (h *MediaHandler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.productID(w, r)
	if !ok {
		return
	}

	var req dto.OrderRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.usecase.Reorder(r.Context(), productID, req.Order); err != nil {
		h.handleMediaError(w, err, "Failed to reorder media")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *MediaHandler) UpdateSKU(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.productID(w, r)
	if !ok {
		return
	}
	index, ok := h.recordIndex(w, r)
	if !ok {
		return
	}

	var req dto.SKURequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.usecase.UpdateSKU(r.Context(), productID, index, req.SKU); err != nil {
		h.handleMediaError(w, err, "Failed to update SKU")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *MediaHandler) DeleteMedia(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.productID(w, r)
	if !ok {
		return
	}
	index, ok := h.recordIndex(w, r)
	if !ok {
		return
	}

	if err := h.usecase.DeleteRecord(r.Context(), productID, index); err != nil {
		h.handleMediaError(w, err, "Failed to delete media")
		return
	}

	h.logger.Info().Int64("product_id", productID).Int("index", index).Msg("Media record deleted")
	w.WriteHeader(http.StatusNoContent)
}

func (h *MediaHandler) ClearMedia(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.productID(w, r)
	if !ok {
		return
	}

	if err := h.usecase.ClearAll(r.Context(), productID); err != nil {
		h.handleMediaError(w, err, "Failed to clear media")
		return
	}

	h.logger.Info().Int64("product_id", productID).Msg("Media list cleared")
	w.WriteHeader(http.StatusNoContent)
}

func (h *MediaHandler) Gallery(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.productID(w, r)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	gallery, err := h.usecase.Gallery(r.Context(), productID, page, perPage)
	if err != nil {
		h.handleMediaError(w, err, "Failed to load gallery")
		return
	}

	h.respondJSON(w, http.StatusOK, gallery)
}

func (h *MediaHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.usecase.Settings(r.Context())
	if err != nil {
		h.handleMediaError(w, err, "Failed to load settings")
		return
	}

	h.respondJSON(w, http.StatusOK, settingsPayload(cfg))
}

func (h *MediaHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req dto.SettingsPayload
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	cfg, err := configFromPayload(req)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	if err := h.usecase.SaveSettings(r.Context(), cfg); err != nil {
		h.handleMediaError(w, err, "Failed to save settings")
		return
	}

	h.respondJSON(w, http.StatusOK, settingsPayload(cfg))
}

func settingsPayload(cfg watermark.Config) dto.SettingsPayload {
	return dto.SettingsPayload{
		Enabled:         cfg.Enabled,
		Type:            string(cfg.Type),
		Position:        string(cfg.Position),
		Opacity:         cfg.Opacity,
		Padding:         cfg.Padding,
		Quality:         cfg.Quality,
		Text:            cfg.Text,
		FontSize:        cfg.FontSize,
		FontColor:       cfg.FontColor.Hex(),
		BackgroundColor: cfg.BackgroundColor.Hex(),
		ImagePath:       string(cfg.OverlayRef),
		ImageScale:      cfg.OverlayScalePercent,
	}
}

func configFromPayload(req dto.SettingsPayload) (watermark.Config, error) {
	fontColor, err := watermark.HexToRGB(req.FontColor)
	if err != nil {
		return watermark.Config{}, errors.New("invalid font color")
	}
	bgColor, err := watermark.HexToRGB(req.BackgroundColor)
	if err != nil {
		return watermark.Config{}, errors.New("invalid background color")
	}

	position := domain.Anchor(req.Position)
	if req.Position == "" {
		position = domain.AnchorBottomRight
	}

	return watermark.Config{
		Enabled:             req.Enabled,
		Type:                domain.WatermarkType(req.Type),
		Position:            position,
		Opacity:             req.Opacity,
		Padding:             req.Padding,
		Quality:             req.Quality,
		Text:                req.Text,
		FontSize:            req.FontSize,
		FontColor:           fontColor,
		BackgroundColor:     bgColor,
		OverlayRef:          domain.ImageHandle(req.ImagePath),
		OverlayScalePercent: req.ImageScale,
	}, nil
}

func (h *MediaHandler) productID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil || id < 1 {
		h.respondError(w, http.StatusBadRequest, "Invalid product ID", nil)
		return 0, false
	}
	return id, true
}

func (h *MediaHandler) recordIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		h.respondError(w, http.StatusBadRequest, "Invalid record index", nil)
		return 0, false
	}
	return index, true
}

func (h *MediaHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body", nil)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), nil)
		return false
	}
	return true
}

func (h *MediaHandler) handleMediaError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, media_uc.ErrRecordNotFound), errors.Is(err, mediastore.ErrIndexOutOfRange):
		h.respondError(w, http.StatusNotFound, "Media record not found", nil)
	case errors.Is(err, mediastore.ErrNotPermutation), errors.Is(err, media_uc.ErrEmptySKU):
		h.respondError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, watermark.ErrUnsupportedFormat):
		h.respondError(w, http.StatusBadRequest, "Unsupported file format. Allowed: jpg, jpeg, png, gif", nil)
	case errors.Is(err, watermark.ErrWatermarkDisabled):
		h.respondError(w, http.StatusConflict, "Watermarking is disabled", nil)
	case errors.Is(err, sequencer.ErrBulkInProgress):
		h.respondError(w, http.StatusConflict, "Bulk generation already running", nil)
	default:
		h.logger.Error().Err(err).Msg(fallback)
		h.respondError(w, http.StatusInternalServerError, fallback, err)
	}
}

func (h *MediaHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *MediaHandler) respondError(w http.ResponseWriter, status int, message string, err error) {
	response := dto.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	}
	if err != nil {
		response.Details = err.Error()
	}
	h.respondJSON(w, status, response)
}
