package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/h2non/filetype"

	"github.com/ignatzorin/ecotrack-backend/internal/http/handlers/common"
	"github.com/ignatzorin/ecotrack-backend/internal/models"
	"github.com/ignatzorin/ecotrack-backend/internal/service"
	"github.com/ignatzorin/ecotrack-backend/internal/storage"
)

// Разрешённые типы снимков отходов
var allowedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

// Разрешённые расширения файлов
var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// ReportHandler обслуживает маршруты отчётов об отходах.
type ReportHandler struct {
	reports     *service.ReportService
	collections *service.CollectionService
	storage     *storage.PhotoStorage
}

// NewReportHandler создаёт новый хэндлер.
func NewReportHandler(reports *service.ReportService, collections *service.CollectionService, storage *storage.PhotoStorage) *ReportHandler {
	return &ReportHandler{reports: reports, collections: collections, storage: storage}
}

type createReportRequest struct {
	Location           string                     `json:"location" binding:"required"`
	WasteType          string                     `json:"waste_type" binding:"required"`
	Amount             string                     `json:"amount" binding:"required"`
	ImageURL           *string                    `json:"image_url"`
	VerificationResult *models.VerificationResult `json:"verification_result"`
}

// Create обрабатывает POST /reports.
func (h *ReportHandler) Create(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	var req createReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "location, waste_type и amount обязательны"})
		return
	}

	report, err := h.reports.CreateReport(c.Request.Context(), userID, service.CreateReportInput{
		Location:           req.Location,
		WasteType:          req.WasteType,
		Amount:             req.Amount,
		ImageURL:           req.ImageURL,
		VerificationResult: req.VerificationResult,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, report)
}

// ListOwn обрабатывает GET /reports: отчёты текущего пользователя.
func (h *ReportHandler) ListOwn(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	reports, err := h.reports.ReportsByUser(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

// ListRecent обрабатывает GET /reports/recent.
func (h *ReportHandler) ListRecent(c *gin.Context) {
	limit := common.ParseIntQuery(c, "limit", 10)

	reports, err := h.reports.RecentReports(c.Request.Context(), limit)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

// ListPending обрабатывает GET /reports/pending: неразобранные отчёты
// для коллекторов.
func (h *ReportHandler) ListPending(c *gin.Context) {
	reports, err := h.reports.PendingReports(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

// ListTasks обрабатывает GET /reports/tasks.
func (h *ReportHandler) ListTasks(c *gin.Context) {
	limit := common.ParseIntQuery(c, "limit", 20)

	tasks, err := h.reports.CollectionTasks(c.Request.Context(), limit)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// Status обрабатывает GET /reports/:id/status.
func (h *ReportHandler) Status(c *gin.Context) {
	reportID, err := common.ParseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "некорректный идентификатор"})
		return
	}

	status, err := h.reports.CollectionStatus(c.Request.Context(), reportID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// Claim обрабатывает POST /reports/:id/claim: коллектор берёт отчёт в работу.
func (h *ReportHandler) Claim(c *gin.Context) {
	collectorID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	reportID, err := common.ParseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "некорректный идентификатор"})
		return
	}

	report, err := h.collections.ClaimReport(c.Request.Context(), reportID, collectorID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// Verify обрабатывает POST /reports/:id/verify: коллектор подтверждает сбор,
// отчёт завершается, начисляются баллы обеим сторонам.
func (h *ReportHandler) Verify(c *gin.Context) {
	collectorID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	reportID, err := common.ParseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "некорректный идентификатор"})
		return
	}

	// Результат верификации опционален: пустое тело или пустой объект
	// означают расчёт без него.
	var payload *models.VerificationResult
	var body models.VerificationResult
	if err := c.ShouldBindJSON(&body); err != nil {
		if !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "некорректный результат верификации"})
			return
		}
	} else if body != (models.VerificationResult{}) {
		payload = &body
	}

	collected, err := h.collections.VerifyCollection(c.Request.Context(), reportID, collectorID, payload)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, collected)
}

// ListCollected обрабатывает GET /collections: собранные текущим коллектором.
func (h *ReportHandler) ListCollected(c *gin.Context) {
	collectorID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	collected, err := h.reports.CollectedByCollector(c.Request.Context(), collectorID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"collections": collected})
}

// UploadImage обрабатывает POST /reports/images: снимок отходов для отчёта.
func (h *ReportHandler) UploadImage(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "поле file обязательно"})
		return
	}

	if file.Size == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "файл не может быть пустым"})
		return
	}
	if file.Size > h.storage.MaxUploadBytes() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("размер файла превышает лимит %d байт", h.storage.MaxUploadBytes()),
		})
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExtensions[ext] {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("неподдерживаемый формат файла. Разрешены: %s", strings.Join(getAllowedExtensions(), ", ")),
		})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer src.Close()

	// Читаем первые 512 байт для проверки магических байтов
	buffer := make([]byte, 512)
	n, err := src.Read(buffer)
	if err != nil && err != io.EOF {
		c.JSON(http.StatusBadRequest, gin.H{"error": "не удалось прочитать файл"})
		return
	}

	kind, err := filetype.Match(buffer[:n])
	if err != nil || kind == filetype.Unknown {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "не удалось определить тип файла. Разрешены только изображения",
		})
		return
	}

	contentType := kind.MIME.Value
	if !allowedMimeTypes[contentType] {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("неподдерживаемый тип файла (%s). Разрешены изображения: %s", contentType, strings.Join(getAllowedMimeTypes(), ", ")),
		})
		return
	}

	// Расширение обязано соответствовать магическим байтам.
	// .jpg и .jpeg считаем эквивалентными.
	expectedExt := "." + kind.Extension
	if ext != expectedExt && !(ext == ".jpg" && expectedExt == ".jpeg") && !(ext == ".jpeg" && expectedExt == ".jpg") {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("расширение файла (%s) не соответствует реальному типу (%s)", ext, expectedExt),
		})
		return
	}

	// Сбрасываем позицию файла для сохранения
	if seeker, ok := src.(io.Seeker); ok {
		if _, err := seeker.Seek(0, io.SeekStart); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "не удалось сбросить позицию файла"})
			return
		}
	}

	relativePath, size, err := h.storage.Save(c.Request.Context(), userID, ext, src)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"image_url": "/media/" + filepath.ToSlash(relativePath),
		"file_type": contentType,
		"file_size": size,
	})
}

// getAllowedExtensions возвращает список разрешённых расширений.
func getAllowedExtensions() []string {
	exts := make([]string, 0, len(allowedExtensions))
	for ext := range allowedExtensions {
		exts = append(exts, ext)
	}
	return exts
}

// getAllowedMimeTypes возвращает список разрешённых MIME типов.
func getAllowedMimeTypes() []string {
	types := make([]string, 0, len(allowedMimeTypes))
	for mimeType := range allowedMimeTypes {
		types = append(types, mimeType)
	}
	return types
}
