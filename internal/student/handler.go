package student

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"student-api/internal/metrics"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewHandler(service Service, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
		metrics: metrics,
	}
}

func (h *Handler) RegisterRoutes(router gin.IRouter) {
	router.GET("/students", h.ListStudents)
	router.GET("/students/majors", h.ListMajors)
	router.GET("/students/:id", h.GetStudent)
	router.POST("/students/add", h.AddStudent)
	router.POST("/students/modify/:id", h.UpdateStudent)
	router.DELETE("/students/:id", h.DeleteStudent)
}

func (h *Handler) ListStudents(c *gin.Context) {
	h.logger.InfoContext(c.Request.Context(), "fetching all students")

	students, err := h.service.ListStudents(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.metrics.RecordStudentsListViewed(c.Request.Context())

	c.JSON(http.StatusOK, students)
}

func (h *Handler) ListMajors(c *gin.Context) {
	majors, err := h.service.ListMajors(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, majors)
}

func (h *Handler) GetStudent(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid student ID"})
		return
	}

	h.logger.InfoContext(c.Request.Context(), "fetching student", "id", id)
	view, err := h.service.GetStudentByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.metrics.RecordStudentViewed(c.Request.Context())

	c.JSON(http.StatusOK, view)
}

func (h *Handler) AddStudent(c *gin.Context) {
	var input Input
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	upload, err := h.readUpload(c)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.logger.InfoContext(c.Request.Context(), "adding student", "email", input.Email)
	id, err := h.service.AddStudent(c.Request.Context(), input, upload)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.metrics.RecordStudentCreated(c.Request.Context())
	if upload != nil {
		h.metrics.RecordImageStored(c.Request.Context())
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Student added successfully!",
		"id":      id,
	})
}

func (h *Handler) UpdateStudent(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid student ID"})
		return
	}

	var input Input
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	upload, err := h.readUpload(c)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.logger.InfoContext(c.Request.Context(), "updating student", "id", id, "email", input.Email)
	if err := h.service.UpdateStudent(c.Request.Context(), id, input, upload); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.metrics.RecordStudentUpdated(c.Request.Context())
	if upload != nil {
		h.metrics.RecordImageStored(c.Request.Context())
	}

	c.JSON(http.StatusOK, gin.H{"message": "Student updated successfully"})
}

func (h *Handler) DeleteStudent(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid student ID"})
		return
	}

	h.logger.InfoContext(c.Request.Context(), "deleting student", "id", id)
	if err := h.service.DeleteStudent(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.metrics.RecordStudentDeleted(c.Request.Context())

	c.JSON(http.StatusOK, gin.H{"message": "Student deleted successfully!"})
}

// readUpload extracts the optional image file from the multipart form.
// Returns nil when the form carried no file.
func (h *Handler) readUpload(c *gin.Context) (*Upload, error) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, newValidationError("image", "Invalid image upload")
	}

	if fileHeader.Size > MaxImageSize {
		return nil, newValidationError("image", "Image must be 5MB or smaller")
	}

	f, err := fileHeader.Open()
	if err != nil {
		return nil, &StorageError{Op: "open upload", Err: err}
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, MaxImageSize+1))
	if err != nil {
		return nil, &StorageError{Op: "read upload", Err: err}
	}
	if len(content) > MaxImageSize {
		return nil, newValidationError("image", "Image must be 5MB or smaller")
	}

	return &Upload{Filename: fileHeader.Filename, Content: content}, nil
}

func (h *Handler) handleServiceError(c *gin.Context, err error) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		h.logger.Info("request rejected", "field", verr.Field, "reason", verr.Message)
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message})
		return
	}
	if errors.Is(err, ErrStudentNotFound) {
		h.logger.Info("student not found")
		c.JSON(http.StatusNotFound, gin.H{"error": "Student not found"})
		return
	}

	var serr *StorageError
	if errors.As(err, &serr) {
		h.logger.Error("storage failure", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Image storage error"})
		return
	}

	h.logger.Error("data access failure", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
}
