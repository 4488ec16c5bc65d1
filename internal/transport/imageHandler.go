package transport

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ds124wfegd/randaug/internal/entity"
	"github.com/ds124wfegd/randaug/internal/pkg/storage"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (h *ImageHandler) UploadImage(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No image file provided"})
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !isValidImageType(ext) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image type. Supported: jpg, jpeg, png, gif"})
		return
	}
	format, _ := storage.ParseFormat(ext)

	params, err := parseParams(c, h.service.DefaultParams())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer src.Close()

	id := uuid.New().String()

	imageID, err := h.service.Submit(c.Request.Context(), id, strings.ToLower(format.String()), src, params)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, entity.UploadResponse{
		ID:     imageID,
		Status: entity.StatusProcessing,
	})
}

func (h *ImageHandler) GetImage(c *gin.Context) {
	id := c.Param("id")

	image, err := h.service.GetImage(id)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	response := entity.ImageResponse{
		ID:     image.ID,
		Status: image.Status,
		Params: image.Params,
		Error:  image.ErrorMsg,
	}

	if image.Status == entity.StatusCompleted {
		response.Outputs = image.Outputs
	}

	c.JSON(http.StatusOK, response)
}

func (h *ImageHandler) DeleteImage(c *gin.Context) {
	id := c.Param("id")

	err := h.service.DeleteImage(id)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Image deleted successfully"})
}

// PreviewImage augments the uploaded image once and returns it as PNG.
func (h *ImageHandler) PreviewImage(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No image file provided"})
		return
	}

	params, err := parseParams(c, h.service.DefaultParams())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer src.Close()

	out, err := h.service.Preview(src, params)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.Data(http.StatusOK, "image/png", out)
}

func (h *ImageHandler) GetPolicy(c *gin.Context) {
	policy, err := h.service.Policy(c.DefaultQuery("variant", h.service.DefaultParams().Variant))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, policy)
}

// parseParams overlays the optional form fields n, m, variant, fill, seed
// and copies on the service defaults.
func parseParams(c *gin.Context, params entity.Params) (entity.Params, error) {
	if v, ok := c.GetPostForm("variant"); ok {
		params.Variant = v
	}
	for _, field := range []struct {
		name string
		dst  *int
	}{
		{"n", &params.N},
		{"m", &params.M},
		{"copies", &params.Copies},
	} {
		v, ok := c.GetPostForm(field.name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return params, fmt.Errorf("%s must be an integer", field.name)
		}
		*field.dst = n
	}
	if v, ok := c.GetPostForm("seed"); ok {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return params, fmt.Errorf("seed must be an unsigned integer")
		}
		params.Seed = &seed
	}
	if v, ok := c.GetPostForm("fill"); ok {
		params.FillColor = parseFill(v)
	}
	return params, nil
}

// parseFill turns "128" into a scalar, "1,2,3" into a tuple and leaves
// anything else to be resolved as a color name.
func parseFill(v string) any {
	parts := strings.Split(v, ",")
	values := make([]any, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return v
		}
		values = append(values, n)
	}
	if len(parts) == 1 {
		return values[0]
	}
	return values
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrImageNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrInvalidParams), errors.Is(err, entity.ErrUnsupportedFormat):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func isValidImageType(ext string) bool {
	validTypes := map[string]bool{
		".jpg":  true,
		".jpeg": true,
		".png":  true,
		".gif":  true,
	}
	return validTypes[ext]
}
