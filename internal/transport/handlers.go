package transport

import (
	"github.com/ds124wfegd/randaug/internal/service"
)

type ImageHandler struct {
	service service.AugmentService
}

func NewImageHandler(service service.AugmentService) *ImageHandler {
	return &ImageHandler{service: service}
}
