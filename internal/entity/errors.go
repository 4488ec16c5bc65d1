package entity

import "errors"

var (
	ErrImageNotFound     = errors.New("image not found")
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrInvalidParams     = errors.New("invalid augmentation parameters")
)
