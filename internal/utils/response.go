package utils

import "github.com/gofiber/fiber/v3"

// PageResponse sends one page of a listing as {data, total}
func PageResponse(c fiber.Ctx, data any, total int64) error {
	return c.JSON(fiber.Map{
		"data":  data,
		"total": total,
	})
}

// ErrorResponse sends a plain error message
func ErrorResponse(c fiber.Ctx, statusCode int, message string) error {
	return c.Status(statusCode).JSON(fiber.Map{
		"error": message,
	})
}

// AttachmentResponse sends a generated file for download
func AttachmentResponse(c fiber.Ctx, filename, contentType string, data []byte) error {
	c.Attachment(filename)
	c.Set(fiber.HeaderContentType, contentType)
	return c.Send(data)
}
