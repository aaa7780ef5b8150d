package server

import (
	"encoding/json"
	"mime/multipart"
	"strings"

	"huddle/internal/models"
	"huddle/internal/service"

	"github.com/gofiber/fiber/v2"
)

const (
	// payloadField is the form field that carries the JSON payload of a
	// multipart request.
	payloadField = "data"
	// fileField is the multipart file part holding an uploaded image.
	fileField = "single"
)

// currentUserID returns the authenticated user stored by AuthRequired.
func currentUserID(c *fiber.Ctx) string {
	userID, _ := c.Locals("userID").(string)
	return userID
}

// parseID extracts a route parameter as an ObjectId hex string.
// On failure it returns a validation error for the caller to respond with.
func parseID(c *fiber.Ctx, param string) (string, error) {
	id := strings.TrimSpace(c.Params(param))
	if !models.IsValidID(id) {
		return "", models.NewValidationError(service.MsgInvalidID)
	}
	return id, nil
}

func isMultipart(c *fiber.Ctx) bool {
	ct := strings.ToLower(c.Get(fiber.HeaderContentType))
	return strings.HasPrefix(ct, fiber.MIMEMultipartForm) ||
		strings.HasPrefix(ct, fiber.MIMEApplicationForm)
}

// parsePayload decodes the request payload into dst. Forms carry the payload
// as a JSON document in the "data" field; JSON bodies may carry it either
// directly or under a "data" string. A missing payload leaves dst untouched.
func parsePayload(c *fiber.Ctx, dst any) error {
	if isMultipart(c) {
		raw := c.FormValue(payloadField)
		if raw == "" {
			return nil
		}
		return decodeJSON([]byte(raw), dst)
	}

	body := c.Body()
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil
	}

	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapper); err == nil && len(wrapper.Data) > 0 && string(wrapper.Data) != "null" {
		// A "data" member must hold the payload as a JSON string.
		var inner string
		if err := json.Unmarshal(wrapper.Data, &inner); err != nil {
			return models.NewValidationError(msgInvalidBody)
		}
		return decodeJSON([]byte(inner), dst)
	}
	return decodeJSON(body, dst)
}

const msgInvalidBody = "Invalid request body"

func decodeJSON(raw []byte, dst any) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return models.NewValidationError(msgInvalidBody)
	}
	return nil
}

// uploadedFiles returns the files sent in the "single" part, if any.
func uploadedFiles(c *fiber.Ctx) []*multipart.FileHeader {
	if !strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm) {
		return nil
	}
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil
	}
	return form.File[fileField]
}
