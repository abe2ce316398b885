package handlers

import (
	"errors"
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"github.com/example/vitecommerce/internal/apperror"
	"github.com/example/vitecommerce/internal/middleware"
	"github.com/example/vitecommerce/internal/models"
	"github.com/example/vitecommerce/internal/services"
)

const maxImageSize = 5 << 20

func respond(c *fiber.Ctx, status int, message string, data interface{}) error {
	body := fiber.Map{"success": true}
	if message != "" {
		body["message"] = message
	}
	if data != nil {
		body["data"] = data
	}
	return c.Status(status).JSON(body)
}

func currentUser(c *fiber.Ctx) (*models.User, error) {
	user, ok := middleware.GetCurrentUser(c)
	if !ok {
		return nil, apperror.Unauthorized("Not authorized, no token")
	}
	return user, nil
}

func paramID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, apperror.InvalidInput("Invalid " + name)
	}
	return id, nil
}

// formString returns a pointer to a submitted form value, or nil when the
// field was not sent.
func formString(c *fiber.Ctx, key string) *string {
	if c.Request().PostArgs().Has(key) {
		v := c.FormValue(key)
		return &v
	}
	if form, err := c.MultipartForm(); err == nil {
		if values, ok := form.Value[key]; ok && len(values) > 0 {
			return &values[0]
		}
	}
	return nil
}

// formImages reads the image files submitted under field.
func formImages(c *fiber.Ctx, field string) ([]services.Upload, error) {
	form, err := c.MultipartForm()
	if errors.Is(err, fasthttp.ErrNoMultipartForm) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.InvalidInput("Invalid multipart form: " + err.Error())
	}

	files := form.File[field]
	uploads := make([]services.Upload, 0, len(files))
	for _, fh := range files {
		upload, err := readUpload(fh)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, upload)
	}
	return uploads, nil
}

// formImage reads at most one image submitted under field.
func formImage(c *fiber.Ctx, field string) (*services.Upload, error) {
	uploads, err := formImages(c, field)
	if err != nil || len(uploads) == 0 {
		return nil, err
	}
	return &uploads[0], nil
}

func readUpload(fh *multipart.FileHeader) (services.Upload, error) {
	if fh.Size > maxImageSize {
		return services.Upload{}, apperror.InvalidInput("Image must not exceed 5MB")
	}
	f, err := fh.Open()
	if err != nil {
		return services.Upload{}, apperror.Internal("failed to read upload", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxImageSize+1))
	if err != nil {
		return services.Upload{}, apperror.Internal("failed to read upload", err)
	}
	return services.Upload{Filename: fh.Filename, Data: data}, nil
}
