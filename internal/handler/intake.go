package handler

import (
    "context"
    "errors"
    "io"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/ev-service-portal/internal/model"
    "github.com/iliyamo/ev-service-portal/internal/service"
)

// Submitter raises a ticket from the intake form.
type Submitter interface {
    Submit(ctx context.Context, f service.IntakeForm) (model.Ticket, error)
}

// IntakeHandler serves the public ticket form.  It answers CORS preflight
// itself so the form can be hosted on any origin.
type IntakeHandler struct {
    Intake         Submitter
    MaxUploadBytes int64
}

func NewIntakeHandler(s Submitter, maxUpload int64) *IntakeHandler {
    return &IntakeHandler{Intake: s, MaxUploadBytes: maxUpload}
}

// Submit handles every method on the intake route: OPTIONS gets the
// preflight answer, POST creates a ticket and anything else is 405.
func (h *IntakeHandler) Submit(c echo.Context) error {
    hdr := c.Response().Header()
    hdr.Set("Access-Control-Allow-Origin", "*")

    req := c.Request()
    if req.Method == http.MethodOptions {
        hdr.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
        hdr.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
        return c.String(http.StatusOK, "ok")
    }
    if req.Method != http.MethodPost {
        return c.JSON(http.StatusMethodNotAllowed, echo.Map{"error": "Method not allowed"})
    }
    if !strings.Contains(req.Header.Get(echo.HeaderContentType), "multipart/form-data") {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "Expected multipart/form-data"})
    }

    limit := h.MaxUploadBytes
    if limit <= 0 {
        limit = 10 << 20
    }
    req.Body = http.MaxBytesReader(c.Response(), req.Body, limit)
    if err := req.ParseMultipartForm(limit); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
    }

    form := service.IntakeForm{
        Plate:    req.FormValue("bike_number_text"),
        Issue:    req.FormValue("issue_description"),
        Location: req.FormValue("location"),
        Contact:  req.FormValue("contact"),
    }
    up, err := readUpload(c, "image")
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
    }
    form.Image = up

    ctx, cancel := withTimeout(c)
    defer cancel()
    if _, err := h.Intake.Submit(ctx, form); err != nil {
        if errors.Is(err, service.ErrValidation) {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Ticket created successfully"})
}

// readUpload returns the named file part, or nil when the form has none
// or the part is empty.
func readUpload(c echo.Context, field string) (*service.Upload, error) {
    fh, err := c.FormFile(field)
    if errors.Is(err, http.ErrMissingFile) {
        return nil, nil
    }
    if err != nil {
        return nil, err
    }
    if fh.Size == 0 && fh.Filename == "" {
        return nil, nil
    }
    f, err := fh.Open()
    if err != nil {
        return nil, err
    }
    defer f.Close()
    data, err := io.ReadAll(f)
    if err != nil {
        return nil, err
    }
    return &service.Upload{Filename: fh.Filename, ContentType: fh.Header.Get("Content-Type"), Data: data}, nil
}
