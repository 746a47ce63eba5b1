package api

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/insightdelivered/reconciliation-bot/internal/buildinfo"
	"github.com/insightdelivered/reconciliation-bot/internal/ledger"
	"github.com/insightdelivered/reconciliation-bot/internal/logger"
	"github.com/insightdelivered/reconciliation-bot/internal/models"
	"github.com/insightdelivered/reconciliation-bot/internal/pipeline"
	"github.com/insightdelivered/reconciliation-bot/internal/writer"
)

const (
	xlsxMIME     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	xlsxFilename = "reconciliation.xlsx"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// ViewResponse is one ledger view with its total.
type ViewResponse struct {
	Name  string          `json:"name"`
	Rows  []ledger.Row    `json:"rows"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

// PreviewResponse is the JSON response from /api/preview.
type PreviewResponse struct {
	Success bool         `json:"success"`
	RunID   string       `json:"runId"`
	Kind    string       `json:"kind"`
	Count   int          `json:"count"`
	Debits  ViewResponse `json:"debits"`
	Credits ViewResponse `json:"credits"`
}

// Handler holds the HTTP handlers for the API.
type Handler struct {
	Engine *pipeline.Engine
	// IncludeUncategorized and Debug are defaults; requests may override
	// them with form fields of the same name.
	IncludeUncategorized bool
	Debug                bool
}

// RegisterRoutes sets up the API routes.
func (h *Handler) RegisterRoutes(r fiber.Router) {
	r.Get("/api/health", HandleHealth)
	r.Post("/api/reconcile", h.HandleReconcile)
	r.Post("/api/preview", h.HandlePreview)
}

// HandleHealth reports liveness.
func HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"engine":  "fiber",
		"version": buildinfo.Version,
	})
}

// HandleReconcile runs the upload and returns the ledger workbook.
func (h *Handler) HandleReconcile(c *fiber.Ctx) error {
	out, debug, err := h.run(c)
	if err != nil {
		return h.writeError(c, err, debug)
	}

	var buf bytes.Buffer
	if err := (&writer.XLSXWriter{}).Write(&buf, out.Ledger); err != nil {
		return h.writeError(c, models.EngineError("XLSX", "could not build workbook", err), debug)
	}

	c.Set("X-Run-ID", out.RunID)
	c.Attachment(xlsxFilename)
	c.Set(fiber.HeaderContentType, xlsxMIME)
	return c.Send(buf.Bytes())
}

// HandlePreview runs the upload and returns both views as JSON.
func (h *Handler) HandlePreview(c *fiber.Ctx) error {
	out, debug, err := h.run(c)
	if err != nil {
		return h.writeError(c, err, debug)
	}

	c.Set("X-Run-ID", out.RunID)
	return c.JSON(PreviewResponse{
		Success: true,
		RunID:   out.RunID,
		Kind:    string(out.Kind),
		Count:   out.Ledger.Debits.Len() + out.Ledger.Credits.Len(),
		Debits:  viewResponse(out.Ledger.Debits),
		Credits: viewResponse(out.Ledger.Credits),
	})
}

func viewResponse(v ledger.View) ViewResponse {
	rows := v.Rows
	if rows == nil {
		rows = []ledger.Row{}
	}
	return ViewResponse{Name: v.Name, Rows: rows, Total: v.Total(), Count: len(rows)}
}

// run reads the multipart form and runs the pipeline. It also returns the
// effective debug setting so errors can be rendered accordingly.
func (h *Handler) run(c *fiber.Ctx) (*pipeline.Output, bool, error) {
	debug := h.Debug
	form, err := c.MultipartForm()
	if err != nil {
		return nil, debug, errBadRequest("No file uploaded. Use form field 'file'.")
	}
	debug = formBool(form, "debug", debug)

	statement := firstFile(form, "file")
	if statement == nil {
		return nil, debug, errBadRequest("No file uploaded. Use form field 'file'.")
	}
	// Reject unknown types before reading anything.
	if _, err := pipeline.DetectKind(statement.Filename); err != nil {
		return nil, debug, err
	}

	in := pipeline.Input{
		Filename:             statement.Filename,
		IncludeUncategorized: formBool(form, "include_uncategorized", h.IncludeUncategorized),
	}

	f, err := statement.Open()
	if err != nil {
		return nil, debug, models.EngineError("", "could not read upload", err)
	}
	defer f.Close()
	in.Statement = f

	if rules := firstFile(form, "rules"); rules != nil {
		rf, err := rules.Open()
		if err != nil {
			return nil, debug, models.EngineError("COA", "could not read upload", err)
		}
		defer rf.Close()
		in.RulesName, in.Rules = rules.Filename, rf
	}

	log := logger.FromContext(c.UserContext())
	log.Debug().
		Str("file", statement.Filename).
		Int64("size", statement.Size).
		Bool("rules", in.Rules != nil).
		Msg("reconcile request")

	out, err := h.Engine.Run(c.UserContext(), in)
	return out, debug, err
}

func firstFile(form *multipart.Form, field string) *multipart.FileHeader {
	if files := form.File[field]; len(files) > 0 {
		return files[0]
	}
	return nil
}

func formBool(form *multipart.Form, field string, def bool) bool {
	vals := form.Value[field]
	if len(vals) == 0 || strings.TrimSpace(vals[0]) == "" {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(vals[0])) {
	case "on", "yes":
		return true
	case "off", "no":
		return false
	}
	b, err := strconv.ParseBool(strings.TrimSpace(vals[0]))
	if err != nil {
		return def
	}
	return b
}

type badRequest struct{ msg string }

func (e *badRequest) Error() string { return e.msg }

func errBadRequest(format string, args ...interface{}) error {
	return &badRequest{msg: fmt.Sprintf(format, args...)}
}
