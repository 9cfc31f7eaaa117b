// =============================================================================
// Merchant Fee Intake - HTTP Handlers
// =============================================================================
//
// ENDPOINTS:
//   GET    /api/health                              liveness and version
//   GET    /api/v1/schemas                          configured column sets
//   GET    /api/v1/transactions/template?schema=    example CSV download
//   POST   /api/v1/transactions/upload              validate an uploaded file
//   POST   /api/v1/transactions/validate            validate rows sent as JSON
//   GET    /api/v1/batches                          stored batches
//   /api/v1/drafts/...                              manual entry sessions
//   POST   /api/v1/calculations/merchant-fee        submit a batch for pricing
//
// Validation outcomes, accepted or not, are 200 responses carrying the full
// error list. Non-200 answers are reserved for requests the pipeline could
// not run at all: missing file, unknown schema, unsupported format, an
// unreadable file.
//
// =============================================================================

package api

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ginjaninja78/merchant-fee-intake/internal/apperrors"
	"github.com/ginjaninja78/merchant-fee-intake/internal/config"
	"github.com/ginjaninja78/merchant-fee-intake/internal/intake"
	"github.com/ginjaninja78/merchant-fee-intake/internal/manual"
	"github.com/ginjaninja78/merchant-fee-intake/internal/pricing"
	"github.com/ginjaninja78/merchant-fee-intake/internal/sample"
	"github.com/ginjaninja78/merchant-fee-intake/internal/storage"
	"github.com/ginjaninja78/merchant-fee-intake/internal/types"
)

// Deps are the collaborators of a Handler. Batches may be nil when no
// database is configured.
type Deps struct {
	Config   *config.Config
	Pipeline *intake.Pipeline
	Drafts   *manual.Store
	Pricing  pricing.Client
	Batches  storage.BatchStore
	Logger   *zap.Logger
	Version  string
}

// Handler serves the HTTP API.
type Handler struct {
	cfg      *config.Config
	pipeline *intake.Pipeline
	drafts   *manual.Store
	pricing  pricing.Client
	batches  storage.BatchStore
	logger   *zap.Logger
	version  string
	timeout  time.Duration
	now      func() time.Time
}

func NewHandler(d Deps) *Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	drafts := d.Drafts
	if drafts == nil {
		drafts = manual.NewStore()
	}
	client := d.Pricing
	if client == nil {
		client = pricing.StubClient{}
	}
	return &Handler{
		cfg:      d.Config,
		pipeline: d.Pipeline,
		drafts:   drafts,
		pricing:  client,
		batches:  d.Batches,
		logger:   logger,
		version:  d.Version,
		timeout:  d.Config.Pricing.Timeout,
		now:      time.Now,
	}
}

// schema resolves a requested schema name to its canonical name and columns.
func (h *Handler) schema(name string) (string, types.RequiredColumnSet, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = h.cfg.DefaultSchema
	}
	cols, err := h.cfg.Schema(key)
	if err != nil {
		return "", nil, fmt.Errorf("unknown schema %q: %w", name, apperrors.ErrValidation)
	}
	return key, cols, nil
}

func (h *Handler) withTimeout(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(c.UserContext())
	}
	return context.WithTimeout(c.UserContext(), h.timeout)
}

// =============================================================================
// GENERAL
// =============================================================================

func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": h.version,
	})
}

func (h *Handler) Schemas(c *fiber.Ctx) error {
	schemas := make(map[string]types.RequiredColumnSet, len(h.cfg.Schemas))
	for _, name := range h.cfg.SchemaNames() {
		cols, _ := h.cfg.Schema(name)
		schemas[name] = cols
	}
	return c.JSON(fiber.Map{
		"default": h.cfg.DefaultSchema,
		"schemas": schemas,
	})
}

func (h *Handler) Template(c *fiber.Ctx) error {
	_, cols, err := h.schema(c.Query("schema"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}
	data, err := sample.TemplateCSV(cols)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "text/csv")
	c.Attachment(sample.FileName)
	return c.Send(data)
}

// =============================================================================
// VALIDATION
// =============================================================================

// Upload validates a multipart file upload ("file", optional "schema").
// Accepted batches are stored when a database is configured.
func (h *Handler) Upload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "File is required")
	}

	schemaName, cols, err := h.schema(c.FormValue("schema"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}

	src, err := file.Open()
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Failed to open file")
	}
	defer src.Close()

	result, err := h.pipeline.ValidateFile(file.Filename, file.Header.Get(fiber.HeaderContentType), src, cols)
	if err != nil {
		if !intake.IsFormatOrReadError(err) {
			return err
		}
		resp := h.validationResponse(schemaName, intake.FileError(err))
		resp.FileName = file.Filename
		return c.Status(statusFor(err)).JSON(resp)
	}

	resp := h.validationResponse(schemaName, result)
	resp.FileName = file.Filename

	if result.Valid {
		batch := storage.NewBatch(file.Filename, schemaName, storage.SourceFile, result, h.now())
		resp.BatchID = batch.ID.String()
		if err := h.store(c, batch, result.Data); err != nil {
			return err
		}
	}

	return c.JSON(resp)
}

func (h *Handler) store(c *fiber.Ctx, batch storage.Batch, records []types.TransactionRecord) error {
	if h.batches == nil {
		return nil
	}
	ctx, cancel := h.withTimeout(c)
	defer cancel()
	if err := h.batches.SaveBatch(ctx, batch, records); err != nil {
		h.logger.Error("Failed to store batch", zap.String("batch_id", batch.ID.String()), zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to store batch")
	}
	return nil
}

// ManualRequest carries rows entered by hand.
type ManualRequest struct {
	Schema       string           `json:"schema"`
	Transactions []map[string]any `json:"transactions"`
}

// ValidateManual validates rows sent as JSON objects.
func (h *Handler) ValidateManual(c *fiber.Ctx) error {
	var req ManualRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	schemaName, cols, err := h.schema(req.Schema)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}

	result := h.pipeline.ValidateRecords(req.Transactions, cols)
	resp := h.validationResponse(schemaName, result)
	if result.Valid {
		resp.BatchID = uuid.NewString()
	}
	return c.JSON(resp)
}

func (h *Handler) ListBatches(c *fiber.Ctx) error {
	if h.batches == nil {
		return fmt.Errorf("batch history: %w", apperrors.ErrStorageDisabled)
	}
	limit := c.QueryInt("limit", 50)
	if limit < 1 {
		limit = 50
	}

	ctx, cancel := h.withTimeout(c)
	defer cancel()
	batches, err := h.batches.ListBatches(ctx, uint64(limit))
	if err != nil {
		return err
	}
	if batches == nil {
		batches = []storage.Batch{}
	}
	return c.JSON(fiber.Map{"batches": batches})
}

// =============================================================================
// PRICING
// =============================================================================

// CalculationRequest is a batch plus fee-structure parameters.
type CalculationRequest struct {
	pricing.Params
	Schema       string           `json:"schema"`
	Transactions []map[string]any `json:"transactions"`
}

// CalculateMerchantFee re-validates the batch, checks the fee parameters and
// forwards both to the pricing client. Nothing is submitted unless the whole
// batch is accepted.
func (h *Handler) CalculateMerchantFee(c *fiber.Ctx) error {
	var req CalculationRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	schemaName, cols, err := h.schema(req.Schema)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}

	result := h.pipeline.ValidateRecords(req.Transactions, cols)
	if !result.Valid || len(result.Data) == 0 {
		resp := h.validationResponse(schemaName, result)
		resp.Success = false
		return c.Status(fiber.StatusBadRequest).JSON(resp)
	}

	preq := pricing.Request{Params: req.Params, Transactions: result.Data}
	if err := preq.Validate(); err != nil {
		var fe pricing.FieldErrors
		if errors.As(err, &fe) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "Invalid fee parameters",
				"fields":  fe,
			})
		}
		return err
	}

	ctx, cancel := h.withTimeout(c)
	defer cancel()
	body, err := h.pricing.Calculate(ctx, preq)
	if err != nil {
		h.logger.Error("Pricing submission failed", zap.Error(err))
		if !errors.Is(err, apperrors.ErrSubmission) {
			err = fmt.Errorf("%w: %w", apperrors.ErrSubmission, err)
		}
		return fail(c, statusFor(err), "Pricing backend unavailable")
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(body)
}
