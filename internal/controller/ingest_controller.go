package controller

import (
	"ai-docchat-be/internal/dto"
	"ai-docchat-be/internal/pkg/serverutils"
	"ai-docchat-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IIngestController interface {
	RegisterRoutes(r fiber.Router)
	Ingest(ctx *fiber.Ctx) error
	ListFiles(ctx *fiber.Ctx) error
	FileStatus(ctx *fiber.Ctx) error
	FileChunks(ctx *fiber.Ctx) error
	DeleteFile(ctx *fiber.Ctx) error
}

type ingestController struct {
	ingestService service.IIngestService
}

func NewIngestController(ingestService service.IIngestService) IIngestController {
	return &ingestController{
		ingestService: ingestService,
	}
}

func (c *ingestController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/ingest/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("", c.Ingest)
	h.Get("files", c.ListFiles)
	h.Get("files/:id", c.FileStatus)
	h.Get("files/:id/chunks", c.FileChunks)
	h.Delete("files/:id", c.DeleteFile)
}

func (c *ingestController) Ingest(ctx *fiber.Ctx) error {
	tenantIdStr, _ := serverutils.TenantID(ctx)
	tenantId, err := uuid.Parse(tenantIdStr)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	var req dto.IngestRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.ingestService.Ingest(ctx.Context(), tenantId, &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Batch accepted", res))
}

func (c *ingestController) ListFiles(ctx *fiber.Ctx) error {
	tenantIdStr, _ := serverutils.TenantID(ctx)
	tenantId, _ := uuid.Parse(tenantIdStr)

	res, err := c.ingestService.GetFiles(ctx.Context(), tenantId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get files", res))
}

func (c *ingestController) FileStatus(ctx *fiber.Ctx) error {
	tenantIdStr, _ := serverutils.TenantID(ctx)
	tenantId, _ := uuid.Parse(tenantIdStr)

	fileId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid file id")
	}

	res, err := c.ingestService.GetFileStatus(ctx.Context(), tenantId, fileId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get file status", res))
}

func (c *ingestController) FileChunks(ctx *fiber.Ctx) error {
	tenantIdStr, _ := serverutils.TenantID(ctx)
	tenantId, _ := uuid.Parse(tenantIdStr)

	fileId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid file id")
	}

	limit := ctx.QueryInt("limit", 50)

	res, err := c.ingestService.GetFileChunks(ctx.Context(), tenantId, fileId, limit)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get file chunks", res))
}

func (c *ingestController) DeleteFile(ctx *fiber.Ctx) error {
	tenantIdStr, _ := serverutils.TenantID(ctx)
	tenantId, _ := uuid.Parse(tenantIdStr)

	fileId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid file id")
	}

	if err := c.ingestService.DeleteFile(ctx.Context(), tenantId, fileId); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete file", nil))
}
