package controller

import (
	"bufio"
	"context"

	"ai-docchat-be/internal/dto"
	"ai-docchat-be/internal/pkg/serverutils"
	"ai-docchat-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Stream(ctx *fiber.Ctx) error
	ListThreads(ctx *fiber.Ctx) error
	ThreadHistory(ctx *fiber.Ctx) error
	DeleteThread(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
}

func NewChatController(chatService service.IChatService) IChatController {
	return &chatController{
		chatService: chatService,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("stream", c.Stream)
	h.Get("threads", c.ListThreads)
	h.Get("threads/:id", c.ThreadHistory)
	h.Delete("threads/:id", c.DeleteThread)
}

// Stream runs one conversational turn and streams the line protocol back
// as it is produced. Errors after the first byte arrive as ERROR: lines.
func (c *chatController) Stream(ctx *fiber.Ctx) error {
	tenantIdStr, ok := serverutils.TenantID(ctx)
	if !ok {
		return fiber.ErrUnauthorized
	}
	tenantId, err := uuid.Parse(tenantIdStr)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	var req dto.ChatStreamRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	ctx.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")

	// The stream writer runs after this handler returns and the fiber
	// context is recycled, so the turn gets its own context.
	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		c.chatService.StreamChat(context.Background(), tenantId, &req, w)
	}))
	return nil
}

func (c *chatController) ListThreads(ctx *fiber.Ctx) error {
	tenantIdStr, _ := serverutils.TenantID(ctx)
	tenantId, _ := uuid.Parse(tenantIdStr)

	res, err := c.chatService.GetThreads(ctx.Context(), tenantId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get threads", res))
}

func (c *chatController) ThreadHistory(ctx *fiber.Ctx) error {
	tenantIdStr, _ := serverutils.TenantID(ctx)
	tenantId, _ := uuid.Parse(tenantIdStr)

	threadId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid thread id")
	}

	res, err := c.chatService.GetThreadHistory(ctx.Context(), tenantId, threadId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get thread history", res))
}

func (c *chatController) DeleteThread(ctx *fiber.Ctx) error {
	tenantIdStr, _ := serverutils.TenantID(ctx)
	tenantId, _ := uuid.Parse(tenantIdStr)

	threadId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid thread id")
	}

	if err := c.chatService.DeleteThread(ctx.Context(), tenantId, threadId); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete thread", nil))
}
