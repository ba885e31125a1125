package controller

import (
	"ai-taskpilot-be/internal/dto"
	"ai-taskpilot-be/internal/pkg/serverutils"
	"ai-taskpilot-be/internal/service"
	"ai-taskpilot-be/pkg/store"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IAssistantController interface {
	RegisterRoutes(r fiber.Router)
	Chat(ctx *fiber.Ctx) error
}

type assistantController struct {
	assistantService service.IAssistantService
}

func NewAssistantController(assistantService service.IAssistantService) IAssistantController {
	return &assistantController{
		assistantService: assistantService,
	}
}

func (c *assistantController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/assistant/v1")
	h.Post("chat", c.Chat)
}

func (c *assistantController) Chat(ctx *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	key := sessionKeyFromHeaders(ctx)

	res, err := c.assistantService.Chat(ctx.Context(), key, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success chat", res))
}

// sessionKeyFromHeaders builds the conversation identity. Group chats share
// memory via X-Group-Id; otherwise the reply chain (X-From-Trace-Id) keeps a
// thread together; a lone X-Trace-Id starts a fresh session.
func sessionKeyFromHeaders(ctx *fiber.Ctx) store.SessionKey {
	traceId := ctx.Get("X-Trace-Id")
	if traceId == "" {
		traceId = uuid.NewString()
	}
	return store.SessionKey{
		GroupId:     ctx.Get("X-Group-Id"),
		FromTraceId: ctx.Get("X-From-Trace-Id"),
		TraceId:     traceId,
	}
}
