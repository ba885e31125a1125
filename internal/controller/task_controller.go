package controller

import (
	"ai-taskpilot-be/internal/dto"
	"ai-taskpilot-be/internal/pkg/serverutils"
	"ai-taskpilot-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ITaskController interface {
	RegisterRoutes(r fiber.Router)
	ListTodos(ctx *fiber.Ctx) error
	ShowTodo(ctx *fiber.Ctx) error
	CreateTodo(ctx *fiber.Ctx) error
	UpdateTodo(ctx *fiber.Ctx) error
	CloseTodo(ctx *fiber.Ctx) error
	ListSchedules(ctx *fiber.Ctx) error
	CreateSchedule(ctx *fiber.Ctx) error
	CloseSchedule(ctx *fiber.Ctx) error
}

type taskController struct {
	taskService service.ITaskService
}

func NewTaskController(taskService service.ITaskService) ITaskController {
	return &taskController{
		taskService: taskService,
	}
}

func (c *taskController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/task/v1")
	h.Get("todos", c.ListTodos)
	h.Post("todos", c.CreateTodo)
	h.Get("todos/:id", c.ShowTodo)
	h.Put("todos/:id", c.UpdateTodo)
	h.Post("todos/:id/close", c.CloseTodo)

	h.Get("schedules", c.ListSchedules)
	h.Post("schedules", c.CreateSchedule)
	h.Post("schedules/:id/close", c.CloseSchedule)
}

func (c *taskController) ListTodos(ctx *fiber.Ctx) error {
	includeDone := ctx.QueryBool("include_done", false)

	res, err := c.taskService.ListTodos(ctx.Context(), includeDone)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list todos", res))
}

func (c *taskController) ShowTodo(ctx *fiber.Ctx) error {
	res, err := c.taskService.GetTodo(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show todo", res))
}

func (c *taskController) CreateTodo(ctx *fiber.Ctx) error {
	var req dto.CreateTodoRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.taskService.CreateTodo(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success create todo", res))
}

func (c *taskController) UpdateTodo(ctx *fiber.Ctx) error {
	var req dto.UpdateTodoRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.taskService.UpdateTodo(ctx.Context(), ctx.Params("id"), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success update todo", res))
}

func (c *taskController) CloseTodo(ctx *fiber.Ctx) error {
	var req dto.CloseTodoRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := c.taskService.CloseTodo(ctx.Context(), ctx.Params("id"), &req); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success close todo", nil))
}

func (c *taskController) ListSchedules(ctx *fiber.Ctx) error {
	res, err := c.taskService.ListSchedules(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list schedules", res))
}

func (c *taskController) CreateSchedule(ctx *fiber.Ctx) error {
	var req dto.CreateScheduleRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.taskService.CreateSchedule(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success create schedule", res))
}

func (c *taskController) CloseSchedule(ctx *fiber.Ctx) error {
	if err := c.taskService.CloseSchedule(ctx.Context(), ctx.Params("id")); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success close schedule", nil))
}
