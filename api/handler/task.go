package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/todo/api/transport"
	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/pkg/httpcontext"
	taskUC "github.com/fastygo/todo/usecase/task"
)

type TaskHandler struct {
	baseHandler
	uc *taskUC.UseCase
}

func NewTaskHandler(uc *taskUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List tasks
// @Tags tasks
// @Param skip query int false "Offset" default(0)
// @Param limit query int false "Page size" default(100)
// @Router /tasks/ [get]
func (h *TaskHandler) ListTasks(ctx *fasthttp.RequestCtx, principal *domain.User) {
	skip, err := queryInt(ctx, "skip", 0)
	if err != nil {
		h.respondError(ctx, nil, err)
		return
	}
	limit, err := queryInt(ctx, "limit", taskUC.DefaultPageSize)
	if err != nil {
		h.respondError(ctx, nil, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	tasks, err := h.uc.ListTasks(stdCtx, principal.ID, skip, limit)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	h.respondJSON(ctx, http.StatusOK, tasks)
}

// @Summary Create task
// @Tags tasks
// @Accept json
// @Router /tasks/ [post]
func (h *TaskHandler) CreateTask(ctx *fasthttp.RequestCtx, principal *domain.User) {
	var req transport.TaskCreateRequest
	if err := transport.DecodeJSON(ctx.PostBody(), &req); err != nil {
		h.respondError(ctx, nil, err)
		return
	}

	input := taskUC.CreateInput{
		Title:       req.Title,
		Description: req.Description,
	}
	if req.Status != nil {
		input.Status = domain.TaskStatus(*req.Status)
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.CreateTask(stdCtx, principal.ID, input)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondJSON(ctx, http.StatusCreated, created)
}

// @Summary Get task
// @Tags tasks
// @Router /tasks/{id} [get]
func (h *TaskHandler) GetTask(ctx *fasthttp.RequestCtx, principal *domain.User) {
	id, err := pathID(ctx)
	if err != nil {
		h.respondError(ctx, nil, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.uc.GetTask(stdCtx, id, principal.ID)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, task)
}

// @Summary Update task
// @Tags tasks
// @Accept json
// @Router /tasks/{id} [put]
func (h *TaskHandler) UpdateTask(ctx *fasthttp.RequestCtx, principal *domain.User) {
	id, err := pathID(ctx)
	if err != nil {
		h.respondError(ctx, nil, err)
		return
	}

	var req transport.TaskUpdateRequest
	if err := transport.DecodeJSON(ctx.PostBody(), &req); err != nil {
		h.respondError(ctx, nil, err)
		return
	}
	patch, err := req.Patch()
	if err != nil {
		h.respondError(ctx, nil, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.UpdateTask(stdCtx, id, principal.ID, patch)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, updated)
}

// @Summary Delete task
// @Tags tasks
// @Router /tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(ctx *fasthttp.RequestCtx, principal *domain.User) {
	id, err := pathID(ctx)
	if err != nil {
		h.respondError(ctx, nil, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.DeleteTask(stdCtx, id, principal.ID); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	transport.WriteNoContent(ctx)
}
