package controller

import (
	"net/http"

	"todo-api/internal/behaviour"
	"todo-api/internal/mapping"
	"todo-api/internal/middleware"
	"todo-api/internal/models"
	"todo-api/internal/pipeline"

	"github.com/gin-gonic/gin"
)

// TodoController serves /api/todo. Every route sits behind bearer auth; ids and bodies are
// checked by the pipeline before the handlers run.
type TodoController struct {
	todos  *behaviour.TodoBehaviour
	mapper mapping.TodoMapper
}

func NewTodoController(todos *behaviour.TodoBehaviour) *TodoController {
	return &TodoController{todos: todos}
}

// GetTodos returns the caller's todos.
func (h *TodoController) GetTodos(c *gin.Context) {
	list, err := h.todos.GetTodosByUsername(c.Request.Context(), middleware.Username(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetTodo returns the todo loaded by pipeline.EntityExists, or looks it up by route id
// when the route does not run that check.
func (h *TodoController) GetTodo(c *gin.Context) {
	if e := pipeline.Entity[models.Todo](c); e != nil {
		c.JSON(http.StatusOK, h.mapper.ToModel(e))
		return
	}
	id, _ := pipeline.ID(c)
	m, err := h.todos.GetTodo(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// CreateTodo adds a todo. A todo with the same owner and name is a 409.
func (h *TodoController) CreateTodo(c *gin.Context) {
	m := pipeline.Model[models.TodoViewModel](c)
	out, err := h.todos.AddTodo(c.Request.Context(), m)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

// UpdateTodo overwrites the todo at the route id.
func (h *TodoController) UpdateTodo(c *gin.Context) {
	id, _ := pipeline.ID(c)
	m := pipeline.Model[models.TodoViewModel](c)
	out, err := h.todos.UpdateTodo(c.Request.Context(), m, id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// DeleteTodo removes the todo at the route id: 200 true, or 404 when there was none.
func (h *TodoController) DeleteTodo(c *gin.Context) {
	id, _ := pipeline.ID(c)
	ok, err := h.todos.DeleteTodo(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if !ok {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}
	c.JSON(http.StatusOK, true)
}
