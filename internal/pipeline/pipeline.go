// Package pipeline holds the request checks that run, in registration order, before a
// controller action. Each check either calls the next handler or aborts the request.
package pipeline

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"todo-api/internal/repository"
	"todo-api/internal/whitelist"
	"todo-api/pkg/apperror"
	"todo-api/pkg/logger"
)

// Context keys set by the checks.
const (
	IDKey     = "id"
	ModelKey  = "model"
	EntityKey = "entity"
)

const (
	msgBadID      = "Bad Id parameter"
	msgNullObject = "Object is null"
	msgIDMismatch = "Id does not match the route"
	msgInvalid    = "One or more validation errors occurred."
	msgBadBody    = "Malformed request body"
	msgTooLarge   = "Request body too large"
)

// MaxBodyBytes caps the request body a model is bound from.
const MaxBodyBytes int64 = 1 << 20

// ValidationBody is written when a model fails its field constraints. Errors maps each
// JSON field name to the codes of the constraints it failed.
type ValidationBody struct {
	StatusCode int                 `json:"statusCode"`
	Message    string              `json:"message"`
	Errors     map[string][]string `json:"errors"`
}

var errNullBody = errors.New("request body is empty")

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, apperror.Body{StatusCode: status, Message: message})
}

// ID returns the route id, either as stored by RequireID or parsed from the path.
// Zero and unparsable ids are reported as absent.
func ID(c *gin.Context) (int64, bool) {
	if v, ok := c.Get(IDKey); ok {
		if id, ok := v.(int64); ok {
			return id, true
		}
	}
	id, err := strconv.ParseInt(c.Param(IDKey), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// Model returns the model bound by an earlier check.
func Model[M any](c *gin.Context) *M {
	v, _ := c.Get(ModelKey)
	m, _ := v.(*M)
	return m
}

// Entity returns the entity loaded by EntityExists.
func Entity[E any](c *gin.Context) *E {
	v, _ := c.Get(EntityKey)
	e, _ := v.(*E)
	return e
}

// RequireID aborts with 400 unless the route carries a nonzero numeric id.
func RequireID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := ID(c)
		if !ok {
			abort(c, http.StatusBadRequest, msgBadID)
			return
		}
		c.Set(IDKey, id)
		c.Next()
	}
}

// bindModel decodes and validates the body into a new M once per request; later checks
// and the action reuse the cached value.
func bindModel[M any](c *gin.Context) (*M, error) {
	if m := Model[M](c); m != nil {
		return m, nil
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes)
	raw, err := c.GetRawData()
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, errNullBody
	}
	m := new(M)
	if err := binding.JSON.BindBody(trimmed, m); err != nil {
		return nil, err
	}
	c.Set(ModelKey, m)
	return m, nil
}

func abortBindError(c *gin.Context, err error) {
	if errors.Is(err, errNullBody) {
		abort(c, http.StatusBadRequest, msgNullObject)
		return
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		abort(c, http.StatusBadRequest, msgTooLarge)
		return
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string][]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = append(fields[fe.Field()], whitelist.ErrorCode(fe))
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, ValidationBody{
			StatusCode: http.StatusBadRequest,
			Message:    msgInvalid,
			Errors:     fields,
		})
		return
	}
	logger.Debug(c.Request.Context(), "Request body rejected", "error", err)
	abort(c, http.StatusBadRequest, msgBadBody)
}

// ValidModel binds the body into M and aborts with 400 when it violates its constraints.
func ValidModel[M any]() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := bindModel[M](c); err != nil {
			abortBindError(c, err)
			return
		}
		c.Next()
	}
}

// Identified is a model that carries its entity id.
type Identified[M any] interface {
	*M
	GetID() int64
}

func checkEntityState[M any, PM Identified[M]](c *gin.Context, id int64, hasID bool) bool {
	m, err := bindModel[M](c)
	if err != nil {
		abortBindError(c, err)
		return false
	}
	if hasID {
		if mid := PM(m).GetID(); mid != 0 && mid != id {
			abort(c, http.StatusBadRequest, msgIDMismatch)
			return false
		}
	}
	return true
}

// ValidEntityState requires a non-null valid body whose id, when set, equals the route id.
func ValidEntityState[M any, PM Identified[M]]() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := ID(c)
		if !checkEntityState[M, PM](c, id, ok) {
			return
		}
		c.Next()
	}
}

func checkEntityExists(c *gin.Context, reg *Registry, name string) (int64, bool) {
	id, ok := ID(c)
	if !ok {
		abort(c, http.StatusBadRequest, msgBadID)
		return 0, false
	}
	lookup, ok := reg.Lookup(name)
	if !ok {
		_ = c.Error(errors.New("pipeline: no lookup registered for " + name))
		c.Abort()
		return 0, false
	}
	e, err := lookup(c.Request.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		c.AbortWithStatus(http.StatusNotFound)
		return 0, false
	}
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return 0, false
	}
	c.Set(IDKey, id)
	c.Set(EntityKey, e)
	return id, true
}

// EntityExists loads the entity named name by route id and stores it under EntityKey.
// A missing entity aborts with 404.
func EntityExists(reg *Registry, name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := checkEntityExists(c, reg, name); !ok {
			return
		}
		c.Next()
	}
}

// EntityExistsModelValid runs EntityExists and then ValidEntityState against the
// resolved id.
func EntityExistsModelValid[M any, PM Identified[M]](reg *Registry, name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := checkEntityExists(c, reg, name)
		if !ok {
			return
		}
		if !checkEntityState[M, PM](c, id, true) {
			return
		}
		c.Next()
	}
}
