package routes

import (
	"todo-api/internal/behaviour"
	"todo-api/internal/controller"
	"todo-api/internal/metrics"
	"todo-api/internal/middleware"
	"todo-api/internal/models"
	"todo-api/internal/pipeline"

	"github.com/gin-gonic/gin"
)

// TodoEntity is the registry name of the todo lookup.
const TodoEntity = "todo"

// Deps are the collaborators the router hands to its controllers.
type Deps struct {
	Todos    *behaviour.TodoBehaviour
	Accounts *behaviour.AccountBehaviour
	Tokens   middleware.TokenParser
	Logs     *controller.LogController
	Metrics  *metrics.Metrics
	Ready    map[string]controller.Pinger

	WebAppURL    string
	SettingsPath string
	AppVersion   string
}

// Registry builds the entity-existence registry used by the pipeline.
func Registry(todos *behaviour.TodoBehaviour) *pipeline.Registry {
	return pipeline.NewRegistry().
		Register(TodoEntity, pipeline.RepositoryLookup(todos.Repository()))
}

func Router(d Deps) *gin.Engine {
	router := gin.New()
	router.Use(middleware.Recovery(), middleware.RequestLogger())
	if d.Metrics != nil {
		router.Use(d.Metrics.Middleware())
	}
	router.Use(middleware.CORS(d.WebAppURL), middleware.ErrorHandler())

	// Health for load balancers and K8s probes
	router.GET("/health", controller.Health)
	router.GET("/ready", controller.Ready(d.Ready))
	if d.Metrics != nil {
		router.GET("/metrics", d.Metrics.Handler())
	}

	reg := Registry(d.Todos)
	requireAuth := middleware.AuthMiddleware(d.Tokens)
	api := router.Group("/api")

	// Protected: JWT required
	todos := controller.NewTodoController(d.Todos)
	todo := api.Group("/todo", requireAuth)
	{
		todo.GET("", todos.GetTodos)
		todo.GET("/:id", pipeline.RequireID(), pipeline.EntityExists(reg, TodoEntity), todos.GetTodo)
		todo.POST("", pipeline.ValidModel[models.TodoViewModel](), todos.CreateTodo)
		todo.PUT("/:id", pipeline.RequireID(),
			pipeline.ValidEntityState[models.TodoViewModel, *models.TodoViewModel](), todos.UpdateTodo)
		todo.DELETE("/:id", pipeline.RequireID(), todos.DeleteTodo)
	}

	accounts := controller.NewAccountController(d.Accounts)
	account := api.Group("/account")
	{
		account.POST("/createtoken", pipeline.ValidModel[models.LoginViewModel](), accounts.CreateToken)
		account.POST("/refreshtoken", pipeline.ValidModel[models.RefreshTokenViewModel](), accounts.RefreshToken)
		account.POST("/new", pipeline.ValidModel[models.LoginViewModel](), accounts.NewUser)
		account.POST("/isusernameavailable", pipeline.ValidModel[models.GenericViewModel](), accounts.IsUsernameAvailable)
		account.POST("/getusername", requireAuth, pipeline.ValidModel[models.GenericViewModel](), accounts.GetUsername)
	}

	// Public: consumed by the web client at startup
	api.GET("/whitelist", controller.GetWhitelist)
	api.POST("/whitelist/getwhitelist", pipeline.ValidModel[models.GenericViewModel](), controller.GetWhitelistEntry)
	api.GET("/config", controller.GetConfig(d.SettingsPath, d.AppVersion))
	if d.Logs != nil {
		api.GET("/log", d.Logs.NextLogID)
		api.POST("/log", pipeline.ValidModel[models.LogEntry](), d.Logs.WriteLog)
	}

	return router
}
