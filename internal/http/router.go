// README: HTTP router registration.
package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"dronebook/internal/http/handlers"
	"dronebook/internal/http/middleware"
	"dronebook/internal/models"
)

func NewRouter(deps ServerDeps) *gin.Engine {
	log := deps.logger()

	r := gin.New()
	r.Use(middleware.Recovery(log), middleware.Logging(log))
	r.Use(cors.New(corsConfig(deps.AllowedOrigins)))

	r.GET("/health", handlers.NewHealthHandler(deps.Sweeper).Get)

	api := r.Group("/api/v1", middleware.Auth(deps.Verifier, deps.Users))
	admin := middleware.RequireSuperuser()

	orders := handlers.NewOrderHandler(deps.Orders)
	og := api.Group("/orders")
	og.GET("/new", orders.ListNew)
	og.GET("/assigned", orders.ListAssigned)
	og.GET("/all", admin, orders.ListAll)
	og.GET("/statuses", orders.Statuses)
	og.GET("/:id", orders.Get)
	og.PATCH("/:id", orders.ChangeStatus)
	og.POST("", admin, orders.Create)
	og.PATCH("/admin/:id", admin, orders.Update)
	og.DELETE("/:id", admin, orders.Delete)

	tasks := handlers.NewFlightTaskHandler(deps.FlightTasks)
	tg := api.Group("/flight-tasks")
	tg.POST("", tasks.Create)
	tg.GET("", tasks.List)
	tg.GET("/active", tasks.ListActive)
	tg.GET("/history", tasks.ListHistory)
	tg.GET("/:id", tasks.Get)
	tg.PATCH("/:id", tasks.Update)
	tg.DELETE("/:id", tasks.Delete)

	clubs := handlers.NewClubHandler(deps.Clubs, deps.Guard)
	cg := api.Group("/clubs")
	cg.GET("", clubs.List)
	cg.GET("/:id", clubs.Get)
	cg.POST("", admin, clubs.Create)
	cg.PATCH("/:id", admin, clubs.Update)
	cg.PATCH("/:id/archive", admin, clubs.Archive)
	cg.PATCH("/:id/activate", admin, clubs.Activate)
	cg.DELETE("/:id", admin, clubs.Delete)

	eq := handlers.NewEquipmentHandler(deps.Clubs, deps.Guard)
	kinds := []struct {
		path                 string
		kind                 models.EquipmentKind
		list, get, add, edit gin.HandlerFunc
	}{
		{"/drones", models.KindDrone, eq.ListDrones, eq.GetDrone, eq.CreateDrone, eq.UpdateDrone},
		{"/cameras", models.KindCamera, eq.ListCameras, eq.GetCamera, eq.CreateCamera, eq.UpdateCamera},
		{"/lenses", models.KindLens, eq.ListLenses, eq.GetLens, eq.CreateLens, eq.UpdateLens},
	}
	for _, k := range kinds {
		g := api.Group(k.path)
		g.GET("", k.list)
		g.GET("/:id", k.get)
		g.POST("", admin, k.add)
		g.PATCH("/:id", admin, k.edit)
		g.PATCH("/:id/archive", admin, eq.Archive(k.kind))
		g.PATCH("/:id/activate", admin, eq.Activate(k.kind))
		g.DELETE("/:id", admin, eq.Delete(k.kind))
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AddAllowHeaders("Authorization")
	cfg.AddAllowMethods("PATCH")
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
