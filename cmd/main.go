package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/config"
	"github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/handlers"
	"github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/metrics"
	"github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/models"
	"github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/notify"
	"github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/repository"
	"github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/services"
	"github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/session"
	"github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/storage"
)

func main() {
	cfg := InitConfig()
	db := ConnectDatabase(cfg)
	MigrateDatabase(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := InitObjectStore(ctx, cfg)

	resourceRepo := repository.NewResourceRepository(db)
	attachmentRepo := repository.NewAttachmentRepository(db)
	workOrderRepo := repository.NewWorkOrderRepository(db)

	resourceService := services.NewResourceService(resourceRepo)
	attachmentService := services.NewAttachmentService(attachmentRepo, store, cfg.MaxUploadBytes)
	workOrderService := services.NewWorkOrderService(workOrderRepo)

	sess := session.New(session.Config{
		Resources:   resourceService,
		Attachments: attachmentService,
		WorkOrders:  workOrderService,
		Metrics:     metrics.New(prometheus.DefaultRegisterer),
	})
	if err := sess.Refresh(ctx); err != nil {
		log.Printf("Initial refresh failed: %v", err)
	}
	if err := sess.ReloadWorkOrders(ctx); err != nil {
		log.Printf("Initial work order load failed: %v", err)
	}

	listener := notify.NewListener(cfg.PostgresDSN())
	hub := session.NewHub(sess, listener)
	go hub.Run(ctx)

	app := fiber.New()

	// Register Prometheus metrics endpoint
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	rh := handlers.NewResourceHandler(resourceService)
	ah := handlers.NewAttachmentHandler(attachmentService)
	wh := handlers.NewWorkOrderHandler(workOrderService)
	sh := handlers.NewSessionHandler(sess)

	api := app.Group("/api/gis")
	api.Get("/resources", rh.ListResources)
	api.Get("/resources/export", rh.ExportCSV)
	api.Get("/resources/:id", rh.GetResource)
	api.Post("/resources", rh.CreateResource)
	api.Patch("/resources/:id", rh.UpdateResource)
	api.Delete("/resources/:id", rh.DeleteResource)

	api.Get("/resources/:id/attachments", ah.ListAttachments)
	api.Post("/resources/:id/attachments", ah.UploadAttachments)
	api.Delete("/attachments/:id", ah.DeleteAttachment)

	api.Get("/workorders", wh.ListWorkOrders)
	api.Post("/workorders", wh.CreateWorkOrder)
	api.Patch("/workorders/:id", wh.UpdateWorkOrder)
	api.Delete("/workorders/:id", wh.DeleteWorkOrder)

	api.Get("/snapshot", sh.GetSnapshot)
	api.Get("/state", sh.GetState)
	api.Put("/state/filter", sh.SetFilter)
	api.Post("/refresh", sh.Refresh)

	api.Get("/swagger/*", swagger.HandlerDefault)

	// Add Health check endpoint
	api.Get("/health", func(c *fiber.Ctx) error {
		if !store.Ready() {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": true, "message": storage.ErrNotReady.Error(),
			})
		}
		return c.SendStatus(fiber.StatusOK)
	})

	routes := app.GetRoutes()
	log.Println("Registered routes:")
	for _, r := range routes {
		log.Printf("  %s %s\n", r.Method, r.Path)
	}

	port := cfg.AppPort
	if port == "" {
		port = "8080"
		log.Printf("Defaulting to port %s", port)
	}
	log.Printf("Server listening on port %s", port)
	log.Fatal(app.Listen(":" + port))
}

func InitConfig() *config.Config {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	return cfg
}

func ConnectDatabase(cfg *config.Config) *gorm.DB {
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	return db
}

func MigrateDatabase(db *gorm.DB) {
	err := db.AutoMigrate(
		&models.Resource{},
		&models.WorkOrder{},
		&models.Attachment{},
		&models.ActivityRecord{},
	)
	if err != nil {
		log.Fatalf("Database migration failed: %v", err)
	}
	if err := notify.InstallChangeTriggers(db); err != nil {
		log.Fatalf("Change trigger installation failed: %v", err)
	}
}

func InitObjectStore(ctx context.Context, cfg *config.Config) *storage.Handle {
	store := storage.NewHandle()
	if err := store.Init(ctx, cfg); err != nil {
		log.Fatalf("Object store initialization failed: %v", err)
	}
	return store
}
