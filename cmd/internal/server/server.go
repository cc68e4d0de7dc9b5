package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/partner-m/assist-go/cmd/internal/config"
	db "github.com/partner-m/assist-go/cmd/internal/db/sqlc"
	"github.com/partner-m/assist-go/cmd/internal/reqhandler"
	"github.com/partner-m/assist-go/cmd/internal/services/aliases"
	"github.com/partner-m/assist-go/cmd/internal/services/llm"
	"github.com/partner-m/assist-go/cmd/internal/services/onec"
	"github.com/partner-m/assist-go/cmd/internal/services/pipeline"
	"github.com/partner-m/assist-go/cmd/pkg/logging"
)

type Server struct {
	store  db.Store
	router *gin.Engine
	logger *logging.Logger
	config *config.Config

	pipelineService *pipeline.Service
	aliasService    *aliases.Service
	llmService      *llm.Service
	onecService     *onec.Service
	learner         *pipeline.Learner
	state           *reqhandler.StateStore
}

func NewServer(
	store db.Store,
	logger *logging.Logger,
	cfg *config.Config,
	pipelineService *pipeline.Service,
	aliasService *aliases.Service,
	llmService *llm.Service,
	onecService *onec.Service,
	state *reqhandler.StateStore,
) *Server {
	server := &Server{
		store:           store,
		logger:          logger,
		config:          cfg,
		pipelineService: pipelineService,
		aliasService:    aliasService,
		llmService:      llmService,
		onecService:     onecService,
		learner:         pipeline.NewLearner(store, logger),
		state:           state,
	}

	router := gin.Default()

	// Настройка CORS
	corsConfig := cors.DefaultConfig()
	if cfg.IsDebug != nil && *cfg.IsDebug {
		corsConfig.AllowOrigins = []string{
			"http://localhost:5173",
			"http://127.0.0.1:5173",
		}
		corsConfig.AllowCredentials = true
	} else {
		// В прод ходят только бот и 1С, браузерных клиентов нет.
		corsConfig.AllowOrigins = []string{}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-1C-Token", "X-Token"}
	router.Use(cors.New(corsConfig))

	router.GET("/health", server.healthHandler)

	// --- API V1 (диалоговый слой и поиск) ---
	v1 := router.Group("/api/v1")
	v1.Use(ServiceRateLimitMiddleware(50, 100))
	{
		v1.POST("/search/pipeline", server.searchPipelineHandler)
		v1.POST("/route", server.routeMessageHandler)
		v1.POST("/message", server.messageHandler)
		v1.POST("/aliases/confirm", server.confirmAliasHandler)
	}

	// --- ВЕБХУКИ 1С ---
	// Server-to-server группа: только токен вебхука, без cookie-аутентификации.
	integrations := router.Group("/integrations/1c")
	integrations.Use(OneCTokenAuthMiddleware(cfg.OneC.WebhookToken, logger))
	integrations.Use(ServiceRateLimitMiddleware(10, 20))
	{
		integrations.POST("/catalog", server.onecCatalogHandler)
		integrations.POST("/orders", server.onecOrdersHandler)
		integrations.POST("/orgs/members", server.onecMembersHandler)
	}

	server.router = router
	return server
}

func (s *Server) Start(address string) error {
	return s.router.Run(address)
}

func errorResponse(err error) gin.H {
	return gin.H{"error": err.Error()}
}
