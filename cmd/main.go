package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"

	"gogarantia/config"
	_ "gogarantia/docs"
	"gogarantia/internal/api/client"
	"gogarantia/internal/api/dashboard"
	"gogarantia/internal/api/email"
	"gogarantia/internal/api/product"
	"gogarantia/internal/api/router"
	"gogarantia/internal/api/user"
	"gogarantia/internal/api/warranty"
	"gogarantia/internal/domain"
	"gogarantia/internal/pkg/cache"
	"gogarantia/internal/pkg/database"
	"gogarantia/internal/pkg/logger"
	"gogarantia/internal/pkg/mailer"
	"gogarantia/internal/pkg/token"
	"gogarantia/internal/repository/clientrepo"
	"gogarantia/internal/repository/memstore"
	"gogarantia/internal/repository/productrepo"
	"gogarantia/internal/repository/userrepo"
	"gogarantia/internal/repository/warrantyrepo"
	"gogarantia/internal/service/analyticsservice"
	"gogarantia/internal/service/clientservice"
	"gogarantia/internal/service/productservice"
	"gogarantia/internal/service/userservice"
	"gogarantia/internal/service/warrantyservice"
)

// repositories agrupa as implementações escolhidas por STORE_DRIVER.
type repositories struct {
	users      domain.UserRepository
	clients    domain.ClientRepository
	products   domain.ProductRepository
	warranties domain.WarrantyRepository
}

// @title GoGarantia API
// @version 1.0
// @description Cadastro de clientes, produtos e garantias da Etherna Joias, com painel de análises.
// @BasePath /v1
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	log.Println("⚡ Inicializando serviço GoGarantia...")
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ Aviso: Arquivo .env não encontrado ou erro de leitura. Carregando configs apenas do ambiente do sistema.")
	}

	cfg := config.LoadConfig()
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("Configurações carregadas.", map[string]interface{}{"store_driver": cfg.StoreDriver, "env": cfg.Environment})

	// 1. Cache (Redis). Sem REDIS_ADDR o serviço roda sem cache.
	var cacheClient cache.Client = cache.NopClient{}
	if cfg.RedisAddr != "" {
		redisClient, err := cache.NewRedisClient(cfg.RedisAddr, cfg.CacheTimeout)
		if err != nil {
			log.Fatal("Falha ao conectar ao Redis.", err)
		}
		cacheClient = redisClient
		log.Info("Conexão Redis estabelecida.", nil)
	}

	// 2. Repositórios
	var repos repositories
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		store := memstore.New()
		repos = repositories{
			users:      store.Users(),
			clients:    store.Clients(),
			products:   store.Products(),
			warranties: store.Warranties(),
		}
		log.Warn("Usando armazenamento em memória; os dados serão perdidos ao encerrar.", nil)
	case config.StoreDriverPostgres:
		db, err := database.NewPostgresDB(cfg.DatabaseURL)
		if err != nil {
			log.Fatal("Falha ao conectar ao banco de dados.", err)
		}
		defer db.Close()
		log.Info("Conexão PostgreSQL estabelecida.", nil)
		repos = postgresRepositories(db, cacheClient, cfg, log)
	default:
		log.Fatal("STORE_DRIVER inválido: "+cfg.StoreDriver, nil)
	}

	// 3. Infraestrutura de token e e-mail
	tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry)
	smtpMailer := mailer.New(mailer.Config{
		Host:     cfg.EmailHost,
		Port:     cfg.EmailPort,
		Secure:   cfg.EmailSecure,
		Username: cfg.EmailUser,
		Password: cfg.EmailPassword,
		From:     cfg.EmailFrom,
		Timeout:  cfg.EmailTimeout,
		Location: cfg.EmailLocation,
	}, log)

	// 4. Serviços
	userSvc := userservice.NewService(repos.users, tokenSvc, log)
	clientSvc := clientservice.NewService(repos.clients, log)
	productSvc := productservice.NewService(repos.products, log)
	warrantySvc := warrantyservice.NewService(repos.warranties, repos.clients, repos.products, smtpMailer, log)
	analyticsSvc := analyticsservice.NewService(warrantySvc, log)

	bootCtx, cancelBoot := context.WithTimeout(context.Background(), 10*time.Second)
	if _, err := userSvc.EnsureAdmin(bootCtx, domain.UserRegistration{
		Name:     cfg.AdminName,
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
	}); err != nil {
		log.Error("Falha ao criar administrador inicial.", err)
	}
	cancelBoot()

	// 5. Handlers e Roteador
	r := router.NewRouter(router.Handlers{
		User:      user.NewHandler(userSvc, log),
		Client:    client.NewHandler(clientSvc, log),
		Product:   product.NewHandler(productSvc, log),
		Warranty:  warranty.NewHandler(warrantySvc, log),
		Dashboard: dashboard.NewHandler(analyticsSvc, log),
		Email:     email.NewHandler(smtpMailer, log, cfg.EmailLogoURL),
	}, tokenSvc, cacheClient, log, router.Options{
		AllowedOrigins:  cfg.AllowedOrigins,
		RateLimitMax:    cfg.RateLimitMaxRequests,
		RateLimitPeriod: cfg.RateLimitPeriod,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second, // cobre o envio SMTP síncrono na criação
		IdleTimeout:  60 * time.Second,
	}

	// 6. Execução e Graceful Shutdown
	go func() {
		log.Info("Servidor GoGarantia ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Servidor falhou.", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Desligamento do servidor forçado.", err)
	}

	log.Info("Servidor encerrado com sucesso.", nil)
}

func postgresRepositories(db *sql.DB, cacheClient cache.Client, cfg *config.Config, log logger.Logger) repositories {
	return repositories{
		users:      userrepo.NewUserRepository(db, cfg.DBTimeout, log),
		clients:    clientrepo.NewClientRepository(db, cacheClient, cfg.DBTimeout, cfg.CacheTTL, log),
		products:   productrepo.NewProductRepository(db, cacheClient, cfg.DBTimeout, cfg.CacheTTL, log),
		warranties: warrantyrepo.NewWarrantyRepository(db, cfg.DBTimeout, log),
	}
}
