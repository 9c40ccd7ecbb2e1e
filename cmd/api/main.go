package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/facturacion-dte/internal/application/billing"
	"github.com/jhoicas/facturacion-dte/internal/domain/repository"
	"github.com/jhoicas/facturacion-dte/internal/infrastructure/mail"
	"github.com/jhoicas/facturacion-dte/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/facturacion-dte/internal/infrastructure/pdf"
	"github.com/jhoicas/facturacion-dte/internal/infrastructure/postgres"
	"github.com/jhoicas/facturacion-dte/internal/infrastructure/signer"
	"github.com/jhoicas/facturacion-dte/internal/infrastructure/storage"
	httpRouter "github.com/jhoicas/facturacion-dte/internal/interfaces/http"
	"github.com/jhoicas/facturacion-dte/pkg/config"
	"github.com/jhoicas/facturacion-dte/pkg/logger"
)

type stores struct {
	dtes      repository.DTERepository
	sales     repository.SaleRepository
	customers repository.CustomerRepository
	users     repository.UserRepository
	tx        billing.InvoicingTxRunner // nil = sin transacción
	close     func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Storage.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer st.close()

	// Registro de certificados + motor de firma simulada
	registry := signer.NewRegistry()
	if cfg.Signature.CertPath != "" {
		taxID := cfg.Signature.CertTaxID
		if taxID == "" {
			taxID = signer.DefaultIssuerTaxID
		}
		cert, err := signer.LoadCertificateFile(cfg.Signature.CertPath, cfg.Signature.CertPassword, taxID)
		if err != nil {
			log.Fatal().Err(err).Str("ruta", cfg.Signature.CertPath).Msg("importar certificado")
		}
		registry.Register(cert)
		log.Info().Str("nit", taxID).Str("serie", cert.SerialNumber).Msg("certificado importado")
	}
	var signerOpts []signer.Option
	if cfg.Signature.HasSeed() {
		signerOpts = append(signerOpts, signer.WithSeed(cfg.Signature.SeedValue()))
		log.Warn().Uint64("seed", cfg.Signature.SeedValue()).Msg("firma con semilla fija: resultados reproducibles")
	}
	signerSvc := signer.NewService(registry, signerOpts...)

	// Correo: SMTP real fuera de development si hay credenciales; si no, simulado
	var mailer billing.Mailer
	if cfg.Mail.Enabled() && !cfg.App.IsDevelopment() {
		mailer = mail.NewSMTPMailer(mail.SMTPConfig{
			Host:       cfg.Mail.Host,
			Port:       cfg.Mail.Port,
			User:       cfg.Mail.User,
			Password:   cfg.Mail.Password,
			From:       cfg.Mail.From,
			FromName:   cfg.Mail.FromName,
			MaxRetries: uint64(max(cfg.Mail.MaxRetries, 0)),
		}, log)
	} else {
		mailer = mail.NewSimulatedMailer(log)
	}
	log.Info().Str("modo", mailer.Mode()).Msg("envío de correo")

	opts := []billing.OrchestratorOption{}
	if st.tx != nil {
		opts = append(opts, billing.WithTxRunner(st.tx))
	}
	if cfg.Artifacts.Enabled() {
		store, err := storage.NewS3Store(ctx, storage.S3Config{
			Bucket:    cfg.Artifacts.Bucket,
			Region:    cfg.Artifacts.Region,
			Endpoint:  cfg.Artifacts.Endpoint,
			AccessKey: cfg.Artifacts.AccessKey,
			SecretKey: cfg.Artifacts.SecretKey,
			Prefix:    cfg.Artifacts.Prefix,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("inicializar almacén S3")
		}
		opts = append(opts, billing.WithArtifactStore(store))
		log.Info().Str("bucket", cfg.Artifacts.Bucket).Msg("artefactos archivados en S3")
	}

	dteOrchestrator := billing.NewDTEOrchestrator(
		st.dtes, st.sales, st.customers, st.users,
		signerSvc, infrapdf.NewMarotoPDFGenerator(), mailer, log, opts...,
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
		BodyLimit:    1 << 20,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Facturación DTE API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "storage": cfg.Storage.Driver})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		DTE:          dteOrchestrator,
		JWTSecret:    cfg.JWT.Secret,
		ExposeDetail: cfg.App.IsDevelopment(),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

// openStores memory (con datos demo) o postgres según STORAGE_DRIVER.
func openStores(ctx context.Context, cfg *config.Config, log *logger.Logger) (*stores, error) {
	if cfg.Storage.Driver == "postgres" {
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, err
		}
		return &stores{
			dtes:      postgres.NewDTERepository(pool),
			sales:     postgres.NewSaleRepository(pool),
			customers: postgres.NewCustomerRepository(pool),
			users:     postgres.NewUserRepository(pool),
			tx:        postgres.NewTxRunner(pool),
			close:     pool.Close,
		}, nil
	}

	sales := memory.NewSaleRepository()
	customers := memory.NewCustomerRepository()
	users := memory.NewUserRepository()
	memory.SeedDemo(sales, customers, users, time.Now())
	log.Warn().
		Str("sale_id", memory.DemoSaleID).
		Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
	return &stores{
		dtes:      memory.NewDTERepository(),
		sales:     sales,
		customers: customers,
		users:     users,
		close:     func() {},
	}, nil
}
