package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	approveRescheduleHandler "github.com/glossworks/GW-SlotService/internal/api/handlers/approve_reschedule"
	cancelBookingHandler "github.com/glossworks/GW-SlotService/internal/api/handlers/cancel_booking"
	completeBookingHandler "github.com/glossworks/GW-SlotService/internal/api/handlers/complete_booking"
	createBookingHandler "github.com/glossworks/GW-SlotService/internal/api/handlers/create_booking"
	declineRescheduleHandler "github.com/glossworks/GW-SlotService/internal/api/handlers/decline_reschedule"
	getAvailableSlotsHandler "github.com/glossworks/GW-SlotService/internal/api/handlers/get_available_slots"
	getBookingHandler "github.com/glossworks/GW-SlotService/internal/api/handlers/get_booking"
	getBookingHistoryHandler "github.com/glossworks/GW-SlotService/internal/api/handlers/get_booking_history"
	getUserBookingsHandler "github.com/glossworks/GW-SlotService/internal/api/handlers/get_user_bookings"
	getWorklistHandler "github.com/glossworks/GW-SlotService/internal/api/handlers/get_worklist"
	requestRescheduleHandler "github.com/glossworks/GW-SlotService/internal/api/handlers/request_reschedule"
	"github.com/glossworks/GW-SlotService/internal/api/middleware"
	"github.com/glossworks/GW-SlotService/internal/config"
	bookingRepo "github.com/glossworks/GW-SlotService/internal/infra/storage/booking"
	rescheduleRepo "github.com/glossworks/GW-SlotService/internal/infra/storage/reschedule"
	slotRepo "github.com/glossworks/GW-SlotService/internal/infra/storage/slot"
	notifierClient "github.com/glossworks/GW-SlotService/internal/integrations/notifier"
	bookingsService "github.com/glossworks/GW-SlotService/internal/service/bookings"
	reservationService "github.com/glossworks/GW-SlotService/internal/service/reservation"
	worklistService "github.com/glossworks/GW-SlotService/internal/service/worklist"
	approveRescheduleUC "github.com/glossworks/GW-SlotService/internal/usecase/approve_reschedule"
	cancelBookingUC "github.com/glossworks/GW-SlotService/internal/usecase/cancel_booking"
	completeBookingUC "github.com/glossworks/GW-SlotService/internal/usecase/complete_booking"
	createBookingUC "github.com/glossworks/GW-SlotService/internal/usecase/create_booking"
	declineRescheduleUC "github.com/glossworks/GW-SlotService/internal/usecase/decline_reschedule"
	expireRequestsUC "github.com/glossworks/GW-SlotService/internal/usecase/expire_requests"
	getAvailableSlotsUC "github.com/glossworks/GW-SlotService/internal/usecase/get_available_slots"
	requestRescheduleUC "github.com/glossworks/GW-SlotService/internal/usecase/request_reschedule"
	"github.com/glossworks/GW-SlotService/internal/worker/sweeper"
	"github.com/glossworks/GW-SlotService/pkg/dbmetrics"
	"github.com/glossworks/GW-SlotService/pkg/logger"
	"github.com/glossworks/GW-SlotService/pkg/metrics"
	"github.com/glossworks/GW-SlotService/pkg/simpletxmanager"
	"github.com/glossworks/GW-SlotService/pkg/txmanager"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting GW-SlotService...")
	log.Info("Configuration loaded from config.toml")

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	var wrappedDB *dbmetrics.DB
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	// Клиент NotificationService
	notifier := notifierClient.NewClient(
		cfg.Notifier.URL,
		time.Duration(cfg.Notifier.Timeout)*time.Second,
		log,
	)
	log.Info("Notifier client initialized (url=%s timeout=%ds)", cfg.Notifier.URL, cfg.Notifier.Timeout)

	// Инициализируем репозитории (с метриками или без)
	var (
		slotRepository       *slotRepo.Repository
		bookingRepository    *bookingRepo.Repository
		rescheduleRepository *rescheduleRepo.Repository
	)

	type TxManager interface {
		Do(ctx context.Context, fn func(ctx context.Context) error) error
		DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
	}
	var txMgr TxManager

	if cfg.Metrics.Enabled {
		wrappedDB = dbmetrics.WrapWithDefault(db, metricsCollector, cfg.Metrics.ServiceName, stopMetricsCh)
		log.Info("Database metrics collection started")

		slotRepository = slotRepo.NewRepository(wrappedDB)
		bookingRepository = bookingRepo.NewRepository(wrappedDB)
		rescheduleRepository = rescheduleRepo.NewRepository(wrappedDB)
		txMgr = txmanager.NewTransactionManager(wrappedDB)
	} else {
		slotRepository = slotRepo.NewRepository(db)
		bookingRepository = bookingRepo.NewRepository(db)
		rescheduleRepository = rescheduleRepo.NewRepository(db)
		txMgr = simpletxmanager.NewTransactionManager(db)
	}

	// Инициализируем сервисы
	engine := reservationService.NewService(slotRepository, log)
	bookingSvc := bookingsService.NewService(bookingRepository, rescheduleRepository, log)
	worklistSvc := worklistService.NewService(slotRepository, rescheduleRepository, log)

	// Инициализируем use cases
	createBookingUseCase := createBookingUC.NewUseCase(engine, bookingRepository, notifier, txMgr, log)
	cancelBookingUseCase := cancelBookingUC.NewUseCase(engine, bookingRepository, rescheduleRepository, notifier, txMgr, log)
	completeBookingUseCase := completeBookingUC.NewUseCase(bookingRepository, notifier, txMgr, log)
	requestRescheduleUseCase := requestRescheduleUC.NewUseCase(engine, bookingRepository, rescheduleRepository, notifier, txMgr, log)
	approveRescheduleUseCase := approveRescheduleUC.NewUseCase(engine, bookingRepository, rescheduleRepository, notifier, txMgr, log)
	declineRescheduleUseCase := declineRescheduleUC.NewUseCase(engine, bookingRepository, rescheduleRepository, notifier, txMgr, log)
	expireRequestsUseCase := expireRequestsUC.NewUseCase(engine, bookingRepository, rescheduleRepository, notifier, txMgr, log)
	getAvailableSlotsUseCase := getAvailableSlotsUC.NewUseCase(slotRepository, log)

	// Инициализируем handlers
	getAvailableSlots := getAvailableSlotsHandler.NewHandler(getAvailableSlotsUseCase, log)
	createBooking := createBookingHandler.NewHandler(createBookingUseCase, log)
	getBooking := getBookingHandler.NewHandler(bookingSvc, log)
	getBookingHistory := getBookingHistoryHandler.NewHandler(bookingSvc, log)
	getUserBookings := getUserBookingsHandler.NewHandler(bookingSvc, log)
	cancelBooking := cancelBookingHandler.NewHandler(cancelBookingUseCase, log)
	completeBooking := completeBookingHandler.NewHandler(completeBookingUseCase, log)
	requestReschedule := requestRescheduleHandler.NewHandler(requestRescheduleUseCase, log)
	approveReschedule := approveRescheduleHandler.NewHandler(approveRescheduleUseCase, log)
	declineReschedule := declineRescheduleHandler.NewHandler(declineRescheduleUseCase, log)
	getWorklist := getWorklistHandler.NewHandler(worklistSvc, log)

	// Фоновый sweep истёкших заявок на перенос
	var sweep *sweeper.Sweeper
	if cfg.Sweeper.Enabled {
		sweep = sweeper.New(expireRequestsUseCase, time.Duration(cfg.Sweeper.Interval)*time.Second, log)
		sweep.Start(context.Background())
	} else {
		log.Warn("Sweeper disabled: expired reschedule requests will only be normalized lazily")
	}

	// Настраиваем роутер
	r := mux.NewRouter()

	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector, cfg.Metrics.ServiceName))
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Доступные слоты на дату
	api.HandleFunc("/slots/available", getAvailableSlots.Handle).Methods(http.MethodGet)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	// --- Бронирования ---
	protected.HandleFunc("/bookings", createBooking.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/bookings/{bookingId}/history", getBookingHistory.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/bookings/{bookingId}/cancel", cancelBooking.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/users/{userId}/bookings", getUserBookings.Handle).Methods(http.MethodGet)

	// --- Переносы ---
	protected.HandleFunc("/bookings/{bookingId}/reschedule", requestReschedule.Handle).Methods(http.MethodPost)

	// ============================================================
	// ADMIN ROUTES (требуют X-User-Role: admin)
	// ============================================================

	admin := protected.PathPrefix("").Subrouter()
	admin.Use(middleware.RequireAdmin)

	admin.HandleFunc("/bookings/{bookingId}/complete", completeBooking.Handle).Methods(http.MethodPatch)
	admin.HandleFunc("/reschedules/{requestId}/approve", approveReschedule.Handle).Methods(http.MethodPatch)
	admin.HandleFunc("/reschedules/{requestId}/decline", declineReschedule.Handle).Methods(http.MethodPatch)
	admin.HandleFunc("/admin/worklist", getWorklist.Handle).Methods(http.MethodGet)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	if sweep != nil {
		sweep.Stop()
		log.Info("Sweeper stopped")
	}

	if cfg.Metrics.Enabled {
		close(stopMetricsCh)
		log.Info("Metrics collection stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
}
