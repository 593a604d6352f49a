package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Leganyst/telehealth-platform/internal/config"
	"github.com/Leganyst/telehealth-platform/internal/db"
	"github.com/Leganyst/telehealth-platform/internal/logger"
	"github.com/Leganyst/telehealth-platform/internal/model"
	"github.com/Leganyst/telehealth-platform/internal/notify"
	"github.com/Leganyst/telehealth-platform/internal/repository"
	"github.com/Leganyst/telehealth-platform/internal/schedule"
	"github.com/Leganyst/telehealth-platform/internal/service"
	transport "github.com/Leganyst/telehealth-platform/internal/transport/http"
)

func main() {
	// 1. Загружаем конфиг из env (включая шаблон рабочих часов).
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zlog, err := logger.New(cfg.IsLocal())
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zlog.Sync()

	// 2. Подключаемся к БД через GORM.
	gormDB, err := db.NewGormDB(cfg)
	if err != nil {
		zlog.Fatal("init db", zap.Error(err))
	}

	// 3. Миграции моделей.
	if err := model.AutoMigrate(gormDB); err != nil {
		zlog.Fatal("auto migrate", zap.Error(err))
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		zlog.Fatal("sql DB", zap.Error(err))
	}
	defer sqlDB.Close()

	// 4. Репозитории (реализации на GORM).
	apptRepo := repository.NewGormAppointmentRepository(gormDB)
	blockRepo := repository.NewGormAvailabilityRepository(gormDB)
	doctorRepo := repository.NewGormDoctorRepository(gormDB)
	patientRepo := repository.NewGormPatientRepository(gormDB)
	userRepo := repository.NewGormUserRepository(gormDB)
	scheduleRepo := repository.NewGormScheduleRepository(gormDB)
	eventRepo := repository.NewGormEventRepository(gormDB)

	// 5. Резолвер слотов: рабочие часы (с LRU-кэшем) + занятые интервалы.
	hoursSource := service.NewRepoHoursSource(scheduleRepo, cfg.Schedule.HoursRules)
	cachedHours, err := schedule.NewHoursCache(hoursSource, cfg.Schedule.HoursCacheSize)
	if err != nil {
		zlog.Fatal("init hours cache", zap.Error(err))
	}
	occupied := service.NewRepoOccupiedSource(blockRepo, apptRepo)
	resolver := schedule.NewResolver(cachedHours, occupied, cfg.Granularity(), cfg.Schedule.Location)

	// 6. Уведомления: AMQP или no-op, плюс выдача ссылок на видеокомнаты.
	var publisher notify.Publisher = notify.NopPublisher{}
	if cfg.AMQP.Enabled {
		amqpPub, err := notify.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, zlog)
		if err != nil {
			zlog.Fatal("init amqp publisher", zap.Error(err))
		}
		defer amqpPub.Close()
		publisher = amqpPub
	}
	links := notify.RoomLinkIssuer{BaseURL: cfg.Schedule.MeetingBaseURL}

	// 7. Сервисы календарного ядра. Один домен сериализации по врачу
	// на бронирования и блокировки.
	locker := service.NewDoctorLocker()
	bookingSvc := service.NewBookingService(
		gormDB, apptRepo, patientRepo, doctorRepo, eventRepo,
		resolver, locker, publisher, links, zlog,
	)
	availabilitySvc := service.NewAvailabilityService(
		blockRepo, apptRepo, doctorRepo, eventRepo, resolver, locker, zlog,
	)
	calendarSvc := service.NewCalendarService(resolver, blockRepo, apptRepo, patientRepo, userRepo)

	// 8. HTTP-сервер.
	if !cfg.IsLocal() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	controller := transport.NewCalendarController(bookingSvc, availabilitySvc, calendarSvc, doctorRepo, userRepo)
	controller.RegisterRoutes(router, []byte(cfg.Auth.JWTSecret))

	addr := net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	zlog.Info("calendar core listening", zap.String("addr", addr))

	// 9. Запускаем сервер в горутине.
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("http serve", zap.Error(err))
		}
	}()

	// 10. Грейсфул-шатдаун по сигналу.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	zlog.Info("shutting down http server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error("shutdown", zap.Error(err))
	}
}
