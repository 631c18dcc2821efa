package main

import (
	"context"

	blockshandler "rentals/internal/blocks/handler"
	blocksrepo "rentals/internal/blocks/repository"
	blocksservice "rentals/internal/blocks/service"
	blocksvalidator "rentals/internal/blocks/validator"
	bookingshandler "rentals/internal/bookings/handler"
	bookingsrepo "rentals/internal/bookings/repository"
	bookingsservice "rentals/internal/bookings/service"
	bookingsvalidator "rentals/internal/bookings/validator"
	"rentals/internal/events"
	propertieshandler "rentals/internal/properties/handler"
	propertiesrepo "rentals/internal/properties/repository"
	propertiesservice "rentals/internal/properties/service"
	reservationsrepo "rentals/internal/reservations/repository"
	reservations "rentals/internal/reservations/service"
	rangevalidator "rentals/internal/reservations/validator"
	"rentals/internal/storage/memory"
	usershandler "rentals/internal/users/handler"
	usersrepo "rentals/internal/users/repository"
	usersservice "rentals/internal/users/service"
	"rentals/pkg/app"
	"rentals/pkg/clock"
	"rentals/pkg/config"
	"rentals/pkg/contracts"
	mongotx "rentals/pkg/db/mongo"
	"rentals/pkg/kafka"
	kafka_config "rentals/pkg/kafka/config"
	kafka_middleware "rentals/pkg/kafka/middleware"
	"rentals/pkg/validation"
)

const ServiceName = "reservations"

type repositories struct {
	users         usersrepo.UserRepository
	properties    propertiesrepo.PropertyRepository
	bookings      bookingsrepo.BookingRepository
	blocks        blocksrepo.BlockRepository
	propertyLocks reservationsrepo.PropertyLockRepository
	txManager     mongotx.TransactionManager
	ready         app.ReadinessCheck
}

func main() {
	cfg := config.Load(ServiceName)
	cfg.Log.Info("Starting Reservations service")

	repos := initRepositories(cfg)
	publisher, closePublisher := initPublisher(cfg)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(repos.ready, initHandlers(cfg, repos, publisher)...)
	serverApp.OnShutdown(closePublisher)
	serverApp.OnShutdown(cfg.GracefulShutdown)
	serverApp.Run()
}

func initRepositories(cfg *config.Config) *repositories {
	if cfg.StoreDriver == config.StoreMemory {
		cfg.Log.Warn("Using in-memory store, data will not survive a restart")
		store := memory.NewStore()
		return &repositories{
			users:         store.Users(),
			properties:    store.Properties(),
			bookings:      store.Bookings(),
			blocks:        store.Blocks(),
			propertyLocks: store.PropertyLocks(),
			txManager:     store.TransactionManager(),
		}
	}

	cfg.SetMongo()
	cfg.SetRedis()

	var users usersrepo.UserRepository = usersrepo.NewMongoUserRepository(cfg)
	if cfg.Client.Redis != nil {
		users = usersrepo.NewCachedUserRepository(users, cfg.Client.Redis, cfg.UserCacheTTL, cfg.Log)
		cfg.Log.Info("User lookups cached in Redis", "ttl", cfg.UserCacheTTL)
	}

	return &repositories{
		users:         users,
		properties:    propertiesrepo.NewMongoPropertyRepository(cfg),
		bookings:      bookingsrepo.NewMongoBookingRepository(cfg),
		blocks:        blocksrepo.NewMongoBlockRepository(cfg),
		propertyLocks: reservationsrepo.NewMongoPropertyLockRepository(cfg),
		txManager:     mongotx.NewTransactionManager(cfg.Client.Mongo),
		ready: func(ctx context.Context) error {
			return cfg.Client.Mongo.Ping(ctx, nil)
		},
	}
}

func initPublisher(cfg *config.Config) (events.Publisher, func()) {
	if !cfg.KafkaEnabled {
		cfg.Log.Info("Kafka disabled, occupancy events will not be published")
		return events.NewNoopPublisher(), func() {}
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	producer, err := kafka.NewProducer(kafkaCfg, cfg.OccupancyTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	}

	cfg.Log.Info("Publishing occupancy events", "topic", producer.Topic())
	return events.NewKafkaPublisher(producer, cfg.Log), func() {
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka producer", "error", err)
		}
	}
}

func initHandlers(cfg *config.Config, repos *repositories, publisher events.Publisher) []contracts.Handler {
	c := clock.System{}
	structs := validation.New()
	ranges := rangevalidator.NewDateRangeValidator(c)

	userService := usersservice.NewUserService(repos.users, structs, cfg.Log)
	propertyService := propertiesservice.NewPropertyService(repos.properties, userService, structs, cfg.Log)

	locker := reservations.NewPropertyLocker(repos.propertyLocks, c, reservations.LockConfig{
		LeaseTTL:      cfg.LockLeaseTTL,
		WaitTimeout:   cfg.LockWaitTimeout,
		RetryInterval: cfg.LockRetryInterval,
	}, cfg.Log)
	engine := reservations.NewReservationEngine(repos.bookings, repos.blocks, repos.properties, locker, repos.txManager, cfg.Log)

	bookingService := bookingsservice.NewBookingService(
		repos.bookings,
		engine,
		userService,
		bookingsvalidator.NewBookingValidator(structs, ranges, cfg.MinReservationHours, cfg.Log),
		publisher,
		c,
		cfg.Log,
	)
	blockService := blocksservice.NewBlockService(
		repos.blocks,
		engine,
		blocksvalidator.NewBlockValidator(structs, ranges, cfg.MinReservationHours, cfg.Log),
		publisher,
		c,
		cfg.Log,
	)

	cfg.Log.Info("Reservation services initialized",
		"store", cfg.StoreDriver,
		"min_reservation_hours", cfg.MinReservationHours,
	)

	return []contracts.Handler{
		usershandler.NewUserHandler(userService, cfg.Log),
		propertieshandler.NewPropertyHandler(propertyService, cfg.Log),
		bookingshandler.NewBookingHandler(bookingService, cfg.Log),
		blockshandler.NewBlockHandler(blockService, cfg.Log),
	}
}
