package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	infra "github.com/HarshalVankudre/CourseViewer/internal/infrastructure"
	"github.com/HarshalVankudre/CourseViewer/internal/infrastructure/driver"
	"github.com/HarshalVankudre/CourseViewer/internal/infrastructure/logging"
	ihttp "github.com/HarshalVankudre/CourseViewer/internal/interfaces/http"
	"github.com/HarshalVankudre/CourseViewer/internal/progress"
)

func main() {
	log.SetFlags(log.Lshortfile | log.Ldate | log.Ltime)
	option, err := infra.InitConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.NewLogger(&logging.Config{
		FilePath: option.Logging.FilePath,
		Level:    option.Logging.Level,
		AppID:    option.AppID,
		Env:      option.Env,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %s\n", err)
	}
	logger = logger.With(
		zap.String("service.id", option.AppID),
	)
	defer logger.Sync()

	dbConn, err := driver.GetDBConnection(&driver.DBConfig{
		User:     option.Database.User,
		Password: option.Database.Password,
		MaxConn:  option.Database.MaxConn,
		Protocol: option.Database.Protocol,
		Driver:   option.Database.Driver,
		Host:     option.Database.Host,
		Port:     option.Database.Port,
		Query:    option.Database.Query,
		Schema:   option.Database.Schema,
	})
	if err != nil {
		log.Fatalf("Failed to create DB connection: %s\n", err)
	}
	logger.Debug("Create db connection instance", zap.String("db.driver", option.Database.Driver),
		zap.String("db.schema", option.Database.Schema),
		zap.String("db.host", option.Database.Host),
		zap.Any("config", option.Database),
	)

	var kv driver.KeyValueDB
	if option.KVStore.InMemory {
		kv = driver.NewMemoryKV()
	} else {
		kv = driver.NewRedisClient(option.KVStore.Host, option.KVStore.Port, option.KVStore.Password)
	}

	SyncRepo := progress.NewSyncRepository(dbConn)
	if option.Database.Bootstrap {
		if err := SyncRepo.EnsureSchema(context.Background()); err != nil {
			log.Fatalf("Failed to bootstrap schema: %s\n", err)
		}
	}
	SyncUseCase := progress.NewSyncUseCase(SyncRepo)

	ihttp.Serve(dbConn, kv, option, SyncUseCase, logger)
}
