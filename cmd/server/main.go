package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/Luismorlan/newsportal/app_config"
	"github.com/Luismorlan/newsportal/engine"
	"github.com/Luismorlan/newsportal/engine/modules"
	"github.com/Luismorlan/newsportal/notification"
	"github.com/Luismorlan/newsportal/rating"
	"github.com/Luismorlan/newsportal/server"
	"github.com/Luismorlan/newsportal/subscription"
	"github.com/Luismorlan/newsportal/utils"
	"github.com/Luismorlan/newsportal/utils/dotenv"
	Flag "github.com/Luismorlan/newsportal/utils/flag"
	Logger "github.com/Luismorlan/newsportal/utils/log"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	gintrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/gin-gonic/gin"
)

var (
	AppConfigPath *string
	// Configuration to customize binary startup.
	AppConfig app_config.PortalAppConfig
)

// init() will always be called on before the execution of main function.
func init() {
	AppConfigPath = flag.String("app_config_path", "cmd/server/config.yaml", "path to portal app config")
	if err := dotenv.LoadDotEnvs(); err != nil {
		panic(err)
	}
}

func cleanup() {
	utils.CloseProfiler()
	utils.CloseTracer()
	Logger.Log.Info("api server shutdown")
}

func NewDogStatsdClient(addr string) *statsd.Client {
	client, err := statsd.New(addr)
	if err != nil {
		panic(err)
	}
	return client
}

func main() {
	flag.Parse()

	defer cleanup()

	AppConfig = app_config.ParsePortalAppConfig(*AppConfigPath)

	utils.InitTracer()
	utils.InitProfiler()

	db, err := utils.GetDBConnection()
	if err != nil {
		Logger.Log.Fatal("fail to connect database : ", err)
	}
	utils.DatabaseSetupAndMigration(db)

	eventbus := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer:            100,
			BlockPublishUntilSubscriberAck: false,
		},
		watermill.NewStdLogger(false, false),
	)

	registry := subscription.NewRegistry(db)
	aggregator := rating.NewAggregator(db)
	composer := notification.NewComposer(AppConfig.SITE_URL)
	dispatcher := notification.NewDispatcher(notification.NewSESTransport(), AppConfig.MAIL_FROM, eventbus)
	pipeline := notification.NewPipeline(db, registry, composer, dispatcher)

	ctx, cancel := context.WithCancel(context.Background())

	// The notification engine runs in-process, off the request path. The api
	// server only publishes events, the worker picks them up and runs the
	// delayed pipeline.
	notifyEngine := engine.NewEngine([]engine.Module{
		modules.NewPipelineWorker(
			modules.PipelineWorkerConfig{
				Name:  "pipeline_worker",
				Delay: time.Duration(AppConfig.NOTIFY_DELAY_SECOND) * time.Second,
			},
			pipeline,
			eventbus,
		),
		modules.NewReporter(
			modules.ReporterConfig{Name: "reporter"},
			NewDogStatsdClient(AppConfig.STATSD_ADDR),
			eventbus,
		),
	}, ctx, cancel, eventbus)
	go notifyEngine.Run()

	// Default With the Logger and Recovery middleware already attached
	router := gin.Default()
	router.Use(cors.Default())
	router.Use(gintrace.Middleware(Flag.ServiceName))

	server.RegisterRoutes(router, db, eventbus, registry, aggregator, composer, dispatcher)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		notifyEngine.Shutdown()
		os.Exit(0)
	}()

	Logger.Log.Info("api server starts up")
	router.Run(":8080")
}
