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
	"github.com/Luismorlan/newsportal/subscription"
	"github.com/Luismorlan/newsportal/utils"
	"github.com/Luismorlan/newsportal/utils/dotenv"
	Logger "github.com/Luismorlan/newsportal/utils/log"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

var (
	AppConfigPath *string
	// Configuration to customize binary startup.
	AppConfig app_config.PortalAppConfig
)

// init() will always be called on before the execution of main function.
func init() {
	AppConfigPath = flag.String("app_config_path", "cmd/notifier/config.yaml", "path to portal app config")
	if err := dotenv.LoadDotEnvs(); err != nil {
		panic(err)
	}
}

func NewDogStatsdClient(addr string) *statsd.Client {
	client, err := statsd.New(addr)
	if err != nil {
		panic(err)
	}
	return client
}

// The notifier binary runs the periodic side of the notification pipeline:
// the weekly digest. The immediate, event-driven side lives in the api server
// process where the post events originate.
func main() {
	flag.Parse()

	AppConfig = app_config.ParsePortalAppConfig(*AppConfigPath)

	db, err := utils.GetDBConnection()
	if err != nil {
		Logger.Log.Fatal("fail to connect database : ", err)
	}

	eventbus := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer:            100,
			BlockPublishUntilSubscriberAck: false,
		},
		watermill.NewStdLogger(false, false),
	)

	registry := subscription.NewRegistry(db)
	composer := notification.NewComposer(AppConfig.SITE_URL)
	dispatcher := notification.NewDispatcher(notification.NewSESTransport(), AppConfig.MAIL_FROM, eventbus)
	pipeline := notification.NewPipeline(db, registry, composer, dispatcher)

	ctx, cancel := context.WithCancel(context.Background())

	digestEngine := engine.NewEngine([]engine.Module{
		modules.NewDigestScheduler(
			modules.DigestSchedulerConfig{
				Name:    "digest_scheduler",
				Weekday: time.Weekday(AppConfig.DIGEST_WEEKDAY),
				Hour:    AppConfig.DIGEST_HOUR,
				Minute:  AppConfig.DIGEST_MINUTE,
			},
			pipeline,
		),
		modules.NewReporter(
			modules.ReporterConfig{Name: "reporter"},
			NewDogStatsdClient(AppConfig.STATSD_ADDR),
			eventbus,
		),
	}, ctx, cancel, eventbus)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		digestEngine.Shutdown()
	}()

	// blocking call.
	digestEngine.Run()

	Logger.Log.Info("notifier stopped execution")
}
