package utils

import (
	"github.com/Luismorlan/newsportal/utils/dotenv"
	. "github.com/Luismorlan/newsportal/utils/flag"
	Logger "github.com/Luismorlan/newsportal/utils/log"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

// InitTracer starts the Datadog tracer. Call it once from main, never from
// init, so that unit tests don't spin up a tracer they never use.
func InitTracer() {
	env := "development"
	if dotenv.IsProdEnv() {
		env = "production"
	}

	tracer.Start(
		tracer.WithService(ServiceName),
		tracer.WithEnv(env),
	)

	Logger.Log.Info("tracer initialized")
}

// Stop tracer, OK to be closed multiple times
func CloseTracer() {
	// Datadog tracer
	tracer.Stop()
}
