package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kstepanov/bombardier/internal/adminhttp"
	"github.com/kstepanov/bombardier/internal/config"
	"github.com/kstepanov/bombardier/internal/controller"
	"github.com/kstepanov/bombardier/internal/logger"
	"github.com/kstepanov/bombardier/internal/serviceapi"
)

// unresolvedRegistry stands in for the service-descriptor registry
// spec.md §1 names as an out-of-scope external collaborator (a lookup
// from service name to base URL + credentials, backing an HTTP
// implementation of serviceapi.ExternalServiceAPI). Wiring a real one in
// is an integration detail of whatever target fleet operates this
// harness, not the orchestration engine this repository implements.
type unresolvedRegistry struct{}

func (unresolvedRegistry) Resolve(serviceName string) (serviceapi.ExternalServiceAPI, error) {
	return nil, fmt.Errorf("no service descriptor registered for %q", serviceName)
}

func main() {
	cnf, err := config.NewConfig()
	if err != nil {
		log.Fatal(err)
	}
	if err := logger.Initialize(cnf.LogLevel); err != nil {
		log.Fatal(err)
	}

	c := controller.New(unresolvedRegistry{}, controller.WithExecutorPoolSize(cnf.WorkerPoolSize))

	runServer(cnf.Address, adminhttp.NewRouter(c), c)
}

func runServer(address string, h http.Handler, c *controller.Controller) {
	srv := http.Server{Addr: address, Handler: h}

	var wg sync.WaitGroup
	stopChannel := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()

		ctxS, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		select {
		case <-ctxS.Done():
			logger.Log.Info("catch signal")
		case <-stopChannel:
			logger.Log.Info("stop")
		}

		logger.Log.Info("stopping all running testing flows")
		c.StopAllTests()

		ctxT, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctxT); err != nil {
			logger.Log.Info("server forced to shutdown", zap.Error(err))
		}
	}()

	logger.Log.Info(fmt.Sprintf("start admin server on %s", address))
	err := srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Log.Panic("error in ListenAndServe", zap.Error(err))
	}

	close(stopChannel)
	wg.Wait()
	logger.Log.Info("server is shutdown")
}
