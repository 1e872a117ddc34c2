// Command messifd is the kernel's composition root: it loads
// configuration, opens the configured bucket store, builds the
// sequential-scan algorithm over a text-stream source, and exposes both
// the RMI façade and a Prometheus /metrics endpoint on one fasthttp
// listener.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/messif/metrickernel/bucket"
	"github.com/messif/metrickernel/mconfig"
	"github.com/messif/metrickernel/mlog"
	"github.com/messif/metrickernel/object"
	"github.com/messif/metrickernel/rmi"
	"github.com/messif/metrickernel/seqscan"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a JSON config file (defaults baked in if omitted)")
		dataPath   = flag.String("data", "", "path to a text-format object data file or directory")
		listenAddr = flag.String("listen", ":8833", "address the RMI+metrics listener binds to")
		verbosity  = flag.Int("v", 0, "log verbosity gate")
		kube       = flag.Bool("kube", false, "discover bucket credentials from the in-cluster Kubernetes API instead of -config")
	)
	flag.Parse()

	mlog.SetLevel(*verbosity)

	if err := mconfig.Load(*configPath); err != nil {
		mlog.Errorf("config load failed: %v", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dsn := mconfig.GCO.Get().Bucket.DSN
	if *kube {
		resolved, err := discoverBucketDSNFromKube(ctx)
		if err != nil {
			mlog.Errorf("kube bucket discovery failed: %v", err)
			os.Exit(1)
		}
		dsn = resolved
	}
	store, err := bucket.Open(ctx, dsn)
	if err != nil {
		mlog.Errorf("bucket open failed: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	source, err := openSource(*dataPath)
	if err != nil {
		mlog.Errorf("data source open failed: %v", err)
		os.Exit(1)
	}

	algo := seqscan.New("seqscan", mconfig.GCO.Get().Dispatch.MaxRunningOps, source)

	server := rmi.NewServer(algo.Algorithm)
	registerRMIMethods(server)

	metricsHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	rmiHandler := server.Handler()

	mux := func(c *fasthttp.RequestCtx) {
		switch string(c.Path()) {
		case "/metrics":
			metricsHandler(c)
		case "/rmi":
			rmiHandler(c)
		default:
			c.SetStatusCode(fasthttp.StatusNotFound)
		}
	}

	mlog.Infof("messifd listening on %s", *listenAddr)
	if err := fasthttp.ListenAndServe(*listenAddr, mux); err != nil {
		mlog.Errorf("listener failed: %v", err)
		os.Exit(1)
	}
}

func openSource(path string) (*seqscan.Source, error) {
	if path == "" {
		return seqscan.NewFileSource(os.DevNull, object.L1), nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return seqscan.NewDirSource(path, object.L1)
	}
	return seqscan.NewFileSource(path, object.L1), nil
}

