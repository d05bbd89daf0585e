package main

// Run every (dataset, min_util, variant) of a YAML plan and print the statistics of
// each run.

// Sample plan.
// min_util_scale: 1000
// variants: [base, nomerge, nosubtree]
// datasets:
//   - file: dataset/chess.ds
//     min_utils: [350, 400, 450, 500, 550]

// Sample usage in terminal.
// go run run_efim_experiments.go --plan=plan.yaml --output_dir=/tmp/efim

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	C "efim/config"
	"efim/metrics"
	serviceDisk "efim/services/disk"
	T "efim/task"

	log "github.com/sirupsen/logrus"
)

func main() {
	planFlag := flag.String("plan", "", "YAML experiment plan.")

	conf, err := C.Load(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.WithError(err).Fatal("Invalid configuration.")
	}
	C.InitConf(conf)
	T.SetLogLevel(log.GetLevel())

	exporter := metrics.InitMetrics(conf.Env, conf.AppName, conf.GCPProjectID, conf.GCPProjectLocation)
	if exporter != nil {
		defer exporter.Flush()
		defer exporter.StopMetricsExporter()
	}

	plan, err := T.ReadExperimentPlan(*planFlag)
	if err != nil {
		log.WithError(err).Fatal("Invalid experiment plan.")
	}
	cloudManager, err := T.NewFileManager(conf)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize the store.")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// plan files are paths on the local disk
	results, err := T.RunExperiments(ctx, serviceDisk.New(""), cloudManager, plan)
	for _, r := range results {
		fmt.Printf("Run %s %s %d (%s)\n%s\n", r.Dataset, r.Variant, r.MinUtil, r.RunID, r.Stats.String())
	}
	if err != nil {
		log.WithError(err).Error("Experiments stopped.")
		stop()
		os.Exit(1)
	}
}
