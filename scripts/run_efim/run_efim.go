package main

// Mine every itemset whose utility reaches min_util and write the pattern dump and the
// run statistics to the configured store.

// Sample usage in terminal.
// go run run_efim.go --input_file=dataset/chess.ds --min_util=500000 --output_dir=/tmp/efim
// go run run_efim.go --input_file=chess.ds --input_in_store --storage_type=gcs --bucket_name=efim-runs --min_util=500000 --env=production

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	C "efim/config"
	"efim/filestore"
	"efim/huim"
	"efim/metrics"
	serviceDisk "efim/services/disk"
	T "efim/task"

	log "github.com/sirupsen/logrus"
)

func main() {
	inputInStoreFlag := flag.Bool("input_in_store", false,
		"Read input_file from the datasets directory of the configured store instead of the local disk.")
	runIDFlag := flag.String("run_id", "", "Optional: uuid of the run, generated when empty.")

	conf, err := C.Load(flag.CommandLine, os.Args[1:])
	if err == nil {
		err = conf.ValidateMining()
	}
	if err != nil {
		log.WithError(err).Fatal("Invalid configuration.")
	}
	if conf.InputFile == "" {
		log.Fatal("input_file is required.")
	}
	C.InitConf(conf)
	T.SetLogLevel(log.GetLevel())

	exporter := metrics.InitMetrics(conf.Env, conf.AppName, conf.GCPProjectID, conf.GCPProjectLocation)
	if exporter != nil {
		defer exporter.Flush()
		defer exporter.StopMetricsExporter()
	}

	cloudManager, err := T.NewFileManager(conf)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize the store.")
	}
	var inputManager filestore.FileManager = serviceDisk.New(filepath.Dir(conf.InputFile))
	datasetDir, datasetFile := filepath.Dir(conf.InputFile), filepath.Base(conf.InputFile)
	if *inputInStoreFlag {
		inputManager = cloudManager
		datasetDir, datasetFile = cloudManager.GetDatasetFilePathAndName(conf.InputFile)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := T.MineHighUtility(ctx, inputManager, cloudManager, T.MineConfig{
		DatasetDir:  datasetDir,
		DatasetFile: datasetFile,
		Separator:   conf.Separator,
		RunID:       *runIDFlag,
		Timeout:     conf.Timeout(),
		Options: huim.Options{
			MinUtil:               conf.MinUtil,
			NumRoutines:           conf.NumRoutines,
			MaxMergeSize:          conf.MaxMergeSize,
			DisableMerging:        conf.DisableMerging,
			DisableSubtreePruning: conf.DisableSubtreePruning,
		},
	})
	if err != nil {
		log.WithError(err).Error("Mining failed.")
		stop()
		os.Exit(1)
	}
	fmt.Println(res.Stats.String())
	log.WithFields(log.Fields{
		"runID":   res.RunID,
		"results": filestore.ObjectKey(res.ResultsPath, res.ResultsName),
		"stats":   filestore.ObjectKey(res.StatsPath, res.StatsName),
	}).Info("Done.")
}
