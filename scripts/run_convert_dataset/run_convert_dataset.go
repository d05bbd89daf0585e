package main

// Convert a raw dataset to the items:total:utilities format and store it as <name>.ds.

// Sample usage in terminal.
// go run run_convert_dataset.go --input_file=dataset/BMS.txt --format=sequence --output_dir=/tmp/efim

import (
	"flag"
	"os"
	"path/filepath"

	C "efim/config"
	"efim/dataset"
	serviceDisk "efim/services/disk"
	T "efim/task"

	log "github.com/sirupsen/logrus"
)

func main() {
	formatFlag := flag.String("format", "", "Format of input_file: sequence, itemlist or timestamped.")

	conf, err := C.Load(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.WithError(err).Fatal("Invalid configuration.")
	}
	if conf.InputFile == "" {
		log.Fatal("input_file is required.")
	}
	C.InitConf(conf)
	T.SetLogLevel(log.GetLevel())

	format, err := dataset.ParseFormat(*formatFlag)
	if err != nil {
		log.WithError(err).Fatal("Invalid format.")
	}
	cloudManager, err := T.NewFileManager(conf)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize the store.")
	}

	dir, name := filepath.Dir(conf.InputFile), filepath.Base(conf.InputFile)
	path, convertedName, lines, err := T.ConvertDataset(serviceDisk.New(dir), cloudManager, dir, name, format)
	if err != nil {
		log.WithError(err).Fatal("Conversion failed.")
	}
	log.WithFields(log.Fields{"path": path, "name": convertedName, "lines": lines}).Info("Done.")
}
