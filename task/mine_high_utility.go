package task

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"efim/config"
	"efim/dataset"
	"efim/filestore"
	"efim/huim"
	"efim/metrics"
	serviceDisk "efim/services/disk"
	serviceGCS "efim/services/gcstorage"
	serviceS3 "efim/services/s3"
	U "efim/util"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var mineLog = taskLog.WithField("prefix", "Task#MineHighUtility")

var ErrInvalidRunID = errors.New("run id must be a uuid")

type MineConfig struct {
	DatasetDir  string
	DatasetFile string
	// Name used for the result paths, the dataset file name when empty.
	DatasetName string
	Separator   string
	// A fresh uuid when empty.
	RunID   string
	Options huim.Options
	// 0 runs without a deadline.
	Timeout time.Duration
}

type MineResult struct {
	RunID       string
	DatasetName string
	ResultsPath string
	ResultsName string
	StatsPath   string
	StatsName   string
	Patterns    huim.PatternContainer
	Stats       huim.RunStats
}

// NewFileManager picks the store of a configuration.
func NewFileManager(conf *config.Configuration) (filestore.FileManager, error) {
	switch conf.StorageType {
	case config.StorageDisk:
		return serviceDisk.New(conf.OutputDir), nil
	case config.StorageGCS:
		return serviceGCS.New(conf.BucketName)
	case config.StorageS3:
		return serviceS3.New(conf.BucketName, conf.S3Region), nil
	default:
		return nil, errors.Wrap(config.ErrUnknownStorageType, conf.StorageType)
	}
}

// MineHighUtility loads a dataset from inputManager, mines it and writes the pattern
// dump and the run statistics to cloudManager.
func MineHighUtility(ctx context.Context, inputManager, cloudManager filestore.FileManager,
	conf MineConfig) (*MineResult, error) {

	if conf.Options.MinUtil <= 0 {
		return nil, huim.ErrInvalidMinUtil
	}
	runID := conf.RunID
	if runID == "" {
		runID = U.GetUUID()
	} else if !U.IsValidUUID(runID) {
		return nil, errors.Wrap(ErrInvalidRunID, runID)
	}
	datasetName := conf.DatasetName
	if datasetName == "" {
		datasetName = dataset.NameFromPath(conf.DatasetFile)
	}
	logCtx := mineLog.WithFields(log.Fields{
		"runID":   runID,
		"dataset": datasetName,
		"minUtil": conf.Options.MinUtil,
	})

	metrics.Increment(metrics.IncrMineRunCount)
	result, err := mineHighUtility(ctx, inputManager, cloudManager, conf, runID, datasetName, logCtx)
	if err != nil {
		metrics.Increment(metrics.IncrMineRunFailedCount)
		logCtx.WithError(err).Error("Mining high utility itemsets failed.")
		return nil, err
	}
	return result, nil
}

func mineHighUtility(ctx context.Context, inputManager, cloudManager filestore.FileManager,
	conf MineConfig, runID, datasetName string, logCtx *log.Entry) (*MineResult, error) {

	db, err := loadDataset(inputManager, conf, datasetName, logCtx)
	if err != nil {
		return nil, err
	}

	if conf.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, conf.Timeout)
		defer cancel()
	}
	patterns, stats, err := huim.MineHighUtilityItemsets(ctx, db, conf.Options)
	if err != nil {
		return nil, errors.Wrapf(err, "mining %s", datasetName)
	}
	logCtx.Info(fmt.Sprintf("Mined %d patterns from %s.", stats.Patterns, db))

	result := &MineResult{
		RunID:       runID,
		DatasetName: datasetName,
		Patterns:    patterns,
		Stats:       stats,
	}
	result.ResultsPath, result.ResultsName = cloudManager.GetResultsFilePathAndName(datasetName, runID, conf.Options.MinUtil)
	result.StatsPath, result.StatsName = cloudManager.GetStatsFilePathAndName(datasetName, runID, conf.Options.MinUtil)

	var resultsBuf bytes.Buffer
	if err := huim.WriteResults(&resultsBuf, patterns); err != nil {
		return nil, err
	}
	if err := cloudManager.Create(result.ResultsPath, result.ResultsName, bytes.NewReader(resultsBuf.Bytes())); err != nil {
		return nil, errors.Wrap(err, "writing patterns")
	}
	var statsBuf bytes.Buffer
	if err := huim.WriteStats(&statsBuf, stats); err != nil {
		return nil, err
	}
	if err := cloudManager.Create(result.StatsPath, result.StatsName, bytes.NewReader(statsBuf.Bytes())); err != nil {
		return nil, errors.Wrap(err, "writing stats")
	}

	recordRunMetrics(stats)
	logCtx.WithFields(log.Fields{
		"resultsPath": result.ResultsPath,
		"resultsName": result.ResultsName,
	}).Info("Successfully written patterns.")
	return result, nil
}

func loadDataset(inputManager filestore.FileManager, conf MineConfig, datasetName string,
	logCtx *log.Entry) (*dataset.Dataset, error) {

	start := time.Now()
	if size, err := inputManager.GetObjectSize(conf.DatasetDir, conf.DatasetFile); err == nil {
		metrics.RecordBytesSize(metrics.BytesDatasetSize, float64(size))
	} else {
		logCtx.WithError(err).Warn("Failed to get dataset size.")
	}

	reader, err := inputManager.Get(conf.DatasetDir, conf.DatasetFile)
	if err != nil {
		return nil, errors.Wrapf(err, "opening dataset %s", conf.DatasetFile)
	}
	defer reader.Close()

	db, err := dataset.ReadDatasetFromReader(datasetName, reader, conf.Separator)
	if err != nil {
		return nil, errors.Wrapf(err, "loading dataset %s", conf.DatasetFile)
	}
	metrics.RecordLatency(metrics.LatencyDatasetLoad, float64(time.Since(start).Milliseconds()))
	logCtx.WithField("timeTaken", time.Since(start).String()).Info(db.String())
	return db, nil
}

func recordRunMetrics(stats huim.RunStats) {
	metrics.CountInt(metrics.CountMineCandidates, stats.Candidates)
	metrics.CountInt(metrics.CountMinePatterns, int64(stats.Patterns))
	metrics.CountInt(metrics.CountMineMerges, stats.Merges)
	metrics.CountInt(metrics.CountMineTransactions, int64(stats.Transactions))
	metrics.RecordLatency(metrics.LatencyMineRun, float64(stats.Elapsed.Milliseconds()))
	metrics.RecordBytesSize(metrics.BytesMinePeakHeap, float64(stats.MaxMemory))
}
