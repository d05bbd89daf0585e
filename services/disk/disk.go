package disk

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"efim/filestore"

	log "github.com/sirupsen/logrus"
)

var _ filestore.FileManager = (*DiskDriver)(nil)

type DiskDriver struct {
	// This can be used as namespace
	// to differentiate files across multiple instances of DiskDriver
	// Analogus to bucket name
	baseDir string
}

func New(baseDir string) *DiskDriver {
	return &DiskDriver{baseDir: baseDir}
}

func MkdirAll(path string) error {
	return os.MkdirAll(path, 0755)
}

func (dd *DiskDriver) Create(path, fileName string, reader io.ReadSeeker) error {
	err := MkdirAll(path)
	if err != nil {
		log.WithError(err).Errorln("Failed to create dir")
		return err
	}

	file, err := os.Create(filepath.Join(path, fileName))
	if err != nil {
		return err
	}
	defer file.Close()
	_, err = io.Copy(file, reader)
	return err
}

// Get opens a file in read only mode.
// Caller should take care of closing the returned io.ReadCloser.
func (dd *DiskDriver) Get(path, fileName string) (io.ReadCloser, error) {
	log.WithFields(log.Fields{
		"Path":     path,
		"FileName": fileName,
	}).Debug("DiskDriver Opening file")

	return os.OpenFile(filepath.Join(path, fileName), os.O_RDONLY, 0444)
}

func (dd *DiskDriver) GetObjectSize(path, fileName string) (int64, error) {
	objInfo, err := os.Stat(filepath.Join(path, fileName))
	if err != nil {
		return 0, err
	}
	return objInfo.Size(), nil
}

func (dd *DiskDriver) GetBucketName() string {
	return dd.baseDir
}

func (dd *DiskDriver) GetDatasetFilePathAndName(fileName string) (string, string) {
	return fmt.Sprintf("%s/datasets/", dd.baseDir), fileName
}

func (dd *DiskDriver) GetRunDir(datasetName, runID string) string {
	return fmt.Sprintf("%s/runs/%s/%s/", dd.baseDir, datasetName, runID)
}

func (dd *DiskDriver) GetResultsFilePathAndName(datasetName, runID string, minUtil int64) (string, string) {
	return dd.GetRunDir(datasetName, runID), fmt.Sprintf("patterns_%d.txt", minUtil)
}

func (dd *DiskDriver) GetStatsFilePathAndName(datasetName, runID string, minUtil int64) (string, string) {
	return dd.GetRunDir(datasetName, runID), fmt.Sprintf("stats_%d.json", minUtil)
}
