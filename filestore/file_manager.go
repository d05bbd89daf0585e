package filestore

import (
	"io"
	"strings"
)

const separator = "/"

// FileManager stores mining inputs and result dumps. dir is a directory for the disk
// driver and an object prefix for the bucket drivers.
type FileManager interface {
	Create(dir, fileName string, reader io.ReadSeeker) error
	Get(dir, fileName string) (io.ReadCloser, error)
	GetObjectSize(dir, fileName string) (int64, error)
	GetBucketName() string
	GetDatasetFilePathAndName(fileName string) (string, string)
	GetRunDir(datasetName, runID string) string
	GetResultsFilePathAndName(datasetName, runID string, minUtil int64) (string, string)
	GetStatsFilePathAndName(datasetName, runID string, minUtil int64) (string, string)
}

// ObjectKey joins an object prefix and a name with a single separator.
func ObjectKey(dir, fileName string) string {
	dir = strings.Trim(dir, separator)
	if dir == "" {
		return fileName
	}
	return dir + separator + fileName
}
