package task

import (
	"bytes"

	"efim/dataset"
	"efim/filestore"
	"efim/metrics"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var convertLog = taskLog.WithField("prefix", "Task#ConvertDataset")

// ConvertDataset rewrites a raw dataset from inputManager in the mining format and
// stores it as <name>.ds in the dataset directory of cloudManager.
func ConvertDataset(inputManager, cloudManager filestore.FileManager, dir, fileName string,
	format dataset.Format) (string, string, int, error) {

	logCtx := convertLog.WithFields(log.Fields{"file": fileName, "format": format})
	reader, err := inputManager.Get(dir, fileName)
	if err != nil {
		logCtx.WithError(err).Error("Failed to open dataset to convert.")
		return "", "", 0, errors.Wrapf(err, "opening %s", fileName)
	}
	defer reader.Close()

	var buf bytes.Buffer
	lines, err := dataset.Convert(reader, &buf, format)
	if err != nil {
		logCtx.WithError(err).Error("Failed to convert dataset.")
		return "", "", 0, err
	}

	path, name := cloudManager.GetDatasetFilePathAndName(dataset.ConvertedFileName(fileName))
	if err := cloudManager.Create(path, name, bytes.NewReader(buf.Bytes())); err != nil {
		logCtx.WithError(err).Error("Failed to write converted dataset.")
		return "", "", 0, errors.Wrapf(err, "writing %s", name)
	}
	metrics.Increment(metrics.IncrDatasetConvertCount)
	metrics.CountInt(metrics.CountDatasetConvertLines, int64(lines))
	logCtx.WithFields(log.Fields{"path": path, "name": name, "lines": lines}).Info("Converted dataset.")
	return path, name, lines, nil
}
