package gcstorage

import (
	"fmt"
	"testing"

	"efim/util"

	"github.com/stretchr/testify/assert"
)

// path helpers never touch the client, so no credentials are needed
var gcsDriver = &GCSDriver{BucketName: "efim-dev-test"}

func TestGetRunDir(t *testing.T) {
	runID := util.GetUUID()

	result := gcsDriver.GetRunDir("chess", runID)
	expected := fmt.Sprintf("runs/chess/%s/", runID)
	assert.Equal(t, expected, result)
}

func TestGetResultsFilePathAndName(t *testing.T) {
	runID := util.GetUUID()
	minUtil := util.RandomInt64()

	resultPath, resultName := gcsDriver.GetResultsFilePathAndName("mushroom", runID, minUtil)
	assert.Equal(t, gcsDriver.GetRunDir("mushroom", runID), resultPath)
	assert.Equal(t, fmt.Sprintf("patterns_%d.txt", minUtil), resultName)
}

func TestGetStatsFilePathAndName(t *testing.T) {
	runID := util.GetUUID()

	resultPath, resultName := gcsDriver.GetStatsFilePathAndName("mushroom", runID, 100)
	assert.Equal(t, gcsDriver.GetRunDir("mushroom", runID), resultPath)
	assert.Equal(t, "stats_100.json", resultName)
}

func TestGetDatasetFilePathAndName(t *testing.T) {
	name := util.RandomString(8) + ".ds"

	resultPath, resultName := gcsDriver.GetDatasetFilePathAndName(name)
	assert.Equal(t, "datasets/", resultPath)
	assert.Equal(t, name, resultName)
	assert.Equal(t, "efim-dev-test", gcsDriver.GetBucketName())
}
