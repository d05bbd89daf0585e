package disk

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"efim/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndGet(t *testing.T) {
	diskDriver := New(t.TempDir())
	runID := util.GetUUID()
	path, name := diskDriver.GetResultsFilePathAndName("chess", runID, 10)

	content := "b : 9\na b : 10"
	require.NoError(t, diskDriver.Create(path, name, strings.NewReader(content)))

	size, err := diskDriver.GetObjectSize(path, name)
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), size)

	rc, err := diskDriver.Get(path, name)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))

	_, err = diskDriver.Get(path, "missing.txt")
	assert.Error(t, err)
}

func TestGetRunFilePaths(t *testing.T) {
	diskDriver := New("/tmp/efim")
	runID := util.GetUUID()

	assert.Equal(t, fmt.Sprintf("/tmp/efim/runs/chess/%s/", runID), diskDriver.GetRunDir("chess", runID))

	path, name := diskDriver.GetResultsFilePathAndName("chess", runID, 500000)
	assert.Equal(t, diskDriver.GetRunDir("chess", runID), path)
	assert.Equal(t, "patterns_500000.txt", name)

	path, name = diskDriver.GetStatsFilePathAndName("chess", runID, 500000)
	assert.Equal(t, diskDriver.GetRunDir("chess", runID), path)
	assert.Equal(t, "stats_500000.json", name)

	path, name = diskDriver.GetDatasetFilePathAndName("BMS.ds")
	assert.Equal(t, "/tmp/efim/datasets/", path)
	assert.Equal(t, "BMS.ds", name)
	assert.Equal(t, "/tmp/efim", diskDriver.GetBucketName())
}
