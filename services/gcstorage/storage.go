package gcstorage

import (
	"context"
	"fmt"
	"io"

	"efim/filestore"

	"cloud.google.com/go/storage"
)

var _ filestore.FileManager = (*GCSDriver)(nil)

type GCSDriver struct {
	client     *storage.Client
	BucketName string
}

func New(bucketName string) (*GCSDriver, error) {
	ctx := context.Background()
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	d := &GCSDriver{
		BucketName: bucketName,
		client:     client,
	}
	return d, nil
}

func (gcsd *GCSDriver) Create(dir, fileName string, reader io.ReadSeeker) error {
	ctx := context.Background()
	obj := gcsd.client.Bucket(gcsd.BucketName).Object(filestore.ObjectKey(dir, fileName))
	w := obj.NewWriter(ctx)
	if _, err := io.Copy(w, reader); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func (gcsd *GCSDriver) Get(dir, fileName string) (io.ReadCloser, error) {
	ctx := context.Background()
	obj := gcsd.client.Bucket(gcsd.BucketName).Object(filestore.ObjectKey(dir, fileName))
	return obj.NewReader(ctx)
}

func (gcsd *GCSDriver) GetObjectSize(dir, fileName string) (int64, error) {
	ctx := context.Background()
	attrs, err := gcsd.client.Bucket(gcsd.BucketName).Object(filestore.ObjectKey(dir, fileName)).Attrs(ctx)
	if err != nil {
		return 0, err
	}
	return attrs.Size, nil
}

func (gcsd *GCSDriver) GetBucketName() string {
	return gcsd.BucketName
}

func (gcsd *GCSDriver) GetDatasetFilePathAndName(fileName string) (string, string) {
	return "datasets/", fileName
}

func (gcsd *GCSDriver) GetRunDir(datasetName, runID string) string {
	return fmt.Sprintf("runs/%s/%s/", datasetName, runID)
}

func (gcsd *GCSDriver) GetResultsFilePathAndName(datasetName, runID string, minUtil int64) (string, string) {
	return gcsd.GetRunDir(datasetName, runID), fmt.Sprintf("patterns_%d.txt", minUtil)
}

func (gcsd *GCSDriver) GetStatsFilePathAndName(datasetName, runID string, minUtil int64) (string, string) {
	return gcsd.GetRunDir(datasetName, runID), fmt.Sprintf("stats_%d.json", minUtil)
}
