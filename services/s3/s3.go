package s3

import (
	"fmt"
	"io"

	"efim/filestore"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	log "github.com/sirupsen/logrus"
)

var _ filestore.FileManager = (*S3Driver)(nil)

type S3Driver struct {
	s3         *s3.S3
	BucketName string
	Region     string
}

func New(bucketName, region string) *S3Driver {
	session := session.New()
	s3 := s3.New(session, aws.NewConfig().WithRegion(region))
	return &S3Driver{s3: s3, BucketName: bucketName, Region: region}
}

func (sd *S3Driver) Create(dir, fileName string, reader io.ReadSeeker) error {
	log.WithFields(log.Fields{
		"Dir":        dir,
		"BucketName": sd.BucketName,
		"Region":     sd.Region,
	}).Debug("S3Driver Creating file")

	input := &s3.PutObjectInput{
		Bucket: aws.String(sd.BucketName),
		Body:   reader,
		Key:    aws.String(filestore.ObjectKey(dir, fileName)),
	}
	_, err := sd.s3.PutObject(input)
	return err
}

func (sd *S3Driver) Get(dir, fileName string) (io.ReadCloser, error) {
	input := s3.GetObjectInput{
		Bucket: aws.String(sd.BucketName),
		Key:    aws.String(filestore.ObjectKey(dir, fileName)),
	}
	op, err := sd.s3.GetObject(&input)
	if err != nil {
		return nil, err
	}
	return op.Body, nil
}

func (sd *S3Driver) GetObjectSize(dir, fileName string) (int64, error) {
	input := s3.HeadObjectInput{
		Bucket: aws.String(sd.BucketName),
		Key:    aws.String(filestore.ObjectKey(dir, fileName)),
	}
	op, err := sd.s3.HeadObject(&input)
	if err != nil {
		return 0, err
	}
	return aws.Int64Value(op.ContentLength), nil
}

func (sd *S3Driver) GetBucketName() string {
	return sd.BucketName
}

func (sd *S3Driver) GetDatasetFilePathAndName(fileName string) (string, string) {
	return "datasets/", fileName
}

func (sd *S3Driver) GetRunDir(datasetName, runID string) string {
	return fmt.Sprintf("runs/%s/%s/", datasetName, runID)
}

func (sd *S3Driver) GetResultsFilePathAndName(datasetName, runID string, minUtil int64) (string, string) {
	return sd.GetRunDir(datasetName, runID), fmt.Sprintf("patterns_%d.txt", minUtil)
}

func (sd *S3Driver) GetStatsFilePathAndName(datasetName, runID string, minUtil int64) (string, string) {
	return sd.GetRunDir(datasetName, runID), fmt.Sprintf("stats_%d.json", minUtil)
}
