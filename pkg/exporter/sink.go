package exporter

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Sink receives a complete export document. Every Write replaces whatever
// the sink held before.
type Sink interface {
	Write(ctx context.Context, data []byte) error
	String() string
}

// FileSink writes the export to a local file, truncating it on every write.
type FileSink struct {
	Path string
}

// Write implements Sink.
func (s FileSink) Write(_ context.Context, data []byte) error {
	if err := os.WriteFile(s.Path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", s.Path, err)
	}
	return nil
}

func (s FileSink) String() string { return s.Path }

// PutObjectAPI is the subset of the S3 client used by S3Sink.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink uploads the export to an S3 object, overwriting it on every write.
type S3Sink struct {
	Client PutObjectAPI
	Bucket string
	Key    string
}

// Write implements Sink.
func (s S3Sink) Write(ctx context.Context, data []byte) error {
	_, err := s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(s.Key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", s.Bucket, s.Key, err)
	}
	return nil
}

func (s S3Sink) String() string { return fmt.Sprintf("s3://%s/%s", s.Bucket, s.Key) }

// MultiSink writes to each sink in order and stops at the first failure.
type MultiSink []Sink

// Write implements Sink.
func (m MultiSink) Write(ctx context.Context, data []byte) error {
	for _, s := range m {
		if err := s.Write(ctx, data); err != nil {
			return err
		}
	}
	return nil
}

func (m MultiSink) String() string {
	var buf bytes.Buffer
	for i, s := range m {
		if i > 0 {
			buf.WriteString(",")
		}
		buf.WriteString(s.String())
	}
	return buf.String()
}
