package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"certificate-server/core"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrInvalidID is returned for template ids that are not plain object names.
var ErrInvalidID = core.ErrInvalidID

// objectAPI is the part of the S3 client the store uses.
type objectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type templateStore struct {
	client objectAPI
	bucket string
	prefix string
}

// NewTemplateStore stores templates as JSON objects in bucket, under prefix.
// Credentials and region come from the default AWS config chain.
func NewTemplateStore(ctx context.Context, bucket, prefix string) *templateStore {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		logrus.WithError(err).Fatal("unable to load AWS SDK config")
	}
	return newTemplateStore(s3.NewFromConfig(cfg), bucket, prefix)
}

func newTemplateStore(client objectAPI, bucket, prefix string) *templateStore {
	return &templateStore{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

func (s *templateStore) key(id string) (string, error) {
	if id == "" || id == "." || id == ".." || path.Base(id) != id || strings.ContainsAny(id, `/\`) {
		return "", errors.Wrapf(ErrInvalidID, "%q", id)
	}
	return path.Join(s.prefix, id+".json"), nil
}

func (s *templateStore) listPrefix() string {
	if s.prefix == "" {
		return ""
	}
	return s.prefix + "/"
}

func (s *templateStore) read(ctx context.Context, key string) (*core.Template, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "read object %s", key)
	}

	var tmpl core.Template
	if err := json.Unmarshal(data, &tmpl); err != nil {
		return nil, errors.Wrapf(err, "decode object %s", key)
	}
	return &tmpl, nil
}

func isNotFound(err error) bool {
	var nsk *s3types.NoSuchKey
	var nf *s3types.NotFound
	return errors.As(err, &nsk) || errors.As(err, &nf)
}

func (s *templateStore) List(ctx context.Context) ([]*core.Template, error) {
	log := logrus.WithFields(logrus.Fields{"bucket": s.bucket, "prefix": s.prefix})

	var templates []*core.Template
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.listPrefix()),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			log.WithError(err).Error("Failed to list template objects")
			return nil, errors.Wrap(err, "list templates")
		}
		for _, object := range page.Contents {
			key := aws.ToString(object.Key)
			if path.Ext(key) != ".json" {
				continue
			}
			tmpl, err := s.read(ctx, key)
			if err != nil {
				log.WithError(err).Warnf("Failed to read template object %s, skipping", key)
				continue
			}
			tmpl.Config.Elements = nil
			templates = append(templates, tmpl)
		}
	}

	sort.Slice(templates, func(i, j int) bool {
		return templates[i].UpdatedAt.After(templates[j].UpdatedAt)
	})
	if templates == nil {
		templates = []*core.Template{}
	}
	log.Debugf("Listed %d templates", len(templates))
	return templates, nil
}

func (s *templateStore) Get(ctx context.Context, id string) (*core.Template, error) {
	key, err := s.key(id)
	if err != nil {
		return nil, err
	}

	tmpl, err := s.read(ctx, key)
	if err != nil {
		if isNotFound(err) {
			return nil, errors.Wrapf(core.ErrNotFound, "template %s", id)
		}
		logrus.WithError(err).WithField("key", key).Error("Failed to get template object")
		return nil, errors.Wrapf(err, "get template %s", id)
	}
	return tmpl, nil
}

func (s *templateStore) Save(ctx context.Context, template *core.Template) error {
	if template.ID == "" {
		template.ID = ulid.Make().String()
	}
	key, err := s.key(template.ID)
	if err != nil {
		return err
	}

	now := time.Now()
	if template.CreatedAt.IsZero() {
		if existing, err := s.read(ctx, key); err == nil {
			template.CreatedAt = existing.CreatedAt
		} else {
			template.CreatedAt = now
		}
	}
	template.UpdatedAt = now

	data, err := json.Marshal(template)
	if err != nil {
		return errors.Wrap(err, "encode template")
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		logrus.WithError(err).WithField("key", key).Error("Failed to put template object")
		return errors.Wrapf(err, "save template %s", template.ID)
	}

	logrus.WithFields(logrus.Fields{
		"template_id": template.ID,
		"key":         key,
		"data_length": len(data),
	}).Info("Template saved successfully")
	return nil
}

func (s *templateStore) Delete(ctx context.Context, id string) error {
	key, err := s.key(id)
	if err != nil {
		return err
	}

	// DeleteObject succeeds for missing keys, so check first.
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return errors.Wrapf(core.ErrNotFound, "template %s", id)
		}
		return errors.Wrapf(err, "delete template %s", id)
	}
	resp.Body.Close()

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return errors.Wrapf(err, "delete template %s", id)
	}

	logrus.WithField("template_id", id).Info("Template deleted successfully")
	return nil
}
