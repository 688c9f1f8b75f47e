package stores

import (
	"context"

	"certificate-server/config"
	"certificate-server/core"
	"certificate-server/stores/filesystem"
	"certificate-server/stores/memory"
	"certificate-server/stores/s3"
	"certificate-server/stores/sqlite"

	"github.com/sirupsen/logrus"
)

// GetStore returns the template store selected by cfg.StorageType. Stores that
// also keep named versions implement core.VersionStore.
func GetStore(ctx context.Context, cfg *config.Config) core.TemplateStore {
	var store core.TemplateStore

	storageField := logrus.Fields{
		"storageType": cfg.StorageType,
	}

	switch cfg.StorageType {
	case "filesystem":
		storageField["basePath"] = cfg.LocalStoragePath
		store = filesystem.NewTemplateStore(cfg.LocalStoragePath)
	case "sqlite":
		storageField["dataSourceName"] = cfg.DataSourceName
		store = sqlite.NewTemplateStore(cfg.DataSourceName)
	case "s3":
		storageField["bucketName"] = cfg.S3BucketName
		storageField["prefix"] = cfg.S3Prefix
		store = s3.NewTemplateStore(ctx, cfg.S3BucketName, cfg.S3Prefix)
	default:
		store = memory.NewTemplateStore()
		storageField["storageType"] = "in-memory"
	}
	_, versioned := store.(core.VersionStore)
	storageField["versions"] = versioned

	logrus.WithFields(storageField).Info("Use storage")
	return store
}
