package storage

import (
	levelds "github.com/ipfs/go-ds-leveldb"
	ldbopts "github.com/syndtr/goleveldb/leveldb/opt"
)

// levelDBDatastoreConfig 是 LevelDB 后端的配置。
type levelDBDatastoreConfig struct {
	path        string
	compression ldbopts.Compression
}

var compressionNames = map[ldbopts.Compression]string{
	ldbopts.NoCompression:     "none",
	ldbopts.SnappyCompression: "snappy",
}

// LevelDBDatastoreConfig 从配置映射创建 LevelDB 配置。
//
// 必填字段 "path"；可选字段 "compression" 取值 "none"、"snappy"，
// 缺省时使用 goleveldb 的默认压缩。
func LevelDBDatastoreConfig(params map[string]interface{}) (DatastoreConfig, error) {
	path, err := stringField(params, "path")
	if err != nil {
		return nil, err
	}

	var compression ldbopts.Compression
	switch value := params["compression"]; value {
	case "none":
		compression = ldbopts.NoCompression
	case "snappy":
		compression = ldbopts.SnappyCompression
	case "", nil:
		compression = ldbopts.DefaultCompression
	default:
		return nil, unknownValue("compression", value)
	}

	return &levelDBDatastoreConfig{path: path, compression: compression}, nil
}

func (cfg *levelDBDatastoreConfig) DiskSpec() DiskSpec {
	spec := map[string]interface{}{
		"type": "levelds",
		"path": cfg.path,
	}
	if name, ok := compressionNames[cfg.compression]; ok {
		spec["compression"] = name
	}
	return spec
}

func (cfg *levelDBDatastoreConfig) Create(path string) (Datastore, error) {
	return levelds.NewDatastore(resolvePath(path, cfg.path), &levelds.Options{
		Compression: cfg.compression,
	})
}
