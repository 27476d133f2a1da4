package storage

import (
	flatfs "github.com/ipfs/go-ds-flatfs"
)

// flatFsDatastoreConfig 是 FlatFS 后端的配置。
type flatFsDatastoreConfig struct {
	path     string
	shardFun *flatfs.ShardIdV1
	sync     bool
}

func (cfg *flatFsDatastoreConfig) DiskSpec() DiskSpec {
	return map[string]interface{}{
		"type":      "flatfs",
		"path":      cfg.path,
		"shardFunc": cfg.shardFun.String(),
	}
}

// Create 在 path 下（或 cfg.path 为绝对路径时直接在其中）打开 FlatFS，
// 目录不存在时创建。
func (cfg *flatFsDatastoreConfig) Create(path string) (Datastore, error) {
	return flatfs.CreateOrOpen(resolvePath(path, cfg.path), cfg.shardFun, cfg.sync)
}

// FlatFsDatastoreConfig 从配置映射创建 FlatFS 配置。
//
// 必填字段：
//   - "path" (string): 数据目录
//   - "shardFunc" (string): 分片函数，例如 /repo/flatfs/shard/v1/next-to-last/2
//
// 可选字段 "sync" (bool) 表示每次写入后是否 fsync，缺省为 true。它不影响磁盘
// 格式，因此不出现在 DiskSpec 中。
func FlatFsDatastoreConfig(params map[string]interface{}) (DatastoreConfig, error) {
	path, err := stringField(params, "path")
	if err != nil {
		return nil, err
	}

	shardFunc, err := stringField(params, "shardFunc")
	if err != nil {
		return nil, err
	}
	shardFun, err := flatfs.ParseShardFunc(shardFunc)
	if err != nil {
		return nil, &ConfigError{Field: "shardFunc", Value: shardFunc, Err: err}
	}

	sync := true
	if v, found := params["sync"]; found {
		b, ok := v.(bool)
		if !ok {
			return nil, wrongType("sync", v)
		}
		sync = b
	}

	return &flatFsDatastoreConfig{path: path, shardFun: shardFun, sync: sync}, nil
}
