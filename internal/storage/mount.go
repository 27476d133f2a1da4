package storage

import (
	"sort"

	ds "github.com/ipfs/go-datastore"
	"github.com/ipfs/go-datastore/mount"
	"go.uber.org/multierr"
)

// mountDatastoreConfig 把多个子存储挂载到不同的键前缀下。
type mountDatastoreConfig struct {
	mounts []mountItem
}

type mountItem struct {
	ds     DatastoreConfig
	prefix ds.Key
}

// MountDatastoreConfig 需要 "mounts" 数组，每一项是一个子存储配置，
// 另带 "mountpoint" 字段。挂载点按前缀从长到短排序，最长匹配优先。
func MountDatastoreConfig(params map[string]interface{}) (DatastoreConfig, error) {
	v, found := params["mounts"]
	if !found {
		return nil, missingField("mounts")
	}
	mounts, ok := v.([]interface{})
	if !ok {
		return nil, wrongType("mounts", v)
	}

	var config mountDatastoreConfig
	for _, item := range mounts {
		mountParams, ok := paramsOf(item)
		if !ok {
			return nil, wrongType("mounts", item)
		}

		child, err := AnyDatastoreConfig(mountParams)
		if err != nil {
			return nil, err
		}

		prefix, err := stringField(mountParams, "mountpoint")
		if err != nil {
			return nil, err
		}

		config.mounts = append(config.mounts, mountItem{ds: child, prefix: ds.NewKey(prefix)})
	}

	sort.Slice(config.mounts, func(i, j int) bool {
		return config.mounts[i].prefix.String() > config.mounts[j].prefix.String()
	})

	return &config, nil
}

func (cfg *mountDatastoreConfig) DiskSpec() DiskSpec {
	mounts := make([]interface{}, len(cfg.mounts))
	for i, m := range cfg.mounts {
		spec := m.ds.DiskSpec()
		if spec == nil {
			spec = make(map[string]interface{})
		}
		spec["mountpoint"] = m.prefix.String()
		mounts[i] = spec
	}

	return map[string]interface{}{
		"type":   "mount",
		"mounts": mounts,
	}
}

// Create 打开所有子存储。任何一个失败时，已打开的会被关闭。
func (cfg *mountDatastoreConfig) Create(path string) (Datastore, error) {
	mounts := make([]mount.Mount, 0, len(cfg.mounts))

	for _, m := range cfg.mounts {
		store, err := m.ds.Create(path)
		if err != nil {
			for _, opened := range mounts {
				err = multierr.Append(err, opened.Datastore.Close())
			}
			return nil, err
		}
		mounts = append(mounts, mount.Mount{Prefix: m.prefix, Datastore: store})
	}

	return mount.New(mounts), nil
}
