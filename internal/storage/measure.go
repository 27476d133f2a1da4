package storage

import (
	measure "github.com/ipfs/go-ds-measure"
)

// measureDatastoreConfig 给子存储加上操作统计。
type measureDatastoreConfig struct {
	child  DatastoreConfig
	prefix string
}

// MeasureDatastoreConfig 需要 "child"（子存储配置）和 "prefix"（指标前缀）。
func MeasureDatastoreConfig(params map[string]interface{}) (DatastoreConfig, error) {
	v, found := params["child"]
	if !found {
		return nil, missingField("child")
	}
	childField, ok := paramsOf(v)
	if !ok {
		return nil, wrongType("child", v)
	}

	child, err := AnyDatastoreConfig(childField)
	if err != nil {
		return nil, err
	}

	prefix, err := stringField(params, "prefix")
	if err != nil {
		return nil, err
	}

	return &measureDatastoreConfig{child: child, prefix: prefix}, nil
}

// DiskSpec 只记录子存储；统计包装不影响磁盘格式。
func (c *measureDatastoreConfig) DiskSpec() DiskSpec {
	return c.child.DiskSpec()
}

func (c *measureDatastoreConfig) Create(path string) (Datastore, error) {
	child, err := c.child.Create(path)
	if err != nil {
		return nil, err
	}
	return measure.New(c.prefix, child), nil
}
