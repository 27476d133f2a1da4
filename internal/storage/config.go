package storage

import (
	"sort"
	"strings"
	"sync"

	ds "github.com/ipfs/go-datastore"
)

// Datastore 是存储后端需要实现的接口。
type Datastore interface {
	ds.Batching
}

// DatastoreConfig 描述一种可以写入 datastore_spec 并据此创建的存储后端。
type DatastoreConfig interface {
	DiskSpec() DiskSpec
	Create(path string) (Datastore, error)
}

// ConfigFactory 从配置映射创建 DatastoreConfig。
type ConfigFactory func(map[string]interface{}) (DatastoreConfig, error)

type configRegistry struct {
	mu        sync.RWMutex
	factories map[string]ConfigFactory
}

var (
	globalConfigRegistry = &configRegistry{factories: make(map[string]ConfigFactory)}
	registryOnce         sync.Once
)

func ensureInitialized() {
	registryOnce.Do(func() {
		globalConfigRegistry.register("mount", MountDatastoreConfig)
		globalConfigRegistry.register("measure", MeasureDatastoreConfig)
		globalConfigRegistry.register("levelds", LevelDBDatastoreConfig)
		globalConfigRegistry.register("flatfs", FlatFsDatastoreConfig)
	})
}

func (r *configRegistry) register(name string, factory ConfigFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

func (r *configRegistry) get(name string) ConfigFactory {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.factories[name]
}

// list 返回已注册的类型名，按字母排序。
func (r *configRegistry) list() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.factories))
	for name := range r.factories {
		types = append(types, name)
	}
	sort.Strings(types)
	return types
}

// AnyDatastoreConfig 根据 "type" 字段创建对应的存储配置。
//
// 类型名不区分大小写，支持 mount、measure、levelds 和 flatfs。
// 字段缺失或取值无效时返回 *ConfigError。
func AnyDatastoreConfig(params map[string]interface{}) (DatastoreConfig, error) {
	ensureInitialized()

	datastoreType, err := stringField(params, "type")
	if err != nil {
		return nil, err
	}
	datastoreType = strings.ToLower(datastoreType)

	factory := globalConfigRegistry.get(datastoreType)
	if factory == nil {
		return nil, &ConfigError{
			Field: "type",
			Value: datastoreType,
			Err:   errUnknownType(globalConfigRegistry.list()),
		}
	}
	return factory(params)
}

// paramsOf 接受从 JSON 读出的 map，也接受 DiskSpec 生成的嵌套 DiskSpec。
func paramsOf(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case DiskSpec:
		return m, true
	default:
		return nil, false
	}
}
