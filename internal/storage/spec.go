// Package storage 提供作业日志的持久化存储。
//
// 存储目录的布局由 datastore_spec 文件描述，默认使用 mount 结构：
//   - /blocks: FlatFS，以内容寻址的块保存解压清单
//   - /: LevelDB，保存作业记录
//
// 两个子存储都包在 measure 中，以便统计操作次数和延迟。
//
// 基本使用：
//
//	store, err := storage.Open("~/.unrarx")
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	d := store.Datastore()
package storage

import (
	"bytes"
	"encoding/json"
)

// DiskSpec 是写入 datastore_spec 的存储配置。
type DiskSpec map[string]interface{}

const (
	// BlocksMount 是块子存储的挂载点，与 blockstore 的键前缀一致。
	BlocksMount = "/blocks"

	// JournalMount 是作业记录子存储的挂载点。
	JournalMount = "/"
)

// DefaultDiskSpec 返回默认的存储配置。
//
// 清单可能很大且只整体读写，作为块放在 FlatFS 中；作业记录很小并且需要按
// 前缀查询，放在 LevelDB 中。
func DefaultDiskSpec() DiskSpec {
	return map[string]interface{}{
		"type": "mount",
		"mounts": []interface{}{
			map[string]interface{}{
				"mountpoint": BlocksMount,
				"type":       "measure",
				"prefix":     "unrar.blocks",
				"child": map[string]interface{}{
					"type":      "flatfs",
					"path":      "blocks",
					"sync":      true,
					"shardFunc": "/repo/flatfs/shard/v1/next-to-last/2",
				},
			},
			map[string]interface{}{
				"mountpoint": JournalMount,
				"type":       "measure",
				"prefix":     "unrar.journal",
				"child": map[string]interface{}{
					"type":        "levelds",
					"path":        "journal",
					"compression": "snappy",
				},
			},
		},
	}
}

// Bytes 将 DiskSpec 序列化为 JSON。
//
// DiskSpec 只包含字符串、布尔值、切片和映射，序列化失败说明代码有误，直接 panic。
func (s DiskSpec) Bytes() []byte {
	b, err := json.Marshal(s)
	if err != nil {
		panic(err)
	}
	return bytes.TrimSpace(b)
}

func (s DiskSpec) String() string {
	return string(s.Bytes())
}
