package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"production-simulator/internal/types"
)

// RawSnapshot 是从文件读出的原始快照：产品名 -> 未解码的工序记录列表
// 记录保持原始形式，由调用方逐条校验持久字段
type RawSnapshot map[types.Product][]map[string]json.RawMessage

// Snapshot 表示磁盘上的工序快照文件
// 每次保存都整体覆盖文件，不支持增量写入；写入中途失败可能损坏文件
type Snapshot struct {
	path string // 快照文件路径
}

// NewSnapshot 创建一个指向 path 的快照文件句柄，不会访问磁盘
func NewSnapshot(path string) *Snapshot {
	return &Snapshot{path: path}
}

// Load 读取快照文件
// 文件不存在时返回 found=false 且不报错，表示全新安装
func (s *Snapshot) Load() (snap RawSnapshot, found bool, err error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return RawSnapshot{}, false, nil
		}
		return nil, false, err
	}

	snap = RawSnapshot{}
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, true, fmt.Errorf("decode snapshot %s: %w", s.path, err)
	}
	return snap, true, nil
}

// Save 将全部工序记录写入快照文件，覆盖原有内容
func (s *Snapshot) Save(records map[types.Product][]types.Record) error {
	// 空产品也写成 [] 而不是 null
	out := make(map[types.Product][]types.Record, len(records))
	for product, recs := range records {
		if recs == nil {
			recs = []types.Record{}
		}
		out[product] = recs
	}

	data, err := json.MarshalIndent(out, "", "    ")
	if err != nil {
		return err
	}

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := file.Write(append(data, '\n')); err != nil {
		file.Close()
		return err
	}
	// 确保数据被刷新到磁盘
	if err := file.Sync(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
