package dataset

import (
	"context"
	"sort"

	"github.com/goccy/go-json"

	"github.com/rushteam/bookrec/core"
)

// LibrarySource 是应用侧书架记录的读取接口。
// CRUD 协作方（注册、书架、日记等视图层）负责写入；训练抽取与查询期过滤从这里读。
type LibrarySource interface {
	// ListUsers 返回有书架记录的用户 ID 列表
	ListUsers(ctx context.Context) ([]string, error)

	// UserRecords 返回某用户的全部书架记录（任意阅读状态）
	UserRecords(ctx context.Context, userID string) ([]core.LibraryRecord, error)
}

// StoreLibrarySource 是基于 core.KeyValueStore 的书架记录源。
//
// key 约定：
//   - {KeyPrefix}:users            JSON 数组，全部用户 ID
//   - {KeyPrefix}:user:{userID}    Hash，field = ISBN，value = JSON LibraryRecord
//
// 生产环境用 store.RedisStore，测试/开发用 store.MemoryStore。
type StoreLibrarySource struct {
	Store core.KeyValueStore

	// KeyPrefix 是存储 key 的前缀，默认 "library"
	KeyPrefix string
}

// NewStoreLibrarySource 创建一个基于 KeyValueStore 的书架记录源。
func NewStoreLibrarySource(s core.KeyValueStore, keyPrefix string) *StoreLibrarySource {
	if keyPrefix == "" {
		keyPrefix = "library"
	}
	return &StoreLibrarySource{Store: s, KeyPrefix: keyPrefix}
}

var _ LibrarySource = (*StoreLibrarySource)(nil)

func (s *StoreLibrarySource) usersKey() string { return s.KeyPrefix + ":users" }

func (s *StoreLibrarySource) userKey(userID string) string {
	return s.KeyPrefix + ":user:" + userID
}

func (s *StoreLibrarySource) ListUsers(ctx context.Context) ([]string, error) {
	data, err := s.Store.Get(ctx, s.usersKey())
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	var users []string
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// UserRecords 读取用户的全部书架记录，按 ISBN 升序返回以保证确定性
// （Hash 遍历顺序不稳定，而推荐输出必须可复现）。
func (s *StoreLibrarySource) UserRecords(ctx context.Context, userID string) ([]core.LibraryRecord, error) {
	fields, err := s.Store.HGetAll(ctx, s.userKey(userID))
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	out := make([]core.LibraryRecord, 0, len(fields))
	for isbn, data := range fields {
		var rec core.LibraryRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			// 单条坏记录跳过，抽取继续
			continue
		}
		if rec.ISBN == "" {
			rec.ISBN = isbn
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ISBN < out[j].ISBN })
	return out, nil
}

// SaveRecord 写入/更新一条书架记录，并维护用户列表。
// 这是协作方（CRUD 层）的写入口：标记"想读"、开始阅读、打分都会落到这里。
func (s *StoreLibrarySource) SaveRecord(ctx context.Context, userID string, rec core.LibraryRecord) error {
	if rec.ISBN == "" {
		return core.NewDomainError(core.ModuleDataset, core.ErrorCodeInvalidInput, "dataset: record without isbn")
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := s.Store.HSet(ctx, s.userKey(userID), rec.ISBN, data); err != nil {
		return err
	}

	users, err := s.ListUsers(ctx)
	if err != nil {
		return err
	}
	for _, u := range users {
		if u == userID {
			return nil
		}
	}
	users = append(users, userID)
	payload, err := json.Marshal(users)
	if err != nil {
		return err
	}
	return s.Store.Set(ctx, s.usersKey(), payload)
}
