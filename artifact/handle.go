package artifact

import "sync/atomic"

// Handle 是可热更新的 bundle 句柄。
//
// 取代"进程启动时全局加载一次"的隐式状态：查询函数接收显式句柄，
// 重训完成后调用 Reload 换引用（不原地修改），并发读取无需加锁。
type Handle struct {
	dir string
	cur atomic.Pointer[Bundle]
}

// Open 加载 dir 下 CURRENT 指向的版本并返回句柄。
func Open(dir string) (*Handle, error) {
	b, err := Load(dir)
	if err != nil {
		return nil, err
	}
	h := &Handle{dir: dir}
	h.cur.Store(b)
	return h, nil
}

// NewHandle 用已在内存中的 bundle 构造句柄（自管加载或测试场景）。
// 这种句柄没有关联目录，Reload 不可用。
func NewHandle(b *Bundle) *Handle {
	h := &Handle{}
	h.cur.Store(b)
	return h
}

// Bundle 返回当前生效的 bundle。调用方持有的引用在 Reload 后依然有效，
// 保证单次请求内读到的是一致的版本。
func (h *Handle) Bundle() *Bundle {
	return h.cur.Load()
}

// Version 返回当前生效的版本名。
func (h *Handle) Version() string {
	if b := h.cur.Load(); b != nil {
		return b.Version
	}
	return ""
}

// Reload 重新读取 CURRENT 并原子换引用。加载失败时保留旧版本并返回错误。
func (h *Handle) Reload() error {
	b, err := Load(h.dir)
	if err != nil {
		return err
	}
	h.cur.Store(b)
	return nil
}
