package app

import "context"

// Component 是交給 App 管理的長期元件。
//
// Run 阻塞到元件停止；Shutdown 要求它停止，並應尊重 ctx 的期限。
// Run 在 Shutdown 之後返回 nil 視為正常結束。
type Component interface {
	Run() error
	Shutdown(ctx context.Context) error
}

// Funcs 讓兩個函數直接成為 Component；ShutdownFn 可為 nil。
type Funcs struct {
	RunFn      func() error
	ShutdownFn func(ctx context.Context) error
}

func (f Funcs) Run() error {
	if f.RunFn == nil {
		return nil
	}
	return f.RunFn()
}

func (f Funcs) Shutdown(ctx context.Context) error {
	if f.ShutdownFn == nil {
		return nil
	}
	return f.ShutdownFn(ctx)
}
