// Package netsvr 抽象 HTTP server：路由註冊（NetRouter）與啟停（app.Component）分開。
package netsvr

import (
	"net/http"

	"github.com/zintix-labs/nslab/server/app"
)

// NetSvr 是組裝層持有的 server：註冊路由之後交給 app.App 啟停。
type NetSvr interface {
	NetRouter
	app.Component
	Address() string
}

// NetRouter 只有路由行為，子模組拿不到啟停控制權。
type NetRouter interface {
	Use(middleware func(http.Handler) http.Handler)

	Get(path string, h http.HandlerFunc)
	Post(path string, h http.HandlerFunc)
	Put(path string, h http.HandlerFunc)
	Delete(path string, h http.HandlerFunc)
	Methods(path string, h http.HandlerFunc, methods ...string)

	Group(path string, fn func(NetRouter))
}
