// Package web 内嵌页面模板与静态资源。
package web

import (
	"embed"
	"io/fs"
)

//go:embed template/*.html static
var files embed.FS

// Templates 返回模板目录。
func Templates() fs.FS {
	sub, err := fs.Sub(files, "template")
	if err != nil {
		panic(err)
	}
	return sub
}

// Static 返回静态资源目录。
func Static() fs.FS {
	sub, err := fs.Sub(files, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
