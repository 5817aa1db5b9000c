package server

import (
	"embed"
	"fmt"
)

//go:embed all:dist
var embedFS embed.FS

// getIndexHTML returns the index.html content as bytes
func getIndexHTML() ([]byte, error) {
	data, err := embedFS.ReadFile("dist/index.html")
	if err != nil {
		return nil, fmt.Errorf("埋め込みindex.htmlの読み込みに失敗: %w", err)
	}
	return data, nil
}
