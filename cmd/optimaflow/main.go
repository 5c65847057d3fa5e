// Command optimaflow は営業CRMのAPIサーバーと運用サブコマンドを提供する。
//
// 使い方:
//
//	optimaflow [serve]                        APIサーバーを起動する
//	optimaflow migrate                        スキーマを最新にする
//	optimaflow healthcheck                    /health を確認する（Dockerヘルスチェック用）
//	optimaflow import-leads <file.json> [id]  リードを商談として取り込む
package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/optimaflow/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "optimaflow: %v\n", err)
		os.Exit(1)
	}
}
