// Command norskgolf はゴルフコース制覇記録サービスを起動する。
//
// サブコマンド:
//
//	serve        APIサーバーを起動する（デフォルト）
//	migrate      データベースマイグレーションを適用する
//	import       コースカタログが空の場合に取り込みを実行する
//	healthcheck  /health を呼び出し、結果を終了コードで返す
package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/norskgolf/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "norskgolf: %v\n", err)
		os.Exit(1)
	}
}
