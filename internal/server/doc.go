// Package server は、メディアセッションの状態と操作をHTTPで公開します。
//
// このパッケージは、HTTPサーバーの起動、ルーティング、
// 状態変化のSSE配信、デモページの配信を担当します。
//
// 責務:
//   - HTTPサーバーの起動と管理
//   - セッション操作（開始・停止・切り替え・画面キャプチャ）のAPI
//   - 状態セル（status, devices, stream）のSSE配信
//   - 埋め込みデモページの配信
//
// 仕様:
//   - ルーティングはgin-gonic/ginを使用
//   - ログはzerologでリクエスト毎に出力
//   - グレースフルシャットダウン時にストリームを解放する
//   - TLS証明書が設定されている場合はHTTPSで起動する
package server
