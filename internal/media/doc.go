// Package media ローカルのメディアストリーム取得と解放を担う
//
// # 責務
// - カメラデバイスの列挙と公開
// - カメラ映像ストリームの取得・切り替え・停止
// - 画面キャプチャストリームの取得
// - 接続状態・デバイス一覧・アクティブストリームのリアクティブな状態管理
//
// # 使い分け
// このパッケージは以下の場合に使用する：
// - UIに現在のカメラ一覧と接続状態を公開したい
// - 1本のアクティブストリームを排他的に保持し、確実に解放したい
//
// # 仕様
//   - Session: 3つの状態セル（Devices, Status, Stream）と5つの操作
//   - Host: デバイス列挙・ユーザーメディア取得・画面メディア取得の抽象
//   - PionHost: github.com/pion/mediadevices を使った本番用Host
//   - MockHost: テスト用Host
//   - 要求解像度は 1024x1024、デバイス未指定時は facingMode "user"
//   - カメラ取得にはセキュアコンテキスト（TLS または localhost）が必要
//   - フレーム処理・ネットワーク転送は行わない
//
// # 前提要件
//   - ドライバー登録: エントリポイントで以下をblank importする
//     github.com/pion/mediadevices/pkg/driver/camera
//     github.com/pion/mediadevices/pkg/driver/screen
//   - videoグループへの参加: デバイスアクセス権限
//     sudo usermod -a -G video $USER
package media
