package handler

// responseNotifier: フロントに返すレスポンスへ通知メッセージを積む
// (ブラウザ側はこれをトーストとして表示するだけ)
type responseNotifier struct {
	Notices []string `json:"notices"`
	Errors  []string `json:"errors"`
}

func newResponseNotifier() *responseNotifier {
	return &responseNotifier{Notices: []string{}, Errors: []string{}}
}

func (n *responseNotifier) Success(message string) {
	n.Notices = append(n.Notices, message)
}

func (n *responseNotifier) Error(message string) {
	n.Errors = append(n.Errors, message)
}

// clientConfirmed: 削除確認はブラウザ側のダイアログで済んでいる
// (リクエストが届いた時点で確認済みとみなす)
type clientConfirmed struct{}

func (clientConfirmed) Confirm(message string) bool { return true }
