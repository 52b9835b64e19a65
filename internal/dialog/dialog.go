package dialog

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"github.com/saku-730/species-catalog/internal/gateway"
	"github.com/saku-730/species-catalog/internal/model"
)

// State: ダイアログのライフサイクル
// Closed → Opening → Open → Closed の一方向にしか進まない
type State int

const (
	StateClosed State = iota
	StateOpening
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateOpening:
		return "opening"
	case StateOpen:
		return "open"
	default:
		return "closed"
	}
}

var (
	// ErrNotOpen: 開いていないダイアログへの操作
	ErrNotOpen = errors.New("dialog is not open")
	// ErrNotCommentOwner: 自分のコメントしか消せない（クライアント側の目安。本当の強制はゲートウェイのポリシー）
	ErrNotCommentOwner = errors.New("comment belongs to another user")
)

// Controller: 種1件の詳細ダイアログ
// 開くたびに投稿者プロフィール・コメント一覧・閲覧者セッションを取り直し、
// 閉じたら全部捨てる。閉じている間は何も持たない
type Controller struct {
	gw      gateway.Gateway
	species model.Species

	mu       sync.Mutex
	state    State
	epoch    int // Openのたびに進める。遅れて届いたfetch結果の捨て判定に使う
	cancel   context.CancelFunc
	viewerID string
	author   *model.Profile
	comments []model.Comment
}

func New(gw gateway.Gateway, species model.Species) *Controller {
	return &Controller{gw: gw, species: species}
}

// Open: Closed → Opening → Open
// 3つの取得（閲覧者セッション・投稿者プロフィール・コメント一覧）を同時に投げる。
// 互いに順序はなく、どれかが失敗しても他を巻き込まない（部分表示が正しい挙動）
func (c *Controller) Open(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateClosed {
		c.mu.Unlock()
		return errors.New("dialog is already open")
	}
	c.state = StateOpening
	c.epoch++
	epoch := c.epoch

	fetchCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	var wg sync.WaitGroup

	// (a) 閲覧者のセッション（コメント投稿・削除ボタンの出し分けに使う）
	wg.Add(1)
	go func() {
		defer wg.Done()
		viewerID, err := c.gw.Session(fetchCtx)
		if err != nil {
			log.Printf("⚠️ セッション取得に失敗 (species=%d): %v", c.species.ID, err)
			return
		}
		c.deliver(epoch, func() { c.viewerID = viewerID })
	}()

	// (b) 投稿者プロフィール（authorが立っている場合だけ）
	if c.species.Author != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			profile, err := c.gw.GetProfile(fetchCtx, *c.species.Author)
			if err != nil {
				// 表示用データなので失敗はログだけ。他の表示はそのまま進む
				log.Printf("⚠️ 投稿者プロフィール取得に失敗 (species=%d): %v", c.species.ID, err)
				return
			}
			c.deliver(epoch, func() { c.author = profile })
		}()
	}

	// (c) コメント一覧（新しい順・投稿者名JOIN済み）
	wg.Add(1)
	go func() {
		defer wg.Done()
		comments, err := c.gw.ListComments(fetchCtx, c.species.ID)
		if err != nil {
			log.Printf("⚠️ コメント一覧取得に失敗 (species=%d): %v", c.species.ID, err)
			return
		}
		c.deliver(epoch, func() { c.comments = comments })
	}()

	wg.Wait()

	// 取得が終わった時点で表示がマウントされる。以降の自動リトライはしない
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateOpening && c.epoch == epoch {
		c.state = StateOpen
	}
	return nil
}

// deliver: 同じ世代のOpen中だけ状態を書き込む
// 閉じた後や開き直し後に遅れて届いた結果はここで捨てる
func (c *Controller) deliver(epoch int, apply func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed || c.epoch != epoch {
		return
	}
	apply()
}

// Close: Open → Closed。手元のコメント・投稿者情報は全部捨てる
// 次に開くときは空の状態から取り直す（待機中のメモリより整合の単純さを取る）
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return
	}
	c.state = StateClosed
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.viewerID = ""
	c.author = nil
	c.comments = nil
}

// AddComment: コメントを1件投稿して、ゲートウェイが返した行を手元の先頭に足す
// 一覧の再取得はしない（返ってきた行を正とするローカル追記）
// 空文字しかない・未ログインなら何もしない
func (c *Controller) AddComment(ctx context.Context, text string) (*model.Comment, error) {
	trimmed := strings.TrimSpace(text)

	c.mu.Lock()
	if c.state != StateOpen {
		c.mu.Unlock()
		return nil, ErrNotOpen
	}
	viewerID := c.viewerID
	epoch := c.epoch
	c.mu.Unlock()

	if trimmed == "" || viewerID == "" {
		return nil, nil // no-op
	}

	created, err := c.gw.InsertComment(ctx, c.species.ID, viewerID, trimmed)
	if err != nil {
		return nil, err
	}

	c.deliver(epoch, func() {
		c.comments = append([]model.Comment{*created}, c.comments...)
	})
	return created, nil
}

// DeleteComment: 自分のコメントを1件消して、成功したら手元の一覧からIDで取り除く
// 失敗したら一覧はそのまま（リトライもしない）
func (c *Controller) DeleteComment(ctx context.Context, commentID int) error {
	c.mu.Lock()
	if c.state != StateOpen {
		c.mu.Unlock()
		return ErrNotOpen
	}
	viewerID := c.viewerID
	epoch := c.epoch
	var target *model.Comment
	for i := range c.comments {
		if c.comments[i].ID == commentID {
			target = &c.comments[i]
			break
		}
	}
	c.mu.Unlock()

	if target == nil {
		return nil
	}
	if target.UserID != viewerID {
		return ErrNotCommentOwner
	}

	if err := c.gw.DeleteComment(ctx, commentID); err != nil {
		return err
	}

	c.deliver(epoch, func() {
		for i := range c.comments {
			if c.comments[i].ID == commentID {
				c.comments = append(c.comments[:i], c.comments[i+1:]...)
				return
			}
		}
	})
	return nil
}

// ---------------------------------------------------
// 読み取りアクセサ
// ---------------------------------------------------

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Species() model.Species {
	return c.species
}

func (c *Controller) ViewerID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewerID
}

// Author: 投稿者プロフィール。取れていなければ ok=false
// (authorが未設定・取得失敗のどちらでも「投稿者情報なし」表示になる)
func (c *Controller) Author() (*model.Profile, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.author == nil {
		return nil, false
	}
	found := *c.author
	return &found, true
}

// Comments: 手元のコメント一覧のコピー（新しい順）
func (c *Controller) Comments() []model.Comment {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Comment, len(c.comments))
	copy(out, c.comments)
	return out
}
