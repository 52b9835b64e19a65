package dialog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saku-730/species-catalog/internal/gateway"
	"github.com/saku-730/species-catalog/internal/gateway/gatewaytest"
	"github.com/saku-730/species-catalog/internal/model"
)

func setupFake() (*gatewaytest.Fake, model.Species) {
	fake := gatewaytest.New()
	fake.ProfileRows["user-1"] = model.Profile{ID: "user-1", DisplayName: "Saku", Email: "saku@example.com"}
	fake.ProfileRows["user-2"] = model.Profile{ID: "user-2", DisplayName: "Midori", Email: "midori@example.com"}

	author := "user-1"
	sp := fake.AddSpecies(model.Species{
		ScientificName: "Panthera tigris",
		Kingdom:        model.KingdomAnimalia,
		Author:         &author,
	})
	return fake, sp
}

func TestOpen_LoadsAuthorAndComments(t *testing.T) {
	fake, sp := setupFake()
	fake.SessionID = "user-2"
	fake.AddComment(model.Comment{SpeciesID: sp.ID, UserID: "user-1", CommentText: "最初", CreatedAt: time.Now().Add(-time.Hour)})
	fake.AddComment(model.Comment{SpeciesID: sp.ID, UserID: "user-2", CommentText: "あとから", CreatedAt: time.Now()})

	ctrl := New(fake, sp)
	require.NoError(t, ctrl.Open(context.Background()))
	assert.Equal(t, StateOpen, ctrl.State())

	author, ok := ctrl.Author()
	require.True(t, ok)
	assert.Equal(t, "Saku", author.DisplayName)

	assert.Equal(t, "user-2", ctrl.ViewerID())

	// 新しい順
	comments := ctrl.Comments()
	require.Len(t, comments, 2)
	assert.Equal(t, "あとから", comments[0].CommentText)
	assert.Equal(t, "最初", comments[1].CommentText)
	// 表示名はJOINで解決済み
	assert.Equal(t, "Midori", comments[0].AuthorName)
}

func TestOpen_NoAuthor_CommentsStillLoad(t *testing.T) {
	fake := gatewaytest.New()
	sp := fake.AddSpecies(model.Species{
		ScientificName: "Incertae sedis",
		Kingdom:        model.KingdomProtista,
		Author:         nil, // 投稿者不明
	})
	fake.AddComment(model.Comment{SpeciesID: sp.ID, UserID: "user-1", CommentText: "誰の登録だろう"})

	ctrl := New(fake, sp)
	require.NoError(t, ctrl.Open(context.Background()))

	// 「投稿者情報なし」表示になるだけで、コメントは独立して読み込まれる
	_, ok := ctrl.Author()
	assert.False(t, ok)
	assert.Len(t, ctrl.Comments(), 1)
	assert.Equal(t, 0, fake.CallCount("GetProfile"))
}

func TestOpen_AuthorFetchFailure_DoesNotBlockOthers(t *testing.T) {
	fake, sp := setupFake()
	fake.AddComment(model.Comment{SpeciesID: sp.ID, UserID: "user-2", CommentText: "見える"})
	fake.Fail["GetProfile"] = &gateway.Error{Status: 500, Message: "boom"}

	ctrl := New(fake, sp)
	require.NoError(t, ctrl.Open(context.Background()))

	// 失敗はログに出るだけ。他の表示は生きている
	_, ok := ctrl.Author()
	assert.False(t, ok)
	assert.Len(t, ctrl.Comments(), 1)
	assert.Equal(t, StateOpen, ctrl.State())
}

func TestAddComment_PrependsGatewayRow(t *testing.T) {
	fake, sp := setupFake()
	fake.SessionID = "user-2"
	fake.AddComment(model.Comment{SpeciesID: sp.ID, UserID: "user-1", CommentText: "先客", CreatedAt: time.Now().Add(-time.Minute)})

	ctrl := New(fake, sp)
	require.NoError(t, ctrl.Open(context.Background()))
	listCalls := fake.CallCount("ListComments")

	created, err := ctrl.AddComment(context.Background(), "すごい発見ですね！")
	require.NoError(t, err)
	require.NotNil(t, created)

	// ゲートウェイが返した行がそのまま先頭に入る。一覧の再取得はしない
	comments := ctrl.Comments()
	require.Len(t, comments, 2)
	assert.Equal(t, "すごい発見ですね！", comments[0].CommentText)
	assert.Equal(t, "Midori", comments[0].AuthorName)
	assert.Equal(t, listCalls, fake.CallCount("ListComments"))
}

func TestAddComment_EmptyOrAnonymous_NoOp(t *testing.T) {
	fake, sp := setupFake()
	fake.SessionID = "user-2"

	ctrl := New(fake, sp)
	require.NoError(t, ctrl.Open(context.Background()))

	created, err := ctrl.AddComment(context.Background(), "   ")
	require.NoError(t, err)
	assert.Nil(t, created)
	assert.Equal(t, 0, fake.CallCount("InsertComment"))

	// 未ログインでも同じくno-op
	fake2, sp2 := setupFake()
	ctrl2 := New(fake2, sp2)
	require.NoError(t, ctrl2.Open(context.Background()))

	created, err = ctrl2.AddComment(context.Background(), "匿名だけど書きたい")
	require.NoError(t, err)
	assert.Nil(t, created)
	assert.Equal(t, 0, fake2.CallCount("InsertComment"))
}

func TestDeleteComment_OwnerOnly(t *testing.T) {
	fake, sp := setupFake()
	fake.SessionID = "user-2"
	c := fake.AddComment(model.Comment{SpeciesID: sp.ID, UserID: "user-1", CommentText: "消さないで"})

	ctrl := New(fake, sp)
	require.NoError(t, ctrl.Open(context.Background()))

	// 他人のコメントは消せない（ゲートウェイにも行かない）
	err := ctrl.DeleteComment(context.Background(), c.ID)
	assert.ErrorIs(t, err, ErrNotCommentOwner)
	assert.Equal(t, 0, fake.CallCount("DeleteComment"))
	assert.Len(t, ctrl.Comments(), 1)
}

func TestDeleteComment_RemovesByID(t *testing.T) {
	fake, sp := setupFake()
	fake.SessionID = "user-2"
	keep := fake.AddComment(model.Comment{SpeciesID: sp.ID, UserID: "user-1", CommentText: "残る", CreatedAt: time.Now().Add(-time.Minute)})
	mine := fake.AddComment(model.Comment{SpeciesID: sp.ID, UserID: "user-2", CommentText: "消す"})

	ctrl := New(fake, sp)
	require.NoError(t, ctrl.Open(context.Background()))

	require.NoError(t, ctrl.DeleteComment(context.Background(), mine.ID))

	comments := ctrl.Comments()
	require.Len(t, comments, 1)
	assert.Equal(t, keep.ID, comments[0].ID)
}

func TestDeleteComment_GatewayFailure_ListUnchanged(t *testing.T) {
	fake, sp := setupFake()
	fake.SessionID = "user-2"
	fake.AddComment(model.Comment{SpeciesID: sp.ID, UserID: "user-2", CommentText: "消えない"})
	fake.Fail["DeleteComment"] = &gateway.Error{Status: 500, Message: "boom"}

	ctrl := New(fake, sp)
	require.NoError(t, ctrl.Open(context.Background()))
	mine := ctrl.Comments()[0]

	err := ctrl.DeleteComment(context.Background(), mine.ID)
	require.Error(t, err)
	// 失敗したら一覧はそのまま
	assert.Len(t, ctrl.Comments(), 1)
}

func TestClose_DiscardsStateAndReopenRefetches(t *testing.T) {
	fake, sp := setupFake()
	fake.SessionID = "user-2"
	fake.AddComment(model.Comment{SpeciesID: sp.ID, UserID: "user-1", CommentText: "一度目"})

	ctrl := New(fake, sp)
	require.NoError(t, ctrl.Open(context.Background()))
	require.Len(t, ctrl.Comments(), 1)

	ctrl.Close()
	assert.Equal(t, StateClosed, ctrl.State())
	assert.Empty(t, ctrl.Comments())
	assert.Equal(t, "", ctrl.ViewerID())

	// 閉じた後の操作は弾かれる
	_, err := ctrl.AddComment(context.Background(), "もう閉じてる")
	assert.ErrorIs(t, err, ErrNotOpen)

	// 開き直すと空の状態から全部取り直す
	require.NoError(t, ctrl.Open(context.Background()))
	assert.Equal(t, 2, fake.CallCount("ListComments"))
	assert.Len(t, ctrl.Comments(), 1)
}

func TestOpen_LateFetchAfterClose_IsDiscarded(t *testing.T) {
	fake, sp := setupFake()
	fake.SessionID = "user-2"
	fake.AddComment(model.Comment{SpeciesID: sp.ID, UserID: "user-1", CommentText: "遅れて届く"})

	// コメント取得をダイアログが閉じるまで止めておく
	release := make(chan struct{})
	closed := make(chan struct{})
	fake.OnCall = func(op string) {
		if op == "ListComments" {
			<-release
		}
	}

	ctrl := New(fake, sp)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = ctrl.Open(context.Background())
	}()

	// Open中に閉じてから、止めていた取得を解放する
	go func() {
		time.Sleep(20 * time.Millisecond)
		ctrl.Close()
		close(closed)
		close(release)
	}()

	<-closed
	<-done

	// 遅れて解決した取得結果は閉じたダイアログに書き込まれない
	assert.Equal(t, StateClosed, ctrl.State())
	assert.Empty(t, ctrl.Comments())
}

func TestManager_OpenGetClose(t *testing.T) {
	fake, sp := setupFake()
	m := NewManager(fake)

	id, ctrl, err := m.Open(context.Background(), sp)
	require.NoError(t, err)
	require.NotEmpty(t, id)
	assert.Equal(t, StateOpen, ctrl.State())

	got, ok := m.Get(id)
	require.True(t, ok)
	assert.Same(t, ctrl, got)

	m.Close(id)
	_, ok = m.Get(id)
	assert.False(t, ok)
	assert.Equal(t, StateClosed, ctrl.State())
}
