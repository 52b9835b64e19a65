package gatewaytest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/saku-730/species-catalog/internal/gateway"
	"github.com/saku-730/species-catalog/internal/model"
)

// Fake: テスト用のインメモリゲートウェイ
// 呼び出し記録と操作単位のエラー注入ができる。コアのテストはこれに差し替えて行う
type Fake struct {
	mu sync.Mutex

	SpeciesRows []model.Species
	ProfileRows map[string]model.Profile
	CommentRows []model.Comment
	SessionID   string // Session()が返すユーザーID。空なら未ログイン

	// Fail: 操作名("InsertSpecies"など) → 返すエラー
	Fail map[string]error
	// OnCall: 各操作の先頭で呼ばれるフック。遅延や競合の再現用
	OnCall func(op string)
	// Calls: 実行された操作名の記録（エラー注入された呼び出しも含む）
	Calls []string

	nextSpeciesID int
	nextCommentID int
}

var _ gateway.Gateway = (*Fake)(nil)

func New() *Fake {
	return &Fake{
		ProfileRows:   map[string]model.Profile{},
		Fail:          map[string]error{},
		nextSpeciesID: 1,
		nextCommentID: 1,
	}
}

// begin: 記録・フック・エラー注入の共通処理
func (f *Fake) begin(op string) error {
	f.mu.Lock()
	f.Calls = append(f.Calls, op)
	hook := f.OnCall
	err := f.Fail[op]
	f.mu.Unlock()

	if hook != nil {
		hook(op)
	}
	return err
}

// CallCount: 指定した操作が何回呼ばれたか
func (f *Fake) CallCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if c == op {
			n++
		}
	}
	return n
}

// AddSpecies: テストデータ投入用。IDを採番して返す
func (f *Fake) AddSpecies(sp model.Species) model.Species {
	f.mu.Lock()
	defer f.mu.Unlock()
	sp.ID = f.nextSpeciesID
	f.nextSpeciesID++
	f.SpeciesRows = append(f.SpeciesRows, sp)
	return sp
}

// AddComment: テストデータ投入用
func (f *Fake) AddComment(c model.Comment) model.Comment {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = f.nextCommentID
	f.nextCommentID++
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	f.CommentRows = append(f.CommentRows, c)
	return c
}

func (f *Fake) ListSpecies(ctx context.Context) ([]model.Species, error) {
	if err := f.begin("ListSpecies"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Species, len(f.SpeciesRows))
	copy(out, f.SpeciesRows)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *Fake) GetSpecies(ctx context.Context, id int) (*model.Species, error) {
	if err := f.begin("GetSpecies"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sp := range f.SpeciesRows {
		if sp.ID == id {
			found := sp
			return &found, nil
		}
	}
	return nil, gateway.ErrNotFound
}

func (f *Fake) InsertSpecies(ctx context.Context, payload model.SpeciesPayload, author string) (*model.Species, error) {
	if err := f.begin("InsertSpecies"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	sp := model.Species{
		ID:              f.nextSpeciesID,
		ScientificName:  payload.ScientificName,
		CommonName:      payload.CommonName,
		Kingdom:         payload.Kingdom,
		TotalPopulation: payload.TotalPopulation,
		Image:           payload.Image,
		Description:     payload.Description,
		Endangered:      payload.Endangered,
		Author:          &author,
	}
	f.nextSpeciesID++
	f.SpeciesRows = append(f.SpeciesRows, sp)
	created := sp
	return &created, nil
}

func (f *Fake) UpdateSpecies(ctx context.Context, id int, payload model.SpeciesPayload) (*model.Species, error) {
	if err := f.begin("UpdateSpecies"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, sp := range f.SpeciesRows {
		if sp.ID == id {
			// authorはペイロードに無いので据え置き（不変）
			sp.ScientificName = payload.ScientificName
			sp.CommonName = payload.CommonName
			sp.Kingdom = payload.Kingdom
			sp.TotalPopulation = payload.TotalPopulation
			sp.Image = payload.Image
			sp.Description = payload.Description
			sp.Endangered = payload.Endangered
			f.SpeciesRows[i] = sp
			updated := sp
			return &updated, nil
		}
	}
	return nil, gateway.ErrNotFound
}

func (f *Fake) DeleteSpecies(ctx context.Context, id int) error {
	if err := f.begin("DeleteSpecies"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, sp := range f.SpeciesRows {
		if sp.ID == id {
			f.SpeciesRows = append(f.SpeciesRows[:i], f.SpeciesRows[i+1:]...)
			return nil
		}
	}
	return nil // 既に無いなら何もしない
}

func (f *Fake) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	if err := f.begin("GetProfile"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.ProfileRows[id]; ok {
		found := p
		return &found, nil
	}
	return nil, gateway.ErrNotFound
}

func (f *Fake) ListComments(ctx context.Context, speciesID int) ([]model.Comment, error) {
	if err := f.begin("ListComments"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Comment
	for _, c := range f.CommentRows {
		if c.SpeciesID == speciesID {
			c.AuthorName = f.displayName(c.UserID)
			out = append(out, c)
		}
	}
	// 新しい順
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (f *Fake) InsertComment(ctx context.Context, speciesID int, userID, text string) (*model.Comment, error) {
	if err := f.begin("InsertComment"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	c := model.Comment{
		ID:          f.nextCommentID,
		SpeciesID:   speciesID,
		UserID:      userID,
		CommentText: text,
		CreatedAt:   now,
		UpdatedAt:   now,
		AuthorName:  f.displayName(userID),
	}
	f.nextCommentID++
	f.CommentRows = append(f.CommentRows, c)
	created := c
	return &created, nil
}

func (f *Fake) DeleteComment(ctx context.Context, id int) error {
	if err := f.begin("DeleteComment"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, c := range f.CommentRows {
		if c.ID == id {
			f.CommentRows = append(f.CommentRows[:i], f.CommentRows[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *Fake) Session(ctx context.Context) (string, error) {
	if err := f.begin("Session"); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.SessionID, nil
}

// displayName: profilesからの表示名JOIN相当。呼び出し側でロック済みであること
func (f *Fake) displayName(userID string) string {
	if p, ok := f.ProfileRows[userID]; ok {
		return p.DisplayName
	}
	return ""
}
