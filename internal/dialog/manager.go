package dialog

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/saku-730/species-catalog/internal/gateway"
	"github.com/saku-730/species-catalog/internal/model"
)

// Manager: 開いているダイアログの置き場
// HTTP越しに「ダイアログを開く→操作する→閉じる」をやるために、不透明なIDで引けるようにする
type Manager struct {
	gw gateway.Gateway

	mu      sync.Mutex
	dialogs map[string]*Controller
}

func NewManager(gw gateway.Gateway) *Manager {
	return &Manager{gw: gw, dialogs: map[string]*Controller{}}
}

// Open: 種の詳細ダイアログを新しく開く。IDと開き終わったコントローラを返す
func (m *Manager) Open(ctx context.Context, species model.Species) (string, *Controller, error) {
	ctrl := New(m.gw, species)
	if err := ctrl.Open(ctx); err != nil {
		return "", nil, err
	}

	id := uuid.New().String()
	m.mu.Lock()
	m.dialogs[id] = ctrl
	m.mu.Unlock()
	return id, ctrl, nil
}

// Get: IDで開いているダイアログを引く
func (m *Manager) Get(id string) (*Controller, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ctrl, ok := m.dialogs[id]
	return ctrl, ok
}

// Close: ダイアログを閉じて忘れる。知らないIDなら何もしない
func (m *Manager) Close(id string) {
	m.mu.Lock()
	ctrl, ok := m.dialogs[id]
	delete(m.dialogs, id)
	m.mu.Unlock()

	if ok {
		ctrl.Close()
	}
}
