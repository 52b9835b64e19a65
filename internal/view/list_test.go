package view

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saku-730/species-catalog/internal/gateway"
	"github.com/saku-730/species-catalog/internal/gateway/gatewaytest"
	"github.com/saku-730/species-catalog/internal/model"
)

type recordingNotifier struct {
	successes []string
	errors    []string
}

func (n *recordingNotifier) Success(m string) { n.successes = append(n.successes, m) }
func (n *recordingNotifier) Error(m string)   { n.errors = append(n.errors, m) }

// fixedConfirmer: 常に同じ答えを返す確認ダイアログ
type fixedConfirmer bool

func (f fixedConfirmer) Confirm(message string) bool { return bool(f) }

func seed(fake *gatewaytest.Fake) (mine, theirs model.Species) {
	me := "user-1"
	other := "user-2"
	mine = fake.AddSpecies(model.Species{ScientificName: "Panthera tigris", Kingdom: model.KingdomAnimalia, Author: &me})
	theirs = fake.AddSpecies(model.Species{ScientificName: "Quercus crispula", Kingdom: model.KingdomPlantae, Author: &other})
	return mine, theirs
}

func TestLoad_OwnershipGate(t *testing.T) {
	fake := gatewaytest.New()
	seed(fake)

	lv := NewListView(fake, &recordingNotifier{})

	cards, err := lv.Load(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, cards, 2)

	// 所有判定は (author == セッションID) を導くだけ
	assert.True(t, cards[0].CanModify)
	assert.False(t, cards[1].CanModify)
}

func TestLoad_AnonymousSeesNoControls(t *testing.T) {
	fake := gatewaytest.New()
	seed(fake)

	lv := NewListView(fake, &recordingNotifier{})

	cards, err := lv.Load(context.Background(), "")
	require.NoError(t, err)
	for _, card := range cards {
		assert.False(t, card.CanModify)
	}
}

func TestDeleteSpecies_ConfirmDeclined_NoGatewayCall(t *testing.T) {
	fake := gatewaytest.New()
	mine, _ := seed(fake)
	notifier := &recordingNotifier{}

	lv := NewListView(fake, notifier)
	reload := false
	lv.OnReload = func() { reload = true }

	// キャンセルしたら何も起きない。カードも残る
	err := lv.DeleteSpecies(context.Background(), mine, "user-1", fixedConfirmer(false))
	require.NoError(t, err)
	assert.Equal(t, 0, fake.CallCount("DeleteSpecies"))
	assert.False(t, reload)
	assert.Len(t, fake.SpeciesRows, 2)
}

func TestDeleteSpecies_Success_NotifyThenReload(t *testing.T) {
	fake := gatewaytest.New()
	mine, _ := seed(fake)
	notifier := &recordingNotifier{}

	lv := NewListView(fake, notifier)
	reload := false
	lv.OnReload = func() { reload = true }

	err := lv.DeleteSpecies(context.Background(), mine, "user-1", fixedConfirmer(true))
	require.NoError(t, err)

	assert.Equal(t, 1, fake.CallCount("DeleteSpecies"))
	assert.NotEmpty(t, notifier.successes)
	assert.True(t, reload)
	assert.Len(t, fake.SpeciesRows, 1)
}

func TestDeleteSpecies_Failure_StillReloads(t *testing.T) {
	fake := gatewaytest.New()
	mine, _ := seed(fake)
	fake.Fail["DeleteSpecies"] = &gateway.Error{Status: 500, Message: "boom"}
	notifier := &recordingNotifier{}

	lv := NewListView(fake, notifier)
	reload := false
	lv.OnReload = func() { reload = true }

	err := lv.DeleteSpecies(context.Background(), mine, "user-1", fixedConfirmer(true))
	require.Error(t, err)

	// 失敗でもエラー通知のあとに全体リロードを頼む
	assert.NotEmpty(t, notifier.errors)
	assert.True(t, reload)
}

func TestDeleteSpecies_NotOwner(t *testing.T) {
	fake := gatewaytest.New()
	_, theirs := seed(fake)

	lv := NewListView(fake, &recordingNotifier{})

	err := lv.DeleteSpecies(context.Background(), theirs, "user-1", fixedConfirmer(true))
	assert.ErrorIs(t, err, ErrNotOwner)
	assert.Equal(t, 0, fake.CallCount("DeleteSpecies"))
}
