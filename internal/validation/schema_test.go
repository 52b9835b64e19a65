package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(n int) *int { return &n }

func validDraft() Draft {
	return Draft{
		ScientificName: "Panthera tigris",
		CommonName:     "トラ",
		Kingdom:        "Animalia",
		Image:          "https://example.com/tiger.jpg",
		Description:    "大型のネコ科動物",
	}
}

func TestValidate_OK(t *testing.T) {
	d := validDraft()
	d.TotalPopulation = intp(4500)

	payload, violations := Validate(d)
	require.True(t, violations.OK())

	assert.Equal(t, "Panthera tigris", payload.ScientificName)
	require.NotNil(t, payload.CommonName)
	assert.Equal(t, "トラ", *payload.CommonName)
	require.NotNil(t, payload.TotalPopulation)
	assert.Equal(t, 4500, *payload.TotalPopulation)
	assert.False(t, payload.Endangered) // 未指定ならfalseのまま
}

func TestValidate_ScientificNameRequired(t *testing.T) {
	for _, name := range []string{"", "   ", "\t"} {
		d := validDraft()
		d.ScientificName = name

		_, violations := Validate(d)
		assert.Contains(t, violations, "scientific_name")
	}
}

func TestValidate_TrimsScientificName(t *testing.T) {
	d := validDraft()
	d.ScientificName = "  Panthera tigris  "

	payload, violations := Validate(d)
	require.True(t, violations.OK())
	assert.Equal(t, "Panthera tigris", payload.ScientificName)
}

func TestValidate_EmptyOptionalBecomesNull(t *testing.T) {
	d := validDraft()
	d.CommonName = "   "
	d.Image = ""
	d.Description = ""

	payload, violations := Validate(d)
	require.True(t, violations.OK())

	// 空文字ではなくnullが「値なし」の正準表現
	assert.Nil(t, payload.CommonName)
	assert.Nil(t, payload.Image)
	assert.Nil(t, payload.Description)
}

func TestValidate_ImageMustBeURL(t *testing.T) {
	d := validDraft()
	d.Image = "not a url"

	_, violations := Validate(d)
	assert.Contains(t, violations, "image")
}

func TestValidate_KingdomEnum(t *testing.T) {
	for _, kingdom := range []string{"Animalia", "Plantae", "Fungi", "Protista", "Archaea", "Bacteria"} {
		d := validDraft()
		d.Kingdom = kingdom
		_, violations := Validate(d)
		assert.Truef(t, violations.OK(), "kingdom %s should pass", kingdom)
	}

	// 知らない値は黙ってデフォルトにせず違反
	for _, kingdom := range []string{"", "animalia", "Mineralia", "Virus"} {
		d := validDraft()
		d.Kingdom = kingdom
		_, violations := Validate(d)
		assert.Containsf(t, violations, "kingdom", "kingdom %q should fail", kingdom)
	}
}

func TestValidate_PopulationMustBePositive(t *testing.T) {
	for _, n := range []int{0, -1, -500} {
		d := validDraft()
		d.TotalPopulation = intp(n)
		_, violations := Validate(d)
		assert.Contains(t, violations, "total_population")
	}

	// nilは「値なし」でOK
	d := validDraft()
	d.TotalPopulation = nil
	payload, violations := Validate(d)
	require.True(t, violations.OK())
	assert.Nil(t, payload.TotalPopulation)
}

func TestValidate_Pure(t *testing.T) {
	// 同じ入力 → 同じ結果（2回呼んでも変わらない）
	d := validDraft()
	p1, v1 := Validate(d)
	p2, v2 := Validate(d)
	assert.Equal(t, p1, p2)
	assert.Equal(t, v1, v2)
}
