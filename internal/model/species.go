package model

// Kingdom: 生物の界。6つの固定値しか認めない
type Kingdom string

const (
	KingdomAnimalia Kingdom = "Animalia"
	KingdomPlantae  Kingdom = "Plantae"
	KingdomFungi    Kingdom = "Fungi"
	KingdomProtista Kingdom = "Protista"
	KingdomArchaea  Kingdom = "Archaea"
	KingdomBacteria Kingdom = "Bacteria"
)

// Kingdoms: フロントの選択肢表示などに使う一覧
var Kingdoms = []Kingdom{
	KingdomAnimalia,
	KingdomPlantae,
	KingdomFungi,
	KingdomProtista,
	KingdomArchaea,
	KingdomBacteria,
}

// Valid: 6値のどれかならtrue。知らない値をデフォルトに化けさせたりはしない
func (k Kingdom) Valid() bool {
	switch k {
	case KingdomAnimalia, KingdomPlantae, KingdomFungi,
		KingdomProtista, KingdomArchaea, KingdomBacteria:
		return true
	}
	return false
}

// Species: ゲートウェイのspeciesテーブルの形
// null許容のカラムはポインタで表現する（空文字ではなくnullが「値なし」の正準表現）
type Species struct {
	ID              int     `json:"id"`
	ScientificName  string  `json:"scientific_name"`
	CommonName      *string `json:"common_name"`
	Kingdom         Kingdom `json:"kingdom"`
	TotalPopulation *int    `json:"total_population"`
	Image           *string `json:"image"`
	Description     *string `json:"description"`
	Endangered      bool    `json:"endangered"`
	Author          *string `json:"author"` // ProfileのID。作成時に確定して以後不変
}

// SpeciesInput: フロントから送られてくるフォームの生データ
// 数値欄もテキスト入力なので、ここでは全部文字列のまま受ける
type SpeciesInput struct {
	ScientificName  string `json:"scientific_name"`
	CommonName      string `json:"common_name"`
	Kingdom         string `json:"kingdom"`
	TotalPopulation string `json:"total_population"`
	Image           string `json:"image"`
	Description     string `json:"description"`
	Endangered      bool   `json:"endangered"`
}

// SpeciesPayload: ゲートウェイに書き込むときの形
// authorを含まない（作成時だけ別途付与、更新では絶対に送らない）
type SpeciesPayload struct {
	ScientificName  string  `json:"scientific_name"`
	CommonName      *string `json:"common_name"`
	Kingdom         Kingdom `json:"kingdom"`
	TotalPopulation *int    `json:"total_population"`
	Image           *string `json:"image"`
	Description     *string `json:"description"`
	Endangered      bool    `json:"endangered"`
}
