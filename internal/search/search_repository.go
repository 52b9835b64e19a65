package search

import (
	"encoding/json"
	"fmt"

	"github.com/meilisearch/meilisearch-go"

	"github.com/saku-730/species-catalog/internal/model"
)

// SpeciesDocument: Meilisearchに入れる検索用ドキュメント
// 正本はあくまでゲートウェイ側。これは検索のための派生インデックス
type SpeciesDocument struct {
	ID             int    `json:"id"`
	ScientificName string `json:"scientific_name"`
	CommonName     string `json:"common_name"`
	Kingdom        string `json:"kingdom"`
	Description    string `json:"description"`
	Endangered     bool   `json:"endangered"`
}

type Repository interface {
	IndexSpecies(list []model.Species) error
	DeleteSpecies(id int) error
	Search(query string, kingdom string) ([]SpeciesDocument, error)
}

type searchRepository struct {
	client    meilisearch.ServiceManager
	indexName string
}

func NewRepository(url, key string) Repository {
	client := meilisearch.New(url, meilisearch.WithAPIKey(key))
	indexName := "species"

	// 界と絶滅危惧フラグで絞り込めるようにしておく
	filterAttributes := []string{"kingdom", "endangered"}
	convertedAttributes := make([]interface{}, len(filterAttributes))
	for i, v := range filterAttributes {
		convertedAttributes[i] = v
	}

	client.Index(indexName).UpdateFilterableAttributes(&convertedAttributes)

	// Primary Keyの設定も忘れずに
	client.Index(indexName).UpdateIndex(&meilisearch.UpdateIndexRequestParams{
		PrimaryKey: "id",
	})

	return &searchRepository{
		client:    client,
		indexName: indexName,
	}
}

// IndexSpecies: スナップショットをまとめて投入する
// (インデックスの更新は書き込み経路とは切り離して、cmd/indexerからバッチで行う)
func (r *searchRepository) IndexSpecies(list []model.Species) error {
	docs := make([]SpeciesDocument, 0, len(list))
	for _, sp := range list {
		docs = append(docs, SpeciesDocument{
			ID:             sp.ID,
			ScientificName: sp.ScientificName,
			CommonName:     derefOr(sp.CommonName, ""),
			Kingdom:        string(sp.Kingdom),
			Description:    derefOr(sp.Description, ""),
			Endangered:     sp.Endangered,
		})
	}

	_, err := r.client.Index(r.indexName).AddDocuments(docs, nil)
	if err != nil {
		return fmt.Errorf("meilisearch indexing failed: %w", err)
	}
	return nil
}

func (r *searchRepository) DeleteSpecies(id int) error {
	_, err := r.client.Index(r.indexName).DeleteDocument(fmt.Sprintf("%d", id))
	return err
}

func (r *searchRepository) Search(query string, kingdom string) ([]SpeciesDocument, error) {
	req := &meilisearch.SearchRequest{
		Limit: 50,
	}
	if kingdom != "" {
		req.Filter = fmt.Sprintf("kingdom = '%s'", kingdom)
	}

	searchRes, err := r.client.Index(r.indexName).Search(query, req)
	if err != nil {
		return nil, err
	}

	var docs []SpeciesDocument
	for _, hit := range searchRes.Hits {
		data, err := json.Marshal(hit)
		if err != nil {
			continue
		}

		var doc SpeciesDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			continue
		}

		docs = append(docs, doc)
	}

	return docs, nil
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
