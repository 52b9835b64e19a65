package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// seed: 起動中のdevgatewayにサンプルデータを流し込むツール
// (ユーザー2人 → 種 → コメントの順。デモと手元での動作確認用)

const GatewayURL = "http://localhost:9000"

var client = &http.Client{Timeout: 10 * time.Second}

type seedUser struct {
	DisplayName string
	Email       string
	Password    string
	token       string
}

type seedSpecies struct {
	ScientificName string
	CommonName     string
	Kingdom        string
	Population     *int
	Description    string
	Endangered     bool
	owner          int // usersのインデックス
	id             int
}

func intp(n int) *int { return &n }

var users = []seedUser{
	{DisplayName: "Saku", Email: "saku@example.com", Password: "password123"},
	{DisplayName: "Midori", Email: "midori@example.com", Password: "password123"},
}

var speciesList = []seedSpecies{
	{ScientificName: "Panthera tigris", CommonName: "トラ", Kingdom: "Animalia", Population: intp(4500), Description: "アジアに分布する大型のネコ科動物", Endangered: true, owner: 0},
	{ScientificName: "Quercus crispula", CommonName: "ミズナラ", Kingdom: "Plantae", Description: "冷温帯の落葉広葉樹", owner: 1},
	{ScientificName: "Amanita muscaria", CommonName: "ベニテングタケ", Kingdom: "Fungi", Description: "毒キノコだが見た目は有名", owner: 0},
}

func main() {
	fmt.Println("🌱 サンプルデータの投入を開始")

	// 1. ユーザー登録（既にいたらログインで済ませる）
	for i := range users {
		if err := registerOrLogin(&users[i]); err != nil {
			log.Fatalf("❌ ユーザー %s の準備に失敗: %v", users[i].Email, err)
		}
	}

	// 2. 種の登録
	for i := range speciesList {
		if err := createSpecies(&speciesList[i]); err != nil {
			log.Fatalf("❌ 種 %s の登録に失敗: %v", speciesList[i].ScientificName, err)
		}
		fmt.Print(".")
	}
	fmt.Println()

	// 3. コメント
	if err := createComment(users[1], speciesList[0].id, "すごい発見ですね！"); err != nil {
		log.Fatalf("❌ コメント投稿に失敗: %v", err)
	}

	fmt.Println("✅ 投入完了！")
}

func registerOrLogin(u *seedUser) error {
	body := map[string]string{
		"display_name": u.DisplayName,
		"email":        u.Email,
		"password":     u.Password,
	}
	status, raw, err := post("/auth/v1/register", "", body)
	if err != nil {
		return err
	}
	if status == http.StatusConflict {
		// 登録済みならログイン
		status, raw, err = post("/auth/v1/login", "", map[string]string{"email": u.Email, "password": u.Password})
		if err != nil {
			return err
		}
	}
	if status >= 300 {
		return fmt.Errorf("status %d: %s", status, raw)
	}

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return err
	}
	u.token = resp.AccessToken
	return nil
}

func createSpecies(sp *seedSpecies) error {
	body := map[string]interface{}{
		"scientific_name":  sp.ScientificName,
		"common_name":      sp.CommonName,
		"kingdom":          sp.Kingdom,
		"total_population": sp.Population,
		"description":      sp.Description,
		"endangered":       sp.Endangered,
	}
	status, raw, err := post("/rest/v1/species", users[sp.owner].token, body)
	if err != nil {
		return err
	}
	if status >= 300 {
		return fmt.Errorf("status %d: %s", status, raw)
	}

	var created struct {
		ID int `json:"id"`
	}
	if err := json.Unmarshal(raw, &created); err != nil {
		return err
	}
	sp.id = created.ID
	return nil
}

func createComment(u seedUser, speciesID int, text string) error {
	body := map[string]interface{}{
		"species_id":   speciesID,
		"comment_text": text,
	}
	status, raw, err := post("/rest/v1/comments", u.token, body)
	if err != nil {
		return err
	}
	if status >= 300 {
		return fmt.Errorf("status %d: %s", status, raw)
	}
	return nil
}

// post: JSONを投げて (ステータス, ボディ) を返すだけの共通ヘルパー
func post(path, token string, body interface{}) (int, []byte, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return 0, nil, err
	}

	req, err := http.NewRequest(http.MethodPost, GatewayURL+path, bytes.NewReader(raw))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	return resp.StatusCode, data, err
}
