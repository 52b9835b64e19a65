package devgateway

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"

	"github.com/saku-730/species-catalog/internal/model"
)

// NewPostgresDB: devgateway用のPostgres接続
func NewPostgresDB(host, port, user, password, dbname string) *sql.DB {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Fatalf("❌ Failed to connect to Postgres: %v", err)
	}

	// 接続確認（Ping）。コンテナ起動直後はダメなことがあるが、シンプルに落とす
	if err := db.Ping(); err != nil {
		log.Fatalf("❌ Postgres Ping failed: %v", err)
	}

	// 接続プールの設定（おまじない）
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db
}

// EnsureSchema: 開発用なので起動時にテーブルを作ってしまう
func EnsureSchema(db *sql.DB) error {
	ddl := `
	CREATE TABLE IF NOT EXISTS profiles (
		id            TEXT PRIMARY KEY,
		display_name  TEXT NOT NULL,
		email         TEXT NOT NULL UNIQUE,
		biography     TEXT,
		password_hash TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS species (
		id               SERIAL PRIMARY KEY,
		scientific_name  TEXT NOT NULL,
		common_name      TEXT,
		kingdom          TEXT NOT NULL,
		total_population INTEGER,
		image            TEXT,
		description      TEXT,
		endangered       BOOLEAN NOT NULL DEFAULT FALSE,
		author           TEXT REFERENCES profiles(id)
	);
	CREATE TABLE IF NOT EXISTS comments (
		id           SERIAL PRIMARY KEY,
		species_id   INTEGER NOT NULL REFERENCES species(id) ON DELETE CASCADE,
		user_id      TEXT NOT NULL REFERENCES profiles(id),
		comment_text TEXT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	);`
	_, err := db.Exec(ddl)
	return err
}

// Store: devgatewayの永続層。ここが「権威側」なので所有チェックもここで強制する
// (クライアント側の所有チェックはあくまでUIの目安)
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// ---------------------------------------------------
// profiles
// ---------------------------------------------------

func (s *Store) CreateProfile(p *model.Profile, passwordHash string) error {
	query := `
		INSERT INTO profiles (id, display_name, email, biography, password_hash)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := s.db.Exec(query, p.ID, p.DisplayName, p.Email, p.Biography, passwordHash); err != nil {
		return fmt.Errorf("create profile failed: %w", err)
	}
	return nil
}

func (s *Store) FindProfileByEmail(email string) (*model.Profile, string, error) {
	p := &model.Profile{}
	var hash string

	query := `SELECT id, display_name, email, biography, password_hash FROM profiles WHERE email = $1`
	err := s.db.QueryRow(query, email).Scan(&p.ID, &p.DisplayName, &p.Email, &p.Biography, &hash)

	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	return p, hash, nil
}

func (s *Store) FindProfileByID(id string) (*model.Profile, error) {
	p := &model.Profile{}

	query := `SELECT id, display_name, email, biography FROM profiles WHERE id = $1`
	err := s.db.QueryRow(query, id).Scan(&p.ID, &p.DisplayName, &p.Email, &p.Biography)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ---------------------------------------------------
// species
// ---------------------------------------------------

const speciesColumns = `id, scientific_name, common_name, kingdom, total_population, image, description, endangered, author`

func scanSpecies(row interface{ Scan(...interface{}) error }) (*model.Species, error) {
	sp := &model.Species{}
	err := row.Scan(&sp.ID, &sp.ScientificName, &sp.CommonName, &sp.Kingdom,
		&sp.TotalPopulation, &sp.Image, &sp.Description, &sp.Endangered, &sp.Author)
	if err != nil {
		return nil, err
	}
	return sp, nil
}

func (s *Store) ListSpecies() ([]model.Species, error) {
	rows, err := s.db.Query(`SELECT ` + speciesColumns + ` FROM species ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []model.Species{}
	for rows.Next() {
		sp, err := scanSpecies(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *sp)
	}
	return list, rows.Err()
}

func (s *Store) FindSpeciesByID(id int) (*model.Species, error) {
	row := s.db.QueryRow(`SELECT `+speciesColumns+` FROM species WHERE id = $1`, id)
	sp, err := scanSpecies(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sp, nil
}

func (s *Store) InsertSpecies(payload model.SpeciesPayload, author string) (*model.Species, error) {
	query := `
		INSERT INTO species (scientific_name, common_name, kingdom, total_population, image, description, endangered, author)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + speciesColumns
	row := s.db.QueryRow(query, payload.ScientificName, payload.CommonName, payload.Kingdom,
		payload.TotalPopulation, payload.Image, payload.Description, payload.Endangered, author)
	return scanSpecies(row)
}

// UpdateSpecies: owner本人の行だけ更新する（author列には触らない）
// 行が無い・他人の行なら更新0件でErrForbiddenを返す
func (s *Store) UpdateSpecies(id int, owner string, payload model.SpeciesPayload) (*model.Species, error) {
	query := `
		UPDATE species
		SET scientific_name = $1, common_name = $2, kingdom = $3, total_population = $4,
		    image = $5, description = $6, endangered = $7
		WHERE id = $8 AND author = $9
		RETURNING ` + speciesColumns
	row := s.db.QueryRow(query, payload.ScientificName, payload.CommonName, payload.Kingdom,
		payload.TotalPopulation, payload.Image, payload.Description, payload.Endangered, id, owner)
	sp, err := scanSpecies(row)
	if err == sql.ErrNoRows {
		return nil, ErrForbidden
	}
	return sp, err
}

func (s *Store) DeleteSpecies(id int, owner string) error {
	res, err := s.db.Exec(`DELETE FROM species WHERE id = $1 AND author = $2`, id, owner)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrForbidden
	}
	return nil
}

// ---------------------------------------------------
// comments
// ---------------------------------------------------

const commentColumns = `c.id, c.species_id, c.user_id, c.comment_text, c.created_at, c.updated_at, p.display_name`

func scanComment(row interface{ Scan(...interface{}) error }) (*model.Comment, error) {
	c := &model.Comment{}
	err := row.Scan(&c.ID, &c.SpeciesID, &c.UserID, &c.CommentText, &c.CreatedAt, &c.UpdatedAt, &c.AuthorName)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListComments: 新しい順。表示名はprofilesからJOIN（commentsには持たせない）
func (s *Store) ListComments(speciesID int) ([]model.Comment, error) {
	query := `
		SELECT ` + commentColumns + `
		FROM comments c JOIN profiles p ON p.id = c.user_id
		WHERE c.species_id = $1
		ORDER BY c.created_at DESC, c.id DESC
	`
	rows, err := s.db.Query(query, speciesID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []model.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *c)
	}
	return list, rows.Err()
}

func (s *Store) InsertComment(speciesID int, userID, text string) (*model.Comment, error) {
	query := `
		WITH inserted AS (
			INSERT INTO comments (species_id, user_id, comment_text)
			VALUES ($1, $2, $3)
			RETURNING id, species_id, user_id, comment_text, created_at, updated_at
		)
		SELECT c.id, c.species_id, c.user_id, c.comment_text, c.created_at, c.updated_at, p.display_name
		FROM inserted c JOIN profiles p ON p.id = c.user_id
	`
	row := s.db.QueryRow(query, speciesID, userID, text)
	return scanComment(row)
}

func (s *Store) DeleteComment(id int, owner string) error {
	res, err := s.db.Exec(`DELETE FROM comments WHERE id = $1 AND user_id = $2`, id, owner)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrForbidden
	}
	return nil
}
