package database

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/joho/godotenv/autoload"
	_ "github.com/mattn/go-sqlite3"
)

// Service stores finished game results. The driver is selected by
// environment: sqlite3 by default, pgx when SPADES_DB_DRIVER=pgx.
type Service struct {
	db         *sql.DB
	m          *sync.Mutex
	driver     string
	table_name string
}

var (
	tableName  = "spades_results"
	dbInstance *Service
)

const schema = `
	create table if not exists spades_results (
		id text not null primary key,
		created_at text,
		mode text,
		stake integer,
		rounds integer,
		player1 text,
		player2 text,
		player3 text,
		player4 text,
		score1 integer,
		score2 integer,
		score3 integer,
		score4 integer,
		winner_team integer
	);
	`

func New() Service {
	driver := os.Getenv("SPADES_DB_DRIVER")
	if driver == "" {
		driver = "sqlite3"
	}
	dsn := os.Getenv("SPADES_DB_DSN")
	if dsn == "" {
		dsn = "./spades.db"
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		panic(err)
	}

	_, err = db.Exec(schema)
	if err != nil {
		panic(err)
	}

	dbInstance = &Service{
		db:         db,
		m:          &sync.Mutex{},
		driver:     driver,
		table_name: tableName,
	}

	return *dbInstance
}

func (s *Service) Close() error {
	return s.db.Close()
}

func (s *Service) TableName() string {
	return s.table_name
}

// rebind rewrites ? placeholders to $N for the pgx driver.
func (s *Service) rebind(query string) string {
	if s.driver != "pgx" {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&sb, "$%d", n)
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func scanResult(scan func(dest ...any) error) (GameResult, error) {
	var result GameResult
	err := scan(
		&result.ID,
		&result.CreatedAt,
		&result.Mode,
		&result.Stake,
		&result.Rounds,
		&result.Player1,
		&result.Player2,
		&result.Player3,
		&result.Player4,
		&result.Score1,
		&result.Score2,
		&result.Score3,
		&result.Score4,
		&result.WinnerTeam)
	return result, err
}

func (s *Service) GetAll() ([]GameResult, error) {
	s.m.Lock()
	defer s.m.Unlock()
	rows, err := s.db.Query("SELECT * FROM " + s.table_name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []GameResult
	for rows.Next() {
		result, err := scanResult(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	return results, rows.Err()
}

func (s *Service) GetByID(id string) (GameResult, error) {
	s.m.Lock()
	defer s.m.Unlock()
	row := s.db.QueryRow(s.rebind("SELECT * FROM "+s.table_name+" WHERE id = ?"), id)
	return scanResult(row.Scan)
}

func (s *Service) Insert(result GameResult) error {
	s.m.Lock()
	defer s.m.Unlock()
	_, err := s.db.Exec(s.rebind("INSERT INTO "+s.table_name+
		" (id, created_at, mode, stake, rounds, player1, player2, player3, player4, score1, score2, score3, score4, winner_team)"+
		" VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"),
		result.ID,
		result.CreatedAt,
		result.Mode,
		result.Stake,
		result.Rounds,
		result.Player1,
		result.Player2,
		result.Player3,
		result.Player4,
		result.Score1,
		result.Score2,
		result.Score3,
		result.Score4,
		result.WinnerTeam)

	return err
}

func (s *Service) GetByPlayer(player_name string) ([]GameResult, error) {
	s.m.Lock()
	defer s.m.Unlock()
	rows, err := s.db.Query(s.rebind("SELECT * FROM "+s.table_name+
		" WHERE player1 = ? OR player2 = ? OR player3 = ? OR player4 = ?"),
		player_name,
		player_name,
		player_name,
		player_name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []GameResult
	for rows.Next() {
		result, err := scanResult(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	if len(results) == 0 {
		return nil, sql.ErrNoRows // No results found
	}

	return results, nil
}
