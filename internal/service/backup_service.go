package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"planningpoker/internal/database"
	"planningpoker/internal/models"
	"planningpoker/internal/repository"
)

const backupVersion = "1.0"

// BackupData represents the complete database backup structure
type BackupData struct {
	Version      string                  `json:"version"`
	ExportedAt   time.Time               `json:"exported_at"`
	DatabaseType string                  `json:"database_type"`
	Players      []PlayerBackup          `json:"players"`
	Games        []GameBackup            `json:"games"`
	Memberships  []repository.Membership `json:"memberships"`
	Rounds       []RoundBackup           `json:"rounds"`
	Votes        []VoteBackup            `json:"votes"`
}

// PlayerBackup represents a player record for backup
type PlayerBackup struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GameBackup represents a game record for backup, password hash included
type GameBackup struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	PasswordHash  string        `json:"password_hash,omitempty"`
	PlayableCards []models.Card `json:"playable_cards"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// RoundBackup represents a round with its frozen result
type RoundBackup struct {
	ID        string              `json:"id"`
	GameID    string              `json:"game_id"`
	Topic     string              `json:"topic,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	EndedAt   *time.Time          `json:"ended_at,omitempty"`
	EndedBy   string              `json:"ended_by,omitempty"`
	Result    *models.RoundResult `json:"result,omitempty"`
}

// VoteBackup represents a vote for backup
type VoteBackup struct {
	RoundID   string    `json:"round_id"`
	PlayerID  string    `json:"player_id"`
	Card      int       `json:"card"`
	CreatedAt time.Time `json:"created_at"`
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db      *database.DB
	games   *repository.GameRepository
	players *repository.PlayerRepository
	rounds  *repository.RoundRepository
	votes   *repository.VoteRepository
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{
		db:      db,
		games:   repository.NewGameRepository(db),
		players: repository.NewPlayerRepository(db),
		rounds:  repository.NewRoundRepository(db),
		votes:   repository.NewVoteRepository(db),
	}
}

// Export creates a complete backup of the database to a file
func (s *BackupService) Export(ctx context.Context, outputPath string) error {
	log.Println("Starting database export...")

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	backup, err := s.collect(ctx)
	if err != nil {
		return err
	}
	if err := writeBackup(file, backup); err != nil {
		return err
	}

	log.Printf("Database exported successfully to %s", outputPath)
	log.Printf("Exported: %d players, %d games, %d memberships, %d rounds, %d votes",
		len(backup.Players), len(backup.Games), len(backup.Memberships), len(backup.Rounds), len(backup.Votes))
	return nil
}

// ExportToWriter writes a complete backup as JSON to w
func (s *BackupService) ExportToWriter(ctx context.Context, w io.Writer) error {
	backup, err := s.collect(ctx)
	if err != nil {
		return err
	}
	return writeBackup(w, backup)
}

// Import restores a database from a backup file
func (s *BackupService) Import(ctx context.Context, inputPath string) error {
	log.Printf("Starting database import from %s...", inputPath)

	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.ImportFromReader(ctx, file)
}

// ImportFromReader restores a backup read from r. Everything is imported in
// one transaction; a failure leaves the database unchanged.
func (s *BackupService) ImportFromReader(ctx context.Context, r io.Reader) error {
	var backup BackupData
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}
	if backup.Version != backupVersion {
		return fmt.Errorf("unsupported backup version %q", backup.Version)
	}

	log.Printf("Backup version: %s, exported at: %s", backup.Version, backup.ExportedAt)

	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		// Import in order of dependencies
		if err := s.importPlayers(ctx, tx, backup.Players); err != nil {
			return fmt.Errorf("failed to import players: %w", err)
		}
		if err := s.importGames(ctx, tx, backup.Games); err != nil {
			return fmt.Errorf("failed to import games: %w", err)
		}
		if err := s.importMemberships(ctx, tx, backup.Memberships); err != nil {
			return fmt.Errorf("failed to import memberships: %w", err)
		}
		if err := s.importRounds(ctx, tx, backup.Rounds); err != nil {
			return fmt.Errorf("failed to import rounds: %w", err)
		}
		if err := s.importVotes(ctx, tx, backup.Votes); err != nil {
			return fmt.Errorf("failed to import votes: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Println("Database import completed successfully")
	return nil
}

// clearOrder lists the tables in reverse order of dependencies
var clearOrder = []string{"game_invitations", "votes", "rounds", "player_games", "games", "players"}

// Clear deletes every row of every table in one transaction
func (s *BackupService) Clear(ctx context.Context) error {
	return s.db.WithTx(ctx, func(tx *database.Tx) error {
		for _, table := range clearOrder {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("failed to clear table %s: %w", table, err)
			}
			log.Printf("Cleared table: %s", table)
		}
		return nil
	})
}

func (s *BackupService) collect(ctx context.Context) (*BackupData, error) {
	backup := &BackupData{
		Version:      backupVersion,
		ExportedAt:   time.Now().UTC(),
		DatabaseType: s.db.Dialect.DriverName(),
	}

	players, err := s.players.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export players: %w", err)
	}
	for _, p := range players {
		backup.Players = append(backup.Players, PlayerBackup{ID: p.ID, Name: p.Name, CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt})
	}

	if backup.Memberships, err = s.players.ListMemberships(ctx); err != nil {
		return nil, fmt.Errorf("failed to export memberships: %w", err)
	}

	games, err := s.games.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export games: %w", err)
	}
	for _, g := range games {
		backup.Games = append(backup.Games, GameBackup{
			ID:            g.ID,
			Name:          g.Name,
			PasswordHash:  g.PasswordHash,
			PlayableCards: g.PlayableCards,
			CreatedAt:     g.CreatedAt,
			UpdatedAt:     g.UpdatedAt,
		})

		rounds, err := s.rounds.ListByGame(ctx, g.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to export rounds: %w", err)
		}
		for _, r := range rounds {
			backup.Rounds = append(backup.Rounds, RoundBackup{
				ID:        r.ID,
				GameID:    r.GameID,
				Topic:     r.Topic,
				CreatedAt: r.CreatedAt,
				EndedAt:   r.EndedAt,
				EndedBy:   r.EndedBy,
				Result:    r.Result,
			})

			votes, err := s.votes.ListByRound(ctx, r.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to export votes: %w", err)
			}
			for _, v := range votes {
				backup.Votes = append(backup.Votes, VoteBackup{RoundID: v.RoundID, PlayerID: v.PlayerID, Card: v.Card.Value, CreatedAt: v.CreatedAt})
			}
		}
	}
	return backup, nil
}

func writeBackup(w io.Writer, backup *BackupData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}
	return nil
}

func (s *BackupService) importPlayers(ctx context.Context, tx *database.Tx, players []PlayerBackup) error {
	repo := s.players.WithTx(tx)
	for _, p := range players {
		if err := repo.Create(ctx, &models.Player{ID: p.ID, Name: p.Name, CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt}); err != nil {
			return err
		}
	}
	return nil
}

func (s *BackupService) importGames(ctx context.Context, tx *database.Tx, games []GameBackup) error {
	repo := s.games.WithTx(tx)
	for _, g := range games {
		game := &models.Game{
			ID:            g.ID,
			Name:          g.Name,
			PasswordHash:  g.PasswordHash,
			PlayableCards: g.PlayableCards,
			CreatedAt:     g.CreatedAt,
			UpdatedAt:     g.UpdatedAt,
		}
		if err := game.Validate(); err != nil {
			return fmt.Errorf("game %s: %w", g.ID, err)
		}
		if err := repo.Create(ctx, game); err != nil {
			return err
		}
	}
	return nil
}

func (s *BackupService) importMemberships(ctx context.Context, tx *database.Tx, memberships []repository.Membership) error {
	repo := s.players.WithTx(tx)
	for _, m := range memberships {
		if _, err := repo.AddToGame(ctx, m.PlayerID, m.GameID, m.JoinedAt); err != nil {
			return err
		}
	}
	return nil
}

func (s *BackupService) importRounds(ctx context.Context, tx *database.Tx, rounds []RoundBackup) error {
	repo := s.rounds.WithTx(tx)
	for _, r := range rounds {
		round := &models.Round{
			ID:        r.ID,
			GameID:    r.GameID,
			Topic:     r.Topic,
			CreatedAt: r.CreatedAt,
			EndedAt:   r.EndedAt,
			EndedBy:   r.EndedBy,
			Result:    r.Result,
		}
		if err := repo.Insert(ctx, round); err != nil {
			return err
		}
	}
	return nil
}

func (s *BackupService) importVotes(ctx context.Context, tx *database.Tx, votes []VoteBackup) error {
	repo := s.votes.WithTx(tx)
	for _, v := range votes {
		vote := &models.Vote{RoundID: v.RoundID, PlayerID: v.PlayerID, Card: models.Card{Value: v.Card}, CreatedAt: v.CreatedAt}
		if err := repo.Upsert(ctx, vote); err != nil {
			return err
		}
	}
	return nil
}
