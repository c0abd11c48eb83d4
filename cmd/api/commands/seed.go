package commands

import (
	"fmt"
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/jmoiron/sqlx"

	"github.com/teamflow/core/internal/infrastructure/config"
	"github.com/teamflow/core/internal/infrastructure/database"
)

// NewSeedCommand creates the seed command
func NewSeedCommand() *cobra.Command {
	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a demo workspace into the database",
		Long:  "Create a demo user, organization, project and tasks for local development",
		Run: func(cmd *cobra.Command, args []string) {
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			seedDemoWorkspace(email, password)
		},
	}
	seedCmd.Flags().String("email", "demo@teamflow.local", "Demo account email")
	seedCmd.Flags().String("password", "teamflow-demo", "Demo account password")
	return seedCmd
}

func seedDemoWorkspace(email, password string) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	userID := uuid.New()
	orgID := uuid.New()
	projectID := uuid.New()
	sectionID := uuid.New()

	err = db.WithTransaction(context.Background(), func(tx *sqlx.Tx) error {
		if _, err := tx.Exec(`
			INSERT INTO users (id, email, display_name, password_hash)
			VALUES ($1, $2, 'Demo User', $3)
			ON CONFLICT (email) DO NOTHING`, userID, email, string(hashed)); err != nil {
			return err
		}
		if err := tx.Get(&userID, `SELECT id FROM users WHERE email = $1`, email); err != nil {
			return err
		}

		if _, err := tx.Exec(`
			INSERT INTO organizations (id, name, description, owner_id)
			VALUES ($1, 'Demo Org', 'Seeded workspace', $2)`, orgID, userID); err != nil {
			return err
		}
		if _, err := tx.Exec(`
			INSERT INTO memberships (id, organization_id, user_id, role)
			VALUES ($1, $2, $3, 'admin')`, uuid.New(), orgID, userID); err != nil {
			return err
		}

		if _, err := tx.Exec(`
			INSERT INTO projects (id, organization_id, name, description, status)
			VALUES ($1, $2, 'Launch', 'First seeded project', 'active')`, projectID, orgID); err != nil {
			return err
		}
		if _, err := tx.Exec(`
			INSERT INTO project_sections (id, project_id, name, position)
			VALUES ($1, $2, 'Backlog', 0)`, sectionID, projectID); err != nil {
			return err
		}

		titles := []struct {
			title    string
			status   string
			priority string
			tags     []string
		}{
			{"Draft announcement", "todo", "high", []string{"marketing"}},
			{"Set up staging", "in_progress", "medium", []string{"ops", "infra"}},
			{"Write release notes", "todo", "low", nil},
		}
		for i, tt := range titles {
			taskID := uuid.New()
			if _, err := tx.Exec(`
				INSERT INTO tasks (id, organization_id, title, status, priority, tags, created_by)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				taskID, orgID, tt.title, tt.status, tt.priority, pq.StringArray(tt.tags), userID); err != nil {
				return err
			}
			if _, err := tx.Exec(`
				INSERT INTO project_tasks (project_id, task_id, section_id, position)
				VALUES ($1, $2, $3, $4)`, projectID, taskID, sectionID, i); err != nil {
				return err
			}
			if i == 0 {
				start := time.Now().Add(-90 * time.Minute)
				end := time.Now().Add(-30 * time.Minute)
				if _, err := tx.Exec(`
					INSERT INTO time_logs (id, task_id, user_id, start_time, end_time, duration_minutes)
					VALUES ($1, $2, $3, $4, $5, 60)`, uuid.New(), taskID, userID, start, end); err != nil {
					return err
				}
				if _, err := tx.Exec(`
					INSERT INTO comments (id, task_id, author_id, content)
					VALUES ($1, $2, $3, 'Kickoff notes are in the shared doc.')`, uuid.New(), taskID, userID); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Seed failed: %v", err)
	}

	fmt.Printf("Seeded demo workspace: sign in as %s\n", email)
	fmt.Printf("  organization %s, project %s\n", orgID, projectID)
}
