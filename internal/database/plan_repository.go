package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/lexbot/pkg/models"
)

// PlanRepository handles study plans and their subjects
type PlanRepository struct {
	db *sqlx.DB
}

// NewPlanRepository creates a new repository instance
func NewPlanRepository(db *sqlx.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// Create stores a plan and its ordered subject list
func (r *PlanRepository) Create(ctx context.Context, plan *models.StudyPlan) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowxContext(ctx, tx.Rebind(`
		INSERT INTO study_plans (user_id, title, exam_date, daily_hours)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`), plan.UserID, plan.Title, plan.ExamDate, plan.DailyHours).Scan(&plan.ID)
	if err != nil {
		return fmt.Errorf("failed to create plan: %w", err)
	}

	insertSubject := tx.Rebind(`
		INSERT INTO plan_subjects (plan_id, position, name, weight, color)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`)
	for i := range plan.Subjects {
		s := &plan.Subjects[i]
		s.PlanID = plan.ID
		s.Position = i
		if err := tx.QueryRowxContext(ctx, insertSubject, s.PlanID, s.Position, s.Name, s.Weight, s.Color).Scan(&s.ID); err != nil {
			return fmt.Errorf("failed to create plan subject: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	plan.CreatedAt = time.Now()
	return nil
}

// GetAllByUserID returns the plans of a user, soonest exam first
func (r *PlanRepository) GetAllByUserID(ctx context.Context, userID int64) ([]models.StudyPlan, error) {
	var plans []models.StudyPlan
	query := r.db.Rebind(`
		SELECT id, user_id, title, exam_date, daily_hours, created_at
		FROM study_plans
		WHERE user_id = ?
		ORDER BY exam_date, id
	`)
	if err := r.db.SelectContext(ctx, &plans, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get plans: %w", err)
	}

	for i := range plans {
		subjects, err := r.subjects(ctx, plans[i].ID)
		if err != nil {
			return nil, err
		}
		plans[i].Subjects = subjects
	}
	return plans, nil
}

// GetByID returns a plan of the user with its subjects in authoring order
func (r *PlanRepository) GetByID(ctx context.Context, userID, planID int64) (*models.StudyPlan, error) {
	var plan models.StudyPlan
	query := r.db.Rebind(`
		SELECT id, user_id, title, exam_date, daily_hours, created_at
		FROM study_plans
		WHERE id = ? AND user_id = ?
	`)
	err := r.db.GetContext(ctx, &plan, query, planID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	if plan.Subjects, err = r.subjects(ctx, plan.ID); err != nil {
		return nil, err
	}
	return &plan, nil
}

// Delete removes a plan as a whole
func (r *PlanRepository) Delete(ctx context.Context, userID, planID int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, tx.Rebind(`
		DELETE FROM plan_subjects
		WHERE plan_id IN (SELECT id FROM study_plans WHERE id = ? AND user_id = ?)
	`), planID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete plan subjects: %w", err)
	}

	result, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM study_plans WHERE id = ? AND user_id = ?`), planID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete plan: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *PlanRepository) subjects(ctx context.Context, planID int64) ([]models.StudyPlanSubject, error) {
	var subjects []models.StudyPlanSubject
	query := r.db.Rebind(`
		SELECT id, plan_id, position, name, weight, color
		FROM plan_subjects
		WHERE plan_id = ?
		ORDER BY position
	`)
	if err := r.db.SelectContext(ctx, &subjects, query, planID); err != nil {
		return nil, fmt.Errorf("failed to get plan subjects: %w", err)
	}
	return subjects, nil
}
