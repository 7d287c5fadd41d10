package repository

import (
	"errors"

	"github.com/sevans717/aphila-sub007/internal/models"
	"gorm.io/gorm"
)

type MatchRepository struct {
	db *gorm.DB
}

func NewMatchRepository(db *gorm.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

func (r *MatchRepository) FindByID(id uint) (*models.Match, error) {
	var match models.Match
	err := r.db.First(&match, id).Error
	return &match, err
}

func (r *MatchRepository) FindByPair(userA, userB uint) (*models.Match, error) {
	a, b := models.NormalizePair(userA, userB)
	var match models.Match
	err := r.db.Where("user_a_id = ? AND user_b_id = ?", a, b).First(&match).Error
	return &match, err
}

// CreateOrReactivate creates the pair's match, or reactivates it if it was
// UNMATCHED. The loser of a concurrent create reads back the winner's row via
// the unique pair index instead of erroring. A BLOCKED match is never revived;
// the existing row is returned with created=false so the caller can inspect
// its status.
func (r *MatchRepository) CreateOrReactivate(userA, userB uint) (*models.Match, bool, error) {
	a, b := models.NormalizePair(userA, userB)

	match := &models.Match{UserAID: a, UserBID: b, Status: models.MatchActive}
	err := r.db.Create(match).Error
	if err == nil {
		return match, true, nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, false, err
	}

	existing, findErr := r.FindByPair(a, b)
	if findErr != nil {
		return nil, false, findErr
	}
	if existing.Status == models.MatchUnmatched {
		reactivated, updErr := r.UpdateStatus(existing.ID, []models.MatchStatus{models.MatchUnmatched}, models.MatchActive)
		if updErr != nil {
			return nil, false, updErr
		}
		if reactivated {
			existing.Status = models.MatchActive
			return existing, true, nil
		}
		// Lost a concurrent transition; re-read the authoritative row.
		return r.findExisting(existing.ID)
	}
	return existing, false, nil
}

func (r *MatchRepository) findExisting(id uint) (*models.Match, bool, error) {
	match, err := r.FindByID(id)
	if err != nil {
		return nil, false, err
	}
	return match, false, nil
}

// UpdateStatus performs a guarded transition: the row only moves to `to` if
// its current status is in `from`. Returns whether a row changed, which keeps
// message/match status monotonic under concurrent writers.
func (r *MatchRepository) UpdateStatus(matchID uint, from []models.MatchStatus, to models.MatchStatus) (bool, error) {
	res := r.db.Model(&models.Match{}).
		Where("id = ? AND status IN ?", matchID, from).
		Update("status", to)
	return res.RowsAffected > 0, res.Error
}

func (r *MatchRepository) ListForUser(userID uint, limit int) ([]models.Match, error) {
	var matches []models.Match
	err := r.db.Where("user_a_id = ? OR user_b_id = ?", userID, userID).
		Order("updated_at DESC").
		Limit(limit).
		Find(&matches).Error
	return matches, err
}
