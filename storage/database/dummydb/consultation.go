package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/jihokim/haksa/core"
	"github.com/jihokim/haksa/core/consultation"
)

type consultationRepository struct {
	db *consultationTable
}

var _ consultation.Repository = (*consultationRepository)(nil) // interface compliance check

func NewConsultationRepository(db *DB) consultation.Repository {
	return &consultationRepository{db: db.consultation}
}

func (repo *consultationRepository) CreateConsultation(_ context.Context, c consultation.Consultation) (consultation.Consultation, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.pkCount++
	c.ID = repo.db.pkCount
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	repo.db.table[c.ID] = &c
	return c, nil
}

func (repo *consultationRepository) GetConsultation(_ context.Context, id uint) (consultation.Consultation, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.table[id]; ok {
		return *c, nil
	}
	return consultation.Consultation{}, consultation.ErrNotFound
}

func (repo *consultationRepository) QueryConsultations(_ context.Context, filter consultation.QueryFilter, _ []core.DBOrdering) ([]consultation.Consultation, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var consultations []consultation.Consultation
	for _, c := range repo.db.table {
		if filter.TeacherID != 0 && c.TeacherID != filter.TeacherID {
			continue
		}
		if filter.RequesterID != 0 && c.RequesterID != filter.RequesterID {
			continue
		}
		if filter.StudentID != 0 && c.StudentID != filter.StudentID {
			continue
		}
		consultations = append(consultations, *c)
	}
	// newest first
	sort.Slice(consultations, func(i, j int) bool { return consultations[i].ID > consultations[j].ID })
	return consultations, nil
}

func (repo *consultationRepository) UpdateConsultation(_ context.Context, c consultation.Consultation) (consultation.Consultation, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[c.ID]; !ok {
		return consultation.Consultation{}, consultation.ErrNotFound
	}
	c.UpdatedAt = time.Now().UTC()
	repo.db.table[c.ID] = &c
	return c, nil
}
