package gormrepos

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/jihokim/haksa/core"
	"github.com/jihokim/haksa/core/consultation"
)

type consultationRepository struct {
	db *gorm.DB
}

var _ consultation.Repository = (*consultationRepository)(nil) // interface compliance check

func NewConsultationRepository(db *gorm.DB) *consultationRepository {
	return &consultationRepository{db: db}
}

func (repo consultationRepository) CreateConsultation(ctx context.Context, c consultation.Consultation) (consultation.Consultation, error) {
	if err := repo.db.WithContext(ctx).Create(&c).Error; err != nil {
		return consultation.Consultation{}, errors.Wrap(err, "inserting consultation")
	}
	return c, nil
}

func (repo consultationRepository) GetConsultation(ctx context.Context, id uint) (consultation.Consultation, error) {
	var c consultation.Consultation
	if err := repo.db.WithContext(ctx).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return consultation.Consultation{}, consultation.ErrNotFound
		}
		return consultation.Consultation{}, errors.Wrap(err, "finding consultation")
	}
	return c, nil
}

func (repo consultationRepository) QueryConsultations(ctx context.Context, filter consultation.QueryFilter, ordering []core.DBOrdering) ([]consultation.Consultation, error) {
	q := repo.db.WithContext(ctx).Model(&consultation.Consultation{})

	if filter.TeacherID != 0 {
		q = q.Where("teacher_id = ?", filter.TeacherID)
	}
	if filter.RequesterID != 0 {
		q = q.Where("requester_id = ?", filter.RequesterID)
	}
	if filter.StudentID != 0 {
		q = q.Where("student_id = ?", filter.StudentID)
	}
	for _, ord := range ordering {
		q = q.Order(ord.String())
	}

	var cs []consultation.Consultation
	if err := q.Find(&cs).Error; err != nil {
		return nil, errors.Wrap(err, "querying consultations")
	}
	return cs, nil
}

func (repo consultationRepository) UpdateConsultation(ctx context.Context, c consultation.Consultation) (consultation.Consultation, error) {
	if err := repo.db.WithContext(ctx).Save(&c).Error; err != nil {
		return consultation.Consultation{}, errors.Wrap(err, "updating consultation")
	}
	return c, nil
}
