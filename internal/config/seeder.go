package config

import (
	"context"

	"loanbook/internal/adapters/persistence/models"
	"loanbook/internal/core/domain"
	"loanbook/internal/pkg/password"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// DefaultAdminUsername is created by the dev seeder
const DefaultAdminUsername = "admin"

// Seeder handles database seeding
type Seeder struct {
	db  *gorm.DB
	log *logrus.Logger
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, log *logrus.Logger) *Seeder {
	return &Seeder{db: db, log: log}
}

// Run executes all seeders. Failures are logged, not fatal.
func (s *Seeder) Run(ctx context.Context, adminPassword string) {
	s.log.Info("running database seeders")

	if err := s.seedAdminUser(ctx, adminPassword); err != nil {
		s.log.WithError(err).Warn("admin seeder skipped")
	}
}

// seedAdminUser creates the first ADMIN account when none exists.
// Development only; production admins are created out of band.
func (s *Seeder) seedAdminUser(ctx context.Context, adminPassword string) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("role = ?", string(domain.RoleAdmin)).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashed, err := password.Hash(adminPassword)
	if err != nil {
		return err
	}

	admin := &models.User{
		Username: DefaultAdminUsername,
		Email:    "admin@loanbook.local",
		Password: hashed,
		Role:     string(domain.RoleAdmin),
		IsActive: true,
	}
	if err := s.db.WithContext(ctx).Create(admin).Error; err != nil {
		return err
	}

	s.log.WithField("username", admin.Username).Info("admin user created")
	return nil
}
