package service

import (
	"testing"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Terml/ERP-system/internal/config"
	"github.com/Terml/ERP-system/internal/workshop/repository"
	"github.com/Terml/ERP-system/internal/workshop/testutil"
)

// newTestServices wires the service set against an isolated test
// schema. Queue, cache, and object storage are absent; side effects
// degrade to no-ops.
func newTestServices(t *testing.T) (*Services, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	services := NewServices(repos, Deps{
		DB:     db,
		JWT:    config.JWTConfig{Secret: testutil.JWTSecret, Issuer: "workshop"},
		Logger: zap.NewNop(),
	})
	return services, db
}
