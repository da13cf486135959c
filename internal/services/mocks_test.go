package services

import (
	"context"

	"salonhub/testhelpers"
)

// fakeTransactor runs fn in place; the repositories are mocks.
type fakeTransactor struct {
	calls  int
	inside bool
}

func (f *fakeTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	f.inside = true
	defer func() { f.inside = false }()
	return fn(ctx)
}

type (
	MockTenantRepository      = testhelpers.MockTenantRepository
	MockUserRepository        = testhelpers.MockUserRepository
	MockClientRepository      = testhelpers.MockClientRepository
	MockStylistRepository     = testhelpers.MockStylistRepository
	MockServiceRepository     = testhelpers.MockServiceRepository
	MockCategoryRepository    = testhelpers.MockCategoryRepository
	MockAppointmentRepository = testhelpers.MockAppointmentRepository
	MockProductRepository     = testhelpers.MockProductRepository
	MockOrderRepository       = testhelpers.MockOrderRepository
	MockAuditLogsRepository   = testhelpers.MockAuditLogsRepository
	MockCacheService          = testhelpers.MockCacheService
	MockMinioService          = testhelpers.MockMinioService
	MockAuditLogsService      = testhelpers.MockAuditLogsService
)
