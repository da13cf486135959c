package caching

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestKeys(t *testing.T) {
	tenantID := uuid.MustParse("7b0c2f5e-8c1d-4a53-9d7e-0d1f0a9b4c21")

	assert.Equal(t, "salonhub:report:7b0c2f5e-8c1d-4a53-9d7e-0d1f0a9b4c21:dashboard:2026-03-02", reportKey(tenantID, "dashboard:2026-03-02"))
	assert.Equal(t, "salonhub:report:7b0c2f5e-8c1d-4a53-9d7e-0d1f0a9b4c21:*", reportPattern(tenantID))
	assert.Equal(t, "salonhub:refresh:abc", refreshKey("abc"))
	assert.Equal(t, "salonhub:ratelimit:login:a@b.c:10.0.0.1", rateLimitKey("login:a@b.c:10.0.0.1"))
}

func TestReportPatternIsTenantScoped(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	assert.NotEqual(t, reportPattern(a), reportPattern(b))
	assert.Contains(t, reportKey(a, "summary"), a.String())
}
