package repositories

import (
	"context"
	"testing"
	"time"

	"salonhub/internal/models"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type ClientRepoTestSuite struct {
	suite.Suite
	mock     pgxmock.PgxPoolIface
	repo     ClientRepository
	tenantID uuid.UUID
	ctx      context.Context
}

func (suite *ClientRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	suite.Require().NoError(err)
	suite.mock = mock
	suite.repo = NewClientRepo(mock)
	suite.tenantID = uuid.New()
	suite.ctx = context.Background()
}

func (suite *ClientRepoTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestClientRepoTestSuite(t *testing.T) {
	suite.Run(t, new(ClientRepoTestSuite))
}

func (suite *ClientRepoTestSuite) TestLifetime_SumsCompletedVisitsAndOrders() {
	clientID := uuid.New()
	suite.mock.ExpectQuery(`SELECT SUM\(total_price\) FROM appointments`).
		WithArgs(suite.tenantID, clientID, models.AppointmentCompleted, models.OrderStatusCompleted).
		WillReturnRows(pgxmock.NewRows([]string{"appointment_spend", "visits", "order_spend"}).
			AddRow(decimal.RequireFromString("16420.50"), 241, decimal.RequireFromString("1829.90")))

	lt, err := suite.repo.Lifetime(suite.ctx, suite.tenantID, clientID)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), 241, lt.VisitCount)
	assert.True(suite.T(), lt.Spend.Equal(decimal.RequireFromString("18250.40")), lt.Spend.String())
}

func (suite *ClientRepoTestSuite) TestList_SearchMatchesWildcardsLiterally() {
	now := time.Now().UTC()
	email := "ana_b@example.com"
	filter := &models.ClientFilter{Query: "ana_b"}

	suite.mock.ExpectQuery(`first_name ILIKE \$2 ESCAPE`).
		WithArgs(suite.tenantID, `%ana\_b%`, 50, 0).
		WillReturnRows(pgxmock.NewRows([]string{"id", "tenant_id", "first_name", "last_name", "email", "phone", "birthday",
			"notes", "marketing_opt_in", "last_visit_at", "created_at", "updated_at"}).
			AddRow(uuid.New(), suite.tenantID, "Ana", "Bell", &email, (*string)(nil), (*time.Time)(nil),
				(*string)(nil), false, (*time.Time)(nil), now, now))

	clients, err := suite.repo.List(suite.ctx, suite.tenantID, filter)
	suite.Require().NoError(err)
	suite.Require().Len(clients, 1)
	assert.Equal(suite.T(), "Ana", clients[0].FirstName)
}
