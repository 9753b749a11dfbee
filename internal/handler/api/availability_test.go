//go:build unit

package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"bookhive/internal/handler/api"
	"bookhive/internal/pkg/errs"
	"bookhive/internal/usecase/queries"
	apimock "bookhive/tests/mock/api"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type AvailabilityHandlerTestSuite struct {
	suite.Suite
	router   *gin.Engine
	mockCtrl *gomock.Controller
	mock     *apimock.MockAvailabilityChecker
}

func (s *AvailabilityHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mock = apimock.NewMockAvailabilityChecker(s.mockCtrl)

	handler := api.NewAvailabilityHandler(s.mock)
	s.router.GET("/availability", handler.CheckAvailability)
}

func (s *AvailabilityHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestAvailabilityHandlerSuite(t *testing.T) {
	suite.Run(t, new(AvailabilityHandlerTestSuite))
}

func (s *AvailabilityHandlerTestSuite) get(url string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func availabilityURL(resourceID uuid.UUID) string {
	return "/availability?resource_id=" + resourceID.String() +
		"&start=2026-03-10T10:00:00Z&end=2026-03-10T12:00:00Z"
}

func (s *AvailabilityHandlerTestSuite) TestCheckAvailability() {
	resourceID := uuid.New()

	s.Run("success: 200 when available", func() {
		s.mock.EXPECT().Check(gomock.Any(), resourceID, gomock.Any(), gomock.Any()).
			Return(queries.AvailabilityResult{Available: true}, nil).Times(1)

		rec := s.get(availabilityURL(resourceID))

		s.Equal(http.StatusOK, rec.Code)
		s.Contains(rec.Body.String(), `"available":true`)
	})

	s.Run("success: 200 with conflicts and alternatives", func() {
		s.mock.EXPECT().Check(gomock.Any(), resourceID, gomock.Any(), gomock.Any()).
			Return(queries.AvailabilityResult{
				Conflicts:    []queries.ConflictView{{BookingID: uuid.New(), Status: "confirmed"}},
				Alternatives: []queries.TimeSlotView{{PriceCents: 9900}},
			}, nil).Times(1)

		rec := s.get(availabilityURL(resourceID))

		s.Equal(http.StatusOK, rec.Code)
		s.Contains(rec.Body.String(), `"available":false`)
		s.Contains(rec.Body.String(), "conflicts")
		s.Contains(rec.Body.String(), "alternatives")
	})

	s.Run("unknown resource: 404", func() {
		s.mock.EXPECT().Check(gomock.Any(), resourceID, gomock.Any(), gomock.Any()).
			Return(queries.AvailabilityResult{}, errs.Mark(errs.New("missing"), errs.ErrResourceNotFound)).Times(1)

		rec := s.get(availabilityURL(resourceID))

		s.Equal(http.StatusNotFound, rec.Code)
	})

	s.Run("missing params: 400", func() {
		rec := s.get("/availability?resource_id=" + resourceID.String())

		s.Equal(http.StatusBadRequest, rec.Code)
	})
}
