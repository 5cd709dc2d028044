//go:build unit

package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"grid-reservation/internal/domain/equipment"
	"grid-reservation/internal/domain/reservation"
	"grid-reservation/internal/handler/api"
	resdto "grid-reservation/internal/handler/dto/response"
	"grid-reservation/internal/pkg/config"
	"grid-reservation/internal/pkg/errs"
	"grid-reservation/internal/usecase/booking"
	"grid-reservation/tests/common/builder"
	"grid-reservation/tests/common/httptest"
	"grid-reservation/tests/common/testutil"
	bookingmock "grid-reservation/tests/mock/booking"

	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type ReservationHandlerTestSuite struct {
	suite.Suite
	router      *gin.Engine
	mockCtrl    *gomock.Controller
	mockBooking *bookingmock.MockService
	handler     *api.ReservationHandler
}

func (s *ReservationHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockBooking = bookingmock.NewMockService(s.mockCtrl)

	var err error
	s.handler, err = api.NewReservationHandler(s.mockBooking, config.NewTestConfig())
	s.Require().NoError(err)

	s.router.POST("/reservation/post", s.handler.Reserve)
	s.router.GET("/reservation/getall", s.handler.ListAll)
	s.router.DELETE("/reservation/cancel", s.handler.Cancel)
	s.router.GET("/reservation/getbytime", s.handler.ListByTime)
	s.router.GET("/reservation/getbyuser", s.handler.ListByUser)
	s.router.GET("/reservation/getbyequip", s.handler.ListByEquipment)
	s.router.GET("/reservation/financial", s.handler.Financial)
	s.router.GET("/reservation/equipment", s.handler.Catalog)
	s.router.GET("/reservation/access", s.handler.Access)
}

func (s *ReservationHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestReservationHandlerSuite(t *testing.T) {
	suite.Run(t, new(ReservationHandlerTestSuite))
}

type listBody struct {
	Success bool                   `json:"success"`
	Message resdto.ReservationList `json:"message"`
}

func withQuery(path string, kv ...string) string {
	v := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		v.Set(kv[i], kv[i+1])
	}
	return path + "?" + v.Encode()
}

// ================================================================================
// TestReserve
// ================================================================================

func (s *ReservationHandlerTestSuite) TestReserve() {
	path := "/reservation/post"
	b := builder.NewReservationBuilder()
	reqBody := b.BuildCreateRequestDTO()
	receipt := &booking.Receipt{ReservationID: 7, Cost: 2000, DownPayment: 1000}

	s.Run("success: returns 201 with the down payment", func() {
		s.mockBooking.EXPECT().Reserve(gomock.Any(), b.BuildParams()).Return(receipt, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, path, reqBody, nil)

		var body resdto.ReserveResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, &body)
		s.Equal(int64(7), body.ReservationID)
		s.Equal(1000.0, body.DownPayment)
		s.Equal("Successfully reserved the ore scooper for Jane from 2030-04-14 09:00:00 to 2030-04-14 11:00:00. Downpayment is 1000", body.Message)
		httptest.AssertHeaders(s.T(), rec, map[string]string{"Content-Type": "application/json; charset=utf-8"})
	})

	s.Run("success: string coordinates and quoted timestamps are accepted", func() {
		s.mockBooking.EXPECT().Reserve(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, p booking.ReserveParams) (*booking.Receipt, error) {
				s.Equal(7, p.Location.X())
				s.Equal(20, p.Location.Y())
				s.True(b.Start.Equal(p.Start))
				return receipt, nil
			}).Times(1)

		body := testutil.DtoMap(s.T(), reqBody,
			testutil.Field("x_coor", "7"),
			testutil.Field("y_coor", 20.0),
			testutil.Field("start_time", "'"+reqBody.StartTime+"'"),
		)
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, path, body, nil)
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, nil)
	})

	s.Run("error: 400 Bad Request on invalid input", func() {
		cases := []struct {
			name         string
			mutate       func(m map[string]any)
			expectInBody string
		}{
			{name: "coordinate boundary invalid (0)", mutate: testutil.Field("x_coor", 0), expectInBody: "between 1 and 20"},
			{name: "coordinate boundary invalid (21)", mutate: testutil.Field("y_coor", 21), expectInBody: "between 1 and 20"},
			{name: "coordinate not a number", mutate: testutil.Field("x_coor", "abc"), expectInBody: "between 1 and 20"},
			{name: "coordinate not an integer", mutate: testutil.Field("x_coor", 2.5), expectInBody: "between 1 and 20"},
			{name: "missing field: y_coor", mutate: testutil.Field("y_coor", nil), expectInBody: "required"},
			{name: "missing field: start_time", mutate: testutil.Field("start_time", nil), expectInBody: "Invalid request"},
			{name: "missing field: user_name", mutate: testutil.Field("user_name", nil), expectInBody: "Invalid request"},
			{name: "timestamp with seconds", mutate: testutil.Field("end_time", "2030-04-14 11:00:00"), expectInBody: "invalid timestamp"},
			{name: "timestamp in ISO format", mutate: testutil.Field("start_time", "2030-04-14T09:00:00Z"), expectInBody: "invalid timestamp"},
		}

		for _, tc := range cases {
			s.Run(tc.name, func() {
				body := testutil.DtoMap(s.T(), reqBody, tc.mutate)
				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, path, body, nil)
				httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, tc.expectInBody)
			})
		}
	})

	s.Run("error: maps engine errors to proper statuses", func() {
		cases := []struct {
			name           string
			engineErr      error
			expectedStatus int
			expectedMsg    string
		}{
			{name: "unknown equipment", engineErr: booking.ErrEquipmentNotFound, expectedStatus: http.StatusNotFound, expectedMsg: "ERROR - equipment not found"},
			{name: "capacity exceeded", engineErr: booking.ErrCapacityExceeded, expectedStatus: http.StatusConflict, expectedMsg: "ERROR - reservation not available"},
			{name: "end before start", engineErr: booking.ErrInvalidInterval, expectedStatus: http.StatusBadRequest, expectedMsg: "end time must be after start time"},
			{name: "store failure", engineErr: errs.Mark(errors.New("conn reset"), booking.ErrStoreFailure), expectedStatus: http.StatusInternalServerError, expectedMsg: "Internal server error"},
		}

		for _, tc := range cases {
			s.Run(tc.name, func() {
				s.mockBooking.EXPECT().Reserve(gomock.Any(), gomock.Any()).Return(nil, tc.engineErr).Times(1)

				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, path, reqBody, nil)
				httptest.AssertErrorResponse(s.T(), rec, tc.expectedStatus, tc.expectedMsg)
			})
		}
	})
}

// ================================================================================
// TestCancel
// ================================================================================

func (s *ReservationHandlerTestSuite) TestCancel() {
	s.Run("success: returns the refund", func() {
		s.mockBooking.EXPECT().Cancel(gomock.Any(), int64(3)).Return(375.0, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodDelete, "/reservation/cancel?id=3", nil, nil)

		var body resdto.CancelResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal(375.0, body.Refund)
	})

	s.Run("success: quoted id", func() {
		s.mockBooking.EXPECT().Cancel(gomock.Any(), int64(3)).Return(0.0, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodDelete, withQuery("/reservation/cancel", "id", "'3'"), nil, nil)
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, nil)
	})

	s.Run("error: 400 Bad Request for invalid id", func() {
		for _, path := range []string{"/reservation/cancel?id=abc", "/reservation/cancel?id=0", "/reservation/cancel"} {
			rec := httptest.PerformRequest(s.T(), s.router, http.MethodDelete, path, nil, nil)
			httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "positive integer")
		}
	})

	s.Run("error: 404 Not Found for an inactive reservation", func() {
		s.mockBooking.EXPECT().Cancel(gomock.Any(), int64(9)).Return(0.0, booking.ErrReservationNotFound).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodDelete, "/reservation/cancel?id=9", nil, nil)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "ERROR - reservation not found")
	})
}

// ================================================================================
// Listings
// ================================================================================

func (s *ReservationHandlerTestSuite) TestListAll() {
	res := builder.NewReservationBuilder().BuildDomain()
	s.mockBooking.EXPECT().ListAll(gomock.Any()).Return([]*reservation.Reservation{res}, nil).Times(1)

	rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/reservation/getall", nil, nil)

	var body listBody
	httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
	want := resdto.ReservationList{Reservations: []resdto.ReservationResponse{{
		ReservationID: 1,
		Username:      "Jane",
		Equipment:     "ore scooper",
		StartDate:     "2030-04-14 09:00:00",
		EndDate:       "2030-04-14 11:00:00",
		Active:        true,
		Cost:          2000,
		DownPayment:   1000,
		Location:      "(3, 4)",
	}}}
	if diff := cmp.Diff(want, body.Message); diff != "" {
		s.T().Errorf("listing mismatch (-want +got):\n%s", diff)
	}
}

func (s *ReservationHandlerTestSuite) TestListByTime() {
	start := time.Date(2030, time.April, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2030, time.April, 30, 0, 0, 0, 0, time.UTC)

	s.Run("success: empty listing keeps the reservations key", func() {
		s.mockBooking.EXPECT().ListInRange(gomock.Any(), start, end).Return([]*reservation.Reservation{}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet,
			withQuery("/reservation/getbytime", "start", "'2030-04-01 00:00'", "end", "'2030-04-30 00:00'"), nil, nil)

		s.JSONEq(`{"success":true,"message":{"reservations":[]}}`, rec.Body.String())
	})

	s.Run("error: 400 Bad Request for missing or malformed range", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, withQuery("/reservation/getbytime", "start", "2030-04-01 00:00"), nil, nil)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid request")

		rec = httptest.PerformRequest(s.T(), s.router, http.MethodGet,
			withQuery("/reservation/getbytime", "start", "01/04/2030", "end", "2030-04-30 00:00"), nil, nil)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "invalid timestamp")
	})
}

func (s *ReservationHandlerTestSuite) TestListByUser() {
	start := time.Date(2030, time.April, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2030, time.April, 30, 0, 0, 0, 0, time.UTC)
	res := builder.NewReservationBuilder().BuildDomain()

	s.mockBooking.EXPECT().ListByCustomer(gomock.Any(), "Jane", start, end).Return([]*reservation.Reservation{res}, nil).Times(1)

	rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet,
		withQuery("/reservation/getbyuser", "user_name", "'Jane'", "start", "2030-04-01 00:00", "end", "2030-04-30 00:00"), nil, nil)

	var body listBody
	httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
	s.Require().Len(body.Message.Reservations, 1)
	s.Equal("Jane", body.Message.Reservations[0].Username)
}

func (s *ReservationHandlerTestSuite) TestListByEquipment() {
	s.Run("success: known equipment", func() {
		s.mockBooking.EXPECT().ListByEquipment(gomock.Any(), "ore scooper", gomock.Any(), gomock.Any()).
			Return([]*reservation.Reservation{}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet,
			withQuery("/reservation/getbyequip", "equipment_name", "'ore scooper'", "start", "2030-04-01 00:00", "end", "2030-04-30 00:00"), nil, nil)
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, nil)
	})

	s.Run("error: 404 distinguishes unknown equipment from an empty result", func() {
		s.mockBooking.EXPECT().ListByEquipment(gomock.Any(), "flux capacitor", gomock.Any(), gomock.Any()).
			Return(nil, booking.ErrEquipmentNotFound).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet,
			withQuery("/reservation/getbyequip", "equipment_name", "flux capacitor", "start", "2030-04-01 00:00", "end", "2030-04-30 00:00"), nil, nil)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "Machine not found - user entered 'flux capacitor'")
	})
}

func (s *ReservationHandlerTestSuite) TestFinancial() {
	start := time.Date(2030, time.April, 14, 9, 0, 0, 0, time.UTC)
	summary := &booking.FinancialSummary{
		Reservations: []booking.FinancialEntry{
			{ReservationID: 1, Customer: "Jane", Equipment: "ore scooper", Start: start, End: start.Add(time.Hour), Cost: 1000},
		},
		Cancellations: []booking.FinancialEntry{},
	}
	s.mockBooking.EXPECT().FinancialSummary(gomock.Any(), gomock.Any(), gomock.Any()).Return(summary, nil).Times(1)

	rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet,
		withQuery("/reservation/financial", "start", "2030-04-01 00:00", "end", "2030-04-30 00:00"), nil, nil)

	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{
		"success": true,
		"message": {
			"reservations": [{
				"reservation_id": 1,
				"username": "Jane",
				"equipment": "ore scooper",
				"start_date": "2030-04-14 09:00:00",
				"end_date": "2030-04-14 10:00:00",
				"cost": 1000
			}],
			"cancellations": []
		}
	}`, rec.Body.String())
}

func (s *ReservationHandlerTestSuite) TestCatalog() {
	s.mockBooking.EXPECT().Catalog(gomock.Any()).Return([]*equipment.Equipment{
		equipment.ReconstructEquipment("ore scooper", 4, 1000),
	}, nil).Times(1)

	rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/reservation/equipment", nil, nil)
	s.JSONEq(`{"success":true,"message":{"equipment":[{"name":"ore scooper","capacity":4,"hourly_rate":1000}]}}`, rec.Body.String())
}

func (s *ReservationHandlerTestSuite) TestAccess() {
	s.Run("success: returns the owner", func() {
		res := builder.NewReservationBuilder().With(func(b *builder.ReservationBuilder) { b.Customer = "Bob" }).BuildDomain()
		s.mockBooking.EXPECT().Reservation(gomock.Any(), int64(1)).Return(res, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/reservation/access?reservation_id=1", nil, nil)

		var body resdto.AccessResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal("Bob", body.Username)
	})

	s.Run("error: 404 Not Found", func() {
		s.mockBooking.EXPECT().Reservation(gomock.Any(), int64(5)).Return(nil, booking.ErrReservationNotFound).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/reservation/access?reservation_id=5", nil, nil)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "Reservation not found - user entered '5'")
	})
}
