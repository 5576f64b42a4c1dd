//go:build unit

package api_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"villa-booking/internal/domain/booking"
	"villa-booking/internal/domain/coupon"
	"villa-booking/internal/domain/user"
	"villa-booking/internal/handler/api"
	resdto "villa-booking/internal/handler/dto/response"
	"villa-booking/internal/pkg/clock"
	"villa-booking/internal/usecase/commands"
	"villa-booking/internal/usecase/queries"
	"villa-booking/tests/common/builder"
	"villa-booking/tests/common/httptest"
	"villa-booking/tests/common/testutil"
	commandsmock "villa-booking/tests/mock/commands"
	queriesmock "villa-booking/tests/mock/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

var catalogNow = time.Date(2025, time.May, 10, 12, 0, 0, 0, time.UTC)

type CouponHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	mockCtrl     *gomock.Controller
	mockCommands *commandsmock.MockCouponCommands
	mockQueries  *queriesmock.MockCouponQueries
	userID       uuid.UUID
}

func (s *CouponHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockCommands = commandsmock.NewMockCouponCommands(s.mockCtrl)
	s.mockQueries = queriesmock.NewMockCouponQueries(s.mockCtrl)
	s.userID = uuid.New()
	handler := api.NewCouponHandler(s.mockCommands, s.mockQueries, clock.NewMockClock(catalogNow))

	auth := mockAuth(s.userID, user.RoleAdmin)
	s.router.POST("/admin/coupons", auth, handler.CreatePlatform)
	s.router.GET("/admin/coupons", auth, handler.ListPlatform)
	s.router.PATCH("/admin/coupons/:id", auth, handler.SetActive)
	s.router.DELETE("/admin/coupons/:id", auth, handler.Delete)
	s.router.POST("/host/coupons", auth, handler.CreateHost)
	s.router.GET("/host/coupons", auth, handler.ListHost)
}

func (s *CouponHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestCouponHandlerSuite(t *testing.T) {
	suite.Run(t, new(CouponHandlerTestSuite))
}

func platformCouponBody() map[string]any {
	return map[string]any{
		"code":               "SUMMER10",
		"description":        "Summer offer",
		"discountPercentage": 10,
		"validFrom":          "2025-05-01T00:00:00Z",
		"validUntil":         "2025-07-01T00:00:00Z",
		"minPurchase":        5000,
		"maxDiscount":        500,
		"maxUsage":           100,
	}
}

func (s *CouponHandlerTestSuite) TestCreatePlatform() {
	url := "/admin/coupons"

	s.Run("success: converts money to minor units", func() {
		cp := builder.NewCouponBuilder().WithMinPurchase(500000).WithMaxDiscount(50000).WithMaxUsage(100).MustPlatform()
		s.mockCommands.EXPECT().CreatePlatform(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, p coupon.PlatformParams) (*coupon.Coupon, error) {
				s.Equal("SUMMER10", p.Code)
				s.Equal(10.0, p.Percentage)
				s.Equal(int64(500000), p.MinPurchase)
				s.Equal(int64(50000), p.MaxDiscount)
				s.Require().NotNil(p.MaxUsage)
				s.Equal(100, *p.MaxUsage)
				return cp, nil
			}).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, platformCouponBody(), "bearer-token")

		var body resdto.CouponResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, &body)
		s.Equal(cp.ID(), body.ID)
		s.Equal("SUMMER10", body.Code)
		s.Equal("platform", body.Scope)
		s.Equal(5000.0, body.MinPurchase)
		s.Equal(500.0, body.MaxDiscount)
		s.True(body.IsActive)
		s.True(body.IsCurrentlyValid)
	})

	s.Run("error: 400 Bad Request on validation errors", func() {
		cases := []testCaseHandler{
			{name: "missing code", mutate: testutil.Field("code", nil), expectCode: http.StatusBadRequest},
			{name: "percentage above 100", mutate: testutil.Field("discountPercentage", 101), expectCode: http.StatusBadRequest},
			{name: "negative min purchase", mutate: testutil.Field("minPurchase", -1), expectCode: http.StatusBadRequest},
			{name: "missing validUntil", mutate: testutil.Field("validUntil", nil), expectCode: http.StatusBadRequest},
		}
		for _, tc := range cases {
			s.Run(tc.name, func() {
				m := platformCouponBody()
				tc.mutate(m)
				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, m, "bearer-token")
				httptest.AssertErrorResponse(s.T(), rec, tc.expectCode, tc.expectInBody)
			})
		}
	})

	s.Run("error: domain rejections", func() {
		cases := []struct {
			name       string
			err        error
			expectCode int
		}{
			{name: "inverted window", err: coupon.ErrInvalidValidityWindow, expectCode: http.StatusBadRequest},
			{name: "duplicate code", err: commands.ErrDuplicateCouponCode, expectCode: http.StatusConflict},
		}
		for _, tc := range cases {
			s.Run(tc.name, func() {
				s.mockCommands.EXPECT().CreatePlatform(gomock.Any(), gomock.Any()).Return(nil, tc.err).Times(1)
				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, platformCouponBody(), "bearer-token")
				httptest.AssertErrorResponse(s.T(), rec, tc.expectCode, tc.err.Error())
			})
		}
	})
}

func (s *CouponHandlerTestSuite) TestSetActiveAndDelete() {
	cp := builder.NewCouponBuilder().MustPlatform()
	url := "/admin/coupons/" + cp.ID().String()

	s.Run("deactivate", func() {
		s.mockCommands.EXPECT().SetActive(gomock.Any(), cp.ID(), false).
			DoAndReturn(func(_ context.Context, _ uuid.UUID, active bool) (*coupon.Coupon, error) {
				cp.SetActive(active, catalogNow)
				return cp, nil
			}).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPatch, url, map[string]any{"isActive": false}, "bearer-token")

		var body resdto.CouponResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.False(body.IsActive)
		s.False(body.IsCurrentlyValid)
	})

	s.Run("missing flag", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPatch, url, map[string]any{}, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "")
	})

	s.Run("delete", func() {
		s.mockCommands.EXPECT().Delete(gomock.Any(), cp.ID()).Return(nil).Times(1)
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodDelete, url, nil, "bearer-token")
		s.Equal(http.StatusNoContent, rec.Code)
	})

	s.Run("delete unknown", func() {
		s.mockCommands.EXPECT().Delete(gomock.Any(), cp.ID()).Return(queries.ErrCouponNotFound).Times(1)
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodDelete, url, nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "coupon not found")
	})
}

func (s *CouponHandlerTestSuite) TestHostCoupons() {
	propertyID := uuid.New()
	body := map[string]any{
		"code":               "VILLA15",
		"discountPercentage": 15,
		"validFrom":          "2025-05-01T00:00:00Z",
		"validUntil":         "2025-07-01T00:00:00Z",
		"propertyId":         propertyID.String(),
	}

	s.Run("create scopes the coupon to the caller", func() {
		cp := builder.NewCouponBuilder().WithCode("VILLA15").WithPercentage(15).ForProperty(propertyID, s.userID).MustHost()
		s.mockCommands.EXPECT().CreateHost(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, p coupon.HostParams) (*coupon.Coupon, error) {
				s.Equal(s.userID, p.HostID)
				s.Equal(propertyID, p.PropertyID)
				return cp, nil
			}).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/host/coupons", body, "bearer-token")

		var resp resdto.CouponResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, &resp)
		s.Equal("host", resp.Scope)
		s.Require().NotNil(resp.PropertyID)
		s.Equal(propertyID, *resp.PropertyID)
	})

	s.Run("another host's property", func() {
		s.mockCommands.EXPECT().CreateHost(gomock.Any(), gomock.Any()).Return(nil, commands.ErrNotPropertyOwner).Times(1)
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/host/coupons", body, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusForbidden, "")
	})

	s.Run("list", func() {
		cp := builder.NewCouponBuilder().ForProperty(propertyID, s.userID).MustHost()
		s.mockQueries.EXPECT().ListForHost(gomock.Any(), s.userID).
			Return([]queries.CouponView{queries.NewCouponView(cp, catalogNow)}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/host/coupons", nil, "bearer-token")

		var resp []resdto.CouponResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &resp)
		s.Len(resp, 1)
	})
}

func (s *CouponHandlerTestSuite) TestListPlatform() {
	s.mockQueries.EXPECT().ListPlatform(gomock.Any()).Return(nil, nil).Times(1)
	rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/admin/coupons", nil, "bearer-token")

	var resp []resdto.CouponResponse
	httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &resp)
	s.Empty(resp)
}

type PricingHandlerTestSuite struct {
	suite.Suite
	router           *gin.Engine
	mockCtrl         *gomock.Controller
	mockPricing      *queriesmock.MockPricingQueries
	mockAvailability *queriesmock.MockAvailabilityQueries
}

func (s *PricingHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockPricing = queriesmock.NewMockPricingQueries(s.mockCtrl)
	s.mockAvailability = queriesmock.NewMockAvailabilityQueries(s.mockCtrl)

	s.router.POST("/pricing/quote", api.NewPricingHandler(s.mockPricing).Quote)
	s.router.GET("/properties/:id/availability", api.NewAvailabilityHandler(s.mockAvailability).Check)
}

func (s *PricingHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestPricingHandlerSuite(t *testing.T) {
	suite.Run(t, new(PricingHandlerTestSuite))
}

func money(minor int64) booking.Money {
	m, _ := booking.NewMoney(minor)
	return m
}

func (s *PricingHandlerTestSuite) TestQuote() {
	propertyID := uuid.New()
	stay := builder.Stay(builder.Monday, builder.Wednesday)
	reqBody := map[string]any{
		"propertyId": propertyID.String(),
		"checkIn":    "2025-06-02",
		"checkOut":   "2025-06-04",
		"couponCode": " SUMMER10 ",
	}

	s.Run("success: returns the priced stay in major units", func() {
		s.mockPricing.EXPECT().Quote(gomock.Any(), propertyID, gomock.Any(), "SUMMER10").
			DoAndReturn(func(_ context.Context, _ uuid.UUID, got booking.StayDates, _ string) (*queries.Quote, error) {
				s.Equal(stay.String(), got.String())
				return &queries.Quote{
					PropertyID:  propertyID,
					Stay:        got,
					Nights:      2,
					BaseAmount:  money(1000000),
					Discount:    money(100000),
					FinalAmount: money(900000),
					Currency:    "INR",
					Coupon:      &queries.QuoteCoupon{Code: "SUMMER10", Scope: "platform", Percentage: 10},
				}, nil
			}).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/pricing/quote", reqBody, "")

		var body resdto.QuoteResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal("2025-06-02", body.CheckIn)
		s.Equal("2025-06-04", body.CheckOut)
		s.Equal(10000.0, body.BaseAmount)
		s.Equal(1000.0, body.Discount)
		s.Equal(9000.0, body.FinalAmount)
		s.Require().NotNil(body.Coupon)
		s.Equal("platform", body.Coupon.Scope)
	})

	s.Run("error: expired coupon is a conflict", func() {
		s.mockPricing.EXPECT().Quote(gomock.Any(), propertyID, gomock.Any(), "SUMMER10").Return(nil, coupon.ErrCouponExpired).Times(1)
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/pricing/quote", reqBody, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusConflict, "coupon has expired")
	})

	s.Run("error: zero-night stay", func() {
		m := testutil.DtoMap(s.T(), reqBody, testutil.Field("checkOut", "2025-06-02"))
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/pricing/quote", m, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid dates")
	})
}

func (s *PricingHandlerTestSuite) TestAvailability() {
	propertyID := uuid.New()
	url := "/properties/" + propertyID.String() + "/availability"

	s.Run("success", func() {
		s.mockAvailability.EXPECT().Check(gomock.Any(), propertyID, gomock.Any()).
			DoAndReturn(func(_ context.Context, id uuid.UUID, stay booking.StayDates) (*queries.Availability, error) {
				return &queries.Availability{PropertyID: id, Stay: stay, Available: false}, nil
			}).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url+"?checkIn=2025-06-02&checkOut=2025-06-06", nil, "")

		var body resdto.AvailabilityResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal(propertyID, body.PropertyID)
		s.Equal("2025-06-06", body.CheckOut)
		s.False(body.Available)
	})

	s.Run("error: missing checkOut", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url+"?checkIn=2025-06-02", nil, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "")
	})

	s.Run("error: unknown property", func() {
		s.mockAvailability.EXPECT().Check(gomock.Any(), propertyID, gomock.Any()).Return(nil, queries.ErrPropertyNotFound).Times(1)
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url+"?checkIn=2025-06-02&checkOut=2025-06-04", nil, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "property not found")
	})
}
