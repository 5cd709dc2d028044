package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	reqdto "grid-reservation/internal/handler/dto/request"
	resdto "grid-reservation/internal/handler/dto/response"
	"grid-reservation/internal/handler/httperr"
	"grid-reservation/internal/pkg/config"
	"grid-reservation/internal/pkg/errs"
	"grid-reservation/internal/pkg/timefmt"
	"grid-reservation/internal/usecase/booking"

	"github.com/gin-gonic/gin"
)

type ReservationHandler struct {
	booking booking.Service
	loc     *time.Location
}

func NewReservationHandler(svc booking.Service, cfg config.Config) (*ReservationHandler, error) {
	loc, err := cfg.Booking.Location()
	if err != nil {
		return nil, err
	}
	return &ReservationHandler{booking: svc, loc: loc}, nil
}

// @Summary Reserve equipment
// @Description Book equipment for a slot at a grid location and return the down payment
// @Tags reservation
// @Accept json
// @Produce json
// @Param request body reqdto.CreateReservationRequest true "Reservation request"
// @Success 201 {object} resdto.ReserveResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /reservation/post [post]
func (h *ReservationHandler) Reserve(c *gin.Context) {
	var req reqdto.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if errs.Is(err, reqdto.ErrInvalidCoordinate) {
			httperr.AbortWithError(c, http.StatusBadRequest, err, errorMessage(err), nil)
			return
		}
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	params, err := req.ToParams(h.loc)
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, errorMessage(err), nil)
		return
	}

	receipt, err := h.booking.Reserve(c.Request.Context(), params)
	if err != nil {
		abortBookingError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resdto.ReserveResponse{
		Success: true,
		Message: fmt.Sprintf("Successfully reserved the %s for %s from %s to %s. Downpayment is %s",
			params.Equipment,
			params.Customer,
			timefmt.Format(params.Start, h.loc),
			timefmt.Format(params.End, h.loc),
			formatAmount(receipt.DownPayment)),
		ReservationID: receipt.ReservationID,
		Cost:          receipt.Cost,
		DownPayment:   receipt.DownPayment,
	})
}

// @Summary List all reservations
// @Tags reservation
// @Produce json
// @Success 200 {object} resdto.Envelope
// @Router /reservation/getall [get]
func (h *ReservationHandler) ListAll(c *gin.Context) {
	list, err := h.booking.ListAll(c.Request.Context())
	if err != nil {
		abortBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.OK(resdto.FromReservations(list, h.loc)))
}

// @Summary Cancel reservation
// @Description Cancel an active reservation and return the refund
// @Tags reservation
// @Produce json
// @Param id query int true "Reservation ID"
// @Success 200 {object} resdto.CancelResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /reservation/cancel [delete]
func (h *ReservationHandler) Cancel(c *gin.Context) {
	id, ok := h.reservationID(c)
	if !ok {
		return
	}

	refund, err := h.booking.Cancel(c.Request.Context(), id)
	if err != nil {
		abortBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.CancelResponse{
		Success: true,
		Message: "Successfully cancelled reservation",
		Refund:  refund,
	})
}

// @Summary List reservations in a range
// @Description Active reservations fully contained in [start, end]
// @Tags reservation
// @Produce json
// @Param start query string true "YYYY-MM-DD HH:MM"
// @Param end query string true "YYYY-MM-DD HH:MM"
// @Success 200 {object} resdto.Envelope
// @Failure 400 {object} httperr.Response
// @Router /reservation/getbytime [get]
func (h *ReservationHandler) ListByTime(c *gin.Context) {
	var q reqdto.RangeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	start, end, err := q.Parse(h.loc)
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, errorMessage(err), nil)
		return
	}

	list, err := h.booking.ListInRange(c.Request.Context(), start, end)
	if err != nil {
		abortBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.OK(resdto.FromReservations(list, h.loc)))
}

// @Summary List a customer's reservations in a range
// @Tags reservation
// @Produce json
// @Param user_name query string true "Customer"
// @Param start query string true "YYYY-MM-DD HH:MM"
// @Param end query string true "YYYY-MM-DD HH:MM"
// @Success 200 {object} resdto.Envelope
// @Failure 400 {object} httperr.Response
// @Router /reservation/getbyuser [get]
func (h *ReservationHandler) ListByUser(c *gin.Context) {
	var q reqdto.CustomerRangeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	start, end, err := q.Parse(h.loc)
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, errorMessage(err), nil)
		return
	}

	list, err := h.booking.ListByCustomer(c.Request.Context(), timefmt.Unquote(q.UserName), start, end)
	if err != nil {
		abortBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.OK(resdto.FromReservations(list, h.loc)))
}

// @Summary List an equipment's reservations in a range
// @Tags reservation
// @Produce json
// @Param equipment_name query string true "Equipment"
// @Param start query string true "YYYY-MM-DD HH:MM"
// @Param end query string true "YYYY-MM-DD HH:MM"
// @Success 200 {object} resdto.Envelope
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /reservation/getbyequip [get]
func (h *ReservationHandler) ListByEquipment(c *gin.Context) {
	var q reqdto.EquipmentRangeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	start, end, err := q.Parse(h.loc)
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, errorMessage(err), nil)
		return
	}

	name := timefmt.Unquote(q.EquipmentName)
	list, err := h.booking.ListByEquipment(c.Request.Context(), name, start, end)
	if err != nil {
		if errs.Is(err, booking.ErrEquipmentNotFound) {
			httperr.AbortWithError(c, http.StatusNotFound, err,
				fmt.Sprintf("Machine not found - user entered '%s'", name), nil)
			return
		}
		abortBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.OK(resdto.FromReservations(list, h.loc)))
}

// @Summary Financial transactions
// @Description Active reservations contained in the range plus every cancellation, costed now
// @Tags reservation
// @Produce json
// @Param start query string true "YYYY-MM-DD HH:MM"
// @Param end query string true "YYYY-MM-DD HH:MM"
// @Success 200 {object} resdto.Envelope
// @Failure 400 {object} httperr.Response
// @Router /reservation/financial [get]
func (h *ReservationHandler) Financial(c *gin.Context) {
	var q reqdto.RangeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	start, end, err := q.Parse(h.loc)
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, errorMessage(err), nil)
		return
	}

	summary, err := h.booking.FinancialSummary(c.Request.Context(), start, end)
	if err != nil {
		abortBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.OK(resdto.FromFinancialSummary(summary, h.loc)))
}

// @Summary Equipment catalog
// @Tags reservation
// @Produce json
// @Success 200 {object} resdto.Envelope
// @Router /reservation/equipment [get]
func (h *ReservationHandler) Catalog(c *gin.Context) {
	list, err := h.booking.Catalog(c.Request.Context())
	if err != nil {
		abortBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.OK(resdto.FromCatalog(list)))
}

// @Summary Reservation owner
// @Description Returns the customer of a reservation so the caller can decide access
// @Tags reservation
// @Produce json
// @Param reservation_id query int true "Reservation ID"
// @Success 200 {object} resdto.AccessResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /reservation/access [get]
func (h *ReservationHandler) Access(c *gin.Context) {
	id, ok := h.reservationID(c)
	if !ok {
		return
	}

	res, err := h.booking.Reservation(c.Request.Context(), id)
	if err != nil {
		if errs.Is(err, booking.ErrReservationNotFound) {
			httperr.AbortWithError(c, http.StatusNotFound, err,
				fmt.Sprintf("Reservation not found - user entered '%d'", id), nil)
			return
		}
		abortBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.AccessResponse{Success: true, Username: res.Customer()})
}

func (h *ReservationHandler) reservationID(c *gin.Context) (int64, bool) {
	var q reqdto.ReservationIDQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return 0, false
	}
	id, err := q.Parse()
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, errorMessage(err), nil)
		return 0, false
	}
	return id, true
}

func abortBookingError(c *gin.Context, err error) {
	switch {
	case errs.Is(err, booking.ErrEquipmentNotFound),
		errs.Is(err, booking.ErrReservationNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, errorMessage(err), nil)
	case errs.Is(err, booking.ErrCapacityExceeded):
		httperr.AbortWithError(c, http.StatusConflict, err, errorMessage(err), nil)
	case errs.Is(err, booking.ErrInvalidInterval),
		errs.Is(err, booking.ErrInvalidCustomer):
		httperr.AbortWithError(c, http.StatusBadRequest, err, errorMessage(err), nil)
	default:
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
	}
}

// errorMessage keeps only the outermost sentinel text, never store details.
func errorMessage(err error) string {
	for _, known := range []error{
		booking.ErrEquipmentNotFound,
		booking.ErrReservationNotFound,
		booking.ErrCapacityExceeded,
		booking.ErrInvalidInterval,
		booking.ErrInvalidCustomer,
		timefmt.ErrInvalidTimestamp,
		reqdto.ErrInvalidCoordinate,
		reqdto.ErrMissingCoordinate,
		reqdto.ErrInvalidReservationID,
	} {
		if errs.Is(err, known) {
			return "ERROR - " + known.Error()
		}
	}
	return "ERROR - invalid request"
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
