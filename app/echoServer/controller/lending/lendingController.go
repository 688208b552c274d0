package lending

import (
	"log/slog"
	"net/http"
	"strconv"

	"librarymgmt/app/echoServer/jwtx"
	"librarymgmt/model"
	txrepo "librarymgmt/repository/transaction"
	ls "librarymgmt/service/lending"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc ls.Service
	V   *validator.Validate
	Log *slog.Logger
}

// POST /borrow
func (h *Controller) Borrow(c echo.Context) error {
	var req BorrowReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}
	uid, _ := c.Get("user_id").(int64)

	loan, err := h.Svc.Borrow(c.Request().Context(), uid, req.BookID, req.Days)
	if err != nil {
		switch ls.Code(err) {
		case ls.ErrBookNotFound, ls.ErrUnavailable:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "Book not available"})
		default:
			h.Log.Error("borrow", "err", err, "user_id", uid, "book_id", req.BookID)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"transaction_id": loan.ID,
		"book_id":        loan.BookID,
		"status":         loan.Status,
		"due_date":       loan.DueDate,
	})
}

// POST /return
func (h *Controller) Return(c echo.Context) error {
	var req ReturnReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}
	uid, _ := c.Get("user_id").(int64)

	loan, err := h.Svc.Return(c.Request().Context(), uid, req.BookID)
	if err != nil {
		switch ls.Code(err) {
		case ls.ErrNoOpenLoan:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "No active borrowing found for this user and book"})
		default:
			h.Log.Error("return", "err", err, "user_id", uid, "book_id", req.BookID)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"transaction_id": loan.ID,
		"book_id":        loan.BookID,
		"status":         loan.Status,
		"return_date":    loan.ReturnDate,
	})
}

// GET /me/transactions
func (h *Controller) MyHistory(c echo.Context) error {
	uid, _ := c.Get("user_id").(int64)
	rows, err := h.Svc.MyHistory(c.Request().Context(), uid)
	if err != nil {
		h.Log.Error("my history", "err", err, "user_id", uid)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /admin/transactions?status=&user_id=&unreturned_only=
func (h *Controller) AdminHistory(c echo.Context) error {
	if jwtx.RoleFromContext(c) != model.RoleAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "admin privilege required"})
	}

	var f txrepo.AdminFilter
	if s := c.QueryParam("status"); s != "" {
		st := model.TxStatus(s)
		if st != model.TxBorrowed && st != model.TxReturned && st != model.TxOverdue {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid status value"})
		}
		f.Status = &st
	}
	if s := c.QueryParam("user_id"); s != "" {
		uid, err := strconv.ParseInt(s, 10, 64)
		if err != nil || uid <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid user_id"})
		}
		f.UserID = &uid
	}
	if s := c.QueryParam("unreturned_only"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid unreturned_only"})
		}
		f.UnreturnedOnly = v
	}

	rows, err := h.Svc.AdminHistory(c.Request().Context(), f)
	if err != nil {
		h.Log.Error("admin history", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}
