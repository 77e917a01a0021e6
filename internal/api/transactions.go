package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/erazemk/menjalnica/internal/model"
	"github.com/erazemk/menjalnica/internal/store"
	"github.com/erazemk/menjalnica/internal/trading"
)

// ReturnMeetingOffset is how far after the hand-off the return meeting of a
// temporary transaction is scheduled.
const ReturnMeetingOffset = 30 * 24 * time.Hour

// TransactionsHandler handles transaction lifecycle endpoints.
type TransactionsHandler struct {
	DB          *sql.DB
	Coordinator *trading.Coordinator
	Gate        *trading.AccessGate
}

type createTransactionRequest struct {
	PartnerID     int64  `json:"partner_id"`
	ItemID        int64  `json:"item_id"`
	OfferedItemID int64  `json:"offered_item_id,omitempty"`
	Permanent     bool   `json:"permanent"`
	Date          string `json:"date"`
	Location      string `json:"location"`
}

type transactionView struct {
	model.Transaction
	Status string `json:"status"`
}

// Create handles POST /api/transactions. The caller borrows item_id from
// partner_id; offering an item of their own in return makes the transaction
// two-way. A meeting is scheduled at the given date and location, plus a
// return meeting thirty days later unless the transaction is permanent.
func (h *TransactionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req createTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PartnerID == claims.UserID {
		jsonError(w, http.StatusBadRequest, "cannot trade with yourself")
		return
	}
	if req.Location == "" {
		jsonError(w, http.StatusBadRequest, "location required")
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	canBorrow, err := h.Gate.CanBorrow(r.Context(), claims.UserID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !canBorrow {
		jsonError(w, http.StatusForbidden, "borrowing not allowed")
		return
	}
	canLend, err := h.Gate.CanLend(r.Context(), req.PartnerID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !canLend {
		jsonError(w, http.StatusConflict, "partner cannot lend")
		return
	}

	item, err := h.tradableItem(r, req.ItemID, req.PartnerID)
	if err != nil {
		jsonError(w, http.StatusConflict, err.Error())
		return
	}

	var offered *model.Item
	if req.OfferedItemID != 0 {
		// A counter-offer only works if the partner actually wants the item.
		offered, err = h.tradableItem(r, req.OfferedItemID, claims.UserID)
		if err != nil {
			jsonError(w, http.StatusConflict, err.Error())
			return
		}
		wished, err := trading.NewItemQuery(h.DB).
			FindByID(offered.ID).
			InWishlistOf(req.PartnerID).
			FetchIDs(r.Context())
		if err != nil {
			jsonError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if len(wished) == 0 {
			jsonError(w, http.StatusConflict, "offered item is not on the partner's wishlist")
			return
		}
	}

	trade, err := store.CreateTrade(r.Context(), h.DB, req.PartnerID, claims.UserID, item.ID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to create trade")
		return
	}
	tradeIDs := []int64{trade.ID}
	if offered != nil {
		counter, err := store.CreateTrade(r.Context(), h.DB, claims.UserID, req.PartnerID, offered.ID)
		if err != nil {
			jsonError(w, http.StatusInternalServerError, "failed to create trade")
			return
		}
		tradeIDs = append(tradeIDs, counter.ID)
	}

	meeting, err := store.CreateMeeting(r.Context(), h.DB, date, req.Location, claims.UserID, false)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to create meeting")
		return
	}
	meetingIDs := []int64{meeting.ID}
	if !req.Permanent {
		returnMeeting, err := store.CreateMeeting(r.Context(), h.DB,
			date.Add(ReturnMeetingOffset), req.Location, claims.UserID, true)
		if err != nil {
			jsonError(w, http.StatusInternalServerError, "failed to create meeting")
			return
		}
		meetingIDs = append(meetingIDs, returnMeeting.ID)
	}

	id, err := h.Coordinator.Initiate(r.Context(), tradeIDs, meetingIDs)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to create transaction")
		return
	}

	for _, itemID := range []int64{item.ID, req.OfferedItemID} {
		if itemID == 0 {
			continue
		}
		if err := store.SetItemReserved(r.Context(), h.DB, itemID, true); err != nil {
			jsonError(w, http.StatusInternalServerError, "failed to reserve item")
			return
		}
	}

	t, err := h.Coordinator.Get(r.Context(), id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	slog.Info("transaction created",
		"transaction", id,
		"borrower", claims.Username,
		"lender", req.PartnerID,
		"permanent", req.Permanent,
	)
	jsonResponse(w, http.StatusCreated, transactionView{Transaction: *t, Status: model.TransactionOpen})
}

// List handles GET /api/transactions. The scope parameter picks the view:
// open, incomplete, weekly or everything.
func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var transactions []model.Transaction
	var err error
	switch r.URL.Query().Get("scope") {
	case "open":
		transactions, err = h.Coordinator.OpenTransactionsOf(r.Context(), claims.UserID)
	case "incomplete":
		transactions, err = h.Coordinator.IncompleteTransactionsOf(r.Context(), claims.UserID)
	case "weekly":
		transactions, err = h.Coordinator.WeeklyTransactionsOf(r.Context(), claims.UserID)
	case "", "all":
		transactions, err = h.Coordinator.TransactionsOf(r.Context(), claims.UserID)
	default:
		jsonError(w, http.StatusBadRequest, "unknown scope")
		return
	}
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	views := make([]transactionView, 0, len(transactions))
	for i := range transactions {
		status, err := h.Coordinator.Classify(r.Context(), &transactions[i])
		if err != nil {
			jsonError(w, http.StatusInternalServerError, "internal error")
			return
		}
		views = append(views, transactionView{Transaction: transactions[i], Status: status})
	}
	jsonResponse(w, http.StatusOK, views)
}

// Get handles GET /api/transactions/{id}.
func (h *TransactionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	t, err := h.Coordinator.Get(r.Context(), id)
	if errors.Is(err, trading.ErrTransactionDoesNotExist) {
		jsonError(w, http.StatusNotFound, "transaction not found")
		return
	}
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	status, err := h.Coordinator.Classify(r.Context(), t)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	jsonResponse(w, http.StatusOK, transactionView{Transaction: *t, Status: status})
}

// Partners handles GET /api/partners. Returns up to n most frequent trading
// partners, default three.
func (h *TransactionsHandler) Partners(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	n := 3
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			jsonError(w, http.StatusBadRequest, "invalid n")
			return
		}
		n = parsed
	}

	names, err := h.Coordinator.FrequentTradingPartnerNames(r.Context(), claims.UserID, n)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	jsonResponse(w, http.StatusOK, map[string][]string{"partners": names})
}

// tradableItem checks that the item exists, belongs to the given owner and
// is in a state where it can be requested.
func (h *TransactionsHandler) tradableItem(r *http.Request, itemID, ownerID int64) (*model.Item, error) {
	item, err := store.GetItem(r.Context(), h.DB, itemID)
	if err != nil {
		return nil, errors.New("internal error")
	}
	switch {
	case item == nil || item.DeletedAt != nil:
		return nil, errors.New("item not found")
	case item.OwnerID != ownerID:
		return nil, errors.New("item has a different owner")
	case !item.Visible:
		return nil, errors.New("item is not approved")
	case item.Reserved:
		return nil, errors.New("item is reserved for another transaction")
	case item.IsLent():
		return nil, errors.New("item is currently lent out")
	}
	return item, nil
}
