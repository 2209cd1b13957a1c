package cart

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/massaviva/massaviva-backend/api/responses"
	"github.com/massaviva/massaviva-backend/api/validators"
	cartcore "github.com/massaviva/massaviva-backend/internal/cart"
	pkgerrors "github.com/massaviva/massaviva-backend/pkg/errors"
	"github.com/massaviva/massaviva-backend/pkg/logger"
)

// Fetch returns the current cart with recomputed line subtotals and total.
func Fetch(store *cartcore.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart store unavailable"))
			return
		}
		responses.WriteSuccess(w, newCartView(store.Items()))
	}
}

// AddItem adds a configured product to the cart. A line with the same
// product configuration is merged by incrementing its quantity.
func AddItem(store *cartcore.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart store unavailable"))
			return
		}

		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := toLineItem(payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store.AddItem(item)
		responses.WriteSuccessStatus(w, http.StatusCreated, newCartView(store.Items()))
	}
}

// UpdateQuantity sets the quantity of an existing line. Quantities below one
// are clamped to one; an unknown line id leaves the cart untouched.
func UpdateQuantity(store *cartcore.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart store unavailable"))
			return
		}

		lineID := chi.URLParam(r, "lineId")
		if lineID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "missing line id"))
			return
		}

		var payload updateQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store.UpdateQuantity(lineID, *payload.Quantity)
		responses.WriteSuccess(w, newCartView(store.Items()))
	}
}

// RemoveItem drops a line from the cart. Removing an absent line is a no-op.
func RemoveItem(store *cartcore.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart store unavailable"))
			return
		}

		lineID := chi.URLParam(r, "lineId")
		if lineID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "missing line id"))
			return
		}

		store.RemoveItem(lineID)
		responses.WriteSuccess(w, newCartView(store.Items()))
	}
}

// Clear empties the cart.
func Clear(store *cartcore.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart store unavailable"))
			return
		}

		store.Clear()
		responses.WriteSuccess(w, newCartView(store.Items()))
	}
}

// Stream pushes the cart as server-sent events: the current snapshot on
// connect, then one event per change, until the client disconnects. This is
// the HTTP face of the store's subscription mechanism.
func Stream(store *cartcore.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart store unavailable"))
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "streaming unsupported"))
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)

		// Store notifications run on the mutating goroutine, so they are
		// queued and written from this handler only.
		updates := make(chan []cartcore.LineItem, 16)
		cancel := store.Subscribe(func(items []cartcore.LineItem) {
			select {
			case updates <- items:
			default:
				// Slow client: drop the intermediate snapshot. The next
				// event carries the full state anyway.
			}
		})
		defer cancel()

		writeEvent := func(items []cartcore.LineItem) bool {
			payload, err := json.Marshal(newCartView(items))
			if err != nil {
				return false
			}
			if _, err := w.Write([]byte("data: ")); err != nil {
				return false
			}
			if _, err := w.Write(payload); err != nil {
				return false
			}
			if _, err := w.Write([]byte("\n\n")); err != nil {
				return false
			}
			flusher.Flush()
			return true
		}

		if !writeEvent(store.Items()) {
			return
		}

		for {
			// Drain queued snapshots before honoring disconnect, so events
			// produced just before the client went away still go out.
			select {
			case items := <-updates:
				if !writeEvent(items) {
					return
				}
				continue
			default:
			}

			select {
			case <-r.Context().Done():
				return
			case items := <-updates:
				if !writeEvent(items) {
					return
				}
			}
		}
	}
}
