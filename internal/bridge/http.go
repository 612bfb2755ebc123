// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/elewad/chainpass/internal/logger"
	"github.com/elewad/chainpass/models"
)

// NewRouter builds the HTTP gateway used by the non-extension web
// embedding: the same envelope as the other transports, POSTed to /rpc.
// Transport-level problems (unreadable body) are HTTP errors; everything
// past decoding travels inside the envelope, so the response is 200 even
// when the envelope carries an error string.
func NewRouter(h Handler, log *logger.Logger) *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)

	router.Post("/rpc", func(w http.ResponseWriter, r *http.Request) {
		var msg models.Message
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			log.Warn().Err(err).Msg("bad rpc envelope")
			http.Error(w, "bad rpc envelope", http.StatusBadRequest)
			return
		}

		resp := h(r.Context(), msg)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			log.Error().Err(err).Msg("write rpc response")
		}
	})

	return router
}
