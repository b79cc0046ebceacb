package mux

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"setteemezzo-server/pkg/lobby"
	"setteemezzo-server/pkg/model"
	"setteemezzo-server/pkg/sevenhalf"
)

type postGamePayload struct {
	Wager int `json:"wager"`
}

type postGameResponse struct {
	Code  string           `json:"code"`
	State *sevenhalf.State `json:"state"`
}

func (m *Mux) postGame() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var pp postGamePayload
		if !decodeRequest(w, r, &pp) {
			return
		}

		player := r.Context().Value(ctxPlayerKey).(*model.Player)
		code, err := m.lobby.Create(r.Context(), player.ID, pp.Wager)
		if err != nil {
			writeGameError(w, err)
			return
		}

		state, err := m.lobby.View(code, player.ID)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err)
			return
		}

		writeJSON(w, http.StatusCreated, postGameResponse{
			Code:  code,
			State: state,
		})
	}
}

func (m *Mux) getGameCode() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		player := r.Context().Value(ctxPlayerKey).(*model.Player)

		state, err := m.lobby.View(mux.Vars(r)["code"], player.ID)
		if err != nil {
			writeGameError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, state)
	})
}

func (m *Mux) postGameCodeJoin() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		player := r.Context().Value(ctxPlayerKey).(*model.Player)
		code := mux.Vars(r)["code"]

		if err := m.lobby.Join(r.Context(), code, player.ID); err != nil {
			writeGameError(w, err)
			return
		}

		state, err := m.lobby.View(code, player.ID)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err)
			return
		}

		writeJSON(w, http.StatusCreated, state)
	})
}

func (m *Mux) postGameCodeHit() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		player := r.Context().Value(ctxPlayerKey).(*model.Player)

		state, err := m.lobby.Hit(r.Context(), mux.Vars(r)["code"], player.ID)
		if err != nil {
			writeGameError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, state)
	})
}

func (m *Mux) postGameCodeStand() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		player := r.Context().Value(ctxPlayerKey).(*model.Player)

		state, err := m.lobby.Stand(r.Context(), mux.Vars(r)["code"], player.ID)
		if err != nil {
			writeGameError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, state)
	})
}

// writeGameError maps lobby and session errors onto HTTP status codes
func writeGameError(w http.ResponseWriter, err error) {
	switch {
	case err == lobby.ErrInvalidCode:
		writeJSONError(w, http.StatusNotFound, err)
	case err == lobby.ErrNoCodesAvailable:
		writeJSONError(w, http.StatusServiceUnavailable, err)
	case isPlayError(err):
		writeJSONError(w, http.StatusBadRequest, err)
	default:
		writeJSONError(w, http.StatusInternalServerError, err)
	}
}

func isPlayError(err error) bool {
	var ue model.UserError
	if errors.As(err, &ue) {
		return true
	}

	switch err {
	case sevenhalf.ErrTableFull,
		sevenhalf.ErrAlreadySeated,
		sevenhalf.ErrNotSeated,
		sevenhalf.ErrNotTurn,
		sevenhalf.ErrGameOver,
		sevenhalf.ErrInvalidWager:
		return true
	}

	return false
}
