package mux

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	gmux "github.com/gorilla/mux"
	appconfig "setteemezzo-server/internal/config"
	"setteemezzo-server/internal/jwt"
	"setteemezzo-server/pkg/lobby"
	"setteemezzo-server/pkg/model"
)

type ctxKey int

const ctxPlayerKey ctxKey = iota

// Mux handles HTTP requests
type Mux struct {
	*gmux.Router
	config    config
	version   string
	recaptcha recaptcha
	lobby     *lobby.Lobby

	// store for testing purposes
	authRouter  *gmux.Router
	adminRouter *gmux.Router
}

type config struct {
	// playerCreateDelay is the minimum duration between two player create events from a single remote address
	playerCreateDelay time.Duration

	// startingBalance is the balance given to newly registered players
	startingBalance int
}

// NewMux returns a new HTTP mux
func NewMux(version string, lb *lobby.Lobby) *Mux {
	this := &Mux{
		Router:  gmux.NewRouter(),
		version: version,
		lobby:   lb,
		config: config{
			playerCreateDelay: time.Second * time.Duration(appconfig.Instance().PlayerCreateDelay),
			startingBalance:   appconfig.Instance().StartingBalance,
		},
		recaptcha: newRecaptcha(),
	}

	this.authRouter = this.Router.NewRoute().Subrouter()
	this.authRouter.Use(this.authMiddleware)

	this.adminRouter = this.authRouter.NewRoute().Subrouter()
	this.adminRouter.Use(this.adminMiddleware)

	// unauthorized endpoints
	{
		r := this.Router
		r.Methods(http.MethodGet).Path("/health").Handler(this.getHealth())
		r.Methods(http.MethodPost).Path("/player").Handler(this.postPlayer())
		r.Methods(http.MethodPost).Path("/player/auth").Handler(this.postPlayerAuth())
		r.Methods(http.MethodGet).Path("/player/auth/{jwt:.*}").Handler(this.getPlayerAuthJWT())
		r.Methods(http.MethodGet).Path("/leaderboard").Handler(this.getLeaderboard())
	}

	// requires bearer authorization
	{
		r := this.authRouter

		r.Methods(http.MethodPost).Path("/player/{id:[0-9]+}").Handler(this.postPlayerID())

		r.Methods(http.MethodPost).Path("/game").Handler(this.postGame())

		gr := r.PathPrefix("/game/{code:[A-Z0-9]{4}}").Subrouter()
		gr.Methods(http.MethodGet).Path("").Handler(this.getGameCode())
		gr.Methods(http.MethodGet).Path("/ws").Handler(this.getGameCodeWS())
		gr.Methods(http.MethodPost).Path("/join").Handler(this.postGameCodeJoin())
		gr.Methods(http.MethodPost).Path("/hit").Handler(this.postGameCodeHit())
		gr.Methods(http.MethodPost).Path("/stand").Handler(this.postGameCodeStand())
	}

	// requires admin access
	// depends on authMiddleware
	{
		r := this.adminRouter
		r.Methods(http.MethodGet).Path("/admin/player/{id:[0-9]+}").Handler(this.getAdminPlayerID())
		r.Methods(http.MethodPost).Path("/admin/player/{id:[0-9]+}").Handler(this.postAdminPlayerID())
	}

	return this
}

func (m *Mux) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.FormValue("access_token")
		if token == "" {
			authHeader := strings.Split(r.Header.Get("Authorization"), " ")
			if len(authHeader) != 2 || strings.ToLower(authHeader[0]) != "bearer" {
				writeJSONError(w, http.StatusUnauthorized, nil)
				return
			}

			token = authHeader[1]
		}

		id, err := jwt.ValidPlayerID(token)
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, nil)
			return
		}

		player, err := model.GetPlayerByID(r.Context(), id)
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, nil)
			return
		}

		newCtx := context.WithValue(r.Context(), ctxPlayerKey, player)
		w.Header().Set("SetteEMezzo-PlayerID", strconv.FormatInt(player.ID, 10))
		next.ServeHTTP(w, r.WithContext(newCtx))
	})
}

// adminMiddleware requires authMiddleware to execute first
func (m *Mux) adminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		player := r.Context().Value(ctxPlayerKey).(*model.Player)
		if !player.IsSiteAdmin {
			writeJSONError(w, http.StatusForbidden, nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}
