package http

import (
	"net/http"
	"strings"
)

type RouterConfig struct {
	Auth     *AuthHandler
	Rooms    *RoomHandler
	Bookings *BookingHandler
	Profile  *ProfileHandler

	// RequireSession wraps every route except /login. Left nil the routes are
	// exposed unauthenticated, which only makes sense in tests.
	RequireSession func(http.Handler) http.Handler

	// Middleware wraps the whole router, first entry outermost.
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	protect := func(h http.HandlerFunc) http.Handler {
		if cfg.RequireSession == nil {
			return h
		}
		return cfg.RequireSession(h)
	}

	if cfg.Auth != nil {
		mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.Login(w, r)
		})
		mux.HandleFunc("/logout", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.Logout(w, r)
		})
	}

	if cfg.Rooms != nil {
		mux.Handle("/rooms", protect(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Rooms.List(w, r)
		}))
		mux.Handle("/rooms/", protect(func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, "/rooms/")
			id, sub, _ := strings.Cut(rest, "/")
			if id == "" {
				notFound(w, r)
				return
			}
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}

			r = r.WithContext(ContextWithRoomID(r.Context(), id))
			switch sub {
			case "":
				cfg.Rooms.Get(w, r)
			case "bookings":
				cfg.Rooms.Bookings(w, r)
			case "calendar":
				cfg.Rooms.Calendar(w, r)
			default:
				notFound(w, r)
			}
		}))
	}

	if cfg.Bookings != nil {
		mux.Handle("/bookings", protect(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Bookings.List(w, r)
			case http.MethodPost:
				cfg.Bookings.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		}))
		mux.Handle("/bookings/", protect(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimPrefix(r.URL.Path, "/bookings/")
			if id == "" {
				notFound(w, r)
				return
			}

			if id == "upcoming" {
				if r.Method != http.MethodGet {
					methodNotAllowed(w, http.MethodGet)
					return
				}
				cfg.Bookings.Upcoming(w, r)
				return
			}

			r = r.WithContext(ContextWithBookingID(r.Context(), id))
			switch r.Method {
			case http.MethodGet:
				cfg.Bookings.Get(w, r)
			case http.MethodPut:
				cfg.Bookings.Update(w, r)
			case http.MethodDelete:
				cfg.Bookings.Delete(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
			}
		}))
	}

	if cfg.Profile != nil {
		mux.Handle("/profile", protect(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Profile.Get(w, r)
			case http.MethodPut:
				cfg.Profile.Update(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPut)
			}
		}))
	}

	// Everything else is an unknown route.
	mux.HandleFunc("/", notFound)

	var handler http.Handler = mux
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}

	return handler
}

// notFound answers unknown routes with the same JSON envelope the handlers
// use for every other error.
func notFound(w http.ResponseWriter, r *http.Request) {
	newResponder(nil).writeError(r.Context(), w, http.StatusNotFound, nil)
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
