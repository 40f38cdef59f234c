package http

import (
	"net/http"
	"strings"
)

// RouterConfig wires handlers and middleware into the dashboard API surface.
// Session enforcement is applied per route so /login and /events stay open.
type RouterConfig struct {
	Auth      *AuthHandler
	Rooms     *RoomHandler
	Sessions  *SessionHandler
	Attendees *AttendeeHandler
	Checkins  *CheckinHandler
	Speakers  *SpeakerHandler
	Alerts    *AlertHandler
	Analytics *AnalyticsHandler
	Archives  *ArchiveHandler
	Events    *EventsHandler

	// SessionMiddleware guards every route except /login and /events.
	SessionMiddleware func(http.Handler) http.Handler
	// Middleware wraps the whole router, outermost first.
	Middleware []func(http.Handler) http.Handler
}

// NewRouter assembles the dashboard's HTTP surface.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	guard := cfg.SessionMiddleware
	if guard == nil {
		guard = func(next http.Handler) http.Handler { return next }
	}
	protect := func(h http.HandlerFunc) http.Handler {
		return guard(h)
	}

	if cfg.Auth != nil {
		mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.Login(w, r)
		})
		mux.Handle("/logout", protect(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.Logout(w, r)
		}))
	}

	if cfg.Rooms != nil {
		mux.Handle("/rooms", protect(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Rooms.List(w, r)
			case http.MethodPost:
				cfg.Rooms.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		}))
		mux.Handle("/rooms/", protect(func(w http.ResponseWriter, r *http.Request) {
			id, sub := splitResourcePath(r.URL.Path, "/rooms/")
			if id == "" {
				http.NotFound(w, r)
				return
			}
			if id == "overview" && sub == "" {
				if r.Method != http.MethodGet {
					methodNotAllowed(w, http.MethodGet)
					return
				}
				cfg.Rooms.Overview(w, r)
				return
			}

			r = r.WithContext(ContextWithResourceID(r.Context(), id))
			switch sub {
			case "":
				switch r.Method {
				case http.MethodGet:
					cfg.Rooms.Get(w, r)
				case http.MethodPut:
					cfg.Rooms.Update(w, r)
				case http.MethodDelete:
					cfg.Rooms.Delete(w, r)
				default:
					methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
				}
			case "archive":
				if r.Method != http.MethodPost {
					methodNotAllowed(w, http.MethodPost)
					return
				}
				cfg.Rooms.Archive(w, r)
			case "sessions":
				if r.Method != http.MethodGet {
					methodNotAllowed(w, http.MethodGet)
					return
				}
				cfg.Rooms.Sessions(w, r)
			default:
				http.NotFound(w, r)
			}
		}))
	}

	if cfg.Sessions != nil {
		mux.Handle("/sessions", protect(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Sessions.List(w, r)
			case http.MethodPost:
				cfg.Sessions.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		}))
		mux.Handle("/sessions/", protect(func(w http.ResponseWriter, r *http.Request) {
			id, sub := splitResourcePath(r.URL.Path, "/sessions/")
			if id == "" || sub != "" {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithResourceID(r.Context(), id))
			switch r.Method {
			case http.MethodGet:
				cfg.Sessions.Get(w, r)
			case http.MethodPut:
				cfg.Sessions.Update(w, r)
			case http.MethodDelete:
				cfg.Sessions.Delete(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
			}
		}))
	}

	if cfg.Attendees != nil {
		mux.Handle("/attendees", protect(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Attendees.List(w, r)
			case http.MethodPost:
				cfg.Attendees.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		}))
		mux.Handle("/attendees/", protect(func(w http.ResponseWriter, r *http.Request) {
			id, sub := splitResourcePath(r.URL.Path, "/attendees/")
			if id == "" {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithResourceID(r.Context(), id))
			switch sub {
			case "":
				switch r.Method {
				case http.MethodGet:
					cfg.Attendees.Get(w, r)
				case http.MethodPut:
					cfg.Attendees.Update(w, r)
				case http.MethodDelete:
					cfg.Attendees.Delete(w, r)
				default:
					methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
				}
			case "checkout":
				if r.Method != http.MethodPost {
					methodNotAllowed(w, http.MethodPost)
					return
				}
				cfg.Attendees.Checkout(w, r)
			case "log":
				if r.Method != http.MethodGet {
					methodNotAllowed(w, http.MethodGet)
					return
				}
				cfg.Attendees.Log(w, r)
			default:
				http.NotFound(w, r)
			}
		}))
	}

	if cfg.Checkins != nil {
		mux.Handle("/checkins", protect(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Checkins.Scan(w, r)
		}))
	}

	if cfg.Speakers != nil {
		mux.Handle("/speakers", protect(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Speakers.List(w, r)
			case http.MethodPost:
				cfg.Speakers.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		}))
		mux.Handle("/speakers/", protect(func(w http.ResponseWriter, r *http.Request) {
			id, sub := splitResourcePath(r.URL.Path, "/speakers/")
			if id == "" || sub != "" {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithResourceID(r.Context(), id))
			switch r.Method {
			case http.MethodGet:
				cfg.Speakers.Get(w, r)
			case http.MethodPut:
				cfg.Speakers.Update(w, r)
			case http.MethodDelete:
				cfg.Speakers.Delete(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
			}
		}))
	}

	if cfg.Alerts != nil {
		mux.Handle("/alerts", protect(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Alerts.List(w, r)
			case http.MethodPost:
				cfg.Alerts.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		}))
		mux.Handle("/alerts/", protect(func(w http.ResponseWriter, r *http.Request) {
			id, sub := splitResourcePath(r.URL.Path, "/alerts/")
			if id == "" || sub != "deactivate" {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			r = r.WithContext(ContextWithResourceID(r.Context(), id))
			cfg.Alerts.Deactivate(w, r)
		}))
	}

	if cfg.Analytics != nil {
		mux.Handle("/analytics/overview", protect(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Analytics.Overview(w, r)
		}))
		mux.Handle("/photos", protect(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Analytics.ListPhotos(w, r)
			case http.MethodPost:
				cfg.Analytics.CreatePhoto(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		}))
		mux.Handle("/photos/", protect(func(w http.ResponseWriter, r *http.Request) {
			id, sub := splitResourcePath(r.URL.Path, "/photos/")
			if id == "" || sub != "" {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodDelete {
				methodNotAllowed(w, http.MethodDelete)
				return
			}
			r = r.WithContext(ContextWithResourceID(r.Context(), id))
			cfg.Analytics.DeletePhoto(w, r)
		}))
	}

	if cfg.Archives != nil {
		mux.Handle("/archives", protect(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Archives.List(w, r)
		}))
		mux.Handle("/archives/", protect(func(w http.ResponseWriter, r *http.Request) {
			id, sub := splitResourcePath(r.URL.Path, "/archives/")
			if id == "" || sub != "" {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			r = r.WithContext(ContextWithResourceID(r.Context(), id))
			cfg.Archives.Get(w, r)
		}))
	}

	if cfg.Events != nil {
		mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Events.Stream(w, r)
		})
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}

// splitResourcePath extracts "{id}" and an optional single trailing
// "{sub}" segment from a path below the given prefix.
func splitResourcePath(path, prefix string) (id, sub string) {
	rest := strings.TrimPrefix(path, prefix)
	rest = strings.Trim(rest, "/")
	if rest == "" {
		return "", ""
	}
	parts := strings.SplitN(rest, "/", 2)
	id = parts[0]
	if len(parts) == 2 {
		sub = parts[1]
	}
	return id, sub
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
