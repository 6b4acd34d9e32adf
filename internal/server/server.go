package server

import (
	"net/http"
	"sync"

	"github.com/giftwise/giftwise/internal/utils"
	"github.com/giftwise/giftwise/pkg/campaign"
	"github.com/giftwise/giftwise/pkg/catalog"
)

// Server serves a live preview of one campaign draft. Edits made through
// the API go through the wizard, so truncation and selection rules are the
// same as on the command line.
type Server struct {
	Username string
	Password string
	Title    string

	// OnChange, when set, is called with the draft after every edit.
	OnChange func(campaign.Draft) error

	mu     sync.Mutex
	wizard *campaign.Wizard
	repo   *catalog.Repository
}

func New(w *campaign.Wizard, repo *catalog.Repository, user, pass string) *Server {
	return &Server{
		Username: user,
		Password: pass,
		Title:    "Landing page preview",
		wizard:   w,
		repo:     repo,
	}
}

// Handler returns the routes, all behind basic auth when credentials are set.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.basicAuth(s.handlePreview))
	mux.HandleFunc("GET /api/campaign", s.basicAuth(s.handleCampaign))
	mux.HandleFunc("PUT /api/campaign/landing", s.basicAuth(s.handleUpdateLanding))
	mux.HandleFunc("GET /api/recommendations", s.basicAuth(s.handleRecommendations))

	return mux
}

func (s *Server) Start(addr string) error {
	utils.Log.Infof("Serving preview on http://%s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) basicAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Username == "" && s.Password == "" {
			next(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.Username || pass != s.Password {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}
