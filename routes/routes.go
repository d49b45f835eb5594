package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"

	"github.com/Dosada05/tkd-tournament/handlers"
)

// Handlers собирает все HTTP обработчики приложения.
type Handlers struct {
	Athlete   *handlers.AthleteHandler
	Category  *handlers.CategoryHandler
	Bracket   *handlers.BracketHandler
	Match     *handlers.MatchHandler
	Dashboard *handlers.DashboardHandler
	Sync      *handlers.SyncHandler
	Snapshot  *handlers.SnapshotHandler
	WebSocket *handlers.WebSocketHandler
}

func SetupRoutes(router chi.Router, allowedOrigins []string, h Handlers) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// WebSocket без таймаута: соединение живёт долго
	router.Get("/ws", h.WebSocket.ServeWs)

	router.Route("/api", func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(30 * time.Second))

		r.Route("/athletes", func(r chi.Router) {
			r.Get("/", h.Athlete.ListAthletes)
			r.Post("/", h.Athlete.CreateAthlete)
			r.Get("/competing", h.Athlete.ListCompeting)
			r.Get("/available", h.Athlete.ListAvailable)

			r.Route("/{athleteID}", func(r chi.Router) {
				r.Get("/", h.Athlete.GetAthlete)
				r.Put("/", h.Athlete.UpdateAthlete)
				r.Delete("/", h.Athlete.DeleteAthlete)
				r.Patch("/attendance", h.Athlete.SetAttendance)
				r.Patch("/status", h.Athlete.SetStatus)
				r.Get("/status-history", h.Athlete.StatusHistory)
			})
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", h.Category.ListCategories)
			r.Post("/", h.Category.CreateCategory)

			r.Route("/{categoryID}", func(r chi.Router) {
				r.Get("/", h.Category.GetCategory)
				r.Delete("/", h.Category.DeleteCategory)
				r.Patch("/active", h.Category.SetCategoryActive)
				r.Get("/results", h.Category.ListResults)
				r.Post("/results", h.Category.RecordResult)
			})
		})

		r.Route("/main-categories", func(r chi.Router) {
			r.Get("/", h.Bracket.ListMainCategories)
			r.Post("/", h.Bracket.CreateMainCategory)

			r.Route("/{mainID}", func(r chi.Router) {
				r.Get("/", h.Bracket.GetMainCategory)
				r.Delete("/", h.Bracket.DeleteMainCategory)
				r.Get("/tree", h.Bracket.GetBracketTree)
				r.Get("/sub-categories", h.Bracket.ListSubCategories)
				r.Post("/sub-categories", h.Bracket.CreateSubCategory)
			})
		})

		r.Delete("/sub-categories/{subID}", h.Bracket.DeleteSubCategory)
		r.Get("/sub-categories/{subID}/groups", h.Bracket.ListAthleteGroups)
		r.Post("/sub-categories/{subID}/groups", h.Bracket.CreateAthleteGroup)

		r.Route("/groups/{groupID}", func(r chi.Router) {
			r.Get("/", h.Bracket.GetAthleteGroup)
			r.Delete("/", h.Bracket.DeleteAthleteGroup)
			r.Get("/athletes", h.Bracket.ListGroupAthletes)
			r.Post("/athletes", h.Bracket.AddAthleteToGroup)
			r.Get("/eliminated", h.Bracket.ListEliminated)
			r.Post("/advance", h.Bracket.AdvanceQueue)

			r.Route("/athletes/{athleteID}", func(r chi.Router) {
				r.Delete("/", h.Bracket.RemoveAthleteFromGroup)
				r.Patch("/position", h.Bracket.UpdateAthletePosition)
				r.Patch("/eliminate", h.Bracket.EliminateAthlete)
				r.Patch("/medal", h.Bracket.UpdateAthleteMedal)
			})
		})

		r.Route("/matches", func(r chi.Router) {
			r.Get("/", h.Match.ListMatches)
			r.Post("/", h.Match.CreateMatch)
			r.Get("/{matchID}", h.Match.GetMatch)
			r.Post("/{matchID}/winner", h.Match.DeclareWinner)
		})

		r.Get("/dashboard/stats", h.Dashboard.GetStats)

		r.Route("/sync", func(r chi.Router) {
			r.Post("/roster/{competitionID}", h.Sync.ImportRoster)
			r.Post("/transfer", h.Sync.TransferAthletes)
		})

		r.Route("/snapshots", func(r chi.Router) {
			r.Get("/", h.Snapshot.ListSnapshots)
			r.Post("/", h.Snapshot.CreateSnapshot)
			r.Get("/current", h.Snapshot.ExportSnapshot)
		})
	})
}
