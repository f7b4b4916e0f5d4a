package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"submissions/internal/response"
	"submissions/internal/storage"
	"submissions/internal/storage/contexts"
	"submissions/internal/storage/genres"
	"submissions/internal/types"
)

func Handler(cr contexts.Repository, gr genres.Repository, rr *response.Responder) http.Handler {
	r := chi.NewRouter()

	r.Route("/contexts", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			rows, err := cr.GetAll(r.Context())
			if err != nil {
				rr.RespondStorageError(w, r.Context(), err)
				return
			}

			rr.SendJson(w, r.Context(), struct {
				Contexts []*types.Context `json:"contexts"`
			}{Contexts: rows})
		})

		r.Post("/", func(w http.ResponseWriter, r *http.Request) {
			var c types.Context
			if !decodeBody(w, r, rr, &c) {
				return
			}

			_, installed, err := cr.Insert(r.Context(), &c)
			if err != nil {
				rr.RespondStorageError(w, r.Context(), err)
				return
			}

			rr.SendJsonStatus(w, r.Context(), http.StatusCreated, struct {
				Context           *types.Context `json:"context"`
				DefaultsInstalled bool           `json:"defaults_installed"`
			}{Context: &c, DefaultsInstalled: installed})
		})

		r.Route("/{contextId}", func(r chi.Router) {
			r.Get("/", func(w http.ResponseWriter, r *http.Request) {
				contextId, ok := pathId(w, r, rr, "contextId")
				if !ok {
					return
				}

				c, err := cr.GetById(r.Context(), contextId)
				if err != nil {
					rr.RespondStorageError(w, r.Context(), err)
					return
				}
				if c == nil {
					rr.RespondNotFound(w, r.Context(), "context")
					return
				}

				rr.SendJson(w, r.Context(), c)
			})

			r.Put("/", func(w http.ResponseWriter, r *http.Request) {
				contextId, ok := pathId(w, r, rr, "contextId")
				if !ok {
					return
				}

				var c types.Context
				if !decodeBody(w, r, rr, &c) {
					return
				}
				c.Id = contextId

				if err := cr.Update(r.Context(), &c); err != nil {
					rr.RespondStorageError(w, r.Context(), err)
					return
				}

				w.WriteHeader(http.StatusNoContent)
			})

			r.Delete("/", func(w http.ResponseWriter, r *http.Request) {
				contextId, ok := pathId(w, r, rr, "contextId")
				if !ok {
					return
				}

				if err := cr.Delete(r.Context(), contextId); err != nil {
					rr.RespondStorageError(w, r.Context(), err)
					return
				}

				w.WriteHeader(http.StatusNoContent)
			})

			r.Mount("/genres", genresHandler(gr, rr))
		})
	})

	return r
}

func genresHandler(gr genres.Repository, rr *response.Responder) http.Handler {
	r := chi.NewRouter()

	// GET /?category=ARTWORK|dependent=true|all=1&page=1&count=20
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		contextId, ok := pathId(w, r, rr, "contextId")
		if !ok {
			return
		}

		q := r.URL.Query()
		rng := &storage.Range{
			Page:  uint(getIntOrDefault("page", q, 1)),
			Count: uint(getIntOrDefault("count", q, 0)),
		}

		var rs *genres.ResultSet
		var err error

		switch {
		case q.Get("category") != "":
			category, ok := types.ParseGenreCategory(q.Get("category"))
			if !ok {
				rr.RespondAndLogCustom(w, r.Context(), errors.New("unknown category "+q.Get("category")),
					slog.LevelInfo, http.StatusBadRequest)
				return
			}
			rs, err = gr.GetByCategory(r.Context(), category, contextId, rng)
		case q.Get("dependent") != "":
			rs, err = gr.GetByDependenceAndContext(r.Context(), getBool("dependent", q), contextId, rng)
		case getBool("all", q):
			rs, err = gr.GetAllByContext(r.Context(), contextId, rng)
		default:
			rs, err = gr.GetEnabledByContext(r.Context(), contextId, rng)
		}
		if err != nil {
			rr.RespondStorageError(w, r.Context(), err)
			return
		}

		rows, err := rs.Collect(r.Context())
		if err != nil {
			rr.RespondStorageError(w, r.Context(), err)
			return
		}

		if rows == nil {
			rows = make([]*types.Genre, 0)
		}

		rr.SendJson(w, r.Context(), struct {
			Genres []*types.Genre `json:"genres"`
		}{Genres: rows})
	})

	r.Post("/", func(w http.ResponseWriter, r *http.Request) {
		contextId, ok := pathId(w, r, rr, "contextId")
		if !ok {
			return
		}

		var g types.Genre
		if !decodeBody(w, r, rr, &g) {
			return
		}
		g.ContextId = contextId

		if _, err := gr.Insert(r.Context(), &g); err != nil {
			rr.RespondStorageError(w, r.Context(), err)
			return
		}

		rr.SendJsonStatus(w, r.Context(), http.StatusCreated, &g)
	})

	// DELETE / removes every genre of the context
	r.Delete("/", func(w http.ResponseWriter, r *http.Request) {
		contextId, ok := pathId(w, r, rr, "contextId")
		if !ok {
			return
		}

		if err := gr.DeleteAllByContext(r.Context(), contextId); err != nil {
			rr.RespondStorageError(w, r.Context(), err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	})

	r.Post("/install", defaultsAction(rr, gr.InstallDefaults))
	r.Post("/restore", defaultsAction(rr, gr.RestoreDefaults))

	r.Post("/locales/{locale}", func(w http.ResponseWriter, r *http.Request) {
		contextId, ok := pathId(w, r, rr, "contextId")
		if !ok {
			return
		}

		installed, err := gr.InstallLocale(r.Context(), contextId, chi.URLParam(r, "locale"))
		if err != nil {
			rr.RespondStorageError(w, r.Context(), err)
			return
		}

		rr.SendJson(w, r.Context(), installedResponse{Installed: installed})
	})

	r.Get("/by-key/{key}", func(w http.ResponseWriter, r *http.Request) {
		contextId, ok := pathId(w, r, rr, "contextId")
		if !ok {
			return
		}

		g, err := gr.GetByEntryKey(r.Context(), chi.URLParam(r, "key"), contextId)
		sendGenre(w, r, rr, g, err)
	})

	r.Route("/{genreId}", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			contextId, ok := pathId(w, r, rr, "contextId")
			if !ok {
				return
			}
			genreId, ok := pathId(w, r, rr, "genreId")
			if !ok {
				return
			}

			g, err := gr.GetById(r.Context(), genreId, contextId)
			sendGenre(w, r, rr, g, err)
		})

		r.Put("/", func(w http.ResponseWriter, r *http.Request) {
			contextId, ok := pathId(w, r, rr, "contextId")
			if !ok {
				return
			}
			genreId, ok := pathId(w, r, rr, "genreId")
			if !ok {
				return
			}

			current, err := gr.GetById(r.Context(), genreId, contextId)
			if err != nil {
				rr.RespondStorageError(w, r.Context(), err)
				return
			}
			if current == nil {
				rr.RespondNotFound(w, r.Context(), "genre")
				return
			}

			var g types.Genre
			if !decodeBody(w, r, rr, &g) {
				return
			}
			g.Id = current.Id
			g.ContextId = current.ContextId

			if err := gr.Update(r.Context(), &g); err != nil {
				rr.RespondStorageError(w, r.Context(), err)
				return
			}

			w.WriteHeader(http.StatusNoContent)
		})

		// DELETE /{genreId}?hard=1 removes the genre for good instead of disabling it
		r.Delete("/", func(w http.ResponseWriter, r *http.Request) {
			contextId, ok := pathId(w, r, rr, "contextId")
			if !ok {
				return
			}
			genreId, ok := pathId(w, r, rr, "genreId")
			if !ok {
				return
			}

			g, err := gr.GetById(r.Context(), genreId, contextId)
			if err != nil {
				rr.RespondStorageError(w, r.Context(), err)
				return
			}
			if g == nil {
				rr.RespondNotFound(w, r.Context(), "genre")
				return
			}

			if getBool("hard", r.URL.Query()) {
				err = gr.HardDelete(r.Context(), g)
			} else {
				err = gr.SoftDelete(r.Context(), g.Id)
			}
			if err != nil {
				rr.RespondStorageError(w, r.Context(), err)
				return
			}

			w.WriteHeader(http.StatusNoContent)
		})
	})

	return r
}

type installedResponse struct {
	Installed bool `json:"installed"`
}

func defaultsAction(rr *response.Responder,
	fn func(ctx context.Context, contextId int64) (bool, error)) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {
		contextId, ok := pathId(w, r, rr, "contextId")
		if !ok {
			return
		}

		installed, err := fn(r.Context(), contextId)
		if err != nil {
			rr.RespondStorageError(w, r.Context(), err)
			return
		}

		rr.SendJson(w, r.Context(), installedResponse{Installed: installed})
	}
}

func sendGenre(w http.ResponseWriter, r *http.Request, rr *response.Responder, g *types.Genre, err error) {
	if err != nil {
		rr.RespondStorageError(w, r.Context(), err)
		return
	}
	if g == nil {
		rr.RespondNotFound(w, r.Context(), "genre")
		return
	}

	rr.SendJson(w, r.Context(), g)
}

func decodeBody(w http.ResponseWriter, r *http.Request, rr *response.Responder, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		rr.RespondAndLogCustom(w, r.Context(), errors.New("invalid request body: "+err.Error()),
			slog.LevelInfo, http.StatusBadRequest)
		return false
	}

	return true
}

func pathId(w http.ResponseWriter, r *http.Request, rr *response.Responder, key string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	if err != nil || id <= 0 {
		rr.RespondAndLogCustom(w, r.Context(), errors.New("invalid "+key),
			slog.LevelInfo, http.StatusBadRequest)
		return 0, false
	}

	return id, true
}

func getIntOrDefault(key string, q url.Values, default_ int) int {
	if ls := q.Get(key); ls != "" {
		limit, err := strconv.Atoi(ls)
		if err == nil && limit >= 0 {
			return limit
		}
	}

	return default_
}

func getBool(key string, q url.Values) bool {
	switch strings.ToLower(strings.TrimSpace(q.Get(key))) {
	case "1", "yes", "on", "true":
		return true
	}

	return false
}
