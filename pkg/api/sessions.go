package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/foodweb/pkg/core/web"
	errs "github.com/matzehuels/foodweb/pkg/errors"
	"github.com/matzehuels/foodweb/pkg/graph"
	"github.com/matzehuels/foodweb/pkg/session"
)

type openRequest struct {
	Web  string `json:"web"`
	Seed uint64 `json:"seed,omitempty"`
}

// sessionView is the settled state of a session.
type sessionView struct {
	ID       string          `json:"id"`
	Web      string          `json:"web"`
	Seed     uint64          `json:"seed,omitempty"`
	Runs     int             `json:"runs"`
	Graph    graph.Graph     `json:"graph"`
	Analysis *graph.Analysis `json:"analysis,omitempty"`
}

type tickResponse struct {
	Action string `json:"action"`
	Busy   bool   `json:"busy"`
}

type nodeRequest struct {
	ID    int           `json:"id"`
	Label string        `json:"label,omitempty"`
	Pos   *graph.Point  `json:"pos,omitempty"`
	Focus *graph.Point3 `json:"focus,omitempty"`
	Flags []string      `json:"flags,omitempty"`
}

type linkRequest struct {
	Source    int  `json:"source"`
	Target    int  `json:"target"`
	Removable bool `json:"removable,omitempty"`
}

func (s *Server) openSession(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	doc, err := s.store.Get(r.Context(), req.Web)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	seed := req.Seed
	if seed == 0 {
		seed = doc.Seed
	}
	sess, err := s.sessions.Open(doc.Name, doc.Graph, seed)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Debug("session opened", "id", sess.ID, "web", doc.Name)

	s.withSession(w, r, sess, func() error {
		view, err := s.settle(r, sess)
		if err != nil {
			return err
		}
		writeJSON(w, http.StatusCreated, view)
		return nil
	})
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	s.lockSession(w, r, func(sess *session.Session) error {
		view, err := s.settle(r, sess)
		if err != nil {
			return err
		}
		writeJSON(w, http.StatusOK, view)
		return nil
	})
}

func (s *Server) closeSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Close(chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) tickSession(w http.ResponseWriter, r *http.Request) {
	s.lockSession(w, r, func(sess *session.Session) error {
		act := sess.Engine.Tick()
		writeJSON(w, http.StatusOK, tickResponse{Action: act.String(), Busy: sess.Engine.Busy()})
		return nil
	})
}

func (s *Server) saveSession(w http.ResponseWriter, r *http.Request) {
	s.lockSession(w, r, func(sess *session.Session) error {
		view, err := s.settle(r, sess)
		if err != nil {
			return err
		}
		doc := graph.Document{
			Name:      sess.Web,
			Graph:     view.Graph,
			Seed:      sess.Seed,
			Analysis:  view.Analysis,
			UpdatedAt: time.Now().UTC(),
		}
		if err := s.store.Put(r.Context(), doc); err != nil {
			return err
		}
		writeJSON(w, http.StatusOK, doc)
		return nil
	})
}

func (s *Server) renderSession(w http.ResponseWriter, r *http.Request) {
	s.lockSession(w, r, func(sess *session.Session) error {
		opts, err := s.renderOptions(r, sess.Seed)
		if err != nil {
			return err
		}
		view, err := s.settle(r, sess)
		if err != nil {
			return err
		}
		s.writeRender(w, r, view.Graph, *view.Analysis, opts)
		return nil
	})
}

func (s *Server) addNode(w http.ResponseWriter, r *http.Request) {
	var req nodeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := errs.ValidateNodeID(req.ID); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := errs.ValidateLabel(req.Label); err != nil {
		s.writeError(w, r, err)
		return
	}
	flags, err := graph.ParseFlags(req.Flags)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.lockSession(w, r, func(sess *session.Session) error {
		st := sess.Engine.Store()
		if st.HasNode(req.ID) || st.IsArchived(req.ID) {
			return errs.New(errs.ErrCodeConflict, "node %d already exists", req.ID)
		}
		n := web.Node{ID: req.ID, Flags: flags}
		if req.Pos != nil {
			n.Pos.X, n.Pos.Y = req.Pos.X, req.Pos.Y
		}
		if req.Focus != nil {
			n.Focus.X, n.Focus.Y, n.Focus.Z = req.Focus.X, req.Focus.Y, req.Focus.Z
			n.HasFocus = true
		}
		st.AddNode(n)
		sess.SetLabel(req.ID, req.Label)
		return s.mutated(w, sess, http.StatusCreated)
	})
}

func (s *Server) removeNode(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "node")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	permanent, err := boolQuery(r, "permanent")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.lockSession(w, r, func(sess *session.Session) error {
		st := sess.Engine.Store()
		switch {
		case permanent && (st.HasNode(id) || st.IsArchived(id)):
			st.RemoveNodePermanently(id)
			sess.SetLabel(id, "")
		case !permanent && st.HasNode(id):
			st.ArchiveNode(id)
		default:
			return errs.New(errs.ErrCodeNodeNotFound, "node %d not found", id)
		}
		return s.mutated(w, sess, http.StatusOK)
	})
}

func (s *Server) restoreNode(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "node")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.lockSession(w, r, func(sess *session.Session) error {
		st := sess.Engine.Store()
		if !st.IsArchived(id) {
			if st.HasNode(id) {
				return errs.New(errs.ErrCodeConflict, "node %d is not archived", id)
			}
			return errs.New(errs.ErrCodeNodeNotFound, "node %d not found", id)
		}
		st.RestoreNode(id)
		return s.mutated(w, sess, http.StatusOK)
	})
}

func (s *Server) addLink(w http.ResponseWriter, r *http.Request) {
	var req linkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.lockSession(w, r, func(sess *session.Session) error {
		st := sess.Engine.Store()
		if err := st.CanAddLink(req.Source, req.Target); err != nil {
			return linkError(req.Source, req.Target, err)
		}
		st.AddLink(web.Link{Source: req.Source, Target: req.Target, Removable: req.Removable})
		return s.mutated(w, sess, http.StatusCreated)
	})
}

func (s *Server) removeLink(w http.ResponseWriter, r *http.Request) {
	source, err := intParam(r, "source")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	target, err := intParam(r, "target")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.lockSession(w, r, func(sess *session.Session) error {
		st := sess.Engine.Store()
		if err := st.CanRemoveLink(source, target); err != nil {
			return linkError(source, target, err)
		}
		st.RemoveLink(source, target)
		return s.mutated(w, sess, http.StatusOK)
	})
}

// =============================================================================
// Helpers
// =============================================================================

// lockSession looks up the session named in the URL and runs fn under its
// lock. An error returned by fn is written as the response.
func (s *Server) lockSession(w http.ResponseWriter, r *http.Request, fn func(*session.Session) error) {
	sess, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.withSession(w, r, sess, func() error { return fn(sess) })
}

func (s *Server) withSession(w http.ResponseWriter, r *http.Request, sess *session.Session, fn func() error) {
	sess.Lock()
	defer sess.Unlock()
	if err := fn(); err != nil {
		s.writeError(w, r, err)
	}
}

// settle waits for pending heavy work and returns the session state.
// Caller must hold the session lock.
func (s *Server) settle(r *http.Request, sess *session.Session) (sessionView, error) {
	eng := sess.Engine
	if err := eng.Wait(r.Context()); err != nil {
		return sessionView{}, errs.Wrap(errs.ErrCodeTimeout, err, "waiting for layout")
	}
	a := graph.NewAnalysis(eng.Analysis(), eng.Positions())
	return sessionView{
		ID:       sess.ID,
		Web:      sess.Web,
		Seed:     sess.Seed,
		Runs:     eng.Runs(),
		Graph:    sess.Graph(),
		Analysis: &a,
	}, nil
}

// mutated reports the store version after an edit. Heavy work is left to
// the next read or tick.
func (s *Server) mutated(w http.ResponseWriter, sess *session.Session, status int) error {
	st := sess.Engine.Store()
	writeJSON(w, status, map[string]any{
		"version": st.Version(),
		"nodes":   st.NodeCount(),
		"links":   st.LinkCount(),
	})
	return nil
}
