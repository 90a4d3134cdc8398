package adapthttp

import (
	"net/http"

	"microblog/internal/domain"
)

type contentRequest struct {
	Content string `json:"content"`
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.content.ListPosts(r.Context())
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req contentRequest
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	id, err := s.content.CreatePost(r.Context(), identity, req.Content)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	postID, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	if err := s.content.DeletePost(r.Context(), identity, postID); err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "post deleted"})
}

func (s *Server) handleToggleLike(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	postID, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	liked, err := s.content.ToggleLike(r.Context(), identity, postID)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"liked": liked})
}

func (s *Server) handleListReplies(w http.ResponseWriter, r *http.Request) {
	postID, err := idParam(r)
	if err != nil {
		writeJSON(w, http.StatusOK, []domain.ReplyView{})
		return
	}

	replies, err := s.content.ListReplies(r.Context(), postID)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, replies)
}

func (s *Server) handleCreateReply(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	postID, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	var req contentRequest
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	id, err := s.content.CreateReply(r.Context(), identity, postID, req.Content)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}
