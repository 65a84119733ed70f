package http

import (
	"net/http"

	"expenses/internal/core"
)

const entityCategory = "Category"

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request, caller core.Caller) {
	categories, err := s.categories.List(r.Context(), caller)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}
	NewJSONResponse().JSON(newCategoryItems(categories)).Write(w)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request, caller core.Caller) {
	id, err := pathID(r, entityCategory)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}
	c, err := s.categories.Get(r.Context(), caller, id)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}
	NewJSONResponse().JSON(newCategoryDetail(c)).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request, caller core.Caller) {
	var p core.CategoryPayload
	if err := decodeObject(w, r, categoryMembers(&p)); err != nil {
		ErrorResponse(w, r, err)
		return
	}
	c, err := s.categories.Create(r.Context(), caller, p)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).JSON(newCategoryDetail(c)).Write(w)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request, caller core.Caller) {
	id, err := pathID(r, entityCategory)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}
	var p core.CategoryPayload
	if err := decodeObject(w, r, categoryMembers(&p)); err != nil {
		ErrorResponse(w, r, err)
		return
	}
	c, err := s.categories.Update(r.Context(), caller, id, p)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}
	NewJSONResponse().JSON(newCategoryDetail(c)).Write(w)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request, caller core.Caller) {
	id, err := pathID(r, entityCategory)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}
	if err := s.categories.Delete(r.Context(), caller, id); err != nil {
		ErrorResponse(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
