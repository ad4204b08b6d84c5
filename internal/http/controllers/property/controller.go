// Package property contiene los endpoints de inmuebles.
package property

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dropDatabas3/propmanager/internal/http/dto"
	httperrors "github.com/dropDatabas3/propmanager/internal/http/errors"
	"github.com/dropDatabas3/propmanager/internal/http/helpers"
	svc "github.com/dropDatabas3/propmanager/internal/http/services/property"
)

type Controller struct {
	service *svc.Service
}

func NewController(s *svc.Service) *Controller {
	return &Controller{service: s}
}

// List handles GET /v1/properties?limit=N
func (c *Controller) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			httperrors.WriteError(w, httperrors.ErrInvalidFormat.WithReasons("limit"))
			return
		}
		limit = n
	}
	items, err := c.service.List(r.Context(), limit)
	if err != nil {
		httperrors.Write(r.Context(), w, err)
		return
	}
	resp := dto.PropertyListResponse{Items: make([]dto.PropertyResponse, 0, len(items))}
	for _, p := range items {
		resp.Items = append(resp.Items, dto.NewPropertyResponse(p))
	}
	helpers.WriteJSON(w, http.StatusOK, resp)
}

// Create handles POST /v1/properties
func (c *Controller) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreatePropertyRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	p, err := c.service.Create(r.Context(), svc.CreateInput{
		Name: req.Name, Address: req.Address, City: req.City, Units: req.Units,
	})
	if err != nil {
		if errors.Is(err, svc.ErrMissingFields) {
			httperrors.WriteError(w, httperrors.ErrMissingFields)
			return
		}
		httperrors.Write(r.Context(), w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, dto.NewPropertyResponse(*p))
}
