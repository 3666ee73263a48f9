package health

import (
	"encoding/json"
	"errors"
	"net/http"

	"ganado360/internal/platform/apierror"
	"ganado360/internal/platform/dates"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/animales/{animalID}/incidencias", listIncidentsHandler(svc))

	r.Route("/sanidad", func(sr chi.Router) {
		sr.Post("/incidencias", recordIncidentHandler(svc))
		sr.Put("/incidencias/{kind}/{incidentID}/estado", changeStatusHandler(svc))
		sr.Get("/catalogo/{kind}", listCatalogHandler(svc))
	})
}

type incidentRequest struct {
	Tipo          string `json:"tipo"` // ENFERMEDAD | TRATAMIENTO | VACUNACION
	AnimalID      string `json:"animalId"`
	CatalogoID    string `json:"catalogoId"`
	Responsable   string `json:"responsable"`
	Fecha         string `json:"fecha"`
	Estado        string `json:"estado"`
	Observaciones string `json:"observaciones"`
}

type statusRequest struct {
	Estado string `json:"estado"`
}

type incidentResponse struct {
	ID            string `json:"id"`
	Tipo          Kind   `json:"tipo"`
	AnimalID      string `json:"animalId"`
	CatalogoID    string `json:"catalogoId"`
	Responsable   string `json:"responsable"`
	Fecha         string `json:"fecha"`
	Estado        Estado `json:"estado"`
	Observaciones string `json:"observaciones,omitempty"`
}

type catalogItemResponse struct {
	ID          string `json:"id"`
	Tipo        Kind   `json:"tipo"`
	Nombre      string `json:"nombre"`
	Descripcion string `json:"descripcion,omitempty"`
}

// listIncidentsHandler godoc
// @Summary Incidencias sanitarias de un animal
// @Description Enfermedades, tratamientos y vacunaciones del animal, más reciente primero.
// @Tags sanidad
// @Produce json
// @Param animalID path string true "ID del animal"
// @Success 200 {array} incidentResponse
// @Failure 502 {object} apierror.APIError
// @Router /animales/{animalID}/incidencias [get]
func listIncidentsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListIncidents(r.Context(), chi.URLParam(r, "animalID"))
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]incidentResponse, 0, len(items))
		for _, it := range items {
			out = append(out, toIncidentResponse(it))
		}
		apierror.WriteJSON(w, http.StatusOK, out)
	}
}

// recordIncidentHandler godoc
// @Summary Registrar incidencia sanitaria
// @Tags sanidad
// @Accept json
// @Produce json
// @Param payload body incidentRequest true "Incidencia"
// @Success 201 {object} incidentResponse
// @Failure 400 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /sanidad/incidencias [post]
func recordIncidentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req incidentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apierror.WriteMsg(w, http.StatusBadRequest, "invalid json")
			return
		}
		fecha, err := dates.Parse(req.Fecha)
		if err != nil {
			apierror.WriteMsg(w, http.StatusBadRequest, err.Error())
			return
		}

		it, err := svc.RecordIncident(r.Context(), IncidentInput{
			Kind:          Kind(req.Tipo),
			AnimalID:      req.AnimalID,
			CatalogID:     req.CatalogoID,
			Responsable:   req.Responsable,
			Fecha:         fecha,
			Estado:        Estado(req.Estado),
			Observaciones: req.Observaciones,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		apierror.WriteJSON(w, http.StatusCreated, toIncidentResponse(it))
	}
}

// changeStatusHandler godoc
// @Summary Cambiar estado de una incidencia
// @Tags sanidad
// @Accept json
// @Produce json
// @Param kind path string true "ENFERMEDAD | TRATAMIENTO | VACUNACION"
// @Param incidentID path string true "ID de la incidencia"
// @Param payload body statusRequest true "Nuevo estado"
// @Success 200 {object} incidentResponse
// @Failure 409 {object} apierror.APIError "transición inválida"
// @Router /sanidad/incidencias/{kind}/{incidentID}/estado [put]
func changeStatusHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req statusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apierror.WriteMsg(w, http.StatusBadRequest, "invalid json")
			return
		}
		it, err := svc.ChangeStatus(r.Context(), Kind(chi.URLParam(r, "kind")), chi.URLParam(r, "incidentID"), Estado(req.Estado))
		if err != nil {
			writeError(w, err)
			return
		}
		apierror.WriteJSON(w, http.StatusOK, toIncidentResponse(it))
	}
}

// listCatalogHandler godoc
// @Summary Catálogo sanitario
// @Tags sanidad
// @Produce json
// @Param kind path string true "ENFERMEDAD | TRATAMIENTO | VACUNACION"
// @Success 200 {array} catalogItemResponse
// @Failure 400 {object} apierror.APIError
// @Router /sanidad/catalogo/{kind} [get]
func listCatalogHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListCatalog(r.Context(), Kind(chi.URLParam(r, "kind")))
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]catalogItemResponse, 0, len(items))
		for _, c := range items {
			out = append(out, catalogItemResponse{ID: c.ID, Tipo: c.Kind, Nombre: c.Nombre, Descripcion: c.Descripcion})
		}
		apierror.WriteJSON(w, http.StatusOK, out)
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidKind):
		apierror.WriteMsg(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrInvalidTransition):
		apierror.WriteMsg(w, http.StatusConflict, err.Error())
	default:
		apierror.WriteError(w, err)
	}
}

func toIncidentResponse(it Incident) incidentResponse {
	return incidentResponse{
		ID:            it.ID,
		Tipo:          it.Kind,
		AnimalID:      it.AnimalID,
		CatalogoID:    it.CatalogID,
		Responsable:   it.Responsable,
		Fecha:         dates.Format(it.Fecha),
		Estado:        it.Estado,
		Observaciones: it.Observaciones,
	}
}
