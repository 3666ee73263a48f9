package inventory

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"ganado360/internal/platform/apierror"
	"ganado360/internal/platform/dates"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes monta /animales. Otras rutas bajo /animales/{animalID} las
// agregan reproducción y sanidad, por eso no se usa r.Route aquí.
func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/animales", listAnimalsHandler(svc))
	r.Post("/animales", createAnimalHandler(svc))
	r.Get("/animales/{animalID}", getAnimalHandler(svc))
	r.Get("/animales/{animalID}/historia", listHistoryHandler(svc))
	r.Post("/animales/{animalID}/historia", appendHistoryHandler(svc))
	r.Post("/animales/{animalID}/baja", retireHandler(svc))
}

type createAnimalRequest struct {
	FincaID         string   `json:"fincaId"`
	Especie         string   `json:"especie"`
	Raza            string   `json:"raza"`
	Sexo            string   `json:"sexo"`
	FechaNacimiento string   `json:"fechaNacimiento"` // YYYY-MM-DD o RFC3339
	Identificador   string   `json:"identificador"`
	Peso            *float64 `json:"peso"`
	Ubicacion       string   `json:"ubicacion"`
}

type animalResponse struct {
	ID              string   `json:"id"`
	FincaID         string   `json:"fincaId"`
	Especie         string   `json:"especie"`
	Raza            string   `json:"raza"`
	Sexo            Sexo     `json:"sexo"`
	FechaNacimiento string   `json:"fechaNacimiento,omitempty"`
	Identificador   string   `json:"identificador,omitempty"`
	Peso            *float64 `json:"peso,omitempty"`
	Ubicacion       string   `json:"ubicacion,omitempty"`
	Estado          Estado   `json:"estado"`
}

type historyRequest struct {
	TipoEvento  string `json:"tipoEvento"`
	Descripcion string `json:"descripcion"`
}

type historyResponse struct {
	ID          string     `json:"id"`
	AnimalID    string     `json:"animalId"`
	TipoEvento  TipoEvento `json:"tipoEvento"`
	Fecha       string     `json:"fecha"`
	Descripcion string     `json:"descripcion"`
}

type retireRequest struct {
	Motivo string `json:"motivo"`
}

// listAnimalsHandler godoc
// @Summary Listar animales
// @Description Filtra en el BFF: el API remoto devuelve la colección completa.
// @Tags inventario
// @Produce json
// @Param fincaId query string false "Finca"
// @Param especie query string false "Especie"
// @Param sexo query string false "M | H"
// @Param estado query string false "Activo | Inactivo"
// @Param q query string false "Texto libre (identificador, raza, ubicación)"
// @Success 200 {array} animalResponse
// @Failure 401 {object} apierror.APIError
// @Router /animales [get]
func listAnimalsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		items, err := svc.ListAnimals(r.Context(), ListFilter{
			FincaID: strings.TrimSpace(q.Get("fincaId")),
			Especie: strings.TrimSpace(q.Get("especie")),
			Sexo:    Sexo(strings.ToUpper(strings.TrimSpace(q.Get("sexo")))),
			Estado:  Estado(strings.TrimSpace(q.Get("estado"))),
			Query:   q.Get("q"),
		})
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]animalResponse, 0, len(items))
		for _, a := range items {
			out = append(out, toAnimalResponse(a))
		}
		apierror.WriteJSON(w, http.StatusOK, out)
	}
}

// createAnimalHandler godoc
// @Summary Alta de animal
// @Tags inventario
// @Accept json
// @Produce json
// @Param payload body createAnimalRequest true "Animal"
// @Success 201 {object} animalResponse
// @Failure 400 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /animales [post]
func createAnimalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createAnimalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apierror.WriteMsg(w, http.StatusBadRequest, "invalid json")
			return
		}
		nac, err := dates.Parse(req.FechaNacimiento)
		if err != nil {
			apierror.WriteMsg(w, http.StatusBadRequest, err.Error())
			return
		}
		a, err := svc.CreateAnimal(r.Context(), CreateInput{
			FincaID:         req.FincaID,
			Especie:         req.Especie,
			Raza:            req.Raza,
			Sexo:            Sexo(req.Sexo),
			FechaNacimiento: nac,
			Identificador:   req.Identificador,
			Peso:            req.Peso,
			Ubicacion:       req.Ubicacion,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		apierror.WriteJSON(w, http.StatusCreated, toAnimalResponse(a))
	}
}

// getAnimalHandler godoc
// @Summary Obtener animal
// @Tags inventario
// @Produce json
// @Param animalID path string true "ID del animal"
// @Success 200 {object} animalResponse
// @Failure 404 {object} apierror.APIError
// @Router /animales/{animalID} [get]
func getAnimalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := svc.GetAnimal(r.Context(), chi.URLParam(r, "animalID"))
		if err != nil {
			writeError(w, err)
			return
		}
		apierror.WriteJSON(w, http.StatusOK, toAnimalResponse(a))
	}
}

// listHistoryHandler godoc
// @Summary Historia del animal
// @Tags inventario
// @Produce json
// @Param animalID path string true "ID del animal"
// @Success 200 {array} historyResponse
// @Router /animales/{animalID}/historia [get]
func listHistoryHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListHistory(r.Context(), chi.URLParam(r, "animalID"))
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]historyResponse, 0, len(items))
		for _, e := range items {
			out = append(out, toHistoryResponse(e))
		}
		apierror.WriteJSON(w, http.StatusOK, out)
	}
}

// appendHistoryHandler godoc
// @Summary Agregar entrada a la historia
// @Description Las entradas no se editan ni se borran.
// @Tags inventario
// @Accept json
// @Produce json
// @Param animalID path string true "ID del animal"
// @Param payload body historyRequest true "Entrada"
// @Success 201 {object} historyResponse
// @Failure 400 {object} apierror.APIError
// @Router /animales/{animalID}/historia [post]
func appendHistoryHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req historyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apierror.WriteMsg(w, http.StatusBadRequest, "invalid json")
			return
		}
		tipo := TipoEvento(strings.ToUpper(strings.TrimSpace(req.TipoEvento)))
		if !tipo.Valid() {
			apierror.WriteMsg(w, http.StatusBadRequest, "tipoEvento inválido")
			return
		}
		e, err := svc.AppendHistory(r.Context(), chi.URLParam(r, "animalID"), tipo, req.Descripcion)
		if err != nil {
			writeError(w, err)
			return
		}
		apierror.WriteJSON(w, http.StatusCreated, toHistoryResponse(e))
	}
}

// retireHandler godoc
// @Summary Dar de baja un animal
// @Description Registra la entrada BAJA y luego marca el animal Inactivo. Si la baja queda a medias responde 502 con `animalId`.
// @Tags inventario
// @Accept json
// @Produce json
// @Param animalID path string true "ID del animal"
// @Param payload body retireRequest true "Motivo"
// @Success 204
// @Failure 409 {object} apierror.APIError "ya dado de baja"
// @Failure 422 {object} apierror.APIError
// @Failure 502 {object} apierror.APIError
// @Router /animales/{animalID}/baja [post]
func retireHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req retireRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apierror.WriteMsg(w, http.StatusBadRequest, "invalid json")
			return
		}
		if err := svc.Retire(r.Context(), chi.URLParam(r, "animalID"), req.Motivo); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeError(w http.ResponseWriter, err error) {
	var re *RetirementError
	if errors.As(err, &re) {
		if !re.HistoryWritten && apierror.WriteUpstream(w, re.Err) {
			return
		}
		apierror.Write(w, http.StatusBadGateway, &apierror.APIError{Error: re.Error(), AnimalID: re.AnimalID})
		return
	}

	switch {
	case errors.Is(err, ErrInvalidInput):
		apierror.WriteMsg(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrAlreadyRetired):
		apierror.WriteMsg(w, http.StatusConflict, err.Error())
	default:
		apierror.WriteError(w, err)
	}
}

func toAnimalResponse(a Animal) animalResponse {
	return animalResponse{
		ID:              a.ID,
		FincaID:         a.FincaID,
		Especie:         a.Especie,
		Raza:            a.Raza,
		Sexo:            a.Sexo,
		FechaNacimiento: dates.Format(a.FechaNacimiento),
		Identificador:   a.Identificador,
		Peso:            a.Peso,
		Ubicacion:       a.Ubicacion,
		Estado:          a.Estado,
	}
}

func toHistoryResponse(e HistoryEntry) historyResponse {
	return historyResponse{
		ID:          e.ID,
		AnimalID:    e.AnimalID,
		TipoEvento:  e.TipoEvento,
		Fecha:       dates.Format(e.Fecha),
		Descripcion: e.Descripcion,
	}
}
