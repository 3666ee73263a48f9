package reproduction

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"ganado360/internal/domain/inventory"
	"ganado360/internal/platform/apierror"
	"ganado360/internal/platform/dates"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes monta las rutas de reproducción. reminderWindow es la ventana
// por defecto de /reproduccion/partos-proximos.
func RegisterRoutes(r chi.Router, svc *Service, reminderWindow time.Duration) {
	r.Get("/animales/{animalID}/pedigree", pedigreeHandler(svc))
	r.Get("/animales/{animalID}/historial-reproductivo", historyHandler(svc))

	r.Route("/reproduccion", func(rr chi.Router) {
		rr.Post("/montas", createMatingHandler(svc))
		rr.Post("/montas/{montaID}/diagnosticos", registerDiagnosisHandler(svc))
		rr.Post("/genealogias", linkGenealogyHandler(svc))
		rr.Get("/partos-proximos", upcomingBirthsHandler(svc, reminderWindow))

		rr.Post("/nacimientos", registerBirthHandler(svc))
		rr.Get("/nacimientos/sagas", listIncompleteBirthsHandler(svc))
		rr.Get("/nacimientos/sagas/{sagaID}", getBirthSagaHandler(svc))
		rr.Post("/nacimientos/sagas/{sagaID}/reanudar", resumeBirthHandler(svc))
	})
}

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type animalResponse struct {
	ID              string   `json:"id"`
	FincaID         string   `json:"fincaId"`
	Especie         string   `json:"especie"`
	Raza            string   `json:"raza"`
	Sexo            string   `json:"sexo"`
	FechaNacimiento string   `json:"fechaNacimiento,omitempty"`
	Identificador   string   `json:"identificador,omitempty"`
	Peso            *float64 `json:"peso,omitempty"`
	Ubicacion       string   `json:"ubicacion,omitempty"`
	Estado          string   `json:"estado"`
}

type nodeResponse struct {
	ID     string          `json:"id,omitempty"`
	Status NodeStatus      `json:"status"`
	Animal *animalResponse `json:"animal,omitempty"`
}

type pedigreeResponse struct {
	Target              nodeResponse   `json:"animal"`
	Mother              nodeResponse   `json:"madre"`
	Father              nodeResponse   `json:"padre"`
	MaternalGrandmother nodeResponse   `json:"abuelaMaterna"`
	MaternalGrandfather nodeResponse   `json:"abueloMaterno"`
	PaternalGrandmother nodeResponse   `json:"abuelaPaterna"`
	PaternalGrandfather nodeResponse   `json:"abueloPaterno"`
	Descendants         []nodeResponse `json:"descendientes"`
	CycleDetected       bool           `json:"cicloDetectado"`
}

type timelineEventResponse struct {
	Tipo     TimelineEventType `json:"tipo"`
	Fecha    string            `json:"fecha"`
	SourceID string            `json:"id"`
	Detalle  any               `json:"detalle"`
}

type timelineResponse struct {
	AnimalID      string                  `json:"animalId"`
	Sexo          string                  `json:"sexo"`
	Eventos       []timelineEventResponse `json:"eventos"`
	FuentesFallan []string                `json:"fuentesConError,omitempty"`
}

type montaResponse struct {
	ID              string      `json:"id"`
	IDHembra        string      `json:"idHembra"`
	IDMacho         string      `json:"idMacho,omitempty"`
	Fecha           string      `json:"fecha"`
	MetodoUtilizado string      `json:"metodoUtilizado"`
	Notas           string      `json:"notas,omitempty"`
	Estado          MontaEstado `json:"estado"`
}

type diagnosticoResponse struct {
	ID            string               `json:"id"`
	IDMonta       string               `json:"idMonta"`
	Fecha         string               `json:"fecha"`
	Resultado     ResultadoDiagnostico `json:"resultado"`
	Especie       string               `json:"especie,omitempty"`
	Observaciones string               `json:"observaciones,omitempty"`
}

type gestacionResponse struct {
	ID                 string          `json:"id"`
	IDHembra           string          `json:"idHembra"`
	Estado             GestacionEstado `json:"estado"`
	FechaInicio        string          `json:"fechaInicio"`
	FechaEstimadaParto string          `json:"fechaEstimadaParto"`
}

type nacimientoResponse struct {
	ID            string   `json:"id"`
	IDMonta       string   `json:"idMonta"`
	IDMadre       string   `json:"idMadre"`
	IDAnimal      string   `json:"idAnimal"`
	Fecha         string   `json:"fecha"`
	Sexo          string   `json:"sexo"`
	Peso          *float64 `json:"peso,omitempty"`
	Observaciones string   `json:"observaciones,omitempty"`
}

type genealogiaRequest struct {
	Madre string `json:"madre"`
	Padre string `json:"padre"`
	Hijo  string `json:"hijo"`
}

type genealogiaResponse struct {
	ID    string `json:"id"`
	Madre string `json:"madre,omitempty"`
	Padre string `json:"padre,omitempty"`
	Hijo  string `json:"hijo"`
}

type createMatingRequest struct {
	IDHembra string `json:"idHembra"`
	IDMacho  string `json:"idMacho"`
	Fecha    string `json:"fecha"` // YYYY-MM-DD o RFC3339
	Metodo   string `json:"metodoUtilizado"`
	Notas    string `json:"notas"`
}

type diagnosisRequest struct {
	Fecha         string `json:"fecha"`
	Resultado     string `json:"resultado"`
	Especie       string `json:"especie"`
	Observaciones string `json:"observaciones"`
}

type diagnosisResponse struct {
	Diagnostico diagnosticoResponse `json:"diagnostico"`
	Monta       montaResponse       `json:"monta"`
}

type birthRequest struct {
	IDMonta         string   `json:"idMonta"`
	IDMadre         string   `json:"idMadre"`
	FincaID         string   `json:"fincaId"`
	Especie         string   `json:"especie"`
	Raza            string   `json:"raza"`
	Sexo            string   `json:"sexo"`
	FechaNacimiento string   `json:"fechaNacimiento"`
	Peso            *float64 `json:"peso"`
	Identificador   string   `json:"identificador"`
	Ubicacion       string   `json:"ubicacion"`
	Observaciones   string   `json:"observaciones"`
}

type birthResponse struct {
	SagaID       string `json:"sagaId"`
	AnimalID     string `json:"animalId"`
	NacimientoID string `json:"nacimientoId"`
	GenealogiaID string `json:"genealogiaId"`
}

type sagaResponse struct {
	ID           string     `json:"id"`
	Status       SagaStatus `json:"status"`
	NextStep     BirthStep  `json:"siguientePaso"`
	IDMonta      string     `json:"idMonta"`
	IDMadre      string     `json:"idMadre"`
	AnimalID     string     `json:"animalId,omitempty"`
	NacimientoID string     `json:"nacimientoId,omitempty"`
	GenealogiaID string     `json:"genealogiaId,omitempty"`
	LastError    string     `json:"ultimoError,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

// pedigreeHandler godoc
// @Summary Árbol genealógico de un animal
// @Description Padres, abuelos e hijos directos. Los ancestros sin registro vienen con status `absent`; los ids sin animal con status `unknown`.
// @Tags reproduccion
// @Produce json
// @Param Authorization header string false "Bearer token del API remoto"
// @Param animalID path string true "ID del animal"
// @Success 200 {object} pedigreeResponse
// @Failure 401 {object} apierror.APIError
// @Failure 502 {object} apierror.APIError
// @Router /animales/{animalID}/pedigree [get]
func pedigreeHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.Pedigree(r.Context(), chi.URLParam(r, "animalID"))
		if err != nil {
			writeError(w, err)
			return
		}
		apierror.WriteJSON(w, http.StatusOK, toPedigreeResponse(p))
	}
}

// historyHandler godoc
// @Summary Historial reproductivo
// @Description Montas, diagnósticos, gestaciones y nacimientos del animal, más reciente primero. Una fuente que falla se omite y se informa en `fuentesConError`.
// @Tags reproduccion
// @Produce json
// @Param Authorization header string false "Bearer token del API remoto"
// @Param animalID path string true "ID del animal"
// @Success 200 {object} timelineResponse
// @Failure 401 {object} apierror.APIError
// @Failure 404 {object} apierror.APIError
// @Router /animales/{animalID}/historial-reproductivo [get]
func historyHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tl, err := svc.History(r.Context(), chi.URLParam(r, "animalID"))
		if err != nil {
			writeError(w, err)
			return
		}
		out := timelineResponse{
			AnimalID:      tl.AnimalID,
			Sexo:          string(tl.Sexo),
			Eventos:       make([]timelineEventResponse, 0, len(tl.Events)),
			FuentesFallan: tl.FailedSources,
		}
		for _, e := range tl.Events {
			out.Eventos = append(out.Eventos, toTimelineEventResponse(e))
		}
		apierror.WriteJSON(w, http.StatusOK, out)
	}
}

// createMatingHandler godoc
// @Summary Registrar monta
// @Tags reproduccion
// @Accept json
// @Produce json
// @Param payload body createMatingRequest true "Monta"
// @Success 201 {object} montaResponse
// @Failure 400 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /reproduccion/montas [post]
func createMatingHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createMatingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apierror.WriteMsg(w, http.StatusBadRequest, "invalid json")
			return
		}
		fecha, err := dates.Parse(req.Fecha)
		if err != nil {
			apierror.WriteMsg(w, http.StatusBadRequest, err.Error())
			return
		}

		m, err := svc.CreateMating(r.Context(), MatingInput{
			HembraID: req.IDHembra,
			MachoID:  req.IDMacho,
			Fecha:    fecha,
			Metodo:   req.Metodo,
			Notas:    req.Notas,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		apierror.WriteJSON(w, http.StatusCreated, toMontaResponse(m))
	}
}

// registerDiagnosisHandler godoc
// @Summary Registrar diagnóstico de gestación
// @Description GESTANTE confirma la monta, VACIA la marca fallida, NO_CONCLUYENTE la deja activa.
// @Tags reproduccion
// @Accept json
// @Produce json
// @Param montaID path string true "ID de la monta"
// @Param payload body diagnosisRequest true "Diagnóstico"
// @Success 201 {object} diagnosisResponse
// @Failure 409 {object} apierror.APIError "monta no activa"
// @Failure 422 {object} apierror.APIError
// @Router /reproduccion/montas/{montaID}/diagnosticos [post]
func registerDiagnosisHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req diagnosisRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apierror.WriteMsg(w, http.StatusBadRequest, "invalid json")
			return
		}
		fecha, err := dates.Parse(req.Fecha)
		if err != nil {
			apierror.WriteMsg(w, http.StatusBadRequest, err.Error())
			return
		}

		d, m, err := svc.RegisterDiagnosis(r.Context(), DiagnosisInput{
			MatingID:      chi.URLParam(r, "montaID"),
			Fecha:         fecha,
			Resultado:     ResultadoDiagnostico(req.Resultado),
			Especie:       req.Especie,
			Observaciones: req.Observaciones,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		apierror.WriteJSON(w, http.StatusCreated, diagnosisResponse{
			Diagnostico: toDiagnosticoResponse(d),
			Monta:       toMontaResponse(m),
		})
	}
}

// linkGenealogyHandler godoc
// @Summary Registrar genealogía manual
// @Tags reproduccion
// @Accept json
// @Produce json
// @Param payload body genealogiaRequest true "Arista madre/padre -> hijo"
// @Success 201 {object} genealogiaResponse
// @Failure 409 {object} apierror.APIError "ya existe o forma un ciclo"
// @Failure 422 {object} apierror.APIError
// @Router /reproduccion/genealogias [post]
func linkGenealogyHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req genealogiaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apierror.WriteMsg(w, http.StatusBadRequest, "invalid json")
			return
		}
		g, err := svc.LinkGenealogy(r.Context(), Genealogia{Madre: req.Madre, Padre: req.Padre, Hijo: req.Hijo})
		if err != nil {
			writeError(w, err)
			return
		}
		apierror.WriteJSON(w, http.StatusCreated, genealogiaResponse(g))
	}
}

// upcomingBirthsHandler godoc
// @Summary Partos próximos
// @Description Gestaciones ACTIVA con parto estimado dentro de la ventana, la más cercana primero.
// @Tags reproduccion
// @Produce json
// @Param dias query int false "Ventana en días (por defecto REMINDER_WINDOW_DAYS)"
// @Success 200 {array} gestacionResponse
// @Failure 400 {object} apierror.APIError
// @Router /reproduccion/partos-proximos [get]
func upcomingBirthsHandler(svc *Service, defaultWindow time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		window := defaultWindow
		if v := r.URL.Query().Get("dias"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 || n > 365 {
				apierror.WriteMsg(w, http.StatusBadRequest, "dias must be an integer between 0 and 365")
				return
			}
			window = time.Duration(n) * 24 * time.Hour
		}

		items, err := svc.UpcomingBirths(r.Context(), window)
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]gestacionResponse, 0, len(items))
		for _, g := range items {
			out = append(out, gestacionResponse{
				ID:                 g.ID,
				IDHembra:           g.IDHembra,
				Estado:             g.Estado,
				FechaInicio:        dates.Format(g.FechaInicio),
				FechaEstimadaParto: dates.Format(g.FechaEstimadaParto),
			})
		}
		apierror.WriteJSON(w, http.StatusOK, out)
	}
}

// registerBirthHandler godoc
// @Summary Registrar nacimiento
// @Description Crea el animal, el nacimiento, cierra la monta y registra la genealogía, en ese orden. Si falla responde con `kind` (`nothing_created` o `incomplete`) y `sagaId`; con `incomplete` también `animalId` para reanudar.
// @Tags reproduccion
// @Accept json
// @Produce json
// @Param payload body birthRequest true "Nacimiento"
// @Success 201 {object} birthResponse
// @Failure 409 {object} apierror.APIError "monta cerrada"
// @Failure 422 {object} apierror.APIError
// @Failure 502 {object} apierror.APIError "registro incompleto"
// @Router /reproduccion/nacimientos [post]
func registerBirthHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req birthRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apierror.WriteMsg(w, http.StatusBadRequest, "invalid json")
			return
		}
		fecha, err := dates.Parse(req.FechaNacimiento)
		if err != nil {
			apierror.WriteMsg(w, http.StatusBadRequest, err.Error())
			return
		}

		res, err := svc.RegisterBirth(r.Context(), BirthInput{
			MatingID: req.IDMonta,
			MotherID: req.IDMadre,
			Newborn: NewbornInput{
				FincaID:         req.FincaID,
				Especie:         req.Especie,
				Raza:            req.Raza,
				Sexo:            inventory.Sexo(req.Sexo),
				FechaNacimiento: fecha,
				Peso:            req.Peso,
				Identificador:   req.Identificador,
				Ubicacion:       req.Ubicacion,
			},
			Observaciones: req.Observaciones,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		apierror.WriteJSON(w, http.StatusCreated, toBirthResponse(res))
	}
}

// listIncompleteBirthsHandler godoc
// @Summary Sagas de nacimiento incompletas
// @Tags reproduccion
// @Produce json
// @Success 200 {array} sagaResponse
// @Router /reproduccion/nacimientos/sagas [get]
func listIncompleteBirthsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListIncompleteBirths(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]sagaResponse, 0, len(items))
		for _, s := range items {
			out = append(out, toSagaResponse(s))
		}
		apierror.WriteJSON(w, http.StatusOK, out)
	}
}

// getBirthSagaHandler godoc
// @Summary Estado de una saga de nacimiento
// @Tags reproduccion
// @Produce json
// @Param sagaID path string true "ID de la saga"
// @Success 200 {object} sagaResponse
// @Failure 404 {object} apierror.APIError
// @Router /reproduccion/nacimientos/sagas/{sagaID} [get]
func getBirthSagaHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := svc.GetBirthSaga(r.Context(), chi.URLParam(r, "sagaID"))
		if err != nil {
			writeError(w, err)
			return
		}
		apierror.WriteJSON(w, http.StatusOK, toSagaResponse(s))
	}
}

// resumeBirthHandler godoc
// @Summary Reanudar saga de nacimiento
// @Description Continúa desde el primer paso pendiente. Sobre una saga completa no escribe nada.
// @Tags reproduccion
// @Produce json
// @Param sagaID path string true "ID de la saga"
// @Success 200 {object} birthResponse
// @Failure 404 {object} apierror.APIError
// @Failure 502 {object} apierror.APIError
// @Router /reproduccion/nacimientos/sagas/{sagaID}/reanudar [post]
func resumeBirthHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.ResumeBirth(r.Context(), chi.URLParam(r, "sagaID"))
		if err != nil {
			writeError(w, err)
			return
		}
		apierror.WriteJSON(w, http.StatusOK, toBirthResponse(res))
	}
}

// writeError traduce errores del dominio; el resto va a apierror.
func writeError(w http.ResponseWriter, err error) {
	var be *BirthError
	if errors.As(err, &be) {
		status, body := http.StatusBadGateway, &apierror.APIError{Error: be.Error()}
		if !be.Partial() {
			if st, b, ok := apierror.Classify(be.Err); ok {
				status, body = st, b
			}
		}
		body.Kind = apierror.KindNothingCreated
		if be.Partial() {
			body.Kind = apierror.KindIncomplete
		}
		body.SagaID, body.AnimalID = be.SagaID, be.AnimalID
		apierror.Write(w, status, body)
		return
	}

	switch {
	case errors.Is(err, ErrInvalidInput):
		apierror.WriteMsg(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrSagaNotFound):
		apierror.WriteMsg(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrMatingClosed),
		errors.Is(err, ErrMatingNotActive),
		errors.Is(err, ErrGenealogyExists),
		errors.Is(err, ErrGenealogyCycle):
		apierror.WriteMsg(w, http.StatusConflict, err.Error())
	default:
		apierror.WriteError(w, err)
	}
}

// ---------------------------------------------------------------------------
// Mappers
// ---------------------------------------------------------------------------

func toAnimalResponse(a inventory.Animal) animalResponse {
	return animalResponse{
		ID:              a.ID,
		FincaID:         a.FincaID,
		Especie:         a.Especie,
		Raza:            a.Raza,
		Sexo:            string(a.Sexo),
		FechaNacimiento: dates.Format(a.FechaNacimiento),
		Identificador:   a.Identificador,
		Peso:            a.Peso,
		Ubicacion:       a.Ubicacion,
		Estado:          string(a.Estado),
	}
}

func toNodeResponse(n PedigreeNode) nodeResponse {
	out := nodeResponse{ID: n.ID, Status: n.Status}
	if n.Animal != nil {
		a := toAnimalResponse(*n.Animal)
		out.Animal = &a
	}
	return out
}

func toPedigreeResponse(p Pedigree) pedigreeResponse {
	out := pedigreeResponse{
		Target:              toNodeResponse(p.Target),
		Mother:              toNodeResponse(p.Mother),
		Father:              toNodeResponse(p.Father),
		MaternalGrandmother: toNodeResponse(p.MaternalGrandmother),
		MaternalGrandfather: toNodeResponse(p.MaternalGrandfather),
		PaternalGrandmother: toNodeResponse(p.PaternalGrandmother),
		PaternalGrandfather: toNodeResponse(p.PaternalGrandfather),
		Descendants:         make([]nodeResponse, 0, len(p.Descendants)),
		CycleDetected:       p.CycleDetected,
	}
	for _, d := range p.Descendants {
		out.Descendants = append(out.Descendants, toNodeResponse(d))
	}
	return out
}

func toTimelineEventResponse(e TimelineEvent) timelineEventResponse {
	out := timelineEventResponse{Tipo: e.Tipo, Fecha: dates.Format(e.Fecha), SourceID: e.SourceID()}
	switch {
	case e.Monta != nil:
		out.Detalle = toMontaResponse(*e.Monta)
	case e.Diagnostico != nil:
		out.Detalle = toDiagnosticoResponse(*e.Diagnostico)
	case e.Gestacion != nil:
		g := e.Gestacion
		out.Detalle = gestacionResponse{
			ID:                 g.ID,
			IDHembra:           g.IDHembra,
			Estado:             g.Estado,
			FechaInicio:        dates.Format(g.FechaInicio),
			FechaEstimadaParto: dates.Format(g.FechaEstimadaParto),
		}
	case e.Nacimiento != nil:
		n := e.Nacimiento
		out.Detalle = nacimientoResponse{
			ID:            n.ID,
			IDMonta:       n.IDMonta,
			IDMadre:       n.IDMadre,
			IDAnimal:      n.IDAnimal,
			Fecha:         dates.Format(n.Fecha),
			Sexo:          string(n.Sexo),
			Peso:          n.Peso,
			Observaciones: n.Observaciones,
		}
	}
	return out
}

func toMontaResponse(m Monta) montaResponse {
	return montaResponse{
		ID:              m.ID,
		IDHembra:        m.IDHembra,
		IDMacho:         m.IDMacho,
		Fecha:           dates.Format(m.Fecha),
		MetodoUtilizado: m.MetodoUtilizado,
		Notas:           m.Notas,
		Estado:          m.Estado,
	}
}

func toDiagnosticoResponse(d Diagnostico) diagnosticoResponse {
	return diagnosticoResponse{
		ID:            d.ID,
		IDMonta:       d.IDMonta,
		Fecha:         dates.Format(d.Fecha),
		Resultado:     d.Resultado,
		Especie:       d.Especie,
		Observaciones: d.Observaciones,
	}
}

func toBirthResponse(res BirthResult) birthResponse {
	return birthResponse{
		SagaID:       res.SagaID,
		AnimalID:     res.AnimalID,
		NacimientoID: res.BirthID,
		GenealogiaID: res.GenealogiaID,
	}
}

func toSagaResponse(s BirthSaga) sagaResponse {
	return sagaResponse{
		ID:           s.ID,
		Status:       s.Status,
		NextStep:     s.NextStep,
		IDMonta:      s.Input.MatingID,
		IDMadre:      s.Input.MotherID,
		AnimalID:     s.AnimalID,
		NacimientoID: s.BirthID,
		GenealogiaID: s.GenealogiaID,
		LastError:    s.LastError,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}
