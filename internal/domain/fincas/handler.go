package fincas

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"ganado360/internal/middleware"
	"ganado360/internal/platform/apierror"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	// Administración de la finca
	r.Route("/fincas/{fincaID}/invitaciones", func(fr chi.Router) {
		fr.Post("/", inviteHandler(svc))
		fr.Get("/", listByFincaHandler(svc))
	})

	// Invitado: ver y responder sus invitaciones
	r.Route("/invitaciones", func(ir chi.Router) {
		ir.Get("/", listMyInvitationsHandler(svc))
		ir.Post("/{invitationID}/aceptar", acceptHandler(svc))
		ir.Post("/{invitationID}/rechazar", rejectHandler(svc))
	})
}

type inviteRequest struct {
	Email string `json:"email"`
	Rol   string `json:"rol"`
}

type invitationResponse struct {
	ID          string    `json:"id"`
	FincaID     string    `json:"fincaId"`
	Email       string    `json:"email"`
	InvitadoPor string    `json:"invitadoPor,omitempty"`
	Rol         Rol       `json:"rol"`
	Status      Status    `json:"estado"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type fincaResponse struct {
	ID        string `json:"id"`
	Nombre    string `json:"nombre"`
	Ubicacion string `json:"ubicacion,omitempty"`
}

type myInvitationResponse struct {
	Invitation invitationResponse `json:"invitacion"`
	Finca      *fincaResponse     `json:"finca"` // null si no se pudo resolver
}

// inviteHandler godoc
// @Summary Invitar a una finca
// @Description Invita un correo con un rol. Si ya hay una invitación pendiente para ese correo se actualiza el rol. El invitador se toma de `X-User-Email`.
// @Tags fincas
// @Accept json
// @Produce json
// @Param X-User-Email header string false "Correo del usuario actual"
// @Param fincaID path string true "ID de la finca"
// @Param payload body inviteRequest true "Invitación"
// @Success 201 {object} invitationResponse
// @Failure 409 {object} apierror.APIError "ya es miembro"
// @Failure 422 {object} apierror.APIError
// @Router /fincas/{fincaID}/invitaciones [post]
func inviteHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req inviteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apierror.WriteMsg(w, http.StatusBadRequest, "invalid json")
			return
		}
		inviter, _ := middleware.GetUserEmail(r.Context())

		inv, err := svc.Invite(r.Context(), InviteInput{
			FincaID:     chi.URLParam(r, "fincaID"),
			Email:       req.Email,
			InvitadoPor: inviter,
			Rol:         Rol(req.Rol),
		})
		if err != nil {
			writeError(w, err)
			return
		}
		apierror.WriteJSON(w, http.StatusCreated, toInvitationResponse(inv))
	}
}

// listByFincaHandler godoc
// @Summary Invitaciones de una finca
// @Tags fincas
// @Produce json
// @Param fincaID path string true "ID de la finca"
// @Success 200 {array} invitationResponse
// @Router /fincas/{fincaID}/invitaciones [get]
func listByFincaHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListByFinca(r.Context(), chi.URLParam(r, "fincaID"))
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]invitationResponse, 0, len(items))
		for _, inv := range items {
			out = append(out, toInvitationResponse(inv))
		}
		apierror.WriteJSON(w, http.StatusOK, out)
	}
}

// listMyInvitationsHandler godoc
// @Summary Mis invitaciones
// @Description Invitaciones del usuario actual con la finca resuelta. Si una finca no se puede leer viene en null.
// @Tags fincas
// @Produce json
// @Param X-User-Email header string true "Correo del usuario actual"
// @Success 200 {array} myInvitationResponse
// @Failure 401 {object} apierror.APIError
// @Router /invitaciones [get]
func listMyInvitationsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email, ok := middleware.GetUserEmail(r.Context())
		if !ok {
			apierror.WriteMsg(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		items, err := svc.ListMyInvitations(r.Context(), email)
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]myInvitationResponse, 0, len(items))
		for _, v := range items {
			item := myInvitationResponse{Invitation: toInvitationResponse(v.Invitation)}
			if v.Finca != nil {
				item.Finca = &fincaResponse{ID: v.Finca.ID, Nombre: v.Finca.Nombre, Ubicacion: v.Finca.Ubicacion}
			}
			out = append(out, item)
		}
		apierror.WriteJSON(w, http.StatusOK, out)
	}
}

// acceptHandler godoc
// @Summary Aceptar invitación
// @Tags fincas
// @Produce json
// @Param X-User-Email header string true "Correo del usuario actual"
// @Param invitationID path string true "ID de la invitación"
// @Success 200 {object} invitationResponse
// @Failure 403 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /invitaciones/{invitationID}/aceptar [post]
func acceptHandler(svc *Service) http.HandlerFunc {
	return respondHandler(svc.Accept)
}

// rejectHandler godoc
// @Summary Rechazar invitación
// @Tags fincas
// @Produce json
// @Param X-User-Email header string true "Correo del usuario actual"
// @Param invitationID path string true "ID de la invitación"
// @Success 200 {object} invitationResponse
// @Failure 403 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /invitaciones/{invitationID}/rechazar [post]
func rejectHandler(svc *Service) http.HandlerFunc {
	return respondHandler(svc.Reject)
}

func respondHandler(op func(ctx context.Context, invitationID, email string) (Invitation, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email, ok := middleware.GetUserEmail(r.Context())
		if !ok || strings.TrimSpace(email) == "" {
			apierror.WriteMsg(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		inv, err := op(r.Context(), chi.URLParam(r, "invitationID"), email)
		if err != nil {
			writeError(w, err)
			return
		}
		apierror.WriteJSON(w, http.StatusOK, toInvitationResponse(inv))
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		apierror.WriteMsg(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrForbidden):
		apierror.WriteMsg(w, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrBadState), errors.Is(err, ErrAlreadyMember):
		apierror.WriteMsg(w, http.StatusConflict, err.Error())
	default:
		apierror.WriteError(w, err)
	}
}

func toInvitationResponse(inv Invitation) invitationResponse {
	return invitationResponse{
		ID:          inv.ID,
		FincaID:     inv.FincaID,
		Email:       inv.Email,
		InvitadoPor: inv.InvitadoPor,
		Rol:         inv.Rol,
		Status:      inv.Status,
		CreatedAt:   inv.CreatedAt,
		UpdatedAt:   inv.UpdatedAt,
	}
}
