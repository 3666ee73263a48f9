package accounts

import (
	"encoding/json"
	"net/http"

	"ganado360/internal/platform/apierror"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/auth", func(ar chi.Router) {
		ar.Post("/login", loginHandler(svc))
		ar.Post("/registro", registerHandler(svc))
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type registerRequest struct {
	Nombre       string `json:"nombre"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	Confirmacion string `json:"confirmacion"`
}

type userResponse struct {
	ID     string `json:"id"`
	Nombre string `json:"nombre"`
	Email  string `json:"email"`
}

// loginHandler godoc
// @Summary Iniciar sesión
// @Description Autentica contra el API de Ganado360 y devuelve el token bearer para los siguientes requests.
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body loginRequest true "Credenciales"
// @Success 200 {object} loginResponse
// @Failure 401 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /auth/login [post]
func loginHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apierror.WriteMsg(w, http.StatusBadRequest, "invalid json")
			return
		}
		token, err := svc.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			apierror.WriteError(w, err)
			return
		}
		apierror.WriteJSON(w, http.StatusOK, loginResponse{Token: token})
	}
}

// registerHandler godoc
// @Summary Registrar cuenta
// @Description Contraseña: mínimo 8 caracteres, una mayúscula, una minúscula y un dígito.
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body registerRequest true "Datos de registro"
// @Success 201 {object} userResponse
// @Failure 422 {object} apierror.APIError
// @Router /auth/registro [post]
func registerHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apierror.WriteMsg(w, http.StatusBadRequest, "invalid json")
			return
		}
		u, err := svc.Register(r.Context(), RegisterInput(req))
		if err != nil {
			apierror.WriteError(w, err)
			return
		}
		apierror.WriteJSON(w, http.StatusCreated, userResponse{ID: u.ID, Nombre: u.Nombre, Email: u.Email})
	}
}
