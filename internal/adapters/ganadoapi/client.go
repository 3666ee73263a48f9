// Package ganadoapi implementa los repositorios de dominio sobre el API REST de
// Ganado360. Los DTOs de este paquete reflejan el JSON del API (camelCase en
// español); el dominio no conoce el formato de cable.
package ganadoapi

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"ganado360/internal/platform/dates"
	"ganado360/internal/platform/httpclient"
	"ganado360/internal/platform/logger"
)

// API agrupa un repositorio por recurso, todos sobre el mismo cliente HTTP
// (misma sesión, mismo timeout).
type API struct {
	Inventory    *InventoryRepo
	Reproduction *ReproductionRepo
	Health       *HealthRepo
	Fincas       *FincasRepo
	Accounts     *AccountsRepo
}

// New arma los repositorios. log nil => nop.
func New(hc *httpclient.Client, log logger.Logger) *API {
	if log == nil {
		log = logger.NewNop()
	}
	log = log.With(map[string]any{"component": "ganadoapi"})
	return &API{
		Inventory:    &InventoryRepo{hc: hc, log: log},
		Reproduction: &ReproductionRepo{hc: hc, log: log},
		Health:       &HealthRepo{hc: hc, log: log},
		Fincas:       &FincasRepo{hc: hc, log: log},
		Accounts:     &AccountsRepo{hc: hc, log: log},
	}
}

func withID(base, id string) string {
	return base + "/" + url.PathEscape(strings.TrimSpace(id))
}

func withQuery(base string, q url.Values) string {
	if len(q) == 0 {
		return base
	}
	return base + "?" + q.Encode()
}

// parseDate envuelve el error con el campo para que el log diga cuál vino mal.
func parseDate(field, s string) (time.Time, error) {
	t, err := dates.Parse(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("ganadoapi: %s: %w", field, err)
	}
	return t, nil
}

// convertAll descarta los registros que no se pueden convertir: un solo dato
// malo del API no debe dejar la lista entera vacía. Cada descarte queda en el log.
func convertAll[D any, T any](log logger.Logger, resource string, in []D, conv func(D) (T, error)) ([]T, error) {
	out := make([]T, 0, len(in))
	for i, d := range in {
		v, err := conv(d)
		if err != nil {
			log.Warn("registro descartado", map[string]any{"resource": resource, "index": i, "err": err})
			continue
		}
		out = append(out, v)
	}
	return out, nil
}
