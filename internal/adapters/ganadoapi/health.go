package ganadoapi

import (
	"context"
	"fmt"

	"ganado360/internal/domain/health"
	"ganado360/internal/platform/dates"
	"ganado360/internal/platform/httpclient"
	"ganado360/internal/platform/logger"
)

type HealthRepo struct {
	hc *httpclient.Client
	log logger.Logger
}

// incidentPaths y catalogPaths: cada variante es un recurso distinto en el API.
var (
	incidentPaths = map[health.Kind]string{
		health.KindEnfermedad:  "/api/sanidad/incidencias/enfermedades",
		health.KindTratamiento: "/api/sanidad/incidencias/tratamientos",
		health.KindVacunacion:  "/api/sanidad/incidencias/vacunaciones",
	}
	catalogPaths = map[health.Kind]string{
		health.KindEnfermedad:  "/api/sanidad/enfermedades",
		health.KindTratamiento: "/api/sanidad/tratamientos",
		health.KindVacunacion:  "/api/sanidad/vacunas",
	}
)

func pathFor(paths map[health.Kind]string, k health.Kind) (string, error) {
	p, ok := paths[k]
	if !ok {
		return "", fmt.Errorf("%w: %q", health.ErrInvalidKind, k)
	}
	return p, nil
}

type incidentDTO struct {
	ID            string `json:"id,omitempty"`
	AnimalID      string `json:"animalId"`
	CatalogoID    string `json:"catalogoId"`
	Responsable   string `json:"responsable,omitempty"`
	Fecha         string `json:"fecha"`
	Estado        string `json:"estado"`
	Observaciones string `json:"observaciones,omitempty"`
}

func toIncidentDTO(in health.Incident) incidentDTO {
	return incidentDTO{
		ID:            in.ID,
		AnimalID:      in.AnimalID,
		CatalogoID:    in.CatalogID,
		Responsable:   in.Responsable,
		Fecha:         dates.Format(in.Fecha),
		Estado:        string(in.Estado),
		Observaciones: in.Observaciones,
	}
}

func (d incidentDTO) domain(k health.Kind) (health.Incident, error) {
	f, err := parseDate("incidencia.fecha", d.Fecha)
	if err != nil {
		return health.Incident{}, err
	}
	return health.Incident{
		ID:            d.ID,
		Kind:          k,
		AnimalID:      d.AnimalID,
		CatalogID:     d.CatalogoID,
		Responsable:   d.Responsable,
		Fecha:         f,
		Estado:        health.Estado(d.Estado),
		Observaciones: d.Observaciones,
	}, nil
}

type catalogDTO struct {
	ID          string `json:"id"`
	Nombre      string `json:"nombre"`
	Descripcion string `json:"descripcion,omitempty"`
}

func (r *HealthRepo) ListIncidents(ctx context.Context, kind health.Kind) ([]health.Incident, error) {
	p, err := pathFor(incidentPaths, kind)
	if err != nil {
		return nil, err
	}
	var out []incidentDTO
	if err := r.hc.Get(ctx, p, &out); err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	return convertAll(r.log, string(kind), out, func(d incidentDTO) (health.Incident, error) { return d.domain(kind) })
}

func (r *HealthRepo) GetIncident(ctx context.Context, kind health.Kind, id string) (health.Incident, error) {
	p, err := pathFor(incidentPaths, kind)
	if err != nil {
		return health.Incident{}, err
	}
	var out incidentDTO
	if err := r.hc.Get(ctx, withID(p, id), &out); err != nil {
		return health.Incident{}, fmt.Errorf("get %s %s: %w", kind, id, err)
	}
	return out.domain(kind)
}

func (r *HealthRepo) CreateIncident(ctx context.Context, in health.Incident) (health.Incident, error) {
	p, err := pathFor(incidentPaths, in.Kind)
	if err != nil {
		return health.Incident{}, err
	}
	body := toIncidentDTO(in)
	body.ID = ""
	var out incidentDTO
	if err := r.hc.Post(ctx, p, body, &out); err != nil {
		return health.Incident{}, fmt.Errorf("create %s: %w", in.Kind, err)
	}
	return out.domain(in.Kind)
}

func (r *HealthRepo) UpdateIncident(ctx context.Context, in health.Incident) (health.Incident, error) {
	p, err := pathFor(incidentPaths, in.Kind)
	if err != nil {
		return health.Incident{}, err
	}
	var out incidentDTO
	if err := r.hc.Put(ctx, withID(p, in.ID), toIncidentDTO(in), &out); err != nil {
		return health.Incident{}, fmt.Errorf("update %s %s: %w", in.Kind, in.ID, err)
	}
	return out.domain(in.Kind)
}

func (r *HealthRepo) ListCatalog(ctx context.Context, kind health.Kind) ([]health.CatalogItem, error) {
	p, err := pathFor(catalogPaths, kind)
	if err != nil {
		return nil, err
	}
	var out []catalogDTO
	if err := r.hc.Get(ctx, p, &out); err != nil {
		return nil, fmt.Errorf("list catalog %s: %w", kind, err)
	}
	items := make([]health.CatalogItem, 0, len(out))
	for _, d := range out {
		items = append(items, health.CatalogItem{ID: d.ID, Kind: kind, Nombre: d.Nombre, Descripcion: d.Descripcion})
	}
	return items, nil
}
