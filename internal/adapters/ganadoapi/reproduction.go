package ganadoapi

import (
	"context"
	"fmt"

	"ganado360/internal/domain/inventory"
	"ganado360/internal/domain/reproduction"
	"ganado360/internal/platform/dates"
	"ganado360/internal/platform/httpclient"
	"ganado360/internal/platform/logger"
)

const (
	montasPath       = "/api/reproduccion/montas"
	diagnosticosPath = "/api/reproduccion/diagnosticos"
	gestacionesPath  = "/api/reproduccion/gestaciones"
	nacimientosPath  = "/api/reproduccion/nacimientos"
	genealogiasPath  = "/api/reproduccion/genealogias"
)

type ReproductionRepo struct {
	hc *httpclient.Client
	log logger.Logger
}

type montaDTO struct {
	ID              string `json:"id,omitempty"`
	IDHembra        string `json:"idHembra"`
	IDMacho         string `json:"idMacho,omitempty"`
	Fecha           string `json:"fecha"`
	MetodoUtilizado string `json:"metodoUtilizado"`
	Notas           string `json:"notas,omitempty"`
	Estado          string `json:"estado"`
}

func toMontaDTO(m reproduction.Monta) montaDTO {
	return montaDTO{
		ID:              m.ID,
		IDHembra:        m.IDHembra,
		IDMacho:         m.IDMacho,
		Fecha:           dates.Format(m.Fecha),
		MetodoUtilizado: m.MetodoUtilizado,
		Notas:           m.Notas,
		Estado:          string(m.Estado),
	}
}

func (d montaDTO) domain() (reproduction.Monta, error) {
	f, err := parseDate("monta.fecha", d.Fecha)
	if err != nil {
		return reproduction.Monta{}, err
	}
	return reproduction.Monta{
		ID:              d.ID,
		IDHembra:        d.IDHembra,
		IDMacho:         d.IDMacho,
		Fecha:           f,
		MetodoUtilizado: d.MetodoUtilizado,
		Notas:           d.Notas,
		Estado:          reproduction.MontaEstado(d.Estado),
	}, nil
}

type diagnosticoDTO struct {
	ID            string `json:"id,omitempty"`
	IDMonta       string `json:"idMonta"`
	Fecha         string `json:"fecha"`
	Resultado     string `json:"resultado"`
	Especie       string `json:"especie,omitempty"`
	Observaciones string `json:"observaciones,omitempty"`
}

func (d diagnosticoDTO) domain() (reproduction.Diagnostico, error) {
	f, err := parseDate("diagnostico.fecha", d.Fecha)
	if err != nil {
		return reproduction.Diagnostico{}, err
	}
	return reproduction.Diagnostico{
		ID:            d.ID,
		IDMonta:       d.IDMonta,
		Fecha:         f,
		Resultado:     reproduction.ResultadoDiagnostico(d.Resultado),
		Especie:       d.Especie,
		Observaciones: d.Observaciones,
	}, nil
}

type gestacionDTO struct {
	ID                 string `json:"id"`
	IDHembra           string `json:"idHembra"`
	Estado             string `json:"estado"`
	FechaInicio        string `json:"fechaInicio"`
	FechaEstimadaParto string `json:"fechaEstimadaParto"`
}

func (d gestacionDTO) domain() (reproduction.Gestacion, error) {
	inicio, err := parseDate("gestacion.fechaInicio", d.FechaInicio)
	if err != nil {
		return reproduction.Gestacion{}, err
	}
	parto, err := parseDate("gestacion.fechaEstimadaParto", d.FechaEstimadaParto)
	if err != nil {
		return reproduction.Gestacion{}, err
	}
	return reproduction.Gestacion{
		ID:                 d.ID,
		IDHembra:           d.IDHembra,
		Estado:             reproduction.GestacionEstado(d.Estado),
		FechaInicio:        inicio,
		FechaEstimadaParto: parto,
	}, nil
}

type nacimientoDTO struct {
	ID            string   `json:"id,omitempty"`
	IDMonta       string   `json:"idMonta,omitempty"`
	IDMadre       string   `json:"idMadre"`
	IDAnimal      string   `json:"idAnimal"`
	Fecha         string   `json:"fecha"`
	Sexo          string   `json:"sexo"`
	Peso          *float64 `json:"peso,omitempty"`
	Observaciones string   `json:"observaciones,omitempty"`
}

func (d nacimientoDTO) domain() (reproduction.Nacimiento, error) {
	f, err := parseDate("nacimiento.fecha", d.Fecha)
	if err != nil {
		return reproduction.Nacimiento{}, err
	}
	return reproduction.Nacimiento{
		ID:            d.ID,
		IDMonta:       d.IDMonta,
		IDMadre:       d.IDMadre,
		IDAnimal:      d.IDAnimal,
		Fecha:         f,
		Sexo:          inventory.Sexo(d.Sexo),
		Peso:          d.Peso,
		Observaciones: d.Observaciones,
	}, nil
}

// genealogiaDTO: madre y padre pueden venir null.
type genealogiaDTO struct {
	ID    string `json:"id,omitempty"`
	Madre string `json:"madre,omitempty"`
	Padre string `json:"padre,omitempty"`
	Hijo  string `json:"hijo"`
}

func (d genealogiaDTO) domain() (reproduction.Genealogia, error) {
	return reproduction.Genealogia(d), nil
}

func (r *ReproductionRepo) ListMontas(ctx context.Context) ([]reproduction.Monta, error) {
	var out []montaDTO
	if err := r.hc.Get(ctx, montasPath, &out); err != nil {
		return nil, fmt.Errorf("list montas: %w", err)
	}
	return convertAll(r.log, "monta", out, montaDTO.domain)
}

func (r *ReproductionRepo) GetMonta(ctx context.Context, id string) (reproduction.Monta, error) {
	var out montaDTO
	if err := r.hc.Get(ctx, withID(montasPath, id), &out); err != nil {
		return reproduction.Monta{}, fmt.Errorf("get monta %s: %w", id, err)
	}
	return out.domain()
}

func (r *ReproductionRepo) CreateMonta(ctx context.Context, m reproduction.Monta) (reproduction.Monta, error) {
	var out montaDTO
	if err := r.hc.Post(ctx, montasPath, toMontaDTO(m), &out); err != nil {
		return reproduction.Monta{}, fmt.Errorf("create monta: %w", err)
	}
	return out.domain()
}

func (r *ReproductionRepo) UpdateMonta(ctx context.Context, m reproduction.Monta) (reproduction.Monta, error) {
	var out montaDTO
	if err := r.hc.Put(ctx, withID(montasPath, m.ID), toMontaDTO(m), &out); err != nil {
		return reproduction.Monta{}, fmt.Errorf("update monta %s: %w", m.ID, err)
	}
	return out.domain()
}

func (r *ReproductionRepo) ListDiagnosticos(ctx context.Context) ([]reproduction.Diagnostico, error) {
	var out []diagnosticoDTO
	if err := r.hc.Get(ctx, diagnosticosPath, &out); err != nil {
		return nil, fmt.Errorf("list diagnosticos: %w", err)
	}
	return convertAll(r.log, "diagnostico", out, diagnosticoDTO.domain)
}

func (r *ReproductionRepo) CreateDiagnostico(ctx context.Context, d reproduction.Diagnostico) (reproduction.Diagnostico, error) {
	in := diagnosticoDTO{
		IDMonta:       d.IDMonta,
		Fecha:         dates.Format(d.Fecha),
		Resultado:     string(d.Resultado),
		Especie:       d.Especie,
		Observaciones: d.Observaciones,
	}
	var out diagnosticoDTO
	if err := r.hc.Post(ctx, diagnosticosPath, in, &out); err != nil {
		return reproduction.Diagnostico{}, fmt.Errorf("create diagnostico: %w", err)
	}
	return out.domain()
}

func (r *ReproductionRepo) ListGestaciones(ctx context.Context) ([]reproduction.Gestacion, error) {
	var out []gestacionDTO
	if err := r.hc.Get(ctx, gestacionesPath, &out); err != nil {
		return nil, fmt.Errorf("list gestaciones: %w", err)
	}
	return convertAll(r.log, "gestacion", out, gestacionDTO.domain)
}

func (r *ReproductionRepo) ListNacimientos(ctx context.Context) ([]reproduction.Nacimiento, error) {
	var out []nacimientoDTO
	if err := r.hc.Get(ctx, nacimientosPath, &out); err != nil {
		return nil, fmt.Errorf("list nacimientos: %w", err)
	}
	return convertAll(r.log, "nacimiento", out, nacimientoDTO.domain)
}

func (r *ReproductionRepo) CreateNacimiento(ctx context.Context, n reproduction.Nacimiento) (reproduction.Nacimiento, error) {
	in := nacimientoDTO{
		IDMonta:       n.IDMonta,
		IDMadre:       n.IDMadre,
		IDAnimal:      n.IDAnimal,
		Fecha:         dates.Format(n.Fecha),
		Sexo:          string(n.Sexo),
		Peso:          n.Peso,
		Observaciones: n.Observaciones,
	}
	var out nacimientoDTO
	if err := r.hc.Post(ctx, nacimientosPath, in, &out); err != nil {
		return reproduction.Nacimiento{}, fmt.Errorf("create nacimiento: %w", err)
	}
	return out.domain()
}

func (r *ReproductionRepo) ListGenealogias(ctx context.Context) ([]reproduction.Genealogia, error) {
	var out []genealogiaDTO
	if err := r.hc.Get(ctx, genealogiasPath, &out); err != nil {
		return nil, fmt.Errorf("list genealogias: %w", err)
	}
	return convertAll(r.log, "genealogia", out, genealogiaDTO.domain)
}

func (r *ReproductionRepo) CreateGenealogia(ctx context.Context, g reproduction.Genealogia) (reproduction.Genealogia, error) {
	var out genealogiaDTO
	g.ID = ""
	if err := r.hc.Post(ctx, genealogiasPath, genealogiaDTO(g), &out); err != nil {
		return reproduction.Genealogia{}, fmt.Errorf("create genealogia: %w", err)
	}
	return out.domain()
}
