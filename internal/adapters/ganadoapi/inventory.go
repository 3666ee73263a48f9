package ganadoapi

import (
	"context"
	"fmt"
	"net/url"

	"ganado360/internal/domain/inventory"
	"ganado360/internal/platform/dates"
	"ganado360/internal/platform/httpclient"
	"ganado360/internal/platform/logger"
)

const (
	animalesPath  = "/api/inventory/animales"
	historiasPath = "/api/inventory/animales/historias"
)

type InventoryRepo struct {
	hc *httpclient.Client
	log logger.Logger
}

type animalDTO struct {
	ID              string   `json:"id,omitempty"`
	FincaID         string   `json:"fincaId"`
	Especie         string   `json:"especie"`
	Raza            string   `json:"raza"`
	Sexo            string   `json:"sexo"`
	FechaNacimiento string   `json:"fechaNacimiento"`
	Identificador   string   `json:"identificador,omitempty"`
	Peso            *float64 `json:"peso,omitempty"`
	Ubicacion       string   `json:"ubicacion,omitempty"`
	Estado          string   `json:"estado"`
}

func toAnimalDTO(a inventory.Animal) animalDTO {
	return animalDTO{
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

func (d animalDTO) domain() (inventory.Animal, error) {
	nac, err := parseDate("fechaNacimiento", d.FechaNacimiento)
	if err != nil {
		return inventory.Animal{}, err
	}
	return inventory.Animal{
		ID:              d.ID,
		FincaID:         d.FincaID,
		Especie:         d.Especie,
		Raza:            d.Raza,
		Sexo:            inventory.Sexo(d.Sexo),
		FechaNacimiento: nac,
		Identificador:   d.Identificador,
		Peso:            d.Peso,
		Ubicacion:       d.Ubicacion,
		Estado:          inventory.Estado(d.Estado),
	}, nil
}

type historyDTO struct {
	ID          string `json:"id,omitempty"`
	AnimalID    string `json:"animalId"`
	TipoEvento  string `json:"tipoEvento"`
	Fecha       string `json:"fecha"`
	Descripcion string `json:"descripcion"`
}

func (d historyDTO) domain() (inventory.HistoryEntry, error) {
	f, err := parseDate("fecha", d.Fecha)
	if err != nil {
		return inventory.HistoryEntry{}, err
	}
	return inventory.HistoryEntry{
		ID:          d.ID,
		AnimalID:    d.AnimalID,
		TipoEvento:  inventory.TipoEvento(d.TipoEvento),
		Fecha:       f,
		Descripcion: d.Descripcion,
	}, nil
}

func (r *InventoryRepo) CreateAnimal(ctx context.Context, a inventory.Animal) (inventory.Animal, error) {
	var out animalDTO
	if err := r.hc.Post(ctx, animalesPath, toAnimalDTO(a), &out); err != nil {
		return inventory.Animal{}, fmt.Errorf("create animal: %w", err)
	}
	return out.domain()
}

func (r *InventoryRepo) GetAnimal(ctx context.Context, id string) (inventory.Animal, error) {
	var out animalDTO
	if err := r.hc.Get(ctx, withID(animalesPath, id), &out); err != nil {
		return inventory.Animal{}, fmt.Errorf("get animal %s: %w", id, err)
	}
	return out.domain()
}

func (r *InventoryRepo) ListAnimals(ctx context.Context) ([]inventory.Animal, error) {
	var out []animalDTO
	if err := r.hc.Get(ctx, animalesPath, &out); err != nil {
		return nil, fmt.Errorf("list animals: %w", err)
	}
	return convertAll(r.log, "animal", out, animalDTO.domain)
}

func (r *InventoryRepo) UpdateAnimal(ctx context.Context, a inventory.Animal) (inventory.Animal, error) {
	var out animalDTO
	if err := r.hc.Put(ctx, withID(animalesPath, a.ID), toAnimalDTO(a), &out); err != nil {
		return inventory.Animal{}, fmt.Errorf("update animal %s: %w", a.ID, err)
	}
	return out.domain()
}

func (r *InventoryRepo) AppendHistory(ctx context.Context, e inventory.HistoryEntry) (inventory.HistoryEntry, error) {
	in := historyDTO{
		AnimalID:    e.AnimalID,
		TipoEvento:  string(e.TipoEvento),
		Fecha:       dates.FormatInstant(e.Fecha),
		Descripcion: e.Descripcion,
	}
	var out historyDTO
	if err := r.hc.Post(ctx, historiasPath, in, &out); err != nil {
		return inventory.HistoryEntry{}, fmt.Errorf("append history %s: %w", e.AnimalID, err)
	}
	return out.domain()
}

// ListHistory filtra por animalId en el query y de nuevo localmente: el
// endpoint devuelve todas las historias si no reconoce el parámetro.
func (r *InventoryRepo) ListHistory(ctx context.Context, animalID string) ([]inventory.HistoryEntry, error) {
	var out []historyDTO
	path := withQuery(historiasPath, url.Values{"animalId": {animalID}})
	if err := r.hc.Get(ctx, path, &out); err != nil {
		return nil, fmt.Errorf("list history %s: %w", animalID, err)
	}
	items := make([]inventory.HistoryEntry, 0, len(out))
	for _, d := range out {
		if d.AnimalID != animalID {
			continue
		}
		e, err := d.domain()
		if err != nil {
			r.log.Warn("registro descartado", map[string]any{"resource": "historia", "animalId": animalID, "err": err})
			continue
		}
		items = append(items, e)
	}
	return items, nil
}
