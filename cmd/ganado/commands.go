package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"ganado360/internal/domain/inventory"
	"ganado360/internal/domain/reproduction"
	"ganado360/internal/platform/dates"

	"github.com/spf13/cobra"
)

func (a *app) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Inicia sesión y guarda el token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := a.accounts.Login(cmd.Context(), email, password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sesión iniciada como %s\n", strings.ToLower(strings.TrimSpace(email)))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "correo de la cuenta")
	cmd.Flags().StringVar(&password, "password", "", "contraseña")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Borra el token guardado",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.accounts.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Sesión cerrada")
			return nil
		},
	}
}

func (a *app) pedigreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "pedigree <animalID>",
		Short:   "Muestra padres, abuelos y crías de un animal",
		Args:    cobra.ExactArgs(1),
		PreRunE: a.requireSession,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.reproduction.Pedigree(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printPedigree(cmd.OutOrStdout(), p)
			return nil
		},
	}
}

func (a *app) historialCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "historial <animalID>",
		Short:   "Historial reproductivo de un animal (más reciente primero)",
		Args:    cobra.ExactArgs(1),
		PreRunE: a.requireSession,
		RunE: func(cmd *cobra.Command, args []string) error {
			tl, err := a.reproduction.History(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printTimeline(cmd.OutOrStdout(), tl)
			return nil
		},
	}
}

func (a *app) diagnosticoCmd() *cobra.Command {
	var fecha, resultado, especie, obs string
	cmd := &cobra.Command{
		Use:     "diagnostico <montaID>",
		Short:   "Registra un diagnóstico de preñez sobre una monta activa",
		Args:    cobra.ExactArgs(1),
		PreRunE: a.requireSession,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseDay(fecha)
			if err != nil {
				return err
			}
			d, m, err := a.reproduction.RegisterDiagnosis(cmd.Context(), reproduction.DiagnosisInput{
				MatingID:      args[0],
				Fecha:         f,
				Resultado:     reproduction.ResultadoDiagnostico(resultado),
				Especie:       especie,
				Observaciones: obs,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Diagnóstico %s registrado (%s). Monta %s: %s\n", d.ID, d.Resultado, m.ID, m.Estado)
			return nil
		},
	}
	cmd.Flags().StringVar(&fecha, "fecha", "", "fecha del diagnóstico (YYYY-MM-DD, default hoy)")
	cmd.Flags().StringVar(&resultado, "resultado", "", "GESTANTE | VACIA | NO_CONCLUYENTE")
	cmd.Flags().StringVar(&especie, "especie", "", "especie")
	cmd.Flags().StringVar(&obs, "observaciones", "", "observaciones")
	_ = cmd.MarkFlagRequired("resultado")
	return cmd
}

func (a *app) nacimientoCmd() *cobra.Command {
	var (
		in    reproduction.BirthInput
		sexo  string
		fecha string
		peso  float64
	)
	cmd := &cobra.Command{
		Use:     "nacimiento",
		Short:   "Registra un parto: crea la cría, el nacimiento, cierra la monta y vincula la genealogía",
		Args:    cobra.NoArgs,
		PreRunE: a.requireSession,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := parseDay(fecha)
			if err != nil {
				return err
			}
			in.Newborn.Sexo = inventory.Sexo(strings.ToUpper(sexo))
			in.Newborn.FechaNacimiento = f
			if cmd.Flags().Changed("peso") {
				in.Newborn.Peso = &peso
			}
			res, err := a.reproduction.RegisterBirth(cmd.Context(), in)
			if err != nil {
				return describeBirthError(err)
			}
			printBirth(cmd.OutOrStdout(), res)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.MatingID, "monta", "", "id de la monta")
	f.StringVar(&in.MotherID, "madre", "", "id de la madre")
	f.StringVar(&in.Newborn.FincaID, "finca", "", "finca de la cría (default: la de la madre)")
	f.StringVar(&in.Newborn.Especie, "especie", "", "especie")
	f.StringVar(&in.Newborn.Raza, "raza", "", "raza")
	f.StringVar(&sexo, "sexo", "", "M | H")
	f.StringVar(&fecha, "fecha", "", "fecha de nacimiento (YYYY-MM-DD, default hoy)")
	f.Float64Var(&peso, "peso", 0, "peso en kg")
	f.StringVar(&in.Newborn.Identificador, "identificador", "", "identificador (arete, tatuaje)")
	f.StringVar(&in.Newborn.Ubicacion, "ubicacion", "", "potrero o corral")
	f.StringVar(&in.Observaciones, "observaciones", "", "observaciones del parto")
	for _, name := range []string{"monta", "madre", "especie", "raza", "sexo"} {
		_ = cmd.MarkFlagRequired(name)
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "reanudar <sagaID>",
		Short:   "Continúa un registro de parto que quedó incompleto",
		Args:    cobra.ExactArgs(1),
		PreRunE: a.requireSession,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.reproduction.ResumeBirth(cmd.Context(), args[0])
			if err != nil {
				return describeBirthError(err)
			}
			printBirth(cmd.OutOrStdout(), res)
			return nil
		},
	})
	return cmd
}

func (a *app) bajaCmd() *cobra.Command {
	var motivo string
	cmd := &cobra.Command{
		Use:     "baja <animalID>",
		Short:   "Da de baja un animal (queda Inactivo con el motivo en su historia)",
		Args:    cobra.ExactArgs(1),
		PreRunE: a.requireSession,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.inventory.Retire(cmd.Context(), args[0], motivo); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Animal %s dado de baja\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&motivo, "motivo", "", "motivo de la baja")
	_ = cmd.MarkFlagRequired("motivo")
	return cmd
}

func (a *app) recordatoriosCmd() *cobra.Command {
	var dias int
	cmd := &cobra.Command{
		Use:     "recordatorios",
		Short:   "Partos estimados dentro de la ventana",
		Args:    cobra.NoArgs,
		PreRunE: a.requireSession,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dias < 0 || dias > 365 {
				return errors.New("--dias debe estar entre 0 y 365")
			}
			gs, err := a.reproduction.UpcomingBirths(cmd.Context(), time.Duration(dias)*24*time.Hour)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(gs) == 0 {
				fmt.Fprintf(out, "Sin partos estimados en los próximos %d días\n", dias)
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PARTO ESTIMADO\tHEMBRA\tGESTACION")
			for _, g := range gs {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", dates.Format(g.FechaEstimadaParto), g.IDHembra, g.ID)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&dias, "dias", a.reminderDays, "ventana en días")
	return cmd
}

// ---------------------------------------------------------------------------
// salida
// ---------------------------------------------------------------------------

func parseDay(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return dates.Parse(s)
}

func nodeLabel(n reproduction.PedigreeNode) string {
	switch n.Status {
	case reproduction.NodeAbsent:
		return "-"
	case reproduction.NodeUnknown:
		return n.ID + " (no registrado)"
	}
	if n.Animal != nil && n.Animal.Identificador != "" {
		return fmt.Sprintf("%s [%s] %s", n.ID, n.Animal.Identificador, n.Animal.Sexo)
	}
	if n.Animal != nil {
		return fmt.Sprintf("%s %s", n.ID, n.Animal.Sexo)
	}
	return n.ID
}

func printPedigree(w io.Writer, p reproduction.Pedigree) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	rows := []struct {
		label string
		node  reproduction.PedigreeNode
	}{
		{"Animal", p.Target},
		{"Madre", p.Mother},
		{"Padre", p.Father},
		{"Abuela materna", p.MaternalGrandmother},
		{"Abuelo materno", p.MaternalGrandfather},
		{"Abuela paterna", p.PaternalGrandmother},
		{"Abuelo paterno", p.PaternalGrandfather},
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "%s:\t%s\n", r.label, nodeLabel(r.node))
	}
	_ = tw.Flush()

	if len(p.Descendants) == 0 {
		fmt.Fprintln(w, "Crías: ninguna")
	} else {
		fmt.Fprintf(w, "Crías (%d):\n", len(p.Descendants))
		for _, d := range p.Descendants {
			fmt.Fprintf(w, "  %s\n", nodeLabel(d))
		}
	}
	if p.CycleDetected {
		fmt.Fprintln(w, "AVISO: la genealogía tiene un ciclo; revisar los registros")
	}
}

func printTimeline(w io.Writer, tl reproduction.Timeline) {
	if len(tl.Events) == 0 {
		fmt.Fprintln(w, "Sin eventos reproductivos")
	} else {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "FECHA\tEVENTO\tID\tDETALLE")
		for _, e := range tl.Events {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", dates.Format(e.Fecha), e.Tipo, e.SourceID(), eventDetail(e))
		}
		_ = tw.Flush()
	}
	if len(tl.FailedSources) > 0 {
		fmt.Fprintf(w, "AVISO: no se pudieron leer: %s\n", strings.Join(tl.FailedSources, ", "))
	}
}

func eventDetail(e reproduction.TimelineEvent) string {
	switch {
	case e.Monta != nil:
		return fmt.Sprintf("%s %s", e.Monta.MetodoUtilizado, e.Monta.Estado)
	case e.Diagnostico != nil:
		return string(e.Diagnostico.Resultado)
	case e.Gestacion != nil:
		return fmt.Sprintf("%s, parto estimado %s", e.Gestacion.Estado, dates.Format(e.Gestacion.FechaEstimadaParto))
	case e.Nacimiento != nil:
		return "cría " + e.Nacimiento.IDAnimal
	}
	return ""
}

func printBirth(w io.Writer, res reproduction.BirthResult) {
	fmt.Fprintf(w, "Parto registrado. Cría %s, nacimiento %s, genealogía %s\n", res.AnimalID, res.BirthID, res.GenealogiaID)
}

// describeBirthError agrega al error lo que el usuario necesita para reanudar.
func describeBirthError(err error) error {
	var be *reproduction.BirthError
	if !errors.As(err, &be) || !be.Partial() {
		return err
	}
	return fmt.Errorf("%w\nla cría %s ya existe; reintenta con `ganado nacimiento reanudar %s`", err, be.AnimalID, be.SagaID)
}
