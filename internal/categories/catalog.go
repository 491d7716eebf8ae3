package categories

import (
	"context"

	"github.com/angelmondragon/delatte-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/delatte-backend/pkg/errors"
	"github.com/angelmondragon/delatte-backend/pkg/schedule"
)

type catalogEntry struct {
	name        string
	description string
	rule        schedule.Rule
}

// Catalog is the structural category set every deployment starts with.
var Catalog = []catalogEntry{
	{name: "Pet-friendly", description: "Permiten el ingreso de mascotas"},
	{name: "WiFi", description: "Ofrecen conexión WiFi gratuita"},
	{name: "Espacio para trabajar", description: "Tienen mesas y ambiente cómodo para trabajar con notebook"},
	{name: "Abre hasta tarde", description: "Cierra después de las 22:00 horas", rule: schedule.RuleOpensAfter20},
	{name: "Abre temprano", description: "Abre antes de las 08:00 horas", rule: schedule.RuleOpensBefore08},
	{name: "Al aire libre", description: "Cuenta con espacio al aire libre o terraza"},
	{name: "Opciones vegetarianas", description: "Incluyen comidas vegetarianas"},
	{name: "Opciones veganas", description: "Incluyen opciones veganas"},
	{name: "Opciones sin gluten", description: "Ofrecen alimentos sin TACC"},
	{name: "Accesible", description: "Accesible para personas con movilidad reducida"},
	{name: "Reservas", description: "Permite hacer reservas de mesas"},
	{name: "Espacio tranquilo", description: "Ambiente silencioso, ideal para estudiar o trabajar"},
	{name: "Céntrico", description: "Ubicado en zonas céntricas de la ciudad"},
	{name: "Ideal para ir en grupo", description: "Tiene espacio suficiente para grupos grandes"},
	{name: "Ideal para ir solo", description: "Ambiente cómodo para visitar sin compañía"},
	{name: "Acepta tarjetas", description: "Acepta pagos con tarjetas de débito y/o crédito"},
	{name: "Tiene enchufes", description: "Cuenta con enchufes accesibles para cargar dispositivos"},
	{name: "Espacio techado", description: "Tiene zona techada para días de lluvia"},
	{name: "Cerca de transporte público", description: "Ubicado a pocas cuadras de paradas de ómnibus/tren"},
}

// SeedResult lists catalogue names by outcome.
type SeedResult struct {
	Created []string
	Skipped []string
}

// SeedCatalog creates the missing catalogue entries. Names already taken are skipped.
func SeedCatalog(ctx context.Context, svc Service) (*SeedResult, error) {
	out := &SeedResult{}
	for _, entry := range Catalog {
		input := CreateInput{
			Name:        entry.name,
			Description: &entry.description,
			Type:        enums.CategoryTypeStructural,
		}
		if entry.rule != "" {
			rule := string(entry.rule)
			input.ScheduleRule = &rule
		}
		if _, err := svc.CreateByAdmin(ctx, input); err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
				out.Skipped = append(out.Skipped, entry.name)
				continue
			}
			return out, err
		}
		out.Created = append(out.Created, entry.name)
	}
	return out, nil
}
