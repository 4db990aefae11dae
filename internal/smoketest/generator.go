package smoketest

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/domain/catalog"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/domain/model"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/pkg/logger"
)

var (
	firstNames = []string{"Ana", "Luis", "Rosa", "Marta", "Jorge", "Elena", "Pablo", "Lucía", "Diego", "Sofía"}
	lastNames  = []string{"Pérez", "Gómez", "Díaz", "Ruiz", "Torres", "Navarro", "Castro", "Romero", "Vega", "Molina"}
)

// rateProbability is the share of catalog items that receive a rating.
const rateProbability = 0.7

// generateDrafts builds cfg.Count drafts from the catalog. Every draft
// carries a run tag in its last name so verification can search for it.
func generateDrafts(ctx context.Context, cfg *Config, cat *catalog.Catalog, tag string, stats *Stats) []model.Draft {
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	drafts := make([]model.Draft, cfg.Count)
	for i := range drafts {
		drafts[i] = generateDraft(rng, cat, tag, i)
	}
	stats.Generated = len(drafts)
	logger.Get().Info(ctx, "generated drafts", logger.Int("count", len(drafts)), logger.String("tag", tag))
	return drafts
}

func generateDraft(rng *rand.Rand, cat *catalog.Catalog, tag string, index int) model.Draft {
	d := model.Draft{
		FirstName:    firstNames[rng.IntN(len(firstNames))],
		LastName:     fmt.Sprintf("%s %s-%d", lastNames[rng.IntN(len(lastNames))], tag, index),
		AcademicYear: cat.AcademicYears[rng.IntN(len(cat.AcademicYears))],
		Trimester:    cat.Trimesters[rng.IntN(len(cat.Trimesters))],
		Ratings:      model.Ratings{},
	}
	for _, c := range cat.Categories {
		for _, it := range c.Items {
			if rng.Float64() < rateProbability {
				d.Ratings.Set(c.ID, it.ID, model.RatingScale[rng.IntN(len(model.RatingScale))])
			}
		}
	}
	return d
}
