package generator

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/devika/graphchat/internal/domain"
)

// Dataset contains the generated entities, relationships, and document chunks.
type Dataset struct {
	Entities      []domain.EntityInput       `json:"entities"`
	Relationships []domain.RelationshipInput `json:"relationships"`
	Chunks        []domain.DocumentChunk     `json:"chunks"`
}

// Generator produces a synthetic corporate knowledge corpus: organizations,
// the people who founded and run them, the cities they operate from, and prose
// documents restating the same facts so graph and vector retrieval overlap.
type Generator struct {
	cfg       Config
	rand      *rand.Rand
	fragments nameFragments
}

// New returns a configured Generator instance.
func New(cfg Config) *Generator {
	defaults := DefaultConfig()
	if cfg.NumOrganizations <= 0 {
		cfg.NumOrganizations = defaults.NumOrganizations
	}
	if cfg.NumPeople <= 0 {
		cfg.NumPeople = defaults.NumPeople
	}
	if cfg.NumDocuments <= 0 {
		cfg.NumDocuments = defaults.NumDocuments
	}
	if cfg.AliasChance <= 0 {
		cfg.AliasChance = defaults.AliasChance
	}
	if cfg.AcquireChance <= 0 {
		cfg.AcquireChance = defaults.AcquireChance
	}
	if cfg.PartnerChance <= 0 {
		cfg.PartnerChance = defaults.PartnerChance
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	return &Generator{
		cfg:       cfg,
		rand:      rand.New(rand.NewSource(cfg.Seed)),
		fragments: defaultNameFragments(),
	}
}

type org struct {
	entity  domain.EntityInput
	founder domain.EntityInput
	city    domain.EntityInput
}

// Generate synthesises the corpus. It respects context cancellation.
func (g *Generator) Generate(ctx context.Context) (Dataset, error) {
	var dataset Dataset

	cities := g.generateCities()
	people := g.generatePeople()
	dataset.Entities = append(dataset.Entities, cities...)
	dataset.Entities = append(dataset.Entities, people...)

	orgs := make([]org, 0, g.cfg.NumOrganizations)
	for i := 0; i < g.cfg.NumOrganizations; i++ {
		if err := ctx.Err(); err != nil {
			return Dataset{}, err
		}

		entity := g.generateOrganization(i)
		founder := people[g.rand.Intn(len(people))]
		city := cities[g.rand.Intn(len(cities))]
		orgs = append(orgs, org{entity: entity, founder: founder, city: city})
		dataset.Entities = append(dataset.Entities, entity)

		dataset.Relationships = append(dataset.Relationships,
			domain.RelationshipInput{SourceID: founder.ID, TargetID: entity.ID, Relation: "founded"},
			domain.RelationshipInput{SourceID: entity.ID, TargetID: city.ID, Relation: "located_in"},
		)
	}

	// Employment: everyone not founding anything still works somewhere.
	for _, person := range people {
		employer := orgs[g.rand.Intn(len(orgs))]
		dataset.Relationships = append(dataset.Relationships, domain.RelationshipInput{
			SourceID: person.ID,
			TargetID: employer.entity.ID,
			Relation: "works_at",
		})
	}

	// Inter-company structure: acquisitions and partnerships.
	for i, o := range orgs {
		if err := ctx.Err(); err != nil {
			return Dataset{}, err
		}
		if len(orgs) > 1 && g.rand.Float64() < g.cfg.AcquireChance {
			target := orgs[g.pickOther(i, len(orgs))]
			dataset.Relationships = append(dataset.Relationships, domain.RelationshipInput{
				SourceID: o.entity.ID,
				TargetID: target.entity.ID,
				Relation: "acquired",
			})
		}
		if len(orgs) > 1 && g.rand.Float64() < g.cfg.PartnerChance {
			partner := orgs[g.pickOther(i, len(orgs))]
			dataset.Relationships = append(dataset.Relationships, domain.RelationshipInput{
				SourceID: o.entity.ID,
				TargetID: partner.entity.ID,
				Relation: "partnered_with",
			})
		}
	}

	for i := 0; i < g.cfg.NumDocuments; i++ {
		if err := ctx.Err(); err != nil {
			return Dataset{}, err
		}
		subject := orgs[g.rand.Intn(len(orgs))]
		source := fmt.Sprintf("doc-%03d.txt", i+1)
		dataset.Chunks = append(dataset.Chunks, domain.DocumentChunk{
			ID:     fmt.Sprintf("chunk-%03d-0", i+1),
			Source: source,
			Text:   g.generateArticle(subject),
			Index:  0,
		})
	}

	return dataset, nil
}

func (g *Generator) generateCities() []domain.EntityInput {
	cities := make([]domain.EntityInput, 0, len(g.fragments.cities))
	for _, name := range g.fragments.cities {
		cities = append(cities, domain.EntityInput{
			ID:    "city_" + slug(name),
			Label: name,
			Type:  "LOCATION",
		})
	}
	return cities
}

func (g *Generator) generatePeople() []domain.EntityInput {
	people := make([]domain.EntityInput, 0, g.cfg.NumPeople)
	seen := map[string]struct{}{}
	for len(people) < g.cfg.NumPeople {
		first := g.fragments.first[g.rand.Intn(len(g.fragments.first))]
		last := g.fragments.last[g.rand.Intn(len(g.fragments.last))]
		name := first + " " + last
		if _, ok := seen[name]; ok {
			// Name pools are small; disambiguate with a middle initial.
			name = fmt.Sprintf("%s %c. %s", first, 'A'+rune(g.rand.Intn(26)), last)
			if _, ok := seen[name]; ok {
				continue
			}
		}
		seen[name] = struct{}{}
		people = append(people, domain.EntityInput{
			ID:    "person_" + slug(name),
			Label: name,
			Type:  "PERSON",
		})
	}
	return people
}

func (g *Generator) generateOrganization(idx int) domain.EntityInput {
	stem := g.fragments.orgStems[g.rand.Intn(len(g.fragments.orgStems))]
	suffix := g.fragments.orgSuffixes[g.rand.Intn(len(g.fragments.orgSuffixes))]
	label := fmt.Sprintf("%s %s", stem, suffix)

	entity := domain.EntityInput{
		ID:          fmt.Sprintf("org_%03d_%s", idx+1, slug(label)),
		Label:       label,
		Type:        "ORG",
		Description: fmt.Sprintf("%s is a %s company.", label, g.fragments.sectors[g.rand.Intn(len(g.fragments.sectors))]),
	}
	if g.rand.Float64() < g.cfg.AliasChance {
		entity.Aliases = append(entity.Aliases, stem)
	}
	return entity
}

func (g *Generator) generateArticle(subject org) string {
	year := 1980 + g.rand.Intn(44)
	sentences := []string{
		fmt.Sprintf("%s was founded in %d by %s.", subject.entity.Label, year, subject.founder.Label),
		fmt.Sprintf("The company is headquartered in %s.", subject.city.Label),
		fmt.Sprintf("%s operates in the %s sector.", subject.entity.Label,
			g.fragments.sectors[g.rand.Intn(len(g.fragments.sectors))]),
		fmt.Sprintf("Under %s the firm grew to %d employees.", subject.founder.Label, 10+g.rand.Intn(5000)),
	}
	return strings.Join(sentences, " ")
}

func (g *Generator) pickOther(self, total int) int {
	other := g.rand.Intn(total)
	if other == self {
		other = (other + 1) % total
	}
	return other
}

func slug(value string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(value) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return strings.Trim(b.String(), "_")
}

type nameFragments struct {
	first       []string
	last        []string
	orgStems    []string
	orgSuffixes []string
	sectors     []string
	cities      []string
}

func defaultNameFragments() nameFragments {
	return nameFragments{
		first:       []string{"Jane", "John", "Alex", "Priya", "Liu", "Maria", "Omar", "Sofia", "Noah", "Emma", "Lucas", "Mia", "Ava", "Ethan", "Zara"},
		last:        []string{"Doe", "Smith", "Chen", "Patel", "Garcia", "Khan", "Kim", "Ivanov", "Nguyen", "Silva", "Brown", "Lee"},
		orgStems:    []string{"Acme", "Globex", "Initech", "Umbra", "Vertex", "Nimbus", "Quantum", "Stellar", "Orchid", "Cobalt", "Meridian", "Aurora"},
		orgSuffixes: []string{"Corporation", "Industries", "Labs", "Systems", "Holdings", "Technologies", "Group"},
		sectors:     []string{"logistics", "fintech", "robotics", "biotech", "energy", "aerospace", "retail", "telecom"},
		cities:      []string{"San Francisco", "New York", "Seattle", "Austin", "Chicago", "Berlin", "London", "Singapore", "Tokyo"},
	}
}
